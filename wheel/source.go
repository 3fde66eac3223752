package wheel

import (
	"crypto/hmac"
	crand "crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"
)

var (
	ErrInvalidBound = errors.New("random bound must be positive")
)

// Source draws uniformly distributed integers in [0, n).
type Source interface {
	Intn(n int) (int, error)
}

// SeededSource is a pseudo random source. Equal seeds produce equal draws.
type SeededSource struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewSeededSource builds a pseudo random source. A zero seed uses the current time.
func NewSeededSource(seed int64) *SeededSource {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &SeededSource{
		rnd: rand.New(rand.NewSource(seed)),
	}
}

func (s *SeededSource) Intn(n int) (int, error) {
	if n <= 0 {
		return 0, ErrInvalidBound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rnd.Intn(n), nil
}

// ProvablyFairSource derives every draw from HMAC-SHA256(serverSeed, clientSeed:nonce:round).
// The nonce moves forward by one per draw so a player holding both seeds can
// replay every outcome once the server seed is revealed.
type ProvablyFairSource struct {
	mu         sync.Mutex
	serverSeed string
	clientSeed string
	nonce      uint64
}

// Fairness is the public part of a provably fair source.
type Fairness struct {
	ServerSeedHash string `json:"serverSeedHash"`
	ClientSeed     string `json:"clientSeed"`
	Nonce          uint64 `json:"nonce"`
}

// Reveal is a retired server seed and the draws it served, nonces 0 to Draws-1.
type Reveal struct {
	ServerSeed string `json:"serverSeed"`
	ClientSeed string `json:"clientSeed"`
	Draws      uint64 `json:"draws"`
}

// NewServerSeed returns 32 random bytes, hex encoded.
func NewServerSeed() (string, error) {
	b := make([]byte, 32)
	if _, err := crand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate server seed - %w", err)
	}
	return hex.EncodeToString(b), nil
}

func NewProvablyFairSource(serverSeed, clientSeed string) *ProvablyFairSource {
	return &ProvablyFairSource{
		serverSeed: serverSeed,
		clientSeed: clientSeed,
	}
}

func (p *ProvablyFairSource) Intn(n int) (int, error) {
	if n <= 0 {
		return 0, ErrInvalidBound
	}
	p.mu.Lock()
	serverSeed, clientSeed, nonce := p.serverSeed, p.clientSeed, p.nonce
	p.nonce++
	p.mu.Unlock()

	f := Float(serverSeed, clientSeed, nonce)
	return int(math.Floor(f * float64(n))), nil
}

// Rotate replaces the server seed and starts the nonce over. The previous seed
// is revealed together with the number of draws it served, so every one of
// them can be recomputed with Float.
func (p *ProvablyFairSource) Rotate(serverSeed string) Reveal {
	p.mu.Lock()
	defer p.mu.Unlock()

	rev := Reveal{
		ServerSeed: p.serverSeed,
		ClientSeed: p.clientSeed,
		Draws:      p.nonce,
	}
	p.serverSeed = serverSeed
	p.nonce = 0

	return rev
}

// Fairness returns the hashed server seed, the client seed and the nonce of the next draw.
func (p *ProvablyFairSource) Fairness() Fairness {
	p.mu.Lock()
	defer p.mu.Unlock()

	sum := sha256.Sum256([]byte(p.serverSeed))
	return Fairness{
		ServerSeedHash: hex.EncodeToString(sum[:]),
		ClientSeed:     p.clientSeed,
		Nonce:          p.nonce,
	}
}

// Float returns the first float in [0, 1) of the HMAC stream for the given nonce.
func Float(serverSeed, clientSeed string, nonce uint64) float64 {
	return hmacFloat(serverSeed, fmt.Sprintf("%s:%d:%d", clientSeed, nonce, 0))
}

// hmacFloat turns the first 4 bytes of HMAC-SHA256(key, msg) into a float in [0, 1).
func hmacFloat(key, msg string) float64 {
	h := hmac.New(sha256.New, []byte(key))
	h.Write([]byte(msg))
	sum := h.Sum(nil)

	result := 0.0
	for i := 0; i < 4; i++ {
		result += float64(sum[i]) / math.Pow(256, float64(i+1))
	}
	return result
}
