package wheel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/hashicorp/go-retryablehttp"
)

const (
	DefaultBeaconURL = "https://api.drand.sh/public/latest"
)

var (
	ErrStaleBeacon = errors.New("randomness beacon has no new round since the last spin")
)

// Advancer is a Source that has to move to fresh randomness before every spin.
// Advance may block on I/O and must not be called while holding table state.
type Advancer interface {
	Source
	Advance(ctx context.Context) error
}

// BeaconRound is the subset of a public randomness beacon round this table uses.
type BeaconRound struct {
	Round      uint64 `json:"round"`
	Randomness string `json:"randomness"`
}

// BeaconSource draws from a public randomness beacon. A round is fetched once
// and every draw is HMAC-SHA256(randomness, "round:counter"), so anyone holding
// the published round can replay the draws. One beacon round serves at most
// one spin.
type BeaconSource struct {
	client *retryablehttp.Client
	url    string

	mu      sync.Mutex
	current BeaconRound
	staged  *BeaconRound
	spun    uint64
	counter uint64
}

func NewBeaconSource(client *retryablehttp.Client, url string) *BeaconSource {
	if url == "" {
		url = DefaultBeaconURL
	}
	return &BeaconSource{
		client: client,
		url:    url,
	}
}

// Advance fetches the latest round for the next spin. It fails with
// ErrStaleBeacon while the beacon still publishes the round of the last spin.
func (b *BeaconSource) Advance(ctx context.Context) error {
	round, err := b.Latest(ctx)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if round.Round <= b.spun {
		return fmt.Errorf("%w (round %d)", ErrStaleBeacon, round.Round)
	}
	b.staged = &round
	return nil
}

// Intn draws the next value of the current round. A round staged by Advance
// becomes current and is marked as spent. Without any round yet, the latest one
// is fetched.
func (b *BeaconSource) Intn(n int) (int, error) {
	if n <= 0 {
		return 0, ErrInvalidBound
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.staged != nil {
		if b.staged.Round != b.current.Round {
			b.current = *b.staged
			b.counter = 0
		}
		b.spun = b.current.Round
		b.staged = nil
	}

	if b.current.Randomness == "" {
		round, err := b.Latest(context.Background())
		if err != nil {
			return 0, err
		}
		b.current = round
		b.counter = 0
	}

	f := BeaconFloat(b.current.Randomness, b.current.Round, b.counter)
	b.counter++

	return int(math.Floor(f * float64(n))), nil
}

// Round returns the beacon round draws currently come from.
func (b *BeaconSource) Round() BeaconRound {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

// Latest fetches the most recent beacon round.
func (b *BeaconSource) Latest(ctx context.Context) (BeaconRound, error) {
	var round BeaconRound

	req, err := retryablehttp.NewRequestWithContext(ctx, "GET", b.url, nil)
	if err != nil {
		return round, fmt.Errorf("failed to build beacon request - %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return round, fmt.Errorf("error calling randomness beacon - %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return round, fmt.Errorf("randomness beacon returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return round, fmt.Errorf("error reading beacon body - %w", err)
	}

	err = json.Unmarshal(body, &round)
	if err != nil {
		return round, fmt.Errorf("error unmarshalling beacon round - %w", err)
	}
	if round.Randomness == "" {
		return round, fmt.Errorf("beacon round %d has no randomness", round.Round)
	}

	return round, nil
}

// BeaconFloat returns the float in [0, 1) of draw counter within a beacon round.
func BeaconFloat(randomness string, round, counter uint64) float64 {
	return hmacFloat(randomness, fmt.Sprintf("%d:%d", round, counter))
}
