package table

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/onemorecasino/roulette/ledger"
	"github.com/onemorecasino/roulette/round"
	"github.com/onemorecasino/roulette/services/payout"
	"github.com/onemorecasino/roulette/wheel"
	"go.uber.org/zap"
)

const (
	DefaultStartingBalance = 2000
	DefaultRevealDelay     = 2 * time.Second
	DefaultResetDelay      = 5 * time.Second

	PlaceBetMessage = "Please place a bet before spinning"
)

var (
	ErrUnknownBet        = ledger.ErrUnknownBet
	ErrNoStake           = ledger.ErrNoStake
	ErrInsufficientFunds = ledger.ErrInsufficientFunds
	ErrSpinInProgress    = round.ErrSpinInProgress
	ErrNoBet             = round.ErrNoBet
	ErrStaleBeacon       = wheel.ErrStaleBeacon
)

// Options configure a Table. Zero values fall back to the defaults of the game.
type Options struct {
	StartingBalance int
	Unit            int
	RevealDelay     time.Duration
	ResetDelay      time.Duration
	StrictWallet    bool
	Rebet           bool
	Source          wheel.Source
	Scheduler       Scheduler
}

// Result is a settled round.
type Result struct {
	TableID   string       `json:"tableId"`
	RoundID   string       `json:"roundId"`
	Outcome   string       `json:"outcome"`
	Color     string       `json:"color"`
	Stake     int          `json:"stake"`
	Payout    int          `json:"payout"`
	Wins      []payout.Win `json:"wins"`
	Bets      []ledger.Bet `json:"bets"`
	Wallet    int          `json:"wallet"`
	Message   string       `json:"message"`
	SettledAt time.Time    `json:"settledAt"`
}

// Snapshot is a read only view of a table.
type Snapshot struct {
	ID      string       `json:"id"`
	State   round.State  `json:"state"`
	RoundID string       `json:"roundId,omitempty"`
	Wallet  int          `json:"wallet"`
	Total   int          `json:"total"`
	Bets    []ledger.Bet `json:"bets"`
	Board   []string     `json:"board"`
	Outcome string       `json:"outcome,omitempty"`
	Message string       `json:"message,omitempty"`
}

// Table is one roulette table: a wallet, a bet ledger, a fixed board and the
// round state machine. Every mutation, including the deferred reveal and reset,
// runs under mu.
type Table struct {
	mu sync.Mutex

	id       string
	opts     Options
	log      *zap.Logger
	board    wheel.Board
	wallet   int
	ledger   *ledger.Ledger
	state    round.State
	roundID  string
	stake    int
	pending  string
	outcome  string
	message  string
	lastBets []ledger.Bet
	stats    Stats
	hooks    []func(Result)
}

func New(opts Options) (*Table, error) {
	if opts.StartingBalance == 0 {
		opts.StartingBalance = DefaultStartingBalance
	}
	if opts.Unit <= 0 {
		opts.Unit = ledger.DefaultUnit
	}
	if opts.RevealDelay <= 0 {
		opts.RevealDelay = DefaultRevealDelay
	}
	if opts.ResetDelay <= 0 {
		opts.ResetDelay = DefaultResetDelay
	}
	if opts.ResetDelay <= opts.RevealDelay {
		return nil, fmt.Errorf("reset delay %s must be longer than reveal delay %s", opts.ResetDelay, opts.RevealDelay)
	}
	if opts.Source == nil {
		opts.Source = wheel.NewSeededSource(0)
	}
	if opts.Scheduler == nil {
		opts.Scheduler = Clock{}
	}

	board, err := wheel.NewBoard(opts.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to build board - %w", err)
	}

	t := &Table{
		id:     uuid.NewString(),
		opts:   opts,
		log:    zap.L(),
		board:  board,
		wallet: opts.StartingBalance,
		ledger: ledger.New(opts.Unit),
		state:  round.Ready,
	}

	t.log.Debug("table created",
		zap.String("table_id", t.id),
		zap.Strings("board", board),
		zap.Int("wallet", t.wallet),
	)

	return t, nil
}

func (t *Table) ID() string {
	return t.id
}

// Board returns the display order of the wheel.
func (t *Table) Board() []string {
	out := make([]string, len(t.board))
	copy(out, t.board)
	return out
}

// OnResult registers f to be called after every settlement, outside the table lock.
func (t *Table) OnResult(f func(Result)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.hooks = append(t.hooks, f)
}

// PlaceBet stakes one unit on name.
func (t *Table) PlaceBet(name string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !round.AcceptsBets(t.state) {
		return ErrSpinInProgress
	}

	return t.ledger.Place(name, &t.wallet, t.opts.StrictWallet)
}

// RemoveBet takes one unit back from name.
func (t *Table) RemoveBet(name string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !round.AcceptsBets(t.state) {
		return ErrSpinInProgress
	}

	return t.ledger.Remove(name, &t.wallet)
}

// Spin starts a round. The outcome is drawn now, revealed and settled after the
// reveal delay, and cleared after the reset delay. It returns the new round id.
// A source that needs fresh randomness per spin is advanced first, outside the
// table lock.
func (t *Table) Spin() (string, error) {
	if adv, ok := t.opts.Source.(wheel.Advancer); ok {
		if _, err := t.spinTransition(); err != nil {
			return "", err
		}
		if err := adv.Advance(context.Background()); err != nil {
			t.log.Info("random source not ready", zap.String("table_id", t.id), zap.Error(err))
			return "", fmt.Errorf("failed to advance random source - %w", err)
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	next, err := t.checkSpin()
	if err != nil {
		return "", err
	}

	outcome, err := t.board.Draw(t.opts.Source)
	if err != nil {
		return "", err
	}

	t.state = next
	t.roundID = uuid.NewString()
	t.stake = t.ledger.Total()
	t.pending = outcome
	t.outcome = ""
	t.message = ""

	id := t.roundID
	t.opts.Scheduler.AfterFunc(t.opts.RevealDelay, func() { t.reveal(id) })
	t.opts.Scheduler.AfterFunc(t.opts.ResetDelay, func() { t.reset(id) })

	t.log.Info("spin started",
		zap.String("table_id", t.id),
		zap.String("round_id", id),
		zap.Int("stake", t.stake),
	)

	return id, nil
}

func (t *Table) spinTransition() (round.State, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.checkSpin()
}

// checkSpin validates a spin request. Caller holds mu.
func (t *Table) checkSpin() (round.State, error) {
	next, err := round.Transition(t.state, round.Spin, t.ledger.Total())
	if errors.Is(err, round.ErrNoBet) {
		t.message = PlaceBetMessage
	}
	return next, err
}

func (t *Table) reveal(id string) {
	t.mu.Lock()

	if id != t.roundID {
		t.mu.Unlock()
		t.log.Debug("dropping reveal for stale round", zap.String("round_id", id))
		return
	}
	next, err := round.Transition(t.state, round.Reveal, t.stake)
	if err != nil {
		t.mu.Unlock()
		t.log.Debug("dropping reveal", zap.String("round_id", id), zap.Error(err))
		return
	}

	bets := t.ledger.Bets()
	s := payout.Settle(t.pending, bets)

	t.state = next
	t.outcome = s.Outcome
	t.message = s.Message
	t.wallet += s.Payout
	t.stats.record(t.stake, s.Payout)
	t.lastBets = bets
	t.ledger.Clear()

	res := Result{
		TableID:   t.id,
		RoundID:   id,
		Outcome:   s.Outcome,
		Color:     s.Color,
		Stake:     t.stake,
		Payout:    s.Payout,
		Wins:      s.Wins,
		Bets:      bets,
		Wallet:    t.wallet,
		Message:   s.Message,
		SettledAt: time.Now().UTC(),
	}
	hooks := make([]func(Result), len(t.hooks))
	copy(hooks, t.hooks)

	t.mu.Unlock()

	t.log.Info("round settled",
		zap.String("table_id", res.TableID),
		zap.String("round_id", res.RoundID),
		zap.String("outcome", res.Outcome),
		zap.Int("stake", res.Stake),
		zap.Int("payout", res.Payout),
		zap.Int("wallet", res.Wallet),
	)

	for _, h := range hooks {
		h(res)
	}
}

func (t *Table) reset(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if id != t.roundID {
		t.log.Debug("dropping reset for stale round", zap.String("round_id", id))
		return
	}
	next, err := round.Transition(t.state, round.Reset, 0)
	if err != nil {
		t.log.Debug("dropping reset", zap.String("round_id", id), zap.Error(err))
		return
	}

	t.state = next
	t.outcome = ""
	t.pending = ""

	if t.opts.Rebet {
		t.rebet()
	}
}

// rebet places the previous round's layout again. Caller holds mu.
func (t *Table) rebet() {
	for _, b := range t.lastBets {
		for staked := 0; staked < b.Stake; staked += t.ledger.Unit() {
			if err := t.ledger.Place(b.Name, &t.wallet, t.opts.StrictWallet); err != nil {
				t.log.Info("rebet stopped", zap.String("bet", b.Name), zap.Error(err))
				return
			}
		}
	}
}

// Snapshot returns the current view of the table.
func (t *Table) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	return Snapshot{
		ID:      t.id,
		State:   t.state,
		RoundID: t.roundID,
		Wallet:  t.wallet,
		Total:   t.ledger.Total(),
		Bets:    t.ledger.Bets(),
		Board:   t.Board(),
		Outcome: t.outcome,
		Message: t.message,
	}
}

// Stats returns a copy of the session statistics.
func (t *Table) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stats
}

// Source exposes the random source the table draws from.
func (t *Table) Source() wheel.Source {
	return t.opts.Source
}
