package ledger

import (
	"errors"
	"fmt"
	"sort"
)

const (
	DefaultUnit = 10
)

var (
	ErrUnknownBet        = errors.New("unknown bet")
	ErrNoStake           = errors.New("no stake on bet")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// Bet is one active wager.
type Bet struct {
	Name  string `json:"name"`
	Stake int    `json:"stake"`
}

// Ledger tracks stakes per bet and their total. The wallet it debits and
// credits is owned by the caller.
type Ledger struct {
	unit   int
	stakes map[string]int
	total  int
}

func New(unit int) *Ledger {
	if unit <= 0 {
		unit = DefaultUnit
	}
	return &Ledger{
		unit:   unit,
		stakes: make(map[string]int),
	}
}

func (l *Ledger) Unit() int {
	return l.unit
}

func (l *Ledger) Total() int {
	return l.total
}

// Stake returns the amount staked on name, 0 when there is none.
func (l *Ledger) Stake(name string) int {
	return l.stakes[name]
}

// Place adds one unit to name and debits the wallet by the same amount.
// With strict set the placement is refused when the wallet cannot cover a unit.
func (l *Ledger) Place(name string, wallet *int, strict bool) error {
	if !IsBet(name) {
		return fmt.Errorf("%w: %q", ErrUnknownBet, name)
	}
	if strict && *wallet < l.unit {
		return ErrInsufficientFunds
	}

	l.stakes[name] += l.unit
	l.total += l.unit
	*wallet -= l.unit

	return nil
}

// Remove takes one unit off name and credits it back to the wallet. Nothing
// changes when name carries no stake.
func (l *Ledger) Remove(name string, wallet *int) error {
	if !IsBet(name) {
		return fmt.Errorf("%w: %q", ErrUnknownBet, name)
	}
	if l.stakes[name] <= 0 {
		return fmt.Errorf("%w: %q", ErrNoStake, name)
	}

	l.stakes[name] -= l.unit
	if l.stakes[name] == 0 {
		delete(l.stakes, name)
	}
	l.total -= l.unit
	*wallet += l.unit

	return nil
}

// Bets returns a copy of the active bets in catalog order.
func (l *Ledger) Bets() []Bet {
	bets := make([]Bet, 0, len(l.stakes))
	for name, stake := range l.stakes {
		bets = append(bets, Bet{Name: name, Stake: stake})
	}
	sort.Slice(bets, func(i, j int) bool {
		return index[bets[i].Name] < index[bets[j].Name]
	})
	return bets
}

// Clear drops every bet without touching any wallet.
func (l *Ledger) Clear() {
	l.stakes = make(map[string]int)
	l.total = 0
}
