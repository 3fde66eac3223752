package payout

import (
	"fmt"

	"github.com/onemorecasino/roulette/ledger"
	"github.com/onemorecasino/roulette/wheel"
)

const (
	NoWinMessage = "Sorry. No wins this time"
)

var (
	// straight-up multiplier by the number of distinct numbered bets on the layout
	straightUpMultipliers = map[int]int{
		1: 35,
		2: 17,
		3: 11,
		4: 8,
		5: 6,
		6: 5,
	}
)

// Win is one winning bet of a settled round.
type Win struct {
	Bet        string `json:"bet"`
	Stake      int    `json:"stake"`
	Multiplier int    `json:"multiplier"`
	Amount     int    `json:"amount"`
}

// Settlement is the scored outcome of a round. Payout is added on top of the
// wallet; stakes were taken when the bets were placed.
type Settlement struct {
	Outcome string `json:"outcome"`
	Color   string `json:"color"`
	Payout  int    `json:"payout"`
	Wins    []Win  `json:"wins"`
	Message string `json:"message"`
}

// Won reports whether the round paid anything.
func (s Settlement) Won() bool {
	return s.Payout > 0
}

// Settle scores every bet against the outcome slot. Bets are evaluated
// independently so a single outcome can satisfy several of them.
func Settle(outcome string, bets []ledger.Bet) Settlement {
	s := Settlement{
		Outcome: outcome,
		Color:   wheel.Color(outcome),
		Wins:    []Win{},
	}

	straight := StraightUpMultiplier(bets)

	for _, bet := range bets {
		if bet.Stake <= 0 {
			continue
		}

		var multiplier int
		if ledger.IsStraightUp(bet.Name) {
			if _, numbered := wheel.Number(bet.Name); numbered && bet.Name == outcome {
				multiplier = straight
			}
		} else {
			multiplier = outsideMultiplier(bet.Name, outcome)
		}

		if multiplier > 0 {
			w := Win{
				Bet:        bet.Name,
				Stake:      bet.Stake,
				Multiplier: multiplier,
				Amount:     bet.Stake * multiplier,
			}
			s.Wins = append(s.Wins, w)
			s.Payout += w.Amount
		}
	}

	s.Message = Message(s.Payout)

	return s
}

// Message is the player facing line for a round that paid amount.
func Message(amount int) string {
	if amount > 0 {
		return fmt.Sprintf("Congrats. You won %d", amount)
	}
	return NoWinMessage
}

// StraightUpMultiplier returns the payout multiplier shared by every numbered
// straight-up bet on the layout. Zero and double zero do not count and never pay.
func StraightUpMultiplier(bets []ledger.Bet) int {
	var k int
	for _, bet := range bets {
		if _, ok := wheel.Number(bet.Name); ok && bet.Stake > 0 {
			k++
		}
	}
	return straightUpMultipliers[k]
}

func outsideMultiplier(bet, outcome string) int {
	n, numbered := wheel.Number(outcome)
	if !numbered {
		// 0 and 00 lose every outside bet
		return 0
	}

	switch bet {
	case ledger.Dozen1st:
		if n >= 1 && n <= 12 {
			return 2
		}
	case ledger.Dozen2nd:
		if n >= 13 && n <= 24 {
			return 2
		}
	case ledger.Dozen3rd:
		if n >= 25 && n <= 36 {
			return 2
		}
	case ledger.Red:
		if wheel.Color(outcome) == wheel.Red {
			return 1
		}
	case ledger.Black:
		if wheel.Color(outcome) == wheel.Black {
			return 1
		}
	case ledger.Even:
		if n%2 == 0 {
			return 1
		}
	case ledger.Odd:
		if n%2 != 0 {
			return 1
		}
	case ledger.Low:
		if n <= 18 {
			return 1
		}
	case ledger.High:
		if n >= 19 {
			return 1
		}
	}

	return 0
}
