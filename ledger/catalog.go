package ledger

import (
	"github.com/onemorecasino/roulette/wheel"
)

// outside bets, in board order
const (
	Even     = "even"
	Odd      = "odd"
	Red      = "red"
	Black    = "black"
	Low      = "1 to 18"
	High     = "19 to 36"
	Dozen1st = "1st 12"
	Dozen2nd = "2nd 12"
	Dozen3rd = "3rd 12"
)

var (
	outside = []string{Even, Odd, Red, Black, Low, High, Dozen1st, Dozen2nd, Dozen3rd}
	catalog = append(append([]string{}, outside...), wheel.Slots()...)
	index   = buildIndex(catalog)
)

func buildIndex(names []string) map[string]int {
	m := make(map[string]int, len(names))
	for i, n := range names {
		m[n] = i
	}
	return m
}

// Catalog returns every bet name: the 9 outside bets then one straight-up bet per slot.
func Catalog() []string {
	out := make([]string, len(catalog))
	copy(out, catalog)
	return out
}

// IsBet reports whether name is in the catalog.
func IsBet(name string) bool {
	_, ok := index[name]
	return ok
}

// IsStraightUp reports whether name is a single slot bet.
func IsStraightUp(name string) bool {
	return wheel.IsSlot(name)
}
