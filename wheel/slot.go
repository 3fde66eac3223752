package wheel

import (
	"strconv"
)

const (
	Zero       = "0"
	DoubleZero = "00"

	Green = "green"
	Red   = "red"
	Black = "black"
)

var slots = buildSlots()

func buildSlots() []string {
	s := make([]string, 0, 38)
	s = append(s, Zero, DoubleZero)
	for i := 1; i <= 36; i++ {
		s = append(s, strconv.Itoa(i))
	}
	return s
}

// Slots returns the 38 wheel labels in their canonical order: 0, 00, 1..36.
func Slots() []string {
	out := make([]string, len(slots))
	copy(out, slots)
	return out
}

// IsSlot reports whether label is one of the wheel labels.
func IsSlot(label string) bool {
	if label == Zero || label == DoubleZero {
		return true
	}
	_, ok := Number(label)
	return ok
}

// Number returns the numeric value of a 1..36 slot. Zero and double zero are
// not numbers for betting purposes.
func Number(label string) (int, bool) {
	if label == Zero || label == DoubleZero {
		return 0, false
	}
	n, err := strconv.Atoi(label)
	if err != nil || n < 1 || n > 36 || strconv.Itoa(n) != label {
		return 0, false
	}
	return n, true
}

// Color classifies a slot. This table uses a simplified layout where every odd
// number is red and every even number is black.
func Color(label string) string {
	n, ok := Number(label)
	if !ok {
		return Green
	}
	if n%2 != 0 {
		return Red
	}
	return Black
}
