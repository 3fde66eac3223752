package round

import (
	"errors"
	"fmt"
)

// State is the phase of a table round.
type State string

const (
	Ready    State = "READY"
	Spinning State = "SPINNING"
	Win      State = "WIN"
)

// Event drives a round from one state to the next.
type Event string

const (
	Spin   Event = "spin"
	Reveal Event = "reveal"
	Reset  Event = "reset"
)

var (
	ErrSpinInProgress = errors.New("spin in progress")
	ErrNoBet          = errors.New("no bet placed")
	ErrInvalidEvent   = errors.New("invalid event for state")
)

// Transition returns the state reached by applying ev to s. stake is the total
// staked at the moment of the event and only matters for Spin.
func Transition(s State, ev Event, stake int) (State, error) {
	switch ev {
	case Spin:
		switch s {
		case Ready, Win:
			if stake <= 0 {
				return s, ErrNoBet
			}
			return Spinning, nil
		case Spinning:
			return s, ErrSpinInProgress
		}
	case Reveal:
		if s == Spinning {
			return Win, nil
		}
	case Reset:
		if s == Win {
			return Ready, nil
		}
	}

	return s, fmt.Errorf("%w: %s on %s", ErrInvalidEvent, ev, s)
}

// AcceptsBets reports whether stakes may change in s.
func AcceptsBets(s State) bool {
	return s != Spinning
}
