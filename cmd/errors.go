package cmd

import (
	"errors"
)

var (
	ErrUnknownRNG = errors.New("unknown rng kind")
)
