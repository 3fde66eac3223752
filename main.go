package main

import (
	"os"

	"github.com/onemorecasino/roulette/cmd"
	"go.uber.org/zap"
)

var (
	log *zap.Logger
)

func main() {

	if err := cmd.Execute(); err != nil {
		log = zap.L()
		log.Error("failed to execute onemore", zap.Error(err))
		os.Exit(1)
	}
}
