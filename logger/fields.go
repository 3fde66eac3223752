package logger

import (
	"time"

	"go.uber.org/zap"
)

const (
	// Service is the field key for the running subcommand.
	Service = "svc"
	// Hostname is the field key for hostname.
	Hostname = "host"
	// Duration is the field key containing the execution duration in milliseconds.
	Duration = "durationMs"
	// TableID is the field key of a roulette table.
	TableID = "table_id"
	// RoundID is the field key of a single spin.
	RoundID = "round_id"
	// Bet is the field key of a bet name.
	Bet = "bet"
	// URLPath is the field key containing the request path.
	URLPath = "url_path"
	// RemoteAddr is the field key containing HTTP remote address.
	RemoteAddr = "remote_addr"
)

// Since is a Duration field measured from start.
func Since(start time.Time) zap.Field {
	return zap.Int64(Duration, time.Since(start).Milliseconds())
}

func Table(id string) zap.Field {
	return zap.String(TableID, id)
}

func Round(id string) zap.Field {
	return zap.String(RoundID, id)
}
