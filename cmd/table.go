package cmd

import (
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/onemorecasino/roulette/config"
	"github.com/onemorecasino/roulette/table"
	"github.com/onemorecasino/roulette/wheel"
	"go.uber.org/zap"
)

func retryClient() *retryablehttp.Client {
	t := &http.Transport{
		Dial: (&net.Dialer{
			Timeout: 3 * time.Second,
		}).Dial,
		MaxIdleConns:        100,
		MaxConnsPerHost:     100,
		MaxIdleConnsPerHost: 100,
		TLSHandshakeTimeout: 3 * time.Second,
	}

	client := retryablehttp.NewClient()
	client.HTTPClient.Transport = t
	client.HTTPClient.Timeout = time.Second * 10
	client.Logger = nil
	client.RetryWaitMin = 200 * time.Millisecond
	client.RetryWaitMax = 250 * time.Millisecond
	client.RetryMax = 2
	client.RequestLogHook = func(l retryablehttp.Logger, r *http.Request, i int) {
		retryCount := i
		if retryCount > 0 {
			zap.L().Info("retryClient request failed, retrying...",
				zap.String("url", r.URL.String()),
				zap.Int("retryCount", retryCount),
			)
		}
	}

	return client
}

func newSource(cfg config.RNG) (wheel.Source, error) {
	switch cfg.Kind {
	case config.RNGSeeded:
		return wheel.NewSeededSource(cfg.Seed), nil
	case config.RNGProvablyFair:
		return wheel.NewProvablyFairSource(cfg.ServerSeed, cfg.ClientSeed), nil
	case config.RNGBeacon:
		return wheel.NewBeaconSource(retryClient(), cfg.BeaconURL), nil
	default:
		return nil, fmt.Errorf("%w '%s'", ErrUnknownRNG, cfg.Kind)
	}
}

// newTable reads the table and rng settings and builds the table they describe.
func newTable() (*table.Table, error) {
	config.SetTableDefaults()
	config.SetRNGDefaults()

	tableCfg, err := config.LoadTable()
	if err != nil {
		return nil, err
	}
	rngCfg, err := config.LoadRNG()
	if err != nil {
		return nil, err
	}

	src, err := newSource(rngCfg)
	if err != nil {
		return nil, err
	}

	tbl, err := table.New(table.Options{
		StartingBalance: tableCfg.StartingBalance,
		Unit:            tableCfg.BetUnit,
		RevealDelay:     tableCfg.RevealDelay,
		ResetDelay:      tableCfg.ResetDelay,
		StrictWallet:    tableCfg.StrictWallet,
		Rebet:           tableCfg.Rebet,
		Source:          src,
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("table ready",
		zap.String("table_id", tbl.ID()),
		zap.String("rng", rngCfg.Kind),
		zap.Int("wallet", tableCfg.StartingBalance),
	)

	return tbl, nil
}
