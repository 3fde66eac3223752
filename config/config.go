package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"
	"github.com/onemorecasino/roulette/logger"
	"github.com/spf13/viper"
)

const (
	Application     = "onemore"
	ApplicationFull = "One More Roulette"
	EnvPrefix       = "ONEMORE"

	RNGSeeded       = "seeded"
	RNGProvablyFair = "provably_fair"
	RNGBeacon       = "beacon"
)

var (
	ErrDelayOrder        = errors.New("config table.reveal_delay must be shorter than table.reset_delay")
	ErrMissingServerSeed = errors.New("config rng.server_seed is missing")

	validate = validator.New()
)

// Table holds the game settings of a table.
type Table struct {
	StartingBalance int           `validate:"gt=0"`
	BetUnit         int           `validate:"gt=0"`
	RevealDelay     time.Duration `validate:"gt=0"`
	ResetDelay      time.Duration `validate:"gt=0"`
	StrictWallet    bool
	Rebet           bool
}

// RNG selects where the wheel's randomness comes from.
type RNG struct {
	Kind       string `validate:"oneof=seeded provably_fair beacon"`
	Seed       int64
	ServerSeed string
	ClientSeed string
	BeaconURL  string `validate:"omitempty,url"`
}

// Init points viper at the config file and the environment.
func Init(cfgFile string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/." + Application)
		viper.AddConfigPath("/etc/" + Application)
	}

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) && cfgFile == "" {
			return nil
		}
		return fmt.Errorf("failed to read config - %w", err)
	}

	return nil
}

func SetLoggingDefaults() {
	if value := viper.Get("logging.level"); value != nil {
		// logger will default to info level if user provided level is incorrect
		logger.SetLevel(viper.GetString("logging.level"))
	} else {
		logger.SetLevel("info")
	}

	if value := viper.Get("logging.path"); value == nil {
		viper.Set("logging.path", logger.DefaultPath)
	}
}

func SetTableDefaults() {
	if value := viper.Get("table.starting_balance"); value == nil {
		viper.Set("table.starting_balance", 2000)
	}

	if value := viper.Get("table.bet_unit"); value == nil {
		viper.Set("table.bet_unit", 10)
	}

	if value := viper.Get("table.reveal_delay"); value == nil {
		viper.Set("table.reveal_delay", "2s")
	}

	if value := viper.Get("table.reset_delay"); value == nil {
		viper.Set("table.reset_delay", "5s")
	}

	if value := viper.Get("table.strict_wallet"); value == nil {
		viper.Set("table.strict_wallet", false)
	}

	if value := viper.Get("table.rebet"); value == nil {
		viper.Set("table.rebet", false)
	}
}

func SetRNGDefaults() {
	if value := viper.Get("rng.kind"); value == nil {
		viper.Set("rng.kind", RNGSeeded)
	}

	if value := viper.Get("rng.seed"); value == nil {
		viper.Set("rng.seed", 0)
	}

	if value := viper.Get("rng.beacon_url"); value == nil {
		viper.Set("rng.beacon_url", "https://api.drand.sh/public/latest")
	}
}

func SetServerDefaults() {
	if value := viper.Get("server.port"); value == nil {
		viper.Set("server.port", 8089)
	}

	if value := viper.Get("server.rate_limit"); value == nil {
		viper.Set("server.rate_limit", 5.0)
	}
}

func SetNotifDefaults() {
	if value := viper.Get("nats.endpoint"); value == nil {
		viper.Set("nats.endpoint", "")
	}

	if value := viper.Get("nats.results_subj"); value == nil {
		viper.Set("nats.results_subj", "roulette.results")
	}

	if value := viper.Get("nats.ack_timeout"); value == nil {
		viper.Set("nats.ack_timeout", "10s")
	}

	if value := viper.Get("redis.addr"); value == nil {
		viper.Set("redis.addr", "")
	}

	if value := viper.Get("redis.db"); value == nil {
		viper.Set("redis.db", 0)
	}
}

// LoadTable reads and validates the table settings. Every violation is reported.
func LoadTable() (Table, error) {
	cfg := Table{
		StartingBalance: viper.GetInt("table.starting_balance"),
		BetUnit:         viper.GetInt("table.bet_unit"),
		RevealDelay:     viper.GetDuration("table.reveal_delay"),
		ResetDelay:      viper.GetDuration("table.reset_delay"),
		StrictWallet:    viper.GetBool("table.strict_wallet"),
		Rebet:           viper.GetBool("table.rebet"),
	}

	var errs *multierror.Error
	if err := validate.Struct(cfg); err != nil {
		errs = multierror.Append(errs, fieldErrors("table", err)...)
	}
	if cfg.RevealDelay >= cfg.ResetDelay {
		errs = multierror.Append(errs, ErrDelayOrder)
	}

	return cfg, errs.ErrorOrNil()
}

// LoadRNG reads and validates the randomness settings.
func LoadRNG() (RNG, error) {
	cfg := RNG{
		Kind:       viper.GetString("rng.kind"),
		Seed:       viper.GetInt64("rng.seed"),
		ServerSeed: viper.GetString("rng.server_seed"),
		ClientSeed: viper.GetString("rng.client_seed"),
		BeaconURL:  viper.GetString("rng.beacon_url"),
	}

	var errs *multierror.Error
	if err := validate.Struct(cfg); err != nil {
		errs = multierror.Append(errs, fieldErrors("rng", err)...)
	}
	if cfg.Kind == RNGProvablyFair && cfg.ServerSeed == "" {
		errs = multierror.Append(errs, ErrMissingServerSeed)
	}

	return cfg, errs.ErrorOrNil()
}

func fieldErrors(section string, err error) []error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []error{err}
	}

	out := make([]error, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, fmt.Errorf("config %s.%s is invalid (%s %s)", section, fe.Field(), fe.Tag(), fe.Param()))
	}
	return out
}
