package cmd

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/go-redis/redis/v9"
	"github.com/nats-io/nats.go"
	"github.com/onemorecasino/roulette/config"
	"github.com/onemorecasino/roulette/controller"
	"github.com/onemorecasino/roulette/logger"
	"github.com/onemorecasino/roulette/services/notif"
	"github.com/onemorecasino/roulette/state"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// serveCommand runs one roulette table behind the HTTP API and publishes every
// settled round to the players' notification channel
func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run a roulette table behind an HTTP API and publish every settled round over nats.",
		Run: func(_ *cobra.Command, _ []string) {

			config.SetLoggingDefaults()
			logger.Initialize("om-roulette", hostname)
			log = zap.L()
			defer logger.Flush()

			config.SetServerDefaults()
			config.SetNotifDefaults()

			tbl, err := newTable()
			if err != nil {
				log.Error("invalid table configuration", zap.Error(err))
				os.Exit(1)
			}

			// Connect to the nats server
			var nc *nats.Conn
			if endpoint := viper.GetString("nats.endpoint"); endpoint != "" {
				nc, err = nats.Connect(endpoint)
				if err != nil {
					log.Error("failed to connect to nats server", zap.Error(err), zap.String("endpoint", endpoint))
					os.Exit(1)
				}
				defer nc.Close()
			} else {
				log.Info("nats endpoint not configured, results are only logged")
			}

			// Connect to the redis db
			var outbox notif.Store
			if addr := viper.GetString("redis.addr"); addr != "" {
				rdb := redis.NewClient(&redis.Options{
					Addr:     addr,
					Password: viper.GetString("redis.password"),
					DB:       viper.GetInt("redis.db"),
				})
				if _, err = rdb.Ping(context.Background()).Result(); err != nil {
					log.Error("failed to connect to redis db", zap.Error(err), zap.String("endpoint", addr))
					os.Exit(1)
				}
				defer rdb.Close()
				outbox = state.NewOutbox(rdb)
			}

			var wg sync.WaitGroup

			notifSvc := notif.NewService(nc, outbox,
				viper.GetString("nats.results_subj"),
				viper.GetDuration("nats.ack_timeout"),
				&wg)
			tbl.OnResult(notifSvc.Notify)

			router := controller.NewRouter(tbl, notifSvc, viper.GetFloat64("server.rate_limit"))
			server, err := controller.NewServer(router, viper.GetInt("server.port"))
			if err != nil {
				log.Error("failed to create http server", zap.Error(err))
				os.Exit(1)
			}

			if err := server.Start(); err != nil {
				log.Error("failed to start http server", zap.Error(err))
				os.Exit(1)
			}
			notifSvc.Start()
			router.Ready()

			signals := make(chan os.Signal, 1)
			signal.Notify(signals, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
			go func() {
				s := <-signals
				log.Info(s.String() + " signal caught, stopping app")
				notifSvc.Stop()
				server.Stop()
			}()

			log.Info("service started...", logger.Table(tbl.ID()))

			wg.Add(1)
			go notifSvc.Wait(&wg)
			server.Wait()

			wg.Wait()
		},
	}
}
