package cmd

import (
	"os"

	"github.com/onemorecasino/roulette/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	log      *zap.Logger
	hostname string
	cfgFile  string
)

// OneMore is the root command of the roulette binary.
func OneMore() *cobra.Command {
	cmd := &cobra.Command{
		Use:   config.Application,
		Short: config.ApplicationFull,
		Long: `
One More Roulette runs an american roulette table with 0 and 00. Serve it over
an HTTP API or play it in the terminal.`,
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			hostname, _ = os.Hostname()
			return config.Init(cfgFile)
		},
	}

	cmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./config.yaml)")

	cmd.AddCommand(serveCommand())
	cmd.AddCommand(playCommand())

	return cmd
}

func Execute() error {
	return OneMore().Execute()
}
