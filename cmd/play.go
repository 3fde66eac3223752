package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/onemorecasino/roulette/config"
	"github.com/onemorecasino/roulette/ledger"
	"github.com/onemorecasino/roulette/logger"
	"github.com/onemorecasino/roulette/table"
	"github.com/onemorecasino/roulette/wheel"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const playHelp = `commands:
  bet <name>     stake one unit on a bet, e.g. "bet red" or "bet 1st 12"
  unbet <name>   take one unit back
  spin           spin the wheel and wait for the outcome
  board          show the wheel
  bets           show the current bets
  wallet         show the balance and the total stake
  catalog        list every bet name
  stats          show the session statistics
  rotate         reveal the provably fair server seed and start a new one
  help           show this help
  quit           leave the table
`

// playCommand runs a table in the terminal, one command per line.
func playCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Play a roulette table in the terminal.",
		RunE: func(_ *cobra.Command, _ []string) error {

			// logs go to stderr so they do not interleave with the game
			config.SetLoggingDefaults()
			if value := viper.Get("logging.level"); value == nil {
				logger.SetLevel("warn")
			}
			logger.InitializeWriter("om-play", hostname, os.Stderr)
			log = zap.L()
			defer logger.Flush()

			tbl, err := newTable()
			if err != nil {
				return err
			}

			return newSession(tbl, os.Stdout).run(os.Stdin)
		},
	}
}

type session struct {
	tbl     *table.Table
	out     io.Writer
	results chan table.Result
	wait    time.Duration
}

func newSession(tbl *table.Table, out io.Writer) *session {
	s := &session{
		tbl:     tbl,
		out:     out,
		results: make(chan table.Result, 1),
		wait:    time.Minute,
	}
	tbl.OnResult(func(res table.Result) {
		select {
		case s.results <- res:
		default:
		}
	})
	return s
}

func (s *session) run(in io.Reader) error {
	fmt.Fprintf(s.out, "%s - table %s\n", config.ApplicationFull, s.tbl.ID())
	s.wallet()
	fmt.Fprint(s.out, "type 'help' for the list of commands\n> ")

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if quit := s.handle(scanner.Text()); quit {
			return nil
		}
		fmt.Fprint(s.out, "> ")
	}
	return scanner.Err()
}

// handle runs one command line and reports whether the session is over.
func (s *session) handle(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	arg := strings.Join(fields[1:], " ")

	switch strings.ToLower(fields[0]) {
	case "bet":
		s.report(s.tbl.PlaceBet(arg))
	case "unbet":
		s.report(s.tbl.RemoveBet(arg))
	case "spin":
		s.spin()
	case "board":
		fmt.Fprintln(s.out, strings.Join(s.tbl.Board(), " "))
	case "bets":
		s.bets()
	case "wallet":
		s.wallet()
	case "catalog":
		fmt.Fprintln(s.out, strings.Join(ledger.Catalog(), ", "))
	case "stats":
		st := s.tbl.Stats()
		fmt.Fprintf(s.out, "spins %d, wins %d, losses %d, wagered %d, paid out %d, biggest win %d, rtp %s\n",
			st.Spins, st.Wins, st.Losses, st.Wagered, st.PaidOut, st.BiggestWin, st.RTP.String())
	case "rotate":
		s.rotate()
	case "help":
		fmt.Fprint(s.out, playHelp)
	case "quit", "exit":
		fmt.Fprintln(s.out, "bye")
		return true
	default:
		fmt.Fprintf(s.out, "unknown command %q, type 'help'\n", fields[0])
	}
	return false
}

func (s *session) report(err error) {
	if err != nil {
		fmt.Fprintf(s.out, "error: %s\n", err)
		return
	}
	s.wallet()
}

func (s *session) spin() {
	id, err := s.tbl.Spin()
	if errors.Is(err, table.ErrNoBet) {
		fmt.Fprintln(s.out, table.PlaceBetMessage)
		return
	}
	if err != nil {
		fmt.Fprintf(s.out, "error: %s\n", err)
		return
	}

	fmt.Fprintln(s.out, "spinning...")
	timeout := time.NewTimer(s.wait)
	defer timeout.Stop()
	for {
		select {
		case res := <-s.results:
			if res.RoundID != id {
				continue
			}
			fmt.Fprintf(s.out, "%s %s\n%s\n", res.Outcome, res.Color, res.Message)
			s.wallet()
			return
		case <-timeout.C:
			fmt.Fprintln(s.out, "error: timed out waiting for the outcome")
			return
		}
	}
}

func (s *session) rotate() {
	pf, ok := s.tbl.Source().(*wheel.ProvablyFairSource)
	if !ok {
		fmt.Fprintln(s.out, "error: random source is not provably fair")
		return
	}
	seed, err := wheel.NewServerSeed()
	if err != nil {
		fmt.Fprintf(s.out, "error: %s\n", err)
		return
	}

	rev := pf.Rotate(seed)
	fmt.Fprintf(s.out, "revealed server seed %s, client seed %s, nonces 0 to %d\n",
		rev.ServerSeed, rev.ClientSeed, int64(rev.Draws)-1)
	fmt.Fprintf(s.out, "next server seed hash %s\n", pf.Fairness().ServerSeedHash)
}

func (s *session) bets() {
	snap := s.tbl.Snapshot()
	if len(snap.Bets) == 0 {
		fmt.Fprintln(s.out, "no bets")
		return
	}
	for _, b := range snap.Bets {
		fmt.Fprintf(s.out, "%-10s %d\n", b.Name, b.Stake)
	}
}

func (s *session) wallet() {
	snap := s.tbl.Snapshot()
	fmt.Fprintf(s.out, "wallet %d, bet %d\n", snap.Wallet, snap.Total)
}
