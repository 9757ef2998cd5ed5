// Command simulate loads a solved table and plays many optimal-policy games
// with random dice. The resulting mean score, with its confidence interval,
// should bracket the solved starting-state value.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dicetools/optzee/config"
	"github.com/dicetools/optzee/simulation"
	"github.com/dicetools/optzee/solver"
	"github.com/dicetools/optzee/state"
	"github.com/dicetools/optzee/valuetable"
)

func main() {
	cfg := &config.Config{}
	if err := cfg.Load(os.Args[1:]); err != nil {
		log.Fatal().Err(err).Msg("loading-config")
	}
	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	f, err := os.Open(cfg.TablePath)
	if err != nil {
		log.Fatal().Err(err).Msg("opening-table-file")
	}
	table, err := valuetable.Import(f)
	f.Close()
	if err != nil {
		log.Fatal().Err(err).Msg("importing-table")
	}

	sim := simulation.New(table)
	sim.SetThreads(cfg.Threads)
	if cfg.GameLogDir != "" {
		logFile, err := os.Create(filepath.Join(cfg.GameLogDir, "games.yaml"))
		if err != nil {
			log.Fatal().Err(err).Msg("creating-game-log")
		}
		defer logFile.Close()
		sim.SetLogStream(logFile)
	}

	summary, err := sim.Run(ctx, cfg.Games)
	if err != nil {
		log.Fatal().Err(err).Msg("simulating")
	}

	solved, err := solver.ValueOf(table, state.AllCategories, 0)
	if err != nil {
		log.Fatal().Err(err).Msg("querying-start-state")
	}
	fmt.Println(summary)
	fmt.Printf("solved starting value: %.4f\n", solved)
}
