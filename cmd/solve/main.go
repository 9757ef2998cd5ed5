package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dicetools/optzee/config"
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

	table := valuetable.New()
	s := solver.New(table)
	s.SetThreads(cfg.Threads)

	if err := s.Solve(ctx); err != nil {
		log.Fatal().Err(err).Msg("solving")
	}

	startValue, err := solver.ValueOf(table, state.AllCategories, 0)
	if err != nil {
		log.Fatal().Err(err).Msg("querying-start-state")
	}
	log.Info().Float64("start-value", startValue).Msg("table-solved")

	f, err := os.Create(cfg.TablePath)
	if err != nil {
		log.Fatal().Err(err).Msg("creating-table-file")
	}
	defer f.Close()
	if err := table.Export(f); err != nil {
		log.Fatal().Err(err).Msg("exporting-table")
	}
	log.Info().Str("path", cfg.TablePath).Msg("table-exported")
}
