// Package config holds runtime configuration shared by the command-line
// tools. Values come from flags, or from OPTZEE_* environment variables.
package config

import "github.com/namsral/flag"

type Config struct {
	TablePath  string
	Threads    int
	Debug      bool
	Games      int
	GameLogDir string
}

func (c *Config) Load(args []string) error {
	fs := flag.NewFlagSetWithEnvPrefix("optzee", "OPTZEE", flag.ContinueOnError)
	fs.StringVar(&c.TablePath, "table-path", "./data/values.dat", "path of the solved value table file")
	fs.IntVar(&c.Threads, "threads", 0, "worker count; 0 picks a default based on CPU count")
	fs.BoolVar(&c.Debug, "debug", false, "enable debug logging")
	fs.IntVar(&c.Games, "games", 100000, "number of games for the simulation cross-check")
	fs.StringVar(&c.GameLogDir, "game-log-dir", "", "directory for per-game simulation logs; empty disables them")
	return fs.Parse(args)
}
