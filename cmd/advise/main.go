// Command advise loads a solved table and prints the optimal decision for a
// given game situation: which dice to keep if rerolls remain, or which
// category to score on the final roll.
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/namsral/flag"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/dicetools/optzee/dice"
	"github.com/dicetools/optzee/solver"
	"github.com/dicetools/optzee/state"
	"github.com/dicetools/optzee/valuetable"
)

func main() {
	var tablePath, diceArg, closedArg string
	var upper, rollsLeft int

	fs := flag.NewFlagSetWithEnvPrefix("optzee-advise", "OPTZEE", flag.ExitOnError)
	fs.StringVar(&tablePath, "table-path", "./data/values.dat", "path of the solved value table file")
	fs.StringVar(&diceArg, "dice", "", "the five dice, comma separated, e.g. 1,3,3,4,6")
	fs.StringVar(&closedArg, "closed", "", "comma-separated names of already-scored categories")
	fs.IntVar(&upper, "upper", 0, "upper-section running score")
	fs.IntVar(&rollsLeft, "rolls-left", 0, "rerolls remaining this turn (0, 1 or 2)")
	fs.Parse(os.Args[1:])

	hand, err := parseDice(diceArg)
	if err != nil {
		log.Fatal().Err(err).Msg("parsing-dice")
	}
	open, err := parseOpen(closedArg)
	if err != nil {
		log.Fatal().Err(err).Msg("parsing-categories")
	}

	f, err := os.Open(tablePath)
	if err != nil {
		log.Fatal().Err(err).Msg("opening-table-file")
	}
	defer f.Close()
	table, err := valuetable.Import(f)
	if err != nil {
		log.Fatal().Err(err).Msg("importing-table")
	}

	value, err := solver.ValueOf(table, open, upper)
	if err != nil {
		log.Fatal().Err(err).Msg("querying-state")
	}
	fmt.Printf("state value before this turn's dice: %.4f\n", value)

	if rollsLeft > 0 {
		keep, ev, err := solver.BestKeep(table, open, upper, hand, rollsLeft)
		if err != nil {
			log.Fatal().Err(err).Msg("computing-best-keep")
		}
		if keep.Size() == dice.HandSize {
			fmt.Printf("keep all dice (stand pat), expected value %.4f\n", ev)
		} else {
			fmt.Printf("keep %v and reroll %d dice, expected value %.4f\n",
				keep, dice.HandSize-keep.Size(), ev)
		}
		return
	}
	best, err := solver.BestCategory(table, open, upper, hand)
	if err != nil {
		log.Fatal().Err(err).Msg("computing-best-category")
	}
	fmt.Printf("score %v as %v\n", hand, best)
}

func parseDice(arg string) (dice.Roll, error) {
	parts := strings.Split(arg, ",")
	if len(parts) != dice.HandSize {
		return dice.Roll{}, fmt.Errorf("need exactly %d dice, got %q", dice.HandSize, arg)
	}
	faces := make([]int, len(parts))
	for i, p := range parts {
		f, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return dice.Roll{}, err
		}
		faces[i] = f
	}
	return dice.RollOf(faces...)
}

func parseOpen(closedArg string) (state.Mask, error) {
	open := state.AllCategories
	if closedArg == "" {
		return open, nil
	}
	names := lo.Map(strings.Split(closedArg, ","), func(s string, _ int) string {
		return strings.TrimSpace(s)
	})
	for _, name := range names {
		c, err := state.CategoryFromName(name)
		if err != nil {
			return 0, err
		}
		open = open.Without(c)
	}
	return open, nil
}
