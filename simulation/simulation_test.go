package simulation

import (
	"bytes"
	"context"
	"math"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lukechampine.com/frand"

	"github.com/dicetools/optzee/dice"
	"github.com/dicetools/optzee/solver"
	"github.com/dicetools/optzee/state"
	"github.com/dicetools/optzee/valuetable"
)

func TestRollDice(t *testing.T) {
	rng := frand.New()
	for n := 0; n <= dice.HandSize; n++ {
		r := rollDice(rng, n)
		assert.Equal(t, n, r.Size())
	}
	// All faces stay in range over many rolls.
	for i := 0; i < 1000; i++ {
		for _, f := range rollDice(rng, dice.HandSize).Dice() {
			assert.GreaterOrEqual(t, f, 1)
			assert.LessOrEqual(t, f, dice.NumFaces)
		}
	}
}

func TestSummaryString(t *testing.T) {
	s := &Summary{
		Games: 1000, Mean: 245.9, Stdev: 50.2, CI95: 3.1,
		Min: 87, Max: 414, Median: 246, BonusRate: 0.65,
	}
	out := s.String()
	assert.Contains(t, out, "games 1000")
	assert.Contains(t, out, "mean 245.900")
	assert.Contains(t, out, "bonus 65.0%")
}

// TestSimulationMatchesSolvedValue solves the full table and checks that
// self-play converges on the solved starting value. Multi-minute; only runs
// when explicitly requested.
func TestSimulationMatchesSolvedValue(t *testing.T) {
	if testing.Short() {
		t.Skip("full solve is slow")
	}
	if os.Getenv("OPTZEE_SOLVE_E2E") == "" {
		t.Skip("set OPTZEE_SOLVE_E2E to run the simulation cross-check")
	}
	table := valuetable.New()
	require.NoError(t, solver.New(table).Solve(context.Background()))
	solved, err := solver.ValueOf(table, state.AllCategories, 0)
	require.NoError(t, err)

	sim := New(table)
	var logBuf bytes.Buffer
	sim.SetLogStream(&logBuf)
	summary, err := sim.Run(context.Background(), 20000)
	require.NoError(t, err)

	assert.Equal(t, 20000, summary.Games)
	// Game score stdev is roughly 35; 20k games put the standard error
	// around 0.25, so a 5-point corridor is far outside noise.
	assert.Less(t, math.Abs(summary.Mean-solved), 5.0)
	assert.GreaterOrEqual(t, summary.Max, summary.Median)
	assert.LessOrEqual(t, summary.Min, summary.Median)

	// One YAML document per game.
	assert.Equal(t, 20000, strings.Count(logBuf.String(), "---\n"))
}
