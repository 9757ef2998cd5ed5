// Package solver fills a value table by backward induction over game states
// and serves value and policy queries from a solved table.
//
// Scoring any category closes it, so a state with L open categories depends
// only on states with fewer open categories. States are therefore solved in
// layers of increasing open-category count; within a layer every state is
// independent and the work is spread over a pool of workers, with the layer
// boundary acting as the only barrier.
package solver

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/dicetools/optzee/dice"
	"github.com/dicetools/optzee/state"
	"github.com/dicetools/optzee/valuetable"
)

// Solver fills a value table by backward induction.
type Solver struct {
	table   *valuetable.Table
	threads int
}

// New returns a solver writing into the given table. The table must be
// freshly created; a solve never rewrites an entry.
func New(table *valuetable.Table) *Solver {
	return &Solver{
		table:   table,
		threads: int(math.Max(1, float64(runtime.NumCPU()-1))),
	}
}

// SetThreads overrides the worker count.
func (s *Solver) SetThreads(n int) {
	if n > 0 {
		s.threads = n
	}
}

// Solve fills the entire table.
func (s *Solver) Solve(ctx context.Context) error {
	return s.SolveSubset(ctx, state.AllCategories)
}

// SolveSubset fills every state whose open set is a subset of universe.
// Queries against the resulting table are valid for exactly those states.
func (s *Solver) SolveSubset(ctx context.Context, universe state.Mask) error {
	if universe > state.AllCategories {
		return fmt.Errorf("%w: universe mask %#x", state.ErrInvalidState, uint16(universe))
	}
	layers := layerMasks(universe)

	start := time.Now()
	s.solveTerminal()
	for level := 1; level <= universe.Count(); level++ {
		layerStart := time.Now()
		if err := s.solveLayer(ctx, layers[level]); err != nil {
			return err
		}
		log.Debug().
			Int("layer", level).
			Int("masks", len(layers[level])).
			Dur("elapsed", time.Since(layerStart)).
			Msg("layer-solved")
	}
	log.Info().
		Str("universe", fmt.Sprintf("%#x", uint16(universe))).
		Dur("elapsed", time.Since(start)).
		Msg("solve-done")
	return nil
}

// solveTerminal seeds layer 0. A finished game is worth the upper bonus if
// the clamped upper score reached the threshold, and nothing otherwise.
func (s *Solver) solveTerminal() {
	for upper := 0; upper <= state.UpperBonusThreshold; upper++ {
		index, _ := state.Encode(state.GameState{Open: 0, Upper: upper})
		s.table.Set(index, state.TerminalValue(upper))
	}
}

// solveLayer computes every state for the given masks, all of equal
// open-category count. Masks are distributed to workers over a channel; a
// worker computes all 64 upper-score states of a mask. Workers only read
// entries of lower layers, which are immutable by now, and each writes only
// its own indices, so no locking is needed beyond the final Wait.
func (s *Solver) solveLayer(ctx context.Context, masks []state.Mask) error {
	g, ctx := errgroup.WithContext(ctx)
	jobChan := make(chan state.Mask, s.threads*2)

	for t := 0; t < s.threads; t++ {
		g.Go(func() error {
			ts := newTurnSolver(s.table)
			for mask := range jobChan {
				if err := ctx.Err(); err != nil {
					return err
				}
				if err := s.solveMask(ts, mask); err != nil {
					return err
				}
			}
			return nil
		})
	}
	g.Go(func() error {
		defer close(jobChan)
		for _, mask := range masks {
			select {
			case jobChan <- mask:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})
	return g.Wait()
}

func (s *Solver) solveMask(ts *turnSolver, mask state.Mask) error {
	for upper := 0; upper <= state.UpperBonusThreshold; upper++ {
		g := state.GameState{Open: mask, Upper: upper}
		value, err := ts.stateValue(g)
		if err != nil {
			return err
		}
		index, err := state.Encode(g)
		if err != nil {
			return err
		}
		s.table.Set(index, value)
	}
	return nil
}

// layerMasks groups every subset of universe by open-category count, each
// group sorted ascending so iteration order is deterministic.
func layerMasks(universe state.Mask) [state.NumCategories + 1][]state.Mask {
	var layers [state.NumCategories + 1][]state.Mask
	sub := universe
	for {
		layers[sub.Count()] = append(layers[sub.Count()], sub)
		if sub == 0 {
			break
		}
		sub = (sub - 1) & universe
	}
	for i := range layers {
		sort.Slice(layers[i], func(a, b int) bool {
			return layers[i][a] < layers[i][b]
		})
	}
	return layers
}

// ValueOf returns the expected remaining score for the given open categories
// and upper-section score. The upper score is clamped to the threshold before
// lookup; negative values are invalid.
func ValueOf(table *valuetable.Table, open state.Mask, upper int) (float64, error) {
	if upper < 0 {
		return 0, fmt.Errorf("%w: negative upper score %d", state.ErrInvalidState, upper)
	}
	g := state.GameState{Open: open, Upper: state.ClampUpper(upper)}
	index, err := state.Encode(g)
	if err != nil {
		return 0, err
	}
	v, ok := table.Get(index)
	if !ok {
		return 0, fmt.Errorf("%w: state %v", ErrDependencyViolation, g)
	}
	return v, nil
}

// StateValue solves the three-roll subgame for a single state against an
// already-solved table. Every successor of g must be solved.
func StateValue(table *valuetable.Table, g state.GameState) (float64, error) {
	if _, err := state.Encode(g); err != nil {
		return 0, err
	}
	if g.Terminal() {
		return state.TerminalValue(g.Upper), nil
	}
	return newTurnSolver(table).stateValue(g)
}

// BestCategory returns the optimal category to score the hand in, given the
// final roll of a turn. This is the same maximization the solver applies at
// the last roll.
func BestCategory(table *valuetable.Table, open state.Mask, upper int, hand dice.Roll) (state.Category, error) {
	g, err := queryState(open, upper)
	if err != nil {
		return 0, err
	}
	c, _, err := newTurnSolver(table).bestCategory(g, hand)
	return c, err
}

// BestKeep returns the optimal dice to keep with one or two rerolls
// remaining, and the expected value of doing so.
func BestKeep(table *valuetable.Table, open state.Mask, upper int, hand dice.Roll, rollsLeft int) (dice.Roll, float64, error) {
	g, err := queryState(open, upper)
	if err != nil {
		return dice.Roll{}, 0, err
	}
	return newTurnSolver(table).bestKeep(g, hand, rollsLeft)
}

func queryState(open state.Mask, upper int) (state.GameState, error) {
	if upper < 0 {
		return state.GameState{}, fmt.Errorf("%w: negative upper score %d", state.ErrInvalidState, upper)
	}
	g := state.GameState{Open: open, Upper: state.ClampUpper(upper)}
	if _, err := state.Encode(g); err != nil {
		return state.GameState{}, err
	}
	return g, nil
}
