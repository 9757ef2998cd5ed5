package solver

import (
	"errors"
	"fmt"
	"math"

	"github.com/dicetools/optzee/dice"
	"github.com/dicetools/optzee/scoring"
	"github.com/dicetools/optzee/state"
	"github.com/dicetools/optzee/valuetable"
)

// ErrDependencyViolation means a state value was needed before it was solved.
// This is a defect in the layering of the backward solve, never a runtime
// condition: the solve must abort rather than substitute a default, since a
// defaulted value would poison everything computed after it.
var ErrDependencyViolation = errors.New("dependency violation: unsolved state value required")

// turnSolver evaluates the three-roll subgame for one state. Each worker owns
// its own turnSolver so the scratch buffers are never shared.
type turnSolver struct {
	table *valuetable.Table

	// scratch, reused across states.
	finalVals [dice.NumHands]float64
	rollVals  [dice.NumHands]float64
	keeperEV  [dice.NumKeepers]float64
}

func newTurnSolver(table *valuetable.Table) *turnSolver {
	return &turnSolver{table: table}
}

// stateValue computes the expected remaining score for g, assuming every
// strict successor (one fewer open category) is already solved.
//
// The subgame is evaluated backwards: the value of each final hand is the
// best category to score it in; each of the two reroll decisions folds those
// values through the keep-choice maximization; the state value is the
// expectation over the initial five-die roll.
func (ts *turnSolver) stateValue(g state.GameState) (float64, error) {
	if err := ts.scoreValues(g, &ts.finalVals); err != nil {
		return 0, err
	}
	ts.maximizeKeep(&ts.finalVals, &ts.rollVals) // after roll 2
	ts.maximizeKeep(&ts.rollVals, &ts.finalVals) // after roll 1
	value := 0.0
	for h := 0; h < dice.NumHands; h++ {
		value += dice.FirstRollProb(h) * ts.finalVals[h]
	}
	return value, nil
}

// scoreValues fills vals[h] with the best achievable value of scoring hand h
// right now: immediate points plus the solved value of the successor state,
// maximized over the open categories.
func (ts *turnSolver) scoreValues(g state.GameState, vals *[dice.NumHands]float64) error {
	open := g.Open.Categories()
	for h := 0; h < dice.NumHands; h++ {
		hand := dice.Hand(h)
		best := math.Inf(-1)
		for _, c := range open {
			v, err := ts.scoredValue(g, c, hand)
			if err != nil {
				return err
			}
			if v > best {
				best = v
			}
		}
		vals[h] = best
	}
	return nil
}

// scoredValue is points for scoring hand in c plus the successor's solved
// value.
func (ts *turnSolver) scoredValue(g state.GameState, c state.Category, hand dice.Roll) (float64, error) {
	next, points, err := scoring.Apply(g, c, hand)
	if err != nil {
		return 0, err
	}
	index, err := state.Encode(next)
	if err != nil {
		return 0, err
	}
	future, ok := ts.table.Get(index)
	if !ok {
		return 0, fmt.Errorf("%w: state %v (index %d), successor of %v via %v",
			ErrDependencyViolation, next, index, g, c)
	}
	return float64(points) + future, nil
}

// maximizeKeep folds one reroll decision: out[h] is the best expected value
// over all keep choices for hand h, where the value of a final hand is in[h].
// Keeping all five dice is always among the choices, so out[h] >= in[h].
func (ts *turnSolver) maximizeKeep(in, out *[dice.NumHands]float64) {
	for id := 0; id < dice.NumKeepers; id++ {
		ev := 0.0
		for _, tr := range dice.KeeperTransitions(id) {
			ev += tr.P * in[tr.Hand]
		}
		ts.keeperEV[id] = ev
	}
	for h := 0; h < dice.NumHands; h++ {
		best := math.Inf(-1)
		for _, id := range dice.HandKeepers(h) {
			if ts.keeperEV[id] > best {
				best = ts.keeperEV[id]
			}
		}
		out[h] = best
	}
}

// bestCategory returns the open category maximizing immediate points plus
// successor value for the hand. Ties resolve to the lowest category index;
// the value is tie-break invariant.
func (ts *turnSolver) bestCategory(g state.GameState, hand dice.Roll) (state.Category, float64, error) {
	if g.Terminal() {
		return 0, 0, fmt.Errorf("%w: no categories open", state.ErrInvalidState)
	}
	best := math.Inf(-1)
	var bestCat state.Category
	for _, c := range g.Open.Categories() {
		v, err := ts.scoredValue(g, c, hand)
		if err != nil {
			return 0, 0, err
		}
		if v > best {
			best = v
			bestCat = c
		}
	}
	return bestCat, best, nil
}

// bestKeep returns the keep choice maximizing expected value with the given
// number of rerolls remaining (1 or 2), together with that expectation.
func (ts *turnSolver) bestKeep(g state.GameState, hand dice.Roll, rollsLeft int) (dice.Roll, float64, error) {
	if rollsLeft < 1 || rollsLeft > 2 {
		return dice.Roll{}, 0, fmt.Errorf("rolls left must be 1 or 2, got %d", rollsLeft)
	}
	if err := ts.scoreValues(g, &ts.finalVals); err != nil {
		return dice.Roll{}, 0, err
	}
	vals := &ts.finalVals
	if rollsLeft == 2 {
		// The value of a hand after the coming reroll still includes one
		// more keep decision.
		ts.maximizeKeep(&ts.finalVals, &ts.rollVals)
		vals = &ts.rollVals
	}
	for id := 0; id < dice.NumKeepers; id++ {
		ev := 0.0
		for _, tr := range dice.KeeperTransitions(id) {
			ev += tr.P * vals[tr.Hand]
		}
		ts.keeperEV[id] = ev
	}
	h, err := dice.HandIndex(hand)
	if err != nil {
		return dice.Roll{}, 0, err
	}
	best := math.Inf(-1)
	bestID := -1
	for _, id := range dice.HandKeepers(h) {
		if ts.keeperEV[id] > best {
			best = ts.keeperEV[id]
			bestID = id
		}
	}
	return dice.Keeper(bestID), best, nil
}
