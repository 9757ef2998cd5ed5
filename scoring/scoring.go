// Package scoring implements the 13 category scoring rules and the state
// transition that scores a hand into a category.
package scoring

import (
	"fmt"

	"github.com/dicetools/optzee/dice"
	"github.com/dicetools/optzee/state"
)

const (
	fullHousePoints     = 25
	smallStraightPoints = 30
	largeStraightPoints = 40
	yahtzeePoints       = 50

	smallStraightRun = 4
	largeStraightRun = 5
)

// Score returns the points for scoring the hand in the given category. It is
// a pure function of the hand multiset.
func Score(c state.Category, hand dice.Roll) int {
	switch c {
	case state.Ones, state.Twos, state.Threes, state.Fours, state.Fives, state.Sixes:
		face := c.Face()
		return face * hand.Count(face)
	case state.ThreeOfAKind:
		if maxCount(hand) >= 3 {
			return hand.Sum()
		}
		return 0
	case state.FourOfAKind:
		if maxCount(hand) >= 4 {
			return hand.Sum()
		}
		return 0
	case state.FullHouse:
		if isFullHouse(hand) {
			return fullHousePoints
		}
		return 0
	case state.SmallStraight:
		if longestRun(hand) >= smallStraightRun {
			return smallStraightPoints
		}
		return 0
	case state.LargeStraight:
		if longestRun(hand) >= largeStraightRun {
			return largeStraightPoints
		}
		return 0
	case state.Yahtzee:
		if maxCount(hand) == dice.HandSize {
			return yahtzeePoints
		}
		return 0
	case state.Chance:
		return hand.Sum()
	}
	panic(fmt.Sprintf("unknown category %d", int(c)))
}

// Apply scores the hand in category c from the given state. It returns the
// successor state and the immediate points. The upper-score clamp is applied
// here and nowhere else. Scoring a category that is not open is invalid.
func Apply(g state.GameState, c state.Category, hand dice.Roll) (state.GameState, int, error) {
	if !g.Open.Has(c) {
		return state.GameState{}, 0, fmt.Errorf("%w: category %v is not open", state.ErrInvalidState, c)
	}
	points := Score(c, hand)
	next := state.GameState{Open: g.Open.Without(c), Upper: g.Upper}
	if c.IsUpper() {
		next.Upper = state.ClampUpper(g.Upper + points)
	}
	return next, points, nil
}

func maxCount(hand dice.Roll) int {
	max := 0
	for f := 1; f <= dice.NumFaces; f++ {
		if n := hand.Count(f); n > max {
			max = n
		}
	}
	return max
}

// isFullHouse requires exactly a pair and a triple; five of a kind does not
// qualify.
func isFullHouse(hand dice.Roll) bool {
	pair, triple := false, false
	for f := 1; f <= dice.NumFaces; f++ {
		switch hand.Count(f) {
		case 2:
			pair = true
		case 3:
			triple = true
		}
	}
	return pair && triple
}

func longestRun(hand dice.Roll) int {
	best, run := 0, 0
	for f := 1; f <= dice.NumFaces; f++ {
		if hand.Count(f) > 0 {
			run++
			if run > best {
				best = run
			}
		} else {
			run = 0
		}
	}
	return best
}
