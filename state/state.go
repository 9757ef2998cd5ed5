// Package state encodes Yahtzee game states. A state is the set of scoring
// categories still open plus the upper-section running score, clamped at the
// bonus threshold. The codec packs both into a dense index so that value
// tables can be flat arrays.
package state

import (
	"errors"
	"fmt"
	"math/bits"
	"strings"
)

// Category is one of the 13 scoring categories. The constant order matters:
// it fixes each category's bit in a Mask and its position in the state index.
type Category uint8

const (
	Ones Category = iota
	Twos
	Threes
	Fours
	Fives
	Sixes
	ThreeOfAKind
	FourOfAKind
	FullHouse
	SmallStraight
	LargeStraight
	Yahtzee
	Chance
	NumCategories = 13
)

var categoryNames = [NumCategories]string{
	"Ones", "Twos", "Threes", "Fours", "Fives", "Sixes",
	"Three of a Kind", "Four of a Kind", "Full House",
	"Small Straight", "Large Straight", "Yahtzee", "Chance",
}

func (c Category) String() string {
	if c >= NumCategories {
		return fmt.Sprintf("Category(%d)", int(c))
	}
	return categoryNames[c]
}

// IsUpper reports whether c belongs to the upper section (Ones..Sixes).
func (c Category) IsUpper() bool {
	return c <= Sixes
}

// Face returns the die face an upper category counts, or 0 for lower
// categories.
func (c Category) Face() int {
	if !c.IsUpper() {
		return 0
	}
	return int(c) + 1
}

// Bit returns the mask with only this category open.
func (c Category) Bit() Mask {
	return 1 << c
}

// CategoryFromName resolves a display name, ignoring case.
func CategoryFromName(name string) (Category, error) {
	for i, n := range categoryNames {
		if strings.EqualFold(n, name) {
			return Category(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown category %q", ErrInvalidState, name)
}

// Mask is a set of open categories, one bit per Category.
type Mask uint16

// AllCategories has every category open (the start of a game).
const AllCategories Mask = 1<<NumCategories - 1

// Has reports whether c is open in m.
func (m Mask) Has(c Category) bool {
	return m&c.Bit() != 0
}

// Without returns m with c closed.
func (m Mask) Without(c Category) Mask {
	return m &^ c.Bit()
}

// Count returns the number of open categories.
func (m Mask) Count() int {
	return bits.OnesCount16(uint16(m))
}

// Categories lists the open categories in index order.
func (m Mask) Categories() []Category {
	cats := make([]Category, 0, m.Count())
	for c := Ones; c < NumCategories; c++ {
		if m.Has(c) {
			cats = append(cats, c)
		}
	}
	return cats
}

func (m Mask) String() string {
	names := make([]string, 0, m.Count())
	for _, c := range m.Categories() {
		names = append(names, c.String())
	}
	return strings.Join(names, ", ")
}

const (
	// UpperBonusThreshold is the clamp ceiling for the upper-section running
	// score. Any true total of 63 or more is stored as 63; totals past the
	// threshold cannot change any future decision.
	UpperBonusThreshold = 63

	// UpperBonus is the one-time bonus for reaching the threshold.
	UpperBonus = 35

	// NumStates is the size of the dense index space:
	// 2^13 masks times 64 upper-score buckets.
	NumStates = (int(AllCategories) + 1) * (UpperBonusThreshold + 1)
)

// ErrInvalidState marks inputs outside the declared state domain.
var ErrInvalidState = errors.New("invalid game state")

// GameState is a semantic game state. Upper must already be clamped to
// [0, UpperBonusThreshold]; the clamp is applied at transition time, not here.
type GameState struct {
	Open  Mask
	Upper int
}

// Terminal reports whether no categories remain to score.
func (g GameState) Terminal() bool {
	return g.Open == 0
}

// Encode maps g to its dense index. It rejects an out-of-range Upper or a
// mask with stray high bits rather than silently masking them off.
func Encode(g GameState) (int, error) {
	if g.Open > AllCategories {
		return 0, fmt.Errorf("%w: mask %#x has bits beyond the %d categories",
			ErrInvalidState, uint16(g.Open), NumCategories)
	}
	if g.Upper < 0 || g.Upper > UpperBonusThreshold {
		return 0, fmt.Errorf("%w: upper score %d outside [0, %d]",
			ErrInvalidState, g.Upper, UpperBonusThreshold)
	}
	return g.Upper<<NumCategories | int(g.Open), nil
}

// Decode inverts Encode. Any index outside [0, NumStates) is invalid.
func Decode(index int) (GameState, error) {
	if index < 0 || index >= NumStates {
		return GameState{}, fmt.Errorf("%w: index %d outside [0, %d)",
			ErrInvalidState, index, NumStates)
	}
	return GameState{
		Open:  Mask(index) & AllCategories,
		Upper: index >> NumCategories,
	}, nil
}

// ClampUpper applies the threshold clamp to a true upper-section total.
func ClampUpper(total int) int {
	if total > UpperBonusThreshold {
		return UpperBonusThreshold
	}
	return total
}

// TerminalValue is the expected remaining score of a terminal state: the
// upper bonus if it was earned, else nothing. The bonus is realized exactly
// once, here, rather than being added as categories are scored.
func TerminalValue(upper int) float64 {
	if upper == UpperBonusThreshold {
		return UpperBonus
	}
	return 0
}
