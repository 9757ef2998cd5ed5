// Package dice models unordered rolls of up to five six-sided dice. It
// enumerates every canonical multiset of 0..5 dice with its exact multinomial
// probability, and precomputes the keep-subset transition tables the solver
// walks: for every way to keep part of a hand, the distribution over final
// hands after rerolling the rest.
//
// All tables are built once at package init, in a fixed deterministic order,
// so that expectation sums always accumulate in the same order and repeated
// solves are bit-identical.
package dice

import (
	"fmt"
	"sort"
	"strings"
)

const (
	// NumFaces is the number of die faces.
	NumFaces = 6

	// HandSize is the number of dice in a full hand.
	HandSize = 5

	// NumHands is the number of canonical five-die hands: C(10,5).
	NumHands = 252

	// NumKeepers is the number of canonical multisets of 0..5 dice, i.e.
	// every possible kept sub-multiset of any hand.
	NumKeepers = 462
)

// Roll is a canonical multiset of up to five dice, stored as face counts.
// Two rolls with equal counts are interchangeable everywhere: scoring and
// transition probabilities depend only on the multiset.
type Roll struct {
	counts [NumFaces]uint8
	size   uint8
}

// RollOf canonicalizes an explicit list of die faces.
func RollOf(faces ...int) (Roll, error) {
	var r Roll
	if len(faces) > HandSize {
		return r, fmt.Errorf("roll has %d dice; at most %d allowed", len(faces), HandSize)
	}
	for _, f := range faces {
		if f < 1 || f > NumFaces {
			return r, fmt.Errorf("die face %d outside [1, %d]", f, NumFaces)
		}
		r.counts[f-1]++
	}
	r.size = uint8(len(faces))
	return r, nil
}

// Size returns the number of dice in the roll.
func (r Roll) Size() int {
	return int(r.size)
}

// Count returns how many dice show the given face (1..6).
func (r Roll) Count(face int) int {
	return int(r.counts[face-1])
}

// Sum returns the total of all die faces in the roll.
func (r Roll) Sum() int {
	total := 0
	for f := 1; f <= NumFaces; f++ {
		total += f * int(r.counts[f-1])
	}
	return total
}

// Dice returns the faces in ascending order.
func (r Roll) Dice() []int {
	out := make([]int, 0, r.size)
	for f := 1; f <= NumFaces; f++ {
		for i := 0; i < int(r.counts[f-1]); i++ {
			out = append(out, f)
		}
	}
	return out
}

// Merge returns the multiset union of two rolls.
func (r Roll) Merge(other Roll) Roll {
	merged := r
	for f := 0; f < NumFaces; f++ {
		merged.counts[f] += other.counts[f]
	}
	merged.size += other.size
	return merged
}

func (r Roll) String() string {
	dice := r.Dice()
	parts := make([]string, len(dice))
	for i, d := range dice {
		parts[i] = fmt.Sprintf("%d", d)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// Transition is one outcome of rerolling the non-kept dice of a hand: the
// resulting final hand and its probability.
type Transition struct {
	Hand int
	P    float64
}

// Outcome is a canonical roll together with its probability of appearing
// when that many dice are thrown.
type Outcome struct {
	Roll Roll
	P    float64
}

var (
	// multisets of size 0..5 in (size, lexicographic) order. The first
	// sizeStart[HandSize] entries are partial keeps; ids from handBase up
	// are full hands.
	multisets []Roll
	sizeStart [HandSize + 2]int
	idOf      map[[NumFaces]uint8]int

	handBase int

	// firstRoll[h] is the probability of hand h when five dice are thrown.
	firstRoll [NumHands]float64

	// outcomesBySize[k] is the reroll distribution for k dice.
	outcomesBySize [HandSize + 1][]Outcome

	// keeperTrans[id] are the final-hand outcomes of keeping multiset id
	// and rerolling the remaining HandSize-size dice.
	keeperTrans [NumKeepers][]Transition

	// handKeeperIDs[h] lists the distinct sub-multisets of hand h, i.e.
	// every deduplicated keep choice.
	handKeeperIDs [NumHands][]int
)

func init() {
	buildMultisets()
	buildDistributions()
	buildKeeperTables()
}

func buildMultisets() {
	idOf = make(map[[NumFaces]uint8]int, NumKeepers)
	for k := 0; k <= HandSize; k++ {
		sizeStart[k] = len(multisets)
		var counts [NumFaces]uint8
		emitMultisets(k, 0, counts)
	}
	sizeStart[HandSize+1] = len(multisets)
	handBase = sizeStart[HandSize]
	if len(multisets) != NumKeepers {
		panic(fmt.Sprintf("enumerated %d multisets, want %d", len(multisets), NumKeepers))
	}
	if NumKeepers-handBase != NumHands {
		panic(fmt.Sprintf("enumerated %d hands, want %d", NumKeepers-handBase, NumHands))
	}
}

// emitMultisets appends every multiset of `remaining` dice drawn from faces
// >= face, in lexicographic order of the count vector.
func emitMultisets(remaining, face int, counts [NumFaces]uint8) {
	if face == NumFaces-1 {
		counts[face] = uint8(remaining)
		r := Roll{counts: counts}
		for f := 0; f < NumFaces; f++ {
			r.size += counts[f]
		}
		idOf[counts] = len(multisets)
		multisets = append(multisets, r)
		return
	}
	for take := 0; take <= remaining; take++ {
		counts[face] = uint8(take)
		emitMultisets(remaining-take, face+1, counts)
	}
}

// probability returns the chance of rolling exactly this multiset with
// r.Size() dice: the multinomial coefficient over 6^size.
func probability(r Roll) float64 {
	var factorial = [HandSize + 1]float64{1, 1, 2, 6, 24, 120}
	p := factorial[r.size]
	for f := 0; f < NumFaces; f++ {
		p /= factorial[r.counts[f]]
	}
	for i := 0; i < int(r.size); i++ {
		p /= NumFaces
	}
	return p
}

func buildDistributions() {
	for k := 0; k <= HandSize; k++ {
		group := multisets[sizeStart[k]:sizeStart[k+1]]
		outcomes := make([]Outcome, len(group))
		for i, r := range group {
			outcomes[i] = Outcome{Roll: r, P: probability(r)}
		}
		outcomesBySize[k] = outcomes
	}
	for h := 0; h < NumHands; h++ {
		firstRoll[h] = outcomesBySize[HandSize][h].P
	}
}

func buildKeeperTables() {
	for id, kept := range multisets {
		reroll := HandSize - kept.Size()
		outcomes := outcomesBySize[reroll]
		trans := make([]Transition, len(outcomes))
		for i, o := range outcomes {
			final := kept.Merge(o.Roll)
			trans[i] = Transition{Hand: idOf[final.counts] - handBase, P: o.P}
		}
		keeperTrans[id] = trans
	}
	for h := 0; h < NumHands; h++ {
		hand := multisets[handBase+h]
		ids := subMultisetIDs(hand)
		sort.Ints(ids)
		handKeeperIDs[h] = ids
	}
}

// subMultisetIDs enumerates every sub-multiset of the hand exactly once, by
// walking the product of per-face kept counts. Positionally different keeps
// of equal dice collapse to a single id here.
func subMultisetIDs(hand Roll) []int {
	ids := []int{}
	var counts [NumFaces]uint8
	var walk func(face int)
	walk = func(face int) {
		if face == NumFaces {
			ids = append(ids, idOf[counts])
			return
		}
		for take := uint8(0); take <= hand.counts[face]; take++ {
			counts[face] = take
			walk(face + 1)
		}
		counts[face] = 0
	}
	walk(0)
	return ids
}

// Hands returns the 252 canonical five-die hands in index order. The slice
// is shared; callers must not modify it.
func Hands() []Roll {
	return multisets[handBase:]
}

// Hand returns the canonical hand with the given index.
func Hand(h int) Roll {
	return multisets[handBase+h]
}

// HandIndex returns the index of a full five-die roll.
func HandIndex(r Roll) (int, error) {
	if r.Size() != HandSize {
		return 0, fmt.Errorf("roll %v has %d dice, want %d", r, r.Size(), HandSize)
	}
	return idOf[r.counts] - handBase, nil
}

// FirstRollProb returns the probability of rolling hand h with all five dice.
func FirstRollProb(h int) float64 {
	return firstRoll[h]
}

// Outcomes returns the canonical outcomes and probabilities of rolling k
// dice, k in 0..5. For k = 0 it is the single empty roll with probability 1.
func Outcomes(k int) []Outcome {
	return outcomesBySize[k]
}

// Keeper returns the kept multiset with the given id.
func Keeper(id int) Roll {
	return multisets[id]
}

// KeeperTransitions returns the distribution over final hands when keeping
// multiset id and rerolling the rest of the hand.
func KeeperTransitions(id int) []Transition {
	return keeperTrans[id]
}

// HandKeepers returns the ids of every distinct keep choice for hand h,
// including keeping nothing and keeping everything.
func HandKeepers(h int) []int {
	return handKeeperIDs[h]
}
