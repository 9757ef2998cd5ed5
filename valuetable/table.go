// Package valuetable stores expected values for every encoded game state.
// Solved entries are tracked in a separate bitset rather than with a sentinel
// float, so any finite value is representable.
package valuetable

import "github.com/dicetools/optzee/state"

// Table is a flat value store over the dense state index space. Entries
// start unsolved; each index is written at most once during a solve and the
// table is read-only afterwards.
type Table struct {
	values []float64
	solved []uint64
}

// New returns a table with every entry unsolved.
func New() *Table {
	return &Table{
		values: make([]float64, state.NumStates),
		solved: make([]uint64, (state.NumStates+63)/64),
	}
}

// Get returns the value at index and whether it has been solved.
func (t *Table) Get(index int) (float64, bool) {
	if !t.IsSolved(index) {
		return 0, false
	}
	return t.values[index], true
}

// Set writes the value at index and marks it solved.
func (t *Table) Set(index int, value float64) {
	t.values[index] = value
	t.solved[index>>6] |= 1 << (uint(index) & 63)
}

// IsSolved reports whether the entry at index has been written.
func (t *Table) IsSolved(index int) bool {
	return t.solved[index>>6]&(1<<(uint(index)&63)) != 0
}

// NumSolved returns how many entries have been written.
func (t *Table) NumSolved() int {
	n := 0
	for i := 0; i < state.NumStates; i++ {
		if t.IsSolved(i) {
			n++
		}
	}
	return n
}
