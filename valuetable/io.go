package valuetable

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/dicetools/optzee/state"
)

// ErrMalformedTableFile marks an import whose shape does not match the fixed
// table layout.
var ErrMalformedTableFile = errors.New("malformed table file")

// Table file format: exactly state.NumStates little-endian float64 values in
// state index order, nothing else. 4 MiB for the standard state space.

// Export writes every entry in index order. It refuses to export a table
// with unsolved entries: a partial table has no meaningful file form.
func (t *Table) Export(w io.Writer) error {
	for i := 0; i < state.NumStates; i++ {
		if !t.IsSolved(i) {
			return fmt.Errorf("cannot export: entry %d is unsolved", i)
		}
	}
	return binary.Write(w, binary.LittleEndian, t.values)
}

// Import reads a complete table. Short reads, long files, and any trailing
// bytes are rejected; values are taken as-is with no reinterpretation.
func Import(r io.Reader) (*Table, error) {
	t := New()
	if err := binary.Read(r, binary.LittleEndian, &t.values); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedTableFile, err)
	}
	var extra [1]byte
	if n, _ := r.Read(extra[:]); n != 0 {
		return nil, fmt.Errorf("%w: trailing bytes after %d values",
			ErrMalformedTableFile, state.NumStates)
	}
	for i := range t.solved {
		t.solved[i] = ^uint64(0)
	}
	return t, nil
}
