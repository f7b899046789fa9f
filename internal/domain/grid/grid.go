// Package grid provides pad-grid geometry and note-to-position lookup.
package grid

import (
	"math"

	"github.com/okian/fingering/internal/domain/model"
)

// Default grid layout: an 8x8 pad surface starting at C1.
const (
	DefaultRows     = 8
	DefaultCols     = 8
	DefaultBaseNote = 36
)

// Distance is the Euclidean distance between two positions.
func Distance(a, b model.GridPosition) float64 {
	dr := a.Row - b.Row
	dc := a.Col - b.Col
	return math.Sqrt(dr*dr + dc*dc)
}

// Mapping resolves note numbers to grid positions. Entries in the custom
// table take precedence over the algorithmic row/col derivation.
type Mapping struct {
	rows     int
	cols     int
	baseNote int
	custom   map[int]model.GridPosition
}

// Option applies a configuration option to a Mapping.
type Option func(*Mapping)

// WithDimensions sets the grid size. Non-positive values are ignored.
func WithDimensions(rows, cols int) Option {
	return func(m *Mapping) {
		if rows > 0 && cols > 0 {
			m.rows = rows
			m.cols = cols
		}
	}
}

// WithBaseNote sets the note at row 0, col 0.
func WithBaseNote(note int) Option {
	return func(m *Mapping) {
		m.baseNote = note
	}
}

// WithCustom installs an explicit note->position table.
func WithCustom(table map[int]model.GridPosition) Option {
	return func(m *Mapping) {
		m.custom = make(map[int]model.GridPosition, len(table))
		for note, pos := range table {
			m.custom[note] = pos
		}
	}
}

// NewMapping creates a Mapping with defaults overridden by opts.
func NewMapping(opts ...Option) Mapping {
	m := Mapping{
		rows:     DefaultRows,
		cols:     DefaultCols,
		baseNote: DefaultBaseNote,
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// Lookup returns the grid position of note, or false when it is unmapped.
func (m Mapping) Lookup(note int) (model.GridPosition, bool) {
	if pos, ok := m.custom[note]; ok {
		return pos, true
	}
	rows, cols := m.dims()
	offset := note - m.baseNote
	if offset < 0 || offset >= rows*cols {
		return model.GridPosition{}, false
	}
	return model.GridPosition{Row: float64(offset / cols), Col: float64(offset % cols)}, true
}

// Rows returns the number of grid rows.
func (m Mapping) Rows() int { r, _ := m.dims(); return r }

// Columns returns the number of grid columns.
func (m Mapping) Columns() int { _, c := m.dims(); return c }

// BaseNote returns the note mapped to the origin cell.
func (m Mapping) BaseNote() int { return m.baseNote }

// CustomSize returns the number of explicit table entries.
func (m Mapping) CustomSize() int { return len(m.custom) }

// dims guards against a zero-value Mapping.
func (m Mapping) dims() (int, int) {
	if m.rows <= 0 || m.cols <= 0 {
		return DefaultRows, DefaultCols
	}
	return m.rows, m.cols
}
