package cost

import "github.com/okian/fingering/internal/domain/model"

type memoEntry struct {
	note   int
	hand   model.Hand
	finger model.Finger
	time   float64
}

// Memo remembers which finger last played each note. It belongs to a single
// solver run and must be reset (or freshly created) at the start of every
// solve. The zero value is ready to use.
type Memo struct {
	entries []memoEntry
}

// Reset forgets everything.
func (m *Memo) Reset() { m.entries = m.entries[:0] }

// Len returns the number of remembered notes.
func (m *Memo) Len() int { return len(m.entries) }

// Clone returns an independent copy.
func (m *Memo) Clone() Memo {
	out := Memo{entries: make([]memoEntry, len(m.entries))}
	copy(out.entries, m.entries)
	return out
}

// Record notes that (h, f) played note at time t, dropping entries older than
// window seconds.
func (m *Memo) Record(note int, h model.Hand, f model.Finger, t, window float64) {
	kept := m.entries[:0]
	for _, e := range m.entries {
		if e.note == note || t-e.time > window {
			continue
		}
		kept = append(kept, e)
	}
	m.entries = append(kept, memoEntry{note: note, hand: h, finger: f, time: t})
}

// Penalty is the bounce cost of playing note with (h, f) at time t: zero when
// the same finger repeats a recent note or there is no recent entry, and
// p.BouncePenalty when a different finger takes over.
func (m *Memo) Penalty(note int, h model.Hand, f model.Finger, t float64, p Params) float64 {
	for _, e := range m.entries {
		if e.note != note {
			continue
		}
		if t-e.time > p.BounceWindow {
			return 0
		}
		if e.hand == h && e.finger == f {
			return 0
		}
		return p.BouncePenalty
	}
	return 0
}
