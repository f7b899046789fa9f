// Package model contains domain models passed between layers.
package model

import (
	"sort"
	"time"
)

// NoteEvent is a single note trigger in a performance. It is never mutated
// once part of a Performance.
type NoteEvent struct {
	NoteNumber int     // note identifier, e.g. MIDI note number
	StartTime  float64 // absolute start time in seconds
	Duration   float64 // optional, seconds
	Velocity   int     // optional, 0-127
	Channel    int     // optional
}

// Performance is an ordered sequence of note events.
type Performance struct {
	Name   string
	Tempo  float64 // optional, beats per minute
	Events []NoteEvent
}

// Sorted returns a copy of the events ordered by start time. Events sharing
// a start time keep their input order.
func (p Performance) Sorted() []NoteEvent {
	out := make([]NoteEvent, len(p.Events))
	copy(out, p.Events)
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartTime < out[j].StartTime })
	return out
}

// Job is a queued request to solve a performance asynchronously.
type Job struct {
	ID          string
	Strategy    string // solver kind name; empty means the engine default
	Performance Performance
	Manual      ManualAssignments
	SubmittedAt time.Time
}
