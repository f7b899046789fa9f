// Package loader decodes performances, manual assignments and grid mappings
// from JSON documents.
package loader

import (
	"fmt"
	"os"
	"strconv"

	"github.com/okian/fingering/internal/domain/grid"
	"github.com/okian/fingering/internal/domain/model"
	"github.com/tidwall/gjson"
)

// Request is a decoded solve request.
type Request struct {
	ID          string
	Strategy    string
	Performance model.Performance
	Manual      model.ManualAssignments
}

// Job converts the request into a queue payload.
func (r Request) Job() model.Job {
	return model.Job{
		ID:          r.ID,
		Strategy:    r.Strategy,
		Performance: r.Performance,
		Manual:      r.Manual,
	}
}

// ParseRequest decodes a document of the form
//
//	{"id": "...", "strategy": "beam", "name": "...", "tempo": 120,
//	 "events": [{"noteNumber": 36, "startTime": 0.5}],
//	 "manual": [{"eventIndex": 0, "hand": "left", "finger": "index"}]}
//
// Every field other than events is optional.
func ParseRequest(data []byte) (Request, error) {
	if !gjson.ValidBytes(data) {
		return Request{}, ErrInvalidJSON
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return Request{}, fmt.Errorf("%w: expected an object", ErrInvalidJSON)
	}
	perf, err := performance(doc)
	if err != nil {
		return Request{}, err
	}
	manual, err := manualAssignments(doc.Get("manual"))
	if err != nil {
		return Request{}, err
	}
	return Request{
		ID:          doc.Get("id").String(),
		Strategy:    doc.Get("strategy").String(),
		Performance: perf,
		Manual:      manual,
	}, nil
}

// ParsePerformance decodes the performance and manual assignments of a
// document. See ParseRequest for the shape.
func ParsePerformance(data []byte) (model.Performance, model.ManualAssignments, error) {
	req, err := ParseRequest(data)
	if err != nil {
		return model.Performance{}, nil, err
	}
	return req.Performance, req.Manual, nil
}

// LoadRequestFile reads and decodes a request document.
func LoadRequestFile(path string) (Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Request{}, fmt.Errorf("read performance %s: %w", path, err)
	}
	return ParseRequest(data)
}

// LoadPerformanceFile reads and decodes a performance document.
func LoadPerformanceFile(path string) (model.Performance, model.ManualAssignments, error) {
	req, err := LoadRequestFile(path)
	if err != nil {
		return model.Performance{}, nil, err
	}
	return req.Performance, req.Manual, nil
}

func performance(doc gjson.Result) (model.Performance, error) {
	perf := model.Performance{
		Name:  doc.Get("name").String(),
		Tempo: doc.Get("tempo").Float(),
	}
	events := doc.Get("events")
	if events.Exists() && !events.IsArray() {
		return model.Performance{}, fmt.Errorf("%w: events must be an array", ErrInvalidEvent)
	}
	var err error
	i := 0
	events.ForEach(func(_, v gjson.Result) bool {
		var ev model.NoteEvent
		ev, err = noteEvent(i, v)
		if err != nil {
			return false
		}
		perf.Events = append(perf.Events, ev)
		i++
		return true
	})
	if err != nil {
		return model.Performance{}, err
	}
	return perf, nil
}

func noteEvent(i int, v gjson.Result) (model.NoteEvent, error) {
	if !v.IsObject() {
		return model.NoteEvent{}, fmt.Errorf("%w: event %d is not an object", ErrInvalidEvent, i)
	}
	note := v.Get("noteNumber")
	if note.Type != gjson.Number {
		return model.NoteEvent{}, fmt.Errorf("%w: event %d: noteNumber must be a number", ErrInvalidEvent, i)
	}
	start := v.Get("startTime")
	if start.Type != gjson.Number {
		return model.NoteEvent{}, fmt.Errorf("%w: event %d: startTime must be a number", ErrInvalidEvent, i)
	}
	if start.Float() < 0 {
		return model.NoteEvent{}, fmt.Errorf("%w: event %d: negative startTime", ErrInvalidEvent, i)
	}
	return model.NoteEvent{
		NoteNumber: int(note.Int()),
		StartTime:  start.Float(),
		Duration:   v.Get("duration").Float(),
		Velocity:   int(v.Get("velocity").Int()),
		Channel:    int(v.Get("channel").Int()),
	}, nil
}

// manualAssignments accepts either an array of {eventIndex, hand, finger}
// entries or an object keyed by event index.
func manualAssignments(v gjson.Result) (model.ManualAssignments, error) {
	if !v.Exists() || v.Type == gjson.Null {
		return nil, nil
	}
	if !v.IsArray() && !v.IsObject() {
		return nil, fmt.Errorf("%w: expected an array or object", ErrInvalidManual)
	}
	out := make(model.ManualAssignments)
	var err error
	v.ForEach(func(key, entry gjson.Result) bool {
		var idx int
		if v.IsArray() {
			f := entry.Get("eventIndex")
			if f.Type != gjson.Number {
				err = fmt.Errorf("%w: eventIndex must be a number", ErrInvalidManual)
				return false
			}
			idx = int(f.Int())
		} else {
			idx, err = strconv.Atoi(key.String())
			if err != nil {
				err = fmt.Errorf("%w: key %q is not an event index", ErrInvalidManual, key.String())
				return false
			}
		}
		var a model.Assignment
		a, err = assignment(entry)
		if err != nil {
			err = fmt.Errorf("%w: event %d: %w", ErrInvalidManual, idx, err)
			return false
		}
		if _, dup := out[idx]; dup {
			err = fmt.Errorf("%w: event %d assigned twice", ErrInvalidManual, idx)
			return false
		}
		out[idx] = a
		return true
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func assignment(v gjson.Result) (model.Assignment, error) {
	h, err := model.ParseHand(v.Get("hand").String())
	if err != nil {
		return model.Assignment{}, err
	}
	f, err := model.ParseFinger(v.Get("finger").String())
	if err != nil {
		return model.Assignment{}, err
	}
	return model.Assignment{Hand: h, Finger: f}, nil
}

// ParseMapping decodes a grid mapping document:
//
//	{"rows": 8, "cols": 8, "baseNote": 36,
//	 "custom": {"60": {"row": 0, "col": 3}}}
//
// custom may also be an array of {note, row, col} entries. Missing fields
// keep the defaults of grid.NewMapping.
func ParseMapping(data []byte) (grid.Mapping, error) {
	if !gjson.ValidBytes(data) {
		return grid.Mapping{}, ErrInvalidJSON
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return grid.Mapping{}, fmt.Errorf("%w: expected an object", ErrInvalidJSON)
	}
	var opts []grid.Option
	rows, cols := doc.Get("rows"), doc.Get("cols")
	if rows.Exists() || cols.Exists() {
		if rows.Int() <= 0 || cols.Int() <= 0 {
			return grid.Mapping{}, fmt.Errorf("%w: rows and cols must both be positive", ErrInvalidMapping)
		}
		opts = append(opts, grid.WithDimensions(int(rows.Int()), int(cols.Int())))
	}
	if base := doc.Get("baseNote"); base.Exists() {
		opts = append(opts, grid.WithBaseNote(int(base.Int())))
	}
	custom, err := customTable(doc.Get("custom"))
	if err != nil {
		return grid.Mapping{}, err
	}
	if len(custom) > 0 {
		opts = append(opts, grid.WithCustom(custom))
	}
	return grid.NewMapping(opts...), nil
}

// LoadMappingFile reads and decodes a grid mapping document.
func LoadMappingFile(path string) (grid.Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return grid.Mapping{}, fmt.Errorf("read mapping %s: %w", path, err)
	}
	return ParseMapping(data)
}

func customTable(v gjson.Result) (map[int]model.GridPosition, error) {
	if !v.Exists() || v.Type == gjson.Null {
		return nil, nil
	}
	out := make(map[int]model.GridPosition)
	var err error
	v.ForEach(func(key, entry gjson.Result) bool {
		var note int
		if v.IsArray() {
			note = int(entry.Get("note").Int())
			if !entry.Get("note").Exists() {
				err = fmt.Errorf("%w: custom entry without note", ErrInvalidMapping)
				return false
			}
		} else {
			note, err = strconv.Atoi(key.String())
			if err != nil {
				err = fmt.Errorf("%w: key %q is not a note number", ErrInvalidMapping, key.String())
				return false
			}
		}
		row, col := entry.Get("row"), entry.Get("col")
		if row.Type != gjson.Number || col.Type != gjson.Number {
			err = fmt.Errorf("%w: note %d needs numeric row and col", ErrInvalidMapping, note)
			return false
		}
		out[note] = model.GridPosition{Row: row.Float(), Col: col.Float()}
		return true
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
