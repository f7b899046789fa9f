package loadtest

import (
	"math/rand/v2"

	"github.com/google/uuid"

	"github.com/okian/fingering/internal/domain/grid"
)

// Probabilities shaping the generated material.
const (
	chordChance    = 0.2
	unmappedChance = 0.03
	maxGap         = 0.5
	minGap         = 0.04
	padCount       = grid.DefaultRows * grid.DefaultCols
)

// request mirrors the body accepted by POST /jobs.
type request struct {
	ID       string  `json:"id"`
	Strategy string  `json:"strategy,omitempty"`
	Name     string  `json:"name"`
	Events   []event `json:"events"`
}

type event struct {
	NoteNumber int     `json:"noteNumber"`
	StartTime  float64 `json:"startTime"`
	Velocity   int     `json:"velocity"`
}

// generate builds cfg.Jobs requests. The same seed yields the same material;
// ids are random.
func generate(cfg Config) []request {
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)) //nolint:gosec // test material, not secrets
	out := make([]request, cfg.Jobs)
	for i := range out {
		r := request{ID: uuid.NewString(), Name: "generated"}
		if len(cfg.Strategies) > 0 {
			r.Strategy = cfg.Strategies[i%len(cfg.Strategies)]
		}
		n := cfg.MinEvents
		if cfg.MaxEvents > cfg.MinEvents {
			n += rng.IntN(cfg.MaxEvents - cfg.MinEvents + 1)
		}
		r.Events = phrase(rng, n)
		out[i] = r
	}
	return out
}

// phrase produces n events with occasional two-note chords and a few notes
// that fall outside the default grid.
func phrase(rng *rand.Rand, n int) []event {
	events := make([]event, 0, n)
	t := 0.0
	for len(events) < n {
		events = append(events, event{NoteNumber: note(rng), StartTime: t, Velocity: 40 + rng.IntN(88)})
		if len(events) < n && rng.Float64() < chordChance {
			events = append(events, event{NoteNumber: note(rng), StartTime: t, Velocity: 40 + rng.IntN(88)})
		}
		t += minGap + rng.Float64()*(maxGap-minGap)
	}
	return events
}

func note(rng *rand.Rand) int {
	if rng.Float64() < unmappedChance {
		return grid.DefaultBaseNote + padCount + rng.IntN(16)
	}
	return grid.DefaultBaseNote + rng.IntN(padCount)
}
