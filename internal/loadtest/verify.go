package loadtest

import (
	"fmt"

	"github.com/okian/fingering/internal/adapters/repository"
)

// verify checks the invariants every finished solve must hold and returns
// one error per violation.
func verify(req request, rec repository.Record) []error {
	var errs []error
	res := rec.Result
	if res == nil {
		return []error{fmt.Errorf("job %s: done without a result", rec.ID)}
	}
	if len(res.DebugEvents) != len(req.Events) {
		errs = append(errs, fmt.Errorf("job %s: %d debug events for %d notes", rec.ID, len(res.DebugEvents), len(req.Events)))
	}
	if res.Score < 0 || res.Score > 100 {
		errs = append(errs, fmt.Errorf("job %s: score %.2f out of range", rec.ID, res.Score))
	}
	if req.Strategy != "" && res.Strategy != req.Strategy {
		errs = append(errs, fmt.Errorf("job %s: solved by %s, asked for %s", rec.ID, res.Strategy, req.Strategy))
	}
	used, playable := 0, 0
	for _, n := range res.FingerUsage {
		used += n
	}
	for _, d := range res.DebugEvents {
		if d.Playable() {
			playable++
		}
	}
	if used != playable {
		errs = append(errs, fmt.Errorf("job %s: finger usage %d, playable events %d", rec.ID, used, playable))
	}
	// No hand-finger pair may sound twice at the same instant.
	seen := make(map[string]bool)
	for _, d := range res.DebugEvents {
		if !d.Playable() || d.Finger == nil {
			continue
		}
		key := fmt.Sprintf("%g/%s/%s", d.StartTime, d.Hand, *d.Finger)
		if seen[key] {
			errs = append(errs, fmt.Errorf("job %s: %s %s reused at %gs", rec.ID, d.Hand, *d.Finger, d.StartTime))
		}
		seen[key] = true
	}
	return errs
}
