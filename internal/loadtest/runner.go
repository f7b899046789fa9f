package loadtest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/fingering/internal/adapters/repository"
	"github.com/okian/fingering/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0o750
	filePermission      = 0o600
)

// ErrViolations is returned when a finished job breaks a result invariant.
var ErrViolations = errors.New("result violations")

// Run executes a complete load test against cfg.BaseURL.
func Run(ctx context.Context, cfg Config, log logger.Logger) (Stats, error) {
	if log == nil {
		log = logger.Default()
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	stats := Stats{}
	start := time.Now()
	client := newHTTPClient(cfg.BaseURL, cfg.Timeout)

	log.Info(ctx, "starting load test",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("jobs", cfg.Jobs),
		logger.Int("workers", cfg.Workers),
	)

	if err := checkHealth(ctx, client); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	reqs := generate(cfg)
	stats.Generated = len(reqs)
	if cfg.OutputFile != "" {
		if err := save(cfg.OutputFile, reqs); err != nil {
			log.Warn(ctx, "failed to save generated requests", logger.Error(err))
		}
	}

	accepted, err := submit(ctx, client, cfg.Workers, reqs, &stats)
	if err != nil {
		return stats, fmt.Errorf("submission failed: %w", err)
	}
	log.Info(ctx, "jobs submitted",
		logger.Int("accepted", stats.Accepted),
		logger.Int("backpressure", stats.Backpressure),
		logger.Int("rejected", stats.Rejected),
	)

	records, err := await(ctx, client, cfg, accepted)
	if err != nil {
		return stats, fmt.Errorf("polling failed: %w", err)
	}

	var violations []error
	scoreSum := 0.0
	for _, req := range accepted {
		rec, ok := records[req.ID]
		switch {
		case !ok || !rec.Status.Finished():
			stats.Pending++
		case rec.Status == repository.StatusFailed:
			stats.Failed++
			log.Warn(ctx, "job failed", logger.String("job_id", rec.ID), logger.String("error", rec.Error))
		default:
			stats.Done++
			violations = append(violations, verify(req, rec)...)
			if rec.Result != nil {
				scoreSum += rec.Result.Score
				stats.Unplayable += rec.Result.UnplayableCount
			}
		}
	}
	if stats.Done > 0 {
		stats.MeanScore = scoreSum / float64(stats.Done)
	}
	stats.Violations = len(violations)
	stats.Duration = time.Since(start)
	if stats.Duration > 0 {
		stats.JobsPerSec = float64(stats.Done) / stats.Duration.Seconds()
	}

	log.Info(ctx, "final statistics",
		logger.Int("done", stats.Done),
		logger.Int("failed", stats.Failed),
		logger.Int("pending", stats.Pending),
		logger.Int("violations", stats.Violations),
		logger.Float64("meanScore", stats.MeanScore),
		logger.Float64("jobsPerSecond", stats.JobsPerSec),
		logger.Duration("duration", stats.Duration),
	)
	if len(violations) > 0 {
		for _, v := range violations {
			log.Error(ctx, "result violation", logger.Error(v))
		}
		return stats, fmt.Errorf("%w: %w", ErrViolations, errors.Join(violations...))
	}
	return stats, nil
}

func checkHealth(ctx context.Context, client *httpClient) error {
	status, _, err := client.get(ctx, "/healthz")
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("unexpected status %d", status)
	}
	return nil
}

// submit posts every request and returns those the service accepted.
func submit(ctx context.Context, client *httpClient, workers int, reqs []request, stats *Stats) ([]request, error) {
	var (
		mu       sync.Mutex
		accepted []request
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, r := range reqs {
		g.Go(func() error {
			status, _, err := client.postJSON(gctx, "/jobs", r)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			switch status {
			case http.StatusAccepted:
				stats.Accepted++
				accepted = append(accepted, r)
			case http.StatusTooManyRequests:
				stats.Backpressure++
			default:
				stats.Rejected++
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return accepted, nil
}

// await polls until every accepted job has finished or cfg.PollTimeout
// passes. Jobs still unfinished are returned with their last state.
func await(ctx context.Context, client *httpClient, cfg Config, reqs []request) (map[string]repository.Record, error) {
	records := make(map[string]repository.Record, len(reqs))
	open := make([]string, 0, len(reqs))
	for _, r := range reqs {
		open = append(open, r.ID)
	}
	deadline := time.Now().Add(cfg.PollTimeout)
	for len(open) > 0 {
		var (
			mu   sync.Mutex
			left []string
		)
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(cfg.Workers)
		for _, id := range open {
			g.Go(func() error {
				status, body, err := client.get(gctx, "/jobs/"+id)
				if err != nil {
					return err
				}
				if status != http.StatusOK {
					return fmt.Errorf("job %s: status %d", id, status)
				}
				var rec repository.Record
				if err := json.Unmarshal(body, &rec); err != nil {
					return fmt.Errorf("job %s: decode: %w", id, err)
				}
				mu.Lock()
				defer mu.Unlock()
				records[id] = rec
				if !rec.Status.Finished() {
					left = append(left, id)
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		open = left
		if len(open) == 0 || time.Now().After(deadline) {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(cfg.PollInterval):
		}
	}
	return records, nil
}

// save writes the generated requests as a JSON array.
func save(path string, reqs []request) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(reqs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal requests: %w", err)
	}
	if err := os.WriteFile(path, data, filePermission); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
