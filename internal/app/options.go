package service

import (
	"time"

	"github.com/okian/fingering/internal/config"
	"github.com/okian/fingering/internal/engine"
	"github.com/okian/fingering/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of solve workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the job queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithJobStoreSize caps the number of job records kept.
func WithJobStoreSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.storeSize = size
		}
	}
}

// WithJobStoreRefresh sets how often the job store republishes its size gauge.
func WithJobStoreRefresh(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.storeRefresh = d
		}
	}
}

// WithJobTimeout bounds each asynchronous solve. Zero disables the bound.
func WithJobTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.jobTimeout = d
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithEngineOptions appends options for the engine built by Start.
func WithEngineOptions(opts ...engine.Option) Option {
	return func(s *Service) {
		s.engineOpts = append(s.engineOpts, opts...)
	}
}

// OptionsFromConfig translates process configuration into service options.
func OptionsFromConfig(cfg *config.Config) ([]Option, error) {
	kind, err := cfg.Strategy()
	if err != nil {
		return nil, err
	}
	ecfg, err := cfg.EngineConfig()
	if err != nil {
		return nil, err
	}
	mapping, err := cfg.GridMapping()
	if err != nil {
		return nil, err
	}
	return []Option{
		WithWorkerCount(cfg.WorkerCount),
		WithQueueSize(cfg.QueueSize),
		WithJobStoreSize(cfg.JobStoreSize),
		WithJobStoreRefresh(cfg.JobStoreRefresh),
		WithJobTimeout(cfg.JobTimeout),
		WithEngineOptions(
			engine.WithStrategy(kind),
			engine.WithConfig(ecfg),
			engine.WithMapping(mapping),
		),
	}, nil
}
