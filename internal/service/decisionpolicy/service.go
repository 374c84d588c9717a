package decisionpolicy

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/claimguard/insurance-fraud-backend/internal/domain/errors"
)

const (
	// bufferCapacity bounds the experience FIFO.
	bufferCapacity = 10000

	// incrementalBatch is the buffer-size boundary that triggers an
	// incremental training pass.
	incrementalBatch = 100

	// trainInterval is the cadence of scheduled full retraining.
	trainInterval = 7 * 24 * time.Hour
)

// Service is the adaptive decision policy: prediction on the request path,
// feedback accumulation, and training that atomically replaces the model.
type Service interface {
	// Predict returns the policy's recommendation for an observation.
	Predict(ctx context.Context, obs Observation) (*Decision, error)

	// Feed appends one experience. Crossing a multiple-of-100 buffer
	// boundary triggers a synchronous incremental training pass.
	Feed(ctx context.Context, exp Experience) error

	// Train runs a full training pass over the buffered experience and,
	// on success, publishes the new parameters in memory and on disk.
	Train(ctx context.Context) error

	// Run blocks, retraining on a weekly ticker until ctx is cancelled.
	Run(ctx context.Context) error

	// Version reports the published parameter version.
	Version() int
}

type service struct {
	current        atomic.Pointer[params]
	buffer         *experienceBuffer
	checkpointPath string
	logger         *slog.Logger

	// trainMu enforces the single-writer discipline for parameter swaps.
	trainMu sync.Mutex
}

// NewService loads the checkpoint at checkpointPath, or bootstrap-trains a
// fresh policy against the synthetic environment when none exists.
func NewService(checkpointPath string, logger *slog.Logger) (Service, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &service{
		buffer:         newExperienceBuffer(bufferCapacity),
		checkpointPath: checkpointPath,
		logger:         logger,
	}

	p, err := loadCheckpoint(checkpointPath)
	switch {
	case err == nil:
		s.current.Store(p)
		logger.Info("decision policy checkpoint loaded",
			slog.String("path", checkpointPath),
			slog.Int("version", p.Version))
	case os.IsNotExist(err):
		if err := s.bootstrap(); err != nil {
			return nil, err
		}
	default:
		return nil, errors.NewTrainingError("load checkpoint").WithCause(err)
	}

	return s, nil
}

// bootstrap trains a freshly initialized policy on seeded synthetic
// episodes so the service never predicts from random weights.
func (s *service) bootstrap() error {
	s.logger.Info("no decision policy checkpoint found, bootstrapping",
		slog.String("path", s.checkpointPath))

	episodes := bootstrapExperience(bootstrapSeed, bootstrapEpisodes)
	p := train(newParams(), episodes, fullTrainSteps)
	p.Version = 1
	p.TrainedAt = time.Now().UTC()

	if err := saveCheckpoint(s.checkpointPath, p); err != nil {
		return errors.NewTrainingError("save bootstrap checkpoint").WithCause(err)
	}
	s.current.Store(p)

	s.logger.Info("decision policy bootstrapped",
		slog.Int("episodes", len(episodes)),
		slog.Int("version", p.Version))
	return nil
}

func (s *service) Predict(ctx context.Context, obs Observation) (*Decision, error) {
	p := s.current.Load()
	if p == nil {
		return nil, errors.NewModelUnavailableError("decision policy not initialized")
	}
	d := p.predict(obs)
	return &d, nil
}

func (s *service) Feed(ctx context.Context, exp Experience) error {
	size := s.buffer.Append(exp)
	if size%incrementalBatch == 0 {
		s.logger.Info("experience buffer boundary crossed, incremental training",
			slog.Int("buffer_size", size))
		if err := s.trainAndPublish(incrementalTrainSteps); err != nil {
			// Incremental failures are absorbed; the weekly pass retries.
			s.logger.Error("incremental training failed", slog.Any("error", err))
		}
	}
	return nil
}

func (s *service) Train(ctx context.Context) error {
	return s.trainAndPublish(fullTrainSteps)
}

// trainAndPublish trains over a buffer snapshot and, only after the
// checkpoint is durably written, swaps the in-memory parameters. A failure
// at any stage leaves both the published params and the on-disk checkpoint
// unchanged.
func (s *service) trainAndPublish(steps int) error {
	s.trainMu.Lock()
	defer s.trainMu.Unlock()

	snapshot := s.buffer.Snapshot()
	if len(snapshot) == 0 {
		return errors.NewTrainingError("experience buffer is empty")
	}

	start := s.current.Load()
	if start == nil {
		start = newParams()
	}

	started := time.Now()
	next := train(start, snapshot, steps)
	next.Version = start.Version + 1
	next.TrainedAt = time.Now().UTC()

	if err := saveCheckpoint(s.checkpointPath, next); err != nil {
		return errors.NewTrainingError("save checkpoint").WithCause(err)
	}
	s.current.Store(next)

	s.logger.Info("decision policy trained",
		slog.Int("experiences", len(snapshot)),
		slog.Int("steps", steps),
		slog.Int("version", next.Version),
		slog.Duration("elapsed", time.Since(started)))
	return nil
}

func (s *service) Run(ctx context.Context) error {
	ticker := time.NewTicker(trainInterval)
	defer ticker.Stop()

	s.logger.Info("decision policy scheduler started",
		slog.Duration("interval", trainInterval))

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("decision policy scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := s.Train(ctx); err != nil {
				// Checkpoint untouched on failure; the next tick is
				// the retry mechanism.
				s.logger.Error("scheduled training failed", slog.Any("error", err))
			}
		}
	}
}

func (s *service) Version() int {
	p := s.current.Load()
	if p == nil {
		return 0
	}
	return p.Version
}
