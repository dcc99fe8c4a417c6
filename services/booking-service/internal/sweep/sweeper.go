// Package sweep force-ends call sessions that were abandoned without a hangup.
// A live session blocks new sessions for its appointment, so a client that
// crashed mid-call would otherwise lock the appointment out of calling until
// someone notices.
package sweep

import (
	"context"
	"log/slog"
	"time"

	"github.com/nutribook/nutribook/services/booking-service/internal/storage"
)

type Sweeper struct {
	repo      *storage.SessionRepository
	logger    *slog.Logger
	interval  time.Duration
	maxAge    time.Duration
	batchSize int
}

type Config struct {
	Interval  time.Duration
	MaxAge    time.Duration
	BatchSize int
}

func New(repo *storage.SessionRepository, logger *slog.Logger, cfg Config) *Sweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = 4 * time.Hour
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	return &Sweeper{
		repo:      repo,
		logger:    logger,
		interval:  cfg.Interval,
		maxAge:    cfg.MaxAge,
		batchSize: cfg.BatchSize,
	}
}

func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().UTC().Add(-s.maxAge)
			n, err := s.repo.EndStale(ctx, cutoff, s.batchSize)
			if err != nil {
				s.logger.Error("stale session sweep failed", "err", err)
				continue
			}
			if n > 0 {
				s.logger.Info("ended stale call sessions", "count", n, "cutoff", cutoff)
			}
		}
	}
}
