package matchmaking

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/codeduelhq/duel-platform/internal/metrics"
)

type sweepStore interface {
	SweepExpired(ctx context.Context, now time.Time) (removed, remaining int64, err error)
}

// Sweeper periodically removes expired queue entries. Polls already enforce
// expiry for their own entry; this is a best-effort hygiene pass for entries
// nobody polls anymore.
type Sweeper struct {
	store    sweepStore
	interval time.Duration
	metrics  *metrics.Registry
	logger   zerolog.Logger
}

// NewSweeper creates a queue sweeper.
func NewSweeper(store sweepStore, interval time.Duration, m *metrics.Registry, logger zerolog.Logger) *Sweeper {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Sweeper{
		store:    store,
		interval: interval,
		metrics:  m,
		logger:   logger.With().Str("component", "queue_sweeper").Logger(),
	}
}

// Run blocks until context cancellation.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// run immediately
	s.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Sweeper) tick(ctx context.Context) {
	removed, remaining, err := s.store.SweepExpired(ctx, time.Now())
	if err != nil {
		s.logger.Warn().Err(err).Msg("queue sweep failed")
		return
	}

	if s.metrics != nil {
		s.metrics.QueueDepth.Set(float64(remaining))
		if removed > 0 {
			s.metrics.QueueExpired.Add(float64(removed))
		}
	}

	if removed > 0 {
		s.logger.Info().
			Int64("removed", removed).
			Int64("remaining", remaining).
			Msg("expired queue entries swept")
	}
}
