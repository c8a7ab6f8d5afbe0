package rating

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/codeduelhq/duel-platform/internal/metrics"
)

type store interface {
	Get(ctx context.Context, userID uuid.UUID) (*Rating, error)
	Upsert(ctx context.Context, r Rating) error
}

type locker interface {
	Lock(ctx context.Context, userID uuid.UUID) (func() error, error)
}

// Service applies finalized outcomes to skill ratings. Callers guarantee
// exactly-once invocation per finalized duel or competition; the service
// guarantees per-user serialization.
type Service struct {
	store   store
	locker  locker
	engine  *Engine
	metrics *metrics.Registry
	logger  zerolog.Logger
}

// NewService creates a rating service.
func NewService(store store, locker locker, engine *Engine, m *metrics.Registry, logger zerolog.Logger) *Service {
	return &Service{
		store:   store,
		locker:  locker,
		engine:  engine,
		metrics: m,
		logger:  logger.With().Str("component", "rating").Logger(),
	}
}

// ApplyDuel updates every participant of a finalized duel. A failure for one
// participant is logged and does not block the other's update.
func (s *Service) ApplyDuel(ctx context.Context, outcomes []DuelOutcome) {
	for _, outcome := range outcomes {
		if err := s.applyDuelOutcome(ctx, outcome); err != nil {
			s.logger.Error().Err(err).
				Str("user_id", outcome.UserID.String()).
				Msg("duel rating update failed")
			if s.metrics != nil {
				s.metrics.RatingFailures.Inc()
			}
			continue
		}
		if s.metrics != nil {
			s.metrics.RatingUpdates.Inc()
		}
	}
}

func (s *Service) applyDuelOutcome(ctx context.Context, outcome DuelOutcome) error {
	unlock, err := s.locker.Lock(ctx, outcome.UserID)
	if err != nil {
		return err
	}
	defer unlock()

	current, err := s.loadOrDefault(ctx, outcome.UserID, outcome.Username)
	if err != nil {
		return err
	}

	delta := s.engine.DuelDelta(current.Rating, outcome.OpponentRating, current.DuelsCompleted, outcome.Actual)
	current.Rating = s.engine.Apply(current.Rating, delta)
	current.Tier = TierFor(current.Rating)
	if current.Rating > current.PeakRating {
		current.PeakRating = current.Rating
	}
	current.DuelsCompleted++

	switch {
	case outcome.Actual == 1:
		current.CurrentStreak++
		if current.CurrentStreak > current.BestStreak {
			current.BestStreak = current.CurrentStreak
		}
	case outcome.Actual == 0:
		current.CurrentStreak = 0
	}
	// Draws leave the streak untouched.

	current.LastActiveAt = time.Now()

	if err := s.store.Upsert(ctx, current); err != nil {
		return fmt.Errorf("store rating: %w", err)
	}

	s.logger.Info().
		Str("user_id", outcome.UserID.String()).
		Int("delta", delta).
		Int("rating", current.Rating).
		Str("tier", current.Tier).
		Msg("duel rating applied")
	return nil
}

// StandingsResult reports how many participants were updated.
type StandingsResult struct {
	ParticipantsUpdated int
	TotalParticipants   int
}

// ApplyStandings updates every participant of a completed competition's
// ranked standings. Per-participant failures are logged, not fatal.
func (s *Service) ApplyStandings(ctx context.Context, standings []Standing) StandingsResult {
	result := StandingsResult{TotalParticipants: len(standings)}
	for _, standing := range standings {
		if err := s.applyStanding(ctx, standing, len(standings)); err != nil {
			s.logger.Error().Err(err).
				Str("user_id", standing.UserID.String()).
				Int("rank", standing.FinalRank).
				Msg("competition rating update failed")
			if s.metrics != nil {
				s.metrics.RatingFailures.Inc()
			}
			continue
		}
		result.ParticipantsUpdated++
		if s.metrics != nil {
			s.metrics.RatingUpdates.Inc()
		}
	}
	return result
}

func (s *Service) applyStanding(ctx context.Context, standing Standing, total int) error {
	unlock, err := s.locker.Lock(ctx, standing.UserID)
	if err != nil {
		return err
	}
	defer unlock()

	current, err := s.loadOrDefault(ctx, standing.UserID, standing.Username)
	if err != nil {
		return err
	}

	delta := s.engine.StandingsDelta(standing.FinalRank, total) + s.engine.MilestoneBonus(standing.FinalRank)
	current.Rating = s.engine.Apply(current.Rating, delta)
	current.Tier = TierFor(current.Rating)
	if current.Rating > current.PeakRating {
		current.PeakRating = current.Rating
	}
	current.CompetitionsCompleted++

	switch {
	case standing.FinalRank == 1:
		current.WinCount++
	case standing.FinalRank <= 3:
		current.Top3Count++
	case standing.FinalRank <= 10:
		current.Top10Count++
	}

	current.LastActiveAt = time.Now()

	if err := s.store.Upsert(ctx, current); err != nil {
		return fmt.Errorf("store rating: %w", err)
	}
	return nil
}

// Current returns the user's rating, falling back to the virtual default row.
func (s *Service) Current(ctx context.Context, userID uuid.UUID, username string) (Rating, error) {
	return s.loadOrDefault(ctx, userID, username)
}

func (s *Service) loadOrDefault(ctx context.Context, userID uuid.UUID, username string) (Rating, error) {
	current, err := s.store.Get(ctx, userID)
	if err != nil {
		return Rating{}, fmt.Errorf("load rating: %w", err)
	}
	if current == nil {
		return NewDefault(userID, username), nil
	}
	if current.Username == "" {
		current.Username = username
	}
	return *current, nil
}
