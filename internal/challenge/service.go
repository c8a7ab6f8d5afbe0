package challenge

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrNoChallenge means the pool has no challenge for the requested filter.
// Callers surface it as a distinct status, never a crash.
var ErrNoChallenge = errors.New("no challenge available")

type store interface {
	PickRandom(ctx context.Context, difficulty string) (*Challenge, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Challenge, error)
}

type cache interface {
	Get(ctx context.Context, id uuid.UUID) (*Challenge, error)
	Set(ctx context.Context, ch Challenge) error
}

// Service selects challenges for new duels and serves them on the submit path.
type Service struct {
	store  store
	cache  cache
	logger zerolog.Logger
}

// NewService creates a challenge service. cache may be nil.
func NewService(store store, cache cache, logger zerolog.Logger) *Service {
	return &Service{
		store:  store,
		cache:  cache,
		logger: logger.With().Str("component", "challenge").Logger(),
	}
}

// Select picks a random challenge honoring an optional difficulty filter.
// Returns ErrNoChallenge when the pool is empty for the filter.
func (s *Service) Select(ctx context.Context, difficulty string) (*Challenge, error) {
	if difficulty != "" && !ValidDifficulty(difficulty) {
		return nil, fmt.Errorf("unknown difficulty %q", difficulty)
	}

	ch, err := s.store.PickRandom(ctx, difficulty)
	if err != nil {
		return nil, err
	}
	if ch == nil {
		return nil, ErrNoChallenge
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, *ch); err != nil {
			s.logger.Warn().Err(err).Str("challenge_id", ch.ID.String()).Msg("failed to cache challenge")
		}
	}
	return ch, nil
}

// Get loads a challenge by id, cache first. Submissions call this on every
// judge run, so the cache keeps test suites off the hot path.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Challenge, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, id); err != nil {
			s.logger.Warn().Err(err).Str("challenge_id", id.String()).Msg("challenge cache read failed")
		} else if cached != nil {
			return cached, nil
		}
	}

	ch, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ch == nil {
		return nil, ErrNoChallenge
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, *ch); err != nil {
			s.logger.Warn().Err(err).Msg("failed to cache challenge")
		}
	}
	return ch, nil
}
