package rating

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	ErrCompetitionNotFound     = errors.New("competition not found")
	ErrCompetitionNotCompleted = errors.New("competition is not completed")
	ErrRatingsFinalized        = errors.New("competition ratings already finalized")
	ErrNotCompetitionOwner     = errors.New("caller did not create this competition")
)

type competitionRepo interface {
	Get(ctx context.Context, id uuid.UUID) (*Competition, error)
	// ClaimFinalize stamps the finalized-at marker once; the winner applies
	// the rating batch.
	ClaimFinalize(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	ListStandings(ctx context.Context, competitionID uuid.UUID) ([]Standing, error)
}

// Finalizer runs the batch rating update for a completed competition.
type Finalizer struct {
	competitions competitionRepo
	ratings      *Service
	logger       zerolog.Logger
}

// NewFinalizer creates a competition finalizer.
func NewFinalizer(competitions competitionRepo, ratings *Service, logger zerolog.Logger) *Finalizer {
	return &Finalizer{
		competitions: competitions,
		ratings:      ratings,
		logger:       logger.With().Str("component", "competition_finalizer").Logger(),
	}
}

// FinalizeCompetition validates the competition, claims the one-shot finalize
// marker and applies standings to every participant's rating. Only the
// competition's creator, or a privileged caller, may trigger it.
func (f *Finalizer) FinalizeCompetition(ctx context.Context, competitionID, callerID uuid.UUID, privileged bool) (StandingsResult, error) {
	comp, err := f.competitions.Get(ctx, competitionID)
	if err != nil {
		return StandingsResult{}, fmt.Errorf("load competition: %w", err)
	}
	if comp == nil {
		return StandingsResult{}, ErrCompetitionNotFound
	}
	if comp.Status != CompetitionCompleted {
		return StandingsResult{}, ErrCompetitionNotCompleted
	}
	if !privileged && comp.CreatedBy != callerID {
		return StandingsResult{}, ErrNotCompetitionOwner
	}
	if comp.RatingsFinalizedAt != nil {
		return StandingsResult{}, ErrRatingsFinalized
	}

	claimed, err := f.competitions.ClaimFinalize(ctx, competitionID, time.Now())
	if err != nil {
		return StandingsResult{}, fmt.Errorf("claim finalize: %w", err)
	}
	if !claimed {
		return StandingsResult{}, ErrRatingsFinalized
	}

	standings, err := f.competitions.ListStandings(ctx, competitionID)
	if err != nil {
		return StandingsResult{}, fmt.Errorf("list standings: %w", err)
	}

	result := f.ratings.ApplyStandings(ctx, standings)

	f.logger.Info().
		Str("competition_id", competitionID.String()).
		Int("updated", result.ParticipantsUpdated).
		Int("total", result.TotalParticipants).
		Msg("competition ratings finalized")
	return result, nil
}
