package duel

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/codeduelhq/duel-platform/internal/challenge"
	"github.com/codeduelhq/duel-platform/internal/judge"
	"github.com/codeduelhq/duel-platform/internal/metrics"
	"github.com/codeduelhq/duel-platform/internal/rating"
)

var (
	ErrDuelNotFound   = errors.New("duel not found")
	ErrDuelCompleted  = errors.New("duel already completed")
	ErrNotParticipant = errors.New("not a participant of this duel")
	ErrScoreFrozen    = errors.New("final submission already recorded")
)

// PlayerResult is the judged outcome stored for one slot.
type PlayerResult struct {
	Score       int
	TestsPassed int
	TestsTotal  int
	Submitted   bool
}

type store interface {
	Create(ctx context.Context, d *Duel) error
	Get(ctx context.Context, id uuid.UUID) (*Duel, error)
	GetActiveFor(ctx context.Context, userID uuid.UUID) (*Duel, error)
	HasActive(ctx context.Context, userID uuid.UUID) (bool, error)
	// UpdatePlayerResult stores a judged attempt while the duel is still
	// active; it reports false when the duel completed in the meantime.
	UpdatePlayerResult(ctx context.Context, duelID uuid.UUID, slot int, res PlayerResult) (bool, error)
	// Complete transitions active to completed and reports whether this call
	// won the transition. Losing the race is normal control flow.
	Complete(ctx context.Context, duelID uuid.UUID, winnerID *uuid.UUID, endedAt time.Time) (bool, error)
}

type challengeProvider interface {
	Get(ctx context.Context, id uuid.UUID) (*challenge.Challenge, error)
}

type judgeEngine interface {
	Execute(ctx context.Context, req judge.Request) (judge.Result, error)
}

type ratingApplier interface {
	ApplyDuel(ctx context.Context, outcomes []rating.DuelOutcome)
}

// ServiceOptions configures the duel controller.
type ServiceOptions struct {
	CaseTimeout time.Duration
}

// Service owns the duel lifecycle: creation, submission intake, finalization.
type Service struct {
	store       store
	challenges  challengeProvider
	judge       judgeEngine
	ratings     ratingApplier
	caseTimeout time.Duration
	metrics     *metrics.Registry
	logger      zerolog.Logger
}

// NewService creates a duel controller.
func NewService(store store, challenges challengeProvider, judgeEngine judgeEngine, ratings ratingApplier, opts ServiceOptions, m *metrics.Registry, logger zerolog.Logger) *Service {
	caseTimeout := opts.CaseTimeout
	if caseTimeout <= 0 {
		caseTimeout = 5 * time.Second
	}
	return &Service{
		store:       store,
		challenges:  challenges,
		judge:       judgeEngine,
		ratings:     ratings,
		caseTimeout: caseTimeout,
		metrics:     m,
		logger:      logger.With().Str("component", "duel").Logger(),
	}
}

// CreateParams describes a new duel born from a match or the bot fallback.
type CreateParams struct {
	Challenge     *challenge.Challenge
	Language      string
	Players       [2]PlayerSlot
	IsBotOpponent bool
}

// Create persists a new active duel.
func (s *Service) Create(ctx context.Context, params CreateParams) (*Duel, error) {
	d := &Duel{
		ID:               uuid.New(),
		ChallengeID:      params.Challenge.ID,
		Language:         params.Language,
		Status:           StatusActive,
		Players:          params.Players,
		IsBotOpponent:    params.IsBotOpponent,
		TimeLimitSeconds: params.Challenge.TimeLimitSeconds,
		StartedAt:        time.Now(),
	}

	if err := s.store.Create(ctx, d); err != nil {
		return nil, fmt.Errorf("create duel: %w", err)
	}

	s.logger.Info().
		Str("duel_id", d.ID.String()).
		Str("challenge_id", d.ChallengeID.String()).
		Str("language", d.Language).
		Bool("bot", d.IsBotOpponent).
		Msg("duel created")
	return d, nil
}

// HasActive reports whether the user is currently in an active duel.
// A user already dueling cannot be matched or queued again.
func (s *Service) HasActive(ctx context.Context, userID uuid.UUID) (bool, error) {
	return s.store.HasActive(ctx, userID)
}

// ActiveFor returns the user's active duel, or nil. Polling clients whose
// queue entry was claimed by the opponent's search discover the duel here.
func (s *Service) ActiveFor(ctx context.Context, userID uuid.UUID) (*Duel, error) {
	return s.store.GetActiveFor(ctx, userID)
}

// Get loads a duel by id.
func (s *Service) Get(ctx context.Context, duelID uuid.UUID) (*Duel, error) {
	d, err := s.store.Get(ctx, duelID)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, ErrDuelNotFound
	}
	return d, nil
}

// SubmitResult is returned to the submitting player.
type SubmitResult struct {
	Score       int
	TestsPassed int
	TestsTotal  int
	Cases       []judge.CaseResult
	DuelStatus  string
}

// Submit judges a player's code and records the attempt. Non-final attempts
// overwrite the player's last result; a final submission freezes the score
// and, once both sides are final, completes the duel. Deadline expiry is
// enforced here: an expired duel is finalized before the submission is
// considered.
func (s *Service) Submit(ctx context.Context, duelID, userID uuid.UUID, code string, isFinal, priority bool) (*SubmitResult, error) {
	d, err := s.Get(ctx, duelID)
	if err != nil {
		return nil, err
	}
	if d.Status == StatusCompleted {
		return nil, ErrDuelCompleted
	}

	now := time.Now()
	if d.Expired(now) {
		if _, err := s.finalize(ctx, d); err != nil {
			s.logger.Warn().Err(err).Str("duel_id", duelID.String()).Msg("forced finalize failed")
		}
		return nil, ErrDuelCompleted
	}

	slot := d.Slot(userID)
	if slot < 0 {
		return nil, ErrNotParticipant
	}
	if d.Players[slot].Submitted {
		return nil, ErrScoreFrozen
	}

	ch, err := s.challenges.Get(ctx, d.ChallengeID)
	if err != nil {
		return nil, fmt.Errorf("load challenge: %w", err)
	}

	judged, err := s.judge.Execute(ctx, judge.Request{
		Code:        code,
		Language:    d.Language,
		Cases:       ch.Cases,
		CaseTimeout: s.caseTimeout,
		Priority:    priority,
	})
	if err != nil {
		return nil, fmt.Errorf("judge submission: %w", err)
	}

	result := PlayerResult{
		Score:       judged.Score,
		TestsPassed: judged.TestsPassed,
		TestsTotal:  judged.TestsTotal,
		Submitted:   isFinal,
	}
	applied, err := s.store.UpdatePlayerResult(ctx, duelID, slot, result)
	if err != nil {
		return nil, fmt.Errorf("store attempt: %w", err)
	}
	if !applied {
		// The duel completed while this submission was being judged; its
		// recorded scores are frozen.
		return nil, ErrDuelCompleted
	}

	d.Players[slot].Score = result.Score
	d.Players[slot].TestsPassed = result.TestsPassed
	d.Players[slot].TestsTotal = result.TestsTotal
	d.Players[slot].Submitted = isFinal

	s.logger.Info().
		Str("duel_id", duelID.String()).
		Str("user_id", userID.String()).
		Int("score", judged.Score).
		Bool("final", isFinal).
		Msg("submission judged")

	if isFinal {
		// Re-read before deciding on completion: the opponent's final may
		// have landed while this submission was being judged, and both
		// callers' snapshots would miss each other's flag.
		if fresh, err := s.store.Get(ctx, duelID); err != nil {
			s.logger.Warn().Err(err).Str("duel_id", duelID.String()).Msg("re-read after final submission failed")
		} else if fresh != nil {
			d = fresh
		}
		if d.Status == StatusActive && d.BothSubmitted() {
			if final, err := s.finalize(ctx, d); err != nil {
				s.logger.Warn().Err(err).Str("duel_id", duelID.String()).Msg("finalize after final submission failed")
			} else {
				d = final
			}
		}
	}

	return &SubmitResult{
		Score:       judged.Score,
		TestsPassed: judged.TestsPassed,
		TestsTotal:  judged.TestsTotal,
		Cases:       judged.Cases,
		DuelStatus:  d.Status,
	}, nil
}

// Finalize completes the duel if its conditions are met. It is idempotent:
// only the call that wins the status transition triggers rating updates.
func (s *Service) Finalize(ctx context.Context, duelID uuid.UUID) (*Duel, error) {
	d, err := s.Get(ctx, duelID)
	if err != nil {
		return nil, err
	}
	if d.Status == StatusCompleted {
		return d, nil
	}
	if !d.BothSubmitted() && !d.Expired(time.Now()) {
		return d, nil
	}
	return s.finalize(ctx, d)
}

func (s *Service) finalize(ctx context.Context, d *Duel) (*Duel, error) {
	winner := d.Winner()
	endedAt := time.Now()

	claimed, err := s.store.Complete(ctx, d.ID, winner, endedAt)
	if err != nil {
		return nil, fmt.Errorf("complete duel: %w", err)
	}
	if !claimed {
		// Someone else already finalized; re-read and accept their outcome.
		return s.Get(ctx, d.ID)
	}

	d.Status = StatusCompleted
	d.WinnerID = winner
	d.EndedAt = &endedAt

	if s.metrics != nil {
		s.metrics.DuelsFinalized.WithLabelValues(d.Outcome()).Inc()
	}

	if s.ratings != nil {
		s.ratings.ApplyDuel(ctx, s.outcomes(d))
	}

	s.logger.Info().
		Str("duel_id", d.ID.String()).
		Bool("draw", winner == nil).
		Msg("duel finalized")
	return d, nil
}

// outcomes builds one rating outcome per human participant. Bot slots never
// rate, but the human's update still counts the bot's fixed rating.
func (s *Service) outcomes(d *Duel) []rating.DuelOutcome {
	var outcomes []rating.DuelOutcome
	for i, p := range d.Players {
		if p.IsBot() {
			continue
		}
		opponent := d.Players[1-i]
		actual := 0.5
		switch {
		case p.Score > opponent.Score:
			actual = 1
		case p.Score < opponent.Score:
			actual = 0
		}
		outcomes = append(outcomes, rating.DuelOutcome{
			UserID:         p.UserID,
			Username:       p.Username,
			OpponentRating: opponent.RatingAtStart,
			Actual:         actual,
		})
	}
	return outcomes
}
