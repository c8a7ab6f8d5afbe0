package matchmaking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/codeduelhq/duel-platform/internal/challenge"
	"github.com/codeduelhq/duel-platform/internal/duel"
	"github.com/codeduelhq/duel-platform/internal/metrics"
	"github.com/codeduelhq/duel-platform/internal/queue"
	"github.com/codeduelhq/duel-platform/internal/rating"
)

type queueStore interface {
	Upsert(ctx context.Context, entry queue.Entry) error
	Get(ctx context.Context, userID uuid.UUID) (*queue.Entry, error)
	Remove(ctx context.Context, userID uuid.UUID) (bool, error)
	Candidates(ctx context.Context, language string, now time.Time) ([]queue.Entry, error)
	ClaimPair(ctx context.Context, a, b uuid.UUID) (bool, error)
}

type duelService interface {
	Create(ctx context.Context, params duel.CreateParams) (*duel.Duel, error)
	HasActive(ctx context.Context, userID uuid.UUID) (bool, error)
	ActiveFor(ctx context.Context, userID uuid.UUID) (*duel.Duel, error)
}

type challengeSelector interface {
	Select(ctx context.Context, difficulty string) (*challenge.Challenge, error)
}

type ratingReader interface {
	Current(ctx context.Context, userID uuid.UUID, username string) (rating.Rating, error)
}

// Options configures the matchmaker.
type Options struct {
	QueueTTL  time.Duration
	Tolerance ToleranceSchedule
}

// Matchmaker runs the find-and-claim search that pairs queued players into
// duels, plus the queue-free bot fallback.
type Matchmaker struct {
	store      queueStore
	duels      duelService
	challenges challengeSelector
	ratings    ratingReader
	queueTTL   time.Duration
	tolerance  ToleranceSchedule
	metrics    *metrics.Registry
	logger     zerolog.Logger
}

// New creates a matchmaker.
func New(store queueStore, duels duelService, challenges challengeSelector, ratings ratingReader, opts Options, m *metrics.Registry, logger zerolog.Logger) *Matchmaker {
	queueTTL := opts.QueueTTL
	if queueTTL <= 0 {
		queueTTL = 120 * time.Second
	}
	tolerance := opts.Tolerance
	if tolerance.Base == 0 {
		tolerance = DefaultToleranceSchedule()
	}
	return &Matchmaker{
		store:      store,
		duels:      duels,
		challenges: challenges,
		ratings:    ratings,
		queueTTL:   queueTTL,
		tolerance:  tolerance,
		metrics:    m,
		logger:     logger.With().Str("component", "matchmaker").Logger(),
	}
}

// Enqueue upserts the caller's queue entry and attempts an immediate match.
// Re-queueing overwrites the previous preference and resets the TTL.
func (m *Matchmaker) Enqueue(ctx context.Context, userID uuid.UUID, username, language, difficulty string) (*Ticket, error) {
	inDuel, err := m.duels.HasActive(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("check active duel: %w", err)
	}
	if inDuel {
		return nil, ErrAlreadyInDuel
	}

	current, err := m.ratings.Current(ctx, userID, username)
	if err != nil {
		return nil, fmt.Errorf("load rating: %w", err)
	}

	now := time.Now()
	entry := queue.Entry{
		UserID:      userID,
		Username:    username,
		SkillRating: current.Rating,
		Language:    language,
		Difficulty:  difficulty,
		QueuedAt:    now,
		ExpiresAt:   now.Add(m.queueTTL),
	}
	if err := m.store.Upsert(ctx, entry); err != nil {
		return nil, fmt.Errorf("enqueue: %w", err)
	}

	m.logger.Info().
		Str("user_id", userID.String()).
		Str("language", language).
		Int("rating", entry.SkillRating).
		Msg("player enqueued")

	return m.search(ctx, entry, StatusQueued)
}

// Poll re-runs the search for a queued caller. A caller whose entry was
// claimed by the opponent's concurrent search learns about the duel here.
func (m *Matchmaker) Poll(ctx context.Context, userID uuid.UUID) (*Ticket, error) {
	entry, err := m.store.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("poll: %w", err)
	}
	if entry == nil {
		// Either never queued, or already matched by the opponent's poll.
		active, err := m.duels.ActiveFor(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("check active duel: %w", err)
		}
		if active != nil {
			return m.matchedTicket(active, userID), nil
		}
		return &Ticket{Status: StatusNotInQueue}, nil
	}

	now := time.Now()
	if entry.Expired(now) {
		if _, err := m.store.Remove(ctx, userID); err != nil {
			return nil, fmt.Errorf("remove expired entry: %w", err)
		}
		if m.metrics != nil {
			m.metrics.QueueExpired.Inc()
		}
		return &Ticket{Status: StatusExpired}, nil
	}

	return m.search(ctx, *entry, StatusWaiting)
}

// Leave removes the caller's entry, if any.
func (m *Matchmaker) Leave(ctx context.Context, userID uuid.UUID) error {
	if _, err := m.store.Remove(ctx, userID); err != nil {
		return fmt.Errorf("leave queue: %w", err)
	}
	return nil
}

// search looks for a compatible waiting opponent and, on success, claims both
// entries and creates the duel. waitingStatus is reported when no match is
// found.
func (m *Matchmaker) search(ctx context.Context, caller queue.Entry, waitingStatus string) (*Ticket, error) {
	now := time.Now()
	window := m.tolerance.For(now.Sub(caller.QueuedAt))

	candidates, err := m.store.Candidates(ctx, caller.Language, now)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}

	best, bestDelta := pickCandidate(caller, candidates, window)
	if best == nil {
		return m.waitingTicket(caller, now, waitingStatus), nil
	}

	claimed, err := m.store.ClaimPair(ctx, caller.UserID, best.UserID)
	if err != nil {
		return nil, fmt.Errorf("claim pair: %w", err)
	}
	if !claimed {
		// Lost the race to a concurrent search; keep waiting.
		return m.waitingTicket(caller, now, waitingStatus), nil
	}

	created, err := m.createMatchedDuel(ctx, caller, *best)
	if err != nil {
		// Roll the claim back so neither side is left orphaned.
		m.restore(ctx, caller, *best)
		return nil, err
	}

	if m.metrics != nil {
		m.metrics.MatchesCreated.WithLabelValues("human").Inc()
	}
	m.logger.Info().
		Str("duel_id", created.ID.String()).
		Str("caller", caller.UserID.String()).
		Str("opponent", best.UserID.String()).
		Int("rating_delta", bestDelta).
		Msg("players matched")

	return m.matchedTicket(created, caller.UserID), nil
}

// pickCandidate returns the in-window candidate with the smallest rating
// delta, tie-broken by earliest queue time. Candidates arrive oldest first,
// so the first best-delta hit wins ties.
func pickCandidate(caller queue.Entry, candidates []queue.Entry, window int) (*queue.Entry, int) {
	var best *queue.Entry
	bestDelta := 0
	for i := range candidates {
		candidate := candidates[i]
		if candidate.UserID == caller.UserID {
			continue
		}
		delta := candidate.SkillRating - caller.SkillRating
		if delta < 0 {
			delta = -delta
		}
		if delta > window {
			continue
		}
		if best == nil || delta < bestDelta {
			best = &candidates[i]
			bestDelta = delta
		}
	}
	return best, bestDelta
}

func (m *Matchmaker) createMatchedDuel(ctx context.Context, caller, opponent queue.Entry) (*duel.Duel, error) {
	// Caller's difficulty preference wins; fall back to the opponent's.
	difficulty := caller.Difficulty
	if difficulty == "" {
		difficulty = opponent.Difficulty
	}

	ch, err := m.challenges.Select(ctx, difficulty)
	if err != nil {
		return nil, err
	}

	// The longer waiter takes slot one.
	first, second := caller, opponent
	if opponent.QueuedAt.Before(caller.QueuedAt) {
		first, second = opponent, caller
	}

	return m.duels.Create(ctx, duel.CreateParams{
		Challenge: ch,
		Language:  caller.Language,
		Players: [2]duel.PlayerSlot{
			{UserID: first.UserID, Username: first.Username, RatingAtStart: first.SkillRating},
			{UserID: second.UserID, Username: second.Username, RatingAtStart: second.SkillRating},
		},
	})
}

// restore re-queues both entries after a failed duel creation.
func (m *Matchmaker) restore(ctx context.Context, entries ...queue.Entry) {
	for _, entry := range entries {
		if err := m.store.Upsert(ctx, entry); err != nil {
			m.logger.Error().Err(err).
				Str("user_id", entry.UserID.String()).
				Msg("failed to restore queue entry after aborted match")
		}
	}
}

func (m *Matchmaker) waitingTicket(entry queue.Entry, now time.Time, status string) *Ticket {
	return &Ticket{
		Status:           status,
		ExpiresInSeconds: int(entry.RemainingTTL(now).Seconds()),
	}
}

func (m *Matchmaker) matchedTicket(d *duel.Duel, userID uuid.UUID) *Ticket {
	slot := d.Slot(userID)
	opponent := d.Players[1]
	if slot == 1 {
		opponent = d.Players[0]
	}
	return &Ticket{
		Status: StatusMatched,
		DuelID: d.ID,
		Opponent: &Opponent{
			UserID:   opponent.UserID,
			Username: opponent.Username,
			Rating:   opponent.RatingAtStart,
			IsBot:    opponent.IsBot(),
		},
	}
}

// StartBotDuel creates an immediate duel against a fixed-strength bot. It
// never fails for lack of a human opponent and is the designated fallback
// when the search space is empty.
func (m *Matchmaker) StartBotDuel(ctx context.Context, userID uuid.UUID, username, language, difficulty string) (*duel.Duel, *Opponent, error) {
	if _, err := m.store.Remove(ctx, userID); err != nil {
		m.logger.Warn().Err(err).Str("user_id", userID.String()).Msg("dequeue before bot duel failed")
	}

	inDuel, err := m.duels.HasActive(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("check active duel: %w", err)
	}
	if inDuel {
		return nil, nil, ErrAlreadyInDuel
	}

	botDifficulty := difficulty
	if _, ok := botRatings[botDifficulty]; !ok {
		botDifficulty = defaultBotDifficulty
	}
	botRating := botRatings[botDifficulty]

	current, err := m.ratings.Current(ctx, userID, username)
	if err != nil {
		return nil, nil, fmt.Errorf("load rating: %w", err)
	}

	ch, err := m.challenges.Select(ctx, difficulty)
	if err != nil {
		return nil, nil, err
	}

	// The bot plays to a fixed par score so the duel has a real target.
	botScore := botParScores[botDifficulty]
	botPassed := botScore * len(ch.Cases) / 100

	created, err := m.duels.Create(ctx, duel.CreateParams{
		Challenge:     ch,
		Language:      language,
		IsBotOpponent: true,
		Players: [2]duel.PlayerSlot{
			{UserID: userID, Username: username, RatingAtStart: current.Rating},
			{
				UserID:        uuid.Nil,
				Username:      BotUsername,
				RatingAtStart: botRating,
				Submitted:     true,
				Score:         botScore,
				TestsPassed:   botPassed,
				TestsTotal:    len(ch.Cases),
			},
		},
	})
	if err != nil {
		return nil, nil, err
	}

	if m.metrics != nil {
		m.metrics.MatchesCreated.WithLabelValues("bot").Inc()
	}
	m.logger.Info().
		Str("duel_id", created.ID.String()).
		Str("user_id", userID.String()).
		Str("bot_difficulty", botDifficulty).
		Msg("bot duel created")

	return created, &Opponent{Username: BotUsername, Rating: botRating, IsBot: true}, nil
}
