package rating

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRatingStore struct {
	mu      sync.Mutex
	ratings map[uuid.UUID]Rating
}

func newMemRatingStore() *memRatingStore {
	return &memRatingStore{ratings: map[uuid.UUID]Rating{}}
}

func (s *memRatingStore) Get(_ context.Context, userID uuid.UUID) (*Rating, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.ratings[userID]; ok {
		return &r, nil
	}
	return nil, nil
}

func (s *memRatingStore) Upsert(_ context.Context, r Rating) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ratings[r.UserID] = r
	return nil
}

type countingLocker struct {
	mu    sync.Mutex
	locks int
}

func (l *countingLocker) Lock(_ context.Context, _ uuid.UUID) (func() error, error) {
	l.mu.Lock()
	l.locks++
	l.mu.Unlock()
	return func() error { return nil }, nil
}

func newTestService(store *memRatingStore) (*Service, *countingLocker) {
	locker := &countingLocker{}
	return NewService(store, locker, NewEngine(DefaultConfig()), nil, zerolog.Nop()), locker
}

func TestApplyDuelWin(t *testing.T) {
	store := newMemRatingStore()
	svc, locker := newTestService(store)

	winner := uuid.New()
	svc.ApplyDuel(context.Background(), []DuelOutcome{
		{UserID: winner, Username: "alice", OpponentRating: 1000, Actual: 1},
	})

	r := store.ratings[winner]
	// Provisional K, even matchup: 1000 + 20.
	assert.Equal(t, 1020, r.Rating)
	assert.Equal(t, 1020, r.PeakRating)
	assert.Equal(t, 1, r.DuelsCompleted)
	assert.Equal(t, 1, r.CurrentStreak)
	assert.Equal(t, 1, r.BestStreak)
	assert.False(t, r.LastActiveAt.IsZero())
	assert.Equal(t, 1, locker.locks)
}

func TestApplyDuelLossResetsStreak(t *testing.T) {
	store := newMemRatingStore()
	svc, _ := newTestService(store)

	user := uuid.New()
	store.ratings[user] = Rating{
		UserID: user, Username: "alice", Rating: 1500, Tier: TierFor(1500),
		PeakRating: 1500, DuelsCompleted: 20, CurrentStreak: 5, BestStreak: 5,
	}

	svc.ApplyDuel(context.Background(), []DuelOutcome{
		{UserID: user, Username: "alice", OpponentRating: 1500, Actual: 0},
	})

	r := store.ratings[user]
	assert.Equal(t, 1488, r.Rating)
	assert.Equal(t, 1500, r.PeakRating, "peak survives a loss")
	assert.Equal(t, 0, r.CurrentStreak)
	assert.Equal(t, 5, r.BestStreak)
}

func TestApplyDuelDrawKeepsStreak(t *testing.T) {
	store := newMemRatingStore()
	svc, _ := newTestService(store)

	user := uuid.New()
	store.ratings[user] = Rating{
		UserID: user, Username: "alice", Rating: 1200, Tier: TierFor(1200),
		PeakRating: 1200, DuelsCompleted: 20, CurrentStreak: 3, BestStreak: 4,
	}

	svc.ApplyDuel(context.Background(), []DuelOutcome{
		{UserID: user, Username: "alice", OpponentRating: 1200, Actual: 0.5},
	})

	r := store.ratings[user]
	assert.Equal(t, 3, r.CurrentStreak)
	assert.Equal(t, 21, r.DuelsCompleted)
}

func TestApplyDuelUpdatesTier(t *testing.T) {
	store := newMemRatingStore()
	svc, _ := newTestService(store)

	user := uuid.New()
	store.ratings[user] = Rating{
		UserID: user, Username: "alice", Rating: 1095, Tier: "Bronze",
		PeakRating: 1095, DuelsCompleted: 30,
	}

	svc.ApplyDuel(context.Background(), []DuelOutcome{
		{UserID: user, Username: "alice", OpponentRating: 1095, Actual: 1},
	})

	assert.Equal(t, "Silver", store.ratings[user].Tier)
}

func TestApplyStandings(t *testing.T) {
	store := newMemRatingStore()
	svc, _ := newTestService(store)

	first, second, last := uuid.New(), uuid.New(), uuid.New()
	standings := []Standing{
		{UserID: first, Username: "alice", FinalRank: 1, Score: 300},
		{UserID: second, Username: "bob", FinalRank: 2, Score: 200},
		{UserID: last, Username: "carol", FinalRank: 3, Score: 100},
	}

	result := svc.ApplyStandings(context.Background(), standings)
	assert.Equal(t, 3, result.ParticipantsUpdated)
	assert.Equal(t, 3, result.TotalParticipants)

	// Rank 1 of 3: +32 base +40 win bonus on the default 1000.
	assert.Equal(t, 1072, store.ratings[first].Rating)
	assert.Equal(t, 1, store.ratings[first].WinCount)
	assert.Equal(t, 1, store.ratings[first].CompetitionsCompleted)

	// Median rank: no base delta, top-3 bonus only.
	assert.Equal(t, 1025, store.ratings[second].Rating)
	assert.Equal(t, 1, store.ratings[second].Top3Count)
	assert.Equal(t, 0, store.ratings[second].WinCount)

	// Last place: -32 base, still a top-3 bonus in a field of three.
	assert.Equal(t, 993, store.ratings[last].Rating)
	assert.Equal(t, 1, store.ratings[last].Top3Count)
}

func TestCurrentFallsBackToDefault(t *testing.T) {
	store := newMemRatingStore()
	svc, _ := newTestService(store)

	user := uuid.New()
	r, err := svc.Current(context.Background(), user, "alice")
	require.NoError(t, err)

	assert.Equal(t, DefaultRating, r.Rating)
	assert.Equal(t, "Bronze", r.Tier)
	assert.Equal(t, "alice", r.Username)
	// Reading never creates a row.
	assert.Empty(t, store.ratings)
}
