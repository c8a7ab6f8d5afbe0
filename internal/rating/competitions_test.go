package rating

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memCompetitionRepo struct {
	mu           sync.Mutex
	competitions map[uuid.UUID]*Competition
	standings    map[uuid.UUID][]Standing
}

func newMemCompetitionRepo() *memCompetitionRepo {
	return &memCompetitionRepo{
		competitions: map[uuid.UUID]*Competition{},
		standings:    map[uuid.UUID][]Standing{},
	}
}

func (r *memCompetitionRepo) Get(_ context.Context, id uuid.UUID) (*Competition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.competitions[id]; ok {
		clone := *c
		return &clone, nil
	}
	return nil, nil
}

func (r *memCompetitionRepo) ClaimFinalize(_ context.Context, id uuid.UUID, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.competitions[id]
	if c.RatingsFinalizedAt != nil {
		return false, nil
	}
	c.RatingsFinalizedAt = &at
	return true, nil
}

func (r *memCompetitionRepo) ListStandings(_ context.Context, id uuid.UUID) ([]Standing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.standings[id], nil
}

func newTestFinalizer() (*Finalizer, *memCompetitionRepo, *memRatingStore) {
	repo := newMemCompetitionRepo()
	store := newMemRatingStore()
	svc, _ := newTestService(store)
	return NewFinalizer(repo, svc, zerolog.Nop()), repo, store
}

func seedCompetition(repo *memCompetitionRepo, creator uuid.UUID, status string) uuid.UUID {
	id := uuid.New()
	repo.competitions[id] = &Competition{ID: id, Status: status, CreatedBy: creator}
	repo.standings[id] = []Standing{
		{UserID: uuid.New(), Username: "alice", FinalRank: 1, Score: 300},
		{UserID: uuid.New(), Username: "bob", FinalRank: 2, Score: 200},
	}
	return id
}

func TestFinalizeCompetition(t *testing.T) {
	finalizer, repo, store := newTestFinalizer()
	creator := uuid.New()
	id := seedCompetition(repo, creator, CompetitionCompleted)

	result, err := finalizer.FinalizeCompetition(context.Background(), id, creator, false)
	require.NoError(t, err)

	assert.Equal(t, 2, result.ParticipantsUpdated)
	assert.Len(t, store.ratings, 2)
	assert.NotNil(t, repo.competitions[id].RatingsFinalizedAt)
}

func TestFinalizeCompetitionOnlyOnce(t *testing.T) {
	finalizer, repo, store := newTestFinalizer()
	creator := uuid.New()
	id := seedCompetition(repo, creator, CompetitionCompleted)

	_, err := finalizer.FinalizeCompetition(context.Background(), id, creator, false)
	require.NoError(t, err)

	before := store.ratings
	_, err = finalizer.FinalizeCompetition(context.Background(), id, creator, false)
	assert.ErrorIs(t, err, ErrRatingsFinalized)
	assert.Equal(t, before, store.ratings)
}

func TestFinalizeCompetitionNotFound(t *testing.T) {
	finalizer, _, _ := newTestFinalizer()

	_, err := finalizer.FinalizeCompetition(context.Background(), uuid.New(), uuid.New(), false)
	assert.ErrorIs(t, err, ErrCompetitionNotFound)
}

func TestFinalizeCompetitionNotCompleted(t *testing.T) {
	finalizer, repo, _ := newTestFinalizer()
	creator := uuid.New()
	id := seedCompetition(repo, creator, "running")

	_, err := finalizer.FinalizeCompetition(context.Background(), id, creator, false)
	assert.ErrorIs(t, err, ErrCompetitionNotCompleted)
}

func TestFinalizeCompetitionRequiresOwner(t *testing.T) {
	finalizer, repo, _ := newTestFinalizer()
	id := seedCompetition(repo, uuid.New(), CompetitionCompleted)

	_, err := finalizer.FinalizeCompetition(context.Background(), id, uuid.New(), false)
	assert.ErrorIs(t, err, ErrNotCompetitionOwner)

	// A privileged caller may finalize someone else's competition.
	_, err = finalizer.FinalizeCompetition(context.Background(), id, uuid.New(), true)
	assert.NoError(t, err)
}
