package challenge

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStore struct {
	byID    map[uuid.UUID]*Challenge
	random  *Challenge
	queries int
}

func (s *stubStore) PickRandom(_ context.Context, _ string) (*Challenge, error) {
	s.queries++
	return s.random, nil
}

func (s *stubStore) GetByID(_ context.Context, id uuid.UUID) (*Challenge, error) {
	s.queries++
	return s.byID[id], nil
}

type memChallengeCache struct {
	store map[uuid.UUID]Challenge
}

func newMemChallengeCache() *memChallengeCache {
	return &memChallengeCache{store: map[uuid.UUID]Challenge{}}
}

func (c *memChallengeCache) Get(_ context.Context, id uuid.UUID) (*Challenge, error) {
	if ch, ok := c.store[id]; ok {
		return &ch, nil
	}
	return nil, nil
}

func (c *memChallengeCache) Set(_ context.Context, ch Challenge) error {
	c.store[ch.ID] = ch
	return nil
}

func sample() *Challenge {
	return &Challenge{
		ID:         uuid.New(),
		Title:      "FizzBuzz",
		Difficulty: DifficultyEasy,
		Cases:      []TestCase{{Input: "3", Expected: "Fizz"}},
	}
}

func TestSelectCachesResult(t *testing.T) {
	ch := sample()
	store := &stubStore{random: ch}
	cache := newMemChallengeCache()
	svc := NewService(store, cache, zerolog.Nop())

	got, err := svc.Select(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, ch.ID, got.ID)
	assert.Contains(t, cache.store, ch.ID)
}

func TestSelectEmptyPool(t *testing.T) {
	svc := NewService(&stubStore{}, nil, zerolog.Nop())

	_, err := svc.Select(context.Background(), DifficultyHard)
	assert.ErrorIs(t, err, ErrNoChallenge)
}

func TestSelectRejectsUnknownDifficulty(t *testing.T) {
	svc := NewService(&stubStore{random: sample()}, nil, zerolog.Nop())

	_, err := svc.Select(context.Background(), "impossible")
	assert.Error(t, err)
}

func TestGetPrefersCache(t *testing.T) {
	ch := sample()
	store := &stubStore{byID: map[uuid.UUID]*Challenge{ch.ID: ch}}
	cache := newMemChallengeCache()
	svc := NewService(store, cache, zerolog.Nop())

	got, err := svc.Get(context.Background(), ch.ID)
	require.NoError(t, err)
	assert.Equal(t, ch.Title, got.Title)
	assert.Equal(t, 1, store.queries)

	_, err = svc.Get(context.Background(), ch.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, store.queries, "second read served from cache")
}

func TestGetUnknownChallenge(t *testing.T) {
	svc := NewService(&stubStore{byID: map[uuid.UUID]*Challenge{}}, nil, zerolog.Nop())

	_, err := svc.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNoChallenge)
}
