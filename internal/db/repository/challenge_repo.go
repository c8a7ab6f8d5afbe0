package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/codeduelhq/duel-platform/internal/challenge"
)

// ChallengeRepository reads immutable challenge reference data.
type ChallengeRepository struct {
	db Querier
}

// NewChallengeRepository constructs a new challenge repository.
func NewChallengeRepository(db Querier) *ChallengeRepository {
	return &ChallengeRepository{db: db}
}

// PickRandom selects a random challenge, optionally filtered by difficulty.
// Returns nil when the pool is empty. The challenge corpus is small enough
// that ORDER BY random() is fine.
func (r *ChallengeRepository) PickRandom(ctx context.Context, difficulty string) (*challenge.Challenge, error) {
	const q = `
		SELECT id, title, difficulty, time_limit_seconds, test_cases
		FROM challenges
		WHERE $1 = '' OR difficulty = $1
		ORDER BY random()
		LIMIT 1`
	return scanChallenge(r.db.QueryRow(ctx, q, difficulty))
}

// GetByID loads one challenge, or nil when absent.
func (r *ChallengeRepository) GetByID(ctx context.Context, id uuid.UUID) (*challenge.Challenge, error) {
	const q = `
		SELECT id, title, difficulty, time_limit_seconds, test_cases
		FROM challenges WHERE id = $1`
	return scanChallenge(r.db.QueryRow(ctx, q, id))
}

func scanChallenge(row pgx.Row) (*challenge.Challenge, error) {
	var ch challenge.Challenge
	var rawCases []byte
	err := row.Scan(&ch.ID, &ch.Title, &ch.Difficulty, &ch.TimeLimitSeconds, &rawCases)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan challenge: %w", err)
	}
	if err := json.Unmarshal(rawCases, &ch.Cases); err != nil {
		return nil, fmt.Errorf("decode test cases: %w", err)
	}
	return &ch, nil
}
