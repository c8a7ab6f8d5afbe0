package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Entry is one user's outstanding request to be matched into a duel.
// At most one live entry exists per user; re-queueing overwrites it.
type Entry struct {
	UserID      uuid.UUID
	Username    string
	SkillRating int
	Language    string
	Difficulty  string // optional preference, empty means any
	QueuedAt    time.Time
	ExpiresAt   time.Time
}

// Expired reports whether the entry's TTL has elapsed at the given instant.
func (e Entry) Expired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

// RemainingTTL returns how long the entry stays live, floored at zero.
func (e Entry) RemainingTTL(now time.Time) time.Duration {
	if remaining := e.ExpiresAt.Sub(now); remaining > 0 {
		return remaining
	}
	return 0
}

// Store persists queue entries in Postgres. All mutations are conditional so
// concurrently polling clients can never claim the same opponent twice.
type Store struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewStore creates a queue store backed by the shared connection pool.
func NewStore(pool *pgxpool.Pool, logger zerolog.Logger) *Store {
	return &Store{
		pool:   pool,
		logger: logger.With().Str("component", "queue_store").Logger(),
	}
}

// Upsert atomically replaces the user's entry, resetting queue and expiry times.
func (s *Store) Upsert(ctx context.Context, entry Entry) error {
	const q = `
		INSERT INTO queue_entries (user_id, username, skill_rating, language, difficulty, queued_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO UPDATE SET
			username = EXCLUDED.username,
			skill_rating = EXCLUDED.skill_rating,
			language = EXCLUDED.language,
			difficulty = EXCLUDED.difficulty,
			queued_at = EXCLUDED.queued_at,
			expires_at = EXCLUDED.expires_at`
	_, err := s.pool.Exec(ctx, q,
		entry.UserID, entry.Username, entry.SkillRating, entry.Language,
		entry.Difficulty, entry.QueuedAt, entry.ExpiresAt)
	if err != nil {
		return fmt.Errorf("upsert queue entry: %w", err)
	}
	return nil
}

// Get returns the user's live entry, or nil if they are not queued.
func (s *Store) Get(ctx context.Context, userID uuid.UUID) (*Entry, error) {
	const q = `
		SELECT user_id, username, skill_rating, language, difficulty, queued_at, expires_at
		FROM queue_entries WHERE user_id = $1`
	var entry Entry
	err := s.pool.QueryRow(ctx, q, userID).Scan(
		&entry.UserID, &entry.Username, &entry.SkillRating, &entry.Language,
		&entry.Difficulty, &entry.QueuedAt, &entry.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get queue entry: %w", err)
	}
	return &entry, nil
}

// Remove deletes the user's entry if still present and reports whether it did.
func (s *Store) Remove(ctx context.Context, userID uuid.UUID) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM queue_entries WHERE user_id = $1`, userID)
	if err != nil {
		return false, fmt.Errorf("remove queue entry: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Candidates lists live entries for a language, oldest first.
func (s *Store) Candidates(ctx context.Context, language string, now time.Time) ([]Entry, error) {
	const q = `
		SELECT user_id, username, skill_rating, language, difficulty, queued_at, expires_at
		FROM queue_entries
		WHERE language = $1 AND expires_at > $2
		ORDER BY queued_at ASC`
	rows, err := s.pool.Query(ctx, q, language, now)
	if err != nil {
		return nil, fmt.Errorf("list queue candidates: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		if err := rows.Scan(
			&entry.UserID, &entry.Username, &entry.SkillRating, &entry.Language,
			&entry.Difficulty, &entry.QueuedAt, &entry.ExpiresAt); err != nil {
			return nil, fmt.Errorf("scan queue candidate: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// ClaimPair removes both entries in one transaction. If either was already
// claimed by a concurrent search the transaction rolls back and ClaimPair
// reports false; the caller falls back to "still queued".
func (s *Store) ClaimPair(ctx context.Context, a, b uuid.UUID) (bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin claim: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `DELETE FROM queue_entries WHERE user_id = $1 OR user_id = $2`, a, b)
	if err != nil {
		return false, fmt.Errorf("claim pair: %w", err)
	}
	if tag.RowsAffected() != 2 {
		return false, nil
	}
	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit claim: %w", err)
	}
	return true, nil
}

// SweepExpired removes every entry whose TTL has elapsed and returns how many
// live entries remain. Safe to run opportunistically on any poll.
func (s *Store) SweepExpired(ctx context.Context, now time.Time) (removed int64, remaining int64, err error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM queue_entries WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, 0, fmt.Errorf("sweep expired entries: %w", err)
	}
	removed = tag.RowsAffected()

	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM queue_entries`).Scan(&remaining); err != nil {
		return removed, 0, fmt.Errorf("count queue entries: %w", err)
	}
	return removed, remaining, nil
}
