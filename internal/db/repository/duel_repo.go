package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/codeduelhq/duel-platform/internal/duel"
)

// DuelRepository persists duel records with their two player slots.
type DuelRepository struct {
	db Querier
}

// NewDuelRepository constructs a new duel repository.
func NewDuelRepository(db Querier) *DuelRepository {
	return &DuelRepository{db: db}
}

const duelColumns = `
	id, challenge_id, language, status, is_bot_opponent, time_limit_seconds,
	p1_user_id, p1_username, p1_rating_start, p1_submitted, p1_score, p1_tests_passed, p1_tests_total,
	p2_user_id, p2_username, p2_rating_start, p2_submitted, p2_score, p2_tests_passed, p2_tests_total,
	winner_id, started_at, ended_at`

// Create inserts a new active duel row.
func (r *DuelRepository) Create(ctx context.Context, d *duel.Duel) error {
	const q = `
		INSERT INTO duels (
			id, challenge_id, language, status, is_bot_opponent, time_limit_seconds,
			p1_user_id, p1_username, p1_rating_start, p1_submitted, p1_score, p1_tests_passed, p1_tests_total,
			p2_user_id, p2_username, p2_rating_start, p2_submitted, p2_score, p2_tests_passed, p2_tests_total,
			started_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)`

	p1, p2 := d.Players[0], d.Players[1]
	_, err := r.db.Exec(ctx, q,
		d.ID, d.ChallengeID, d.Language, d.Status, d.IsBotOpponent, d.TimeLimitSeconds,
		p1.UserID, p1.Username, p1.RatingAtStart, p1.Submitted, p1.Score, p1.TestsPassed, p1.TestsTotal,
		nullableUserID(p2.UserID), p2.Username, p2.RatingAtStart, p2.Submitted, p2.Score, p2.TestsPassed, p2.TestsTotal,
		d.StartedAt)
	if err != nil {
		return fmt.Errorf("insert duel: %w", err)
	}
	return nil
}

// Get loads a duel by id, or nil when no row exists.
func (r *DuelRepository) Get(ctx context.Context, id uuid.UUID) (*duel.Duel, error) {
	row := r.db.QueryRow(ctx, `SELECT `+duelColumns+` FROM duels WHERE id = $1`, id)
	return scanDuel(row)
}

// GetActiveFor returns the user's active duel, or nil. At most one exists.
func (r *DuelRepository) GetActiveFor(ctx context.Context, userID uuid.UUID) (*duel.Duel, error) {
	const q = `SELECT ` + duelColumns + ` FROM duels
		WHERE status = 'active' AND (p1_user_id = $1 OR p2_user_id = $1)
		LIMIT 1`
	row := r.db.QueryRow(ctx, q, userID)
	return scanDuel(row)
}

// HasActive reports whether the user holds an active duel.
func (r *DuelRepository) HasActive(ctx context.Context, userID uuid.UUID) (bool, error) {
	const q = `SELECT EXISTS (
		SELECT 1 FROM duels WHERE status = 'active' AND (p1_user_id = $1 OR p2_user_id = $1))`
	var exists bool
	if err := r.db.QueryRow(ctx, q, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check active duel: %w", err)
	}
	return exists, nil
}

const (
	updateP1Result = `UPDATE duels SET
		p1_score = $2, p1_tests_passed = $3, p1_tests_total = $4, p1_submitted = $5
		WHERE id = $1 AND status = 'active'`
	updateP2Result = `UPDATE duels SET
		p2_score = $2, p2_tests_passed = $3, p2_tests_total = $4, p2_submitted = $5
		WHERE id = $1 AND status = 'active'`
)

// UpdatePlayerResult stores a judged attempt for one slot. Last write wins
// for non-final attempts. The status guard keeps a submission judged while
// the opponent finalizes from rewriting a completed duel's scores; the
// caller sees false and treats it as a conflict.
func (r *DuelRepository) UpdatePlayerResult(ctx context.Context, duelID uuid.UUID, slot int, res duel.PlayerResult) (bool, error) {
	q := updateP1Result
	if slot == 1 {
		q = updateP2Result
	}
	tag, err := r.db.Exec(ctx, q, duelID, res.Score, res.TestsPassed, res.TestsTotal, res.Submitted)
	if err != nil {
		return false, fmt.Errorf("update player result: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Complete transitions the duel from active to completed. The conditional
// WHERE makes finalization claim-once: exactly one caller observes true.
func (r *DuelRepository) Complete(ctx context.Context, duelID uuid.UUID, winnerID *uuid.UUID, endedAt time.Time) (bool, error) {
	const q = `UPDATE duels SET status = 'completed', winner_id = $2, ended_at = $3
		WHERE id = $1 AND status = 'active'`
	tag, err := r.db.Exec(ctx, q, duelID, winnerID, endedAt)
	if err != nil {
		return false, fmt.Errorf("complete duel: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func scanDuel(row pgx.Row) (*duel.Duel, error) {
	var d duel.Duel
	var p2UserID, winnerID pgtype.UUID
	var endedAt pgtype.Timestamptz

	err := row.Scan(
		&d.ID, &d.ChallengeID, &d.Language, &d.Status, &d.IsBotOpponent, &d.TimeLimitSeconds,
		&d.Players[0].UserID, &d.Players[0].Username, &d.Players[0].RatingAtStart,
		&d.Players[0].Submitted, &d.Players[0].Score, &d.Players[0].TestsPassed, &d.Players[0].TestsTotal,
		&p2UserID, &d.Players[1].Username, &d.Players[1].RatingAtStart,
		&d.Players[1].Submitted, &d.Players[1].Score, &d.Players[1].TestsPassed, &d.Players[1].TestsTotal,
		&winnerID, &d.StartedAt, &endedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan duel: %w", err)
	}

	if p2UserID.Valid {
		d.Players[1].UserID = uuid.UUID(p2UserID.Bytes)
	}
	if winnerID.Valid {
		id := uuid.UUID(winnerID.Bytes)
		d.WinnerID = &id
	}
	if endedAt.Valid {
		t := endedAt.Time
		d.EndedAt = &t
	}
	return &d, nil
}

// nullableUserID maps the bot sentinel (uuid.Nil) to SQL NULL.
func nullableUserID(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}
