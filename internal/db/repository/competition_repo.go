package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/codeduelhq/duel-platform/internal/rating"
)

// CompetitionRepository reads competition records and their final standings.
type CompetitionRepository struct {
	db Querier
}

// NewCompetitionRepository constructs a new competition repository.
func NewCompetitionRepository(db Querier) *CompetitionRepository {
	return &CompetitionRepository{db: db}
}

// Get loads one competition, or nil when absent.
func (r *CompetitionRepository) Get(ctx context.Context, id uuid.UUID) (*rating.Competition, error) {
	const q = `SELECT id, status, created_by, ratings_finalized_at FROM competitions WHERE id = $1`

	var c rating.Competition
	var finalizedAt pgtype.Timestamptz
	err := r.db.QueryRow(ctx, q, id).Scan(&c.ID, &c.Status, &c.CreatedBy, &finalizedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get competition: %w", err)
	}
	if finalizedAt.Valid {
		t := finalizedAt.Time
		c.RatingsFinalizedAt = &t
	}
	return &c, nil
}

// ClaimFinalize stamps ratings_finalized_at if not already set and reports
// whether this call won the stamp. Exactly one finalize request per
// competition ever applies rating updates.
func (r *CompetitionRepository) ClaimFinalize(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	const q = `UPDATE competitions SET ratings_finalized_at = $2
		WHERE id = $1 AND ratings_finalized_at IS NULL`
	tag, err := r.db.Exec(ctx, q, id, at)
	if err != nil {
		return false, fmt.Errorf("claim competition finalize: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ListStandings returns the competition's participants ordered by final rank.
func (r *CompetitionRepository) ListStandings(ctx context.Context, competitionID uuid.UUID) ([]rating.Standing, error) {
	const q = `
		SELECT user_id, username, final_rank, score
		FROM competition_participants
		WHERE competition_id = $1
		ORDER BY final_rank ASC`
	rows, err := r.db.Query(ctx, q, competitionID)
	if err != nil {
		return nil, fmt.Errorf("list standings: %w", err)
	}
	defer rows.Close()

	var standings []rating.Standing
	for rows.Next() {
		var s rating.Standing
		if err := rows.Scan(&s.UserID, &s.Username, &s.FinalRank, &s.Score); err != nil {
			return nil, fmt.Errorf("scan standing: %w", err)
		}
		standings = append(standings, s)
	}
	return standings, rows.Err()
}
