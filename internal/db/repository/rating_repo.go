package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/codeduelhq/duel-platform/internal/rating"
)

// RatingRepository persists per-user skill records.
type RatingRepository struct {
	db Querier
}

// NewRatingRepository constructs a new rating repository.
func NewRatingRepository(db Querier) *RatingRepository {
	return &RatingRepository{db: db}
}

// Get loads a user's rating row, or nil when the user has never been rated.
func (r *RatingRepository) Get(ctx context.Context, userID uuid.UUID) (*rating.Rating, error) {
	const q = `
		SELECT user_id, username, rating, tier, peak_rating, duels_completed,
			competitions_completed, win_count, top3_count, top10_count,
			current_streak, best_streak, last_active_at
		FROM ratings WHERE user_id = $1`

	var rec rating.Rating
	err := r.db.QueryRow(ctx, q, userID).Scan(
		&rec.UserID, &rec.Username, &rec.Rating, &rec.Tier, &rec.PeakRating,
		&rec.DuelsCompleted, &rec.CompetitionsCompleted, &rec.WinCount,
		&rec.Top3Count, &rec.Top10Count, &rec.CurrentStreak, &rec.BestStreak,
		&rec.LastActiveAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get rating: %w", err)
	}
	return &rec, nil
}

// Upsert writes the full rating record. Callers hold the per-user lock, so
// last write wins is safe here.
func (r *RatingRepository) Upsert(ctx context.Context, rec rating.Rating) error {
	const q = `
		INSERT INTO ratings (
			user_id, username, rating, tier, peak_rating, duels_completed,
			competitions_completed, win_count, top3_count, top10_count,
			current_streak, best_streak, last_active_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		ON CONFLICT (user_id) DO UPDATE SET
			username = EXCLUDED.username,
			rating = EXCLUDED.rating,
			tier = EXCLUDED.tier,
			peak_rating = EXCLUDED.peak_rating,
			duels_completed = EXCLUDED.duels_completed,
			competitions_completed = EXCLUDED.competitions_completed,
			win_count = EXCLUDED.win_count,
			top3_count = EXCLUDED.top3_count,
			top10_count = EXCLUDED.top10_count,
			current_streak = EXCLUDED.current_streak,
			best_streak = EXCLUDED.best_streak,
			last_active_at = EXCLUDED.last_active_at`

	_, err := r.db.Exec(ctx, q,
		rec.UserID, rec.Username, rec.Rating, rec.Tier, rec.PeakRating,
		rec.DuelsCompleted, rec.CompetitionsCompleted, rec.WinCount,
		rec.Top3Count, rec.Top10Count, rec.CurrentStreak, rec.BestStreak,
		rec.LastActiveAt)
	if err != nil {
		return fmt.Errorf("upsert rating: %w", err)
	}
	return nil
}
