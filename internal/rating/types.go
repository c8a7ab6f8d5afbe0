package rating

import (
	"time"

	"github.com/google/uuid"
)

// DefaultRating is the virtual row every unrated player starts from.
const DefaultRating = 1000

// Rating is one user's skill record. Rows are created lazily: a user who has
// never finished a duel reads as the default below.
type Rating struct {
	UserID                uuid.UUID
	Username              string
	Rating                int
	Tier                  string
	PeakRating            int
	DuelsCompleted        int
	CompetitionsCompleted int
	WinCount              int
	Top3Count             int
	Top10Count            int
	CurrentStreak         int
	BestStreak            int
	LastActiveAt          time.Time
}

// NewDefault returns the virtual default row for a user.
func NewDefault(userID uuid.UUID, username string) Rating {
	return Rating{
		UserID:     userID,
		Username:   username,
		Rating:     DefaultRating,
		Tier:       TierFor(DefaultRating),
		PeakRating: DefaultRating,
	}
}

// Competition is the minimal record the batch finalize path needs.
type Competition struct {
	ID                 uuid.UUID
	Status             string
	CreatedBy          uuid.UUID
	RatingsFinalizedAt *time.Time
}

// CompetitionCompleted is the only status whose standings may be finalized.
const CompetitionCompleted = "completed"

// Standing is one participant's final placement in a competition.
type Standing struct {
	UserID    uuid.UUID
	Username  string
	FinalRank int
	Score     int
}

// DuelOutcome describes one participant's result in a finalized duel.
type DuelOutcome struct {
	UserID         uuid.UUID
	Username       string
	OpponentRating int
	// Actual score: 1 for a win, 0.5 for a draw, 0 for a loss.
	Actual float64
}
