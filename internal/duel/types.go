package duel

import (
	"time"

	"github.com/google/uuid"
)

// Duel lifecycle states. A duel is never paused or cancelled once created.
const (
	StatusActive    = "active"
	StatusCompleted = "completed"
)

// PlayerSlot is one side of a duel. A bot opponent occupies a slot with
// UserID == uuid.Nil.
type PlayerSlot struct {
	UserID        uuid.UUID
	Username      string
	RatingAtStart int
	Submitted     bool
	Score         int
	TestsPassed   int
	TestsTotal    int
}

// IsBot reports whether the slot is held by a bot opponent.
func (p PlayerSlot) IsBot() bool {
	return p.UserID == uuid.Nil
}

// Duel is a timed 1v1 head-to-head coding match.
type Duel struct {
	ID               uuid.UUID
	ChallengeID      uuid.UUID
	Language         string
	Status           string
	Players          [2]PlayerSlot
	WinnerID         *uuid.UUID // nil means draw (or still active)
	IsBotOpponent    bool
	TimeLimitSeconds int
	StartedAt        time.Time
	EndedAt          *time.Time
}

// Slot returns the player's slot index, or -1 if they are not a participant.
func (d *Duel) Slot(userID uuid.UUID) int {
	for i, p := range d.Players {
		if !p.IsBot() && p.UserID == userID {
			return i
		}
	}
	return -1
}

// Deadline is the instant the duel's time limit elapses.
func (d *Duel) Deadline() time.Time {
	return d.StartedAt.Add(time.Duration(d.TimeLimitSeconds) * time.Second)
}

// Expired reports whether the time limit has passed at the given instant.
func (d *Duel) Expired(now time.Time) bool {
	return now.After(d.Deadline())
}

// BothSubmitted reports whether every human slot has a final submission.
// Bot slots count as submitted; their score is fixed at creation.
func (d *Duel) BothSubmitted() bool {
	for _, p := range d.Players {
		if !p.IsBot() && !p.Submitted {
			return false
		}
	}
	return true
}

// Outcome classifies a completed duel as a "win" or a "draw", independent of
// whether the winner is a persisted user. A bot win stores winner_id NULL,
// so the outcome cannot be inferred from WinnerID alone.
func (d *Duel) Outcome() string {
	if d.Status != StatusCompleted {
		return ""
	}
	if d.Players[0].Score == d.Players[1].Score {
		return "draw"
	}
	return "win"
}

// WinningSlot returns the index of the strictly higher scorer, or -1 for a
// draw or an active duel.
func (d *Duel) WinningSlot() int {
	if d.Status != StatusCompleted {
		return -1
	}
	switch {
	case d.Players[0].Score > d.Players[1].Score:
		return 0
	case d.Players[1].Score > d.Players[0].Score:
		return 1
	default:
		return -1
	}
}

// Winner resolves the strictly higher scorer, or nil for a draw.
// Players who never submitted hold their zero score.
func (d *Duel) Winner() *uuid.UUID {
	p1, p2 := d.Players[0], d.Players[1]
	switch {
	case p1.Score > p2.Score:
		id := p1.UserID
		return &id
	case p2.Score > p1.Score:
		if p2.IsBot() {
			return nil
		}
		id := p2.UserID
		return &id
	default:
		return nil
	}
}
