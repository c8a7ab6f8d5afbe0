package duel

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func completedDuel(p1Score, p2Score int, p2Bot bool) *Duel {
	endedAt := time.Now()
	d := &Duel{
		ID:               uuid.New(),
		ChallengeID:      uuid.New(),
		Language:         "go",
		Status:           StatusCompleted,
		IsBotOpponent:    p2Bot,
		TimeLimitSeconds: 900,
		StartedAt:        time.Now().Add(-10 * time.Minute),
		EndedAt:          &endedAt,
	}
	d.Players[0] = PlayerSlot{UserID: uuid.New(), Username: "alice", RatingAtStart: 1000, Submitted: true, Score: p1Score}
	p2ID := uuid.New()
	if p2Bot {
		p2ID = uuid.Nil
	}
	d.Players[1] = PlayerSlot{UserID: p2ID, Username: "ByteBot", RatingAtStart: 1600, Submitted: true, Score: p2Score}
	d.WinnerID = d.Winner()
	return d
}

func TestViewReportsBotWinOutcome(t *testing.T) {
	d := completedDuel(40, 90, true)

	view := toView(d)

	// winner_id is empty for a bot win, so the outcome must carry the result.
	assert.Equal(t, "", view.WinnerID)
	assert.Equal(t, "win", view.Outcome)
	assert.Equal(t, "ByteBot", view.WinnerUsername)
}

func TestViewDistinguishesDrawFromBotWin(t *testing.T) {
	d := completedDuel(70, 70, true)

	view := toView(d)

	assert.Equal(t, "", view.WinnerID)
	assert.Equal(t, "draw", view.Outcome)
	assert.Equal(t, "", view.WinnerUsername)
}

func TestViewReportsHumanWin(t *testing.T) {
	d := completedDuel(90, 40, false)

	view := toView(d)

	assert.Equal(t, d.Players[0].UserID.String(), view.WinnerID)
	assert.Equal(t, "win", view.Outcome)
	assert.Equal(t, "alice", view.WinnerUsername)
}

func TestViewOmitsOutcomeWhileActive(t *testing.T) {
	d := completedDuel(90, 40, false)
	d.Status = StatusActive
	d.WinnerID = nil
	d.EndedAt = nil

	view := toView(d)

	assert.Equal(t, "", view.Outcome)
	assert.Equal(t, "", view.WinnerUsername)
}
