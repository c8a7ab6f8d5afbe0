package matchmaking

import (
	"errors"

	"github.com/google/uuid"
)

// Ticket statuses reported to polling clients.
const (
	StatusMatched    = "matched"
	StatusQueued     = "queued"
	StatusWaiting    = "waiting"
	StatusExpired    = "expired"
	StatusNotInQueue = "not_in_queue"
)

var (
	// ErrAlreadyInDuel: a user in an active duel cannot queue or be matched.
	ErrAlreadyInDuel = errors.New("user already in an active duel")
)

// Opponent describes the matched adversary, human or bot.
type Opponent struct {
	UserID   uuid.UUID `json:"user_id,omitzero"`
	Username string    `json:"username"`
	Rating   int       `json:"rating"`
	IsBot    bool      `json:"is_bot"`
}

// Ticket is the matchmaking state reported to one caller.
type Ticket struct {
	Status           string    `json:"status"`
	DuelID           uuid.UUID `json:"duel_id,omitzero"`
	Opponent         *Opponent `json:"opponent,omitempty"`
	ExpiresInSeconds int       `json:"expires_in_seconds,omitempty"`
}

// Bot rating table: a requested difficulty maps to a fixed bot strength.
var botRatings = map[string]int{
	"easy":   800,
	"medium": 1200,
	"hard":   1600,
	"expert": 2000,
}

// Bot par scores: the aggregate score the bot plays to, by difficulty.
var botParScores = map[string]int{
	"easy":   40,
	"medium": 60,
	"hard":   75,
	"expert": 90,
}

const defaultBotDifficulty = "medium"

// BotUsername is the display name bot opponents duel under.
const BotUsername = "ByteBot"
