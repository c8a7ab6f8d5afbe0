package challenge

import (
	"github.com/google/uuid"
)

// Difficulty bands for challenges and bot opponents.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
	DifficultyExpert = "expert"
)

// TestCase is one input/expected-output pair. Hidden cases are judged but
// never shown to players. Points is zero unless the challenge uses weighted
// scoring.
type TestCase struct {
	Input    string `json:"input"`
	Expected string `json:"expected_output"`
	Hidden   bool   `json:"is_hidden"`
	Points   int    `json:"points,omitempty"`
}

// Challenge is immutable reference data for a duel or practice run.
type Challenge struct {
	ID               uuid.UUID  `json:"id"`
	Title            string     `json:"title"`
	Difficulty       string     `json:"difficulty"`
	TimeLimitSeconds int        `json:"time_limit_seconds"`
	Cases            []TestCase `json:"test_cases"`
}

// ValidDifficulty reports whether d names a known difficulty band.
func ValidDifficulty(d string) bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyExpert:
		return true
	}
	return false
}
