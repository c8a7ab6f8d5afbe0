package rating

import (
	"math"
)

// Config holds the rating update constants.
//
// Provisional players (fewer than ProvisionalDuels completed duels) use the
// higher K so their rating converges quickly. The source system did the
// opposite, damping swings for newcomers; this implementation follows the
// conventional direction.
type Config struct {
	KProvisional     int
	KStandard        int
	ProvisionalDuels int
	Floor            int
	CompetitionBase  int
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		KProvisional:     40,
		KStandard:        24,
		ProvisionalDuels: 10,
		Floor:            100,
		CompetitionBase:  32,
	}
}

// Engine computes deterministic rating deltas.
type Engine struct {
	cfg Config
}

// NewEngine creates a rating engine with the provided config.
func NewEngine(cfg Config) *Engine {
	if cfg.KStandard == 0 {
		cfg = DefaultConfig()
	}
	return &Engine{cfg: cfg}
}

// ExpectedScore is the logistic win expectancy for rating against opponent.
func (e *Engine) ExpectedScore(rating, opponent int) float64 {
	return 1.0 / (1.0 + math.Pow(10, float64(opponent-rating)/400.0))
}

// KFor returns the K-factor for a player with the given duel count.
func (e *Engine) KFor(duelsCompleted int) int {
	if duelsCompleted < e.cfg.ProvisionalDuels {
		return e.cfg.KProvisional
	}
	return e.cfg.KStandard
}

// DuelDelta computes the signed rating change for one duel participant.
// actual is 1 (win), 0.5 (draw) or 0 (loss).
func (e *Engine) DuelDelta(rating, opponent, duelsCompleted int, actual float64) int {
	k := float64(e.KFor(duelsCompleted))
	expected := e.ExpectedScore(rating, opponent)
	return int(math.Round(k * (actual - expected)))
}

// StandingsDelta computes the percentile-scaled base delta for a competition
// placement: +CompetitionBase for first, -CompetitionBase for last, zero at
// the median.
func (e *Engine) StandingsDelta(rank, total int) int {
	if total <= 1 {
		return e.cfg.CompetitionBase
	}
	percentile := float64(rank-1) / float64(total-1)
	return int(math.Round(float64(e.cfg.CompetitionBase) * (1 - 2*percentile)))
}

// Milestone bonuses are flat and non-cumulative: a winner receives the win
// bonus only, ranks 2-3 the top-3 bonus, ranks 4-10 the top-10 bonus.
const (
	bonusWin   = 40
	bonusTop3  = 25
	bonusTop10 = 10
)

// MilestoneBonus returns the flat bonus for a final rank.
func (e *Engine) MilestoneBonus(rank int) int {
	switch {
	case rank == 1:
		return bonusWin
	case rank <= 3:
		return bonusTop3
	case rank <= 10:
		return bonusTop10
	default:
		return 0
	}
}

// Apply clamps a delta against the rating floor.
func (e *Engine) Apply(rating, delta int) int {
	next := rating + delta
	if next < e.cfg.Floor {
		return e.cfg.Floor
	}
	return next
}

// Tier band thresholds. TierFor is a pure monotonic step function of rating;
// there is no hysteresis.
var tierBands = []struct {
	min  int
	name string
}{
	{2100, "Grandmaster"},
	{1900, "Master"},
	{1700, "Diamond"},
	{1500, "Platinum"},
	{1300, "Gold"},
	{1100, "Silver"},
}

// TierFor maps a rating to its band name.
func TierFor(rating int) string {
	for _, band := range tierBands {
		if rating >= band.min {
			return band.name
		}
	}
	return "Bronze"
}
