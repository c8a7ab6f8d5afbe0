package rating

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpectedScore(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	assert.InDelta(t, 0.5, engine.ExpectedScore(1200, 1200), 1e-9)
	// 400 points of advantage is roughly a 10:1 expectancy.
	assert.InDelta(t, 10.0/11.0, engine.ExpectedScore(1600, 1200), 1e-9)
	assert.InDelta(t, 1.0/11.0, engine.ExpectedScore(1200, 1600), 1e-9)
}

func TestDuelDeltaDirection(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	// Established player, even matchup.
	win := engine.DuelDelta(1200, 1200, 50, 1)
	loss := engine.DuelDelta(1200, 1200, 50, 0)
	draw := engine.DuelDelta(1200, 1200, 50, 0.5)

	assert.Equal(t, 12, win)
	assert.Equal(t, -12, loss)
	assert.Equal(t, 0, draw)

	// Upset win pays more than an expected win.
	upset := engine.DuelDelta(1000, 1400, 50, 1)
	expected := engine.DuelDelta(1400, 1000, 50, 1)
	assert.Greater(t, upset, expected)

	// Draw against a stronger opponent still gains points.
	assert.Positive(t, engine.DuelDelta(1000, 1400, 50, 0.5))
	assert.Negative(t, engine.DuelDelta(1400, 1000, 50, 0.5))
}

func TestProvisionalKFactor(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	assert.Equal(t, 40, engine.KFor(0))
	assert.Equal(t, 40, engine.KFor(9))
	assert.Equal(t, 24, engine.KFor(10))
	assert.Equal(t, 24, engine.KFor(500))

	// A provisional win on even footing moves 20, not 12.
	assert.Equal(t, 20, engine.DuelDelta(1200, 1200, 0, 1))
}

func TestApplyClampsAtFloor(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	assert.Equal(t, 100, engine.Apply(110, -50))
	assert.Equal(t, 100, engine.Apply(100, -1))
	assert.Equal(t, 101, engine.Apply(100, 1))
}

func TestStandingsDelta(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	assert.Equal(t, 32, engine.StandingsDelta(1, 100))
	assert.Equal(t, -32, engine.StandingsDelta(100, 100))
	assert.Equal(t, 0, engine.StandingsDelta(2, 3))

	// Solo competition still rewards the only participant.
	assert.Equal(t, 32, engine.StandingsDelta(1, 1))
}

func TestMilestoneBonusNonCumulative(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	assert.Equal(t, 40, engine.MilestoneBonus(1))
	assert.Equal(t, 25, engine.MilestoneBonus(2))
	assert.Equal(t, 25, engine.MilestoneBonus(3))
	assert.Equal(t, 10, engine.MilestoneBonus(4))
	assert.Equal(t, 10, engine.MilestoneBonus(10))
	assert.Equal(t, 0, engine.MilestoneBonus(11))
}

func TestTierBands(t *testing.T) {
	assert.Equal(t, "Bronze", TierFor(100))
	assert.Equal(t, "Bronze", TierFor(1099))
	assert.Equal(t, "Silver", TierFor(1100))
	assert.Equal(t, "Gold", TierFor(1300))
	assert.Equal(t, "Platinum", TierFor(1500))
	assert.Equal(t, "Diamond", TierFor(1700))
	assert.Equal(t, "Master", TierFor(1900))
	assert.Equal(t, "Grandmaster", TierFor(2100))
	assert.Equal(t, "Grandmaster", TierFor(3000))
}
