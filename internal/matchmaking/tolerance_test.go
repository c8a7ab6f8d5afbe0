package matchmaking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestToleranceWidensWithWait(t *testing.T) {
	schedule := DefaultToleranceSchedule()

	assert.Equal(t, 300, schedule.For(0))
	assert.Equal(t, 300, schedule.For(14*time.Second))
	assert.Equal(t, 400, schedule.For(15*time.Second))
	assert.Equal(t, 400, schedule.For(29*time.Second))
	assert.Equal(t, 500, schedule.For(30*time.Second))
}

func TestToleranceCapped(t *testing.T) {
	schedule := DefaultToleranceSchedule()

	assert.Equal(t, 1000, schedule.For(2*time.Minute))
	assert.Equal(t, 1000, schedule.For(time.Hour))
}

func TestToleranceMonotonic(t *testing.T) {
	schedule := DefaultToleranceSchedule()

	prev := 0
	for wait := time.Duration(0); wait <= 3*time.Minute; wait += time.Second {
		window := schedule.For(wait)
		assert.GreaterOrEqual(t, window, prev)
		prev = window
	}
}

func TestToleranceNegativeWait(t *testing.T) {
	schedule := DefaultToleranceSchedule()
	assert.Equal(t, 300, schedule.For(-time.Second))
}
