package transitsim_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/traffline/drivingcore/internal/transitsim"
)

func TestNextStopOnLane_PicksNearestAtOrAfter(t *testing.T) {
	sim := transitsim.NewStaticSim([]transitsim.Stop{
		{Lane: "l1", DistAlong: 10},
		{Lane: "l1", DistAlong: 40},
		{Lane: "l2", DistAlong: 5},
	})

	stop, ok := sim.NextStopOnLane("l1", 0)
	assert.True(t, ok)
	assert.Equal(t, 10.0, stop.DistAlong)

	stop, ok = sim.NextStopOnLane("l1", 10)
	assert.True(t, ok)
	assert.Equal(t, 10.0, stop.DistAlong, "at-or-after includes an exact match")

	stop, ok = sim.NextStopOnLane("l1", 11)
	assert.True(t, ok)
	assert.Equal(t, 40.0, stop.DistAlong)
}

func TestNextStopOnLane_NoMatch(t *testing.T) {
	sim := transitsim.NewStaticSim([]transitsim.Stop{{Lane: "l1", DistAlong: 10}})

	_, ok := sim.NextStopOnLane("l1", 20)
	assert.False(t, ok, "no stop remains past the last one")

	_, ok = sim.NextStopOnLane("ghost", 0)
	assert.False(t, ok)
}

func TestNextStopOnLane_EmptySim(t *testing.T) {
	sim := transitsim.NewStaticSim(nil)
	_, ok := sim.NextStopOnLane("l1", 0)
	assert.False(t, ok)
}
