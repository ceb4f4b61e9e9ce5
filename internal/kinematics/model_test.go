package kinematics_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traffline/drivingcore/internal/kinematics"
)

func TestResultsOfAccelForOneTick_Scenario1(t *testing.T) {
	// Spec §8 scenario 1: spawn at v=0, a=2.0, dt=0.1 -> v'=0.2, delta=0.01.
	dist, v := kinematics.ResultsOfAccelForOneTick(0, 2.0, 0.1)
	assert.InDelta(t, 0.2, v, 1e-9)
	assert.InDelta(t, 0.01, dist, 1e-9)
}

func TestResultsOfAccelForOneTick_ClampsToStop(t *testing.T) {
	dist, v := kinematics.ResultsOfAccelForOneTick(1, -20, 0.1)
	assert.Equal(t, 0.0, v)
	assert.Greater(t, dist, 0.0)
	assert.Less(t, dist, 0.05)
}

func TestAccelToStopInDist_Scenario3(t *testing.T) {
	a, err := kinematics.AccelToStopInDist(5, 8)
	require.NoError(t, err)
	assert.InDelta(t, -25.0/16.0, a, 1e-9)
}

func TestAccelToStopInDist_InfeasibleNonPositiveDist(t *testing.T) {
	_, err := kinematics.AccelToStopInDist(5, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, kinematics.ErrInfeasible)

	_, err = kinematics.AccelToStopInDist(5, -1)
	require.Error(t, err)
}

func TestStoppingDistance(t *testing.T) {
	assert.InDelta(t, 25.0/6.0, kinematics.StoppingDistance(5, 3), 1e-9)
	assert.True(t, math.IsInf(kinematics.StoppingDistance(5, 0), 1))
}

func TestAccelToFollow_Scenario2(t *testing.T) {
	// leader speed 10, decel 3; follower speed 10; gap 20; following dist 5.
	a, err := kinematics.AccelToFollow(10, 20, 5, 10, 3)
	require.NoError(t, err)
	assert.Less(t, a, 0.0)
}

func TestAccelToFollow_InfeasibleWhenAlreadyTooClose(t *testing.T) {
	_, err := kinematics.AccelToFollow(10, 1, 5, 0, 3)
	require.Error(t, err)
	assert.ErrorIs(t, err, kinematics.ErrInfeasible)
}

func TestConstantModel_AccelerateStep_ReachesTargetMidStep(t *testing.T) {
	m := kinematics.ConstantModel{AAcc: 2, ADcc: 3, VMaxVal: 30}
	dist, v := m.AccelerateStep(0, 0.1, 1.0)
	assert.Equal(t, 0.1, v)
	assert.Greater(t, dist, 0.0)
}

func TestConstantModel_DecelerateStep_NeverNegativeDistance(t *testing.T) {
	m := kinematics.ConstantModel{AAcc: 2, ADcc: 3, VMaxVal: 30}
	dist, v := m.DecelerateStep(0.01, 0, 1.0)
	assert.Equal(t, 0.0, v)
	assert.GreaterOrEqual(t, dist, 0.0)
}
