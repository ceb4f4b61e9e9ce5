package router_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traffline/drivingcore/internal/mapmodel"
	"github.com/traffline/drivingcore/internal/router"
)

func TestPlanSteps_InterleavesTurns(t *testing.T) {
	m := testMap(t) // l1 -> (turn l1-l2) -> l2, from mapmodel_test-style fixture in this package

	steps, err := router.PlanSteps(m, []mapmodel.LaneID{"l1", "l2"})
	require.NoError(t, err)
	require.Len(t, steps, 3)
	assert.Equal(t, router.PathStep{Kind: router.PathStepLane, Lane: "l1"}, steps[0])
	assert.Equal(t, router.PathStep{Kind: router.PathStepTurn, Turn: "l1-l2"}, steps[1])
	assert.Equal(t, router.PathStep{Kind: router.PathStepLane, Lane: "l2"}, steps[2])
}

func TestPlanSteps_EmptyInput(t *testing.T) {
	steps, err := router.PlanSteps(testMap(t), nil)
	require.NoError(t, err)
	assert.Nil(t, steps)
}

func TestPlanSteps_NoConnectingTurn(t *testing.T) {
	m, err := mapmodel.NewStaticMap([]mapmodel.Lane{
		{ID: "l1", From: "a", To: "x", Length: 10, SpeedLimit: 10},
		{ID: "l2", From: "y", To: "z", Length: 10, SpeedLimit: 10},
	}, nil)
	require.NoError(t, err)

	_, err = router.PlanSteps(m, []mapmodel.LaneID{"l1", "l2"})
	require.Error(t, err)
}
