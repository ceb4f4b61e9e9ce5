package scenario

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traffline/drivingcore/internal/driving"
	"github.com/traffline/drivingcore/internal/mapmodel"
	"github.com/traffline/drivingcore/internal/vehicle"
)

func constantCarJSON() vehicle.Vehicle {
	var v vehicle.Vehicle
	data := []byte(`{"kind":"car","length":4,"kinematics":{"model":"constant","a_acc":2,"a_dcc":4,"v_max":10}}`)
	if err := v.UnmarshalJSON(data); err != nil {
		panic(err)
	}
	return v
}

func twoLaneTurnMap() MapDef {
	return MapDef{
		Lanes: []mapmodel.Lane{
			{ID: "l1", From: "a", To: "x", Length: 50, SpeedLimit: 10},
			{ID: "l2", From: "x", To: "b", Length: 50, SpeedLimit: 10},
		},
		Turns: []mapmodel.Turn{
			{ID: "l1-l2", From: "l1", To: "l2", At: "x", Length: 5, SpeedLimit: 5},
		},
	}
}

// the planned route must take the car through the turn onto l2, without that turn ever
// appearing explicitly in the scenario JSON.
func TestBuild_PlansRouteWhenNoneGiven(t *testing.T) {
	sc := Scenario{
		Meta: Meta{ScenarioID: "s1", RunTime: 0.2},
		Map:  twoLaneTurnMap(),
		Cars: []CarDef{{
			ID: "c1", Trip: "t1", Vehicle: constantCarJSON(),
			StartLane: "l1", StartDist: 0,
			DestLane: "l2", DestDist: 10,
		}},
	}

	built, err := Build(sc, driving.DefaultConfig(), nil)
	require.NoError(t, err)
	require.Len(t, built.Spawns, 1)

	turnID, ok := built.Spawns[0].Router.NextStepAsTurn()
	require.True(t, ok)
	assert.Equal(t, "l1-l2", turnID)
}

func TestBuild_ExplicitRouteStillWins(t *testing.T) {
	sc := Scenario{
		Meta: Meta{ScenarioID: "s1", RunTime: 0.1},
		Map:  twoLaneTurnMap(),
		Cars: []CarDef{{
			ID: "c1", Trip: "t1", Vehicle: constantCarJSON(),
			StartLane: "l1", StartDist: 0,
			Route: []StepDef{{Kind: "turn", ID: "l1-l2"}, {Kind: "lane", ID: "l2"}},
		}},
	}

	built, err := Build(sc, driving.DefaultConfig(), nil)
	require.NoError(t, err)
	turnID, ok := built.Spawns[0].Router.NextStepAsTurn()
	require.True(t, ok)
	assert.Equal(t, "l1-l2", turnID)
}

func TestBuild_UnknownDestSpotErrors(t *testing.T) {
	sc := Scenario{
		Meta: Meta{ScenarioID: "s1", RunTime: 0.1},
		Map:  twoLaneTurnMap(),
		Cars: []CarDef{{
			ID: "c1", Trip: "t1", Vehicle: constantCarJSON(),
			StartLane: "l1", StartDist: 0, DestSpot: "ghost",
		}},
	}
	_, err := Build(sc, driving.DefaultConfig(), nil)
	require.Error(t, err)
}
