package driving_test

import (
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traffline/drivingcore/internal/driving"
	"github.com/traffline/drivingcore/internal/intersections"
	"github.com/traffline/drivingcore/internal/kinematics"
	"github.com/traffline/drivingcore/internal/mapmodel"
	"github.com/traffline/drivingcore/internal/parking"
	"github.com/traffline/drivingcore/internal/router"
	"github.com/traffline/drivingcore/internal/transitsim"
	"github.com/traffline/drivingcore/internal/vehicle"
)

func longLaneMap(t *testing.T, length, speedLimit float64) mapmodel.Map {
	t.Helper()
	m, err := mapmodel.NewStaticMap([]mapmodel.Lane{
		{ID: "l1", From: "a", To: "b", Length: length, SpeedLimit: speedLimit},
	}, nil)
	require.NoError(t, err)
	return m
}

func car(vmax float64) vehicle.Vehicle {
	return vehicle.New(vehicle.KindCar, 4, kinematics.ConstantModel{AAcc: 2, ADcc: 4, VMaxVal: vmax})
}

func straightRouter() router.Router {
	return router.NewLinearRouter(nil, "l1", 9999, nil, false, true)
}

// scenario 1: a lone car spawned from rest accelerates toward the lane's speed limit.
func TestStep_SingleCarAccelerates(t *testing.T) {
	m := longLaneMap(t, 1000, 10)
	s := driving.New(driving.DefaultConfig(), nil)
	rng := rand.New(rand.NewSource(1))

	id := uuid.New()
	spawns := []driving.SpawnRequest{{
		Car: id, Trip: uuid.New(), Vehicle: car(10), Lane: "l1", DistAlong: 0, Router: straightRouter(),
	}}

	var lastSpeed float64
	for tick := 0; tick < 60; tick++ {
		res, err := s.Step(float64(tick)*0.1, m, parking.NewInMemorySim(nil), intersections.NewFCFSManager(), transitsim.NewStaticSim(nil), rng, spawns)
		require.NoError(t, err)
		spawns = nil

		c, ok := s.Car(id)
		require.True(t, ok)
		assert.GreaterOrEqual(t, c.Speed, lastSpeed-1e-9, "speed must not decrease while accelerating toward the limit")
		lastSpeed = c.Speed
		_ = res
	}
	assert.InDelta(t, 10.0, lastSpeed, 0.3, "should be at the speed limit after accelerating for 6 seconds at 2 m/s^2")
}

// scenario 2: a following car never closes to less than its required following distance.
func TestStep_CarFollowingNeverSquishes(t *testing.T) {
	m := longLaneMap(t, 1000, 10)
	s := driving.New(driving.DefaultConfig(), nil)
	rng := rand.New(rand.NewSource(1))

	leader, follower := uuid.New(), uuid.New()
	spawns := []driving.SpawnRequest{
		{Car: leader, Trip: uuid.New(), Vehicle: car(10), Lane: "l1", DistAlong: 50, Router: straightRouter()},
		{Car: follower, Trip: uuid.New(), Vehicle: car(10), Lane: "l1", DistAlong: 0, Router: straightRouter()},
	}

	for tick := 0; tick < 100; tick++ {
		_, err := s.Step(float64(tick)*0.1, m, parking.NewInMemorySim(nil), intersections.NewFCFSManager(), transitsim.NewStaticSim(nil), rng, spawns)
		require.NoError(t, err, "rebuildQueues would fail the tick if the no-squish invariant were ever violated")
		spawns = nil
	}
}

// scenario 6: spawn admission refuses a car whose spawn point has an existing occupant at
// or ahead of it within the new car's worst-case following distance.
func TestStartCarOnLane_RefusesUnsafeSpawn(t *testing.T) {
	m := longLaneMap(t, 1000, 10)
	s := driving.New(driving.DefaultConfig(), nil)

	occupant := uuid.New()
	admitted, _, err := s.StartCarOnLane(driving.SpawnRequest{
		Car: occupant, Trip: uuid.New(), Vehicle: car(10), Lane: "l1", DistAlong: 5.01, Router: straightRouter(),
	}, 0, m)
	require.NoError(t, err)
	require.True(t, admitted)

	// the new spawn point sits 1 cm behind the occupant, well within the new car's
	// worst-case following distance: the occupant is at or ahead of the spawn point.
	admitted, _, err = s.StartCarOnLane(driving.SpawnRequest{
		Car: uuid.New(), Trip: uuid.New(), Vehicle: car(10), Lane: "l1", DistAlong: 5, Router: straightRouter(),
	}, 0, m)
	require.NoError(t, err)
	assert.False(t, admitted, "spawning essentially underneath an existing occupant must be refused")
}

// scenario 4: a car routed to vanish at a map border disappears once it reaches the end
// of its lane.
func TestStep_VanishesAtBorder(t *testing.T) {
	m := longLaneMap(t, 1, 10)
	s := driving.New(driving.DefaultConfig(), nil)
	rng := rand.New(rand.NewSource(1))

	id := uuid.New()
	spawns := []driving.SpawnRequest{{
		Car: id, Trip: uuid.New(), Vehicle: car(10), Lane: "l1", DistAlong: 0.99, Router: straightRouter(),
	}}

	vanished := false
	for tick := 0; tick < 10 && !vanished; tick++ {
		res, err := s.Step(float64(tick)*0.1, m, parking.NewInMemorySim(nil), intersections.NewFCFSManager(), transitsim.NewStaticSim(nil), rng, spawns)
		require.NoError(t, err)
		spawns = nil
		if len(res.Vanished) > 0 {
			vanished = true
			assert.Equal(t, id, res.Vanished[0])
		}
	}
	assert.True(t, vanished, "car should have vanished at the border within 10 ticks")
	_, ok := s.Car(id)
	assert.False(t, ok, "vanished car must no longer be tracked")
}

// scenario 5: parking takes exactly TimeToParkOrDepart seconds, then the car is removed
// and reported parked.
func TestStep_ParkingSequence(t *testing.T) {
	m := longLaneMap(t, 1000, 10)
	cfg := driving.DefaultConfig()
	cfg.TimeToParkOrDepart = 0.3
	s := driving.New(cfg, nil)
	rng := rand.New(rand.NewSource(1))

	spotID := uuid.New()
	destSpot := parking.Spot{ID: spotID, Lane: "l1", DistAlong: 10}
	parkingSim := parking.NewInMemorySim([]parking.Spot{destSpot})

	id := uuid.New()
	rt := router.NewLinearRouter(nil, "l1", 10, &destSpot, false, false)
	spawns := []driving.SpawnRequest{{Car: id, Trip: uuid.New(), Vehicle: car(10), Lane: "l1", DistAlong: 10, Router: rt}}

	var parked bool
	for tick := 0; tick < 10 && !parked; tick++ {
		res, err := s.Step(float64(tick)*cfg.TickSeconds, m, parkingSim, intersections.NewFCFSManager(), transitsim.NewStaticSim(nil), rng, spawns)
		require.NoError(t, err)
		spawns = nil
		if len(res.Parked) > 0 {
			parked = true
			assert.Equal(t, id, res.Parked[0].CarID)
		}
	}
	assert.True(t, parked, "car starting exactly at its parking spot should finish parking")
	_, ok := s.Car(id)
	assert.False(t, ok)
}

// scenario 3: a car stopped behind a red (ungranted) turn request never crosses into it.
func TestStep_StopsAtUngrantedTurn(t *testing.T) {
	m, err := mapmodel.NewStaticMap(
		[]mapmodel.Lane{
			{ID: "l1", From: "a", To: "x", Length: 20, SpeedLimit: 10},
			{ID: "l2", From: "x", To: "b", Length: 100, SpeedLimit: 10},
		},
		[]mapmodel.Turn{{ID: "l1-l2", From: "l1", To: "l2", At: "x", Length: 5, SpeedLimit: 5}},
	)
	require.NoError(t, err)

	s := driving.New(driving.DefaultConfig(), nil)
	rng := rand.New(rand.NewSource(1))

	// occupant already holds the turn, so the manager never grants it to our car.
	isect := intersections.NewFCFSManager()
	holder := uuid.New()
	require.NoError(t, isect.OnEnter(intersections.Request{Car: holder, Turn: "l1-l2"}))

	id := uuid.New()
	rt := router.NewLinearRouter([]router.PathStep{{Kind: router.PathStepTurn, Turn: "l1-l2"}, {Kind: router.PathStepLane, Lane: "l2"}}, "l2", 50, nil, false, false)
	spawns := []driving.SpawnRequest{{Car: id, Trip: uuid.New(), Vehicle: car(10), Lane: "l1", DistAlong: 19, Router: rt}}

	for tick := 0; tick < 30; tick++ {
		_, err := s.Step(float64(tick)*0.1, m, parking.NewInMemorySim(nil), isect, transitsim.NewStaticSim(nil), rng, spawns)
		require.NoError(t, err)
		spawns = nil

		c, ok := s.Car(id)
		require.True(t, ok)
		assert.True(t, c.On.IsLane() && c.On.ID == "l1", "car must not enter the turn while it is held by another car")
	}
}
