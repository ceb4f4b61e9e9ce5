package parking_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traffline/drivingcore/internal/kinematics"
	"github.com/traffline/drivingcore/internal/parking"
	"github.com/traffline/drivingcore/internal/vehicle"
)

func testVehicle() vehicle.Vehicle {
	return vehicle.New(vehicle.KindCar, 4, kinematics.ConstantModel{AAcc: 2, ADcc: 4, VMaxVal: 15})
}

func TestOccupyAndVacate(t *testing.T) {
	spot := parking.Spot{ID: uuid.New(), Lane: "l1", DistAlong: 10}
	sim := parking.NewInMemorySim([]parking.Spot{spot})

	parked := parking.ParkedCar{CarID: uuid.New(), Spot: spot, Vehicle: testVehicle()}
	require.NoError(t, sim.Occupy(spot.ID, parked))

	got, err := sim.Vacate(spot.ID)
	require.NoError(t, err)
	assert.Equal(t, parked.CarID, got.CarID)
}

func TestOccupy_RejectsUnknownSpot(t *testing.T) {
	sim := parking.NewInMemorySim(nil)
	err := sim.Occupy(uuid.New(), parking.ParkedCar{})
	require.Error(t, err)
}

func TestOccupy_RejectsDoubleOccupancy(t *testing.T) {
	spot := parking.Spot{ID: uuid.New(), Lane: "l1", DistAlong: 10}
	sim := parking.NewInMemorySim([]parking.Spot{spot})
	require.NoError(t, sim.Occupy(spot.ID, parking.ParkedCar{Spot: spot}))

	err := sim.Occupy(spot.ID, parking.ParkedCar{Spot: spot})
	require.Error(t, err)
}

func TestVacate_RejectsEmptySpot(t *testing.T) {
	spot := parking.Spot{ID: uuid.New(), Lane: "l1", DistAlong: 10}
	sim := parking.NewInMemorySim([]parking.Spot{spot})
	_, err := sim.Vacate(spot.ID)
	require.Error(t, err)
}

func TestSpotAt(t *testing.T) {
	spot := parking.Spot{ID: uuid.New(), Lane: "l1", DistAlong: 10}
	sim := parking.NewInMemorySim([]parking.Spot{spot})

	got, ok := sim.SpotAt("l1", 10)
	require.True(t, ok)
	assert.Equal(t, spot.ID, got.ID)

	_, ok = sim.SpotAt("l1", 11)
	assert.False(t, ok)

	_, ok = sim.SpotAt("l2", 10)
	assert.False(t, ok)
}
