// Package parking is the external parking-subsystem collaborator (SPEC_FULL.md §1):
// spot allocation and occupancy. The driving core only ever hands it a finished
// ParkedCar on StartParking completion or reads a SpotID at spawn time; the reference
// Sim here is an in-memory map good enough to exercise and test that contract.
package parking

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/traffline/drivingcore/internal/mapmodel"
	"github.com/traffline/drivingcore/internal/vehicle"
)

// SpotID identifies a parking spot.
type SpotID = uuid.UUID

// Spot is a fixed location along a lane where a car may park.
type Spot struct {
	ID        SpotID
	Lane      mapmodel.LaneID
	DistAlong float64
}

// ParkedCar is the record handed to the parking subsystem when a car finishes parking,
// and handed back (unchanged) when a car starts departing from it.
type ParkedCar struct {
	CarID   uuid.UUID
	Owner   string // opaque owner identity, e.g. a household or trip-planner id
	Spot    Spot
	Vehicle vehicle.Vehicle
}

// Sim is the contract the driving core consumes for parking.
type Sim interface {
	// Occupy records that spot now holds parked. Returns an error if already occupied.
	Occupy(spot SpotID, parked ParkedCar) error
	// Vacate clears spot, returning the ParkedCar that was there.
	Vacate(spot SpotID) (ParkedCar, error)
	// SpotAt returns the spot at lane/distAlong, if one exists there.
	SpotAt(lane mapmodel.LaneID, distAlong float64) (Spot, bool)
}

// InMemorySim is a reference Sim implementation.
type InMemorySim struct {
	mu       sync.Mutex
	spots    map[SpotID]Spot
	occupied map[SpotID]ParkedCar
}

// NewInMemorySim builds an InMemorySim seeded with the given spots.
func NewInMemorySim(spots []Spot) *InMemorySim {
	s := &InMemorySim{
		spots:    make(map[SpotID]Spot, len(spots)),
		occupied: make(map[SpotID]ParkedCar),
	}
	for _, sp := range spots {
		s.spots[sp.ID] = sp
	}
	return s
}

func (s *InMemorySim) Occupy(spot SpotID, parked ParkedCar) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.spots[spot]; !ok {
		return fmt.Errorf("parking: unknown spot %s", spot)
	}
	if _, taken := s.occupied[spot]; taken {
		return fmt.Errorf("parking: spot %s already occupied", spot)
	}
	s.occupied[spot] = parked
	return nil
}

func (s *InMemorySim) Vacate(spot SpotID) (ParkedCar, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	parked, ok := s.occupied[spot]
	if !ok {
		return ParkedCar{}, fmt.Errorf("parking: spot %s not occupied", spot)
	}
	delete(s.occupied, spot)
	return parked, nil
}

func (s *InMemorySim) SpotAt(lane mapmodel.LaneID, distAlong float64) (Spot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sp := range s.spots {
		if sp.Lane == lane && sp.DistAlong == distAlong {
			return sp, true
		}
	}
	return Spot{}, false
}
