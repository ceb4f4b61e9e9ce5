// Package carstate defines the per-agent mutable Car record (§3) and the Action produced
// by the reaction phase (§4.4), generalized from the teacher's SimService
// (cxd309-tms-engine/internal/service/service.go — "a mutable record layered over a
// static vehicle definition").
package carstate

import (
	"github.com/google/uuid"

	"github.com/traffline/drivingcore/internal/intersections"
	"github.com/traffline/drivingcore/internal/mapmodel"
	"github.com/traffline/drivingcore/internal/parking"
	"github.com/traffline/drivingcore/internal/vehicle"
)

// CarID, TripID identify a car and the trip it is fulfilling.
type (
	CarID  = uuid.UUID
	TripID = uuid.UUID
)

// Tick is simulation time in seconds since the epoch of the running scenario.
type Tick = float64

// ParkingState tracks a car working through a parking or departure maneuver (§3).
type ParkingState struct {
	IsParking bool // true = decelerating into a spot; false = departing from one
	StartedAt Tick
	Tuple     parking.ParkedCar
}

// Car is the per-agent mutable record (§3). Invariants (enforced by the driving core,
// not by this type): Speed >= 0 and <= Vehicle.ClampSpeed(on.speed_limit); 0 <= DistAlong
// <= on.length; if Parking != nil, Speed <= EpsSpeed; a Car appears in exactly one
// SimQueue, the one keyed by On.
type Car struct {
	ID        CarID
	Trip      TripID
	Owner     string // opaque owner identity; "" if none
	On        mapmodel.Traversable
	DistAlong float64
	Speed     float64
	Vehicle   vehicle.Vehicle
	Parking   *ParkingState
	Debug     bool
}

// ActionKind discriminates the variants of Action.
type ActionKind int

const (
	// ActionContinue is the ordinary kinematic step: apply Accel for one tick, and
	// submit Requests (if any) to the intersection manager.
	ActionContinue ActionKind = iota
	// ActionStartParking begins a parking maneuver into Spot.
	ActionStartParking
	// ActionWorkOnParking advances an in-progress parking or departure maneuver.
	ActionWorkOnParking
	// ActionStartParkingBike ends a bike trip at the car's current position.
	ActionStartParkingBike
	// ActionVanishDeadEnd removes the car immediately; the router found no continuation.
	ActionVanishDeadEnd
)

// Action is the outcome of the reaction phase (§4.4) for one car, applied in the apply
// phase (§4.5).
type Action struct {
	Kind     ActionKind
	Accel    float64                 // valid when Kind == ActionContinue
	Requests []intersections.Request // valid when Kind == ActionContinue
	Spot     parking.Spot            // valid when Kind == ActionStartParking
}

// Clone returns a deep-enough copy of Car for use in a frozen WorldView: the Vehicle and
// ParkingState.Tuple are immutable once set, so only the Parking pointer itself needs a
// fresh allocation.
func (c Car) Clone() Car {
	out := c
	if c.Parking != nil {
		p := *c.Parking
		out.Parking = &p
	}
	return out
}
