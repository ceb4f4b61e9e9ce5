package driving

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/traffline/drivingcore/internal/carstate"
	"github.com/traffline/drivingcore/internal/mapmodel"
	"github.com/traffline/drivingcore/internal/parking"
	"github.com/traffline/drivingcore/internal/router"
	"github.com/traffline/drivingcore/internal/simevent"
	"github.com/traffline/drivingcore/internal/simqueue"
	"github.com/traffline/drivingcore/internal/vehicle"
)

// SpawnRequest carries everything start_car_on_lane (§4.6) needs to admit one car onto a
// lane.
type SpawnRequest struct {
	Car         uuid.UUID
	Trip        uuid.UUID
	Owner       string
	MaybeParked *parking.ParkedCar // non-nil if this trip departs from a parked car
	Vehicle     vehicle.Vehicle
	Lane        mapmodel.LaneID
	DistAlong   float64
	Router      router.Router
}

// StartCarOnLane implements start_car_on_lane (§4.6): admits req onto its start lane if
// doing so cannot force an existing occupant to brake harder than it physically can.
// Returns (true, events, nil) on admission, (false, nil, nil) on a clean refusal, and a
// non-nil error only on a fatal precondition violation.
func (s *State) StartCarOnLane(req SpawnRequest, now carstate.Tick, m mapmodel.Map) (bool, []simevent.Event, error) {
	lane, err := m.Lane(req.Lane)
	if err != nil {
		return false, nil, err
	}
	if req.DistAlong > lane.Length {
		return false, nil, fmt.Errorf("driving: spawn: start dist_along %.6f exceeds lane %q length %.6f", req.DistAlong, req.Lane, lane.Length)
	}
	on := mapmodel.LaneTraversable(req.Lane)

	if q := s.QueueFor(on); q != nil {
		threshold := req.DistAlong + req.Vehicle.WorstCaseFollowingDist()
		if other, ok := q.FirstCarBehind(threshold); ok {
			if other.DistAlong >= req.DistAlong {
				return false, nil, nil
			}
			if otherCar, found := s.findCarByID(other.Car); found {
				// The new car spawns at speed 0, so it needs no stopping distance of its
				// own; leadMaxDeaccel only has to be positive to avoid the +Inf
				// degenerate case in StoppingDistance (vLead=0 already makes that
				// distance 0 for any positive deceleration).
				accelForOtherToStop, err := otherCar.Vehicle.AccelToFollow(otherCar.Speed, req.DistAlong-other.DistAlong, 0, 1)
				if err != nil || accelForOtherToStop <= -otherCar.Vehicle.Kinem.MaxDeaccel() {
					return false, nil, nil
				}
			}
		}
	}

	// StartCarOnLane's own safety check above is only as good as s.queues being current:
	// rebuildQueues runs once per Step, after every spawn in the batch, so without this
	// the very next StartCarOnLane call (same batch or a standalone call) would see a
	// stale or empty queue and skip the check entirely. Build/update the queue before
	// committing the car so a queue-invariant error leaves no partial state behind.
	q := s.QueueFor(on)
	if q == nil {
		var err error
		q, err = simqueue.New(on, lane.Length, req.Vehicle.FollowingDist(), nil)
		if err != nil {
			return false, nil, fmt.Errorf("driving: spawn: %w", err)
		}
	}
	q.InsertAt(req.Car, req.DistAlong, req.Vehicle.FollowingDist())
	s.queues.Set(on, q)

	car := carstate.Car{
		ID:        req.Car,
		Trip:      req.Trip,
		Owner:     req.Owner,
		On:        on,
		DistAlong: req.DistAlong,
		Speed:     0,
		Vehicle:   req.Vehicle,
	}
	if req.MaybeParked != nil {
		car.Parking = &carstate.ParkingState{IsParking: false, StartedAt: now, Tuple: *req.MaybeParked}
	}
	s.cars.Set(req.Car, car)
	s.routers.Set(req.Car, req.Router)

	events := []simevent.Event{{Kind: simevent.AgentEntersTraversable, Car: req.Car, Traversable: on}}
	return true, events, nil
}

func (s *State) findCarByID(id uuid.UUID) (carstate.Car, bool) {
	return s.cars.Get(id)
}
