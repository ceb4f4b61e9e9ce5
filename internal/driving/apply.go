package driving

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/traffline/drivingcore/internal/carstate"
	"github.com/traffline/drivingcore/internal/intersections"
	"github.com/traffline/drivingcore/internal/kinematics"
	"github.com/traffline/drivingcore/internal/mapmodel"
	"github.com/traffline/drivingcore/internal/parking"
	"github.com/traffline/drivingcore/internal/router"
	"github.com/traffline/drivingcore/internal/simevent"
)

// BikeDismount is the (car, position) tuple emitted when a bike trip ends by dismounting
// rather than parking (§6's `Vec<(CarID, Position)>` return).
type BikeDismount struct {
	Car       uuid.UUID
	Lane      mapmodel.LaneID
	DistAlong float64
}

// applyResult accumulates the outcomes apply() must hand back to the top-level Step call.
type applyResult struct {
	parked          []parking.ParkedCar
	vanished        []uuid.UUID // border vanishes only (router.ShouldVanishAtBorder)
	vanishedDeadEnd []uuid.UUID // dead-end vanishes: removed, but never emitted as vanished
	doneBiking      []BikeDismount
	events          []simevent.Event
}

// apply runs the apply phase (§4.5) over every car's chosen Action, in CarID-insertion
// order, mutating s.cars/s.routers directly.
func (s *State) apply(
	actions map[uuid.UUID]carstate.Action,
	now carstate.Tick,
	m mapmodel.Map,
	isect intersections.Manager,
) (applyResult, error) {
	var out applyResult
	// Iterate over a copy: Delete below shifts the ordered map's key slice in place.
	for _, id := range append([]uuid.UUID(nil), s.cars.Keys()...) {
		action, ok := actions[id]
		if !ok {
			continue
		}
		car, _ := s.cars.Get(id)

		switch action.Kind {
		case carstate.ActionStartParking:
			car.Parking = &carstate.ParkingState{
				IsParking: true,
				StartedAt: now,
				Tuple: parking.ParkedCar{
					CarID:   id,
					Owner:   car.Owner,
					Spot:    action.Spot,
					Vehicle: car.Vehicle,
				},
			}
			s.cars.Set(id, car)

		case carstate.ActionWorkOnParking:
			if car.Parking == nil {
				return out, &StepError{Car: id, Err: fmt.Errorf("%w: WorkOnParking with no parking state", ErrPositionInvariant)}
			}
			if now-car.Parking.StartedAt >= s.cfg.TimeToParkOrDepart {
				if car.Parking.IsParking {
					out.parked = append(out.parked, car.Parking.Tuple)
					s.cars.Delete(id)
					s.routers.Delete(id)
				} else {
					car.Parking = nil
					car.Speed = 0
					s.cars.Set(id, car)
				}
			}
			// else: still waiting, no change.

		case carstate.ActionStartParkingBike:
			out.doneBiking = append(out.doneBiking, BikeDismount{Car: id, Lane: car.On.ID, DistAlong: car.DistAlong})
			s.cars.Delete(id)
			s.routers.Delete(id)

		case carstate.ActionVanishDeadEnd:
			// Removed like a border vanish, but never emitted as vanished (§4.5):
			// dead-end removal and border vanish are distinct lifecycle events, and only
			// the latter feeds the border-vanish conservation law.
			out.vanishedDeadEnd = append(out.vanishedDeadEnd, id)
			s.cars.Delete(id)
			s.routers.Delete(id)

		case carstate.ActionContinue:
			rt, _ := s.routers.Get(id)
			newCar, vanished, events, err := s.stepContinue(car, rt, action.Accel, m, isect)
			out.events = append(out.events, events...)
			if err != nil {
				return out, err
			}
			if vanished {
				out.vanished = append(out.vanished, id)
				s.cars.Delete(id)
				s.routers.Delete(id)
				continue
			}
			s.cars.Set(id, newCar)
			s.routers.Set(id, rt)
			for _, req := range action.Requests {
				isect.SubmitRequest(req)
			}

		default:
			return out, &StepError{Car: id, Err: fmt.Errorf("driving: unrecognized action kind %d", action.Kind)}
		}
	}
	return out, nil
}

// stepContinue is Car::step_continue (§4.5.3): integrate one tick of accel, then walk
// across as many traversable boundaries as the resulting distance demands.
func (s *State) stepContinue(
	car carstate.Car,
	rt router.Router,
	accel float64,
	m mapmodel.Map,
	isect intersections.Manager,
) (carstate.Car, bool, []simevent.Event, error) {
	var events []simevent.Event

	deltaDist, newSpeed := kinematics.ResultsOfAccelForOneTick(car.Speed, accel, s.cfg.TickSeconds)
	car.DistAlong += deltaDist
	car.Speed = newSpeed

	for {
		limit, err := m.SpeedLimit(car.On)
		if err != nil {
			return car, false, events, &StepError{Car: car.ID, Err: err}
		}
		clamped := car.Vehicle.ClampSpeed(limit)
		if car.Speed > clamped+s.cfg.EpsSpeed {
			return car, false, events, &StepError{Car: car.ID, Err: fmt.Errorf("%w: speed %.6f exceeds clamped limit %.6f on %s",
				ErrSpeedExceeded, car.Speed, clamped, car.On)}
		}

		length, err := m.Length(car.On)
		if err != nil {
			return car, false, events, &StepError{Car: car.ID, Err: err}
		}
		leftover := car.DistAlong - length
		if leftover <= s.cfg.EpsDist {
			if car.DistAlong > length {
				car.DistAlong = length
			}
			if car.DistAlong < 0 {
				car.DistAlong = 0
			}
			break
		}

		if car.On.IsTurn() {
			req := intersections.Request{Car: car.ID, Turn: car.On.ID}
			if err := isect.OnExit(req); err != nil {
				return car, false, events, &StepError{Car: car.ID, Err: fmt.Errorf("%w: %v", ErrIntersectionInvariant, err)}
			}
		}
		events = append(events, simevent.Event{Kind: simevent.AgentLeavesTraversable, Car: car.ID, Traversable: car.On})

		if rt.ShouldVanishAtBorder() {
			return car, true, events, nil
		}

		step, err := rt.FinishedStep(car.On)
		if err != nil {
			return car, false, events, &StepError{Car: car.ID, Err: fmt.Errorf("%w: %v", ErrRouterInvariant, err)}
		}
		switch step.Kind {
		case router.PathStepLane:
			car.On = mapmodel.LaneTraversable(step.Lane)
		case router.PathStepTurn:
			car.On = mapmodel.TurnTraversable(step.Turn)
			req := intersections.Request{Car: car.ID, Turn: step.Turn}
			if err := isect.OnEnter(req); err != nil {
				return car, false, events, &StepError{Car: car.ID, Err: fmt.Errorf("%w: %v", ErrIntersectionInvariant, err)}
			}
		default:
			return car, false, events, &StepError{Car: car.ID, Err: fmt.Errorf("%w: unrecognized path step", ErrRouterInvariant)}
		}
		car.DistAlong = leftover
		events = append(events, simevent.Event{Kind: simevent.AgentEntersTraversable, Car: car.ID, Traversable: car.On})
	}

	return car, false, events, nil
}
