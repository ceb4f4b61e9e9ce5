package driving

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"

	"github.com/traffline/drivingcore/internal/carstate"
	"github.com/traffline/drivingcore/internal/intersections"
	"github.com/traffline/drivingcore/internal/kinematics"
	"github.com/traffline/drivingcore/internal/mapmodel"
	"github.com/traffline/drivingcore/internal/parking"
	"github.com/traffline/drivingcore/internal/router"
	"github.com/traffline/drivingcore/internal/simevent"
	"github.com/traffline/drivingcore/internal/transitsim"
	"github.com/traffline/drivingcore/internal/view"
)

// react runs the reaction phase (§4.4) over every car, in CarID-insertion order, and
// returns the Action chosen for each. It never mutates s.cars/s.routers; the lookahead
// walk for each car mutates only a Clone of that car's router.
func (s *State) react(
	wv view.WorldView,
	events []simevent.Event,
	now carstate.Tick,
	m mapmodel.Map,
	parkingSim parking.Sim,
	isect intersections.Manager,
	transit transitsim.Sim,
	rng *rand.Rand,
) (map[uuid.UUID]carstate.Action, error) {
	actions := make(map[uuid.UUID]carstate.Action, s.cars.Len())
	for _, id := range s.cars.Keys() {
		car, _ := s.cars.Get(id)
		rt, _ := s.routers.Get(id)
		action, err := s.reactOne(car, rt, wv, events, now, m, parkingSim, isect, transit, rng)
		if err != nil {
			return nil, err
		}
		actions[id] = action
	}
	return actions, nil
}

func (s *State) reactOne(
	car carstate.Car,
	rt router.Router,
	wv view.WorldView,
	events []simevent.Event,
	now carstate.Tick,
	m mapmodel.Map,
	parkingSim parking.Sim,
	isect intersections.Manager,
	transit transitsim.Sim,
	rng *rand.Rand,
) (carstate.Action, error) {
	if car.Parking != nil {
		return carstate.Action{Kind: carstate.ActionWorkOnParking}, nil
	}

	lookaheadRouter := rt.Clone()
	ctx := router.ReactContext{
		Events:   events,
		CarView:  wv.Agents[car.ID],
		Time:     now,
		Map:      m,
		Parking:  parkingSim,
		Transit:  transit,
		RNG:      rng,
		EpsSpeed: s.cfg.EpsSpeed,
	}
	if action, ok, err := lookaheadRouter.ReactBeforeLookahead(ctx); err != nil {
		return carstate.Action{}, &StepError{Car: car.ID, Err: err}
	} else if ok {
		return action, nil
	}

	return s.reactLookahead(car, lookaheadRouter, wv, m, parkingSim, isect, transit)
}

// reactLookahead implements the constraint-accumulation walk of §4.4.
func (s *State) reactLookahead(
	car carstate.Car,
	lookaheadRouter router.Router,
	wv view.WorldView,
	m mapmodel.Map,
	parkingSim parking.Sim,
	isect intersections.Manager,
	transit transitsim.Sim,
) (carstate.Action, error) {
	dt := s.cfg.TickSeconds

	limit, err := m.SpeedLimit(car.On)
	if err != nil {
		return carstate.Action{}, &StepError{Car: car.ID, Err: err}
	}
	lookaheadBudget, err := car.Vehicle.MaxLookaheadDist(car.Speed, limit, dt)
	if err != nil {
		return carstate.Action{}, &StepError{Car: car.ID, Err: fmt.Errorf("%w: %v", ErrKinematic, err)}
	}
	lookaheadBudget += car.Vehicle.WorstCaseFollowingDist()

	currentOn := car.On
	currentDistAlong := car.DistAlong
	distScannedAhead := 0.0

	var constraints []float64
	var requests []intersections.Request

	for {
		curLimit, err := m.SpeedLimit(currentOn)
		if err != nil {
			return carstate.Action{}, &StepError{Car: car.ID, Err: err}
		}
		constraints = append(constraints, kinematics.AccelToAchieveSpeedInOneTick(car.Speed, car.Vehicle.ClampSpeed(curLimit), dt))

		if leader, ok := wv.LeaderAhead(currentOn, currentDistAlong); ok {
			distBehind := distScannedAhead + (leader.DistAlong - currentDistAlong)
			if distScannedAhead+lookaheadBudget+leader.Vehicle.FollowingDist() >= distBehind {
				a, err := car.Vehicle.AccelToFollow(car.Speed, distBehind, leader.Speed, leader.Vehicle.Kinem.MaxDeaccel())
				if err != nil {
					return carstate.Action{}, &StepError{Car: car.ID, Err: fmt.Errorf("%w: %v", ErrKinematic, err)}
				}
				constraints = append(constraints, a)
			}
		}

		stopped := false
		if currentOn.IsLane() {
			length, err := m.Length(currentOn)
			if err != nil {
				return carstate.Action{}, &StepError{Car: car.ID, Err: err}
			}
			stopAt, hasStop := lookaheadRouter.StopEarlyAtDist(currentOn, currentDistAlong, m, parkingSim, transit)
			distToStopAt := length
			if hasStop {
				distToStopAt = stopAt
			}
			distFromStop := distToStopAt - currentDistAlong

			if lookaheadBudget >= distFromStop {
				mustStop := hasStop
				if !hasStop {
					if lookaheadRouter.ShouldVanishAtBorder() {
						stopped = true // do not constrain; break lookahead without a stop constraint
					} else if nextTurn, hasTurn := lookaheadRouter.NextStepAsTurn(); hasTurn {
						req := intersections.Request{Car: car.ID, Turn: nextTurn}
						if isect.RequestGranted(req) {
							mustStop = false
						} else {
							requests = append(requests, req)
							mustStop = true
						}
					} else {
						// Dead end: no turn and not a border. Stop at the end; the router
						// resolves this definitively once the car actually reaches it.
						mustStop = true
					}
				}
				if mustStop {
					a, err := kinematics.AccelToStopInDist(car.Speed, distFromStop)
					if err != nil {
						return carstate.Action{}, &StepError{Car: car.ID, Err: fmt.Errorf("%w: %v", ErrKinematic, err)}
					}
					constraints = append(constraints, a)
					stopped = true
				}
			}
		}
		if stopped {
			break
		}

		length, err := m.Length(currentOn)
		if err != nil {
			return carstate.Action{}, &StepError{Car: car.ID, Err: err}
		}
		distThisStep := length - currentDistAlong
		lookaheadBudget -= distThisStep
		if lookaheadBudget <= 0 {
			break
		}
		step, err := lookaheadRouter.FinishedStep(currentOn)
		if err != nil {
			return carstate.Action{}, &StepError{Car: car.ID, Err: fmt.Errorf("%w: %v", ErrRouterInvariant, err)}
		}
		next, err := step.AsTraversable()
		if err != nil {
			return carstate.Action{}, &StepError{Car: car.ID, Err: fmt.Errorf("%w: %v", ErrRouterInvariant, err)}
		}
		currentOn = next
		currentDistAlong = 0
		distScannedAhead += distThisStep
	}

	safeAccel := constraints[0]
	for _, c := range constraints[1:] {
		if c < safeAccel {
			safeAccel = c
		}
	}
	return carstate.Action{Kind: carstate.ActionContinue, Accel: car.Vehicle.ClampAccel(safeAccel), Requests: requests}, nil
}
