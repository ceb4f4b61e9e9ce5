package router

import (
	"fmt"
	"math"

	"github.com/traffline/drivingcore/internal/carstate"
	"github.com/traffline/drivingcore/internal/mapmodel"
	"github.com/traffline/drivingcore/internal/parking"
	"github.com/traffline/drivingcore/internal/transitsim"
)

// DistEps bounds "close enough to call it arrived" for the reference router's
// parking/bike-dismount/dead-end checks. It is a separate constant from, and looser than,
// the driving core's snap-to-end epsilon (driving.Config.EpsDist, 1e-9 by default).
const DistEps = 1e-6

// LinearRouter is a reference Router: a fixed, precomputed sequence of PathSteps,
// optionally ending in a parking maneuver or a bike dismount, optionally vanishing at a
// map border. It is cheap to Clone (the route slice is shared and immutable; only the
// cursor differs), matching SPEC_FULL.md §9's guidance.
type LinearRouter struct {
	steps []PathStep
	idx   int

	destLane mapmodel.LaneID
	destDist float64
	destSpot *parking.Spot // non-nil: route ends by parking at this spot

	bikeDismount   bool // route ends by dismounting a bike, if destSpot is nil
	vanishAtBorder bool // route ends by vanishing at a map border
}

// NewLinearRouter builds a LinearRouter that walks steps in order and then, once
// exhausted, either parks at destSpot (if non-nil), dismounts a bike (bikeDismount),
// vanishes at the border (vanishAtBorder), or vanishes as a dead end (none of the
// above).
func NewLinearRouter(steps []PathStep, destLane mapmodel.LaneID, destDist float64, destSpot *parking.Spot, bikeDismount, vanishAtBorder bool) *LinearRouter {
	return &LinearRouter{
		steps:          steps,
		destLane:       destLane,
		destDist:       destDist,
		destSpot:       destSpot,
		bikeDismount:   bikeDismount,
		vanishAtBorder: vanishAtBorder,
	}
}

func (r *LinearRouter) atRouteEnd() bool { return r.idx >= len(r.steps) }

func (r *LinearRouter) ReactBeforeLookahead(ctx ReactContext) (carstate.Action, bool, error) {
	onDestLane := ctx.CarView.On.IsLane() && ctx.CarView.On.ID == r.destLane
	arrived := onDestLane && math.Abs(ctx.CarView.DistAlong-r.destDist) <= DistEps && ctx.CarView.Speed <= ctx.EpsSpeed

	if r.destSpot != nil && arrived {
		return carstate.Action{Kind: carstate.ActionStartParking, Spot: *r.destSpot}, true, nil
	}
	if r.destSpot == nil && r.bikeDismount && r.atRouteEnd() && arrived {
		return carstate.Action{Kind: carstate.ActionStartParkingBike}, true, nil
	}
	if r.destSpot == nil && !r.bikeDismount && !r.vanishAtBorder && r.atRouteEnd() {
		length, err := ctx.Map.Length(ctx.CarView.On)
		if err != nil {
			return carstate.Action{}, false, err
		}
		if ctx.CarView.DistAlong >= length-DistEps {
			return carstate.Action{Kind: carstate.ActionVanishDeadEnd}, true, nil
		}
	}
	return carstate.Action{}, false, nil
}

func (r *LinearRouter) StopEarlyAtDist(on mapmodel.Traversable, dist float64, m mapmodel.Map, park parking.Sim, transit transitsim.Sim) (float64, bool) {
	if r.destSpot != nil && on.IsLane() && on.ID == r.destLane && r.destDist >= dist {
		return r.destDist, true
	}
	if transit != nil && on.IsLane() {
		if stop, ok := transit.NextStopOnLane(on.ID, dist); ok {
			return stop.DistAlong, true
		}
	}
	return 0, false
}

func (r *LinearRouter) ShouldVanishAtBorder() bool { return r.vanishAtBorder && r.atRouteEnd() }

func (r *LinearRouter) NextStepAsTurn() (mapmodel.TurnID, bool) {
	if r.atRouteEnd() || r.steps[r.idx].Kind != PathStepTurn {
		return "", false
	}
	return r.steps[r.idx].Turn, true
}

func (r *LinearRouter) FinishedStep(on mapmodel.Traversable) (PathStep, error) {
	if r.atRouteEnd() {
		return PathStep{}, fmt.Errorf("router: no step remains after %s", on)
	}
	step := r.steps[r.idx]
	r.idx++
	return step, nil
}

func (r *LinearRouter) TraceRoute(fromDist float64, m mapmodel.Map, distAhead float64) (Trace, bool) {
	if r.atRouteEnd() {
		return Trace{}, false
	}
	trace := Trace{}
	remaining := distAhead
	for i := r.idx; i < len(r.steps) && remaining > 0; i++ {
		tv, err := r.steps[i].AsTraversable()
		if err != nil {
			return Trace{}, false
		}
		length, err := m.Length(tv)
		if err != nil {
			return Trace{}, false
		}
		trace.Points = append(trace.Points, TracePoint{On: tv, DistAlong: fromDist})
		remaining -= length
		fromDist = 0
	}
	return trace, len(trace.Points) > 0
}

// Clone returns an independent cursor over the same immutable route.
func (r *LinearRouter) Clone() Router {
	cp := *r
	return &cp
}
