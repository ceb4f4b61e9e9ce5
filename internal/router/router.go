// Package router defines the Router external collaborator (§4.3) and PathStep, the
// driving core's view of "what traversable comes next". There is no teacher analogue —
// cxd309-tms-engine services follow a fixed route by intersection id with no lookahead
// abstraction — so this package is built directly from SPEC_FULL.md §4.3.
package router

import (
	"fmt"
	"math/rand"

	"github.com/traffline/drivingcore/internal/carstate"
	"github.com/traffline/drivingcore/internal/mapmodel"
	"github.com/traffline/drivingcore/internal/parking"
	"github.com/traffline/drivingcore/internal/simevent"
	"github.com/traffline/drivingcore/internal/transitsim"
	"github.com/traffline/drivingcore/internal/view"
)

// PathStepKind discriminates the variants of PathStep.
type PathStepKind int

const (
	PathStepLane PathStepKind = iota
	PathStepTurn
)

// PathStep is the next traversable a router hands the driving core, on request.
type PathStep struct {
	Kind PathStepKind
	Lane mapmodel.LaneID
	Turn mapmodel.TurnID
}

// AsTraversable converts a PathStep to the Traversable the driving core advances onto.
func (p PathStep) AsTraversable() (mapmodel.Traversable, error) {
	switch p.Kind {
	case PathStepLane:
		return mapmodel.LaneTraversable(p.Lane), nil
	case PathStepTurn:
		return mapmodel.TurnTraversable(p.Turn), nil
	default:
		return mapmodel.Traversable{}, fmt.Errorf("router: unrecognized path step kind %d", p.Kind)
	}
}

// TracePoint is one point along a traced route.
type TracePoint struct {
	On        mapmodel.Traversable
	DistAlong float64
}

// Trace is a short lookahead polyline, used by external collaborators (e.g. a renderer
// or a lane-change heuristic this module does not implement) to see where a car is
// headed.
type Trace struct {
	Points []TracePoint
}

// ReactContext carries everything a Router needs to decide a pre-lookahead terminal
// action or a stop-early distance, without letting it mutate the Car directly.
type ReactContext struct {
	Events  []simevent.Event
	CarView view.AgentView
	Time    carstate.Tick
	Map     mapmodel.Map
	Parking parking.Sim
	Transit transitsim.Sim
	RNG     *rand.Rand
	// EpsSpeed is the process-wide "effectively stopped" threshold, passed through so
	// routers never hardcode it.
	EpsSpeed float64
}

// Router is the external per-car routing collaborator (§4.3). The driving core treats
// it as a black box; during the lookahead walk of react it operates on a Clone, never
// the original, so the real router only ever advances via FinishedStep during apply.
type Router interface {
	// ReactBeforeLookahead lets the router short-circuit react with a terminal action
	// (begin parking, begin bike dismount, vanish at dead end) before any lookahead
	// scanning happens. ok is false if the router has no terminal action to offer.
	ReactBeforeLookahead(ctx ReactContext) (action carstate.Action, ok bool, err error)

	// StopEarlyAtDist reports whether the router wants the car to stop before the end
	// of traversable on — e.g. approaching a parking spot or a transit stop — at or
	// after dist. ok is false if there is no such constraint on this traversable.
	StopEarlyAtDist(on mapmodel.Traversable, dist float64, m mapmodel.Map, park parking.Sim, transit transitsim.Sim) (stopAt float64, ok bool)

	// ShouldVanishAtBorder reports whether this car should vanish (rather than error)
	// when it runs out of route at a map border.
	ShouldVanishAtBorder() bool

	// NextStepAsTurn returns the TurnID of the next step, if the router's next step is
	// a turn.
	NextStepAsTurn() (mapmodel.TurnID, bool)

	// FinishedStep advances the router past the traversable on and returns the next
	// step. Calling it when no step remains is an error.
	FinishedStep(on mapmodel.Traversable) (PathStep, error)

	// TraceRoute returns a lookahead polyline over the remaining route, starting at
	// fromDist and extending about distAhead metres ahead, if the router can produce one.
	TraceRoute(fromDist float64, m mapmodel.Map, distAhead float64) (Trace, bool)

	// Clone returns an independent copy whose cursor can be advanced by the lookahead
	// walk without affecting the original.
	Clone() Router
}
