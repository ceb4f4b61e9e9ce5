// Package scenario turns a JSON scenario description into a runnable
// driving.State plus the external collaborators it needs, and drives it tick by tick,
// generalizing the teacher's engine.SimulationInput/SimulationLog/NewTMS/Run
// (cxd309-tms-engine/internal/engine/{models.go,engine.go}) from a fixed service/route
// list over a shortest-path graph into the driving core's lane/turn/router/queue model.
package scenario

import (
	"encoding/json"
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/traffline/drivingcore/internal/driving"
	"github.com/traffline/drivingcore/internal/intersections"
	"github.com/traffline/drivingcore/internal/mapmodel"
	"github.com/traffline/drivingcore/internal/parking"
	"github.com/traffline/drivingcore/internal/router"
	"github.com/traffline/drivingcore/internal/transitsim"
	"github.com/traffline/drivingcore/internal/vehicle"
	"github.com/traffline/drivingcore/internal/view"
)

// Meta holds the identity and timing parameters for a scenario run.
type Meta struct {
	ScenarioID string  `json:"scenario_id"`
	RunTime    float64 `json:"run_time"` // seconds
}

// StepDef is the JSON-friendly shape of a router.PathStep.
type StepDef struct {
	Kind string `json:"kind"` // "lane" or "turn"
	ID   string `json:"id"`
}

func (d StepDef) toPathStep() (router.PathStep, error) {
	switch d.Kind {
	case "lane":
		return router.PathStep{Kind: router.PathStepLane, Lane: d.ID}, nil
	case "turn":
		return router.PathStep{Kind: router.PathStepTurn, Turn: d.ID}, nil
	default:
		return router.PathStep{}, fmt.Errorf("scenario: unrecognized step kind %q", d.Kind)
	}
}

// SpotDef is a named parking spot.
type SpotDef struct {
	ID        string  `json:"id"`
	Lane      string  `json:"lane"`
	DistAlong float64 `json:"dist_along"`
}

// CarDef is one car's spawn description.
type CarDef struct {
	ID      string          `json:"id"`
	Trip    string          `json:"trip"`
	Owner   string          `json:"owner,omitempty"`
	Vehicle vehicle.Vehicle `json:"vehicle"`

	StartLane string  `json:"start_lane"`
	StartDist float64 `json:"start_dist"`

	Route []StepDef `json:"route"`

	DestLane       string  `json:"dest_lane,omitempty"`
	DestDist       float64 `json:"dest_dist,omitempty"`
	DestSpot       string  `json:"dest_spot,omitempty"`
	BikeDismount   bool    `json:"bike_dismount,omitempty"`
	VanishAtBorder bool    `json:"vanish_at_border,omitempty"`

	// ParkedAtSpot, if set, means this car starts parked at the named spot and
	// departs at scenario start rather than spawning directly onto the lane.
	ParkedAtSpot string `json:"parked_at_spot,omitempty"`
}

// MapDef is the scenario's static geometry.
type MapDef struct {
	Lanes []mapmodel.Lane `json:"lanes"`
	Turns []mapmodel.Turn `json:"turns"`
}

// Scenario is the full JSON-serializable scenario description.
type Scenario struct {
	Meta  Meta      `json:"scenario_meta"`
	Map   MapDef    `json:"map"`
	Spots []SpotDef `json:"spots"`
	Cars  []CarDef  `json:"cars"`
}

// ParseJSON decodes a Scenario from JSON bytes.
func ParseJSON(data []byte) (Scenario, error) {
	var s Scenario
	if err := json.Unmarshal(data, &s); err != nil {
		return Scenario{}, fmt.Errorf("scenario: parsing JSON: %w", err)
	}
	return s, nil
}

// planFromLanes plans a route from the end of startLane to the start of destLane using
// the map's Floyd-Warshall shortest path, for cars whose scenario definition gives a
// destination but no explicit turn-by-turn route. Only *mapmodel.StaticMap carries path
// planning (SPEC_FULL.md §10.1); a Map built some other way must supply explicit routes.
func planFromLanes(m mapmodel.Map, startLane, destLane mapmodel.LaneID) ([]router.PathStep, error) {
	sm, ok := m.(*mapmodel.StaticMap)
	if !ok {
		return nil, fmt.Errorf("map implementation does not support shortest-path planning")
	}
	start, err := sm.Lane(startLane)
	if err != nil {
		return nil, err
	}
	dest, err := sm.Lane(destLane)
	if err != nil {
		return nil, err
	}
	lanes, _, err := sm.ShortestPath(start.To, dest.From)
	if err != nil {
		return nil, err
	}
	lanes = append([]mapmodel.LaneID{startLane}, lanes...)
	lanes = append(lanes, destLane)
	steps, err := router.PlanSteps(sm, lanes)
	if err != nil {
		return nil, err
	}
	// PlanSteps includes a leading step for startLane itself, which the router must not
	// repeat: the car already occupies it at spawn time.
	return steps[1:], nil
}

func carID(label string) uuid.UUID { return uuid.NewSHA1(uuid.NameSpaceOID, []byte("car:"+label)) }
func tripID(label string) uuid.UUID { return uuid.NewSHA1(uuid.NameSpaceOID, []byte("trip:"+label)) }
func spotID(label string) uuid.UUID { return uuid.NewSHA1(uuid.NameSpaceOID, []byte("spot:"+label)) }

// Built is a Scenario's runnable form: a driving.State plus the external collaborators
// the driving core needs for one Step call, and the spawn requests to admit at t=0.
type Built struct {
	State        *driving.State
	Map          mapmodel.Map
	Parking      parking.Sim
	Intersections intersections.Manager
	Transit      transitsim.Sim
	Spawns       []driving.SpawnRequest
	RunTime      float64
}

// Build constructs the runnable form of s. Parking spots referenced by dest_spot or
// parked_at_spot must appear in s.Spots.
func Build(s Scenario, cfg driving.Config, log logrus.FieldLogger) (Built, error) {
	m, err := mapmodel.NewStaticMap(s.Map.Lanes, s.Map.Turns)
	if err != nil {
		return Built{}, fmt.Errorf("scenario: building map: %w", err)
	}

	spots := make([]parking.Spot, 0, len(s.Spots))
	spotByLabel := make(map[string]parking.Spot, len(s.Spots))
	for _, sd := range s.Spots {
		sp := parking.Spot{ID: spotID(sd.ID), Lane: sd.Lane, DistAlong: sd.DistAlong}
		spots = append(spots, sp)
		spotByLabel[sd.ID] = sp
	}
	parkingSim := parking.NewInMemorySim(spots)

	state := driving.New(cfg, log)
	isect := intersections.NewFCFSManager()
	transit := transitsim.NewStaticSim(nil)

	spawns := make([]driving.SpawnRequest, 0, len(s.Cars))
	for _, cd := range s.Cars {
		var steps []router.PathStep
		if len(cd.Route) > 0 {
			steps = make([]router.PathStep, 0, len(cd.Route))
			for _, sd := range cd.Route {
				ps, err := sd.toPathStep()
				if err != nil {
					return Built{}, fmt.Errorf("scenario: car %q: %w", cd.ID, err)
				}
				steps = append(steps, ps)
			}
		} else if cd.DestLane != "" && cd.DestLane != cd.StartLane {
			var err error
			steps, err = planFromLanes(m, cd.StartLane, cd.DestLane)
			if err != nil {
				return Built{}, fmt.Errorf("scenario: car %q: planning route: %w", cd.ID, err)
			}
		}

		var destSpot *parking.Spot
		if cd.DestSpot != "" {
			sp, ok := spotByLabel[cd.DestSpot]
			if !ok {
				return Built{}, fmt.Errorf("scenario: car %q: unknown dest_spot %q", cd.ID, cd.DestSpot)
			}
			destSpot = &sp
		}

		rt := router.NewLinearRouter(steps, cd.DestLane, cd.DestDist, destSpot, cd.BikeDismount, cd.VanishAtBorder)

		var maybeParked *parking.ParkedCar
		if cd.ParkedAtSpot != "" {
			sp, ok := spotByLabel[cd.ParkedAtSpot]
			if !ok {
				return Built{}, fmt.Errorf("scenario: car %q: unknown parked_at_spot %q", cd.ID, cd.ParkedAtSpot)
			}
			pc := parking.ParkedCar{CarID: carID(cd.ID), Owner: cd.Owner, Spot: sp, Vehicle: cd.Vehicle}
			if err := parkingSim.Occupy(sp.ID, pc); err != nil {
				return Built{}, fmt.Errorf("scenario: car %q: %w", cd.ID, err)
			}
			maybeParked = &pc
		}

		spawns = append(spawns, driving.SpawnRequest{
			Car:         carID(cd.ID),
			Trip:        tripID(cd.Trip),
			Owner:       cd.Owner,
			MaybeParked: maybeParked,
			Vehicle:     cd.Vehicle,
			Lane:        cd.StartLane,
			DistAlong:   cd.StartDist,
			Router:      rt,
		})
	}

	return Built{
		State:         state,
		Map:           m,
		Parking:       parkingSim,
		Intersections: isect,
		Transit:       transit,
		Spawns:        spawns,
		RunTime:       s.Meta.RunTime,
	}, nil
}

// LogRow is a point-in-time snapshot of every active car, taken from one tick's draw
// frame.
type LogRow struct {
	Timestamp float64          `json:"timestamp"`
	Agents    []view.DrawAgent `json:"agents"`
}

// Log is the complete output of a scenario run.
type Log struct {
	Meta   Meta     `json:"scenario_meta"`
	Output []LogRow `json:"output"`
}

// Run drives b tick by tick from t=0 to b.RunTime (inclusive), offering every scenario
// spawn once, at t=0, and returns the resulting Log. A spawn refused at t=0 is dropped
// and is not offered again. rng is threaded through every tick for
// routing fallback determinism (§5). sink, if non-nil, receives each tick's draw frame as
// it is produced — the hook internal/viewstream's publisher is fed through.
func Run(b Built, meta Meta, rng *rand.Rand, sink func(view.DrawFrame)) (Log, error) {
	logOut := Log{Meta: meta}
	pending := b.Spawns
	tick := b.State.Config().TickSeconds

	for t := 0.0; t <= b.RunTime; t += tick {
		result, err := b.State.Step(t, b.Map, b.Parking, b.Intersections, b.Transit, rng, pending)
		if err != nil {
			return Log{}, fmt.Errorf("scenario: at t=%.2f: %w", t, err)
		}
		pending = nil
		for _, parked := range result.Parked {
			if err := b.Parking.Occupy(parked.Spot.ID, parked); err != nil {
				return Log{}, fmt.Errorf("scenario: at t=%.2f: occupying spot for parked car %s: %w", t, parked.CarID, err)
			}
		}
		if sink != nil {
			sink(result.Frame)
		}
		logOut.Output = append(logOut.Output, LogRow{Timestamp: t, Agents: result.Frame.Agents})
	}
	return logOut, nil
}
