package driving

import (
	"math/rand"

	"github.com/google/uuid"

	"github.com/traffline/drivingcore/internal/carstate"
	"github.com/traffline/drivingcore/internal/intersections"
	"github.com/traffline/drivingcore/internal/mapmodel"
	"github.com/traffline/drivingcore/internal/parking"
	"github.com/traffline/drivingcore/internal/simevent"
	"github.com/traffline/drivingcore/internal/simqueue"
	"github.com/traffline/drivingcore/internal/transitsim"
	"github.com/traffline/drivingcore/internal/view"
)

// StepResult is everything one tick of Step produces, beyond the mutated State itself
// (§6's `(Vec<ParkedCar>, Vec<CarID>, Vec<(CarID, Position)>)` plus the draw-input frame).
type StepResult struct {
	Parked          []parking.ParkedCar
	Vanished        []uuid.UUID // border vanishes: the cars that vanished at a border
	VanishedDeadEnd []uuid.UUID // dead-end vanishes: removed, not emitted as border vanishes
	DoneBiking      []BikeDismount
	Events          []simevent.Event
	Frame           view.DrawFrame
}

// Step advances the simulation by exactly one tick (§4.4–§4.7): admits spawns, freezes a
// WorldView, runs react then apply over every car, and rebuilds queues. It is atomic with
// respect to the caller — there is no suspension point mid-tick, so a context passed to an
// enclosing scheduler should only be checked between Step calls, never inside one.
func (s *State) Step(
	now carstate.Tick,
	m mapmodel.Map,
	parkingSim parking.Sim,
	isect intersections.Manager,
	transit transitsim.Sim,
	rng *rand.Rand,
	spawns []SpawnRequest,
) (StepResult, error) {
	var result StepResult

	for _, req := range spawns {
		admitted, events, err := s.StartCarOnLane(req, now, m)
		if err != nil {
			return result, err
		}
		if admitted {
			result.Events = append(result.Events, events...)
		}
	}

	if err := s.rebuildQueues(m); err != nil {
		return result, err
	}

	wv := view.New()
	wv.Queues = s.queuesSnapshot()
	for _, id := range s.cars.Keys() {
		c, _ := s.cars.Get(id)
		wv.Agents[id] = view.AgentView{On: c.On, DistAlong: c.DistAlong, Speed: c.Speed, Vehicle: c.Vehicle, Debug: c.Debug}
	}

	actions, err := s.react(wv, result.Events, now, m, parkingSim, isect, transit, rng)
	if err != nil {
		return result, err
	}

	applied, err := s.apply(actions, now, m, isect)
	if err != nil {
		result.Events = append(result.Events, applied.events...)
		return result, err
	}

	result.Parked = applied.parked
	result.Vanished = applied.vanished
	result.VanishedDeadEnd = applied.vanishedDeadEnd
	result.DoneBiking = applied.doneBiking
	result.Events = append(result.Events, applied.events...)

	if err := s.rebuildQueues(m); err != nil {
		return result, err
	}

	result.Frame = view.Synthesize(now, wv.Agents, result.Events)
	return result, nil
}

// queuesSnapshot returns the contents of s.queues as a plain map, the shape WorldView
// wants; s.queues stays an orderedmap for the driving core's own deterministic bookkeeping.
func (s *State) queuesSnapshot() map[mapmodel.Traversable]*simqueue.Queue {
	out := make(map[mapmodel.Traversable]*simqueue.Queue, s.queues.Len())
	for _, t := range s.queues.Keys() {
		q, _ := s.queues.Get(t)
		out[t] = q
	}
	return out
}
