// Package view implements the frozen-view pattern (§4.7): a read-only, tick-start
// snapshot of every car's position and the per-traversable queues, consumed only by the
// reaction phase, plus a renderer-agnostic DrawFrame synthesized from that same
// snapshot.
package view

import (
	"sort"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/traffline/drivingcore/internal/mapmodel"
	"github.com/traffline/drivingcore/internal/simevent"
	"github.com/traffline/drivingcore/internal/simqueue"
	"github.com/traffline/drivingcore/internal/vehicle"
)

// AgentView is a read-only snapshot of one car's (on, dist_along, speed, vehicle).
type AgentView struct {
	On        mapmodel.Traversable
	DistAlong float64
	Speed     float64
	Vehicle   vehicle.Vehicle
	Debug     bool
}

// WorldView is the frozen, tick-start snapshot the reaction phase reads. The driving
// core copies its live queue references into Queues before react; after apply it
// rebuilds its own queues from scratch and leaves this snapshot untouched. The reaction
// phase must never read queues any other way.
type WorldView struct {
	Agents map[uuid.UUID]AgentView
	Queues map[mapmodel.Traversable]*simqueue.Queue
}

// New builds an empty WorldView ready to receive queues and agents.
func New() WorldView {
	return WorldView{
		Agents: make(map[uuid.UUID]AgentView),
		Queues: make(map[mapmodel.Traversable]*simqueue.Queue),
	}
}

// QueueFor returns the queue for traversable t, or nil if no car currently occupies it.
func (v WorldView) QueueFor(t mapmodel.Traversable) *simqueue.Queue {
	return v.Queues[t]
}

// LeaderAhead returns the nearest car strictly ahead of (on, distAlong), if any, read
// via the frozen queue snapshot.
func (v WorldView) LeaderAhead(on mapmodel.Traversable, distAlong float64) (AgentView, bool) {
	q := v.Queues[on]
	if q == nil {
		return AgentView{}, false
	}
	e, ok := q.NextCarInFrontOf(distAlong)
	if !ok {
		return AgentView{}, false
	}
	return v.Agents[e.Car], true
}

// DrawFrame is a flattened, renderer-agnostic snapshot of one tick, synthesized from the
// same frozen agents/events the reaction phase saw — it is never read back by the
// simulation. See internal/viewstream for a live transport.
type DrawFrame struct {
	Tick   float64
	Agents []DrawAgent
	Events []simevent.Event
}

// DrawAgent is one car's renderer-facing state.
type DrawAgent struct {
	Car         uuid.UUID
	Traversable mapmodel.Traversable
	DistAlong   float64
	Speed       float64
	VehicleKind vehicle.Kind
	Length      float64
	Debug       bool
}

// Synthesize builds a DrawFrame from a WorldView snapshot and the events collected
// during the tick that snapshot belongs to. Agents are emitted in CarID order: a plain
// map range would make draw-input order nondeterministic between otherwise-identical
// runs, which would make recorded frames useless for diffing.
func Synthesize(tick float64, agents map[uuid.UUID]AgentView, events []simevent.Event) DrawFrame {
	ids := lo.Keys(agents)
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	frame := DrawFrame{Tick: tick, Events: events}
	for _, id := range ids {
		a := agents[id]
		frame.Agents = append(frame.Agents, DrawAgent{
			Car:         id,
			Traversable: a.On,
			DistAlong:   a.DistAlong,
			Speed:       a.Speed,
			VehicleKind: a.Vehicle.Kind,
			Length:      a.Vehicle.Length,
			Debug:       a.Debug,
		})
	}
	return frame
}
