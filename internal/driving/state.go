// Package driving is the driving sim state and per-tick two-phase step (SPEC_FULL.md
// §4.4–§4.6), the 40%-share core of this module. It is grounded on the teacher's
// cxd309-tms-engine/internal/engine/engine.go step() two-pass structure (a safety pass
// computing braking envelopes, then a motion pass proposing/granting/applying
// movement), generalized from a flat per-service loop into the spec's frozen-view
// react/apply split over lanes, turns, and queues.
package driving

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/traffline/drivingcore/internal/carstate"
	"github.com/traffline/drivingcore/internal/mapmodel"
	"github.com/traffline/drivingcore/internal/orderedmap"
	"github.com/traffline/drivingcore/internal/router"
	"github.com/traffline/drivingcore/internal/simqueue"
)

// State is DrivingSimState (§3): every car, its router, and the per-traversable queues,
// all in insertion-ordered maps for deterministic iteration.
type State struct {
	cfg Config
	log logrus.FieldLogger

	cars    *orderedmap.Map[uuid.UUID, carstate.Car]
	routers *orderedmap.Map[uuid.UUID, router.Router]
	queues  *orderedmap.Map[mapmodel.Traversable, *simqueue.Queue]
	debug   *uuid.UUID
}

// New builds an empty State.
func New(cfg Config, log logrus.FieldLogger) *State {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &State{
		cfg:     cfg,
		log:     log,
		cars:    orderedmap.New[uuid.UUID, carstate.Car](),
		routers: orderedmap.New[uuid.UUID, router.Router](),
		queues:  orderedmap.New[mapmodel.Traversable, *simqueue.Queue](),
	}
}

// Config returns the process-wide constants this State was built with.
func (s *State) Config() Config { return s.cfg }

// NumCars returns the number of cars currently being simulated.
func (s *State) NumCars() int { return s.cars.Len() }

// CarIDs returns every car id, in deterministic (insertion) order.
func (s *State) CarIDs() []uuid.UUID { return s.cars.Keys() }

// Car returns a copy of the car record for id.
func (s *State) Car(id uuid.UUID) (carstate.Car, bool) { return s.cars.Get(id) }

// SetDebug marks id as the single debugged car (or clears debug tracking if id is nil).
func (s *State) SetDebug(id *uuid.UUID) {
	if s.debug != nil {
		if c, ok := s.cars.Get(*s.debug); ok {
			c.Debug = false
			s.cars.Set(*s.debug, c)
		}
	}
	s.debug = id
	if id != nil {
		if c, ok := s.cars.Get(*id); ok {
			c.Debug = true
			s.cars.Set(*id, c)
		}
	}
}

// QueueFor returns the queue for traversable t, or nil if unoccupied.
func (s *State) QueueFor(t mapmodel.Traversable) *simqueue.Queue {
	q, _ := s.queues.Get(t)
	return q
}

// rebuildQueues regroups every car by its current On traversable and rebuilds one
// simqueue.Queue per occupied traversable from scratch, per §4.5's closing step. Returns
// ErrQueueInvariant (wrapped in a StepError) if any traversable's invariants are
// violated.
func (s *State) rebuildQueues(m mapmodel.Map) error {
	byTraversable := make(map[mapmodel.Traversable][]simqueue.Entry)
	order := make([]mapmodel.Traversable, 0)
	for _, id := range s.cars.Keys() {
		c, _ := s.cars.Get(id)
		if c.DistAlong < 0 {
			return stepErr(id, ErrPositionInvariant, "dist_along %.9f < 0", c.DistAlong)
		}
		if _, seen := byTraversable[c.On]; !seen {
			order = append(order, c.On)
		}
		byTraversable[c.On] = append(byTraversable[c.On], simqueue.Entry{
			DistAlong:     c.DistAlong,
			Car:           c.ID,
			FollowingDist: c.Vehicle.FollowingDist(),
		})
	}

	newQueues := orderedmap.New[mapmodel.Traversable, *simqueue.Queue]()
	for _, t := range order {
		length, err := m.Length(t)
		if err != nil {
			return fmt.Errorf("rebuild queues: %w", err)
		}
		entries := byTraversable[t]
		bestCase := bestCaseFollowingDistFor(entries)
		q, err := simqueue.New(t, length, bestCase, entries)
		if err != nil {
			car := uuid.Nil
			if len(entries) > 0 {
				car = entries[0].Car
			}
			return &StepError{Car: car, Err: fmt.Errorf("%w: %v", ErrQueueInvariant, err)}
		}
		newQueues.Set(t, q)
	}
	s.queues = newQueues
	return nil
}

// bestCaseFollowingDistFor picks the smallest following distance among a traversable's
// occupants, which is the tightest (most permissive) capacity bound SimQueue.New should
// check against (§4.2: "at least 1" capacity, bounded by best_case_following_dist()).
func bestCaseFollowingDistFor(entries []simqueue.Entry) float64 {
	best := 0.0
	for i, e := range entries {
		if i == 0 || e.FollowingDist < best {
			best = e.FollowingDist
		}
	}
	return best
}
