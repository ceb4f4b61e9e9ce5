// Package intersections is the external intersection-subsystem collaborator (SPEC_FULL.md
// §1 and §5): request grant, enter/exit accounting for turns. It generalizes the
// teacher's movement-authority envelope check (cxd309-tms-engine/internal/engine/engine.go
// computeMaxAllowedDistance, "don't enter another service's braking-distance envelope")
// into a per-turn grant/submit/enter/exit protocol: each Turn is a single-occupancy
// resource, requests queue first-come-first-served, and on_enter/on_exit bracket exactly
// one car's traversal at a time, matching §5's invariant.
package intersections

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/traffline/drivingcore/internal/mapmodel"
)

// ErrIntersectionInvariant is the sentinel for violations of the "one occupant per turn"
// invariant (the spec's IntersectionInvariant).
var ErrIntersectionInvariant = errors.New("intersections: invariant violated")

// Request is a (car, turn) tuple submitted to the intersection subsystem seeking
// admission through the turn.
type Request struct {
	Car  uuid.UUID
	Turn mapmodel.TurnID
}

// Manager is the contract the driving core consumes. RequestGranted and SubmitRequest
// are read-only/idempotent and safe to call during react; OnEnter/OnExit are the
// non-idempotent boundary verbs called during apply.
type Manager interface {
	// RequestGranted reports whether req currently has the green light (read-only).
	RequestGranted(req Request) bool
	// SubmitRequest records req as waiting for admission. Idempotent: submitting the
	// same request twice in a tick produces the same queued set.
	SubmitRequest(req Request)
	// OnEnter must be called exactly once when a car crosses into the turn. Returns
	// ErrIntersectionInvariant if the turn is already occupied by a different car.
	OnEnter(req Request) error
	// OnExit must be called exactly once when a car crosses out of the turn.
	OnExit(req Request) error
}

// FCFSManager is a reference Manager: each turn admits one car at a time, in the order
// requests were first submitted.
type FCFSManager struct {
	mu       sync.Mutex
	occupant map[mapmodel.TurnID]uuid.UUID
	queue    map[mapmodel.TurnID][]uuid.UUID
}

// NewFCFSManager builds an empty FCFSManager.
func NewFCFSManager() *FCFSManager {
	return &FCFSManager{
		occupant: make(map[mapmodel.TurnID]uuid.UUID),
		queue:    make(map[mapmodel.TurnID][]uuid.UUID),
	}
}

func (m *FCFSManager) RequestGranted(req Request) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if occ, busy := m.occupant[req.Turn]; busy && occ != req.Car {
		return false
	}
	q := m.queue[req.Turn]
	if len(q) == 0 {
		return true
	}
	return q[0] == req.Car
}

func (m *FCFSManager) SubmitRequest(req Request) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if occ, busy := m.occupant[req.Turn]; busy && occ == req.Car {
		return
	}
	for _, c := range m.queue[req.Turn] {
		if c == req.Car {
			return // already queued: idempotent
		}
	}
	m.queue[req.Turn] = append(m.queue[req.Turn], req.Car)
}

func (m *FCFSManager) OnEnter(req Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if occ, busy := m.occupant[req.Turn]; busy && occ != req.Car {
		return fmt.Errorf("%w: turn %q already occupied by %s, car %s entered",
			ErrIntersectionInvariant, req.Turn, occ, req.Car)
	}
	m.occupant[req.Turn] = req.Car
	m.queue[req.Turn] = removeCar(m.queue[req.Turn], req.Car)
	return nil
}

func (m *FCFSManager) OnExit(req Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	occ, busy := m.occupant[req.Turn]
	if !busy || occ != req.Car {
		return fmt.Errorf("%w: turn %q exited by %s but occupant is %s",
			ErrIntersectionInvariant, req.Turn, req.Car, occ)
	}
	delete(m.occupant, req.Turn)
	return nil
}

func removeCar(q []uuid.UUID, car uuid.UUID) []uuid.UUID {
	out := q[:0]
	for _, c := range q {
		if c != car {
			out = append(out, c)
		}
	}
	return out
}
