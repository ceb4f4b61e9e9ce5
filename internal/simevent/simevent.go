// Package simevent defines the events the driving core emits each tick (§6).
package simevent

import (
	"github.com/google/uuid"

	"github.com/traffline/drivingcore/internal/mapmodel"
)

// Kind discriminates the two event variants the driving core emits.
type Kind int

const (
	// AgentEntersTraversable is emitted exactly when a car begins occupying a
	// traversable: at spawn, and whenever apply crosses into a new lane or turn.
	AgentEntersTraversable Kind = iota
	// AgentLeavesTraversable is emitted exactly when a car stops occupying a
	// traversable, always before the matching AgentEntersTraversable for the next one.
	AgentLeavesTraversable
)

// Event is a single (car, traversable) transition.
type Event struct {
	Kind        Kind
	Car         uuid.UUID
	Traversable mapmodel.Traversable
}
