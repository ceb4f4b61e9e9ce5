// Package transitsim is the external transit-subsystem collaborator (SPEC_FULL.md §1):
// bus route progression. The driving core only consults it (via the router) when
// deciding whether a car should stop early at a scheduled stop; the reference
// LinearRouter applies these stops to every vehicle, whatever its kind. The reference
// Sim is a minimal set of named stops along a lane.
package transitsim

import "github.com/traffline/drivingcore/internal/mapmodel"

// Stop is a scheduled transit stop along a lane.
type Stop struct {
	Lane      mapmodel.LaneID
	DistAlong float64
}

// Sim is the contract the driving core (via the router) consumes for transit.
type Sim interface {
	// NextStopOnLane returns the next scheduled stop on lane at or after distAlong, if any.
	NextStopOnLane(lane mapmodel.LaneID, distAlong float64) (Stop, bool)
}

// StaticSim is a reference Sim implementation: a fixed, unordered set of stops.
type StaticSim struct {
	stops []Stop
}

// NewStaticSim builds a StaticSim from a list of stops.
func NewStaticSim(stops []Stop) *StaticSim {
	return &StaticSim{stops: stops}
}

func (s *StaticSim) NextStopOnLane(lane mapmodel.LaneID, distAlong float64) (Stop, bool) {
	best := Stop{}
	found := false
	for _, st := range s.stops {
		if st.Lane != lane || st.DistAlong < distAlong {
			continue
		}
		if !found || st.DistAlong < best.DistAlong {
			best = st
			found = true
		}
	}
	return best, found
}
