// Package mapmodel is the external map/geometry collaborator (SPEC_FULL.md §1, out of
// scope for the driving core proper): lanes, turns, distances, and speed limits. It is
// generalized from the teacher's internal/graph package (Node/Edge/Graph with cached
// Floyd-Warshall shortest paths): a graph Node becomes an IntersectionID, a graph Edge
// becomes a Lane, and a Turn connects an inbound lane to an outbound lane at an
// intersection. Turns are supplied explicitly to NewStaticMap; none are synthesized.
package mapmodel

import "fmt"

// IntersectionID, LaneID, TurnID are string identifiers.
type (
	IntersectionID = string
	LaneID         = string
	TurnID         = string
)

// TraversableKind distinguishes a Lane from a Turn.
type TraversableKind int

const (
	KindLane TraversableKind = iota
	KindTurn
)

// Traversable is a tagged reference to either a Lane or a Turn.
type Traversable struct {
	Kind TraversableKind
	ID   string // LaneID or TurnID, depending on Kind
}

func LaneTraversable(id LaneID) Traversable { return Traversable{Kind: KindLane, ID: id} }
func TurnTraversable(id TurnID) Traversable { return Traversable{Kind: KindTurn, ID: id} }

func (t Traversable) IsLane() bool  { return t.Kind == KindLane }
func (t Traversable) IsTurn() bool  { return t.Kind == KindTurn }
func (t Traversable) String() string {
	if t.IsLane() {
		return "lane:" + t.ID
	}
	return "turn:" + t.ID
}

// Lane is a directed road segment between two intersections.
type Lane struct {
	ID         LaneID
	From, To   IntersectionID
	Length     float64 // metres
	SpeedLimit float64 // m/s
}

// Turn is a directed connection through an intersection from one lane to another.
type Turn struct {
	ID         TurnID
	From, To   LaneID
	At         IntersectionID
	Length     float64 // metres, the geometric distance spanning the intersection
	SpeedLimit float64 // m/s, the intersection's turning speed limit
}

// Map is the contract the driving core consumes for geometry: lengths, speed limits, and
// the turns available at the end of a lane.
type Map interface {
	Lane(id LaneID) (Lane, error)
	Turn(id TurnID) (Turn, error)
	Length(t Traversable) (float64, error)
	SpeedLimit(t Traversable) (float64, error)
	// TurnsFrom returns every turn whose From lane is id, in a deterministic order.
	TurnsFrom(id LaneID) ([]Turn, error)
}

// StaticMap is a reference in-memory Map implementation.
type StaticMap struct {
	lanes map[LaneID]Lane
	turns map[TurnID]Turn
	// turnsByFromLane indexes turns by their origin lane, preserving insertion order for
	// determinism.
	turnsByFromLane map[LaneID][]TurnID
	laneOrder       []LaneID
	paths           shortestPaths
}

// NewStaticMap builds a StaticMap from a flat list of lanes and turns, validating that
// every turn's endpoints reference known lanes.
func NewStaticMap(lanes []Lane, turns []Turn) (*StaticMap, error) {
	m := &StaticMap{
		lanes:           make(map[LaneID]Lane, len(lanes)),
		turns:           make(map[TurnID]Turn, len(turns)),
		turnsByFromLane: make(map[LaneID][]TurnID),
	}
	for _, l := range lanes {
		if _, exists := m.lanes[l.ID]; exists {
			return nil, fmt.Errorf("mapmodel: duplicate lane id %q", l.ID)
		}
		m.lanes[l.ID] = l
		m.laneOrder = append(m.laneOrder, l.ID)
	}
	for _, t := range turns {
		if _, exists := m.turns[t.ID]; exists {
			return nil, fmt.Errorf("mapmodel: duplicate turn id %q", t.ID)
		}
		if _, ok := m.lanes[t.From]; !ok {
			return nil, fmt.Errorf("mapmodel: turn %q: unknown from-lane %q", t.ID, t.From)
		}
		if _, ok := m.lanes[t.To]; !ok {
			return nil, fmt.Errorf("mapmodel: turn %q: unknown to-lane %q", t.ID, t.To)
		}
		m.turns[t.ID] = t
		m.turnsByFromLane[t.From] = append(m.turnsByFromLane[t.From], t.ID)
	}
	return m, nil
}

func (m *StaticMap) Lane(id LaneID) (Lane, error) {
	l, ok := m.lanes[id]
	if !ok {
		return Lane{}, fmt.Errorf("mapmodel: lane %q not found", id)
	}
	return l, nil
}

func (m *StaticMap) Turn(id TurnID) (Turn, error) {
	t, ok := m.turns[id]
	if !ok {
		return Turn{}, fmt.Errorf("mapmodel: turn %q not found", id)
	}
	return t, nil
}

func (m *StaticMap) Length(t Traversable) (float64, error) {
	if t.IsLane() {
		l, err := m.Lane(t.ID)
		return l.Length, err
	}
	tn, err := m.Turn(t.ID)
	return tn.Length, err
}

func (m *StaticMap) SpeedLimit(t Traversable) (float64, error) {
	if t.IsLane() {
		l, err := m.Lane(t.ID)
		return l.SpeedLimit, err
	}
	tn, err := m.Turn(t.ID)
	return tn.SpeedLimit, err
}

func (m *StaticMap) TurnsFrom(id LaneID) ([]Turn, error) {
	if _, ok := m.lanes[id]; !ok {
		return nil, fmt.Errorf("mapmodel: lane %q not found", id)
	}
	ids := m.turnsByFromLane[id]
	out := make([]Turn, 0, len(ids))
	for _, tid := range ids {
		out = append(out, m.turns[tid])
	}
	return out, nil
}
