package mapmodel

import (
	"fmt"
	"math"
	"sync"
)

// shortestPaths is the cached Floyd-Warshall result over a StaticMap's intersections,
// generalized from the teacher's internal/graph/shortestpath.go: a graph Node becomes an
// IntersectionID and a graph Edge becomes a Lane. computed lazily and once, since a
// StaticMap's topology never changes after NewStaticMap returns (unlike the teacher's
// mutable Graph, which invalidates the cache on every AddNode/AddEdge).
type shortestPaths struct {
	once sync.Once
	dist map[IntersectionID]map[IntersectionID]float64
	// viaLane records the lane taken out of i on the shortest path toward j.
	viaLane map[IntersectionID]map[IntersectionID]LaneID
}

func (m *StaticMap) compute() {
	m.paths.once.Do(func() {
		ids := make(map[IntersectionID]struct{})
		for _, l := range m.lanes {
			ids[l.From] = struct{}{}
			ids[l.To] = struct{}{}
		}

		dist := make(map[IntersectionID]map[IntersectionID]float64, len(ids))
		via := make(map[IntersectionID]map[IntersectionID]LaneID, len(ids))
		for i := range ids {
			dist[i] = make(map[IntersectionID]float64, len(ids))
			via[i] = make(map[IntersectionID]LaneID, len(ids))
			for j := range ids {
				dist[i][j] = math.Inf(1)
			}
			dist[i][i] = 0
		}
		for _, id := range m.laneOrder {
			l := m.lanes[id]
			if l.Length < dist[l.From][l.To] {
				dist[l.From][l.To] = l.Length
				via[l.From][l.To] = l.ID
			}
		}
		for k := range ids {
			for i := range ids {
				for j := range ids {
					if d := dist[i][k] + dist[k][j]; d < dist[i][j] {
						dist[i][j] = d
						via[i][j] = via[i][k]
					}
				}
			}
		}
		m.paths.dist = dist
		m.paths.viaLane = via
	})
}

// ShortestPath returns the ordered sequence of LaneIDs forming the shortest route from
// intersection `from` to intersection `to` (in total lane length), using a cached
// Floyd-Warshall computation. It is the reference router's path-planning primitive:
// SPEC_FULL.md's Router contract takes a precomputed PathStep sequence, and this is how
// the reference implementation produces one instead of requiring every scenario to list
// routes by hand.
func (m *StaticMap) ShortestPath(from, to IntersectionID) ([]LaneID, float64, error) {
	m.compute()
	if from == to {
		return nil, 0, nil
	}
	total, ok := m.paths.dist[from][to]
	if !ok || math.IsInf(total, 1) {
		return nil, 0, fmt.Errorf("mapmodel: no path from intersection %q to %q", from, to)
	}

	var lanes []LaneID
	cur := from
	for cur != to {
		lane, ok := m.paths.viaLane[cur][to]
		if !ok {
			return nil, 0, fmt.Errorf("mapmodel: broken path reconstruction from %q to %q", from, to)
		}
		lanes = append(lanes, lane)
		cur = m.lanes[lane].To
	}
	return lanes, total, nil
}
