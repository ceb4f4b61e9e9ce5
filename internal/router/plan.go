package router

import (
	"fmt"

	"github.com/traffline/drivingcore/internal/mapmodel"
)

// PlanSteps interleaves a bare lane sequence (as returned by mapmodel.StaticMap's
// Floyd-Warshall ShortestPath) with the Turn connecting each consecutive pair, producing
// the PathStep sequence a LinearRouter consumes. It is the reference router's bridge
// between path planning (mapmodel) and path following (this package): nothing in the
// driving core calls it directly, only scenario construction.
func PlanSteps(m mapmodel.Map, lanes []mapmodel.LaneID) ([]PathStep, error) {
	if len(lanes) == 0 {
		return nil, nil
	}
	steps := make([]PathStep, 0, len(lanes)*2-1)
	steps = append(steps, PathStep{Kind: PathStepLane, Lane: lanes[0]})
	for i := 1; i < len(lanes); i++ {
		turns, err := m.TurnsFrom(lanes[i-1])
		if err != nil {
			return nil, fmt.Errorf("router: planning steps: %w", err)
		}
		var turnID mapmodel.TurnID
		found := false
		for _, t := range turns {
			if t.To == lanes[i] {
				turnID = t.ID
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("router: planning steps: no turn from lane %q to lane %q", lanes[i-1], lanes[i])
		}
		steps = append(steps, PathStep{Kind: PathStepTurn, Turn: turnID})
		steps = append(steps, PathStep{Kind: PathStepLane, Lane: lanes[i]})
	}
	return steps, nil
}
