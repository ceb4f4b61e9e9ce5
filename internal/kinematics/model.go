// Package kinematics defines the pure, single-tick Euler motion primitives used by the
// driving core, along with a pluggable Model interface for vehicle traction/braking
// physics.
//
// Adding a new physics model requires only implementing Model and registering it in the
// JSON discriminator in internal/vehicle — the driving core itself never needs to change.
//
// All distance values are in metres, velocities in m/s, accelerations in m/s², and time
// in seconds.
package kinematics

import (
	"errors"
	"fmt"
	"math"
)

// ErrInfeasible is the sentinel wrapped by every kinematic computation that has no
// physically valid solution (the spec's KinematicError).
var ErrInfeasible = errors.New("kinematics: infeasible")

// Model is the physics contract every kinematics implementation must satisfy.
type Model interface {
	// VMax returns the vehicle's maximum permissible speed (m/s).
	VMax() float64

	// MaxAccel returns the vehicle's maximum traction acceleration (m/s², positive).
	MaxAccel() float64

	// MaxDeaccel returns the vehicle's maximum braking deceleration (m/s², positive).
	MaxDeaccel() float64

	// AccelerateStep advances the vehicle toward targetV over dt seconds.
	// Handles mid-step transitions: if targetV is reached before dt expires, the
	// vehicle cruises at targetV for the remainder of the timestep.
	AccelerateStep(v, targetV, dt float64) (dist, newV float64)

	// DecelerateStep brakes the vehicle toward targetV (≥ 0) over dt seconds, with the
	// same mid-step handling as AccelerateStep.
	DecelerateStep(v, targetV, dt float64) (dist, newV float64)
}

// ResultsOfAccelForOneTick integrates a single tick of constant acceleration a applied to
// speed v over duration dt. If v+a·dt would go negative, the vehicle is clamped to a full
// stop and the integration covers only the time actually spent moving.
func ResultsOfAccelForOneTick(v, a, dt float64) (deltaDist, newSpeed float64) {
	candidate := v + a*dt
	if candidate >= 0 {
		return v*dt + 0.5*a*dt*dt, candidate
	}
	// Stops before dt elapses: solve v + a*tStop = 0.
	if a >= 0 {
		// v is already negative and not accelerating away from zero; nothing to integrate.
		return 0, 0
	}
	tStop := -v / a
	return v*tStop + 0.5*a*tStop*tStop, 0
}

// AccelToAchieveSpeedInOneTick returns the constant acceleration that takes v to target
// over exactly one tick of duration dt.
func AccelToAchieveSpeedInOneTick(v, target, dt float64) float64 {
	return (target - v) / dt
}

// AccelToStopInDist solves for the constant deceleration that brings v to exactly zero
// over distance dist. Returns ErrInfeasible if dist <= 0.
func AccelToStopInDist(v, dist float64) (float64, error) {
	if dist <= 0 {
		return 0, fmt.Errorf("%w: cannot stop in non-positive distance %.6f", ErrInfeasible, dist)
	}
	return -(v * v) / (2 * dist), nil
}

// StoppingDistance returns the distance needed to brake from v to a stop at deceleration
// maxDeaccel (m/s², positive). Returns +Inf if maxDeaccel <= 0.
func StoppingDistance(v, maxDeaccel float64) float64 {
	if maxDeaccel <= 0 {
		return math.Inf(1)
	}
	return (v * v) / (2 * maxDeaccel)
}

// AccelToFollow returns the maximum acceleration the follower (speed vSelf, following
// distance followingDist) may take this tick such that, under worst-case braking by the
// leader (speed vLead, deceleration leadMaxDeaccel) over the current gap, the follower
// still stops with at least followingDist of clearance. Returns ErrInfeasible if the gap
// is already too small for any deceleration to guarantee that clearance.
func AccelToFollow(vSelf, gap, followingDist, vLead, leadMaxDeaccel float64) (float64, error) {
	leadStopDist := StoppingDistance(vLead, leadMaxDeaccel)
	budget := gap + leadStopDist - followingDist
	a, err := AccelToStopInDist(vSelf, budget)
	if err != nil {
		return 0, fmt.Errorf("accel to follow: %w", err)
	}
	return a, nil
}

// MaxLookaheadDist returns the maximum distance a vehicle travelling at v, with speed
// limit limit and traction acceleration maxAccel, might need to scan this tick to avoid
// running past a constraint on the next tick: the distance covered if it accelerates at
// maxAccel toward limit for one tick. Returns ErrInfeasible if dt <= 0.
func MaxLookaheadDist(v, limit, maxAccel, dt float64) (float64, error) {
	if dt <= 0 {
		return 0, fmt.Errorf("%w: non-positive tick length %.6f", ErrInfeasible, dt)
	}
	target := limit
	if target < v {
		target = v
	}
	dist, _ := ResultsOfAccelForOneTick(v, maxAccel, dt)
	// Never propose scanning less than the distance travelled at the (higher of current
	// speed or limit) cruise speed for one tick — a vehicle already above the limit still
	// needs to see that far ahead.
	cruise := target * dt
	if cruise > dist {
		dist = cruise
	}
	return dist, nil
}
