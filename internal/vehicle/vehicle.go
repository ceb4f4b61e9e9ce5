// Package vehicle defines the immutable Vehicle descriptor (§3) and the helpers the
// driving core uses to clamp speed/acceleration and derive following/stopping distances
// from a pluggable kinematics.Model.
package vehicle

import (
	"encoding/json"
	"fmt"

	"github.com/traffline/drivingcore/internal/kinematics"
)

// Kind classifies a vehicle for routing and rendering purposes.
type Kind string

const (
	KindCar  Kind = "car"
	KindBus  Kind = "bus"
	KindBike Kind = "bike"
)

// Vehicle is the immutable physical descriptor of one vehicle type. The physics of
// acceleration and braking are encapsulated by Kinem; adding a new model only requires
// implementing kinematics.Model and registering it in UnmarshalJSON below — no driving
// core code needs to change.
type Vehicle struct {
	Kind   Kind             `json:"-"`
	Length float64          `json:"length"` // metres
	Kinem  kinematics.Model `json:"-"`      // set by UnmarshalJSON
}

// New constructs a Vehicle directly (bypassing JSON), useful for tests and the scenario
// builder.
func New(kind Kind, length float64, kinem kinematics.Model) Vehicle {
	return Vehicle{Kind: kind, Length: length, Kinem: kinem}
}

// FollowingDist returns the nominal gap (rear of leader to front of follower) this
// vehicle maintains while cruising: half a vehicle length of buffer plus one metre, a
// simple speed-independent constant used throughout the
// driving core's lookahead and queue invariants.
func (v Vehicle) FollowingDist() float64 {
	return v.Length/2 + 1.0
}

// WorstCaseFollowingDist is the following distance used when a vehicle might be braking
// from full speed — the largest gap the driving core ever needs to reserve for this
// vehicle.
func (v Vehicle) WorstCaseFollowingDist() float64 {
	return v.FollowingDist() + v.Length
}

// BestCaseFollowingDist is the smallest gap ever permitted between two vehicles of this
// type (used to bound SimQueue capacity).
func (v Vehicle) BestCaseFollowingDist() float64 {
	return v.FollowingDist()
}

// ClampSpeed returns the lesser of this vehicle's max speed and a limit (e.g. the current
// traversable's speed limit).
func (v Vehicle) ClampSpeed(limit float64) float64 {
	if vmax := v.Kinem.VMax(); vmax < limit {
		return vmax
	}
	return limit
}

// ClampAccel bounds a computed acceleration to this vehicle's physical envelope:
// [-MaxDeaccel, +MaxAccel].
func (v Vehicle) ClampAccel(a float64) float64 {
	if a > v.Kinem.MaxAccel() {
		return v.Kinem.MaxAccel()
	}
	if a < -v.Kinem.MaxDeaccel() {
		return -v.Kinem.MaxDeaccel()
	}
	return a
}

// MaxLookaheadDist is the distance this vehicle might need to scan ahead this tick; see
// kinematics.MaxLookaheadDist.
func (v Vehicle) MaxLookaheadDist(speed, limit, dt float64) (float64, error) {
	return kinematics.MaxLookaheadDist(speed, limit, v.Kinem.MaxAccel(), dt)
}

// StoppingDistance is the distance needed to brake to a stop from speed.
func (v Vehicle) StoppingDistance(speed float64) float64 {
	return kinematics.StoppingDistance(speed, v.Kinem.MaxDeaccel())
}

// AccelToFollow returns the max acceleration this vehicle may take this tick to keep
// following_dist clearance behind a leader of speed vLead and deceleration
// leadMaxDeaccel, currently gap metres ahead.
func (v Vehicle) AccelToFollow(speed, gap, vLead, leadMaxDeaccel float64) (float64, error) {
	return kinematics.AccelToFollow(speed, gap, v.FollowingDist(), vLead, leadMaxDeaccel)
}

// vehicleJSON is the raw JSON shape of a Vehicle, before the kinematics model is resolved.
type vehicleJSON struct {
	Kind   Kind            `json:"kind"`
	Length float64         `json:"length"`
	Kinem  json.RawMessage `json:"kinematics"`
}

type kinematicsDisc struct {
	Model string `json:"model"`
}

// UnmarshalJSON implements json.Unmarshaler for Vehicle. The "kinematics" field must
// carry a "model" discriminator key that selects the concrete kinematics.Model
// implementation; the rest of the object is forwarded to that implementation's own
// unmarshaler.
//
// Supported models:
//   - "constant": fixed a_acc / a_dcc / v_max rates (kinematics.ConstantModel).
func (v *Vehicle) UnmarshalJSON(data []byte) error {
	var aux vehicleJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	v.Kind = aux.Kind
	v.Length = aux.Length

	if len(aux.Kinem) == 0 {
		return fmt.Errorf("vehicle %q: missing \"kinematics\" field", v.Kind)
	}

	var disc kinematicsDisc
	if err := json.Unmarshal(aux.Kinem, &disc); err != nil {
		return fmt.Errorf("vehicle %q: reading kinematics model discriminator: %w", v.Kind, err)
	}

	switch disc.Model {
	case kinematics.ConstantModelName:
		var k kinematics.ConstantModel
		if err := json.Unmarshal(aux.Kinem, &k); err != nil {
			return fmt.Errorf("vehicle %q: parsing constant kinematics: %w", v.Kind, err)
		}
		v.Kinem = k
	default:
		return fmt.Errorf("vehicle %q: unknown kinematics model %q", v.Kind, disc.Model)
	}
	return nil
}

// MarshalJSON implements json.Marshaler, inverse of UnmarshalJSON, for the "constant"
// model (the only model this module ships).
func (v Vehicle) MarshalJSON() ([]byte, error) {
	cm, ok := v.Kinem.(kinematics.ConstantModel)
	if !ok {
		return nil, fmt.Errorf("vehicle %q: marshaling unsupported kinematics model %T", v.Kind, v.Kinem)
	}
	return json.Marshal(struct {
		Kind   Kind   `json:"kind"`
		Length float64 `json:"length"`
		Kinem  struct {
			Model string  `json:"model"`
			AAcc  float64 `json:"a_acc"`
			ADcc  float64 `json:"a_dcc"`
			VMax  float64 `json:"v_max"`
		} `json:"kinematics"`
	}{
		Kind:   v.Kind,
		Length: v.Length,
		Kinem: struct {
			Model string  `json:"model"`
			AAcc  float64 `json:"a_acc"`
			ADcc  float64 `json:"a_dcc"`
			VMax  float64 `json:"v_max"`
		}{
			Model: kinematics.ConstantModelName,
			AAcc:  cm.AAcc,
			ADcc:  cm.ADcc,
			VMax:  cm.VMaxVal,
		},
	})
}
