package plunger

import (
	"errors"
	"fmt"

	"github.com/playmatatu/pinball/internal/physics"
)

// Height is the vertical extent of the plunger hit shapes above their surface.
const Height = 50.0

// ErrInvalidGeometry is returned for plunger data that cannot form a housing.
var ErrInvalidGeometry = errors.New("invalid plunger geometry")

// Data is the authored description of a plunger. The tip travels along Y;
// it fires toward +Y and is pulled back toward -Y.
type Data struct {
	Name    string       `json:"name" yaml:"name"`
	Center  physics.Vec2 `json:"center" yaml:"center"`
	Surface string       `json:"surface" yaml:"surface"`

	// Width is half the housing width.
	Width float64 `json:"width" yaml:"width"`
	// HousingLength is how far the housing back wall sits behind Center.
	HousingLength float64 `json:"housing_length" yaml:"housingLength"`
	// Stroke is the tip travel ahead of Center.
	Stroke float64 `json:"stroke" yaml:"stroke"`

	SpeedPull float64 `json:"speed_pull" yaml:"speedPull"`
	SpeedFire float64 `json:"speed_fire" yaml:"speedFire"`

	// ParkPosition is the rest position as a fraction of the stroke,
	// measured back from the fully forward position.
	ParkPosition    float64 `json:"park_position" yaml:"parkPosition"`
	MomentumXfer    float64 `json:"momentum_xfer" yaml:"momentumXfer"`
	ScatterVelocity float64 `json:"scatter_velocity" yaml:"scatterVelocity"`
	Mass            float64 `json:"mass" yaml:"mass"`

	// Frames is the number of animation frames the renderer has.
	Frames int `json:"frames" yaml:"frames"`
}

// Defaults for fields left zero.
const (
	DefaultWidth         = 25.0
	DefaultHousingLength = 20.0
	DefaultStroke        = 80.0
	DefaultSpeedPull     = 0.5
	DefaultSpeedFire     = 20.0
	DefaultParkPosition  = 0.5 / 3.0
	DefaultMomentumXfer  = 1.0
	DefaultMass          = 30.0
	DefaultFrames        = 25
)

// WithDefaults returns a copy of d with zero fields filled in.
func (d Data) WithDefaults() Data {
	if d.Width == 0 {
		d.Width = DefaultWidth
	}
	if d.HousingLength == 0 {
		d.HousingLength = DefaultHousingLength
	}
	if d.Stroke == 0 {
		d.Stroke = DefaultStroke
	}
	if d.SpeedPull == 0 {
		d.SpeedPull = DefaultSpeedPull
	}
	if d.SpeedFire == 0 {
		d.SpeedFire = DefaultSpeedFire
	}
	if d.ParkPosition == 0 {
		d.ParkPosition = DefaultParkPosition
	}
	if d.MomentumXfer == 0 {
		d.MomentumXfer = DefaultMomentumXfer
	}
	if d.Mass == 0 {
		d.Mass = DefaultMass
	}
	if d.Frames == 0 {
		d.Frames = DefaultFrames
	}
	return d
}

// Validate checks that d describes a housing the tip can move in.
func (d Data) Validate() error {
	switch {
	case d.Width <= 0:
		return fmt.Errorf("%w: width %v", ErrInvalidGeometry, d.Width)
	case d.HousingLength <= 0:
		return fmt.Errorf("%w: housing length %v", ErrInvalidGeometry, d.HousingLength)
	case d.Stroke <= 0:
		return fmt.Errorf("%w: stroke %v", ErrInvalidGeometry, d.Stroke)
	case d.ParkPosition < 0 || d.ParkPosition > 1:
		return fmt.Errorf("%w: park position %v outside [0, 1]", ErrInvalidGeometry, d.ParkPosition)
	case d.Mass <= 0:
		return fmt.Errorf("%w: mass %v", ErrInvalidGeometry, d.Mass)
	case d.Frames < 1:
		return fmt.Errorf("%w: %d frames", ErrInvalidGeometry, d.Frames)
	}
	return nil
}

// Tuning holds the empirical constants of the plunger response. They are
// tuned by feel, not derived; override them per table if launches look off.
type Tuning struct {
	// ImpulseCoefficient scales the approach speed into the strike impulse.
	ImpulseCoefficient float64 `json:"impulse_coefficient" yaml:"impulseCoefficient"`
	// FireBounceDecay multiplies the queued release bounce on every strike.
	FireBounceDecay float64 `json:"fire_bounce_decay" yaml:"fireBounceDecay"`
	// ReverseImpulseFactor scales the momentum fed back into the plunger.
	ReverseImpulseFactor float64 `json:"reverse_impulse_factor" yaml:"reverseImpulseFactor"`
	// VelocityDecay is applied to the ball velocity after each strike.
	VelocityDecay float64 `json:"velocity_decay" yaml:"velocityDecay"`
	// ScatterShape scales the quadratic scatter distribution.
	ScatterShape float64 `json:"scatter_shape" yaml:"scatterShape"`
	// MinBallMass floors the ball mass in the momentum transfer.
	MinBallMass float64 `json:"min_ball_mass" yaml:"minBallMass"`
}

var DefaultTuning = Tuning{
	ImpulseCoefficient:   1.45,
	FireBounceDecay:      0.6,
	ReverseImpulseFactor: 0.22,
	VelocityDecay:        0.999,
	ScatterShape:         2.59808,
	MinBallMass:          0.05,
}

// WithDefaults returns DefaultTuning for the zero Tuning and t otherwise.
// Partial tunings are built with TuningOverride so that a field can be
// set to zero.
func (t Tuning) WithDefaults() Tuning {
	if t == (Tuning{}) {
		return DefaultTuning
	}
	return t
}

// TuningOverride is a partial Tuning. Nil fields keep the value of the
// layer below.
type TuningOverride struct {
	ImpulseCoefficient   *float64 `json:"impulse_coefficient,omitempty" yaml:"impulseCoefficient"`
	FireBounceDecay      *float64 `json:"fire_bounce_decay,omitempty" yaml:"fireBounceDecay"`
	ReverseImpulseFactor *float64 `json:"reverse_impulse_factor,omitempty" yaml:"reverseImpulseFactor"`
	VelocityDecay        *float64 `json:"velocity_decay,omitempty" yaml:"velocityDecay"`
	ScatterShape         *float64 `json:"scatter_shape,omitempty" yaml:"scatterShape"`
	MinBallMass          *float64 `json:"min_ball_mass,omitempty" yaml:"minBallMass"`
}

// Apply returns t with every set field of o written over it.
func (o TuningOverride) Apply(t Tuning) Tuning {
	set := func(dst *float64, v *float64) {
		if v != nil {
			*dst = *v
		}
	}
	set(&t.ImpulseCoefficient, o.ImpulseCoefficient)
	set(&t.FireBounceDecay, o.FireBounceDecay)
	set(&t.ReverseImpulseFactor, o.ReverseImpulseFactor)
	set(&t.VelocityDecay, o.VelocityDecay)
	set(&t.ScatterShape, o.ScatterShape)
	set(&t.MinBallMass, o.MinBallMass)
	return t
}
