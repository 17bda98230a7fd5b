package bumper

import (
	"errors"
	"fmt"

	"github.com/playmatatu/pinball/internal/physics"
)

var ErrInvalidGeometry = errors.New("invalid bumper geometry")

// Data is the authored description of a bumper.
type Data struct {
	Name    string       `json:"name" yaml:"name"`
	Center  physics.Vec2 `json:"center" yaml:"center"`
	Radius  float64      `json:"radius" yaml:"radius"`
	Surface string       `json:"surface" yaml:"surface"`

	HeightScale float64 `json:"height_scale" yaml:"heightScale"`

	// Threshold is the approach speed needed to fire the bumper, Force
	// the speed it then adds along the contact normal.
	Threshold float64 `json:"threshold" yaml:"threshold"`
	Force     float64 `json:"force" yaml:"force"`
	Scatter   float64 `json:"scatter" yaml:"scatter"`

	RingSpeed      float64 `json:"ring_speed" yaml:"ringSpeed"`
	RingDropOffset float64 `json:"ring_drop_offset" yaml:"ringDropOffset"`

	IsVisible      bool `json:"is_visible" yaml:"-"`
	IsRingVisible  bool `json:"is_ring_visible" yaml:"-"`
	IsSkirtVisible bool `json:"is_skirt_visible" yaml:"-"`

	// HitEvent enables the active response. Without it the bumper is a post.
	HitEvent bool `json:"hit_event" yaml:"-"`
}

const (
	DefaultRadius      = 45.0
	DefaultHeightScale = 90.0
	DefaultThreshold   = 1.0
	DefaultForce       = 15.0
	DefaultRingSpeed   = 0.5
)

// WithDefaults returns a copy of d with zero numeric fields filled in.
func (d Data) WithDefaults() Data {
	if d.Radius == 0 {
		d.Radius = DefaultRadius
	}
	if d.HeightScale == 0 {
		d.HeightScale = DefaultHeightScale
	}
	if d.Threshold == 0 {
		d.Threshold = DefaultThreshold
	}
	if d.Force == 0 {
		d.Force = DefaultForce
	}
	if d.RingSpeed == 0 {
		d.RingSpeed = DefaultRingSpeed
	}
	return d
}

func (d Data) Validate() error {
	if d.Radius <= 0 {
		return fmt.Errorf("%w: radius %v", ErrInvalidGeometry, d.Radius)
	}
	if d.HeightScale <= 0 {
		return fmt.Errorf("%w: height scale %v", ErrInvalidGeometry, d.HeightScale)
	}
	return nil
}

// State is the animated part of a bumper.
type State struct {
	RingOffset float64 `json:"ring_offset"`
	SkirtRotX  float64 `json:"skirt_rot_x"`
	SkirtRotY  float64 `json:"skirt_rot_y"`
}
