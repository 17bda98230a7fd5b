package bumper

import (
	"math"

	"github.com/playmatatu/pinball/internal/physics"
)

const (
	// skirtWindowMsec is how long the skirt stays tilted after a hit.
	skirtWindowMsec = 160.0
	skirtTilt       = 5.0
)

// Animation drives the ring and skirt of a bumper from the hit signal set
// by its hit object. It never touches the ball.
type Animation struct {
	data  *Data
	state *State

	timeMsec         int64
	ringAnimate      bool
	ringDown         bool
	doSkirtAnimation bool
	skirtCounter     float64

	EnableSkirtAnimation bool

	// HitEvent is raised by the hit object and consumed by the next update.
	HitEvent        bool
	BallHitPosition physics.Vec3
}

func NewAnimation(data *Data, state *State) *Animation {
	return &Animation{
		data:                 data,
		state:                state,
		EnableSkirtAnimation: true,
	}
}

func (a *Animation) Init(timeMsec int64) {
	a.timeMsec = timeMsec
}

func (a *Animation) State() State {
	return *a.state
}

// RingAnimating reports whether the ring is away from its rest position.
func (a *Animation) RingAnimating() bool {
	return a.ringAnimate
}

func (a *Animation) SkirtAnimating() bool {
	return a.doSkirtAnimation
}

// UpdateAnimation advances both machines to newTimeMsec. Time never runs
// backwards; an earlier time counts as no elapsed time.
func (a *Animation) UpdateAnimation(newTimeMsec int64, table physics.Table) {
	oldTimeMsec := min(a.timeMsec, newTimeMsec)
	a.timeMsec = newTimeMsec
	diffTimeMsec := float64(newTimeMsec - oldTimeMsec)
	hit := a.HitEvent

	scaleZ := 1.0
	if table != nil {
		scaleZ = table.ScaleZ()
	}

	a.updateRing(hit, diffTimeMsec, scaleZ)
	a.updateSkirt(hit, diffTimeMsec)
}

func (a *Animation) updateRing(hit bool, diffTimeMsec, scaleZ float64) {
	if !a.data.IsVisible || !a.data.IsRingVisible {
		return
	}
	limit := a.data.RingDropOffset + a.data.HeightScale*0.5*scaleZ
	if hit {
		a.ringAnimate = true
		a.ringDown = true
		a.HitEvent = false
	}
	if !a.ringAnimate {
		return
	}

	step := a.data.RingSpeed * scaleZ
	if a.ringDown {
		step = -step
	}
	a.state.RingOffset += step * diffTimeMsec
	if a.ringDown {
		if a.state.RingOffset <= -limit {
			a.state.RingOffset = -limit
			a.ringDown = false
		}
	} else if a.state.RingOffset >= 0 {
		a.state.RingOffset = 0
		a.ringAnimate = false
	}
}

func (a *Animation) updateSkirt(hit bool, diffTimeMsec float64) {
	if !a.data.IsVisible || !a.data.IsSkirtVisible {
		a.doSkirtAnimation = false
		a.resetSkirt()
		return
	}
	if !a.EnableSkirtAnimation {
		return
	}
	if hit {
		a.HitEvent = false
		a.doSkirtAnimation = true
		a.tiltSkirt()
		a.skirtCounter = 0
	}
	if a.doSkirtAnimation {
		a.skirtCounter += diffTimeMsec
		if a.skirtCounter > skirtWindowMsec {
			a.doSkirtAnimation = false
			a.resetSkirt()
		}
	}
}

func (a *Animation) resetSkirt() {
	a.state.SkirtRotX = 0
	a.state.SkirtRotY = 0
}

// tiltSkirt leans the skirt away from where the ball struck.
func (a *Animation) tiltSkirt() {
	hitX := a.BallHitPosition.X
	hitY := a.BallHitPosition.Y
	dy := math.Abs(hitY - a.data.Center.Y)
	if dy == 0 {
		dy = 0.000001
	}
	dx := math.Abs(hitX - a.data.Center.X)
	skirtA := math.Atan(dx / dy)
	rotX := math.Cos(skirtA) * skirtTilt
	rotY := math.Sin(skirtA) * skirtTilt
	if a.data.Center.Y < hitY {
		rotX = -rotX
	}
	if a.data.Center.X > hitX {
		rotY = -rotY
	}
	a.state.SkirtRotX = rotX
	a.state.SkirtRotY = rotY
}
