package plunger

import (
	"fmt"
	"math"

	"github.com/playmatatu/pinball/internal/physics"
)

const (
	// fireTicks bounds how long a release keeps driving the tip.
	fireTicks = 200
	// bounceFactor is applied to the fire speed and bounce at each reversal.
	bounceFactor = -0.4
	// springRate pulls an idle tip back to its park position.
	springRate = 0.1
)

// Mover owns the moving state of a plunger and the primitives that model
// its housing. Positions are tip Y coordinates.
type Mover struct {
	data   Data
	tuning Tuning

	X, X2   float64
	BaseY   float64
	ZHeight float64

	// FrameStart is the fully retracted tip position, FrameEnd the fully
	// forward one.
	FrameStart float64
	FrameEnd   float64
	FrameLen   float64
	// RestPos is the park position, relative to FrameEnd as a fraction of
	// FrameLen.
	RestPos float64

	Pos   float64
	Speed float64
	// TravelLimit caps Pos during the next displacement update.
	TravelLimit float64

	FireSpeed      float64
	FireBounce     float64
	ReverseImpulse float64
	Mass           float64

	ScatterVelocity float64

	pulling   bool
	fireTimer int

	lineSegBase *physics.LineSeg
	lineSegEnd  *physics.LineSeg
	lineSegSide [2]*physics.LineSeg
	jointBase   [2]*physics.Joint
	jointEnd    [2]*physics.Joint
}

// NewMover builds the plunger housing for data at height zHeight.
func NewMover(data Data, zHeight float64, tuning Tuning) (*Mover, error) {
	data = data.WithDefaults()
	if err := data.Validate(); err != nil {
		return nil, err
	}

	m := &Mover{
		data:            data,
		tuning:          tuning.WithDefaults(),
		X:               data.Center.X - data.Width,
		X2:              data.Center.X + data.Width,
		BaseY:           data.Center.Y - data.HousingLength,
		ZHeight:         zHeight,
		FrameStart:      data.Center.Y,
		FrameEnd:        data.Center.Y + data.Stroke,
		FrameLen:        data.Stroke,
		RestPos:         data.ParkPosition,
		Mass:            data.Mass,
		ScatterVelocity: data.ScatterVelocity,
	}
	m.Pos = m.posFromRel(m.RestPos)
	m.TravelLimit = m.FrameEnd

	zhigh := zHeight + Height
	var err error
	if m.lineSegBase, err = physics.NewLineSeg(physics.NewVec2(m.X2, m.BaseY), physics.NewVec2(m.X, m.BaseY), zHeight, zhigh); err != nil {
		return nil, fmt.Errorf("plunger %q base: %w", data.Name, err)
	}
	if m.lineSegEnd, err = physics.NewLineSeg(physics.NewVec2(m.X, m.Pos), physics.NewVec2(m.X2, m.Pos), zHeight, zhigh); err != nil {
		return nil, fmt.Errorf("plunger %q tip: %w", data.Name, err)
	}
	for i := range m.lineSegSide {
		if m.lineSegSide[i], err = physics.NewLineSeg(physics.NewVec2(m.X, m.BaseY), physics.NewVec2(m.X, m.Pos), zHeight, zhigh); err != nil {
			return nil, fmt.Errorf("plunger %q side: %w", data.Name, err)
		}
	}
	m.jointBase[0] = physics.NewJoint(physics.NewVec2(m.X, m.BaseY), zHeight, zhigh)
	m.jointBase[1] = physics.NewJoint(physics.NewVec2(m.X2, m.BaseY), zHeight, zhigh)
	m.jointEnd[0] = physics.NewJoint(physics.NewVec2(m.X, m.Pos), zHeight, zhigh)
	m.jointEnd[1] = physics.NewJoint(physics.NewVec2(m.X2, m.Pos), zHeight, zhigh)
	m.setObjects()
	return m, nil
}

func (m *Mover) Data() Data {
	return m.data
}

func (m *Mover) Tuning() Tuning {
	return m.tuning
}

// rel maps a tip position to [0, 1], 0 fully forward and 1 fully retracted.
func (m *Mover) rel(pos float64) float64 {
	return (m.FrameEnd - pos) / m.FrameLen
}

func (m *Mover) posFromRel(rel float64) float64 {
	return m.FrameEnd - rel*m.FrameLen
}

// setObjects moves the tip primitives to the current position. The side
// walls face outward, the back wall faces -Y and the tip faces +Y.
func (m *Mover) setObjects() {
	m.lineSegBase.SetEndpoints(physics.NewVec2(m.X2, m.BaseY), physics.NewVec2(m.X, m.BaseY))
	m.lineSegSide[0].SetEndpoints(physics.NewVec2(m.X, m.BaseY), physics.NewVec2(m.X, m.Pos))
	m.lineSegSide[1].SetEndpoints(physics.NewVec2(m.X2, m.Pos), physics.NewVec2(m.X2, m.BaseY))
	m.lineSegEnd.SetEndpoints(physics.NewVec2(m.X, m.Pos), physics.NewVec2(m.X2, m.Pos))

	m.jointEnd[0].XY = physics.NewVec2(m.X, m.Pos)
	m.jointEnd[1].XY = physics.NewVec2(m.X2, m.Pos)

	for _, l := range []*physics.LineSeg{m.lineSegBase, m.lineSegSide[0], m.lineSegSide[1], m.lineSegEnd} {
		l.CalcHitBBox()
	}
	for _, j := range []*physics.Joint{m.jointBase[0], m.jointBase[1], m.jointEnd[0], m.jointEnd[1]} {
		j.CalcHitBBox()
	}
}

// PullBack starts retracting the tip. It keeps retracting until Fire.
func (m *Mover) PullBack() {
	m.pulling = true
	m.fireTimer = 0
}

// Fire releases the tip from startPos, a relative position in [0, 1]. The
// release speed is proportional to how far behind the park position the
// tip starts.
func (m *Mover) Fire(startPos float64) {
	m.pulling = false

	startPos = math.Min(math.Max(startPos, m.RestPos), 1)
	m.Pos = m.posFromRel(startPos)

	dx := startPos - m.RestPos
	m.FireSpeed = m.data.SpeedFire * dx

	// Full bounce from half a pull and up.
	const maxPull = 0.5
	bounceDist := 1.0
	if dx < maxPull {
		bounceDist = dx / maxPull
	}
	m.FireBounce = -bounceDist * m.RestPos

	m.fireTimer = fireTicks
	if dx <= 0 {
		m.fireTimer = 0
	}
}

// ReleasePosition is the relative position Fire should start from when
// the tip is released where it is.
func (m *Mover) ReleasePosition() float64 {
	return m.rel(m.Pos)
}

func (m *Mover) IsFiring() bool {
	return m.fireTimer > 0
}

func (m *Mover) IsPulling() bool {
	return m.pulling
}

func (m *Mover) UpdateVelocities(player *physics.Player) {
	switch {
	case m.pulling:
		m.Speed = -m.data.SpeedPull
	case m.fireTimer > 0:
		m.Speed = m.FireSpeed
		m.fireTimer--
		if math.Abs(m.FireSpeed) < 0.01 {
			m.fireTimer = 0
		}
	default:
		diff := m.posFromRel(m.RestPos) - m.Pos
		if math.Abs(diff) < 0.01 {
			m.Speed = 0
		} else {
			m.Speed = diff * springRate
		}
	}

	m.Speed += m.ReverseImpulse
	m.ReverseImpulse = 0
}

func (m *Mover) UpdateDisplacements(dtime float64) {
	m.Pos += dtime * m.Speed
	if m.Pos > m.TravelLimit {
		m.Pos = m.TravelLimit
	}

	if m.fireTimer > 0 && dtime != 0 {
		bouncePos := m.RestPos + m.FireBounce
		r := m.rel(m.Pos)
		if (m.FireSpeed > 0 && r <= bouncePos) || (m.FireSpeed < 0 && r >= bouncePos) {
			m.Pos = m.posFromRel(bouncePos)
			m.FireSpeed *= bounceFactor
			m.FireBounce *= bounceFactor
		}
		if m.Pos > m.TravelLimit {
			m.Pos = m.TravelLimit
		}
	}

	if dtime != 0 {
		if m.Pos > m.FrameEnd {
			m.Speed = 0
			m.Pos = m.FrameEnd
		} else if m.Pos < m.FrameStart {
			m.Speed = 0
			m.Pos = m.FrameStart
		}
	}

	m.TravelLimit = m.FrameEnd
	m.setObjects()
}

// Frame is the animation frame for the current tip position, 0 when fully
// retracted.
func (m *Mover) Frame() int {
	n := m.data.Frames
	if n <= 1 {
		return 0
	}
	f := int(math.Round((m.Pos - m.FrameStart) / (m.FrameEnd - m.FrameStart) * float64(n-1)))
	return min(max(f, 0), n-1)
}

func (m *Mover) State() State {
	return State{Frame: m.Frame()}
}
