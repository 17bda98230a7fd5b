package plunger

import (
	"math"

	"github.com/playmatatu/pinball/internal/physics"
)

// kinematicTester is a primitive that can be tested against a ball state
// other than the ball's own.
type kinematicTester interface {
	HitTestKinematics(k physics.Kinematics, dtime float64, coll *physics.CollisionEvent) float64
}

// Hit is the plunger as a single hit object. It tests the fixed housing
// walls and the moving tip and keeps the earliest contact.
type Hit struct {
	physics.HitBase

	mover  *Mover
	player *physics.Player
}

// NewHit builds a plunger on table. player receives the button light
// timestamps and the plunger-touched ball.
func NewHit(data Data, tuning Tuning, player *physics.Player, table physics.Table) (*Hit, error) {
	zHeight := 0.0
	if table != nil {
		zHeight = table.SurfaceHeight(data.Surface, data.Center.X, data.Center.Y)
	}
	mover, err := NewMover(data, zHeight, tuning)
	if err != nil {
		return nil, err
	}
	h := &Hit{
		HitBase: physics.NewHitBase(zHeight, zHeight+Height),
		mover:   mover,
		player:  player,
	}
	h.CalcHitBBox()
	return h, nil
}

func (h *Hit) Mover() *Mover {
	return h.mover
}

func (h *Hit) Type() physics.CollisionType {
	return physics.CollisionTypePlunger
}

func (h *Hit) CalcHitBBox() {
	// allow roundoff
	h.BBox.Left = h.mover.X - 0.1
	h.BBox.Right = h.mover.X2 + 0.1
	h.BBox.Top = h.mover.BaseY - 0.1
	h.BBox.Bottom = h.mover.FrameEnd + 0.1
}

func (h *Hit) HitTest(ball *physics.Ball, dtime float64, coll *physics.CollisionEvent) float64 {
	// the ball is close enough to light the launch button
	if h.player != nil {
		h.player.LastPlungerHit = h.player.TimeMsec
	}
	if !h.Enabled {
		return -1.0
	}
	m := h.mover

	hittime := dtime
	found := false
	k := ball.Kinematics()

	var scratch physics.CollisionEvent
	try := func(t kinematicTester, k physics.Kinematics, hitVelY float64) {
		scratch.Reset(ball)
		newtime := t.HitTestKinematics(k, hittime, &scratch)
		if newtime < 0 || newtime > hittime {
			return
		}
		found = true
		hittime = newtime
		coll.CopyFrom(&scratch)
		coll.HitVel = &physics.Vec2{X: 0, Y: hitVelY}
	}

	// housing walls do not move
	try(m.lineSegBase, k, 0)
	for i := 0; i < 2; i++ {
		try(m.lineSegSide[i], k, 0)
		try(m.jointBase[i], k, 0)
	}

	// Test the tip in its own rest frame. The strike velocity scales with
	// the transfer factor and inversely with the ball mass.
	tipFrame := k
	tipFrame.Vel.Y -= m.Speed
	deltay := h.StrikeVelocity(ball.Data.Mass)

	try(m.lineSegEnd, tipFrame, deltay)
	for i := 0; i < 2; i++ {
		try(m.jointEnd[i], tipFrame, deltay)
	}

	if !found {
		return -1.0
	}

	// Hold the tip where it is for the next displacement update so it
	// cannot overtake the ball, and so contact is broken for long enough
	// that time keeps advancing.
	if m.TravelLimit > m.Pos {
		m.TravelLimit = m.Pos
	}

	// overlapping: push at least far enough to separate
	if coll.HitDistance <= 0 && coll.HitVel.Y == deltay && math.Abs(deltay) < math.Abs(coll.HitDistance) {
		coll.HitVel.Y = math.Abs(coll.HitDistance)
	}

	return hittime
}

// StrikeVelocity is the tip velocity a ball of ballMass sees at contact.
func (h *Hit) StrikeVelocity(ballMass float64) float64 {
	m := h.mover
	mass := math.Max(ballMass, m.tuning.MinBallMass)
	return m.Speed * (m.data.MomentumXfer / mass)
}

func (h *Hit) Collide(coll *physics.CollisionEvent, player *physics.Player) {
	pball := coll.Ball
	if pball == nil || !coll.HasHit() {
		return
	}
	m := h.mover
	t := m.tuning
	n := *coll.HitNormal
	hv := *coll.HitVel
	vel := &pball.State.Vel

	dot := (vel.X-hv.X)*n.X + (vel.Y-hv.Y)*n.Y
	if dot >= -physics.LowNormVel {
		if dot > physics.LowNormVel {
			return
		}
		if coll.HitDistance < -physics.Embedded {
			dot = -physics.EmbedShot
		} else {
			return
		}
	}

	if player != nil {
		player.ActiveBallBC = pball
	}

	hdist := -physics.DispGain * coll.HitDistance
	if hdist > 1.0e-4 {
		if hdist > physics.DispLimit {
			hdist = physics.DispLimit
		}
		pball.State.Pos = pball.State.Pos.Plus(n.Times(hdist))
	}

	impulse := dot * -t.ImpulseCoefficient / (1.0 + 1.0/m.Mass)

	// most of the momentum leaves through the ball
	m.FireBounce *= t.FireBounceDecay

	if hv.Y != 0 {
		m.ReverseImpulse = vel.Y * impulse * (pball.Data.Mass / m.Mass) * t.ReverseImpulseFactor
	}

	*vel = vel.Plus(n.Times(impulse)).Times(t.VelocityDecay)

	scatterVel := m.ScatterVelocity
	if scatterVel > 0 && math.Abs(vel.Y) > scatterVel {
		var r float64
		if player != nil {
			r = player.Random()*2 - 1
		}
		r *= (1.0 - r*r) * t.ScatterShape * scatterVel
		vel.Y += r
	}
}
