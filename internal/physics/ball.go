package physics

import (
	"fmt"
	"math"
	"sync/atomic"
)

// IDSequence hands out ball identifiers. Each simulation owns one, so ids
// are reproducible per simulation and never reused within it.
type IDSequence struct {
	next atomic.Int64
}

// Next returns the next identifier, starting at 0.
func (s *IDSequence) Next() int64 {
	return s.next.Add(1) - 1
}

// BallData is the static description of a ball.
type BallData struct {
	Radius float64 `json:"radius" yaml:"radius"`
	Mass   float64 `json:"mass" yaml:"mass"`
}

// BallState is the dynamic state integrated by the mover and changed by
// collision resolution.
type BallState struct {
	Pos             Vec3    `json:"pos"`
	Vel             Vec3    `json:"vel"`
	Orientation     Matrix3 `json:"orientation"`
	AngularMomentum Vec3    `json:"angular_momentum"`
	AngularVelocity Vec3    `json:"angular_velocity"`
}

// Ball is the moving body of the simulation.
type Ball struct {
	ID    int64
	State BallState
	Data  BallData

	// Frozen balls are held in place (captured in a kicker or hole). They
	// still take part in collisions as immovable bodies.
	Frozen bool

	hit *BallHit
}

// NewBall creates a ball with an identifier taken from seq.
func NewBall(seq *IDSequence, data BallData, pos, vel Vec3) *Ball {
	if data.Radius <= 0 {
		data.Radius = DefaultBallRadius
	}
	if data.Mass <= 0 {
		data.Mass = DefaultBallMass
	}
	b := &Ball{
		ID:   seq.Next(),
		Data: data,
		State: BallState{
			Pos:         pos,
			Vel:         vel,
			Orientation: Identity3(),
		},
	}
	b.hit = newBallHit(b)
	return b
}

func (b *Ball) Name() string {
	return fmt.Sprintf("Ball%d", b.ID)
}

// Hit returns the ball's own hit object, used for ball-ball contact.
func (b *Ball) Hit() *BallHit {
	return b.hit
}

// Mover returns the integrator for this ball.
func (b *Ball) Mover() *BallMover {
	return b.hit.mover
}

// Collision returns the event currently associated with the ball.
func (b *Ball) Collision() *CollisionEvent {
	return &b.hit.coll
}

// SetCollision replaces the ball's current event with a copy of coll.
func (b *Ball) SetCollision(coll *CollisionEvent) {
	b.hit.coll.CopyFrom(coll)
}

// HitShapes lists the hit objects this ball contributes.
func (b *Ball) HitShapes() []HitObject {
	return []HitObject{b.hit}
}

// Kinematics is the read-only view of a ball that a hit test needs. Hit
// tests that work in a moving frame adjust a copy of it, never the ball.
type Kinematics struct {
	Pos    Vec3
	Vel    Vec3
	Radius float64
	Frozen bool
}

func (b *Ball) Kinematics() Kinematics {
	return Kinematics{
		Pos:    b.State.Pos,
		Vel:    b.State.Vel,
		Radius: b.Data.Radius,
		Frozen: b.Frozen,
	}
}

// SweptBBox bounds everything the ball can touch within dtime.
func (b *Ball) SweptBBox(dtime float64) BBox {
	vl := b.State.Vel.Magnitude()*dtime + b.Data.Radius + 0.05
	p := b.State.Pos
	return BBox{
		Left:   p.X - vl,
		Right:  p.X + vl,
		Top:    p.Y - vl,
		Bottom: p.Y + vl,
		ZLow:   p.Z - vl,
		ZHigh:  p.Z + vl,
	}
}

// Transform is what a renderer needs to place the ball.
type Transform struct {
	Position    Vec3    `json:"position"`
	Orientation Matrix3 `json:"orientation"`
	Scale       float64 `json:"scale"`
}

// Transform maps the current physics state to a renderable transform. A
// frozen ball sinks by its radius.
func (b *Ball) Transform() Transform {
	pos := b.State.Pos
	if b.Frozen {
		pos.Z -= b.Data.Radius
	}
	return Transform{
		Position:    pos,
		Orientation: b.State.Orientation,
		Scale:       b.Data.Radius,
	}
}

// Matrix composes scale, rotation and translation into one matrix.
func (t Transform) Matrix() Matrix4 {
	s := t.Scale
	scale := Matrix4{{s, 0, 0, 0}, {0, s, 0, 0}, {0, 0, s, 0}, {0, 0, 0, 1}}
	o := t.Orientation
	rot := Matrix4{
		{o[0][0], o[1][0], o[2][0], 0},
		{o[0][1], o[1][1], o[2][1], 0},
		{o[0][2], o[1][2], o[2][2], 0},
		{0, 0, 0, 1},
	}
	trans := Matrix4{{1, 0, 0, 0}, {0, 1, 0, 0}, {0, 0, 1, 0}, {t.Position.X, t.Position.Y, t.Position.Z, 1}}
	return scale.Mul(rot).Mul(trans)
}

func (b *Ball) invMass() float64 {
	return 1.0 / b.Data.Mass
}

func (b *Ball) inertia() float64 {
	return 2.0 / 5.0 * b.Data.Radius * b.Data.Radius * b.Data.Mass
}

// SurfaceVelocity is the velocity of a point on the ball surface, given
// relative to the center.
func (b *Ball) SurfaceVelocity(surfP Vec3) Vec3 {
	return b.State.Vel.Plus(b.State.AngularVelocity.Cross(surfP))
}

func (b *Ball) surfaceAcceleration(surfP, gravity Vec3) Vec3 {
	return gravity.Plus(b.State.AngularVelocity.Cross(b.SurfaceVelocity(surfP).Minus(b.State.Vel)))
}

// ApplySurfaceImpulse applies a linear impulse and its torque.
func (b *Ball) ApplySurfaceImpulse(rotI, impulse Vec3) {
	b.State.Vel = b.State.Vel.Plus(impulse.Times(b.invMass()))
	b.State.AngularMomentum = b.State.AngularMomentum.Plus(rotI)
	b.State.AngularVelocity = b.State.AngularMomentum.Times(1.0 / b.inertia())
}

// elasticityWithFalloff lowers elasticity for hard hits.
func elasticityWithFalloff(elasticity, falloff, vel float64) float64 {
	if falloff > 0 {
		return elasticity / (1.0 + falloff*math.Abs(vel)/ElasticityFalloffVel)
	}
	return elasticity
}

// Collide3DWall reflects the ball off a fixed surface with the given
// normal. Separating balls are left untouched.
func (b *Ball) Collide3DWall(hitNormal Vec3, hitDistance float64, m Material, player *Player) {
	dot := b.State.Vel.Dot(hitNormal)

	if dot >= -LowNormVel {
		if dot > LowNormVel {
			return
		}
		if hitDistance < -Embedded {
			dot = -EmbedShot
		} else {
			return
		}
	}

	hdist := -DispGain * hitDistance
	if hdist > 1.0e-4 {
		if hdist > DispLimit {
			hdist = DispLimit
		}
		b.State.Pos = b.State.Pos.Plus(hitNormal.Times(hdist))
	}

	// impulse just sufficient to stop penetration, bounds friction below
	reactionImpulse := b.Data.Mass * math.Abs(dot)

	elasticity := elasticityWithFalloff(m.Elasticity, m.ElasticityFalloff, dot)
	dot *= -(1.0 + elasticity)
	b.State.Vel = b.State.Vel.Plus(hitNormal.Times(dot))

	surfP := hitNormal.Times(-b.Data.Radius)
	surfVel := b.SurfaceVelocity(surfP)
	tangent := surfVel.Minus(hitNormal.Times(surfVel.Dot(hitNormal)))
	if tangentSpSq := tangent.MagnitudeSquared(); tangentSpSq > 1e-6 {
		tangent = tangent.Times(1.0 / math.Sqrt(tangentSpSq))
		vt := surfVel.Dot(tangent)
		cross := surfP.Cross(tangent)
		kt := b.invMass() + tangent.Dot(cross.Times(1.0/b.inertia()).Cross(surfP))
		maxFric := m.Friction * reactionImpulse
		jt := clamp(-vt/kt, -maxFric, maxFric)
		if !math.IsNaN(jt) && !math.IsInf(jt, 0) {
			b.ApplySurfaceImpulse(cross.Times(jt), tangent.Times(jt))
		}
	}

	if dot > 1.0 && m.Scatter > 1.0e-5 && player != nil {
		angle := (player.Random()*2 - 1) * m.Scatter
		sin, cos := math.Sincos(angle)
		vx, vy := b.State.Vel.X, b.State.Vel.Y
		b.State.Vel.X = vx*cos - vy*sin
		b.State.Vel.Y = vy*cos + vx*sin
	}
}

// HandleStaticContact cancels the normal velocity of a resting ball and
// counteracts gravity, then applies rolling friction.
func (b *Ball) HandleStaticContact(coll *CollisionEvent, friction, dtime float64, gravity Vec3) {
	normal := *coll.HitNormal
	normVel := b.State.Vel.Dot(normal)

	if normVel > ContactVel {
		return
	}

	fe := gravity.Times(b.Data.Mass)
	dot := fe.Dot(normal)
	normalForce := math.Max(0, -(dot*dtime + coll.HitOrgNormalVelocity))

	b.State.Vel = b.State.Vel.Plus(normal.Times(normalForce))
	b.applyFriction(normal, dtime, friction, gravity)
}

func (b *Ball) applyFriction(hitNormal Vec3, dtime, fricCoeff float64, gravity Vec3) {
	surfP := hitNormal.Times(-b.Data.Radius)
	surfVel := b.SurfaceVelocity(surfP)
	slip := surfVel.Minus(hitNormal.Times(surfVel.Dot(hitNormal)))
	maxFric := fricCoeff * b.Data.Mass * -gravity.Dot(hitNormal)

	slipSpeed := slip.Magnitude()
	var slipDir Vec3
	var numer float64

	if slipSpeed < Precision {
		// static friction
		surfAcc := b.surfaceAcceleration(surfP, gravity)
		slipAcc := surfAcc.Minus(hitNormal.Times(surfAcc.Dot(hitNormal)))
		if slipAcc.MagnitudeSquared() < 1e-6 {
			return
		}
		slipDir = slipAcc.Normalize()
		numer = -slipDir.Dot(surfAcc)
	} else {
		slipDir = slip.Times(1.0 / slipSpeed)
		numer = -slipDir.Dot(surfVel)
	}

	cp := surfP.Cross(slipDir)
	denom := b.invMass() + slipDir.Dot(cp.Times(1.0/b.inertia()).Cross(surfP))
	fric := clamp(numer/denom, -maxFric, maxFric)
	if math.IsNaN(fric) || math.IsInf(fric, 0) {
		return
	}
	b.ApplySurfaceImpulse(cp.Times(dtime*fric), slipDir.Times(dtime*fric))
}
