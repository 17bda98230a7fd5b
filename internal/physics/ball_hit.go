package physics

import "math"

// BallHit is the hit object of a ball, so that balls can strike each other.
// The owning ball is the target; the ball passed to HitTest is the mover.
type BallHit struct {
	HitBase

	ball  *Ball
	mover *BallMover
	coll  CollisionEvent
}

func newBallHit(b *Ball) *BallHit {
	h := &BallHit{
		HitBase: NewHitBase(0, 0),
		ball:    b,
	}
	h.mover = &BallMover{ball: b}
	h.coll.Ball = b
	h.CalcHitBBox()
	return h
}

// Ball returns the ball this hit object belongs to.
func (h *BallHit) Ball() *Ball {
	return h.ball
}

// CalcHitBBox bounds the ball over one unit of time.
func (h *BallHit) CalcHitBBox() {
	h.BBox = h.ball.SweptBBox(1.0)
}

func (h *BallHit) Type() CollisionType {
	return CollisionTypeBall
}

func (h *BallHit) HitTest(ball *Ball, dtime float64, coll *CollisionEvent) float64 {
	target := h.ball
	if !h.Enabled || ball == target || ball.Frozen {
		return -1.0
	}

	d := target.State.Pos.Minus(ball.State.Pos)
	dv := target.State.Vel.Minus(ball.State.Vel)

	bcddsq := d.MagnitudeSquared()
	bcdd := math.Sqrt(bcddsq)
	if bcdd < 1.0e-8 {
		// center over center: pretend the target sits just below
		d = Vec3{Z: -1}
		bcdd = 1
		bcddsq = 1
		dv.Z -= 0.1
	}

	b := dv.Dot(d)
	bnv := b / bcdd // negative when approaching
	if bnv > LowNormVel {
		return -1.0
	}

	totalRadius := target.Data.Radius + ball.Data.Radius
	bnd := bcdd - totalRadius

	var hittime float64
	isContact := false
	if bnd <= PhysTouch {
		if bnd < ball.Data.Radius*-2 {
			return -1.0
		}
		switch {
		case math.Abs(bnv) <= ContactVel:
			isContact = true
			hittime = 0
		case bnd <= -PhysTouch:
			hittime = 0
		default:
			hittime = math.Max(0, bnd/-bnv)
		}
	} else {
		a := dv.MagnitudeSquared()
		if a < 1.0e-8 {
			return -1.0
		}
		t1, t2, ok := solveQuadratic(a, 2*b, bcddsq-totalRadius*totalRadius)
		if !ok {
			return -1.0
		}
		hittime = smallestNonNegative(t1, t2)
	}

	if invalidTime(hittime, dtime) {
		return -1.0
	}

	// normal points from the target toward the moving ball at contact
	rel := d.Plus(dv.Times(hittime))
	normal := rel.Times(-1).Normalize()

	coll.setHit(normal, bnd, hittime)
	if isContact {
		coll.setContact(bnv)
	}
	return hittime
}

// Collide exchanges momentum between the two balls. A frozen target has
// infinite mass.
func (h *BallHit) Collide(coll *CollisionEvent, player *Player) {
	pball := coll.Ball
	target := h.ball
	if pball == nil || !coll.HasHit() {
		return
	}
	// When both balls carry a due hit on each other, the higher id resolves
	// it. Otherwise this side is the only one that will.
	if pball.ID < target.ID && !target.Frozen {
		if other := target.Collision(); other.Obj == pball.Hit() && !other.IsContact {
			return
		}
	}

	normal := *coll.HitNormal
	vrel := pball.State.Vel.Minus(target.State.Vel)
	dot := vrel.Dot(normal)

	if dot >= -LowNormVel {
		if dot > LowNormVel {
			return
		}
		if coll.HitDistance < -Embedded {
			dot = -EmbedShot
		} else {
			return
		}
	}

	if player != nil {
		player.ActiveBall = pball
	}

	edist := -DispGain * coll.HitDistance
	if edist > 1.0e-4 {
		if edist > DispLimit {
			edist = DispLimit
		}
		if target.Frozen {
			pball.State.Pos = pball.State.Pos.Plus(normal.Times(edist))
		} else {
			edist *= 0.5
			pball.State.Pos = pball.State.Pos.Plus(normal.Times(edist))
			target.State.Pos = target.State.Pos.Minus(normal.Times(edist))
		}
	}

	myInvMass := target.invMass()
	if target.Frozen {
		myInvMass = 0
	}
	impulse := -(1.0 + BallRestitution) * dot / (myInvMass + pball.invMass())

	if !target.Frozen {
		target.State.Vel = target.State.Vel.Minus(normal.Times(impulse * myInvMass))
	}
	pball.State.Vel = pball.State.Vel.Plus(normal.Times(impulse * pball.invMass()))
}
