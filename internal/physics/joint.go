package physics

import "math"

// Joint is a vertical edge of zero thickness at XY, used where two wall
// segments meet so balls glance off corners instead of slipping between
// segment ends.
type Joint struct {
	HitBase

	XY Vec2
}

func NewJoint(xy Vec2, zlow, zhigh float64) *Joint {
	j := &Joint{HitBase: NewHitBase(zlow, zhigh), XY: xy}
	j.CalcHitBBox()
	return j
}

func (j *Joint) CalcHitBBox() {
	j.BBox.Left = j.XY.X
	j.BBox.Right = j.XY.X
	j.BBox.Top = j.XY.Y
	j.BBox.Bottom = j.XY.Y
}

func (j *Joint) Type() CollisionType {
	return CollisionTypeJoint
}

func (j *Joint) HitTest(ball *Ball, dtime float64, coll *CollisionEvent) float64 {
	return j.HitTestKinematics(ball.Kinematics(), dtime, coll)
}

// HitTestKinematics runs the swept test against an explicit ball state.
func (j *Joint) HitTestKinematics(k Kinematics, dtime float64, coll *CollisionEvent) float64 {
	if !j.Enabled || k.Frozen {
		return -1.0
	}
	return hitTestCylinder(k, j.XY, 0, j.BBox.ZLow, j.BBox.ZHigh, dtime, coll)
}

func (j *Joint) Collide(coll *CollisionEvent, player *Player) {
	if coll.Ball == nil || !coll.HasHit() {
		return
	}
	coll.Ball.Collide3DWall(*coll.HitNormal, coll.HitDistance, j.Material, player)
}

// hitTestCylinder sweeps a ball against a vertical cylinder of the given
// radius. A joint is a cylinder of radius zero.
func hitTestCylinder(k Kinematics, center Vec2, radius, zlow, zhigh, dtime float64, coll *CollisionEvent) float64 {
	dist := k.Pos.XY().Minus(center)
	dv := k.Vel.XY()

	bcddsq := dist.MagnitudeSquared()
	bcdd := math.Sqrt(bcddsq)
	if bcdd <= 1.0e-6 {
		return -1.0
	}

	b := dist.Dot(dv)
	bnv := b / bcdd
	if bnv > ContactVel {
		return -1.0
	}

	targetRadius := radius + k.Radius
	bnd := bcdd - targetRadius

	var hittime float64
	isContact := false
	if bnd < PhysTouch {
		if bnd < -k.Radius {
			return -1.0
		}
		if math.Abs(bnv) <= ContactVel {
			isContact = true
			hittime = 0
		} else {
			hittime = math.Max(0, -bnd/bnv)
		}
	} else {
		a := dv.MagnitudeSquared()
		if a < 1.0e-12 {
			return -1.0
		}
		t1, t2, ok := solveQuadratic(a, 2*b, bcddsq-targetRadius*targetRadius)
		if !ok {
			return -1.0
		}
		hittime = smallestNonNegative(t1, t2)
	}

	if invalidTime(hittime, dtime) {
		return -1.0
	}

	hitz := k.Pos.Z + hittime*k.Vel.Z
	if hitz < zlow || hitz > zhigh {
		return -1.0
	}

	hit := k.Pos.XY().Plus(dv.Times(hittime))
	norm := hit.Minus(center).Normalize()

	coll.setHit(Vec3{X: norm.X, Y: norm.Y}, bnd, hittime)
	if isContact {
		coll.setContact(bnv)
	}
	return hittime
}
