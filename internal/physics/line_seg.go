package physics

import (
	"errors"
	"math"
)

// ErrDegenerateSegment is returned for a segment whose endpoints coincide.
var ErrDegenerateSegment = errors.New("degenerate line segment")

// LineSeg is a vertical wall between two points, solid on the side its
// normal points to. The normal is the left normal of V1->V2.
type LineSeg struct {
	HitBase

	V1, V2 Vec2
	Normal Vec2
	Length float64
}

// NewLineSeg creates a wall from v1 to v2 spanning [zlow, zhigh].
func NewLineSeg(v1, v2 Vec2, zlow, zhigh float64) (*LineSeg, error) {
	if v2.Minus(v1).MagnitudeSquared() == 0 {
		return nil, ErrDegenerateSegment
	}
	l := &LineSeg{HitBase: NewHitBase(zlow, zhigh)}
	l.SetEndpoints(v1, v2)
	return l, nil
}

// SetEndpoints moves the segment and recomputes its normal. Moving parts
// call this when their geometry changes.
func (l *LineSeg) SetEndpoints(v1, v2 Vec2) {
	l.V1 = v1
	l.V2 = v2
	l.CalcNormal()
}

func (l *LineSeg) CalcNormal() {
	d := l.V2.Minus(l.V1)
	length := d.Magnitude()
	if length == 0 {
		return
	}
	l.Length = length
	l.Normal = d.LeftNormal().Times(1.0 / length)
}

func (l *LineSeg) CalcHitBBox() {
	l.BBox.Left = math.Min(l.V1.X, l.V2.X)
	l.BBox.Right = math.Max(l.V1.X, l.V2.X)
	l.BBox.Top = math.Min(l.V1.Y, l.V2.Y)
	l.BBox.Bottom = math.Max(l.V1.Y, l.V2.Y)
}

func (l *LineSeg) Type() CollisionType {
	return CollisionTypeLineSeg
}

func (l *LineSeg) HitTest(ball *Ball, dtime float64, coll *CollisionEvent) float64 {
	return l.HitTestKinematics(ball.Kinematics(), dtime, coll)
}

// HitTestKinematics runs the swept test against an explicit ball state.
func (l *LineSeg) HitTestKinematics(k Kinematics, dtime float64, coll *CollisionEvent) float64 {
	if !l.Enabled || k.Frozen {
		return -1.0
	}

	// ball velocity along the normal, positive when receding
	bnv := k.Vel.X*l.Normal.X + k.Vel.Y*l.Normal.Y
	if bnv > LowNormVel {
		return -1.0
	}

	bcpd := (k.Pos.X-l.V1.X)*l.Normal.X + (k.Pos.Y-l.V1.Y)*l.Normal.Y
	bnd := bcpd - k.Radius

	// too deep inside, or behind the face
	if bnd < -k.Radius || bcpd < 0 {
		return -1.0
	}

	var hittime float64
	if bnd <= PhysTouch {
		// slow approaches inside the skin are deferred so they do not
		// compete with fast zero-time hits
		inside := bnd <= 0
		if inside || math.Abs(bnv) > ContactVel || bnd <= -PhysTouch {
			hittime = 0
		} else {
			hittime = bnd / (2 * PhysTouch) / -bnv
		}
	} else if math.Abs(bnv) > LowNormVel {
		hittime = bnd / -bnv
	} else {
		return -1.0
	}

	if invalidTime(hittime, dtime) {
		return -1.0
	}

	btv := k.Vel.X*l.Normal.Y - k.Vel.Y*l.Normal.X
	btd := (k.Pos.X-l.V1.X)*l.Normal.Y - (k.Pos.Y-l.V1.Y)*l.Normal.X + btv*hittime
	if btd < -TolEndpoints || btd > l.Length+TolEndpoints {
		return -1.0
	}

	hitz := k.Pos.Z + k.Vel.Z*hittime
	if hitz+k.Radius*0.5 < l.BBox.ZLow || hitz-k.Radius*0.5 > l.BBox.ZHigh {
		return -1.0
	}

	coll.setHit(Vec3{X: l.Normal.X, Y: l.Normal.Y}, bnd, hittime)
	if math.Abs(bnv) <= ContactVel && math.Abs(bnd) <= PhysTouch {
		coll.setContact(bnv)
	}
	return hittime
}

func (l *LineSeg) Collide(coll *CollisionEvent, player *Player) {
	if coll.Ball == nil || !coll.HasHit() {
		return
	}
	coll.Ball.Collide3DWall(*coll.HitNormal, coll.HitDistance, l.Material, player)
}
