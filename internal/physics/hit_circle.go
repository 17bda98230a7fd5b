package physics

// HitCircle is a solid vertical cylinder, the shape of bumpers and posts.
type HitCircle struct {
	HitBase

	Center Vec2
	Radius float64
}

func NewHitCircle(center Vec2, radius, zlow, zhigh float64) *HitCircle {
	c := &HitCircle{HitBase: NewHitBase(zlow, zhigh), Center: center, Radius: radius}
	c.CalcHitBBox()
	return c
}

func (c *HitCircle) CalcHitBBox() {
	c.BBox.Left = c.Center.X - c.Radius
	c.BBox.Right = c.Center.X + c.Radius
	c.BBox.Top = c.Center.Y - c.Radius
	c.BBox.Bottom = c.Center.Y + c.Radius
}

func (c *HitCircle) Type() CollisionType {
	return CollisionTypeCircle
}

func (c *HitCircle) HitTest(ball *Ball, dtime float64, coll *CollisionEvent) float64 {
	return c.HitTestKinematics(ball.Kinematics(), dtime, coll)
}

func (c *HitCircle) HitTestKinematics(k Kinematics, dtime float64, coll *CollisionEvent) float64 {
	if !c.Enabled || k.Frozen {
		return -1.0
	}
	return hitTestCylinder(k, c.Center, c.Radius, c.BBox.ZLow, c.BBox.ZHigh, dtime, coll)
}

func (c *HitCircle) Collide(coll *CollisionEvent, player *Player) {
	if coll.Ball == nil || !coll.HasHit() {
		return
	}
	coll.Ball.Collide3DWall(*coll.HitNormal, coll.HitDistance, c.Material, player)
}
