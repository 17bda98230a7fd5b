package physics

// CollisionEvent describes one predicted or realized contact between a ball
// and a hit object.
type CollisionEvent struct {
	// Ball is the ball that collided. Borrowed, never owned.
	Ball *Ball

	// Obj is what the ball collided with; nil until the stepper promotes the
	// event to a winner.
	Obj HitObject

	// HitTime is the offset into the current budget at which contact occurs.
	HitTime float64

	// HitDistance is the signed distance at HitTime, negative when embedded.
	HitDistance float64

	// HitNormal and HitVel are set only once a hit test has claimed a hit.
	// HitVel is the velocity of the struck surface at the contact point and
	// is non-zero only for moving parts.
	HitNormal *Vec3
	HitVel    *Vec2

	// HitOrgNormalVelocity is the approach speed along the normal, valid
	// only when IsContact is set.
	HitOrgNormalVelocity float64

	HitMomentBit bool

	// HitFlag carries element-specific meaning, e.g. the side of a gate.
	HitFlag bool

	IsContact bool
}

// NewCollisionEvent returns an empty event for ball.
func NewCollisionEvent(ball *Ball) *CollisionEvent {
	return &CollisionEvent{Ball: ball}
}

// Reset clears every field and rebinds the event to ball.
func (c *CollisionEvent) Reset(ball *Ball) {
	*c = CollisionEvent{Ball: ball}
}

// HasHit reports whether a hit test populated the event.
func (c *CollisionEvent) HasHit() bool {
	return c.HitNormal != nil
}

// CopyFrom overwrites c with the contents of o. Normal and velocity are
// copied by value so that o can be reused.
func (c *CollisionEvent) CopyFrom(o *CollisionEvent) {
	*c = *o
	if o.HitNormal != nil {
		n := *o.HitNormal
		c.HitNormal = &n
	}
	if o.HitVel != nil {
		v := *o.HitVel
		c.HitVel = &v
	}
}

// setHit records the geometric result of a successful hit test.
func (c *CollisionEvent) setHit(normal Vec3, distance, hitTime float64) {
	n := normal
	c.HitNormal = &n
	c.HitVel = &Vec2{}
	c.HitDistance = distance
	c.HitTime = hitTime
	c.IsContact = false
	c.HitOrgNormalVelocity = 0
}

func (c *CollisionEvent) setContact(bnv float64) {
	c.IsContact = true
	c.HitOrgNormalVelocity = bnv
}
