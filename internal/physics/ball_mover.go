package physics

// Mover is anything whose state advances with time between collisions:
// balls, and moving elements like the plunger.
type Mover interface {
	// UpdateDisplacements advances positions by dtime.
	UpdateDisplacements(dtime float64)
	// UpdateVelocities applies forces once per physics tick.
	UpdateVelocities(player *Player)
}

// BallMover integrates a ball's velocity into position and orientation.
type BallMover struct {
	ball *Ball
}

func (m *BallMover) UpdateDisplacements(dtime float64) {
	b := m.ball
	if b.Frozen {
		return
	}

	b.State.Pos = b.State.Pos.Plus(b.State.Vel.Times(dtime))
	b.hit.CalcHitBBox()

	skew := SkewSymmetric(b.State.AngularVelocity)
	added := skew.Mul(b.State.Orientation).Times(dtime)
	b.State.Orientation = b.State.Orientation.Plus(added).OrthoNormalize()

	b.State.AngularVelocity = b.State.AngularMomentum.Times(1.0 / b.inertia())
}

func (m *BallMover) UpdateVelocities(player *Player) {
	b := m.ball
	if b.Frozen || player == nil {
		return
	}
	b.State.Vel = b.State.Vel.Plus(player.Gravity.Times(PhysFactor))
}
