package physics

import "math/rand/v2"

// Player is the cross-step bookkeeping that collision resolution reads and
// writes. One Player belongs to one simulation.
type Player struct {
	// TimeMsec is the current simulation time in milliseconds.
	TimeMsec int64

	// LastPlungerHit is the TimeMsec at which a ball was last seen near a
	// plunger. Drives the launch button light.
	LastPlungerHit int64

	// ActiveBallBC is the ball most recently touched by a plunger.
	ActiveBallBC *Ball

	// ActiveBall is the ball most recently involved in any resolved hit.
	ActiveBall *Ball

	Gravity Vec3

	// Rand drives scatter. Seed it for reproducible runs.
	Rand *rand.Rand
}

// NewPlayer returns bookkeeping with the given gravity vector and a random
// source seeded with seed.
func NewPlayer(gravity Vec3, seed uint64) *Player {
	return &Player{
		Gravity: gravity,
		Rand:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Random returns a number in [0, 1).
func (p *Player) Random() float64 {
	if p.Rand == nil {
		return rand.Float64()
	}
	return p.Rand.Float64()
}
