package physics

import "math"

// StepStats counts what happened during the last Step.
type StepStats struct {
	Iterations int
	Collisions int
	Contacts   int
	// Forced counts slices stretched to StaticTime to guarantee progress.
	Forced int
}

// Stepper advances a set of balls through a set of hit objects, one
// collision at a time, until the time budget of a step is used up.
//
// Every hit test of an iteration is a prediction; the only writes happen
// after the earliest time has been chosen, when the movers advance and the
// winning events are collided.
type Stepper struct {
	player     *Player
	hitObjects []HitObject
	balls      []*Ball
	movers     []Mover
	pool       EventPool
	contacts   []*CollisionEvent

	// OnCollide, when set, is called after each resolved collision.
	OnCollide func(coll *CollisionEvent)

	stats StepStats
}

// NewStepper creates a stepper sharing bookkeeping through player.
func NewStepper(player *Player) *Stepper {
	return &Stepper{player: player}
}

func (s *Stepper) Player() *Player {
	return s.player
}

func (s *Stepper) AddHitObject(h HitObject) {
	s.hitObjects = append(s.hitObjects, h)
}

func (s *Stepper) HitObjects() []HitObject {
	return s.hitObjects
}

// AddMover registers a non-ball mover, such as a plunger.
func (s *Stepper) AddMover(m Mover) {
	s.movers = append(s.movers, m)
}

func (s *Stepper) AddBall(b *Ball) {
	s.balls = append(s.balls, b)
}

// RemoveBall drops b from the simulation. Returns false if b was unknown.
func (s *Stepper) RemoveBall(b *Ball) bool {
	for i, other := range s.balls {
		if other == b {
			s.balls = append(s.balls[:i], s.balls[i+1:]...)
			return true
		}
	}
	return false
}

func (s *Stepper) Balls() []*Ball {
	return s.balls
}

// Stats returns the counters of the last Step.
func (s *Stepper) Stats() StepStats {
	return s.stats
}

// UpdateVelocities applies per-tick forces to every mover.
func (s *Stepper) UpdateVelocities() {
	for _, m := range s.movers {
		m.UpdateVelocities(s.player)
	}
	for _, b := range s.balls {
		b.Mover().UpdateVelocities(s.player)
	}
}

// Step consumes dtime, stopping at every collision on the way.
func (s *Stepper) Step(dtime float64) {
	s.stats = StepStats{}
	staticCnt := StaticCounts

	for dtime > 0 && s.stats.Iterations < MaxIterations {
		s.stats.Iterations++
		hittime := dtime

		for _, h := range s.hitObjects {
			h.CalcHitBBox()
		}

		for _, ball := range s.balls {
			coll := ball.Collision()
			coll.Reset(ball)
			if ball.Frozen {
				continue
			}
			if best := s.earliestHit(ball, hittime); best != nil {
				ball.SetCollision(best)
				if best.HitTime <= hittime {
					hittime = best.HitTime
				}
			}
		}

		// Contacts report zero time forever; stretch the slice once the
		// allowance is used up so the step always completes.
		if hittime < StaticTime {
			staticCnt--
			if staticCnt < 0 {
				staticCnt = 0
				hittime = math.Min(StaticTime, dtime)
				s.stats.Forced++
			}
		}

		for _, m := range s.movers {
			m.UpdateDisplacements(hittime)
		}
		for _, b := range s.balls {
			b.Mover().UpdateDisplacements(hittime)
		}

		// drop events that fall past this slice so ball pairs only see
		// each other's due hits
		for _, ball := range s.balls {
			if coll := ball.Collision(); coll.HitTime > hittime {
				coll.Obj = nil
			}
		}

		s.contacts = s.contacts[:0]
		for _, ball := range s.balls {
			coll := ball.Collision()
			if coll.Obj == nil {
				continue
			}
			if coll.IsContact {
				s.contacts = append(s.contacts, coll)
				continue
			}
			coll.Obj.Collide(coll, s.player)
			s.stats.Collisions++
			if s.OnCollide != nil {
				s.OnCollide(coll)
			}
		}
		for _, coll := range s.contacts {
			coll.Obj.Contact(coll, hittime, s.player)
			s.stats.Contacts++
		}
		for _, ball := range s.balls {
			ball.Collision().Obj = nil
		}

		s.pool.ReleaseAll()
		dtime -= hittime
	}
}

// earliestHit tests ball against every candidate and returns the first
// contact within maxTime, or nil. Later candidates only search up to the
// best time found so far.
func (s *Stepper) earliestHit(ball *Ball, maxTime float64) *CollisionEvent {
	sweep := ball.SweptBBox(maxTime)
	var best *CollisionEvent
	bestTime := maxTime

	try := func(h HitObject, box BBox) {
		if !h.IsEnabled() || !box.Intersects(sweep) {
			return
		}
		ev := s.pool.Acquire(ball)
		t := h.HitTest(ball, bestTime, ev)
		if t >= 0 && t <= bestTime {
			ev.Obj = h
			best = ev
			bestTime = t
		}
	}

	for _, h := range s.hitObjects {
		try(h, h.HitBBox())
	}
	for _, other := range s.balls {
		if other == ball {
			continue
		}
		try(other.Hit(), other.SweptBBox(maxTime))
	}
	return best
}
