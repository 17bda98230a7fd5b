package bumper

import (
	"errors"
	"math"
	"testing"

	"github.com/playmatatu/pinball/internal/physics"
)

type flatTable struct{}

func (flatTable) SurfaceHeight(surface string, x, y float64) float64 { return 0 }
func (flatTable) ScaleZ() float64                                    { return 1 }

func visibleData() Data {
	return Data{
		Name:           "Bumper1",
		Center:         physics.NewVec2(0, 0),
		IsVisible:      true,
		IsRingVisible:  true,
		IsSkirtVisible: true,
		HitEvent:       true,
	}.WithDefaults()
}

func TestSkirtResetsWhenHidden(t *testing.T) {
	cases := map[string]func(d *Data){
		"bumper hidden": func(d *Data) { d.IsVisible = false },
		"skirt hidden":  func(d *Data) { d.IsSkirtVisible = false },
	}
	for name, hide := range cases {
		t.Run(name, func(t *testing.T) {
			d := visibleData()
			hide(&d)
			state := State{SkirtRotX: 3, SkirtRotY: -2}
			a := NewAnimation(&d, &state)
			a.HitEvent = true

			a.UpdateAnimation(16, flatTable{})

			if state.SkirtRotX != 0 || state.SkirtRotY != 0 {
				t.Errorf("Skirt = (%v, %v), want (0, 0)", state.SkirtRotX, state.SkirtRotY)
			}
		})
	}
}

func TestSkirtTiltsAwayFromHit(t *testing.T) {
	d := visibleData()
	var state State
	a := NewAnimation(&d, &state)
	a.Init(0)

	a.BallHitPosition = physics.NewVec3(10, 10, 25)
	a.HitEvent = true
	a.UpdateAnimation(10, flatTable{})

	want := 5 * math.Cos(math.Pi/4)
	if math.Abs(state.SkirtRotX+want) > 1e-9 || math.Abs(state.SkirtRotY-want) > 1e-9 {
		t.Errorf("Skirt = (%v, %v), want (%v, %v)", state.SkirtRotX, state.SkirtRotY, -want, want)
	}
	if a.HitEvent {
		t.Errorf("Hit signal was not consumed")
	}

	a.UpdateAnimation(100, flatTable{})
	if state.SkirtRotX == 0 || !a.SkirtAnimating() {
		t.Errorf("Skirt reset inside the 160ms window")
	}

	a.UpdateAnimation(171, flatTable{})
	if state.SkirtRotX != 0 || state.SkirtRotY != 0 || a.SkirtAnimating() {
		t.Errorf("Skirt not reset after the window: (%v, %v)", state.SkirtRotX, state.SkirtRotY)
	}
}

func TestSkirtHitStraightAcross(t *testing.T) {
	d := visibleData()
	var state State
	a := NewAnimation(&d, &state)

	a.BallHitPosition = physics.NewVec3(10, 0, 25)
	a.HitEvent = true
	a.UpdateAnimation(1, flatTable{})

	if math.IsNaN(state.SkirtRotX) || math.IsNaN(state.SkirtRotY) {
		t.Fatalf("Skirt is NaN")
	}
	if math.Abs(state.SkirtRotX) > 1e-5 || math.Abs(state.SkirtRotY-5) > 1e-5 {
		t.Errorf("Skirt = (%v, %v), want (0, 5)", state.SkirtRotX, state.SkirtRotY)
	}
}

func TestRingDropsAndReturns(t *testing.T) {
	d := visibleData()
	var state State
	a := NewAnimation(&d, &state)
	a.Init(0)
	limit := d.RingDropOffset + d.HeightScale*0.5

	a.HitEvent = true
	a.UpdateAnimation(10, flatTable{})
	if state.RingOffset != -d.RingSpeed*10 {
		t.Errorf("Ring offset = %v, want %v", state.RingOffset, -d.RingSpeed*10)
	}

	a.UpdateAnimation(200, flatTable{})
	if state.RingOffset != -limit {
		t.Errorf("Ring offset = %v, want clamped at %v", state.RingOffset, -limit)
	}

	a.UpdateAnimation(1000, flatTable{})
	if state.RingOffset != 0 || a.RingAnimating() {
		t.Errorf("Ring did not come back: offset=%v animating=%v", state.RingOffset, a.RingAnimating())
	}
}

func TestAnimationIgnoresTimeGoingBack(t *testing.T) {
	d := visibleData()
	var state State
	a := NewAnimation(&d, &state)
	a.Init(100)

	a.HitEvent = true
	a.UpdateAnimation(50, flatTable{})
	if state.RingOffset != 0 {
		t.Errorf("Ring moved without elapsed time: %v", state.RingOffset)
	}
}

func setupBumper(t *testing.T, d Data) *Hit {
	t.Helper()
	h, err := NewHit(d, flatTable{})
	if err != nil {
		t.Fatalf("NewHit: %v", err)
	}
	return h
}

func TestNewHitRejectsBadRadius(t *testing.T) {
	d := visibleData()
	d.Radius = -3
	if _, err := NewHit(d, nil); !errors.Is(err, ErrInvalidGeometry) {
		t.Errorf("Expected ErrInvalidGeometry, got %v", err)
	}
}

func TestBumperKicksHardHits(t *testing.T) {
	var seq physics.IDSequence
	h := setupBumper(t, visibleData())
	if h.Type() != physics.CollisionTypeBumper {
		t.Errorf("Type = %v", h.Type())
	}

	fired := 0
	h.OnHit = func(*Hit, *physics.Ball) { fired++ }

	ball := physics.NewBall(&seq, physics.BallData{}, physics.NewVec3(100, 0, 25), physics.NewVec3(-10, 0, 0))
	coll := physics.NewCollisionEvent(ball)
	got := h.HitTest(ball, 10, coll)
	if math.Abs(got-3) > 1e-9 {
		t.Fatalf("HitTest = %v, want 3", got)
	}

	h.Collide(coll, physics.NewPlayer(physics.Vec3{}, 1))

	want := -10 + 10*(1+physics.DefaultMaterial.Elasticity) + DefaultForce
	if math.Abs(ball.State.Vel.X-want) > 1e-9 {
		t.Errorf("Vel.X = %v, want %v", ball.State.Vel.X, want)
	}
	if fired != 1 {
		t.Errorf("OnHit fired %d times", fired)
	}
	if !h.Animation().HitEvent {
		t.Errorf("Animation was not signalled")
	}
	if h.Animation().BallHitPosition != ball.State.Pos {
		t.Errorf("BallHitPosition = %+v", h.Animation().BallHitPosition)
	}
}

func TestBumperIgnoresSoftHits(t *testing.T) {
	var seq physics.IDSequence
	h := setupBumper(t, visibleData())
	fired := 0
	h.OnHit = func(*Hit, *physics.Ball) { fired++ }

	ball := physics.NewBall(&seq, physics.BallData{}, physics.NewVec3(100, 0, 25), physics.NewVec3(-0.5, 0, 0))
	coll := physics.NewCollisionEvent(ball)
	if got := h.HitTest(ball, 100, coll); got < 0 {
		t.Fatalf("Expected a hit")
	}
	h.Collide(coll, nil)

	if fired != 0 || h.Animation().HitEvent {
		t.Errorf("Soft hit fired the bumper")
	}
	if ball.State.Vel.X <= 0 {
		t.Errorf("Ball should still bounce off, vx=%v", ball.State.Vel.X)
	}
}

func TestPassiveBumperNeverFires(t *testing.T) {
	var seq physics.IDSequence
	d := visibleData()
	d.HitEvent = false
	h := setupBumper(t, d)

	ball := physics.NewBall(&seq, physics.BallData{}, physics.NewVec3(100, 0, 25), physics.NewVec3(-10, 0, 0))
	coll := physics.NewCollisionEvent(ball)
	h.HitTest(ball, 10, coll)
	h.Collide(coll, nil)

	if h.Animation().HitEvent {
		t.Errorf("Passive bumper signalled its animation")
	}
	if math.Abs(ball.State.Vel.X-3) > 1e-9 {
		t.Errorf("Vel.X = %v, want a plain wall bounce of 3", ball.State.Vel.X)
	}
}
