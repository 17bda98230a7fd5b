package plunger

import (
	"errors"
	"math"
	"testing"

	"github.com/playmatatu/pinball/internal/physics"
)

type fakeTable struct {
	height float64
}

func (f fakeTable) SurfaceHeight(surface string, x, y float64) float64 {
	return f.height
}

func (f fakeTable) ScaleZ() float64 {
	return 1
}

// Helper: a plunger centered at (100, 100) with unit mass and transfer,
// so the housing spans x 75..125, the back wall sits at y=80 and the tip
// travels from y=100 (retracted) to y=180 (forward).
func setupPlunger(t *testing.T) (*Hit, *physics.Player) {
	t.Helper()
	player := physics.NewPlayer(physics.Vec3{}, 7)
	h, err := NewHit(Data{
		Name:          "Plunger",
		Center:        physics.NewVec2(100, 100),
		Width:         25,
		HousingLength: 20,
		Stroke:        80,
		MomentumXfer:  1,
		Mass:          1,
	}, DefaultTuning, player, nil)
	if err != nil {
		t.Fatalf("NewHit: %v", err)
	}
	return h, player
}

func ballAt(seq *physics.IDSequence, x, y, vx, vy float64) *physics.Ball {
	return physics.NewBall(seq, physics.BallData{Mass: 1}, physics.NewVec3(x, y, physics.DefaultBallRadius), physics.NewVec3(vx, vy, 0))
}

func TestNewHitRejectsBadGeometry(t *testing.T) {
	cases := map[string]Data{
		"negative width":  {Width: -1},
		"negative stroke": {Stroke: -10},
		"park past end":   {ParkPosition: 1.5},
	}
	for name, d := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewHit(d, DefaultTuning, nil, nil)
			if !errors.Is(err, ErrInvalidGeometry) {
				t.Errorf("Expected ErrInvalidGeometry, got %v", err)
			}
		})
	}
}

func TestNewHitUsesSurfaceHeight(t *testing.T) {
	h, err := NewHit(Data{Center: physics.NewVec2(0, 0)}, Tuning{}, nil, fakeTable{height: 10})
	if err != nil {
		t.Fatalf("NewHit: %v", err)
	}
	box := h.HitBBox()
	if box.ZLow != 10 || box.ZHigh != 10+Height {
		t.Errorf("Z range = [%v, %v], want [10, %v]", box.ZLow, box.ZHigh, 10+Height)
	}
	if h.Type() != physics.CollisionTypePlunger {
		t.Errorf("Type = %v", h.Type())
	}
}

func TestMoverGeometry(t *testing.T) {
	h, _ := setupPlunger(t)
	m := h.Mover()

	if m.FrameStart != 100 || m.FrameEnd != 180 || m.BaseY != 80 {
		t.Errorf("Frames start=%v end=%v base=%v", m.FrameStart, m.FrameEnd, m.BaseY)
	}
	wantRest := 180 - DefaultParkPosition*80
	if math.Abs(m.Pos-wantRest) > 1e-9 {
		t.Errorf("Rest pos = %v, want %v", m.Pos, wantRest)
	}
	if m.TravelLimit < m.Pos {
		t.Errorf("TravelLimit %v below pos %v", m.TravelLimit, m.Pos)
	}

	normals := []struct {
		name string
		got  physics.Vec2
		want physics.Vec2
	}{
		{"base", m.lineSegBase.Normal, physics.NewVec2(0, -1)},
		{"left side", m.lineSegSide[0].Normal, physics.NewVec2(-1, 0)},
		{"right side", m.lineSegSide[1].Normal, physics.NewVec2(1, 0)},
		{"tip", m.lineSegEnd.Normal, physics.NewVec2(0, 1)},
	}
	for _, n := range normals {
		if math.Abs(n.got.X-n.want.X) > 1e-9 || math.Abs(n.got.Y-n.want.Y) > 1e-9 {
			t.Errorf("%s normal = %+v, want %+v", n.name, n.got, n.want)
		}
	}
}

func TestStrikeVelocityBaseline(t *testing.T) {
	h, _ := setupPlunger(t)
	h.Mover().Speed = 7.3

	if got := h.StrikeVelocity(1.0); got != 7.3 {
		t.Errorf("StrikeVelocity(1) = %v, want the plunger speed 7.3", got)
	}
	if got := h.StrikeVelocity(0.01); math.Abs(got-7.3/0.05) > 1e-9 {
		t.Errorf("StrikeVelocity(0.01) = %v, want mass floored at 0.05", got)
	}
}

func TestPlungerStrikesBallEndToEnd(t *testing.T) {
	var seq physics.IDSequence
	h, player := setupPlunger(t)
	m := h.Mover()
	m.Speed = 5
	m.FireBounce = -0.1

	ball := ballAt(&seq, 100, m.Pos+physics.DefaultBallRadius+1, 0, 0)
	before := ball.State

	coll := physics.NewCollisionEvent(ball)
	got := h.HitTest(ball, 1, coll)
	if got < 0 || got > 1 {
		t.Fatalf("HitTest = %v, want a hit in [0, 1]", got)
	}
	if math.Abs(got-0.2) > 1e-9 {
		t.Errorf("HitTest = %v, want 0.2", got)
	}
	if coll.HitVel.Y != 5 {
		t.Errorf("HitVel.Y = %v, want 5", coll.HitVel.Y)
	}
	if ball.State != before {
		t.Errorf("HitTest changed the ball")
	}

	h.Collide(coll, player)

	if vn := ball.State.Vel.Dot(*coll.HitNormal); vn <= 0 {
		t.Errorf("Normal velocity after collide = %v, want positive", vn)
	}
	if math.Abs(m.FireBounce-(-0.1*0.6)) > 1e-12 {
		t.Errorf("FireBounce = %v, want %v", m.FireBounce, -0.1*0.6)
	}
	if player.ActiveBallBC != ball {
		t.Errorf("Player did not record the plunger-touched ball")
	}
	if m.TravelLimit < m.Pos {
		t.Errorf("TravelLimit %v below pos %v after collide", m.TravelLimit, m.Pos)
	}
}

func TestHitTestRecordsButtonLight(t *testing.T) {
	var seq physics.IDSequence
	h, player := setupPlunger(t)
	player.TimeMsec = 1234

	ball := ballAt(&seq, 500, 500, 0, 0)
	if got := h.HitTest(ball, 1, physics.NewCollisionEvent(ball)); got != -1 {
		t.Errorf("Far ball hit at %v", got)
	}
	if player.LastPlungerHit != 1234 {
		t.Errorf("LastPlungerHit = %d, want 1234", player.LastPlungerHit)
	}

	// a disabled plunger still lights the button
	h.Enabled = false
	player.TimeMsec = 2000
	if got := h.HitTest(ball, 1, physics.NewCollisionEvent(ball)); got != -1 {
		t.Errorf("Disabled plunger hit at %v", got)
	}
	if player.LastPlungerHit != 2000 {
		t.Errorf("LastPlungerHit = %d, want 2000 while disabled", player.LastPlungerHit)
	}
}

func TestOverlapCorrection(t *testing.T) {
	var seq physics.IDSequence
	h, _ := setupPlunger(t)
	m := h.Mover()
	m.Speed = -0.5

	// two units inside the tip, closing in the tip frame
	ball := ballAt(&seq, 100, m.Pos+physics.DefaultBallRadius-2, 0, -1)

	coll := physics.NewCollisionEvent(ball)
	got := h.HitTest(ball, 1, coll)
	if got != 0 {
		t.Fatalf("HitTest = %v, want 0", got)
	}
	if math.Abs(coll.HitDistance+2) > 1e-9 {
		t.Errorf("HitDistance = %v, want -2", coll.HitDistance)
	}
	if math.Abs(coll.HitVel.Y) < 2 {
		t.Errorf("|HitVel.Y| = %v, want >= 2", math.Abs(coll.HitVel.Y))
	}
}

func TestHitTestIsIdempotent(t *testing.T) {
	var seq physics.IDSequence
	h, _ := setupPlunger(t)
	h.Mover().Speed = 3

	ball := ballAt(&seq, 110, h.Mover().Pos+40, 1, -6)
	first := physics.NewCollisionEvent(ball)
	second := physics.NewCollisionEvent(ball)

	t1 := h.HitTest(ball, 5, first)
	t2 := h.HitTest(ball, 5, second)
	if t1 != t2 {
		t.Fatalf("Times differ: %v vs %v", t1, t2)
	}
	if t1 < 0 {
		t.Fatalf("Expected a hit")
	}
	if *first.HitNormal != *second.HitNormal || *first.HitVel != *second.HitVel || first.HitDistance != second.HitDistance {
		t.Errorf("Events differ: %+v vs %+v", first, second)
	}
}

func TestHitTestsDoNotShareEvents(t *testing.T) {
	var seq physics.IDSequence
	h, _ := setupPlunger(t)
	m := h.Mover()
	m.Speed = 3

	near := ballAt(&seq, 110, m.Pos+40, 1, -6)
	side := ballAt(&seq, 60, 150, 20, 0)

	solo := physics.NewCollisionEvent(near)
	tSolo := h.HitTest(near, 5, solo)
	if tSolo < 0 {
		t.Fatalf("Expected a hit")
	}

	first := physics.NewCollisionEvent(near)
	other := physics.NewCollisionEvent(side)
	t1 := h.HitTest(near, 5, first)
	h.HitTest(side, 5, other)

	if t1 != tSolo || *first.HitNormal != *solo.HitNormal || *first.HitVel != *solo.HitVel {
		t.Errorf("Event changed by a later hit test: %+v vs %+v", first, solo)
	}
	if other.HitNormal != nil && first.HitNormal == other.HitNormal {
		t.Errorf("Events share a normal")
	}
}

func TestStationarySideHasNoSurfaceVelocity(t *testing.T) {
	var seq physics.IDSequence
	h, _ := setupPlunger(t)
	h.Mover().Speed = 4

	ball := ballAt(&seq, 45, 130, 10, 0)
	coll := physics.NewCollisionEvent(ball)
	got := h.HitTest(ball, 1, coll)
	if math.Abs(got-0.5) > 1e-9 {
		t.Fatalf("HitTest = %v, want 0.5", got)
	}
	if coll.HitVel.X != 0 || coll.HitVel.Y != 0 {
		t.Errorf("HitVel = %+v, want zero for a housing wall", *coll.HitVel)
	}
	if coll.HitNormal.X != -1 {
		t.Errorf("Normal = %+v, want -X", *coll.HitNormal)
	}
}

func TestCollideSeparatingIsNoOp(t *testing.T) {
	var seq physics.IDSequence
	h, player := setupPlunger(t)
	m := h.Mover()
	m.FireBounce = -0.1

	ball := ballAt(&seq, 100, m.Pos+30, 0, 4)
	before := ball.State
	coll := physics.NewCollisionEvent(ball)
	n := physics.NewVec3(0, 1, 0)
	coll.HitNormal = &n
	coll.HitVel = &physics.Vec2{}
	coll.HitDistance = 5

	h.Collide(coll, player)

	if ball.State != before {
		t.Errorf("Separating ball changed")
	}
	if m.FireBounce != -0.1 {
		t.Errorf("FireBounce changed on a separating ball: %v", m.FireBounce)
	}
	if player.ActiveBallBC != nil {
		t.Errorf("Separating ball recorded as plunger-touched")
	}
}

func TestCollideReverseImpulse(t *testing.T) {
	var seq physics.IDSequence
	h, player := setupPlunger(t)
	m := h.Mover()

	ball := ballAt(&seq, 100, m.Pos+25, 0, -4)
	coll := physics.NewCollisionEvent(ball)
	n := physics.NewVec3(0, 1, 0)
	coll.HitNormal = &n
	coll.HitVel = &physics.Vec2{Y: 1}

	h.Collide(coll, player)

	// dot = -5, impulse = 5*1.45/2, fed back at 0.22 of vel.y*impulse
	impulse := 5 * 1.45 / 2
	want := -4 * impulse * 0.22
	if math.Abs(m.ReverseImpulse-want) > 1e-9 {
		t.Errorf("ReverseImpulse = %v, want %v", m.ReverseImpulse, want)
	}
	wantVel := (-4 + impulse) * 0.999
	if math.Abs(ball.State.Vel.Y-wantVel) > 1e-9 {
		t.Errorf("Vel.Y = %v, want %v", ball.State.Vel.Y, wantVel)
	}
}

func TestScatterStaysBounded(t *testing.T) {
	var seq physics.IDSequence
	h, player := setupPlunger(t)
	m := h.Mover()
	m.ScatterVelocity = 2

	for i := 0; i < 200; i++ {
		ball := ballAt(&seq, 100, m.Pos+25, 0, -10)
		coll := physics.NewCollisionEvent(ball)
		n := physics.NewVec3(0, 1, 0)
		coll.HitNormal = &n
		coll.HitVel = &physics.Vec2{}

		h.Collide(coll, player)

		unscattered := (-10 + 10*1.45/2) * 0.999
		// r*(1-r^2) peaks at 2/(3*sqrt(3)), so the shape keeps it within scatterVel
		if d := math.Abs(ball.State.Vel.Y - unscattered); d > m.ScatterVelocity*1.001 {
			t.Fatalf("Scatter %v exceeds %v", d, m.ScatterVelocity)
		}
	}
}

func TestPullBackStopsAtFrameStart(t *testing.T) {
	h, player := setupPlunger(t)
	m := h.Mover()

	m.PullBack()
	for i := 0; i < 1000; i++ {
		m.UpdateVelocities(player)
		m.UpdateDisplacements(1)
	}
	if m.Pos != m.FrameStart {
		t.Errorf("Pos = %v, want %v", m.Pos, m.FrameStart)
	}
	if m.Frame() != 0 {
		t.Errorf("Frame = %d, want 0 when retracted", m.Frame())
	}
	if got := m.ReleasePosition(); got != 1 {
		t.Errorf("ReleasePosition = %v, want 1", got)
	}
}

func TestFireBouncesAndSettles(t *testing.T) {
	h, player := setupPlunger(t)
	m := h.Mover()

	m.Fire(1)
	if !m.IsFiring() || m.IsPulling() {
		t.Fatalf("Fire did not start a release")
	}
	if m.Pos != m.FrameStart {
		t.Errorf("Fire(1) should start fully retracted, pos=%v", m.Pos)
	}

	maxPos := m.Pos
	for i := 0; i < 2000; i++ {
		m.UpdateVelocities(player)
		m.UpdateDisplacements(1)
		maxPos = math.Max(maxPos, m.Pos)
		if m.Pos > m.FrameEnd || m.Pos < m.FrameStart {
			t.Fatalf("Tip left its frame: %v", m.Pos)
		}
	}
	if maxPos != m.FrameEnd {
		t.Errorf("Full pull should reach the forward stop, max=%v", maxPos)
	}
	if m.IsFiring() {
		t.Errorf("Release never ended")
	}
	rest := m.FrameEnd - m.RestPos*m.FrameLen
	if math.Abs(m.Pos-rest) > 0.1 {
		t.Errorf("Pos = %v, want settled near %v", m.Pos, rest)
	}
	if m.State().Frame != m.Frame() {
		t.Errorf("State frame %d, Frame %d", m.State().Frame, m.Frame())
	}
}

func TestStateEquals(t *testing.T) {
	a := State{Frame: 3}
	if !a.Equals(&State{Frame: 3}) {
		t.Errorf("Equal states reported different")
	}
	if a.Equals(&State{Frame: 4}) || a.Equals(nil) {
		t.Errorf("Different states reported equal")
	}
}

func TestPlungerLaunchesBallThroughStepper(t *testing.T) {
	var seq physics.IDSequence
	h, player := setupPlunger(t)
	m := h.Mover()

	stepper := physics.NewStepper(player)
	stepper.AddHitObject(h)
	stepper.AddMover(m)
	ball := ballAt(&seq, 100, m.Pos+physics.DefaultBallRadius+1, 0, 0)
	stepper.AddBall(ball)
	startY := ball.State.Pos.Y

	m.PullBack()
	for i := 0; i < 100; i++ {
		stepper.UpdateVelocities()
		stepper.Step(1)
	}
	m.Fire(m.ReleasePosition())
	for i := 0; i < 20; i++ {
		stepper.UpdateVelocities()
		stepper.Step(1)
	}

	if ball.State.Vel.Y <= 0 {
		t.Errorf("Ball was not launched: vy=%v", ball.State.Vel.Y)
	}
	if ball.State.Pos.Y <= startY {
		t.Errorf("Ball did not move forward: y=%v start=%v", ball.State.Pos.Y, startY)
	}
	if player.ActiveBallBC != ball {
		t.Errorf("Launched ball not recorded")
	}
}
