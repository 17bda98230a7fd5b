package sim

import (
	"errors"
	"testing"

	"github.com/playmatatu/pinball/internal/physics"
	"github.com/playmatatu/pinball/internal/table"
)

// Helper: a tall box with a plunger at x=100 and a pop bumper at
// (300, 300). Balls are supplied per test.
const laneTable = `
name: lane
surfaces:
  playfield: 0
walls:
  - name: box
    closed: true
    points:
      - {x: 0, y: 0}
      - {x: 400, y: 0}
      - {x: 400, y: 2000}
      - {x: 0, y: 2000}
plungers:
  - name: Plunger
    center: {x: 100, y: 40}
    width: 25
    housingLength: 20
    stroke: 80
    mass: 30
bumpers:
  - name: Pop
    center: {x: 300, y: 300}
    radius: 45
`

func setupSession(t *testing.T, balls ...table.Ball) *Session {
	t.Helper()
	def, err := table.Parse([]byte(laneTable))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	def.Balls = balls
	s, err := NewSession("sim_test", def, Options{Seed: 42, StepMsec: 10})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return s
}

func TestAdvanceCarriesPartialTicks(t *testing.T) {
	s := setupSession(t)

	f, err := s.Advance(25)
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if f.TimeMsec != 20 || f.Totals.Ticks != 2 {
		t.Errorf("After 25ms: time=%d ticks=%d, want 20 and 2", f.TimeMsec, f.Totals.Ticks)
	}

	f, _ = s.Advance(5)
	if f.TimeMsec != 30 || f.Totals.Ticks != 3 {
		t.Errorf("After 30ms: time=%d ticks=%d, want 30 and 3", f.TimeMsec, f.Totals.Ticks)
	}
}

func TestAdvanceRejectsBadDurations(t *testing.T) {
	s := setupSession(t)
	for _, ms := range []int64{-1, MaxAdvanceMsec + 1} {
		if _, err := s.Advance(ms); !errors.Is(err, ErrInvalidDuration) {
			t.Errorf("Advance(%d): expected ErrInvalidDuration, got %v", ms, err)
		}
	}
}

func TestClosedSessionRefusesWork(t *testing.T) {
	s := setupSession(t)
	if !s.Close() {
		t.Fatalf("First Close returned false")
	}
	if s.Close() {
		t.Errorf("Second Close returned true")
	}
	if _, err := s.Advance(10); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("Advance: expected ErrSessionClosed, got %v", err)
	}
	if err := s.PullBack(""); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("PullBack: expected ErrSessionClosed, got %v", err)
	}
}

func TestPlungerLookup(t *testing.T) {
	s := setupSession(t)
	if err := s.PullBack("nope"); !errors.Is(err, ErrPlungerNotFound) {
		t.Errorf("Expected ErrPlungerNotFound, got %v", err)
	}
	if err := s.PullBack(""); err != nil {
		t.Errorf("PullBack on the default plunger: %v", err)
	}
	if !s.Frame().Plungers[0].Pulling {
		t.Errorf("Plunger not pulling after PullBack")
	}
	if err := s.Fire("Plunger"); err != nil {
		t.Errorf("Fire: %v", err)
	}
	if s.Frame().Plungers[0].Pulling {
		t.Errorf("Plunger still pulling after Fire")
	}
}

func TestSessionLaunchesBall(t *testing.T) {
	// the tip rests at y=106.7, so the ball sits just above it
	s := setupSession(t, table.Ball{Position: physics.NewVec2(100, 135)})

	f, err := s.Advance(10)
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if !f.PlungerLight {
		t.Errorf("Launch light off with a ball in the lane")
	}
	startY := f.Balls[0].Position.Y

	if err := s.PullBack(""); err != nil {
		t.Fatalf("PullBack: %v", err)
	}
	s.Advance(1000)
	if err := s.Fire(""); err != nil {
		t.Fatalf("Fire: %v", err)
	}
	f, _ = s.Advance(200)

	ball := f.Balls[0]
	if ball.Velocity.Y <= 0 {
		t.Errorf("Ball was not launched: vy=%v", ball.Velocity.Y)
	}
	if ball.Position.Y <= startY {
		t.Errorf("Ball did not leave the lane: y=%v start=%v", ball.Position.Y, startY)
	}
	if s.world.Player.ActiveBallBC == nil {
		t.Errorf("Launched ball not recorded")
	}
}

func TestBumperHitsAreRecorded(t *testing.T) {
	s := setupSession(t, table.Ball{
		Position: physics.NewVec2(300, 200),
		Velocity: physics.NewVec2(0, 10),
	})
	ball := s.world.Stepper.Balls()[0]

	f, err := s.Advance(100)
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}

	hits := s.DrainHits()
	if len(hits) != 1 {
		t.Fatalf("Hits = %d, want 1", len(hits))
	}
	if hits[0].Bumper != "Pop" || hits[0].BallID != ball.ID || hits[0].SessionID != "sim_test" {
		t.Errorf("Hit = %+v", hits[0])
	}
	if hits[0].TimeMsec <= 0 || hits[0].TimeMsec > 100 {
		t.Errorf("Hit time = %d", hits[0].TimeMsec)
	}
	if len(s.DrainHits()) != 0 {
		t.Errorf("DrainHits did not clear")
	}
	if f.Totals.BumperHits != 1 || !f.Bumpers[0].RingAnimating {
		t.Errorf("Frame after hit: totals=%+v bumper=%+v", f.Totals, f.Bumpers[0])
	}
	if ball.State.Vel.Y >= 0 {
		t.Errorf("Ball not kicked back: vy=%v", ball.State.Vel.Y)
	}
}

func TestFrameDescribesTable(t *testing.T) {
	s := setupSession(t, table.Ball{}, table.Ball{Frozen: true})
	f := s.Frame()

	if f.SessionID != "sim_test" || f.Table != "lane" {
		t.Errorf("Frame ids = %q %q", f.SessionID, f.Table)
	}
	if len(f.Balls) != 2 || len(f.Plungers) != 1 || len(f.Bumpers) != 1 {
		t.Fatalf("Frame has %d balls, %d plungers, %d bumpers", len(f.Balls), len(f.Plungers), len(f.Bumpers))
	}
	if f.Balls[1].Name != "Ball1" || !f.Balls[1].Frozen {
		t.Errorf("Ball frame = %+v", f.Balls[1])
	}
	if f.Balls[1].Position.Z != 0 {
		t.Errorf("Frozen ball renders at z=%v, want 0", f.Balls[1].Position.Z)
	}
	if f.Balls[0].Matrix[3][3] != 1 {
		t.Errorf("Matrix = %v", f.Balls[0].Matrix)
	}
	if f.PlungerLight {
		t.Errorf("Launch light on before any step")
	}
}

func TestAddBall(t *testing.T) {
	s := setupSession(t)
	id, err := s.AddBall(table.Ball{})
	if err != nil || id != 0 {
		t.Fatalf("AddBall = %d, %v", id, err)
	}
	if _, err := s.AddBall(table.Ball{Surface: "nowhere"}); !errors.Is(err, table.ErrUnknownSurface) {
		t.Errorf("Expected ErrUnknownSurface, got %v", err)
	}
	if n := len(s.Frame().Balls); n != 1 {
		t.Errorf("Balls = %d, want 1", n)
	}
}
