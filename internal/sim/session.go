package sim

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/playmatatu/pinball/internal/bumper"
	"github.com/playmatatu/pinball/internal/physics"
	"github.com/playmatatu/pinball/internal/plunger"
	"github.com/playmatatu/pinball/internal/table"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionClosed   = errors.New("session closed")
	ErrPlungerNotFound = errors.New("plunger not found")
	ErrInvalidDuration = errors.New("invalid duration")
)

const (
	// MaxAdvanceMsec caps a single synchronous advance.
	MaxAdvanceMsec = 60_000
	// plungerLightMsec keeps the launch button lit after a ball was last
	// seen at the plunger.
	plungerLightMsec = 250
)

// Options configures a session.
type Options struct {
	Seed uint64
	// StepMsec is the wall time one physics tick stands for.
	StepMsec int64
	Tuning   plunger.Tuning
}

// HitRecord is one bumper firing.
type HitRecord struct {
	SessionID string       `json:"session_id"`
	Bumper    string       `json:"bumper"`
	BallID    int64        `json:"ball_id"`
	TimeMsec  int64        `json:"time_msec"`
	Position  physics.Vec3 `json:"position"`
}

// Totals accumulate the stepper counters over the life of a session.
type Totals struct {
	Ticks      int64 `json:"ticks"`
	Collisions int64 `json:"collisions"`
	Contacts   int64 `json:"contacts"`
	Forced     int64 `json:"forced"`
	BumperHits int64 `json:"bumper_hits"`
}

// Session is one running table. All methods are safe for concurrent use;
// the world itself is only ever touched under mu.
type Session struct {
	ID        string
	TableName string
	Seed      uint64
	CreatedAt time.Time

	mu         sync.Mutex
	world      *table.World
	stepMsec   int64
	pending    int64
	hits       []HitRecord
	totals     Totals
	lastActive time.Time
	closed     bool
}

// NewSession builds def into a fresh world.
func NewSession(id string, def *table.Definition, opts Options) (*Session, error) {
	if opts.StepMsec <= 0 {
		opts.StepMsec = 10
	}
	world, err := def.Build(table.BuildOptions{Seed: opts.Seed, Tuning: opts.Tuning})
	if err != nil {
		return nil, fmt.Errorf("failed to build table %q: %w", def.Name, err)
	}

	now := time.Now()
	s := &Session{
		ID:         id,
		TableName:  def.Name,
		Seed:       opts.Seed,
		CreatedAt:  now,
		world:      world,
		stepMsec:   opts.StepMsec,
		lastActive: now,
	}
	for _, b := range world.Bumpers {
		b.OnHit = s.recordHit
	}
	return s, nil
}

// recordHit runs inside Advance, with mu held.
func (s *Session) recordHit(h *bumper.Hit, ball *physics.Ball) {
	s.totals.BumperHits++
	s.hits = append(s.hits, HitRecord{
		SessionID: s.ID,
		Bumper:    h.Name(),
		BallID:    ball.ID,
		TimeMsec:  s.world.Player.TimeMsec,
		Position:  ball.State.Pos,
	})
}

// Advance runs the physics for ms milliseconds of table time and then
// brings the animations up to date. Time that does not fill a whole tick
// carries over to the next call.
func (s *Session) Advance(ms int64) (Frame, error) {
	if ms < 0 || ms > MaxAdvanceMsec {
		return Frame{}, fmt.Errorf("%w: %dms", ErrInvalidDuration, ms)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Frame{}, ErrSessionClosed
	}

	player := s.world.Player
	stepper := s.world.Stepper
	s.pending += ms
	for s.pending >= s.stepMsec {
		s.pending -= s.stepMsec
		player.TimeMsec += s.stepMsec

		stepper.UpdateVelocities()
		stepper.Step(1)

		st := stepper.Stats()
		s.totals.Ticks++
		s.totals.Collisions += int64(st.Collisions)
		s.totals.Contacts += int64(st.Contacts)
		s.totals.Forced += int64(st.Forced)
	}

	for _, b := range s.world.Bumpers {
		b.Animation().UpdateAnimation(player.TimeMsec, s.world.Def)
	}
	s.lastActive = time.Now()
	return s.frameLocked(), nil
}

func (s *Session) plunger(name string) (*plunger.Hit, error) {
	if name == "" && len(s.world.Plungers) > 0 {
		return s.world.Plungers[0], nil
	}
	if p := s.world.Plunger(name); p != nil {
		return p, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrPlungerNotFound, name)
}

// PullBack starts retracting a plunger. An empty name picks the first one.
func (s *Session) PullBack(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	p, err := s.plunger(name)
	if err != nil {
		return err
	}
	p.Mover().PullBack()
	s.lastActive = time.Now()
	return nil
}

// Fire releases a plunger from wherever its tip is.
func (s *Session) Fire(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	p, err := s.plunger(name)
	if err != nil {
		return err
	}
	m := p.Mover()
	m.Fire(m.ReleasePosition())
	s.lastActive = time.Now()
	return nil
}

// AddBall drops a new ball onto the table and returns its id.
func (s *Session) AddBall(b table.Ball) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrSessionClosed
	}
	if b.Radius < 0 || b.Mass < 0 {
		return 0, fmt.Errorf("%w: negative radius or mass", table.ErrInvalidTable)
	}
	if b.Surface != "" {
		if _, ok := s.world.Def.Surfaces[b.Surface]; !ok {
			return 0, fmt.Errorf("%w: %q", table.ErrUnknownSurface, b.Surface)
		}
	}
	ball := s.world.AddBall(b)
	s.lastActive = time.Now()
	return ball.ID, nil
}

// DrainHits returns the bumper hits since the last call.
func (s *Session) DrainHits() []HitRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	hits := s.hits
	s.hits = nil
	return hits
}

func (s *Session) Frame() Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frameLocked()
}

func (s *Session) Totals() Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totals
}

func (s *Session) TimeMsec() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.world.Player.TimeMsec
}

func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Close stops the session. Further calls fail with ErrSessionClosed.
// Returns false if it was already closed.
func (s *Session) Close() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.closed = true
	return true
}

func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
