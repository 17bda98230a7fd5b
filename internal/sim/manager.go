package sim

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/playmatatu/pinball/internal/config"
	"github.com/playmatatu/pinball/internal/models"
	"github.com/playmatatu/pinball/internal/plunger"
	"github.com/playmatatu/pinball/internal/table"
	"github.com/redis/go-redis/v9"
)

// Redis keys and channels
const (
	HitEventsChannel = "hit_events"
	idleSetKey       = "session_idle"
	frameKeyPrefix   = "session:"
	frameCacheTTL    = time.Hour
)

// ErrTooManySessions is returned when the session limit is reached.
var ErrTooManySessions = errors.New("too many sessions")

// Store is the persistence the manager needs.
type Store interface {
	TableDefinition(ctx context.Context, name string) (*table.Definition, error)
	CreateRun(ctx context.Context, run *models.SimulationRun) error
	FinishRun(ctx context.Context, run *models.SimulationRun) error
}

// Broadcaster fans a message out to everyone watching a session.
type Broadcaster interface {
	BroadcastToSession(sessionID string, msg []byte)
}

// CreateRequest describes a new session.
type CreateRequest struct {
	Table string
	// Seed makes the run reproducible. Nil picks a random seed.
	Seed *uint64
	// Realtime starts a frame loop that advances the session on its own
	// and broadcasts every frame.
	Realtime bool
}

// Manager owns every live session.
type Manager struct {
	sessions map[string]*Session
	loops    map[string]context.CancelFunc
	store    Store
	rdb      *redis.Client
	hub      Broadcaster
	config   *config.Config
	mu       sync.RWMutex
}

func NewManager(store Store, rdb *redis.Client, hub Broadcaster, cfg *config.Config) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		loops:    make(map[string]context.CancelFunc),
		store:    store,
		rdb:      rdb,
		hub:      hub,
		config:   cfg,
	}
}

func generateToken(length int) string {
	bytes := make([]byte, length)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

func generateSessionID() string {
	return "sim_" + generateToken(8)
}

func randomSeed() uint64 {
	var b [8]byte
	rand.Read(b[:])
	return binary.LittleEndian.Uint64(b[:])
}

func (m *Manager) tuning() plunger.Tuning {
	if m.config == nil {
		return plunger.DefaultTuning
	}
	return plunger.TuningOverride{
		ReverseImpulseFactor: m.config.PlungerReverseImpulseFactor,
		ScatterShape:         m.config.PlungerScatterShape,
	}.Apply(plunger.DefaultTuning)
}

func (m *Manager) stepMsec() int64 {
	if m.config == nil || m.config.PhysicsStepMsec <= 0 {
		return 10
	}
	return int64(m.config.PhysicsStepMsec)
}

func (m *Manager) frameInterval() time.Duration {
	if m.config == nil || m.config.FrameIntervalMsec <= 0 {
		return 16 * time.Millisecond
	}
	return time.Duration(m.config.FrameIntervalMsec) * time.Millisecond
}

// Create loads a stored table and starts a session on it.
func (m *Manager) Create(ctx context.Context, req CreateRequest) (*Session, error) {
	if m.config != nil && m.config.MaxSessions > 0 && m.Count() >= m.config.MaxSessions {
		return nil, ErrTooManySessions
	}

	def, err := m.store.TableDefinition(ctx, req.Table)
	if err != nil {
		return nil, err
	}

	seed := randomSeed()
	if req.Seed != nil {
		seed = *req.Seed
	}
	s, err := NewSession(generateSessionID(), def, Options{
		Seed:     seed,
		StepMsec: m.stepMsec(),
		Tuning:   m.tuning(),
	})
	if err != nil {
		return nil, err
	}

	run := &models.SimulationRun{SessionID: s.ID, TableName: s.TableName, Seed: int64(seed)}
	if err := m.store.CreateRun(ctx, run); err != nil {
		log.Printf("[DB] Failed to record run for session %s: %v", s.ID, err)
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	if req.Realtime {
		loopCtx, cancel := context.WithCancel(context.Background())
		m.loops[s.ID] = cancel
		go m.runFrameLoop(loopCtx, s)
	}
	m.mu.Unlock()

	m.touch(ctx, s.ID)
	m.cacheFrame(ctx, s.Frame())
	log.Printf("[SIM] Session %s started on table %s (seed=%d realtime=%v)", s.ID, s.TableName, seed, req.Realtime)
	return s, nil
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// List returns the live sessions, oldest first.
func (m *Manager) List() []*Session {
	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].CreatedAt.Before(sessions[j].CreatedAt) })
	return sessions
}

// Advance steps a session synchronously and returns the new frame.
func (m *Manager) Advance(ctx context.Context, id string, ms int64) (Frame, error) {
	s, err := m.Get(id)
	if err != nil {
		return Frame{}, err
	}
	frame, err := s.Advance(ms)
	if err != nil {
		return Frame{}, err
	}
	m.afterAdvance(ctx, s, frame)
	m.touch(ctx, id)
	return frame, nil
}

func (m *Manager) PullBack(ctx context.Context, id, plungerName string) error {
	s, err := m.Get(id)
	if err != nil {
		return err
	}
	if err := s.PullBack(plungerName); err != nil {
		return err
	}
	m.touch(ctx, id)
	return nil
}

func (m *Manager) Fire(ctx context.Context, id, plungerName string) error {
	s, err := m.Get(id)
	if err != nil {
		return err
	}
	if err := s.Fire(plungerName); err != nil {
		return err
	}
	m.touch(ctx, id)
	return nil
}

func (m *Manager) AddBall(ctx context.Context, id string, b table.Ball) (int64, error) {
	s, err := m.Get(id)
	if err != nil {
		return 0, err
	}
	ballID, err := s.AddBall(b)
	if err != nil {
		return 0, err
	}
	m.touch(ctx, id)
	return ballID, nil
}

// Frame returns the live frame of a session, or the last cached one once
// the session is gone.
func (m *Manager) Frame(ctx context.Context, id string) (Frame, error) {
	if s, err := m.Get(id); err == nil {
		return s.Frame(), nil
	}
	if m.rdb == nil {
		return Frame{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	data, err := m.rdb.Get(ctx, frameKeyPrefix+id+":frame").Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Frame{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
		}
		return Frame{}, err
	}
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return Frame{}, err
	}
	return f, nil
}

// Close stops a session, persists its run and forgets it.
func (m *Manager) Close(ctx context.Context, id, reason string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	cancel := m.loops[id]
	delete(m.loops, id)
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if cancel != nil {
		cancel()
	}
	if !s.Close() {
		return nil
	}

	frame := s.Frame()
	m.cacheFrame(ctx, frame)
	totals := s.Totals()
	run := &models.SimulationRun{
		SessionID:   s.ID,
		TableName:   s.TableName,
		Seed:        int64(s.Seed),
		SimTimeMsec: frame.TimeMsec,
		Ticks:       totals.Ticks,
		Collisions:  totals.Collisions,
		BumperHits:  totals.BumperHits,
		EndReason:   sql.NullString{String: reason, Valid: reason != ""},
	}
	if err := m.store.FinishRun(ctx, run); err != nil {
		log.Printf("[DB] Failed to finish run for session %s: %v", s.ID, err)
	}
	if m.rdb != nil {
		if err := m.rdb.ZRem(ctx, idleSetKey, s.ID).Err(); err != nil {
			log.Printf("[SIM] Failed to clear idle entry for %s: %v", s.ID, err)
		}
	}
	if m.hub != nil {
		msg, _ := json.Marshal(map[string]interface{}{"type": "session_closed", "session_id": s.ID, "reason": reason})
		m.hub.BroadcastToSession(s.ID, msg)
	}
	log.Printf("[SIM] Session %s closed (%s) after %dms, %d collisions, %d bumper hits", s.ID, reason, frame.TimeMsec, totals.Collisions, totals.BumperHits)
	return nil
}

// CloseAll closes every live session, used on shutdown.
func (m *Manager) CloseAll(ctx context.Context, reason string) {
	for _, s := range m.List() {
		if err := m.Close(ctx, s.ID, reason); err != nil && !errors.Is(err, ErrSessionNotFound) {
			log.Printf("[SIM] Failed to close session %s: %v", s.ID, err)
		}
	}
}

// runFrameLoop advances s by one frame interval per tick and streams the
// frames until the loop is cancelled or the session closes.
func (m *Manager) runFrameLoop(ctx context.Context, s *Session) {
	interval := m.frameInterval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			frame, err := s.Advance(interval.Milliseconds())
			if err != nil {
				if !errors.Is(err, ErrSessionClosed) {
					log.Printf("[SIM] Frame loop for %s stopped: %v", s.ID, err)
				}
				return
			}
			m.afterAdvance(ctx, s, frame)
		}
	}
}

// afterAdvance publishes hits, streams the frame and caches it.
func (m *Manager) afterAdvance(ctx context.Context, s *Session, frame Frame) {
	m.publishHits(ctx, s.DrainHits())
	if m.hub != nil {
		if msg, err := json.Marshal(map[string]interface{}{"type": "frame", "frame": frame}); err == nil {
			m.hub.BroadcastToSession(s.ID, msg)
		}
	}
	m.cacheFrame(ctx, frame)
}

func (m *Manager) publishHits(ctx context.Context, hits []HitRecord) {
	if m.rdb == nil || len(hits) == 0 {
		return
	}
	for _, h := range hits {
		payload := map[string]interface{}{
			"type":       "bumper_hit",
			"session_id": h.SessionID,
			"bumper":     h.Bumper,
			"ball_id":    h.BallID,
			"time_msec":  h.TimeMsec,
			"position":   h.Position,
		}
		b, _ := json.Marshal(payload)
		if err := m.rdb.Publish(ctx, HitEventsChannel, b).Err(); err != nil {
			log.Printf("[SIM] publish hit failed: session=%s bumper=%s err=%v", h.SessionID, h.Bumper, err)
		}
	}
}

func (m *Manager) cacheFrame(ctx context.Context, f Frame) {
	if m.rdb == nil {
		return
	}
	data, err := json.Marshal(f)
	if err != nil {
		return
	}
	if err := m.rdb.SetEx(ctx, frameKeyPrefix+f.SessionID+":frame", data, frameCacheTTL).Err(); err != nil {
		log.Printf("[SIM] Failed to cache frame for %s: %v", f.SessionID, err)
	}
}

// touch records activity in the idle set the idle worker scans.
func (m *Manager) touch(ctx context.Context, id string) {
	if m.rdb == nil {
		return
	}
	now := float64(time.Now().Unix())
	if err := m.rdb.ZAdd(ctx, idleSetKey, redis.Z{Score: now, Member: id}).Err(); err != nil {
		log.Printf("[SIM] Failed to record activity for %s: %v", id, err)
	}
}
