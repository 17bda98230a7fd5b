package sim

import (
	"github.com/playmatatu/pinball/internal/bumper"
	"github.com/playmatatu/pinball/internal/physics"
)

// Frame is what a renderer needs to draw the table at one instant.
type Frame struct {
	SessionID    string         `json:"session_id"`
	Table        string         `json:"table"`
	TimeMsec     int64          `json:"time_msec"`
	Balls        []BallFrame    `json:"balls"`
	Plungers     []PlungerFrame `json:"plungers"`
	Bumpers      []BumperFrame  `json:"bumpers"`
	PlungerLight bool           `json:"plunger_light"`
	Totals       Totals         `json:"totals"`
}

type BallFrame struct {
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	Position physics.Vec3    `json:"position"`
	Velocity physics.Vec3    `json:"velocity"`
	Frozen   bool            `json:"frozen"`
	Matrix   physics.Matrix4 `json:"matrix"`
}

type PlungerFrame struct {
	Name     string  `json:"name"`
	Frame    int     `json:"frame"`
	Position float64 `json:"position"`
	Pulling  bool    `json:"pulling"`
	Firing   bool    `json:"firing"`
}

type BumperFrame struct {
	Name string `json:"name"`
	bumper.State
	RingAnimating  bool `json:"ring_animating"`
	SkirtAnimating bool `json:"skirt_animating"`
}

func (s *Session) frameLocked() Frame {
	player := s.world.Player
	f := Frame{
		SessionID: s.ID,
		Table:     s.TableName,
		TimeMsec:  player.TimeMsec,
		Totals:    s.totals,
	}

	for _, b := range s.world.Stepper.Balls() {
		tr := b.Transform()
		f.Balls = append(f.Balls, BallFrame{
			ID:       b.ID,
			Name:     b.Name(),
			Position: tr.Position,
			Velocity: b.State.Vel,
			Frozen:   b.Frozen,
			Matrix:   tr.Matrix(),
		})
	}
	for _, p := range s.world.Plungers {
		m := p.Mover()
		f.Plungers = append(f.Plungers, PlungerFrame{
			Name:     m.Data().Name,
			Frame:    m.State().Frame,
			Position: m.ReleasePosition(),
			Pulling:  m.IsPulling(),
			Firing:   m.IsFiring(),
		})
	}
	for _, b := range s.world.Bumpers {
		a := b.Animation()
		f.Bumpers = append(f.Bumpers, BumperFrame{
			Name:           b.Name(),
			State:          a.State(),
			RingAnimating:  a.RingAnimating(),
			SkirtAnimating: a.SkirtAnimating(),
		})
	}

	f.PlungerLight = len(s.world.Plungers) > 0 && player.LastPlungerHit > 0 &&
		player.TimeMsec-player.LastPlungerHit <= plungerLightMsec
	return f
}
