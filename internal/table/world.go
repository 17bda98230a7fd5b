package table

import (
	"fmt"

	"github.com/playmatatu/pinball/internal/bumper"
	"github.com/playmatatu/pinball/internal/physics"
	"github.com/playmatatu/pinball/internal/plunger"
)

// BuildOptions configures one simulation of a table.
type BuildOptions struct {
	Seed uint64
	// Tuning is the base plunger tuning. The table and then each plunger
	// may override single fields.
	Tuning plunger.Tuning
}

// World is a table turned into live physics objects.
type World struct {
	Def      *Definition
	Player   *physics.Player
	Stepper  *physics.Stepper
	IDs      *physics.IDSequence
	Walls    []physics.HitObject
	Plungers []*plunger.Hit
	Bumpers  []*bumper.Hit
}

// Build creates every hit object, mover and ball of d.
func (d *Definition) Build(opts BuildOptions) (*World, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	player := physics.NewPlayer(d.GravityVector(), opts.Seed)
	w := &World{
		Def:     d,
		Player:  player,
		Stepper: physics.NewStepper(player),
		IDs:     &physics.IDSequence{},
	}

	for i, wall := range d.Walls {
		objs, err := d.buildWall(wall)
		if err != nil {
			return nil, fmt.Errorf("wall %d: %w", i, err)
		}
		for _, o := range objs {
			w.Stepper.AddHitObject(o)
		}
		w.Walls = append(w.Walls, objs...)
	}

	base := d.Tuning.Apply(opts.Tuning.WithDefaults())
	for i, p := range d.Plungers {
		tuning := base
		if p.Tuning != nil {
			tuning = p.Tuning.Apply(tuning)
		}
		h, err := plunger.NewHit(p.Data, tuning, player, d)
		if err != nil {
			return nil, fmt.Errorf("plunger %d: %w", i, err)
		}
		w.Stepper.AddHitObject(h)
		w.Stepper.AddMover(h.Mover())
		w.Plungers = append(w.Plungers, h)
	}

	for i, b := range d.Bumpers {
		h, err := bumper.NewHit(b.Resolve(), d)
		if err != nil {
			return nil, fmt.Errorf("bumper %d: %w", i, err)
		}
		h.Animation().Init(player.TimeMsec)
		w.Stepper.AddHitObject(h)
		w.Bumpers = append(w.Bumpers, h)
	}

	for _, b := range d.Balls {
		w.AddBall(b)
	}
	return w, nil
}

// AddBall drops a new ball resting on its surface.
func (w *World) AddBall(b Ball) *physics.Ball {
	data := physics.BallData{Radius: b.Radius, Mass: b.Mass}
	if data.Radius <= 0 {
		data.Radius = physics.DefaultBallRadius
	}
	z := w.Def.SurfaceHeight(b.Surface, b.Position.X, b.Position.Y) + data.Radius
	ball := physics.NewBall(w.IDs, data,
		physics.NewVec3(b.Position.X, b.Position.Y, z),
		physics.NewVec3(b.Velocity.X, b.Velocity.Y, 0))
	ball.Frozen = b.Frozen
	w.Stepper.AddBall(ball)
	return ball
}

func (w *World) Plunger(name string) *plunger.Hit {
	for _, p := range w.Plungers {
		if p.Mover().Data().Name == name {
			return p
		}
	}
	return nil
}

func (w *World) Bumper(name string) *bumper.Hit {
	for _, b := range w.Bumpers {
		if b.Name() == name {
			return b
		}
	}
	return nil
}

// buildWall turns a polyline into segments with a joint at every point,
// so corners and open ends are rounded.
func (d *Definition) buildWall(wall Wall) ([]physics.HitObject, error) {
	zlow := d.SurfaceHeight(wall.Surface, 0, 0)
	height := wall.Height
	if height <= 0 {
		height = DefaultWallHeight
	}
	zhigh := zlow + height*d.ScaleZ()

	material := physics.DefaultMaterial
	if wall.Material != nil {
		material = *wall.Material
	}

	pts := wall.Points
	n := len(pts)
	segments := n - 1
	if wall.Closed {
		segments = n
	}

	var objs []physics.HitObject
	for i := 0; i < segments; i++ {
		seg, err := physics.NewLineSeg(pts[i], pts[(i+1)%n], zlow, zhigh)
		if err != nil {
			return nil, fmt.Errorf("segment %d: %w", i, err)
		}
		seg.Material = material
		objs = append(objs, seg)
	}
	for _, p := range pts {
		j := physics.NewJoint(p, zlow, zhigh)
		j.Material = material
		objs = append(objs, j)
	}
	return objs, nil
}
