package bumper

import "github.com/playmatatu/pinball/internal/physics"

// Hit is the bumper body: a solid cylinder that kicks the ball away when
// struck hard enough and tells the animation about it.
type Hit struct {
	*physics.HitCircle

	data  Data
	state State
	anim  *Animation

	// OnHit, when set, is called every time the bumper fires.
	OnHit func(h *Hit, ball *physics.Ball)
}

// NewHit builds a bumper on table.
func NewHit(data Data, table physics.Table) (*Hit, error) {
	data = data.WithDefaults()
	if err := data.Validate(); err != nil {
		return nil, err
	}
	zHeight := 0.0
	if table != nil {
		zHeight = table.SurfaceHeight(data.Surface, data.Center.X, data.Center.Y)
	}
	h := &Hit{
		HitCircle: physics.NewHitCircle(data.Center, data.Radius, zHeight, zHeight+data.HeightScale),
		data:      data,
	}
	h.Material.Scatter = data.Scatter
	h.anim = NewAnimation(&h.data, &h.state)
	return h, nil
}

func (h *Hit) Name() string {
	return h.data.Name
}

func (h *Hit) Data() Data {
	return h.data
}

func (h *Hit) Animation() *Animation {
	return h.anim
}

func (h *Hit) Type() physics.CollisionType {
	return physics.CollisionTypeBumper
}

func (h *Hit) Collide(coll *physics.CollisionEvent, player *physics.Player) {
	pball := coll.Ball
	if pball == nil || !coll.HasHit() {
		return
	}
	normal := *coll.HitNormal
	dot := normal.Dot(pball.State.Vel)

	pball.Collide3DWall(normal, coll.HitDistance, h.Material, player)

	if !h.data.HitEvent || dot > -h.data.Threshold {
		return
	}
	pball.State.Vel = pball.State.Vel.Plus(normal.Times(h.data.Force))
	h.anim.HitEvent = true
	h.anim.BallHitPosition = pball.State.Pos
	if player != nil {
		player.ActiveBall = pball
	}
	if h.OnHit != nil {
		h.OnHit(h, pball)
	}
}
