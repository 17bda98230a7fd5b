package physics

import "math"

// CollisionType tags a hit object so callers can special-case element kinds
// without type assertions.
type CollisionType int

const (
	CollisionTypeNull CollisionType = iota
	CollisionTypeLineSeg
	CollisionTypeJoint
	CollisionTypeCircle
	CollisionTypeBall
	CollisionTypePlunger
	CollisionTypeBumper
	CollisionTypeTarget
	CollisionTypeFlipper
)

var collisionTypeNames = map[CollisionType]string{
	CollisionTypeNull:    "null",
	CollisionTypeLineSeg: "line",
	CollisionTypeJoint:   "joint",
	CollisionTypeCircle:  "circle",
	CollisionTypeBall:    "ball",
	CollisionTypePlunger: "plunger",
	CollisionTypeBumper:  "bumper",
	CollisionTypeTarget:  "target",
	CollisionTypeFlipper: "flipper",
}

func (t CollisionType) String() string {
	if name, ok := collisionTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// HitObject is implemented by every collidable element.
//
// HitTest predicts the earliest contact in [0, dtime] and returns -1 when
// there is none. It must not change the physics state of the ball or of the
// element. Collide applies the response for an event produced by HitTest,
// and is a no-op when the bodies are separating. Contact handles resting
// contact events (IsContact set).
type HitObject interface {
	CalcHitBBox()
	HitBBox() BBox
	HitTest(ball *Ball, dtime float64, coll *CollisionEvent) float64
	Collide(coll *CollisionEvent, player *Player)
	Contact(coll *CollisionEvent, dtime float64, player *Player)
	Type() CollisionType
	IsEnabled() bool
}

// BBox is an axis-aligned bounding box used for broad-phase culling.
// Top is the smaller Y bound and Bottom the larger one.
type BBox struct {
	Left   float64 `json:"left"`
	Right  float64 `json:"right"`
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
	ZLow   float64 `json:"zlow"`
	ZHigh  float64 `json:"zhigh"`
}

// Intersects reports whether two boxes overlap.
func (b BBox) Intersects(o BBox) bool {
	return b.Right >= o.Left && b.Bottom >= o.Top && b.Left <= o.Right &&
		b.Top <= o.Bottom && b.ZLow <= o.ZHigh && b.ZHigh >= o.ZLow
}

// Extend grows b to include o.
func (b BBox) Extend(o BBox) BBox {
	return BBox{
		Left:   math.Min(b.Left, o.Left),
		Right:  math.Max(b.Right, o.Right),
		Top:    math.Min(b.Top, o.Top),
		Bottom: math.Max(b.Bottom, o.Bottom),
		ZLow:   math.Min(b.ZLow, o.ZLow),
		ZHigh:  math.Max(b.ZHigh, o.ZHigh),
	}
}

// Material holds the response coefficients shared by wall-like objects.
type Material struct {
	Elasticity        float64 `json:"elasticity" yaml:"elasticity"`
	ElasticityFalloff float64 `json:"elasticity_falloff" yaml:"elasticityFalloff"`
	Friction          float64 `json:"friction" yaml:"friction"`
	// Scatter is a maximum deflection angle in radians.
	Scatter float64 `json:"scatter" yaml:"scatter"`
}

// DefaultMaterial matches a plain playfield wall.
var DefaultMaterial = Material{
	Elasticity: 0.3,
	Friction:   0.3,
}

// HitBase carries the state every hit object shares. Embed it to get
// HitBBox, IsEnabled and a default resting-contact handler.
type HitBase struct {
	BBox     BBox
	Enabled  bool
	Material Material
}

// NewHitBase returns an enabled base spanning [zlow, zhigh] with the
// default material.
func NewHitBase(zlow, zhigh float64) HitBase {
	return HitBase{
		BBox:     BBox{ZLow: zlow, ZHigh: zhigh},
		Enabled:  true,
		Material: DefaultMaterial,
	}
}

func (h *HitBase) HitBBox() BBox {
	return h.BBox
}

func (h *HitBase) IsEnabled() bool {
	return h.Enabled
}

func (h *HitBase) SetEnabled(enabled bool) {
	h.Enabled = enabled
}

// Contact resolves a resting contact against a fixed surface.
func (h *HitBase) Contact(coll *CollisionEvent, dtime float64, player *Player) {
	if coll.Ball == nil || !coll.HasHit() || player == nil {
		return
	}
	coll.Ball.HandleStaticContact(coll, h.Material.Friction, dtime, player.Gravity)
}
