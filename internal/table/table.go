package table

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/playmatatu/pinball/internal/bumper"
	"github.com/playmatatu/pinball/internal/physics"
	"github.com/playmatatu/pinball/internal/plunger"
	"gopkg.in/yaml.v3"
)

var (
	ErrTableNotFound  = errors.New("table not found")
	ErrUnknownSurface = errors.New("unknown surface")
	ErrInvalidTable   = errors.New("invalid table")
)

const (
	// DefaultSlope is the playfield inclination in degrees.
	DefaultSlope      = 6.0
	DefaultWallHeight = 50.0
)

// Definition is a table as authored in YAML. It also serves as the
// physics.Table the hit objects query for heights and scale.
//
// Y grows from the plunger lane toward the top of the playfield, so the
// in-plane gravity points toward -Y.
type Definition struct {
	Name        string                 `yaml:"name" json:"name"`
	Description string                 `yaml:"description" json:"description"`
	Scale       float64                `yaml:"scaleZ" json:"scale_z"`
	Slope       float64                `yaml:"slope" json:"slope"`
	Gravity     float64                `yaml:"gravity" json:"gravity"`
	Surfaces    map[string]float64     `yaml:"surfaces" json:"surfaces"`
	Tuning      plunger.TuningOverride `yaml:"tuning" json:"tuning"`

	Walls    []Wall    `yaml:"walls" json:"walls"`
	Plungers []Plunger `yaml:"plungers" json:"plungers"`
	Bumpers  []Bumper  `yaml:"bumpers" json:"bumpers"`
	Balls    []Ball    `yaml:"balls" json:"balls"`
}

// Wall is a polyline of solid segments. The playfield side is on the left
// when walking the points in order.
type Wall struct {
	Name     string            `yaml:"name" json:"name"`
	Surface  string            `yaml:"surface" json:"surface"`
	Height   float64           `yaml:"height" json:"height"`
	Points   []physics.Vec2    `yaml:"points" json:"points"`
	Closed   bool              `yaml:"closed" json:"closed"`
	Material *physics.Material `yaml:"material,omitempty" json:"material,omitempty"`
}

type Plunger struct {
	plunger.Data `yaml:",inline"`
	Tuning       *plunger.TuningOverride `yaml:"tuning,omitempty" json:"tuning,omitempty"`
}

// Bumper flags default to true when left out.
type Bumper struct {
	bumper.Data  `yaml:",inline"`
	Visible      *bool `yaml:"visible,omitempty" json:"visible,omitempty"`
	RingVisible  *bool `yaml:"ringVisible,omitempty" json:"ring_visible,omitempty"`
	SkirtVisible *bool `yaml:"skirtVisible,omitempty" json:"skirt_visible,omitempty"`
	HitEvent     *bool `yaml:"hitEvent,omitempty" json:"hit_event,omitempty"`
}

type Ball struct {
	Position physics.Vec2 `yaml:"position" json:"position"`
	Velocity physics.Vec2 `yaml:"velocity" json:"velocity"`
	Surface  string       `yaml:"surface" json:"surface"`
	Radius   float64      `yaml:"radius" json:"radius"`
	Mass     float64      `yaml:"mass" json:"mass"`
	Frozen   bool         `yaml:"frozen" json:"frozen"`
}

func boolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}

// Resolve maps the authored flags onto the bumper data.
func (b Bumper) Resolve() bumper.Data {
	d := b.Data
	d.IsVisible = boolOr(b.Visible, true)
	d.IsRingVisible = boolOr(b.RingVisible, true)
	d.IsSkirtVisible = boolOr(b.SkirtVisible, true)
	d.HitEvent = boolOr(b.HitEvent, true)
	return d
}

// Parse decodes and validates a YAML table. Unknown keys are rejected.
func Parse(data []byte) (*Definition, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var def Definition
	if err := dec.Decode(&def); err != nil {
		return nil, fmt.Errorf("failed to parse table: %w", err)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// LoadFile reads one YAML table from disk.
func LoadFile(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrTableNotFound, path)
		}
		return nil, fmt.Errorf("failed to read table: %w", err)
	}
	def, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return def, nil
}

// LoadDir loads every *.yaml and *.yml table under dir, sorted by name.
func LoadDir(dir string) ([]*Definition, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read tables dir: %w", err)
	}

	var defs []*Definition
	seen := make(map[string]string)
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		def, err := LoadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		if prev, ok := seen[def.Name]; ok {
			return nil, fmt.Errorf("%w: table %q defined in %s and %s", ErrInvalidTable, def.Name, prev, e.Name())
		}
		seen[def.Name] = e.Name()
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs, nil
}

// Marshal renders def back to YAML.
func (d *Definition) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (d *Definition) checkSurface(s string) error {
	if s == "" {
		return nil
	}
	if _, ok := d.Surfaces[s]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSurface, s)
	}
	return nil
}

// Validate checks references and geometry without building anything.
func (d *Definition) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidTable)
	}
	if d.Scale < 0 || d.Gravity < 0 {
		return fmt.Errorf("%w: negative scale or gravity", ErrInvalidTable)
	}
	for i, w := range d.Walls {
		if len(w.Points) < 2 {
			return fmt.Errorf("%w: wall %d has %d points", ErrInvalidTable, i, len(w.Points))
		}
		if err := d.checkSurface(w.Surface); err != nil {
			return fmt.Errorf("wall %d: %w", i, err)
		}
	}
	for i, p := range d.Plungers {
		if err := d.checkSurface(p.Surface); err != nil {
			return fmt.Errorf("plunger %d: %w", i, err)
		}
		if err := p.WithDefaults().Validate(); err != nil {
			return fmt.Errorf("plunger %d: %w", i, err)
		}
	}
	for i, b := range d.Bumpers {
		if err := d.checkSurface(b.Surface); err != nil {
			return fmt.Errorf("bumper %d: %w", i, err)
		}
		if err := b.Data.WithDefaults().Validate(); err != nil {
			return fmt.Errorf("bumper %d: %w", i, err)
		}
	}
	for i, b := range d.Balls {
		if err := d.checkSurface(b.Surface); err != nil {
			return fmt.Errorf("ball %d: %w", i, err)
		}
		if b.Radius < 0 || b.Mass < 0 {
			return fmt.Errorf("%w: ball %d has negative radius or mass", ErrInvalidTable, i)
		}
	}
	return nil
}

// SurfaceHeight returns the height of a named surface. The unnamed
// surface is the playfield at 0.
func (d *Definition) SurfaceHeight(surface string, x, y float64) float64 {
	return d.Surfaces[surface]
}

func (d *Definition) ScaleZ() float64 {
	if d.Scale <= 0 {
		return 1
	}
	return d.Scale
}

// GravityVector is the in-plane pull along the slope. There is no
// playfield hit object, so the vertical component is left out.
func (d *Definition) GravityVector() physics.Vec3 {
	g := d.Gravity
	if g == 0 {
		g = physics.GravityConst
	}
	slope := d.Slope
	if slope == 0 {
		slope = DefaultSlope
	}
	return physics.NewVec3(0, -g*math.Sin(slope*math.Pi/180), 0)
}
