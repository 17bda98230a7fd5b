package main

import (
	"fmt"
	"math"

	"github.com/gdamore/tcell/v2"
	"github.com/playmatatu/pinball/internal/physics"
	"github.com/playmatatu/pinball/internal/sim"
	"github.com/playmatatu/pinball/internal/table"
)

var (
	wallStyle    = tcell.StyleDefault.Foreground(tcell.ColorGray)
	ballStyle    = tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true)
	bumperStyle  = tcell.StyleDefault.Foreground(tcell.ColorBlue)
	litStyle     = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	plungerStyle = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	statusStyle  = tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorWhite)
)

// viewport maps table coordinates onto terminal cells. Table +Y points up
// the playfield, so rows are flipped. Terminal cells are about twice as
// tall as wide, which the x scale accounts for.
type viewport struct {
	minX, minY float64
	maxX, maxY float64
	cols, rows int
}

func newViewport(def *table.Definition, cols, rows int) viewport {
	v := viewport{
		minX: math.Inf(1), minY: math.Inf(1),
		maxX: math.Inf(-1), maxY: math.Inf(-1),
		cols: cols, rows: rows,
	}
	grow := func(x, y float64) {
		v.minX = math.Min(v.minX, x)
		v.maxX = math.Max(v.maxX, x)
		v.minY = math.Min(v.minY, y)
		v.maxY = math.Max(v.maxY, y)
	}
	for _, w := range def.Walls {
		for _, p := range w.Points {
			grow(p.X, p.Y)
		}
	}
	for _, b := range def.Bumpers {
		d := b.Data.WithDefaults()
		grow(d.Center.X-d.Radius, d.Center.Y-d.Radius)
		grow(d.Center.X+d.Radius, d.Center.Y+d.Radius)
	}
	if math.IsInf(v.minX, 0) {
		v.minX, v.minY, v.maxX, v.maxY = 0, 0, 1, 1
	}
	return v
}

func (v viewport) scale() float64 {
	w := v.maxX - v.minX
	h := v.maxY - v.minY
	if w <= 0 || h <= 0 || v.cols <= 1 || v.rows <= 1 {
		return 1
	}
	return math.Min(float64(v.cols-1)/(2*w), float64(v.rows-1)/h)
}

func (v viewport) cell(x, y float64) (int, int) {
	s := v.scale()
	col := int(math.Round((x - v.minX) * s * 2))
	row := v.rows - 1 - int(math.Round((y-v.minY)*s))
	return col, row
}

func (v viewport) inside(col, row int) bool {
	return col >= 0 && row >= 0 && col < v.cols && row < v.rows
}

func (v viewport) put(screen tcell.Screen, x, y float64, r rune, style tcell.Style) {
	col, row := v.cell(x, y)
	if v.inside(col, row) {
		screen.SetContent(col, row, r, nil, style)
	}
}

// line rasterizes a segment by stepping once per covered cell.
func (v viewport) line(screen tcell.Screen, a, b physics.Vec2, r rune, style tcell.Style) {
	c0, r0 := v.cell(a.X, a.Y)
	c1, r1 := v.cell(b.X, b.Y)
	steps := max(abs(c1-c0), abs(r1-r0))
	if steps == 0 {
		v.put(screen, a.X, a.Y, r, style)
		return
	}
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		v.put(screen, a.X+(b.X-a.X)*t, a.Y+(b.Y-a.Y)*t, r, style)
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// draw renders one frame of the table. The last row is a status line.
func draw(screen tcell.Screen, def *table.Definition, f sim.Frame, paused bool) {
	screen.Clear()
	cols, rows := screen.Size()
	if rows < 2 {
		screen.Show()
		return
	}
	v := newViewport(def, cols, rows-1)

	for _, w := range def.Walls {
		for i := 0; i+1 < len(w.Points); i++ {
			v.line(screen, w.Points[i], w.Points[i+1], '·', wallStyle)
		}
		if w.Closed && len(w.Points) > 2 {
			v.line(screen, w.Points[len(w.Points)-1], w.Points[0], '·', wallStyle)
		}
	}

	for i, b := range def.Bumpers {
		d := b.Data.WithDefaults()
		style := bumperStyle
		if i < len(f.Bumpers) && f.Bumpers[i].RingAnimating {
			style = litStyle
		}
		for a := 0.0; a < 2*math.Pi; a += math.Pi / 12 {
			v.put(screen, d.Center.X+d.Radius*math.Cos(a), d.Center.Y+d.Radius*math.Sin(a), 'o', style)
		}
		v.put(screen, d.Center.X, d.Center.Y, '*', style)
	}

	for i, p := range def.Plungers {
		d := p.WithDefaults()
		tip := d.Center.Y + d.Stroke
		if i < len(f.Plungers) {
			tip -= f.Plungers[i].Position * d.Stroke
		}
		style := plungerStyle
		if f.PlungerLight {
			style = litStyle
		}
		v.line(screen, physics.NewVec2(d.Center.X-d.Width, tip), physics.NewVec2(d.Center.X+d.Width, tip), '=', style)
		v.line(screen, physics.NewVec2(d.Center.X, d.Center.Y-d.HousingLength), physics.NewVec2(d.Center.X, tip), '|', style)
	}

	for _, b := range f.Balls {
		v.put(screen, b.Position.X, b.Position.Y, '●', ballStyle)
	}

	status := fmt.Sprintf(" %s  t=%.2fs  ticks=%d  hits=%d  balls=%d  [space] pull/fire  [b] ball  [p] pause  [q] quit",
		f.Table, float64(f.TimeMsec)/1000, f.Totals.Ticks, f.Totals.BumperHits, len(f.Balls))
	if paused {
		status += "  PAUSED"
	}
	for i, r := range []rune(status) {
		if i >= cols {
			break
		}
		screen.SetContent(i, rows-1, r, nil, statusStyle)
	}
	screen.Show()
}
