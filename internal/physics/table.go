package physics

// Table is the static side of a playfield that elements read while they
// are built and animated.
type Table interface {
	// SurfaceHeight returns the height of the named surface at (x, y).
	// An empty name is the playfield.
	SurfaceHeight(surface string, x, y float64) float64
	ScaleZ() float64
}
