package physics

// Physics constants. Distances are in table units, times in physics ticks.
const (
	// LowNormVel is the normal speed below which two bodies count as neither
	// approaching nor receding.
	LowNormVel = 0.0001
	// ContactVel is the normal speed at or below which a touching ball is
	// treated as a resting contact instead of a hit.
	ContactVel = 0.099
	// Embedded is the penetration depth beyond which a non-approaching ball
	// gets the EmbedShot kick.
	Embedded = 0.0
	// EmbedShot is the forced approach speed used to drive embedded bodies apart.
	EmbedShot = 0.05
	// DispGain scales the positional correction applied for overlap.
	DispGain = 0.9875
	// DispLimit caps the positional correction per collision.
	DispLimit = 5.0
	// Precision is the slip speed below which friction is static.
	Precision = 0.01
	// PhysTouch is the skin distance within which bodies are touching.
	PhysTouch = 0.05
	// TolEndpoints widens line segments at their ends.
	TolEndpoints = 0.0

	// StaticTime is the minimum slice the stepper advances once StaticCounts
	// consecutive near-zero slices have been seen.
	StaticTime = 0.005
	// StaticCounts is the number of near-zero slices tolerated per step.
	StaticCounts = 10
	// MaxIterations bounds the hit/advance loop of a single step.
	MaxIterations = 256

	// GravityConst is the table-unit gravity at the default slope.
	GravityConst = 1.81751
	// PhysFactor scales per-tick velocity updates (gravity, spring forces).
	PhysFactor = 0.5

	// DefaultBallRadius and DefaultBallMass are the baseline ball.
	DefaultBallRadius = 25.0
	DefaultBallMass   = 1.0

	// ElasticityFalloffVel normalizes the elasticity falloff speed.
	ElasticityFalloffVel = 18.53
	// BallRestitution is the ball-ball coefficient of restitution.
	BallRestitution = 0.8
)
