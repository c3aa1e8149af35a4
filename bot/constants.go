package bot

// Behaviour constants that are not part of the per-agent tuning.
const (
	// FieldOfViewDeg is the half-angle of the sensor cone. Candidates
	// further off the muzzle axis are never seen.
	FieldOfViewDeg = 90.0

	// BreakOffSpreadDeg bounds the random yaw applied to the break-off
	// heading so consecutive passes do not retrace the same line.
	BreakOffSpreadDeg = 20.0

	// MinAimDistSq skips turning when the aim point is closer than 0.1
	// units; the look direction is meaningless there.
	MinAimDistSq = 0.01

	// ChaseRetreatLookahead is how far ahead the chase retreat point sits.
	// Only its direction matters for steering.
	ChaseRetreatLookahead = 5.0

	// ChaseRetreatSpeedFactor scales base speed while backing off in chase.
	ChaseRetreatSpeedFactor = 0.5
)
