package bot

// DebugWeapons enables a log line for every accepted shot
var DebugWeapons = false

// randomSpreadDeg returns a random yaw in degrees within ±BreakOffSpreadDeg.
func (a *Agent) randomSpreadDeg() float64 {
	// Uniform in [-1, 1) scaled to the spread
	return (a.rng.Float64()*2 - 1) * BreakOffSpreadDeg
}
