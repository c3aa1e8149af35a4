package server

import "math/rand"

// maxJitterDeg is the maximum random yaw deviation in degrees for pilot shots
const maxJitterDeg = 5.0

// randomJitterDeg returns a random yaw in degrees within ±maxJitterDeg.
// This keeps the scripted pilot from landing every shot on a straight-flying bot.
func randomJitterDeg(r *rand.Rand) float64 {
	// Generate uniform random value between -1 and 1, then scale by maxJitterDeg
	return (r.Float64()*2 - 1) * maxJitterDeg
}
