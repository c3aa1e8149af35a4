package server

import (
	"github.com/charmbracelet/log"

	"github.com/lab1702/arena-bot/game"
)

// Debug flags for various subsystems
var (
	DebugWeapons     = false // Set to true to log every projectile hit and expiry
	DebugTransitions = false // Set to true to run every bot with verbose logging
)

// logProjectileEvent logs projectile outcomes when debugging is enabled
func logProjectileEvent(logger *log.Logger, event, projectileID, ownerID, victimID string, pos game.Vec3) {
	if DebugWeapons {
		logger.Debug("projectile "+event,
			"projectile", projectileID,
			"owner", ownerID,
			"victim", victimID,
			"pos", pos)
	}
}
