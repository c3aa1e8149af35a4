package server

import "time"

// Arena constants. Distances are world units, durations seconds unless
// typed as time.Duration.

const (
	// Frame loop
	FrameRate     = 60
	FrameInterval = time.Second / FrameRate
	FrameDT       = 1.0 / FrameRate

	// Ships
	ShipRadius       = 3.0
	ShipMaxHealth    = 100.0
	MuzzleOffset     = 4.0 // muzzle sits ahead of the hull centre, outside the hull sphere
	RespawnDelay     = 3.0
	SpawnRingRadius  = 120.0 // bots spawn on a ring around the arena centre
	ArenaHalfExtent  = 600.0 // projectiles leaving this cube are culled
	MaxBots          = 16
	DefaultBotCount  = 3
	PilotCruiseSpeed = 25.0

	// Projectiles
	ProjectileDamage = 8.0
	ProjectileFuse   = 2.0 // seconds before an unspent shot is removed

	// Repair: a ship untouched for RepairQuietTime uses a repair kit every
	// RepairInterval.
	RepairQuietTime = 5.0
	RepairInterval  = 1.0
	RepairAmount    = 5.0

	// Scripted pilot weapon
	PilotFireInterval = 0.8
	PilotFireRange    = 160.0
	PilotFireConeDeg  = 30.0
	PilotShotSpeed    = 400.0

	// Obstruction layers
	LayerShips     uint32 = 1 << 0
	LayerTerrain   uint32 = 1 << 1
	LayerStructure uint32 = 1 << 2
	LayerShields   uint32 = 1 << 3 // energy screens; sensors see through them when the visibility mask omits this layer
)
