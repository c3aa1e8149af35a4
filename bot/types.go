package bot

import (
	"github.com/lab1702/arena-bot/game"
)

// Target is a read-only view of an opponent for one frame.
type Target struct {
	ID          string
	Position    game.Vec3
	Orientation game.Quat
}

// TargetSource enumerates every candidate the bot could engage.
type TargetSource interface {
	Targets() []Target
}

// RayHit identifies the first obstruction along a ray. RootID names the
// entity the hit collider belongs to, so a hit on a part of a ship still
// counts as the ship.
type RayHit struct {
	ID     string
	RootID string
	Dist   float64
}

// LineOfSight answers ray queries against the environment. Obstructions on
// layers outside mask and the entity named by ignore are skipped.
type LineOfSight interface {
	Raycast(origin, dir game.Vec3, maxDist float64, mask uint32, ignore string) (RayHit, bool)
}

// DamageSignal reports true exactly once per frame in which the vehicle's
// health dropped since the previous frame.
type DamageSignal interface {
	DamageDetected() bool
}

// Body is the rigid-body actuation surface of the vehicle.
type Body interface {
	Position() game.Vec3
	Orientation() game.Quat
	RotateTowards(target game.Quat, maxDeg float64)
	MoveForward(speed, dt float64)
}

// Muzzle is the sensor and firing origin. ok is false while the mount is
// missing, which turns perception and firing into no-ops.
type Muzzle interface {
	MuzzlePose() (pos, forward game.Vec3, ok bool)
}

// ProjectileRequest asks the projectile system to spawn one round.
type ProjectileRequest struct {
	OwnerID             string
	Position            game.Vec3
	Orientation         game.Quat
	Velocity            game.Vec3
	Mass                float64
	UseGravity          bool
	ContinuousCollision bool
	IgnoreCollisionWith string
}

// Launcher spawns projectiles. Spawning is fire-and-forget.
type Launcher interface {
	Launch(req ProjectileRequest)
}

// EffectSink receives the exhaust state every frame: rear thrusters burn
// while boosting, front thrusters otherwise.
type EffectSink interface {
	SetBoostEffect(boosting bool)
}

// Deps bundles the collaborators injected into an Agent. Only Body is
// required; any other nil collaborator disables the feature it backs.
type Deps struct {
	Body     Body
	Muzzle   Muzzle
	Targets  TargetSource
	Sight    LineOfSight
	Damage   DamageSignal
	Launcher Launcher
	Effects  EffectSink
}

// Steering is what a mode behaviour asks actuation to do this frame.
type Steering struct {
	Aim      game.Vec3
	Speed    float64
	TurnRate float64 // degrees per second
}

// Snapshot is the externally visible state of an agent for telemetry.
type Snapshot struct {
	ID             string    `json:"id"`
	Frame          uint64    `json:"frame"`
	Mode           game.Mode `json:"mode"`
	Position       game.Vec3 `json:"position"`
	Orientation    game.Quat `json:"orientation"`
	PatrolTarget   game.Vec3 `json:"patrolTarget"`
	TargetID       string    `json:"targetId,omitempty"`
	TargetDistance float64   `json:"targetDistance,omitempty"`
	CircleTimer    float64   `json:"circleTimer"`
	EvadeTimer     float64   `json:"evadeTimer"`
	Boost          float64   `json:"boost"`
	BoostMax       float64   `json:"boostMax"`
	Boosting       bool      `json:"boosting"`
	BoostFraction  float64   `json:"boostFraction"`
	BoostStarved   bool      `json:"boostStarved"` // boost requested on an empty pool
	RechargeDelay  bool      `json:"rechargeDelay"`
	Heat           float64   `json:"heat"`
	HeatMax        float64   `json:"heatMax"`
	HeatFraction   float64   `json:"heatFraction"`
	Overheated     bool      `json:"overheated"`
	ShotsFired     int       `json:"shotsFired"`
	ShotsRefused   int       `json:"shotsRefused"`
}
