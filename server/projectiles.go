package server

import (
	"math"

	"github.com/google/uuid"

	"github.com/lab1702/arena-bot/bot"
	"github.com/lab1702/arena-bot/game"
)

// Gravity is applied to projectiles launched with UseGravity.
const Gravity = 9.81

// Projectile is a live shot in the arena.
type Projectile struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"ownerId"`
	Position    game.Vec3 `json:"position"`
	Velocity    game.Vec3 `json:"velocity"`
	Orientation game.Quat `json:"orientation"`
	Mass        float64   `json:"mass"`
	Age         float64   `json:"age"`

	useGravity bool
	continuous bool
	ignore     string
}

// Launch spawns a projectile. It is the bots' fire-and-forget launcher.
func (a *Arena) Launch(req bot.ProjectileRequest) {
	a.projectiles = append(a.projectiles, &Projectile{
		ID:          uuid.NewString(),
		OwnerID:     req.OwnerID,
		Position:    req.Position,
		Velocity:    req.Velocity,
		Orientation: req.Orientation,
		Mass:        req.Mass,
		useGravity:  req.UseGravity,
		continuous:  req.ContinuousCollision,
		ignore:      req.IgnoreCollisionWith,
	})
	a.stats.ShotsLaunched++
}

// updateProjectiles moves every projectile, resolves hits and drops spent
// shots. Uses in-place filtering to avoid slice allocation every frame.
func (a *Arena) updateProjectiles(dt float64) {
	writeIdx := 0
	for _, p := range a.projectiles {
		if p.useGravity {
			p.Velocity.Y -= Gravity * dt
		}
		step := p.Velocity.Scale(dt)
		travel := step.Len()

		var hit rayHit
		var ok bool
		if p.continuous && travel > 0 {
			// Sweep the whole step so fast shots cannot tunnel through hulls
			hit, ok = a.castRay(p.Position, step.Scale(1/travel), travel, game.AllLayers, p.ignore)
			if ok {
				step = step.Scale(hit.t / travel)
			}
			p.Position = p.Position.Add(step)
		} else {
			p.Position = p.Position.Add(step)
			hit, ok = a.overlap(p.Position, p.ignore)
		}
		if ok {
			a.resolveHit(p, hit)
			continue
		}

		p.Age += dt
		if p.Age >= ProjectileFuse || outOfBounds(p.Position) {
			logProjectileEvent(a.logger, "expired", p.ID, p.OwnerID, "", p.Position)
			continue
		}

		a.projectiles[writeIdx] = p
		writeIdx++
	}
	// Clear the tail so dropped projectiles can be collected
	for i := writeIdx; i < len(a.projectiles); i++ {
		a.projectiles[i] = nil
	}
	a.projectiles = a.projectiles[:writeIdx]
}

// overlap reports a ship or obstacle containing point, for projectiles
// without continuous collision.
func (a *Arena) overlap(point game.Vec3, ignore string) (rayHit, bool) {
	for _, s := range a.ships {
		if s.ID == ignore || s.health.Destroyed() {
			continue
		}
		if point.Sub(s.pos).LenSq() <= s.Radius*s.Radius {
			return rayHit{ship: s}, true
		}
	}
	for _, i := range a.index.around(point) {
		o := &a.obstacles[i]
		if o.ID == ignore {
			continue
		}
		if _, ok := o.hitT(point, game.Up, 0); ok {
			return rayHit{obstacle: o}, true
		}
	}
	return rayHit{}, false
}

// resolveHit applies damage for a ship hit and credits the shooter with a
// kill when the hit destroys the ship.
func (a *Arena) resolveHit(p *Projectile, hit rayHit) {
	if hit.ship == nil {
		logProjectileEvent(a.logger, "absorbed", p.ID, p.OwnerID, hit.obstacle.ID, p.Position)
		return
	}

	victim := hit.ship
	owner := a.Ship(p.OwnerID)
	// Prevent friendly fire - the shot is spent but deals no damage
	if owner != nil && owner.Kind == victim.Kind {
		logProjectileEvent(a.logger, "friendly", p.ID, p.OwnerID, victim.ID, p.Position)
		return
	}

	a.stats.Hits++
	logProjectileEvent(a.logger, "hit", p.ID, p.OwnerID, victim.ID, p.Position)
	if victim.health.TakeDamage(ProjectileDamage) {
		victim.deaths++
		if owner != nil {
			owner.kills++
		}
	}
}

func outOfBounds(v game.Vec3) bool {
	return math.Abs(v.X) > ArenaHalfExtent ||
		math.Abs(v.Y) > ArenaHalfExtent ||
		math.Abs(v.Z) > ArenaHalfExtent
}
