package bot

import (
	"github.com/lab1702/arena-bot/game"
)

// Fire shoots one projectile at targetPos. It reports whether a projectile
// was launched. A shot that would overheat the weapon is refused and marks
// it overheated; a missing muzzle or launcher makes the call a no-op.
func (a *Agent) Fire(targetPos game.Vec3) bool {
	if !a.heat.Admit() {
		a.shotsRefused++
		a.logger.Debug("fire refused, weapon overheated",
			"heat", a.heat.Current(),
			"max", a.heat.Max())
		return false
	}
	if a.deps.Muzzle == nil || a.deps.Launcher == nil {
		return false
	}
	origin, forward, ok := a.deps.Muzzle.MuzzlePose()
	if !ok {
		return false
	}

	dir := targetPos.Sub(origin).Normalized()
	if dir.LenSq() == 0 {
		dir = forward.Normalized()
	}

	a.deps.Launcher.Launch(ProjectileRequest{
		OwnerID:             a.id,
		Position:            origin.Add(dir.Scale(a.tuning.ProjectileOffset)),
		Orientation:         game.LookRotation(dir, game.Up),
		Velocity:            dir.Scale(a.tuning.ProjectileSpeed),
		Mass:                a.tuning.ProjectileMass,
		UseGravity:          false,
		ContinuousCollision: true,
		IgnoreCollisionWith: a.id,
	})

	a.heat.Commit()
	a.shotsFired++
	if DebugWeapons {
		a.logger.Debug("fired",
			"heat", a.heat.Current(),
			"target", targetPos)
	}
	return true
}
