package bot

import (
	"math"

	"github.com/lab1702/arena-bot/game"
)

// behave runs the active mode for one frame. Behaviours request boost and
// fire directly; they never change the mode.
func (a *Agent) behave(dt float64) Steering {
	pos := a.deps.Body.Position()

	switch a.mode {
	case game.ModeChase:
		return a.chase(pos, a.target.Position, a.targetDistance, dt)
	case game.ModeAttack:
		return a.attack(pos, a.target.Position, a.targetDistance, dt)
	case game.ModeBreakOff:
		return a.breakOff(pos, a.target.Position, dt)
	case game.ModeEvade:
		return a.evade(pos, dt)
	default:
		return a.patrol(pos, dt)
	}
}

// patrol wanders between random waypoints around the agent.
func (a *Agent) patrol(pos game.Vec3, dt float64) Steering {
	if game.Distance(pos, a.patrolTarget) < a.tuning.PatrolThreshold {
		a.newPatrolTarget(pos)
	}
	a.setBoost(false, dt)
	return Steering{
		Aim:      a.patrolTarget,
		Speed:    a.tuning.BaseSpeed,
		TurnRate: a.tuning.RotationSpeed,
	}
}

// newPatrolTarget picks a point on the floor plane PatrolRadius away in a
// random direction.
func (a *Agent) newPatrolTarget(pos game.Vec3) {
	angle := a.rng.Float64() * 2 * math.Pi
	offset := game.Vec3{X: math.Cos(angle), Z: math.Sin(angle)}.Scale(a.tuning.PatrolRadius)
	a.patrolTarget = pos.Add(offset)
}

// chase closes on the target, boosting when it is beyond chase range, and
// backs away when it is too close to avoid ramming.
func (a *Agent) chase(pos, target game.Vec3, dist, dt float64) Steering {
	a.circleTimer = 0
	a.setBoost(dist > a.tuning.ChaseRange, dt)

	steer := Steering{Aim: target, TurnRate: a.tuning.RotationSpeed}
	switch {
	case dist > a.tuning.DesiredAttackRange:
		steer.Speed = a.tuning.BaseSpeed
		if a.exhaust {
			steer.Speed = a.tuning.BoostSpeed
		}
	case dist < a.tuning.MinSeparationDistance:
		away := pos.Sub(target).Normalized()
		steer.Aim = pos.Add(away.Scale(ChaseRetreatLookahead))
		steer.Speed = a.tuning.BaseSpeed * ChaseRetreatSpeedFactor
	}
	return steer
}

// attack flies the circle-strafe orbit and fires whenever the weapon allows.
func (a *Agent) attack(pos, target game.Vec3, dist, dt float64) Steering {
	a.circleTimer += dt
	a.setBoost(false, dt)

	aim := StrafeAimPoint(target, a.circleTimer, a.tuning)
	if dist < a.tuning.MinSeparationDistance {
		away := pos.Sub(target).Normalized()
		aim = pos.Add(away.Scale(a.tuning.MinSeparationDistance))
	}

	if a.fireTimer >= a.tuning.FireRate && !a.heat.Overheated() {
		a.Fire(target)
		a.fireTimer = 0
	}

	return Steering{
		Aim:      aim,
		Speed:    a.tuning.BaseSpeed,
		TurnRate: a.tuning.RotationSpeed,
	}
}

// breakOff boosts away from the target along a randomly spread heading.
func (a *Agent) breakOff(pos, target game.Vec3, dt float64) Steering {
	a.setBoost(true, dt)
	away := game.Yaw(a.randomSpreadDeg()).Rotate(pos.Sub(target).Normalized())
	return Steering{
		Aim:      target.Add(away.Scale(a.tuning.BreakOffRange)),
		Speed:    a.tuning.BreakOffSpeed,
		TurnRate: a.tuning.RotationSpeed,
	}
}

// evade turns straight away from the last known threat at full boost. With
// no sighting on record it holds the current heading.
func (a *Agent) evade(pos game.Vec3, dt float64) Steering {
	a.evadeTimer += dt
	a.setBoost(true, dt)

	aim := pos.Add(a.deps.Body.Orientation().Forward())
	if a.hasLastTarget {
		aim = pos.Add(pos.Sub(a.lastTarget.Position))
	}
	return Steering{
		Aim:      aim,
		Speed:    a.tuning.EvadeSpeed,
		TurnRate: a.tuning.EvadeRotationSpeed,
	}
}

// OrbitAngle is the strafe angle in radians after elapsed seconds, wrapped
// to [0, 2π): one full lap per circleDuration.
func OrbitAngle(elapsed, circleDuration float64) float64 {
	if circleDuration <= 0 {
		return 0
	}
	return game.NormalizeAngle(elapsed / circleDuration * 2 * math.Pi)
}

// StrafeAimPoint is the point on the attack orbit around target after
// elapsed seconds.
func StrafeAimPoint(target game.Vec3, elapsed float64, t game.Tuning) game.Vec3 {
	angle := OrbitAngle(elapsed, t.CircleDuration)
	offset := game.Vec3{X: math.Cos(angle), Z: math.Sin(angle)}.Scale(t.DesiredAttackRange)
	return target.Add(offset)
}
