package bot

import (
	"github.com/lab1702/arena-bot/game"
)

// actuate turns toward the aim point at the behaviour's turn rate and moves
// forward at its speed. It runs exactly once per frame.
func (a *Agent) actuate(s Steering, dt float64) {
	body := a.deps.Body
	a.turnToward(s.Aim, s.TurnRate, dt)
	if s.Speed > 0 {
		body.MoveForward(s.Speed, dt)
	}
}

// applyAttention layers a slower turn toward the raw target direction on
// top of the strafe steering so the hull keeps tracking the target.
func (a *Agent) applyAttention(target game.Vec3, dt float64) {
	if a.tuning.AttentionRotationSpeed <= 0 {
		return
	}
	if game.FlatDistance(a.deps.Body.Position(), target) > a.tuning.DetectionRange {
		return
	}
	a.turnToward(target, a.tuning.AttentionRotationSpeed, dt)
}

func (a *Agent) turnToward(point game.Vec3, degPerSec, dt float64) {
	body := a.deps.Body
	dir := point.Sub(body.Position())
	if dir.LenSq() < MinAimDistSq {
		return
	}
	body.RotateTowards(game.LookRotation(dir, game.Up), degPerSec*dt)
}
