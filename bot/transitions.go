package bot

import (
	"github.com/lab1702/arena-bot/game"
)

// TransitionInput is everything the transition policy looks at in a frame.
type TransitionInput struct {
	Current     game.Mode
	Damaged     bool    // health dropped since the previous frame
	Visible     bool    // a target survived perception
	Distance    float64 // planar distance to the target
	CircleTimer float64 // seconds into the current strafe lap
	EvadeTimer  float64 // seconds into the current evade
}

// NextMode evaluates the transition rules in priority order; the first
// matching rule wins. RangeTolerance widens every boundary in the direction
// that keeps the current mode, so a target hovering on a threshold does not
// flip the mode every frame.
func NextMode(in TransitionInput, t game.Tuning) game.Mode {
	tol := t.RangeTolerance

	if in.Damaged {
		return game.ModeEvade
	}

	current := in.Current
	if current == game.ModeEvade {
		if in.EvadeTimer < t.EvadeDuration {
			return game.ModeEvade
		}
		// Evade has run its course; control returns to chase.
		current = game.ModeChase
	}

	if !in.Visible {
		return game.ModePatrol
	}

	// A break-off run is held until the bot has opened the gap.
	if current == game.ModeBreakOff {
		if in.Distance >= t.BreakOffRange+tol {
			return game.ModeChase
		}
		return game.ModeBreakOff
	}

	switch {
	case current == game.ModeAttack && in.CircleTimer >= t.CircleDuration:
		return game.ModeBreakOff
	case in.Distance > t.DetectionRange+tol:
		return game.ModePatrol
	case in.Distance > t.ChaseRange+tol:
		return game.ModeChase
	case in.Distance <= t.DesiredAttackRange-tol:
		return game.ModeAttack
	case current == game.ModeAttack && in.Distance <= t.DesiredAttackRange+tol:
		// The strafe orbit sits on desiredAttackRange itself; only leaving
		// the outer band ends the run.
		return game.ModeAttack
	default:
		return game.ModeChase
	}
}

// transition applies the policy to the agent. Damage always restarts the
// evade timer, even when already evading.
func (a *Agent) transition(damaged bool) {
	next := NextMode(TransitionInput{
		Current:     a.mode,
		Damaged:     damaged,
		Visible:     a.targetVisible,
		Distance:    a.targetDistance,
		CircleTimer: a.circleTimer,
		EvadeTimer:  a.evadeTimer,
	}, a.tuning)

	if damaged {
		a.evadeTimer = 0
	}
	if next == a.mode {
		return
	}

	if next == game.ModeAttack {
		// Every attack run starts a fresh strafe lap.
		a.circleTimer = 0
	}
	a.logger.Debug("mode change",
		"from", a.mode,
		"to", next,
		"dist", a.targetDistance,
		"damaged", damaged,
		"frame", a.frame)
	a.mode = next
	a.transitions++
}
