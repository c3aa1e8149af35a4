package server

import (
	"fmt"
	"math"

	"github.com/lab1702/arena-bot/bot"
	"github.com/lab1702/arena-bot/game"
)

// Pattern is a scripted flight path for the opponent the bots hunt.
type Pattern string

const (
	PatternStraight Pattern = "straight"
	PatternCircle   Pattern = "circle"
	PatternZigzag   Pattern = "zigzag"
)

// ParsePattern validates a pattern name from a flag or client message.
func ParsePattern(s string) (Pattern, error) {
	switch p := Pattern(s); p {
	case PatternStraight, PatternCircle, PatternZigzag:
		return p, nil
	default:
		return "", fmt.Errorf("unknown pilot pattern %q (want straight, circle or zigzag)", s)
	}
}

const (
	pilotTurnRate     = 90.0  // degrees per second
	pilotCircleRadius = 80.0  // orbit radius around the spawn point
	pilotLegLength    = 250.0 // straight runs turn back after this far from spawn
	pilotZigzagPeriod = 2.0   // seconds per zigzag leg
	pilotZigzagAngle  = 45.0  // degrees either side of the base heading
)

// Pilot flies a ship along a Pattern and takes potshots at bots in front
// of it, which gives the bots something to evade.
type Pilot struct {
	pattern   Pattern
	elapsed   float64
	fireTimer float64
	heading   float64 // base yaw in degrees
	returning bool
}

func newPilot(pattern Pattern, heading float64) *Pilot {
	return &Pilot{pattern: pattern, heading: heading}
}

// Pattern returns the pilot's current flight pattern.
func (p *Pilot) Pattern() Pattern { return p.pattern }

// aim returns the point the pilot steers toward this frame.
func (p *Pilot) aim(s *Ship) game.Vec3 {
	switch p.pattern {
	case PatternCircle:
		// Lead the orbit by a quarter radian so the ship flies the tangent
		angle := p.elapsed*PilotCruiseSpeed/pilotCircleRadius + 0.25
		offset := game.Vec3{X: math.Cos(angle), Z: math.Sin(angle)}.Scale(pilotCircleRadius)
		return s.spawn.Add(offset)

	case PatternZigzag:
		yaw := p.heading + pilotZigzagAngle
		if int(p.elapsed/pilotZigzagPeriod)%2 == 1 {
			yaw = p.heading - pilotZigzagAngle
		}
		return s.pos.Add(game.Yaw(yaw).Rotate(game.Forward).Scale(10))

	default:
		out := game.FlatDistance(s.spawn, s.pos)
		if !p.returning && out > pilotLegLength {
			// Reverse and fly back past the spawn point
			p.heading = math.Mod(p.heading+180, 360)
			p.returning = true
		} else if p.returning && out < pilotLegLength/2 {
			p.returning = false
		}
		return s.pos.Add(game.Yaw(p.heading).Rotate(game.Forward).Scale(10))
	}
}

// fly steers and moves the pilot's ship for one frame.
func (p *Pilot) fly(s *Ship, dt float64) {
	p.elapsed += dt
	dir := p.aim(s).Sub(s.pos)
	if dir.LenSq() > bot.MinAimDistSq {
		s.RotateTowards(game.LookRotation(dir, game.Up), pilotTurnRate*dt)
	}
	s.MoveForward(PilotCruiseSpeed, dt)
}

// shoot fires at the nearest bot inside the pilot's forward cone.
func (p *Pilot) shoot(s *Ship, a *Arena, dt float64) {
	p.fireTimer += dt
	if p.fireTimer < PilotFireInterval {
		return
	}

	origin, forward, ok := s.MuzzlePose()
	if !ok {
		return
	}
	var target *Ship
	best := PilotFireRange
	for _, other := range a.ships {
		if other.Kind != KindBot || other.health.Destroyed() {
			continue
		}
		toward := other.pos.Sub(origin)
		d := toward.Len()
		if d > best || game.AngleBetween(forward, toward) > PilotFireConeDeg {
			continue
		}
		target, best = other, d
	}
	if target == nil {
		return
	}

	p.fireTimer = 0
	lead := leadDirection(origin, target.pos, target.Velocity(), PilotShotSpeed)
	dir := game.Yaw(randomJitterDeg(a.rng)).Rotate(lead)
	a.Launch(bot.ProjectileRequest{
		OwnerID:             s.ID,
		Position:            origin,
		Orientation:         game.LookRotation(dir, game.Up),
		Velocity:            dir.Scale(PilotShotSpeed),
		Mass:                0.1,
		ContinuousCollision: true,
		IgnoreCollisionWith: s.ID,
	})
}
