package server

import (
	"math"

	"github.com/lab1702/arena-bot/game"
)

// InterceptSolution contains the result of an intercept calculation
type InterceptSolution struct {
	Direction       game.Vec3 // unit firing direction
	TimeToIntercept float64   // seconds until the shot reaches the target
	InterceptPoint  game.Vec3
}

// InterceptDirection solves for the firing direction that meets a target
// moving at constant velocity. The shot flies at projSpeed from origin.
//
// It returns false when the target outruns the shot or the only
// solutions lie in the past.
func InterceptDirection(origin, targetPos, targetVel game.Vec3, projSpeed float64) (*InterceptSolution, bool) {
	if projSpeed <= 0 {
		return nil, false
	}

	rel := targetPos.Sub(origin)
	distSq := rel.LenSq()
	if distSq < 1e-9 {
		// Target sits on the muzzle; any direction hits almost at once
		return &InterceptSolution{
			Direction:       game.Forward,
			TimeToIntercept: 1e-6,
			InterceptPoint:  origin,
		}, true
	}

	velSq := targetVel.LenSq()
	if velSq < 1e-9 {
		return &InterceptSolution{
			Direction:       rel.Normalized(),
			TimeToIntercept: math.Sqrt(distSq) / projSpeed,
			InterceptPoint:  targetPos,
		}, true
	}

	// |rel + targetVel*t| = projSpeed*t expands to a*t² + b*t + c = 0
	a := velSq - projSpeed*projSpeed
	b := 2.0 * rel.Dot(targetVel)
	c := distSq

	var t float64
	if math.Abs(a) < 1e-9 {
		// Equal speeds: the equation is linear
		if math.Abs(b) < 1e-9 {
			return nil, false
		}
		t = -c / b
		if t < 0 {
			return nil, false
		}
	} else {
		discriminant := b*b - 4*a*c
		if discriminant < 0 {
			return nil, false
		}
		sq := math.Sqrt(discriminant)
		t1 := (-b + sq) / (2 * a)
		t2 := (-b - sq) / (2 * a)
		switch {
		case t1 > 0 && t2 > 0:
			t = math.Min(t1, t2)
		case t1 > 0:
			t = t1
		case t2 > 0:
			t = t2
		default:
			return nil, false
		}
	}

	point := targetPos.Add(targetVel.Scale(t))
	return &InterceptSolution{
		Direction:       point.Sub(origin).Normalized(),
		TimeToIntercept: t,
		InterceptPoint:  point,
	}, true
}

// leadDirection returns the intercept direction, or the direct line to the
// target when no intercept exists.
func leadDirection(origin, targetPos, targetVel game.Vec3, projSpeed float64) game.Vec3 {
	if sol, ok := InterceptDirection(origin, targetPos, targetVel, projSpeed); ok {
		return sol.Direction
	}
	return targetPos.Sub(origin).Normalized()
}
