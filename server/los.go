package server

import (
	"math"

	"github.com/lab1702/arena-bot/bot"
	"github.com/lab1702/arena-bot/game"
)

// ObstacleShape selects the collider geometry of an Obstacle.
type ObstacleShape int

const (
	ShapeSphere ObstacleShape = iota
	ShapeBox
)

// Obstacle is static arena geometry. Spheres use Center and Radius; boxes
// are axis-aligned between Min and Max.
type Obstacle struct {
	ID     string        `json:"id"`
	Shape  ObstacleShape `json:"shape"`
	Layer  uint32        `json:"layer"`
	Center game.Vec3     `json:"center"`
	Radius float64       `json:"radius,omitempty"`
	Min    game.Vec3     `json:"min"`
	Max    game.Vec3     `json:"max"`
}

// hitT returns the distance along a unit ray at which it enters the
// obstacle, within [0, maxDist].
func (o Obstacle) hitT(origin, dir game.Vec3, maxDist float64) (float64, bool) {
	if o.Shape == ShapeBox {
		return rayAABBHitT(origin, dir, maxDist, o.Min, o.Max)
	}
	return raySphereHitT(origin, dir, maxDist, o.Center, o.Radius)
}

// raySphereHitT intersects a unit ray with a sphere. A ray starting inside
// the sphere hits at 0.
func raySphereHitT(origin, dir game.Vec3, maxDist float64, center game.Vec3, radius float64) (float64, bool) {
	oc := origin.Sub(center)
	c := oc.LenSq() - radius*radius
	if c <= 0 {
		return 0, true
	}
	b := oc.Dot(dir)
	if b > 0 {
		// Pointing away from a sphere we are outside of
		return 0, false
	}
	disc := b*b - c
	if disc < 0 {
		return 0, false
	}
	t := -b - math.Sqrt(disc)
	if t < 0 || t > maxDist {
		return 0, false
	}
	return t, true
}

// rayAABBHitT is the slab test over all three axes.
func rayAABBHitT(origin, dir game.Vec3, maxDist float64, min, max game.Vec3) (float64, bool) {
	tMin := 0.0
	tMax := maxDist

	o := [3]float64{origin.X, origin.Y, origin.Z}
	d := [3]float64{dir.X, dir.Y, dir.Z}
	lo := [3]float64{min.X, min.Y, min.Z}
	hi := [3]float64{max.X, max.Y, max.Z}

	for axis := 0; axis < 3; axis++ {
		if math.Abs(d[axis]) < 1e-12 {
			if o[axis] < lo[axis] || o[axis] > hi[axis] {
				return 0, false
			}
			continue
		}
		invD := 1.0 / d[axis]
		t1 := (lo[axis] - o[axis]) * invD
		t2 := (hi[axis] - o[axis]) * invD
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tMin = math.Max(tMin, t1)
		tMax = math.Min(tMax, t2)
		if tMin > tMax {
			return 0, false
		}
	}
	return tMin, true
}

// rayHit is the first collider along a ray: a ship, or an obstacle when
// ship is nil.
type rayHit struct {
	ship     *Ship
	obstacle *Obstacle
	t        float64
}

// castRay finds the nearest ship or obstacle along a unit ray. Colliders off
// the mask and the entity named by ignore are skipped; destroyed ships do
// not block.
func (a *Arena) castRay(origin, dir game.Vec3, maxDist float64, mask uint32, ignore string) (rayHit, bool) {
	best := rayHit{t: math.Inf(1)}
	found := false

	if mask&LayerShips != 0 {
		for _, s := range a.ships {
			if s.ID == ignore || s.health.Destroyed() {
				continue
			}
			if t, ok := raySphereHitT(origin, dir, maxDist, s.pos, s.Radius); ok && t < best.t {
				best = rayHit{ship: s, t: t}
				found = true
			}
		}
	}

	for _, i := range a.index.alongSegment(origin, origin.Add(dir.Scale(maxDist))) {
		o := &a.obstacles[i]
		if o.Layer&mask == 0 || o.ID == ignore {
			continue
		}
		if t, ok := o.hitT(origin, dir, maxDist); ok && t < best.t {
			best = rayHit{obstacle: o, t: t}
			found = true
		}
	}
	return best, found
}

// Raycast answers the bots' line-of-sight queries. A hit on a ship reports
// the hull part with the ship as its root.
func (a *Arena) Raycast(origin, dir game.Vec3, maxDist float64, mask uint32, ignore string) (bot.RayHit, bool) {
	dir = dir.Normalized()
	if dir.LenSq() == 0 {
		return bot.RayHit{}, false
	}
	hit, ok := a.castRay(origin, dir, maxDist, mask, ignore)
	if !ok {
		return bot.RayHit{}, false
	}
	if hit.ship != nil {
		return bot.RayHit{ID: hit.ship.ID + "/hull", RootID: hit.ship.ID, Dist: hit.t}, true
	}
	return bot.RayHit{ID: hit.obstacle.ID, RootID: hit.obstacle.ID, Dist: hit.t}, true
}
