package server

import (
	"math"

	"github.com/dhconnelly/rtreego"

	"github.com/lab1702/arena-bot/game"
)

// boundsPad keeps every box strictly positive in each dimension, which
// rtreego requires, and absorbs rounding at box faces.
const boundsPad = 0.005

// Tree branching limits for the obstacle index
const (
	indexMinChildren = 4
	indexMaxChildren = 16
)

// indexedObstacle adapts an obstacle to rtreego.Spatial. It points back
// into the arena's obstacle slice by position.
type indexedObstacle struct {
	idx  int
	rect rtreego.Rect
}

func (o indexedObstacle) Bounds() rtreego.Rect { return o.rect }

// ObstacleIndex is a 3D R-tree over static obstacles, used as the
// broadphase for rays and overlap tests. Narrowphase stays exact.
type ObstacleIndex struct {
	tree *rtreego.Rtree
	size int
}

func newObstacleIndex() *ObstacleIndex {
	return &ObstacleIndex{tree: rtreego.NewTree(3, indexMinChildren, indexMaxChildren)}
}

// insert indexes the obstacle stored at position idx.
func (ix *ObstacleIndex) insert(idx int, o Obstacle) {
	min, max := o.bounds()
	ix.tree.Insert(indexedObstacle{idx: idx, rect: boxRect(min, max)})
	ix.size++
}

// Len returns the number of indexed obstacles.
func (ix *ObstacleIndex) Len() int { return ix.size }

// alongSegment returns the positions of obstacles whose bounds touch the
// box around the segment from a to b.
func (ix *ObstacleIndex) alongSegment(a, b game.Vec3) []int {
	min := game.Vec3{X: math.Min(a.X, b.X), Y: math.Min(a.Y, b.Y), Z: math.Min(a.Z, b.Z)}
	max := game.Vec3{X: math.Max(a.X, b.X), Y: math.Max(a.Y, b.Y), Z: math.Max(a.Z, b.Z)}
	return ix.search(boxRect(min, max))
}

// around returns the positions of obstacles whose bounds contain p.
func (ix *ObstacleIndex) around(p game.Vec3) []int {
	return ix.search(boxRect(p, p))
}

func (ix *ObstacleIndex) search(bb rtreego.Rect) []int {
	if ix.size == 0 {
		return nil
	}
	found := ix.tree.SearchIntersect(bb)
	out := make([]int, 0, len(found))
	for _, s := range found {
		out = append(out, s.(indexedObstacle).idx)
	}
	return out
}

// boxRect builds a padded rtreego rectangle from corner points.
func boxRect(min, max game.Vec3) rtreego.Rect {
	corner := rtreego.Point{min.X - boundsPad, min.Y - boundsPad, min.Z - boundsPad}
	lengths := []float64{
		max.X - min.X + 2*boundsPad,
		max.Y - min.Y + 2*boundsPad,
		max.Z - min.Z + 2*boundsPad,
	}
	// Lengths are positive by construction, so NewRect cannot fail
	r, _ := rtreego.NewRect(corner, lengths)
	return r
}

// bounds returns the axis-aligned box enclosing the obstacle.
func (o Obstacle) bounds() (game.Vec3, game.Vec3) {
	if o.Shape == ShapeBox {
		return o.Min, o.Max
	}
	r := game.Vec3{X: o.Radius, Y: o.Radius, Z: o.Radius}
	return o.Center.Sub(r), o.Center.Add(r)
}
