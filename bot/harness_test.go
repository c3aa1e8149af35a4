package bot

import (
	"io"
	"math/rand"

	"github.com/charmbracelet/log"

	"github.com/lab1702/arena-bot/game"
)

// testBody is a kinematic body that rotates and translates exactly as asked.
type testBody struct {
	pos    game.Vec3
	orient game.Quat

	rotateCalls int
	moveCalls   int
	lastSpeed   float64
}

func newTestBody(pos game.Vec3) *testBody {
	return &testBody{pos: pos, orient: game.Identity}
}

func (b *testBody) Position() game.Vec3    { return b.pos }
func (b *testBody) Orientation() game.Quat { return b.orient }

func (b *testBody) RotateTowards(target game.Quat, maxDeg float64) {
	b.rotateCalls++
	b.orient = game.RotateTowards(b.orient, target, maxDeg)
}

func (b *testBody) MoveForward(speed, dt float64) {
	b.moveCalls++
	b.lastSpeed = speed
	b.pos = b.pos.Add(b.orient.Forward().Scale(speed * dt))
}

// testWorld provides targets, line of sight, a muzzle and a launcher.
type testWorld struct {
	body    *testBody
	targets []Target
	blocked map[string]bool // target IDs hidden behind an obstacle
	partHit map[string]bool // ray hits a child part of the target

	// turret makes the muzzle always face the first target, so tests can
	// exercise transitions without the sensor cone interfering.
	turret    bool
	noMuzzle  bool
	launched  []ProjectileRequest
	raycasts  int
	lastMask  uint32
	damage    []bool
	boostSeen []bool
}

func newTestWorld(body *testBody) *testWorld {
	return &testWorld{
		body:    body,
		blocked: make(map[string]bool),
		partHit: make(map[string]bool),
	}
}

func (w *testWorld) Targets() []Target { return w.targets }

func (w *testWorld) Raycast(origin, dir game.Vec3, maxDist float64, mask uint32, ignore string) (RayHit, bool) {
	w.raycasts++
	w.lastMask = mask
	for _, t := range w.targets {
		toward := t.Position.Sub(origin)
		if game.AngleBetween(toward, dir) > 0.01 {
			continue
		}
		if w.blocked[t.ID] {
			return RayHit{ID: "wall", RootID: "wall", Dist: toward.Len() / 2}, true
		}
		if w.partHit[t.ID] {
			return RayHit{ID: t.ID + "/hull", RootID: t.ID, Dist: toward.Len()}, true
		}
		return RayHit{ID: t.ID, RootID: t.ID, Dist: toward.Len()}, true
	}
	return RayHit{}, false
}

func (w *testWorld) MuzzlePose() (game.Vec3, game.Vec3, bool) {
	if w.noMuzzle {
		return game.Vec3{}, game.Vec3{}, false
	}
	pos := w.body.Position()
	if w.turret && len(w.targets) > 0 {
		return pos, w.targets[0].Position.Sub(pos).Normalized(), true
	}
	return pos, w.body.Orientation().Forward(), true
}

func (w *testWorld) Launch(req ProjectileRequest) {
	w.launched = append(w.launched, req)
}

// DamageDetected pops the next scripted damage flag.
func (w *testWorld) DamageDetected() bool {
	if len(w.damage) == 0 {
		return false
	}
	d := w.damage[0]
	w.damage = w.damage[1:]
	return d
}

func (w *testWorld) SetBoostEffect(boosting bool) {
	w.boostSeen = append(w.boostSeen, boosting)
}

func (w *testWorld) deps() Deps {
	return Deps{
		Body:     w.body,
		Muzzle:   w,
		Targets:  w,
		Sight:    w,
		Damage:   w,
		Launcher: w,
		Effects:  w,
	}
}

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

// newTestAgent builds an agent at the origin facing +Z with a fixed seed.
func newTestAgent(t game.Tuning) (*Agent, *testWorld) {
	body := newTestBody(game.Vec3{})
	world := newTestWorld(body)
	a := New("bot-1", t, world.deps(),
		WithLogger(quietLogger()),
		WithRand(rand.New(rand.NewSource(42))))
	return a, world
}

const frameDT = 1.0 / 60.0
