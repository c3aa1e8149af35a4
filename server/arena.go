package server

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/lab1702/arena-bot/bot"
	"github.com/lab1702/arena-bot/game"
)

var (
	ErrArenaFull    = errors.New("arena is full")
	ErrShipNotFound = errors.New("ship not found")
)

// ArenaConfig configures a new Arena.
type ArenaConfig struct {
	Tuning    game.Tuning
	Seed      int64
	Pattern   Pattern
	Logger    *log.Logger
	Obstacles []Obstacle // nil uses DefaultObstacles
}

// ArenaStats are running totals since the arena was created.
type ArenaStats struct {
	ShotsLaunched int `json:"shotsLaunched"`
	Hits          int `json:"hits"`
	Respawns      int `json:"respawns"`
}

// Arena is the world the bots fly in: ships, static obstacles and live
// projectiles. It is advanced by Step and is not safe for concurrent use.
type Arena struct {
	tuning  game.Tuning
	pattern Pattern
	logger  *log.Logger
	rng     *rand.Rand

	ships       []*Ship // spawn order, which is also update order
	obstacles   []Obstacle
	index       *ObstacleIndex
	projectiles []*Projectile

	frame    uint64
	elapsed  float64
	botSeq   int
	pilotSeq int
	stats    ArenaStats
}

// NewArena builds an empty arena with obstacles but no ships.
func NewArena(cfg ArenaConfig) *Arena {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	pattern := cfg.Pattern
	if pattern == "" {
		pattern = PatternCircle
	}
	a := &Arena{
		tuning:  cfg.Tuning,
		pattern: pattern,
		logger:  logger,
		rng:     rand.New(rand.NewSource(cfg.Seed)),
		index:   newObstacleIndex(),
	}
	obstacles := cfg.Obstacles
	if obstacles == nil {
		obstacles = DefaultObstacles()
	}
	for _, o := range obstacles {
		a.AddObstacle(o)
	}
	return a
}

// DefaultObstacles is a small layout with cover between the spawn ring and
// the centre.
func DefaultObstacles() []Obstacle {
	return []Obstacle{
		{Shape: ShapeSphere, Layer: LayerTerrain, Center: game.Vec3{X: 60, Z: 60}, Radius: 12},
		{Shape: ShapeSphere, Layer: LayerTerrain, Center: game.Vec3{X: -70, Z: -40}, Radius: 15},
		{Shape: ShapeBox, Layer: LayerStructure, Min: game.Vec3{X: -10, Y: -20, Z: -90}, Max: game.Vec3{X: 10, Y: 20, Z: -70}},
		{Shape: ShapeBox, Layer: LayerShields, Min: game.Vec3{X: 80, Y: -20, Z: -30}, Max: game.Vec3{X: 82, Y: 20, Z: 30}},
	}
}

// AddObstacle places static geometry, assigning an ID if it has none.
func (a *Arena) AddObstacle(o Obstacle) {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	a.obstacles = append(a.obstacles, o)
	a.index.insert(len(a.obstacles)-1, o)
}

// AddBot spawns a bot on the spawn ring facing the arena centre.
func (a *Arena) AddBot() (*Ship, error) {
	if a.countKind(KindBot) >= MaxBots {
		return nil, fmt.Errorf("add bot: %w (max %d)", ErrArenaFull, MaxBots)
	}
	a.botSeq++
	angle := a.rng.Float64() * 2 * math.Pi
	pos := game.Vec3{X: math.Cos(angle), Z: math.Sin(angle)}.Scale(SpawnRingRadius)
	s := newShip(callsign("bot", a.botSeq), KindBot, pos, game.LookRotation(pos.Scale(-1), game.Up))
	a.track(s)
	a.spawnAgent(s)

	a.logger.Info("bot spawned", "name", s.Name, "id", s.ID, "pos", pos)
	return s, nil
}

// track adds a ship to the update order and arms its respawn on death.
func (a *Arena) track(s *Ship) {
	s.health.OnDeath(func() {
		s.respawnTimer = RespawnDelay
		a.logger.Info("ship destroyed", "name", s.Name, "id", s.ID, "frame", a.frame)
	})
	a.ships = append(a.ships, s)
}

// spawnAgent gives a ship a fresh decision core. A respawned ship is a new
// vehicle, so it gets a new agent rather than the old one's timers.
func (a *Arena) spawnAgent(s *Ship) {
	tuning := a.tuning
	if DebugTransitions {
		tuning.VerboseLogging = true
	}
	s.agent = bot.New(s.ID, tuning, bot.Deps{
		Body:     s,
		Muzzle:   s,
		Targets:  a,
		Sight:    a,
		Damage:   s.monitor,
		Launcher: a,
		Effects:  s,
	},
		bot.WithLogger(a.logger.With("name", s.Name)),
		bot.WithRand(rand.New(rand.NewSource(a.rng.Int63()))))
}

// AddPilot spawns a scripted opponent near the arena centre.
func (a *Arena) AddPilot() *Ship {
	a.pilotSeq++
	heading := a.rng.Float64() * 360
	s := newShip(callsign("pilot", a.pilotSeq), KindPilot, game.Vec3{}, game.Yaw(heading))
	s.pilot = newPilot(a.pattern, heading)
	a.track(s)

	a.logger.Info("pilot spawned", "name", s.Name, "id", s.ID, "pattern", a.pattern)
	return s
}

// RemoveShip takes a ship out of the arena along with its agent.
func (a *Arena) RemoveShip(id string) error {
	for i, s := range a.ships {
		if s.ID != id {
			continue
		}
		a.ships = append(a.ships[:i], a.ships[i+1:]...)
		a.logger.Info("ship removed", "name", s.Name, "id", s.ID)
		return nil
	}
	return fmt.Errorf("remove %s: %w", id, ErrShipNotFound)
}

// RemoveLastBot removes the most recently spawned bot.
func (a *Arena) RemoveLastBot() error {
	for i := len(a.ships) - 1; i >= 0; i-- {
		if a.ships[i].Kind == KindBot {
			return a.RemoveShip(a.ships[i].ID)
		}
	}
	return fmt.Errorf("remove bot: %w", ErrShipNotFound)
}

// SetPattern switches every pilot to a new flight pattern.
func (a *Arena) SetPattern(p Pattern) {
	a.pattern = p
	for _, s := range a.ships {
		if s.pilot != nil {
			s.pilot.pattern = p
		}
	}
}

// Ship looks a ship up by ID.
func (a *Arena) Ship(id string) *Ship {
	for _, s := range a.ships {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// Ships returns the ships in update order.
func (a *Arena) Ships() []*Ship {
	out := make([]*Ship, len(a.ships))
	copy(out, a.ships)
	return out
}

func (a *Arena) countKind(k ShipKind) int {
	n := 0
	for _, s := range a.ships {
		if s.Kind == k {
			n++
		}
	}
	return n
}

// Targets lists the live pilots, the only ships bots engage.
func (a *Arena) Targets() []bot.Target {
	var out []bot.Target
	for _, s := range a.ships {
		if s.Kind != KindPilot || s.health.Destroyed() {
			continue
		}
		out = append(out, bot.Target{ID: s.ID, Position: s.pos, Orientation: s.orient})
	}
	return out
}

// Step advances the arena by dt seconds: every live ship flies, then
// projectiles move, then repair and respawn run.
func (a *Arena) Step(dt float64) {
	if dt <= 0 {
		return
	}
	a.frame++
	a.elapsed += dt

	for _, s := range a.ships {
		s.speed = 0
		if s.health.Destroyed() {
			continue
		}
		switch {
		case s.agent != nil:
			s.agent.Update(dt)
		case s.pilot != nil:
			s.pilot.fly(s, dt)
			s.pilot.shoot(s, a, dt)
		}
	}

	a.updateProjectiles(dt)
	a.updateShipSystems(dt)
}

// Frame returns the number of steps taken.
func (a *Arena) Frame() uint64 { return a.frame }

// Stats returns running totals.
func (a *Arena) Stats() ArenaStats { return a.stats }

// ArenaState is the telemetry view of the whole arena.
type ArenaState struct {
	Frame       uint64        `json:"frame"`
	Elapsed     float64       `json:"elapsed"`
	Pattern     Pattern       `json:"pattern"`
	Ships       []ShipState   `json:"ships"`
	Projectiles []*Projectile `json:"projectiles"`
	Obstacles   []Obstacle    `json:"obstacles"`
	Stats       ArenaStats    `json:"stats"`
}

// State captures the arena for telemetry. The returned value shares no
// mutable memory with the arena.
func (a *Arena) State() ArenaState {
	st := ArenaState{
		Frame:       a.frame,
		Elapsed:     a.elapsed,
		Pattern:     a.pattern,
		Ships:       make([]ShipState, 0, len(a.ships)),
		Projectiles: make([]*Projectile, 0, len(a.projectiles)),
		Obstacles:   append([]Obstacle(nil), a.obstacles...),
		Stats:       a.stats,
	}
	for _, s := range a.ships {
		st.Ships = append(st.Ships, s.state())
	}
	for _, p := range a.projectiles {
		cp := *p
		st.Projectiles = append(st.Projectiles, &cp)
	}
	return st
}
