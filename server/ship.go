package server

import (
	"fmt"

	petname "github.com/dustinkirkland/golang-petname"
	"github.com/google/uuid"

	"github.com/lab1702/arena-bot/bot"
	"github.com/lab1702/arena-bot/game"
)

// ShipKind tells bots apart from the scripted opponents they hunt.
type ShipKind int

const (
	KindBot ShipKind = iota
	KindPilot
)

func (k ShipKind) String() string {
	switch k {
	case KindBot:
		return "bot"
	case KindPilot:
		return "pilot"
	default:
		return "unknown"
	}
}

func (k ShipKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *ShipKind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "bot":
		*k = KindBot
	case "pilot":
		*k = KindPilot
	default:
		return fmt.Errorf("unknown ship kind %q", b)
	}
	return nil
}

// Ship is a kinematic hull in the arena. It is the rigid body, muzzle and
// thruster effect sink a bot flies through.
type Ship struct {
	ID     string
	Name   string
	Kind   ShipKind
	Radius float64

	pos    game.Vec3
	orient game.Quat
	speed  float64 // last commanded forward speed
	spawn  game.Vec3

	health  *Health
	monitor *HealthMonitor

	agent *bot.Agent
	pilot *Pilot

	// Exhaust: rear nozzles burn while boosting, front nozzles the rest
	// of the time.
	rearThrusters  bool
	frontThrusters bool

	respawnTimer float64
	repairTimer  float64

	kills  int
	deaths int
}

// callsign names a ship by kind and spawn order plus a readable tag,
// e.g. "bot-3-gentle".
func callsign(kind string, seq int) string {
	return fmt.Sprintf("%s-%d-%s", kind, seq, petname.Adjective())
}

func newShip(name string, kind ShipKind, pos game.Vec3, orient game.Quat) *Ship {
	s := &Ship{
		ID:     uuid.NewString(),
		Name:   name,
		Kind:   kind,
		Radius: ShipRadius,
		pos:    pos,
		orient: orient,
		spawn:  pos,
		health: NewHealth(ShipMaxHealth),
	}
	s.monitor = NewHealthMonitor(s.health)
	s.SetBoostEffect(false)
	return s
}

func (s *Ship) Position() game.Vec3    { return s.pos }
func (s *Ship) Orientation() game.Quat { return s.orient }

// Velocity is the hull's last commanded motion along its nose.
func (s *Ship) Velocity() game.Vec3 { return s.orient.Forward().Scale(s.speed) }

func (s *Ship) RotateTowards(target game.Quat, maxDeg float64) {
	s.orient = game.RotateTowards(s.orient, target, maxDeg)
}

func (s *Ship) MoveForward(speed, dt float64) {
	s.speed = speed
	s.pos = s.pos.Add(s.orient.Forward().Scale(speed * dt))
}

// MuzzlePose places the sensor and gun ahead of the hull. A destroyed
// ship has no muzzle.
func (s *Ship) MuzzlePose() (game.Vec3, game.Vec3, bool) {
	if s.health.Destroyed() {
		return game.Vec3{}, game.Vec3{}, false
	}
	fwd := s.orient.Forward()
	return s.pos.Add(fwd.Scale(MuzzleOffset)), fwd, true
}

func (s *Ship) SetBoostEffect(boosting bool) {
	s.rearThrusters = boosting
	s.frontThrusters = !boosting
}

// Health exposes the ship's ledger.
func (s *Ship) Health() *Health { return s.health }

// Agent returns the bot flying this ship, or nil for a pilot.
func (s *Ship) Agent() *bot.Agent { return s.agent }

func (s *Ship) String() string {
	return fmt.Sprintf("%s %s (%s)", s.Kind, s.Name, s.ID[:8])
}

// ShipState is the telemetry view of one ship.
type ShipState struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	Kind           ShipKind      `json:"kind"`
	Position       game.Vec3     `json:"position"`
	Orientation    game.Quat     `json:"orientation"`
	Speed          float64       `json:"speed"`
	Health         float64       `json:"health"`
	MaxHealth      float64       `json:"maxHealth"`
	Destroyed      bool          `json:"destroyed"`
	RearThrusters  bool          `json:"rearThrusters"`
	FrontThrusters bool          `json:"frontThrusters"`
	Kills          int           `json:"kills"`
	Deaths         int           `json:"deaths"`
	Bot            *bot.Snapshot `json:"bot,omitempty"`
}

func (s *Ship) state() ShipState {
	st := ShipState{
		ID:             s.ID,
		Name:           s.Name,
		Kind:           s.Kind,
		Position:       s.pos,
		Orientation:    s.orient,
		Speed:          s.speed,
		Health:         s.health.Current(),
		MaxHealth:      s.health.Max(),
		Destroyed:      s.health.Destroyed(),
		RearThrusters:  s.rearThrusters,
		FrontThrusters: s.frontThrusters,
		Kills:          s.kills,
		Deaths:         s.deaths,
	}
	if s.agent != nil {
		snap := s.agent.Snapshot()
		st.Bot = &snap
	}
	return st
}
