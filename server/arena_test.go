package server

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/lab1702/arena-bot/bot"
	"github.com/lab1702/arena-bot/game"
)

func TestRaycastBlockedByObstacle(t *testing.T) {
	rock := Obstacle{ID: "rock", Shape: ShapeSphere, Layer: LayerTerrain, Center: game.Vec3{Z: 50}, Radius: 5}
	a := newTestArena(rock)

	hit, ok := a.Raycast(game.Vec3{}, game.Forward, 100, game.AllLayers, "")
	if !ok {
		t.Fatal("Expected the ray to hit the rock")
	}
	if hit.RootID != "rock" {
		t.Errorf("Expected root rock, got %q", hit.RootID)
	}
	if math.Abs(hit.Dist-45) > 1e-9 {
		t.Errorf("Expected hit at 45, got %v", hit.Dist)
	}

	if _, ok := a.Raycast(game.Vec3{}, game.Forward, 40, game.AllLayers, ""); ok {
		t.Error("Expected no hit when the rock is beyond maxDist")
	}
	if _, ok := a.Raycast(game.Vec3{}, game.Right, 100, game.AllLayers, ""); ok {
		t.Error("Expected no hit off to the side")
	}
}

func TestRaycastMaskSkipsLayers(t *testing.T) {
	screen := Obstacle{ID: "screen", Shape: ShapeBox, Layer: LayerShields,
		Min: game.Vec3{X: -10, Y: -10, Z: 40}, Max: game.Vec3{X: 10, Y: 10, Z: 42}}
	a := newTestArena(screen)

	tests := []struct {
		name    string
		mask    uint32
		wantHit bool
	}{
		{"all layers", game.AllLayers, true},
		{"shields only", LayerShields, true},
		{"shields excluded", game.AllLayers &^ LayerShields, false},
		{"terrain only", LayerTerrain, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hit, ok := a.Raycast(game.Vec3{}, game.Forward, 100, tt.mask, "")
			if ok != tt.wantHit {
				t.Fatalf("Expected hit=%v, got %v", tt.wantHit, ok)
			}
			if ok && math.Abs(hit.Dist-40) > 1e-9 {
				t.Errorf("Expected hit at 40, got %v", hit.Dist)
			}
		})
	}
}

func TestRaycastShipHull(t *testing.T) {
	a := newTestArena()
	pilot := a.AddPilot()

	hit, ok := a.Raycast(game.Vec3{Z: -20}, game.Forward, 100, LayerShips, "")
	if !ok {
		t.Fatal("Expected the ray to hit the pilot")
	}
	if hit.RootID != pilot.ID {
		t.Errorf("Expected root %s, got %s", pilot.ID, hit.RootID)
	}
	if hit.ID != pilot.ID+"/hull" {
		t.Errorf("Expected hull part, got %s", hit.ID)
	}
	if math.Abs(hit.Dist-(20-ShipRadius)) > 1e-9 {
		t.Errorf("Expected hit at %v, got %v", 20-ShipRadius, hit.Dist)
	}

	if _, ok := a.Raycast(game.Vec3{Z: -20}, game.Forward, 100, LayerShips, pilot.ID); ok {
		t.Error("Expected the ignored ship to be transparent")
	}
	if _, ok := a.Raycast(game.Vec3{Z: -20}, game.Forward, 100, LayerTerrain, ""); ok {
		t.Error("Expected ships to be skipped when the mask omits them")
	}

	pilot.health.TakeDamage(ShipMaxHealth)
	if _, ok := a.Raycast(game.Vec3{Z: -20}, game.Forward, 100, LayerShips, ""); ok {
		t.Error("Expected a destroyed ship not to block")
	}
}

func TestRaycastZeroDirection(t *testing.T) {
	a := newTestArena()
	a.AddPilot()
	if _, ok := a.Raycast(game.Vec3{Z: -20}, game.Vec3{}, 100, game.AllLayers, ""); ok {
		t.Error("Expected a zero direction to hit nothing")
	}
}

func TestTargetsOnlyLivePilots(t *testing.T) {
	a := newTestArena()
	if _, err := a.AddBot(); err != nil {
		t.Fatal(err)
	}
	pilot := a.AddPilot()

	targets := a.Targets()
	if len(targets) != 1 || targets[0].ID != pilot.ID {
		t.Fatalf("Expected only the pilot as a target, got %+v", targets)
	}

	pilot.health.TakeDamage(ShipMaxHealth)
	if n := len(a.Targets()); n != 0 {
		t.Errorf("Expected no targets after the pilot died, got %d", n)
	}
}

func TestAddBotSpawnsOnRing(t *testing.T) {
	a := newTestArena()
	s, err := a.AddBot()
	if err != nil {
		t.Fatal(err)
	}
	if d := s.pos.Len(); math.Abs(d-SpawnRingRadius) > 1e-9 {
		t.Errorf("Expected spawn on the ring at %v, got %v", SpawnRingRadius, d)
	}
	if ang := game.AngleBetween(s.orient.Forward(), s.pos.Scale(-1)); ang > 1e-3 {
		t.Errorf("Expected bot to face the centre, off by %v degrees", ang)
	}
	if s.agent == nil || s.agent.ID() != s.ID {
		t.Error("Expected the bot to carry an agent with its ID")
	}
	if s.agent.Mode() != game.ModePatrol {
		t.Errorf("Expected patrol at spawn, got %v", s.agent.Mode())
	}
}

func TestCallsigns(t *testing.T) {
	a := newTestArena()
	b1, _ := a.AddBot()
	b2, _ := a.AddBot()
	p := a.AddPilot()

	if !strings.HasPrefix(b1.Name, "bot-1-") || !strings.HasPrefix(b2.Name, "bot-2-") {
		t.Errorf("Expected bot callsigns in spawn order, got %q and %q", b1.Name, b2.Name)
	}
	if !strings.HasPrefix(p.Name, "pilot-1-") {
		t.Errorf("Expected a pilot callsign, got %q", p.Name)
	}
	if len(b1.Name) <= len("bot-1-") {
		t.Errorf("Expected a readable tag after the sequence, got %q", b1.Name)
	}
}

func TestAddBotLimit(t *testing.T) {
	a := newTestArena()
	for i := 0; i < MaxBots; i++ {
		if _, err := a.AddBot(); err != nil {
			t.Fatalf("Unexpected error adding bot %d: %v", i, err)
		}
	}
	if _, err := a.AddBot(); !errors.Is(err, ErrArenaFull) {
		t.Errorf("Expected ErrArenaFull, got %v", err)
	}
	// Pilots do not count against the bot limit
	a.AddPilot()
	if n := len(a.Ships()); n != MaxBots+1 {
		t.Errorf("Expected %d ships, got %d", MaxBots+1, n)
	}
}

func TestRemoveShip(t *testing.T) {
	a := newTestArena()
	first, _ := a.AddBot()
	second, _ := a.AddBot()
	a.AddPilot()

	if err := a.RemoveLastBot(); err != nil {
		t.Fatal(err)
	}
	if a.Ship(second.ID) != nil {
		t.Error("Expected the newest bot to be removed")
	}
	if err := a.RemoveShip(first.ID); err != nil {
		t.Fatal(err)
	}
	if err := a.RemoveLastBot(); !errors.Is(err, ErrShipNotFound) {
		t.Errorf("Expected ErrShipNotFound with no bots left, got %v", err)
	}
	if err := a.RemoveShip("nope"); !errors.Is(err, ErrShipNotFound) {
		t.Errorf("Expected ErrShipNotFound, got %v", err)
	}
	if n := len(a.Ships()); n != 1 {
		t.Errorf("Expected only the pilot left, got %d ships", n)
	}
}

func TestStepIgnoresNonPositiveDT(t *testing.T) {
	a := newTestArena()
	a.AddPilot()
	a.Step(0)
	a.Step(-FrameDT)
	if a.Frame() != 0 {
		t.Errorf("Expected no frames, got %d", a.Frame())
	}
	a.Step(FrameDT)
	if a.Frame() != 1 {
		t.Errorf("Expected 1 frame, got %d", a.Frame())
	}
}

func TestProjectileHitTriggersEvade(t *testing.T) {
	a := newTestArena()
	pilot := a.AddPilot()
	b, _ := a.AddBot()

	dropShot(a, pilot.ID, b)
	a.Step(FrameDT)

	if got := b.health.Current(); got != ShipMaxHealth-ProjectileDamage {
		t.Errorf("Expected health %v, got %v", ShipMaxHealth-ProjectileDamage, got)
	}
	if st := a.Stats(); st.Hits != 1 || st.ShotsLaunched != 1 {
		t.Errorf("Expected 1 shot and 1 hit, got %+v", st)
	}
	if n := len(a.State().Projectiles); n != 0 {
		t.Errorf("Expected the shot to be spent, got %d live", n)
	}

	// The bot notices the drop on its next frame
	a.Step(FrameDT)
	if b.agent.Mode() != game.ModeEvade {
		t.Errorf("Expected evade after being hit, got %v", b.agent.Mode())
	}
}

func TestContinuousCollisionPreventsTunnelling(t *testing.T) {
	tests := []struct {
		name       string
		continuous bool
		wantHit    bool
	}{
		{"swept", true, true},
		{"discrete", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestArena()
			pilot := a.AddPilot()
			// 40 units per frame, far more than a hull diameter
			a.Launch(bot.ProjectileRequest{
				Position:            game.Vec3{Z: -20},
				Velocity:            game.Vec3{Z: 40 * FrameRate},
				ContinuousCollision: tt.continuous,
			})
			a.Step(FrameDT)

			hit := pilot.health.Current() < ShipMaxHealth
			if hit != tt.wantHit {
				t.Errorf("Expected hit=%v, got %v", tt.wantHit, hit)
			}
		})
	}
}

func TestFriendlyFireAbsorbed(t *testing.T) {
	a := newTestArena()
	shooter, _ := a.AddBot()
	victim, _ := a.AddBot()

	dropShot(a, shooter.ID, victim)
	a.Step(FrameDT)

	if victim.health.Current() != ShipMaxHealth {
		t.Errorf("Expected no friendly damage, got health %v", victim.health.Current())
	}
	if a.Stats().Hits != 0 {
		t.Errorf("Expected no hits counted, got %d", a.Stats().Hits)
	}
	if n := len(a.State().Projectiles); n != 0 {
		t.Errorf("Expected the shot to be spent, got %d live", n)
	}
}

func TestObstacleAbsorbsShot(t *testing.T) {
	rock := Obstacle{Shape: ShapeSphere, Layer: LayerTerrain, Center: game.Vec3{Z: 50}, Radius: 5}
	a := newTestArena(rock)
	a.Launch(bot.ProjectileRequest{Velocity: game.Vec3{Z: 600}, ContinuousCollision: true})

	for i := 0; i < 5; i++ {
		a.Step(FrameDT)
	}
	if n := len(a.State().Projectiles); n != 0 {
		t.Errorf("Expected the rock to absorb the shot, got %d live", n)
	}
	if a.Stats().Hits != 0 {
		t.Errorf("Expected obstacle hits not to count, got %d", a.Stats().Hits)
	}
}

func TestProjectileExpiry(t *testing.T) {
	t.Run("fuse", func(t *testing.T) {
		a := newTestArena()
		a.Launch(bot.ProjectileRequest{Velocity: game.Vec3{Z: 1}})
		for i := 0; i < 119; i++ {
			a.Step(FrameDT)
		}
		if n := len(a.State().Projectiles); n != 1 {
			t.Fatalf("Expected the shot alive before its fuse, got %d", n)
		}
		a.Step(FrameDT)
		a.Step(FrameDT)
		if n := len(a.State().Projectiles); n != 0 {
			t.Errorf("Expected the fuse to expire the shot, got %d", n)
		}
	})

	t.Run("out of bounds", func(t *testing.T) {
		a := newTestArena()
		a.Launch(bot.ProjectileRequest{Position: game.Vec3{Z: ArenaHalfExtent - 10}, Velocity: game.Vec3{Z: 1200}})
		a.Step(FrameDT)
		if n := len(a.State().Projectiles); n != 0 {
			t.Errorf("Expected the shot culled outside the arena, got %d", n)
		}
	})

	t.Run("gravity", func(t *testing.T) {
		a := newTestArena()
		a.Launch(bot.ProjectileRequest{Velocity: game.Vec3{Z: 1}, UseGravity: true})
		a.Step(FrameDT)
		p := a.State().Projectiles[0]
		if p.Velocity.Y >= 0 || p.Position.Y >= 0 {
			t.Errorf("Expected gravity to pull the shot down, got vel %v pos %v", p.Velocity, p.Position)
		}
	})
}

func TestKillCreditsShooter(t *testing.T) {
	a := newTestArena()
	pilot := a.AddPilot()
	b, _ := a.AddBot()

	pilot.health.TakeDamage(ShipMaxHealth - ProjectileDamage)
	dropShot(a, b.ID, pilot)
	a.Step(FrameDT)

	if !pilot.health.Destroyed() {
		t.Fatal("Expected the pilot to be destroyed")
	}
	if pilot.deaths != 1 || b.kills != 1 {
		t.Errorf("Expected 1 death and 1 kill, got deaths=%d kills=%d", pilot.deaths, b.kills)
	}
	if pilot.respawnTimer <= 0 {
		t.Error("Expected the death to arm the respawn timer")
	}
	if _, _, ok := pilot.MuzzlePose(); ok {
		t.Error("Expected a destroyed ship to have no muzzle")
	}
}

func TestStateIsACopy(t *testing.T) {
	a := newTestArena()
	a.AddPilot()
	a.AddBot()
	a.Launch(bot.ProjectileRequest{Velocity: game.Vec3{Z: 1}})

	st := a.State()
	st.Projectiles[0].Position = game.Vec3{X: 999}
	st.Obstacles = append(st.Obstacles, Obstacle{ID: "extra"})

	again := a.State()
	if again.Projectiles[0].Position.X == 999 {
		t.Error("Expected projectile state to be detached from the arena")
	}
	if len(again.Obstacles) != 0 {
		t.Error("Expected obstacle state to be detached from the arena")
	}

	var botStates int
	for _, s := range again.Ships {
		if s.Bot != nil {
			botStates++
			if s.Kind != KindBot {
				t.Errorf("Expected bot telemetry only on bots, got %v", s.Kind)
			}
		}
	}
	if botStates != 1 {
		t.Errorf("Expected 1 bot snapshot, got %d", botStates)
	}
}

func TestDefaultObstacles(t *testing.T) {
	a := NewArena(ArenaConfig{Tuning: game.DefaultTuning(), Logger: quietLogger()})
	st := a.State()
	if len(st.Obstacles) != len(DefaultObstacles()) {
		t.Fatalf("Expected %d default obstacles, got %d", len(DefaultObstacles()), len(st.Obstacles))
	}
	seen := make(map[string]bool)
	for _, o := range st.Obstacles {
		if o.ID == "" || seen[o.ID] {
			t.Errorf("Expected unique obstacle IDs, got %q", o.ID)
		}
		seen[o.ID] = true
	}
	if st.Pattern != PatternCircle {
		t.Errorf("Expected circle as the default pattern, got %s", st.Pattern)
	}
}
