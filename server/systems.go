package server

// updateShipSystems handles repair and respawn for every ship
func (a *Arena) updateShipSystems(dt float64) {
	for _, s := range a.ships {
		if s.health.Destroyed() {
			a.updateRespawn(s, dt)
			continue
		}
		a.updateRepair(s, dt)
	}
}

// updateRepair uses a repair kit every RepairInterval once the ship has gone
// RepairQuietTime without taking damage.
func (a *Arena) updateRepair(s *Ship, dt float64) {
	h := s.health
	h.sinceHit += dt
	if h.sinceHit < RepairQuietTime || h.Current() >= h.Max() {
		s.repairTimer = 0
		return
	}
	s.repairTimer += dt
	if s.repairTimer >= RepairInterval {
		s.repairTimer = 0
		h.UseRepairKit(RepairAmount)
	}
}

// updateRespawn brings a destroyed ship back at its spawn point after
// RespawnDelay. Bots come back with a fresh agent.
func (a *Arena) updateRespawn(s *Ship, dt float64) {
	s.respawnTimer -= dt
	if s.respawnTimer > 0 {
		return
	}

	s.pos = s.spawn
	s.speed = 0
	s.SetBoostEffect(false)
	s.health.Reset()
	s.monitor.Rebase()
	s.repairTimer = 0
	if s.agent != nil {
		a.spawnAgent(s)
	}
	a.stats.Respawns++
	a.logger.Info("ship respawned", "name", s.Name, "id", s.ID)
}
