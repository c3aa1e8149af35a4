package server

// Health is a ship's hit-point ledger. A destroyed ship ignores further
// damage and repairs until it is reset.
type Health struct {
	current float64
	max     float64

	sinceHit float64 // seconds since the last damage, drives repair kits
	onDeath  func()
}

// NewHealth creates a full ledger.
func NewHealth(max float64) *Health {
	return &Health{current: max, max: max}
}

// OnDeath registers a callback fired once when health reaches zero.
func (h *Health) OnDeath(fn func()) {
	h.onDeath = fn
}

// TakeDamage subtracts amount, floored at zero. It reports whether this
// call destroyed the ship.
func (h *Health) TakeDamage(amount float64) bool {
	if amount <= 0 || h.current <= 0 {
		return false
	}
	h.current -= amount
	if h.current < 0 {
		h.current = 0
	}
	h.sinceHit = 0
	if h.current == 0 {
		if h.onDeath != nil {
			h.onDeath()
		}
		return true
	}
	return false
}

// UseRepairKit restores up to amount, capped at max. Destroyed ships cannot
// be repaired.
func (h *Health) UseRepairKit(amount float64) {
	if amount <= 0 || h.current <= 0 {
		return
	}
	h.current += amount
	if h.current > h.max {
		h.current = h.max
	}
}

// Reset restores a full ledger for respawn.
func (h *Health) Reset() {
	h.current = h.max
	h.sinceHit = 0
}

func (h *Health) Current() float64 { return h.current }
func (h *Health) Max() float64     { return h.max }
func (h *Health) Destroyed() bool  { return h.current <= 0 }

// HealthMonitor turns a ledger into the bot's damage signal: it reports
// true once for each frame in which health dropped below the previous
// frame's sample.
type HealthMonitor struct {
	health *Health
	last   float64
}

// NewHealthMonitor samples the ledger's current value as the baseline.
func NewHealthMonitor(h *Health) *HealthMonitor {
	return &HealthMonitor{health: h, last: h.Current()}
}

func (m *HealthMonitor) DamageDetected() bool {
	cur := m.health.Current()
	damaged := cur < m.last
	m.last = cur
	return damaged
}

// Rebase forgets pending damage, used after a respawn refills the ledger.
func (m *HealthMonitor) Rebase() {
	m.last = m.health.Current()
}
