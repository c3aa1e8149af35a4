package game

import "math"

// BoostPool is the consumable speed-boost resource. It drains while active
// and refills only after RechargeDelay seconds of inactivity.
type BoostPool struct {
	current       float64
	max           float64
	drainRate     float64 // units per second while active
	rechargeRate  float64 // units per second once the delay has expired
	rechargeDelay float64 // seconds after deactivation before recharge starts

	active        bool
	rechargeTimer float64 // countdown to recharge, armed on deactivation
}

// NewBoostPool creates a full, inactive pool
func NewBoostPool(max, drainRate, rechargeRate, rechargeDelay float64) *BoostPool {
	return &BoostPool{
		current:       max,
		max:           max,
		drainRate:     drainRate,
		rechargeRate:  rechargeRate,
		rechargeDelay: rechargeDelay,
	}
}

// Set records this frame's boost request and drains the pool when active.
// Draining to zero is a floor; a later activation drains again immediately
// once anything has been recharged.
func (b *BoostPool) Set(active bool, dt float64) {
	if !active && b.active {
		b.rechargeTimer = b.rechargeDelay
	}
	b.active = active

	if b.active && b.current > 0 {
		b.current = math.Max(0, b.current-b.drainRate*dt)
	}
}

// Recharge refills an inactive pool once the recharge delay has run out.
func (b *BoostPool) Recharge(dt float64) {
	if b.active {
		return
	}
	b.rechargeTimer -= dt
	if b.rechargeTimer <= 0 && b.current < b.max {
		b.current = math.Min(b.max, b.current+b.rechargeRate*dt)
	}
}

func (b *BoostPool) Current() float64 { return b.current }
func (b *BoostPool) Max() float64     { return b.max }
func (b *BoostPool) Active() bool     { return b.active }

// Boosting reports whether the boost request actually has fuel behind it.
func (b *BoostPool) Boosting() bool {
	return b.active && b.current > 0
}

// Fraction returns current/max, or 0 for a zero-capacity pool.
func (b *BoostPool) Fraction() float64 {
	if b.max <= 0 {
		return 0
	}
	return b.current / b.max
}

// RechargePending reports whether an inactive pool is still waiting out
// its recharge delay.
func (b *BoostPool) RechargePending() bool {
	return !b.active && b.rechargeTimer > 0
}
