package game

import "math"

// WeaponHeat is the weapon's thermal load. Shots add heat, passive cooling
// removes it after a quiet period, and a shot that would exceed Max is
// refused.
type WeaponHeat struct {
	current       float64
	max           float64
	heatPerShot   float64
	coolDownRate  float64 // units per second
	overheatDelay float64 // seconds since the last shot before cooling starts

	overheated bool
	sinceShot  float64
}

// NewWeaponHeat creates an empty heat pool
func NewWeaponHeat(max, heatPerShot, coolDownRate, overheatDelay float64) *WeaponHeat {
	return &WeaponHeat{
		max:           max,
		heatPerShot:   heatPerShot,
		coolDownRate:  coolDownRate,
		overheatDelay: overheatDelay,
	}
}

// Tick advances the cooldown-eligibility timer.
func (h *WeaponHeat) Tick(dt float64) {
	h.sinceShot += dt
}

// Admit reports whether one more shot fits under Max. A refusal marks the
// weapon overheated; an accepted shot never does.
func (h *WeaponHeat) Admit() bool {
	if h.current+h.heatPerShot > h.max {
		h.overheated = true
		return false
	}
	return true
}

// Commit books the heat of a shot that was actually fired.
func (h *WeaponHeat) Commit() {
	h.current = math.Min(h.max, h.current+h.heatPerShot)
	h.sinceShot = 0
}

// Cool decays heat once the weapon has been quiet for overheatDelay. The
// overheated flag clears in the same quiet period as soon as heat is below
// Max; it does not wait for heat to reach zero.
func (h *WeaponHeat) Cool(dt float64) {
	if h.sinceShot < h.overheatDelay {
		return
	}
	if h.current > 0 {
		h.current = math.Max(0, h.current-h.coolDownRate*dt)
	}
	if h.overheated && h.current < h.max {
		h.overheated = false
	}
}

func (h *WeaponHeat) Current() float64 { return h.current }
func (h *WeaponHeat) Max() float64     { return h.max }
func (h *WeaponHeat) Overheated() bool { return h.overheated }

// Fraction returns current/max, or 0 for a zero-capacity pool.
func (h *WeaponHeat) Fraction() float64 {
	if h.max <= 0 {
		return 0
	}
	return h.current / h.max
}
