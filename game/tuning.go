package game

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrInvalidTuning marks a tuning value that cannot drive a bot.
var ErrInvalidTuning = errors.New("invalid tuning")

// AllLayers is a visibility mask that sees every obstruction layer
const AllLayers = ^uint32(0)

// Tuning is the static per-agent configuration. Distances are world units,
// speeds units per second, rotation rates degrees per second and durations
// seconds.
type Tuning struct {
	// Speeds
	BaseSpeed     float64 `yaml:"base_speed" json:"base_speed" jsonschema:"description=Cruise speed used by patrol and attack"`
	BoostSpeed    float64 `yaml:"boost_speed" json:"boost_speed" jsonschema:"description=Chase speed while boost has fuel"`
	RotationSpeed float64 `yaml:"rotation_speed" json:"rotation_speed" jsonschema:"description=Primary turn rate in degrees per second"`
	EvadeSpeed    float64 `yaml:"evade_speed" json:"evade_speed"`
	BreakOffSpeed float64 `yaml:"break_off_speed" json:"break_off_speed"`

	// Ranges
	DetectionRange     float64 `yaml:"detection_range" json:"detection_range" jsonschema:"description=Maximum sensor distance"`
	ChaseRange         float64 `yaml:"chase_range" json:"chase_range"`
	DesiredAttackRange float64 `yaml:"desired_attack_range" json:"desired_attack_range" jsonschema:"description=Orbit radius of the circle-strafe"`
	BreakOffRange      float64 `yaml:"break_off_range" json:"break_off_range"`

	// Attack strafing
	CircleDuration float64 `yaml:"circle_duration" json:"circle_duration" jsonschema:"description=Seconds per circle-strafe lap before breaking off"`

	// Boost
	BoostMax           float64 `yaml:"boost_max" json:"boost_max"`
	BoostDrainRate     float64 `yaml:"boost_drain_rate" json:"boost_drain_rate"`
	BoostRechargeRate  float64 `yaml:"boost_recharge_rate" json:"boost_recharge_rate"`
	BoostRechargeDelay float64 `yaml:"boost_recharge_delay" json:"boost_recharge_delay"`

	// Weapon and overheat
	FireRate         float64 `yaml:"fire_rate" json:"fire_rate" jsonschema:"description=Minimum seconds between fire attempts"`
	ProjectileSpeed  float64 `yaml:"projectile_speed" json:"projectile_speed"`
	ProjectileOffset float64 `yaml:"projectile_offset" json:"projectile_offset" jsonschema:"description=Forward spawn offset from the muzzle"`
	ProjectileMass   float64 `yaml:"projectile_mass" json:"projectile_mass"`
	HeatPerShot      float64 `yaml:"heat_per_shot" json:"heat_per_shot"`
	MaxHeat          float64 `yaml:"max_heat" json:"max_heat"`
	CoolDownRate     float64 `yaml:"cool_down_rate" json:"cool_down_rate"`
	OverheatDelay    float64 `yaml:"overheat_delay" json:"overheat_delay"`

	// Evade
	EvadeDuration      float64 `yaml:"evade_duration" json:"evade_duration"`
	EvadeRotationSpeed float64 `yaml:"evade_rotation_speed" json:"evade_rotation_speed"`

	// Patrol
	PatrolRadius    float64 `yaml:"patrol_radius" json:"patrol_radius"`
	PatrolThreshold float64 `yaml:"patrol_threshold" json:"patrol_threshold"`

	// AttentionRotationSpeed is the extra turn rate toward the target while
	// attacking. Zero disables attention.
	AttentionRotationSpeed float64 `yaml:"attention_rotation_speed" json:"attention_rotation_speed"`

	MinSeparationDistance float64 `yaml:"min_separation_distance" json:"min_separation_distance" jsonschema:"description=Distance below which the bot backs away to avoid ramming"`

	// Hysteresis and visibility
	RangeTolerance float64 `yaml:"range_tolerance" json:"range_tolerance" jsonschema:"description=Band added or subtracted at range thresholds to avoid mode jitter"`
	VisibilityMask uint32  `yaml:"visibility_mask" json:"visibility_mask" jsonschema:"description=Obstruction layers considered by line-of-sight queries"`

	VerboseLogging bool `yaml:"verbose_logging" json:"verbose_logging"`
}

// DefaultTuning returns the stock fighter configuration.
func DefaultTuning() Tuning {
	return Tuning{
		BaseSpeed:     20,
		BoostSpeed:    60,
		RotationSpeed: 180,
		EvadeSpeed:    40,
		BreakOffSpeed: 30,

		DetectionRange:     200,
		ChaseRange:         120,
		DesiredAttackRange: 80,
		BreakOffRange:      150,

		CircleDuration: 6,

		BoostMax:           100,
		BoostDrainRate:     40,
		BoostRechargeRate:  30,
		BoostRechargeDelay: 1,

		FireRate:         0.3,
		ProjectileSpeed:  800,
		ProjectileOffset: 2,
		ProjectileMass:   0.1,
		HeatPerShot:      15,
		MaxHeat:          100,
		CoolDownRate:     20,
		OverheatDelay:    0.5,

		EvadeDuration:      2,
		EvadeRotationSpeed: 180,

		PatrolRadius:    50,
		PatrolThreshold: 5,

		AttentionRotationSpeed: 120,
		MinSeparationDistance:  25,

		RangeTolerance: 5,
		VisibilityMask: AllLayers,
	}
}

// Validate reports every field that would break the bot's invariants.
func (t Tuning) Validate() error {
	var errs []error
	positive := func(name string, v float64) {
		if !(v > 0) {
			errs = append(errs, fmt.Errorf("%w: %s must be > 0, got %v", ErrInvalidTuning, name, v))
		}
	}
	nonNegative := func(name string, v float64) {
		if !(v >= 0) {
			errs = append(errs, fmt.Errorf("%w: %s must be >= 0, got %v", ErrInvalidTuning, name, v))
		}
	}

	nonNegative("base_speed", t.BaseSpeed)
	nonNegative("boost_speed", t.BoostSpeed)
	positive("rotation_speed", t.RotationSpeed)
	nonNegative("evade_speed", t.EvadeSpeed)
	nonNegative("break_off_speed", t.BreakOffSpeed)

	positive("detection_range", t.DetectionRange)
	positive("chase_range", t.ChaseRange)
	positive("desired_attack_range", t.DesiredAttackRange)
	positive("break_off_range", t.BreakOffRange)
	positive("circle_duration", t.CircleDuration)

	positive("boost_max", t.BoostMax)
	nonNegative("boost_drain_rate", t.BoostDrainRate)
	nonNegative("boost_recharge_rate", t.BoostRechargeRate)
	nonNegative("boost_recharge_delay", t.BoostRechargeDelay)

	nonNegative("fire_rate", t.FireRate)
	positive("projectile_speed", t.ProjectileSpeed)
	nonNegative("projectile_offset", t.ProjectileOffset)
	nonNegative("projectile_mass", t.ProjectileMass)
	nonNegative("heat_per_shot", t.HeatPerShot)
	positive("max_heat", t.MaxHeat)
	nonNegative("cool_down_rate", t.CoolDownRate)
	nonNegative("overheat_delay", t.OverheatDelay)

	nonNegative("evade_duration", t.EvadeDuration)
	positive("evade_rotation_speed", t.EvadeRotationSpeed)
	nonNegative("patrol_radius", t.PatrolRadius)
	nonNegative("patrol_threshold", t.PatrolThreshold)
	nonNegative("attention_rotation_speed", t.AttentionRotationSpeed)
	nonNegative("min_separation_distance", t.MinSeparationDistance)
	nonNegative("range_tolerance", t.RangeTolerance)

	if t.HeatPerShot > t.MaxHeat {
		errs = append(errs, fmt.Errorf("%w: heat_per_shot (%v) exceeds max_heat (%v), the weapon could never fire",
			ErrInvalidTuning, t.HeatPerShot, t.MaxHeat))
	}
	if t.ChaseRange > t.DetectionRange {
		errs = append(errs, fmt.Errorf("%w: chase_range (%v) exceeds detection_range (%v)",
			ErrInvalidTuning, t.ChaseRange, t.DetectionRange))
	}
	if t.DesiredAttackRange > t.ChaseRange {
		errs = append(errs, fmt.Errorf("%w: desired_attack_range (%v) exceeds chase_range (%v)",
			ErrInvalidTuning, t.DesiredAttackRange, t.ChaseRange))
	}

	return errors.Join(errs...)
}

// ParseTuning decodes YAML on top of the defaults, so a file only needs the
// fields it changes.
func ParseTuning(data []byte) (Tuning, error) {
	t := DefaultTuning()
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Tuning{}, fmt.Errorf("decode tuning: %w", err)
	}
	if err := t.Validate(); err != nil {
		return Tuning{}, err
	}
	return t, nil
}

// LoadTuning reads and validates a YAML tuning file.
func LoadTuning(path string) (Tuning, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Tuning{}, fmt.Errorf("read tuning %s: %w", path, err)
	}
	t, err := ParseTuning(data)
	if err != nil {
		return Tuning{}, fmt.Errorf("load tuning %s: %w", path, err)
	}
	return t, nil
}
