package bot

import (
	"math/rand"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lab1702/arena-bot/game"
)

// Agent is one bot vehicle's decision-and-control state. It is owned by a
// single frame loop and is not safe for concurrent use.
type Agent struct {
	id     string
	tuning game.Tuning
	deps   Deps
	logger *log.Logger
	rng    *rand.Rand

	mode         game.Mode
	patrolTarget game.Vec3
	circleTimer  float64
	evadeTimer   float64
	fireTimer    float64

	boost   *game.BoostPool
	heat    *game.WeaponHeat
	exhaust bool // boost requested with fuel in the pool this frame

	// Last sighting, used to keep evading after the threat drops out of view.
	lastTarget    Target
	hasLastTarget bool

	target         Target
	targetVisible  bool
	targetDistance float64

	frame        uint64
	shotsFired   int
	shotsRefused int
	transitions  int
}

// Option customises an Agent at construction.
type Option func(*Agent)

// WithLogger routes agent logs to l.
func WithLogger(l *log.Logger) Option {
	return func(a *Agent) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithRand supplies the random source for patrol targets and break-off
// spread. Tests pass a fixed seed.
func WithRand(r *rand.Rand) Option {
	return func(a *Agent) {
		if r != nil {
			a.rng = r
		}
	}
}

// New spawns an agent: boost full, heat empty, patrolling toward a fresh
// patrol target.
func New(id string, tuning game.Tuning, deps Deps, opts ...Option) *Agent {
	a := &Agent{
		id:     id,
		tuning: tuning,
		deps:   deps,
		logger: log.Default(),
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		mode:   game.ModePatrol,
		boost: game.NewBoostPool(tuning.BoostMax, tuning.BoostDrainRate,
			tuning.BoostRechargeRate, tuning.BoostRechargeDelay),
		heat: game.NewWeaponHeat(tuning.MaxHeat, tuning.HeatPerShot,
			tuning.CoolDownRate, tuning.OverheatDelay),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.With("agent", id)
	if tuning.VerboseLogging {
		a.logger.SetLevel(log.DebugLevel)
	}
	if deps.Body != nil {
		a.newPatrolTarget(deps.Body.Position())
	}
	return a
}

// Update runs one simulation frame of dt seconds. The stage order is fixed
// because later stages read decisions made earlier in the same frame.
func (a *Agent) Update(dt float64) {
	body := a.deps.Body
	if body == nil || dt < 0 {
		return
	}
	a.frame++

	// Resource timers
	a.fireTimer += dt
	a.heat.Tick(dt)

	damaged := a.deps.Damage != nil && a.deps.Damage.DamageDetected()

	// Perception
	a.target, a.targetVisible = a.FindVisibleTarget()
	a.targetDistance = 0
	if a.targetVisible {
		a.lastTarget = a.target
		a.hasLastTarget = true
		a.targetDistance = game.FlatDistance(body.Position(), a.target.Position)
	}

	a.transition(damaged)

	steer := a.behave(dt)
	a.actuate(steer, dt)
	if a.mode == game.ModeAttack && a.targetVisible {
		a.applyAttention(a.target.Position, dt)
	}

	// Passive recovery
	a.boost.Recharge(dt)
	a.heat.Cool(dt)

	if a.deps.Effects != nil {
		a.deps.Effects.SetBoostEffect(a.exhaust)
	}
}

// setBoost is the per-frame boost request of the active mode.
func (a *Agent) setBoost(on bool, dt float64) {
	hadFuel := a.boost.Current() > 0
	a.boost.Set(on, dt)
	a.exhaust = on && hadFuel
}

func (a *Agent) ID() string           { return a.id }
func (a *Agent) Mode() game.Mode      { return a.mode }
func (a *Agent) Tuning() game.Tuning  { return a.tuning }
func (a *Agent) Boosting() bool       { return a.exhaust }
func (a *Agent) Heat() float64        { return a.heat.Current() }
func (a *Agent) Overheated() bool     { return a.heat.Overheated() }
func (a *Agent) Boost() float64       { return a.boost.Current() }
func (a *Agent) CircleTimer() float64 { return a.circleTimer }
func (a *Agent) EvadeTimer() float64  { return a.evadeTimer }
func (a *Agent) Transitions() int     { return a.transitions }

// PatrolTarget returns the waypoint the agent patrols toward.
func (a *Agent) PatrolTarget() game.Vec3 { return a.patrolTarget }

// Snapshot captures the agent's externally visible state.
func (a *Agent) Snapshot() Snapshot {
	s := Snapshot{
		ID:            a.id,
		Frame:         a.frame,
		Mode:          a.mode,
		PatrolTarget:  a.patrolTarget,
		CircleTimer:   a.circleTimer,
		EvadeTimer:    a.evadeTimer,
		Boost:         a.boost.Current(),
		BoostMax:      a.boost.Max(),
		Boosting:      a.exhaust,
		BoostFraction: a.boost.Fraction(),
		BoostStarved:  a.boost.Active() && !a.boost.Boosting(),
		RechargeDelay: a.boost.RechargePending(),
		Heat:          a.heat.Current(),
		HeatMax:       a.heat.Max(),
		HeatFraction:  a.heat.Fraction(),
		Overheated:    a.heat.Overheated(),
		ShotsFired:    a.shotsFired,
		ShotsRefused:  a.shotsRefused,
	}
	if a.deps.Body != nil {
		s.Position = a.deps.Body.Position()
		s.Orientation = a.deps.Body.Orientation()
	}
	if a.targetVisible {
		s.TargetID = a.target.ID
		s.TargetDistance = a.targetDistance
	}
	return s
}
