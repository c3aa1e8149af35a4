package server

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/charmbracelet/log"
	client "github.com/influxdata/influxdb1-client/v2"
)

const (
	// MetricsInterval is how often arena metrics are written.
	MetricsInterval = 5 * time.Second

	metricsRetries      = 3
	metricsRetryInitial = 100 * time.Millisecond
)

// MetricsConfig points the metrics writer at an InfluxDB database. An
// empty Addr disables writing; points are then only logged at Debug.
type MetricsConfig struct {
	Addr     string
	Database string
	App      string
}

// Metrics writes per-bot resource and mode samples plus arena totals.
type Metrics struct {
	influx client.Client // nil when disabled
	db     string
	app    string
	logger *log.Logger
}

// NewMetrics connects to InfluxDB when an address is configured.
func NewMetrics(cfg MetricsConfig, logger *log.Logger) (*Metrics, error) {
	if logger == nil {
		logger = log.Default()
	}
	m := &Metrics{db: cfg.Database, app: cfg.App, logger: logger}
	if m.app == "" {
		m.app = "arena-bot"
	}
	if cfg.Addr == "" {
		logger.Debug("metrics disabled, no influxdb address configured")
		return m, nil
	}

	c, err := client.NewHTTPClient(client.HTTPConfig{Addr: cfg.Addr, Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("influxdb client: %w", err)
	}
	m.influx = c
	logger.Info("influxdb reporting enabled", "addr", cfg.Addr, "db", cfg.Database)
	return m, nil
}

// Enabled reports whether points go to a database.
func (m *Metrics) Enabled() bool { return m.influx != nil }

// Points converts an arena snapshot into InfluxDB points.
func (m *Metrics) Points(st ArenaState, at time.Time) ([]*client.Point, error) {
	points := make([]*client.Point, 0, len(st.Ships)+1)

	pt, err := client.NewPoint("arena",
		map[string]string{"app": m.app, "pattern": string(st.Pattern)},
		map[string]interface{}{
			"frame":          int64(st.Frame),
			"ships":          len(st.Ships),
			"projectiles":    len(st.Projectiles),
			"shots_launched": st.Stats.ShotsLaunched,
			"hits":           st.Stats.Hits,
			"respawns":       st.Stats.Respawns,
		}, at)
	if err != nil {
		return nil, fmt.Errorf("arena point: %w", err)
	}
	points = append(points, pt)

	for _, s := range st.Ships {
		if s.Bot == nil {
			continue
		}
		pt, err := client.NewPoint("bot",
			map[string]string{"app": m.app, "bot": s.Name, "mode": s.Bot.Mode.String()},
			map[string]interface{}{
				"health":        s.Health,
				"boost":         s.Bot.Boost,
				"boost_frac":    s.Bot.BoostFraction,
				"heat":          s.Bot.Heat,
				"heat_frac":     s.Bot.HeatFraction,
				"overheated":    s.Bot.Overheated,
				"boosting":      s.Bot.Boosting,
				"shots_fired":   s.Bot.ShotsFired,
				"shots_refused": s.Bot.ShotsRefused,
				"kills":         s.Kills,
				"deaths":        s.Deaths,
			}, at)
		if err != nil {
			return nil, fmt.Errorf("bot point %s: %w", s.Name, err)
		}
		points = append(points, pt)
	}
	return points, nil
}

// Write sends one snapshot as a batch, retrying transient failures with
// exponential backoff until ctx ends.
func (m *Metrics) Write(ctx context.Context, st ArenaState) error {
	points, err := m.Points(st, time.Now())
	if err != nil {
		return err
	}
	if m.influx == nil {
		m.logger.Debug("metrics sample", "frame", st.Frame, "points", len(points))
		return nil
	}

	bp, err := client.NewBatchPoints(client.BatchPointsConfig{Database: m.db, Precision: "ms"})
	if err != nil {
		return fmt.Errorf("batch points: %w", err)
	}
	bp.AddPoints(points)

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = metricsRetryInitial
	policy.MaxElapsedTime = MetricsInterval
	attempt := 0
	err = backoff.Retry(func() error {
		attempt++
		if err := m.influx.Write(bp); err != nil {
			m.logger.Debug("metrics write attempt failed", "attempt", attempt, "err", err)
			return err
		}
		return nil
	}, backoff.WithContext(backoff.WithMaxRetries(policy, metricsRetries), ctx))
	if err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}

// Close releases the database client.
func (m *Metrics) Close() error {
	if m.influx == nil {
		return nil
	}
	return m.influx.Close()
}

// RunMetrics samples the arena every MetricsInterval until ctx ends.
// Write failures are logged and do not stop the loop.
func (s *Server) RunMetrics(ctx context.Context, m *Metrics) error {
	ticker := time.NewTicker(MetricsInterval)
	defer ticker.Stop()
	defer m.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.done:
			return nil
		case <-ticker.C:
			s.arenaMu.Lock()
			st := s.arena.State()
			s.arenaMu.Unlock()
			if err := m.Write(ctx, st); err != nil {
				s.logger.Warn("metrics write failed", "err", err)
			}
		}
	}
}
