package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsPoints(t *testing.T) {
	a := newTestArena()
	a.AddPilot()
	b, err := a.AddBot()
	require.NoError(t, err)
	a.Step(FrameDT)

	m, err := NewMetrics(MetricsConfig{}, quietLogger())
	require.NoError(t, err)
	assert.False(t, m.Enabled())

	points, err := m.Points(a.State(), time.Unix(0, 0))
	require.NoError(t, err)
	require.Len(t, points, 2, "one arena point plus one per bot")

	assert.Equal(t, "arena", points[0].Name())
	assert.Equal(t, "arena-bot", points[0].Tags()["app"])
	assert.Equal(t, string(PatternCircle), points[0].Tags()["pattern"])

	bp := points[1]
	assert.Equal(t, "bot", bp.Name())
	assert.Equal(t, b.Name, bp.Tags()["bot"])
	assert.Equal(t, b.agent.Mode().String(), bp.Tags()["mode"])

	fields, err := bp.Fields()
	require.NoError(t, err)
	assert.Equal(t, ShipMaxHealth, fields["health"])
	assert.Equal(t, false, fields["overheated"])
	assert.Contains(t, fields, "boost")
	assert.Contains(t, fields, "heat")
	assert.InDelta(t, b.agent.Snapshot().BoostFraction, fields["boost_frac"], 1e-9)
	assert.InDelta(t, b.agent.Snapshot().HeatFraction, fields["heat_frac"], 1e-9)
}

func TestMetricsWriteDisabled(t *testing.T) {
	m, err := NewMetrics(MetricsConfig{App: "test"}, quietLogger())
	require.NoError(t, err)
	assert.NoError(t, m.Write(context.Background(), newTestArena().State()))
	assert.NoError(t, m.Close())
}

func TestMetricsBadAddress(t *testing.T) {
	_, err := NewMetrics(MetricsConfig{Addr: "://nope"}, quietLogger())
	assert.Error(t, err)
}

func TestMetricsWriteRetries(t *testing.T) {
	var calls atomic.Int32
	influx := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/write" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer influx.Close()

	m, err := NewMetrics(MetricsConfig{Addr: influx.URL, Database: "arena"}, quietLogger())
	require.NoError(t, err)
	defer m.Close()
	require.True(t, m.Enabled())

	a := newTestArena()
	a.AddBot()
	require.NoError(t, m.Write(context.Background(), a.State()))
	assert.Equal(t, int32(2), calls.Load(), "one failed attempt then success")
}

func TestMetricsWriteGivesUp(t *testing.T) {
	var calls atomic.Int32
	influx := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer influx.Close()

	m, err := NewMetrics(MetricsConfig{Addr: influx.URL, Database: "arena"}, quietLogger())
	require.NoError(t, err)
	defer m.Close()

	err = m.Write(context.Background(), newTestArena().State())
	assert.Error(t, err)
	assert.Equal(t, int32(metricsRetries+1), calls.Load())
}
