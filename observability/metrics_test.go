package observability_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/actus/observability"
)

func TestMetrics_Record(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg, "")

	m.ObserveSimulation("PAM", "ok", time.Millisecond)
	m.ObserveSimulation("PAM", "ok", time.Millisecond)
	m.ObserveUnhandled("PAM", "DV")
	m.ObserveQuery("save_history", time.Millisecond, errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.SimulationsTotal.WithLabelValues("PAM", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UnhandledEvents.WithLabelValues("PAM", "DV")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreQueryErrors.WithLabelValues("save_history")))

	rec := httptest.NewRecorder()
	observability.Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "actus_engine_simulations_total")
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *observability.Metrics
	assert.NotPanics(t, func() {
		m.ObserveSimulation("PAM", "ok", time.Second)
		m.ObserveEvent("IP")
		m.ObserveBatch(3, time.Second)
		m.ObserveQuery("x", time.Second, nil)
	})
}
