package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics(t *testing.T) {
	t.Run("registers every collector", func(t *testing.T) {
		registry := prometheus.NewRegistry()
		m := NewMetrics(registry)
		require.NotNil(t, m)

		m.HTTPRequestsTotal.WithLabelValues("GET", "/api/theaters", "200").Inc()
		m.HTTPRequestDuration.WithLabelValues("GET", "/api/theaters").Observe(0.01)
		m.TheaterMutationsTotal.WithLabelValues("create", OutcomeSuccess).Inc()
		m.LoginAttemptsTotal.WithLabelValues(OutcomeInvalid).Inc()
		m.CacheLookupsTotal.WithLabelValues("hit").Inc()

		families, err := registry.Gather()
		require.NoError(t, err)
		assert.Len(t, families, 5)
	})

	t.Run("panics on duplicate registration", func(t *testing.T) {
		registry := prometheus.NewRegistry()
		NewMetrics(registry)
		assert.Panics(t, func() { NewMetrics(registry) })
	})
}

func TestMetrics_TheaterMutations(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.TheaterMutationsTotal.WithLabelValues("delete", OutcomeForbidden).Inc()
	m.TheaterMutationsTotal.WithLabelValues("delete", OutcomeForbidden).Inc()

	expected := `
		# HELP theater_mutations_total Theater create/update/delete attempts by outcome
		# TYPE theater_mutations_total counter
		theater_mutations_total{operation="delete",outcome="forbidden"} 2
	`
	assert.NoError(t, testutil.CollectAndCompare(m.TheaterMutationsTotal, strings.NewReader(expected)))
}

func TestHandler(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)
	m.LoginAttemptsTotal.WithLabelValues(OutcomeSuccess).Inc()

	rec := httptest.NewRecorder()
	Handler(registry).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), `theater_login_attempts_total{outcome="success"} 1`)
}
