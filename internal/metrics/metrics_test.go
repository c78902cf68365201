package metrics_test

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newscheck/backend/internal/metrics"
)

func TestObserveClassification(t *testing.T) {
	m := metrics.New()

	m.ObserveClassification("FAKE", "model")
	m.ObserveClassification("FAKE", "model")
	m.ObserveClassification("REAL", "heuristic")

	count, err := testutil.GatherAndCount(m.Registry(), "newscheck_classifications_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := metrics.New()
	m.ObserveAnalysis("text", "ok", 20*time.Millisecond)
	m.IncFetchErrors()
	m.SetModelState(1)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	text := string(body)
	assert.Contains(t, text, `newscheck_analyses_total{kind="text",outcome="ok"} 1`)
	assert.Contains(t, text, "newscheck_fetch_errors_total 1")
	assert.Contains(t, text, "newscheck_model_state 1")
	assert.Contains(t, text, "newscheck_analyze_duration_seconds_bucket")
}

func TestInstancesAreIndependent(t *testing.T) {
	a := metrics.New()
	b := metrics.New()
	a.IncFetchErrors()

	rec := httptest.NewRecorder()
	b.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "newscheck_fetch_errors_total 0")
}
