package metrics_test

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"retail-erp/internal/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveBackend(t *testing.T) {
	m := metrics.New()

	m.ObserveBackend("insert_order", 10*time.Millisecond, nil)
	m.ObserveBackend("insert_order", 10*time.Millisecond, errors.New("boom"))
	m.ObserveBackend("insert_order", 10*time.Millisecond, nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.BackendCalls().WithLabelValues("insert_order", metrics.OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BackendCalls().WithLabelValues("insert_order", metrics.OutcomeError)))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *metrics.Metrics
	assert.NotPanics(t, func() {
		m.ObserveHTTP("GET", "/", 200, time.Millisecond)
		m.ObserveBackend("x", time.Millisecond, nil)
	})
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := metrics.New()
	m.ObserveHTTP("GET", "/sales", 200, 5*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `erp_http_requests_total{method="GET",route="/sales",status="200"} 1`)
}
