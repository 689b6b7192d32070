package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveUpstream(200, time.Second)
	m.ObserveScreen(nil, 10, 2, time.Second)
	m.ObserveCache(true)
	assert.NotNil(t, m.Handler())
}

func TestMetrics_Observe(t *testing.T) {
	m := New("test")

	m.ObserveUpstream(200, 10*time.Millisecond)
	m.ObserveUpstream(200, 10*time.Millisecond)
	m.ObserveUpstream(0, time.Millisecond)
	m.ObserveScreen(nil, 500, 3, time.Second)
	m.ObserveScreen(errors.New("boom"), 0, 0, time.Second)
	m.ObserveCache(true)
	m.ObserveCache(false)
	m.ObserveCache(false)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.UpstreamRequests.WithLabelValues("200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UpstreamRequests.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ScreensTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ScreensTotal.WithLabelValues("error")))
	assert.Equal(t, 500.0, testutil.ToFloat64(m.CoinsScanned))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.CoinsMatched))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("miss")))
}

func TestMetrics_Handler(t *testing.T) {
	m := New("test")
	m.ObserveCache(true)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `test_cache_lookups_total{result="hit"} 1`)
}
