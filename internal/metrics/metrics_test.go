package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveSource(t *testing.T) {
	m := New()
	m.ObserveSource("archive", 120*time.Millisecond, 7, false)
	m.ObserveSource("archive", time.Second, 0, true)

	assert.Equal(t, 7.0, testutil.ToFloat64(m.sourceResults.WithLabelValues("archive")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sourceFailures.WithLabelValues("archive")))
}

func TestHandlerExposesInstruments(t *testing.T) {
	m := New()
	m.ObserveSearch(2*time.Second, 12)
	m.ObserveSource("google", time.Second, 10, false)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "docsearch_search_duration_seconds")
	assert.Contains(t, string(body), `docsearch_source_results_total{source="google"} 10`)
}
