package service

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/portal-cidadao-api/internal/models"
)

func TestMetricsServiceCounters(t *testing.T) {
	m := NewMetricsService()

	m.RecordRoleLookup("is_dev", models.OutcomeIndeterminate)
	m.RecordRoleLookup("is_dev", models.OutcomeIndeterminate)
	m.RecordPurge(false, false, 12, 5)
	m.RecordPhotoBatchFailure()
	m.RecordCacheOperation(true, time.Millisecond)
	m.RecordCacheOperation(false, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.roleLookups.WithLabelValues("is_dev", "indeterminate")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.purgeRuns.WithLabelValues("execute", "ok")))
	assert.Equal(t, 12.0, testutil.ToFloat64(m.purgeDeleted))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.purgePhotos))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.photoBatchFails))
	assert.Equal(t, 0.5, testutil.ToFloat64(m.cacheHitRatio))
}

func TestMetricsServiceHandler(t *testing.T) {
	m := NewMetricsService()
	m.ObserveHTTPRequest(http.MethodGet, "/health", http.StatusOK, 10*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `http_requests_total{method="GET",path="/health",status="200"} 1`))
}

func TestNilMetricsServiceIsSafe(t *testing.T) {
	var m *MetricsService
	m.RecordPurge(true, false, 0, 0)
	m.RecordRoleLookup("x", models.OutcomeAffirmed)
	m.RecordNotification("sent")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
