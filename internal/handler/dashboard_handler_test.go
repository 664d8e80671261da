package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/portal-cidadao-api/internal/middleware"
	"github.com/noah-isme/portal-cidadao-api/internal/models"
	appErrors "github.com/noah-isme/portal-cidadao-api/pkg/errors"
)

type fakeDashboardSrv struct {
	stats *models.DashboardStats
	hit   bool
	err   error
}

func (f *fakeDashboardSrv) Stats(context.Context) (*models.DashboardStats, bool, error) {
	return f.stats, f.hit, f.err
}

func TestDashboardHandlerStatsSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewDashboardHandler(&fakeDashboardSrv{
		stats: &models.DashboardStats{TotalDemandas: 7, DemandasAbertas: 3},
		hit:   true,
	})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/dashboard/stats", nil)
	c.Set(middleware.ContextSessionKey, &models.SessionUser{ID: "a1", Role: models.RoleAdmin})

	handler.Stats(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope responseEnvelope
	_ = json.Unmarshal(rec.Body.Bytes(), &envelope)
	assert.Equal(t, true, envelope.Meta["cache_hit"])
	assert.Equal(t, "admin", envelope.Meta["role"])
	assert.Equal(t, float64(7), envelope.Data["total_demandas"])
}

func TestDashboardHandlerStatsFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewDashboardHandler(&fakeDashboardSrv{err: appErrors.Internal(errors.New("db down"), "failed to load dashboard totals")})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/dashboard/stats", nil)

	handler.Stats(c)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

type responseEnvelope struct {
	Data  map[string]interface{} `json:"data"`
	Error map[string]interface{} `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

func newTestContext(method, target string, body io.Reader) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(method, target, body)
	if body != nil {
		c.Request.Header.Set("Content-Type", "application/json")
	}
	return c, rec
}

func withIdentity(c *gin.Context, userID string) {
	claims := &models.AccessClaims{Email: userID + "@example.com"}
	claims.Subject = userID
	c.Set(middleware.ContextUserKey, claims)
}

func jsonBody(raw string) io.Reader {
	return strings.NewReader(raw)
}

func ginParam(key, value string) gin.Param {
	return gin.Param{Key: key, Value: value}
}
