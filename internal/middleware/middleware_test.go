package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/portal-cidadao-api/internal/models"
	"github.com/noah-isme/portal-cidadao-api/internal/service"
)

const testSecret = "middleware-test-secret-with-enough-length"

func newAuth() *service.AuthService {
	return service.NewAuthService(service.AuthConfig{Secret: testSecret, Audience: "authenticated"}, nil)
}

func token(t *testing.T, subject string) string {
	t.Helper()
	claims := &models.AccessClaims{
		Email: subject + "@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Audience:  jwt.ClaimStrings{"authenticated"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func perform(r *gin.Engine, method, path, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func echoIdentity(c *gin.Context) {
	identity := CurrentIdentity(c)
	if identity == nil {
		c.String(http.StatusOK, "anonymous")
		return
	}
	c.String(http.StatusOK, identity.UserID)
}

func TestJWTRequiresBearerToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/private", JWT(newAuth()), echoIdentity)

	assert.Equal(t, http.StatusUnauthorized, perform(r, http.MethodGet, "/private", "").Code)
	assert.Equal(t, http.StatusUnauthorized, perform(r, http.MethodGet, "/private", "Basic abc").Code)
	assert.Equal(t, http.StatusUnauthorized, perform(r, http.MethodGet, "/private", "Bearer nope").Code)

	rec := perform(r, http.MethodGet, "/private", "Bearer "+token(t, "user-1"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-1", rec.Body.String())
}

func TestOptionalJWTNeverBlocks(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/public", OptionalJWT(newAuth()), echoIdentity)

	assert.Equal(t, "anonymous", perform(r, http.MethodGet, "/public", "").Body.String())
	assert.Equal(t, "anonymous", perform(r, http.MethodGet, "/public", "Bearer broken").Body.String())
	assert.Equal(t, "user-2", perform(r, http.MethodGet, "/public", "Bearer "+token(t, "user-2")).Body.String())
}

type fixedSessions map[string]models.Role

func (f fixedSessions) Current(_ context.Context, identity *models.Identity) *models.SessionUser {
	role, ok := f[identity.UserID]
	if !ok {
		return nil
	}
	return &models.SessionUser{ID: identity.UserID, Role: role}
}

func TestRequireAdmin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sessions := fixedSessions{"admin-1": models.RoleAdmin, "dev-1": models.RoleDev, "user-1": models.RoleUser}
	r := gin.New()
	r.GET("/admin", JWT(newAuth()), RequireAdmin(sessions), func(c *gin.Context) {
		user := c.MustGet(ContextSessionKey).(*models.SessionUser)
		c.String(http.StatusOK, string(user.Role))
	})
	r.GET("/unguarded", RequireAdmin(sessions), echoIdentity)

	assert.Equal(t, "admin", perform(r, http.MethodGet, "/admin", "Bearer "+token(t, "admin-1")).Body.String())
	assert.Equal(t, "dev", perform(r, http.MethodGet, "/admin", "Bearer "+token(t, "dev-1")).Body.String())
	assert.Equal(t, http.StatusForbidden, perform(r, http.MethodGet, "/admin", "Bearer "+token(t, "user-1")).Code)
	assert.Equal(t, http.StatusForbidden, perform(r, http.MethodGet, "/admin", "Bearer "+token(t, "ghost")).Code)
	assert.Equal(t, http.StatusUnauthorized, perform(r, http.MethodGet, "/unguarded", "").Code)
}

type recordingAudit struct {
	entries []*models.AuditLog
}

func (r *recordingAudit) Create(_ context.Context, log *models.AuditLog) error {
	r.entries = append(r.entries, log)
	return nil
}

func TestAuditRecordsSuccessfulRequestsOnly(t *testing.T) {
	gin.SetMode(gin.TestMode)
	writer := &recordingAudit{}
	r := gin.New()
	r.POST("/items/:id", OptionalJWT(newAuth()), Audit(writer, "ITEM_TOUCH", "items"), func(c *gin.Context) {
		if c.Query("fail") != "" {
			c.Status(http.StatusBadRequest)
			return
		}
		c.Status(http.StatusCreated)
	})

	perform(r, http.MethodPost, "/items/42", "Bearer "+token(t, "user-9"))
	perform(r, http.MethodPost, "/items/43?fail=1", "")

	require.Len(t, writer.entries, 1)
	entry := writer.entries[0]
	assert.Equal(t, "ITEM_TOUCH", entry.Action)
	assert.Equal(t, "42", *entry.ResourceID)
	assert.Equal(t, "user-9", *entry.UserID)
	assert.Contains(t, string(entry.NewValues), `"status":201`)
}

func TestMetricsAndResponseMeta(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	r := gin.New()
	r.Use(Metrics(metrics, "/metrics"), WithResponseMeta())
	r.GET("/metrics", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/cached", func(c *gin.Context) {
		SetCacheHit(c, true)
		c.JSON(http.StatusOK, ExtractMeta(c))
	})

	rec := perform(r, http.MethodGet, "/cached", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"cache_hit":true}`, rec.Body.String())
	perform(r, http.MethodGet, "/storage/v1/object/public/fotos/whatever.jpg", "")
	perform(r, http.MethodGet, "/metrics", "")

	scrape := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(scrape, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := scrape.Body.String()
	assert.Contains(t, body, `http_requests_total{method="GET",path="/cached",status="200"} 1`)
	assert.Contains(t, body, `http_requests_total{method="GET",path="unmatched",status="404"} 1`)
	assert.NotContains(t, body, `path="/metrics"`)
}
