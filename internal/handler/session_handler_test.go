package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/portal-cidadao-api/internal/models"
	"github.com/noah-isme/portal-cidadao-api/internal/service"
)

type fixedResolver struct {
	role models.Role
}

func (r fixedResolver) Resolve(_ context.Context, identity *models.Identity) *models.SessionUser {
	if identity == nil {
		return nil
	}
	return &models.SessionUser{ID: identity.UserID, Email: identity.Email, Role: r.role}
}

func TestSessionHandlerCurrent(t *testing.T) {
	handler := NewSessionHandler(service.NewSessionService(fixedResolver{role: models.RoleAdmin}, 0, nil))

	c, rec := newTestContext(http.MethodGet, "/auth/session", nil)
	handler.Current(c)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	c, rec = newTestContext(http.MethodGet, "/auth/session", nil)
	withIdentity(c, "admin-1")
	handler.Current(c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":{"id":"admin-1","email":"admin-1@example.com","role":"admin"}}`, rec.Body.String())
}

func TestSessionHandlerEvents(t *testing.T) {
	handler := NewSessionHandler(service.NewSessionService(fixedResolver{role: models.RoleDev}, 0, nil))

	c, rec := newTestContext(http.MethodPost, "/auth/session/events", jsonBody(`{"event":"SIGNED_IN"}`))
	withIdentity(c, "dev-1")
	handler.Event(c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"role":"dev"`)

	c, rec = newTestContext(http.MethodPost, "/auth/session/events", jsonBody(`{"event":"SIGNED_OUT"}`))
	handler.Event(c)
	assert.Equal(t, http.StatusOK, rec.Code)

	c, rec = newTestContext(http.MethodPost, "/auth/session/events", jsonBody(`{"event":"TOKEN_REFRESHED"}`))
	handler.Event(c)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	c, rec = newTestContext(http.MethodPost, "/auth/session/events", jsonBody(`{"event":"PASSWORD_RECOVERY"}`))
	withIdentity(c, "dev-1")
	handler.Event(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
