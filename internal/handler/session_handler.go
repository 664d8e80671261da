package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/portal-cidadao-api/internal/dto"
	"github.com/noah-isme/portal-cidadao-api/internal/models"
	appErrors "github.com/noah-isme/portal-cidadao-api/pkg/errors"
	"github.com/noah-isme/portal-cidadao-api/pkg/response"
)

type sessionService interface {
	Handle(ctx context.Context, event models.AuthEvent, identity *models.Identity) (*models.SessionUser, error)
	Current(ctx context.Context, identity *models.Identity) *models.SessionUser
}

// SessionHandler exposes the resolved session of the caller.
type SessionHandler struct {
	service sessionService
}

// NewSessionHandler constructs the handler.
func NewSessionHandler(service sessionService) *SessionHandler {
	return &SessionHandler{service: service}
}

// Current godoc
// @Summary Current session user
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/session [get]
func (h *SessionHandler) Current(c *gin.Context) {
	identity := identityFromContext(c)
	if identity == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	response.JSON(c, http.StatusOK, h.service.Current(c.Request.Context(), identity), nil)
}

// Event godoc
// @Summary Report an auth state change
// @Description Re-resolves the session for INITIAL_SESSION, SIGNED_IN and TOKEN_REFRESHED. SIGNED_OUT clears it.
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body dto.AuthEventRequest true "Event"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/session/events [post]
func (h *SessionHandler) Event(c *gin.Context) {
	var req dto.AuthEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid event payload"))
		return
	}
	user, err := h.service.Handle(c.Request.Context(), models.AuthEvent(req.Event), identityFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}
