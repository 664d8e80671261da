package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/portal-cidadao-api/internal/dto"
	"github.com/noah-isme/portal-cidadao-api/internal/middleware"
	appErrors "github.com/noah-isme/portal-cidadao-api/pkg/errors"
	"github.com/noah-isme/portal-cidadao-api/pkg/response"
)

type reverseGeocoder interface {
	Reverse(ctx context.Context, q dto.ReverseGeocodeQuery) (json.RawMessage, bool, error)
}

// GeocodeHandler proxies reverse geocoding for the submission form.
type GeocodeHandler struct {
	service reverseGeocoder
}

// NewGeocodeHandler constructs the handler.
func NewGeocodeHandler(service reverseGeocoder) *GeocodeHandler {
	return &GeocodeHandler{service: service}
}

// Reverse godoc
// @Summary Reverse geocode a coordinate
// @Tags Geocode
// @Produce json
// @Param lat query number true "Latitude"
// @Param lon query number true "Longitude"
// @Param zoom query int false "Zoom 0-18 (default 18)"
// @Param lang query string false "Accept-Language (default pt-BR)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /geocode/reverse [get]
func (h *GeocodeHandler) Reverse(c *gin.Context) {
	var query dto.ReverseGeocodeQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	payload, cacheHit, err := h.service.Reverse(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, payload, nil, middleware.ExtractMeta(c))
}
