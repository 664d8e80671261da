package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/portal-cidadao-api/internal/dto"
	"github.com/noah-isme/portal-cidadao-api/internal/models"
	appErrors "github.com/noah-isme/portal-cidadao-api/pkg/errors"
	"github.com/noah-isme/portal-cidadao-api/pkg/logger"
	"github.com/noah-isme/portal-cidadao-api/pkg/response"
)

type purgeRunner interface {
	Authorize(ctx context.Context, actor *models.Identity) error
	Run(ctx context.Context, actor *models.Identity, filter models.PurgeFilter) (*models.PurgeResult, error)
}

// PurgeHandler exposes the developer-only bulk purge. Its responses are not enveloped.
type PurgeHandler struct {
	service   purgeRunner
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPurgeHandler constructs the handler.
func NewPurgeHandler(service purgeRunner, validate *validator.Validate, logger *zap.Logger) *PurgeHandler {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PurgeHandler{service: service, validator: validate, logger: logger}
}

// Purge godoc
// @Summary Preview or purge demandas
// @Description Developer only. dryRun defaults to true and returns a count and a sample.
// @Tags Admin
// @Accept json
// @Produce json
// @Param payload body dto.PurgeRequest false "Purge filters"
// @Success 200 {object} dto.PurgePreviewResponse
// @Success 200 {object} dto.PurgeExecuteResponse
// @Failure 400 {object} dto.PurgeErrorResponse
// @Failure 401 {object} dto.PurgeErrorResponse
// @Failure 403 {object} dto.PurgeErrorResponse
// @Failure 409 {object} dto.PurgeErrorResponse
// @Failure 500 {object} dto.PurgeErrorResponse
// @Router /admin/purge-demandas [post]
func (h *PurgeHandler) Purge(c *gin.Context) {
	actor := identityFromContext(c)
	if actor == nil {
		response.Plain(c, http.StatusUnauthorized, dto.PurgeErrorResponse{Error: "not authenticated"})
		return
	}

	req := readPurgeRequest(c)
	filter, invalid := h.parse(req)
	if invalid != "" {
		// Role errors take precedence over input errors.
		if err := h.service.Authorize(c.Request.Context(), actor); err != nil {
			appErr := appErrors.FromError(err)
			response.Plain(c, appErr.Status, dto.PurgeErrorResponse{Error: appErr.Message})
			return
		}
		response.Plain(c, http.StatusBadRequest, dto.PurgeErrorResponse{Error: invalid})
		return
	}

	result, err := h.service.Run(c.Request.Context(), actor, filter)
	if err != nil {
		appErr := appErrors.FromError(err)
		body := dto.PurgeErrorResponse{Error: appErr.Message}
		if result != nil {
			deleted, removed := result.Deleted, result.RemovedPhotos
			body.Deleted = &deleted
			body.RemovedPhotos = &removed
		}
		if appErr.Status >= http.StatusInternalServerError {
			logger.WithRequest(h.logger, c).Error("purge failed", zap.Error(err))
		}
		response.Plain(c, appErr.Status, body)
		return
	}

	if result.DryRun {
		sample := result.Sample
		if sample == nil {
			sample = []models.PurgeCandidate{}
		}
		response.Plain(c, http.StatusOK, dto.PurgePreviewResponse{OK: true, DryRun: true, Count: result.Count, Sample: sample})
		return
	}
	response.Plain(c, http.StatusOK, dto.PurgeExecuteResponse{OK: true, DryRun: false, Deleted: result.Deleted, RemovedPhotos: result.RemovedPhotos})
}

// parse validates req and returns the filter, or a client-facing reason it is invalid.
func (h *PurgeHandler) parse(req dto.PurgeRequest) (models.PurgeFilter, string) {
	if err := h.validator.Struct(req); err != nil {
		return models.PurgeFilter{}, "invalid status filter"
	}
	filter, err := req.Filter()
	if err != nil {
		return models.PurgeFilter{}, err.Error()
	}
	return filter, ""
}

// readPurgeRequest decodes the body. A missing or malformed body is an empty filter.
func readPurgeRequest(c *gin.Context) dto.PurgeRequest {
	var req dto.PurgeRequest
	if c.Request.Body == nil {
		return req
	}
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil || len(bytes.TrimSpace(raw)) == 0 {
		return req
	}
	if err := json.Unmarshal(raw, &req); err != nil {
		return dto.PurgeRequest{}
	}
	return req
}
