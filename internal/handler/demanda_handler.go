package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/portal-cidadao-api/internal/dto"
	"github.com/noah-isme/portal-cidadao-api/internal/models"
	"github.com/noah-isme/portal-cidadao-api/internal/service"
	appErrors "github.com/noah-isme/portal-cidadao-api/pkg/errors"
	"github.com/noah-isme/portal-cidadao-api/pkg/response"
)

type demandaService interface {
	Create(ctx context.Context, actor *models.Identity, req dto.CreateDemandaRequest) (*models.Demanda, error)
	UpdateStatus(ctx context.Context, actor *models.Identity, id string, req dto.UpdateStatusRequest) (*models.Demanda, error)
	List(ctx context.Context, filter models.DemandaFilter) ([]models.Demanda, *models.Pagination, error)
}

type demandaExporter interface {
	Export(ctx context.Context, filter models.DemandaFilter, format string) (*service.ExportFile, error)
}

// DemandaHandler exposes citizen submissions and the administrator listing.
type DemandaHandler struct {
	service  demandaService
	exporter demandaExporter
}

// NewDemandaHandler constructs the handler.
func NewDemandaHandler(service demandaService, exporter demandaExporter) *DemandaHandler {
	return &DemandaHandler{service: service, exporter: exporter}
}

// Create godoc
// @Summary Submit a demanda
// @Description Anonymous submissions are accepted; a bearer token links the demanda to the caller.
// @Tags Demandas
// @Accept json
// @Produce json
// @Param payload body dto.CreateDemandaRequest true "Demanda"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /demandas [post]
func (h *DemandaHandler) Create(c *gin.Context) {
	var req dto.CreateDemandaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid demanda payload"))
		return
	}
	demanda, err := h.service.Create(c.Request.Context(), identityFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, demanda)
}

// List godoc
// @Summary List demandas
// @Tags Demandas
// @Produce json
// @Security BearerAuth
// @Param status query []string false "Status filter (repeatable or comma separated)"
// @Param categoria query string false "Category"
// @Param bairro query string false "Neighbourhood"
// @Param q query string false "Search in description and address"
// @Param from query string false "Created on or after (YYYY-MM-DD or RFC3339)"
// @Param to query string false "Created on or before (YYYY-MM-DD or RFC3339)"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Param sort_by query string false "Sort field"
// @Param sort_order query string false "asc or desc"
// @Success 200 {object} response.Envelope
// @Router /demandas [get]
func (h *DemandaHandler) List(c *gin.Context) {
	filter, ok := bindDemandaFilter(c)
	if !ok {
		return
	}
	items, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Export godoc
// @Summary Export demandas
// @Tags Demandas
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param format query string false "csv (default) or pdf"
// @Success 200 {file} file
// @Router /demandas/export [get]
func (h *DemandaHandler) Export(c *gin.Context) {
	if h.exporter == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "export not configured"))
		return
	}
	filter, ok := bindDemandaFilter(c)
	if !ok {
		return
	}
	var query dto.ListDemandasQuery
	_ = c.ShouldBindQuery(&query)
	file, err := h.exporter.Export(c.Request.Context(), filter, query.Format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", file.Filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, file.ContentType, file.Data)
}

// UpdateStatus godoc
// @Summary Change demanda status
// @Tags Demandas
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Demanda ID"
// @Param payload body dto.UpdateStatusRequest true "Status"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /demandas/{id}/status [patch]
func (h *DemandaHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status payload"))
		return
	}
	demanda, err := h.service.UpdateStatus(c.Request.Context(), identityFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, demanda, nil)
}

func bindDemandaFilter(c *gin.Context) (models.DemandaFilter, bool) {
	var query dto.ListDemandasQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return models.DemandaFilter{}, false
	}
	filter, err := query.Filter()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, err.Error()))
		return models.DemandaFilter{}, false
	}
	return filter, true
}
