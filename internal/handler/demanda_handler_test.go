package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/portal-cidadao-api/internal/dto"
	"github.com/noah-isme/portal-cidadao-api/internal/models"
	"github.com/noah-isme/portal-cidadao-api/internal/service"
	appErrors "github.com/noah-isme/portal-cidadao-api/pkg/errors"
)

type fakeDemandaSrv struct {
	createActor *models.Identity
	createReq   dto.CreateDemandaRequest
	statusID    string
	statusReq   dto.UpdateStatusRequest
	statusErr   error
	filter      models.DemandaFilter
}

func (f *fakeDemandaSrv) Create(_ context.Context, actor *models.Identity, req dto.CreateDemandaRequest) (*models.Demanda, error) {
	f.createActor = actor
	f.createReq = req
	return &models.Demanda{ID: "d1", Categoria: req.Categoria, Status: models.StatusAberta}, nil
}

func (f *fakeDemandaSrv) UpdateStatus(_ context.Context, _ *models.Identity, id string, req dto.UpdateStatusRequest) (*models.Demanda, error) {
	f.statusID = id
	f.statusReq = req
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	return &models.Demanda{ID: id, Status: models.DemandaStatus(req.Status)}, nil
}

func (f *fakeDemandaSrv) List(_ context.Context, filter models.DemandaFilter) ([]models.Demanda, *models.Pagination, error) {
	f.filter = filter
	return []models.Demanda{{ID: "d1"}}, &models.Pagination{Page: 1, PageSize: 50, TotalCount: 1}, nil
}

type fakeExporter struct {
	format string
}

func (f *fakeExporter) Export(_ context.Context, _ models.DemandaFilter, format string) (*service.ExportFile, error) {
	f.format = format
	return &service.ExportFile{Filename: "demandas.csv", ContentType: "text/csv; charset=utf-8", Data: []byte("id\nd1\n")}, nil
}

func TestDemandaHandlerCreateAnonymous(t *testing.T) {
	svc := &fakeDemandaSrv{}
	c, rec := newTestContext(http.MethodPost, "/demandas", jsonBody(`{"categoria":"Buraco","localizacao":{"lat":-23.5,"lng":-46.6}}`))

	NewDemandaHandler(svc, nil).Create(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Nil(t, svc.createActor)
	assert.Equal(t, "Buraco", svc.createReq.Categoria)
	require.NotNil(t, svc.createReq.Localizacao.Lat)
	assert.Equal(t, -23.5, *svc.createReq.Localizacao.Lat)
}

func TestDemandaHandlerCreateRejectsMalformedJSON(t *testing.T) {
	c, rec := newTestContext(http.MethodPost, "/demandas", jsonBody(`{"categoria":`))

	NewDemandaHandler(&fakeDemandaSrv{}, nil).Create(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDemandaHandlerListBindsFilters(t *testing.T) {
	svc := &fakeDemandaSrv{}
	c, rec := newTestContext(http.MethodGet, "/demandas?status=aberta,resolvida&bairro=Centro&page=2&page_size=10&sort_by=categoria", nil)

	NewDemandaHandler(svc, nil).List(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []models.DemandaStatus{models.StatusAberta, models.StatusResolvida}, svc.filter.Status)
	assert.Equal(t, "Centro", svc.filter.Bairro)
	assert.Equal(t, 2, svc.filter.Page)
	assert.Equal(t, 10, svc.filter.PageSize)

	var body struct {
		Data       []map[string]interface{} `json:"data"`
		Pagination models.Pagination        `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Data, 1)
	assert.Equal(t, 1, body.Pagination.TotalCount)
}

func TestDemandaHandlerListRejectsBadDate(t *testing.T) {
	c, rec := newTestContext(http.MethodGet, "/demandas?from=ontem", nil)

	NewDemandaHandler(&fakeDemandaSrv{}, nil).List(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDemandaHandlerExport(t *testing.T) {
	exporter := &fakeExporter{}
	c, rec := newTestContext(http.MethodGet, "/demandas/export?format=csv", nil)

	NewDemandaHandler(&fakeDemandaSrv{}, exporter).Export(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "csv", exporter.format)
	assert.Equal(t, `attachment; filename="demandas.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "id\nd1\n", rec.Body.String())
}

func TestDemandaHandlerUpdateStatus(t *testing.T) {
	svc := &fakeDemandaSrv{}
	c, rec := newTestContext(http.MethodPatch, "/demandas/d9/status", jsonBody(`{"status":"resolvida"}`))
	c.Params = append(c.Params, ginParam("id", "d9"))
	withIdentity(c, "admin-1")

	NewDemandaHandler(svc, nil).UpdateStatus(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "d9", svc.statusID)
	assert.Equal(t, "resolvida", svc.statusReq.Status)

	svc.statusErr = appErrors.Clone(appErrors.ErrNotFound, "demanda not found")
	c, rec = newTestContext(http.MethodPatch, "/demandas/missing/status", jsonBody(`{"status":"aberta"}`))
	c.Params = append(c.Params, ginParam("id", "missing"))
	NewDemandaHandler(svc, nil).UpdateStatus(c)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
