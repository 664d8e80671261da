package service

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/portal-cidadao-api/internal/models"
	appErrors "github.com/noah-isme/portal-cidadao-api/pkg/errors"
)

func exportFixture() *memoryDemandas {
	created := time.Date(2025, 1, 5, 9, 30, 0, 0, time.UTC)
	return newMemoryDemandas(models.Demanda{
		ID:          "d1",
		Categoria:   "Buraco",
		Descricao:   strPtr("cratera na rua"),
		Bairro:      strPtr("Centro"),
		Localizacao: models.Location{Lat: -23.5, Lng: -46.6},
		DataCriacao: created,
		Status:      models.StatusAberta,
	})
}

func TestExportCSV(t *testing.T) {
	repo := exportFixture()
	svc := NewExportService(repo, nil)
	svc.now = func() time.Time { return time.Date(2025, 2, 1, 8, 0, 0, 0, time.UTC) }

	file, err := svc.Export(context.Background(), models.DemandaFilter{Categoria: "Buraco"}, "")
	require.NoError(t, err)
	assert.Equal(t, "demandas-20250201-080000.csv", file.Filename)
	assert.Equal(t, "text/csv; charset=utf-8", file.ContentType)
	assert.Equal(t, exportRowLimit, repo.lastFilter.PageSize)
	assert.Equal(t, "Buraco", repo.lastFilter.Categoria)

	body := string(file.Data)
	assert.True(t, strings.Contains(body, "05/01/2025 09:30"))
	assert.True(t, strings.Contains(body, "cratera na rua"))
	assert.True(t, strings.Contains(body, "-23.500000, -46.600000"))
}

func TestExportPDF(t *testing.T) {
	svc := NewExportService(exportFixture(), nil)

	file, err := svc.Export(context.Background(), models.DemandaFilter{}, "PDF")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, bytes.HasPrefix(file.Data, []byte("%PDF")))
	assert.True(t, strings.HasSuffix(file.Filename, ".pdf"))
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	svc := NewExportService(exportFixture(), nil)

	_, err := svc.Export(context.Background(), models.DemandaFilter{}, "xlsx")
	assert.Equal(t, http.StatusBadRequest, appErrors.FromError(err).Status)
}
