package dto

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/portal-cidadao-api/internal/models"
)

func TestPurgeRequestDefaultsToPreview(t *testing.T) {
	filter, err := PurgeRequest{}.Filter()
	require.NoError(t, err)
	assert.True(t, filter.DryRun)

	no := false
	filter, err = PurgeRequest{DryRun: &no, Status: []string{"aberta"}}.Filter()
	require.NoError(t, err)
	assert.False(t, filter.DryRun)
	assert.Equal(t, []string{"aberta"}, filter.Status)
}

func TestPurgeRequestDates(t *testing.T) {
	filter, err := PurgeRequest{DataInicial: "2024-01-01", DataFinal: "2024-02-01T10:00:00Z"}.Filter()
	require.NoError(t, err)
	require.NotNil(t, filter.From)
	require.NotNil(t, filter.To)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), *filter.From)
	assert.Equal(t, 10, filter.To.Hour())

	_, err = PurgeRequest{DataInicial: "ontem"}.Filter()
	require.ErrorContains(t, err, "dataInicial")

	_, err = PurgeRequest{DataInicial: "2024-02-01", DataFinal: "2024-01-01"}.Filter()
	require.Error(t, err)
}

func TestListDemandasQuerySplitsStatus(t *testing.T) {
	filter, err := ListDemandasQuery{Status: []string{"aberta,em_andamento", " resolvida "}, Categoria: " Buraco ", From: "2024-03-01"}.Filter()
	require.NoError(t, err)
	assert.Equal(t, []models.DemandaStatus{models.StatusAberta, models.StatusEmAndamento, models.StatusResolvida}, filter.Status)
	assert.Equal(t, "Buraco", filter.Categoria)
	require.NotNil(t, filter.From)
	assert.Nil(t, filter.To)

	_, err = ListDemandasQuery{To: "31/12/2024"}.Filter()
	require.ErrorContains(t, err, "to")
}
