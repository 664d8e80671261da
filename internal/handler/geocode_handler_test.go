package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/portal-cidadao-api/internal/dto"
	"github.com/noah-isme/portal-cidadao-api/internal/middleware"
	appErrors "github.com/noah-isme/portal-cidadao-api/pkg/errors"
)

type fakeGeocoder struct {
	query dto.ReverseGeocodeQuery
	err   error
}

func (f *fakeGeocoder) Reverse(_ context.Context, q dto.ReverseGeocodeQuery) (json.RawMessage, bool, error) {
	f.query = q
	if f.err != nil {
		return nil, false, f.err
	}
	return json.RawMessage(`{"display_name":"Centro"}`), true, nil
}

func TestGeocodeHandlerReverse(t *testing.T) {
	geocoder := &fakeGeocoder{}
	c, rec := newTestContext(http.MethodGet, "/geocode/reverse?lat=-23.5&lon=-46.6&zoom=16", nil)
	middleware.WithResponseMeta()(c)

	NewGeocodeHandler(geocoder).Reverse(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, dto.ReverseGeocodeQuery{Lat: "-23.5", Lon: "-46.6", Zoom: "16"}, geocoder.query)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "Centro", envelope.Data["display_name"])
	assert.Equal(t, true, envelope.Meta["cache_hit"])
}

func TestGeocodeHandlerPropagatesErrors(t *testing.T) {
	geocoder := &fakeGeocoder{err: appErrors.Clone(appErrors.ErrBadGateway, "nominatim returned status 503")}
	c, rec := newTestContext(http.MethodGet, "/geocode/reverse?lat=1&lon=2", nil)

	NewGeocodeHandler(geocoder).Reverse(c)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
