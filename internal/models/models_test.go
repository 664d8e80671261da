package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyStatusResolutionTimestamp(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	d := &Demanda{Status: StatusAberta}

	d.ApplyStatus(StatusResolvida, now)
	require.NotNil(t, d.DataResolucao)
	assert.Equal(t, now, *d.DataResolucao)

	d.ApplyStatus(StatusEmAndamento, now.Add(time.Hour))
	assert.Nil(t, d.DataResolucao)
	assert.Equal(t, StatusEmAndamento, d.Status)
}

func TestLocationScan(t *testing.T) {
	var loc Location
	require.NoError(t, loc.Scan([]byte(`{"lat":-23.5,"lng":-46.6}`)))
	assert.Equal(t, Location{Lat: -23.5, Lng: -46.6}, loc)

	require.NoError(t, loc.Scan(nil))
	assert.Equal(t, Location{}, loc)

	require.Error(t, loc.Scan(42))

	v, err := Location{Lat: 1, Lng: 2}.Value()
	require.NoError(t, err)
	assert.JSONEq(t, `{"lat":1,"lng":2}`, v.(string))
}

func TestRoleOutranks(t *testing.T) {
	assert.True(t, RoleDev.Outranks(RoleAdmin))
	assert.True(t, RoleAdmin.Outranks(RoleAdmin))
	assert.False(t, RoleAdmin.Outranks(RoleDev))
	assert.False(t, Role("").Outranks(RoleUser))
}

func TestPurgeFilterFingerprint(t *testing.T) {
	a := PurgeFilter{Email: " Foo@x.com ", Status: []string{"resolvida", "aberta"}, DryRun: true}
	b := PurgeFilter{Email: "foo@x.com", Status: []string{"aberta", "", "resolvida"}}
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())

	c := PurgeFilter{Email: "foo@x.com", Status: []string{"aberta"}}
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
}

func TestAccessClaimsIdentity(t *testing.T) {
	var nilClaims *AccessClaims
	assert.Nil(t, nilClaims.Identity())
	assert.Nil(t, (&AccessClaims{}).Identity())

	claims := &AccessClaims{Email: "a@b.c"}
	claims.Subject = "u1"
	assert.Equal(t, &Identity{UserID: "u1", Email: "a@b.c"}, claims.Identity())
}
