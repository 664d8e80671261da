package service

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/portal-cidadao-api/internal/models"
	appErrors "github.com/noah-isme/portal-cidadao-api/pkg/errors"
)

// scriptedResolver returns queued roles in order; a queued gate holds that call until closed.
type scriptedResolver struct {
	mu    sync.Mutex
	roles []models.Role
	gates []chan struct{}
	calls int
}

func (r *scriptedResolver) Resolve(_ context.Context, id *models.Identity) *models.SessionUser {
	r.mu.Lock()
	i := r.calls
	r.calls++
	role := models.RoleUser
	if i < len(r.roles) {
		role = r.roles[i]
	}
	var gate chan struct{}
	if i < len(r.gates) {
		gate = r.gates[i]
	}
	r.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return &models.SessionUser{ID: id.UserID, Email: id.Email, Role: role}
}

func (r *scriptedResolver) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func TestSessionHandleValidation(t *testing.T) {
	svc := NewSessionService(&scriptedResolver{}, 0, nil)

	_, err := svc.Handle(context.Background(), models.AuthEvent("BOGUS"), member)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, appErrors.FromError(err).Status)

	_, err = svc.Handle(context.Background(), models.EventSignedIn, nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, appErrors.FromError(err).Status)

	user, err := svc.Handle(context.Background(), models.EventSignedOut, nil)
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestSessionCurrentCachesSnapshot(t *testing.T) {
	resolver := &scriptedResolver{roles: []models.Role{models.RoleAdmin}}
	svc := NewSessionService(resolver, 0, nil)

	first := svc.Current(context.Background(), member)
	second := svc.Current(context.Background(), member)
	require.NotNil(t, first)
	assert.Equal(t, models.RoleAdmin, second.Role)
	assert.Equal(t, 1, resolver.callCount())

	first.Role = models.RoleDev
	assert.Equal(t, models.RoleAdmin, svc.Current(context.Background(), member).Role)
	assert.Nil(t, svc.Current(context.Background(), nil))
}

func TestSessionEventsRefreshAndSignOutClears(t *testing.T) {
	resolver := &scriptedResolver{roles: []models.Role{models.RoleUser, models.RoleAdmin, models.RoleDev}}
	svc := NewSessionService(resolver, 0, nil)

	user, err := svc.Handle(context.Background(), models.EventInitialSession, member)
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, user.Role)

	user, err = svc.Handle(context.Background(), models.EventTokenRefreshed, member)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, user.Role)
	assert.Equal(t, models.RoleAdmin, svc.Current(context.Background(), member).Role)

	user, err = svc.Handle(context.Background(), models.EventSignedOut, member)
	require.NoError(t, err)
	assert.Nil(t, user)

	assert.Equal(t, models.RoleDev, svc.Current(context.Background(), member).Role)
	assert.Equal(t, 3, resolver.callCount())
}

func TestSessionLatestResolutionWins(t *testing.T) {
	slow := make(chan struct{})
	resolver := &scriptedResolver{
		roles: []models.Role{models.RoleAdmin, models.RoleUser},
		gates: []chan struct{}{slow, nil},
	}
	svc := NewSessionService(resolver, 0, nil)

	done := make(chan *models.SessionUser, 1)
	go func() {
		user, _ := svc.Handle(context.Background(), models.EventSignedIn, member)
		done <- user
	}()
	require.Eventually(t, func() bool { return resolver.callCount() == 1 }, time.Second, time.Millisecond)

	latest, err := svc.Handle(context.Background(), models.EventTokenRefreshed, member)
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, latest.Role)

	close(slow)
	stale := <-done
	assert.Equal(t, models.RoleAdmin, stale.Role)

	assert.Equal(t, models.RoleUser, svc.Current(context.Background(), member).Role)
	assert.Equal(t, 2, resolver.callCount())
}

func TestSessionResolutionAbandonedBySignOut(t *testing.T) {
	slow := make(chan struct{})
	resolver := &scriptedResolver{
		roles: []models.Role{models.RoleDev, models.RoleUser},
		gates: []chan struct{}{slow, nil},
	}
	svc := NewSessionService(resolver, 0, nil)

	done := make(chan struct{})
	go func() {
		_, _ = svc.Handle(context.Background(), models.EventSignedIn, member)
		close(done)
	}()
	require.Eventually(t, func() bool { return resolver.callCount() == 1 }, time.Second, time.Millisecond)

	_, err := svc.Handle(context.Background(), models.EventSignedOut, member)
	require.NoError(t, err)
	close(slow)
	<-done

	assert.Equal(t, models.RoleUser, svc.Current(context.Background(), member).Role)
}

func TestSessionStaleSnapshotIsResolvedAgain(t *testing.T) {
	resolver := &scriptedResolver{roles: []models.Role{models.RoleUser, models.RoleAdmin}}
	svc := NewSessionService(resolver, time.Minute, nil)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	assert.Equal(t, models.RoleUser, svc.Current(context.Background(), member).Role)
	now = now.Add(2 * time.Minute)
	assert.Equal(t, models.RoleAdmin, svc.Current(context.Background(), member).Role)
}

func TestSessionSweepsIdleSnapshots(t *testing.T) {
	gate := make(chan struct{})
	resolver := &scriptedResolver{gates: []chan struct{}{nil, nil, gate}}
	svc := NewSessionService(resolver, time.Minute, nil)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var clock sync.Mutex
	svc.now = func() time.Time {
		clock.Lock()
		defer clock.Unlock()
		return now
	}
	advance := func(d time.Duration) {
		clock.Lock()
		now = now.Add(d)
		clock.Unlock()
	}
	ctx := context.Background()

	svc.Current(ctx, &models.Identity{UserID: "a"})
	svc.Current(ctx, &models.Identity{UserID: "b"})
	advance(2 * time.Minute)

	done := make(chan struct{})
	go func() {
		defer close(done)
		svc.Current(ctx, &models.Identity{UserID: "pending"})
	}()
	require.Eventually(t, func() bool { return resolver.callCount() == 3 }, time.Second, time.Millisecond)

	advance(2 * time.Minute)
	svc.Current(ctx, &models.Identity{UserID: "c"})

	svc.mu.Lock()
	_, hasA := svc.entries["a"]
	_, hasB := svc.entries["b"]
	_, hasPending := svc.entries["pending"]
	_, hasC := svc.entries["c"]
	svc.mu.Unlock()
	assert.False(t, hasA)
	assert.False(t, hasB)
	assert.True(t, hasPending, "in-flight resolution must keep its entry")
	assert.True(t, hasC)

	close(gate)
	<-done
	svc.mu.Lock()
	assert.NotNil(t, svc.entries["pending"].user)
	svc.mu.Unlock()
}
