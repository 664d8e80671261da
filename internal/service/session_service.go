package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/portal-cidadao-api/internal/models"
	appErrors "github.com/noah-isme/portal-cidadao-api/pkg/errors"
)

type roleResolver interface {
	Resolve(ctx context.Context, identity *models.Identity) *models.SessionUser
}

type sessionEntry struct {
	generation uint64
	user       *models.SessionUser
	resolvedAt time.Time
	inflight   int
}

// SessionService keeps the latest resolved SessionUser per signed-in user.
//
// Every auth event bumps the user's generation. A resolution only publishes its
// result while its generation is still current, so when overlapping resolutions
// finish out of order the newest one wins.
type SessionService struct {
	resolver roleResolver
	maxAge   time.Duration
	logger   *zap.Logger
	now      func() time.Time

	mu        sync.Mutex
	seq       uint64
	entries   map[string]*sessionEntry
	lastSweep time.Time
}

// NewSessionService constructs a SessionService. Snapshots older than maxAge are
// re-resolved on read; a non-positive maxAge keeps them until the next event.
func NewSessionService(resolver roleResolver, maxAge time.Duration, logger *zap.Logger) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{
		resolver: resolver,
		maxAge:   maxAge,
		logger:   logger,
		now:      time.Now,
		entries:  make(map[string]*sessionEntry),
	}
}

// Handle applies an auth-state event. SIGNED_OUT forgets the user and returns nil;
// every other event resolves the identity again.
func (s *SessionService) Handle(ctx context.Context, event models.AuthEvent, identity *models.Identity) (*models.SessionUser, error) {
	if !event.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown auth event")
	}
	if event == models.EventSignedOut {
		if identity != nil {
			s.forget(identity.UserID)
		}
		return nil, nil
	}
	if identity == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "no active session")
	}

	s.logger.Debug("auth event", zap.String("event", string(event)), zap.String("user_id", identity.UserID))
	return s.resolve(ctx, identity), nil
}

// Current returns the held snapshot for identity, resolving it when absent or stale.
func (s *SessionService) Current(ctx context.Context, identity *models.Identity) *models.SessionUser {
	if identity == nil || identity.UserID == "" {
		return nil
	}

	s.mu.Lock()
	entry, ok := s.entries[identity.UserID]
	if ok && entry.user != nil && !s.stale(entry) {
		user := *entry.user
		s.mu.Unlock()
		return &user
	}
	s.mu.Unlock()

	return s.resolve(ctx, identity)
}

func (s *SessionService) resolve(ctx context.Context, identity *models.Identity) *models.SessionUser {
	gen := s.begin(identity.UserID)
	user := s.resolver.Resolve(ctx, identity)
	if !s.publish(identity.UserID, gen, user) {
		s.logger.Debug("superseded session resolution dropped", zap.String("user_id", identity.UserID), zap.Uint64("generation", gen))
	}
	if user == nil {
		return nil
	}
	out := *user
	return &out
}

func (s *SessionService) begin(userID string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked(userID)
	entry, ok := s.entries[userID]
	if !ok {
		entry = &sessionEntry{}
		s.entries[userID] = entry
	}
	entry.inflight++
	// Generations come from one counter so an entry recreated after sign-out
	// never reuses a number still held by an abandoned resolution.
	s.seq++
	entry.generation = s.seq
	return entry.generation
}

func (s *SessionService) publish(userID string, gen uint64, user *models.SessionUser) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[userID]
	if !ok {
		return false
	}
	entry.inflight--
	if entry.generation != gen {
		return false
	}
	entry.user = user
	entry.resolvedAt = s.now()
	return true
}

func (s *SessionService) forget(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, userID)
}

// sweepLocked drops idle snapshots past maxAge, at most once per maxAge.
// Entries with a resolution in flight and the caller's own entry are kept.
func (s *SessionService) sweepLocked(keep string) {
	if s.maxAge <= 0 {
		return
	}
	now := s.now()
	if now.Sub(s.lastSweep) < s.maxAge {
		return
	}
	s.lastSweep = now
	for userID, entry := range s.entries {
		if userID == keep || entry.inflight > 0 {
			continue
		}
		if s.stale(entry) {
			delete(s.entries, userID)
		}
	}
}

func (s *SessionService) stale(entry *sessionEntry) bool {
	return s.maxAge > 0 && s.now().Sub(entry.resolvedAt) > s.maxAge
}
