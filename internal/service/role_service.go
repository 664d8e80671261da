package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/portal-cidadao-api/internal/models"
	"github.com/noah-isme/portal-cidadao-api/pkg/timeout"
)

type identityDirectory interface {
	ProfileName(ctx context.Context, userID string) (*string, error)
	IsDeveloper(ctx context.Context, userID string) (bool, error)
	IsAdmin(ctx context.Context, userID string) (bool, error)
	InDevUsers(ctx context.Context, userID string) (bool, error)
	InAdminUsers(ctx context.Context, userID string) (bool, error)
}

// PrivilegeCheck asks one backing source whether a user holds Role.
type PrivilegeCheck struct {
	Name   string
	Role   models.Role
	Lookup func(ctx context.Context, userID string) (bool, error)
}

// RoleServiceConfig tunes role resolution.
type RoleServiceConfig struct {
	LookupTimeout time.Duration
}

// RoleService resolves the display name and privilege tier of an identity.
//
// Checks are grouped in stages. Every check of a stage runs concurrently under its
// own timeout and a later stage only runs when no earlier check affirmed a role.
// A lookup that fails or times out is indeterminate and never grants a role.
type RoleService struct {
	directory identityDirectory
	stages    [][]PrivilegeCheck
	timeout   time.Duration
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewRoleService wires the database function checks first and the membership tables second.
func NewRoleService(directory identityDirectory, metrics *MetricsService, logger *zap.Logger, cfg RoleServiceConfig) *RoleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	stages := [][]PrivilegeCheck{
		{
			{Name: "is_dev", Role: models.RoleDev, Lookup: directory.IsDeveloper},
			{Name: "is_admin", Role: models.RoleAdmin, Lookup: directory.IsAdmin},
		},
		{
			{Name: "dev_users", Role: models.RoleDev, Lookup: directory.InDevUsers},
			{Name: "admin_users", Role: models.RoleAdmin, Lookup: directory.InAdminUsers},
		},
	}
	return &RoleService{
		directory: directory,
		stages:    stages,
		timeout:   cfg.LookupTimeout,
		metrics:   metrics,
		logger:    logger,
	}
}

// Resolve returns nil for a missing identity and a SessionUser otherwise. It never fails.
func (s *RoleService) Resolve(ctx context.Context, identity *models.Identity) *models.SessionUser {
	if identity == nil || identity.UserID == "" {
		return nil
	}

	user := &models.SessionUser{ID: identity.UserID, Email: identity.Email, Role: models.RoleUser}
	affirmed := make(map[models.Role]bool)

	for i, stage := range s.stages {
		outcomes := make([]models.Outcome, len(stage))

		var g errgroup.Group
		if i == 0 {
			g.Go(func() error {
				user.Nome = s.profileName(ctx, identity.UserID)
				return nil
			})
		}
		for j, check := range stage {
			j, check := j, check
			g.Go(func() error {
				outcomes[j] = s.run(ctx, check, identity.UserID)
				return nil
			})
		}
		_ = g.Wait()

		stageAffirmed := false
		for j, outcome := range outcomes {
			if outcome == models.OutcomeAffirmed {
				affirmed[stage[j].Role] = true
				stageAffirmed = true
			}
		}
		if stageAffirmed {
			break
		}
	}

	switch {
	case affirmed[models.RoleDev]:
		user.Role = models.RoleDev
	case affirmed[models.RoleAdmin]:
		user.Role = models.RoleAdmin
	}
	return user
}

func (s *RoleService) run(ctx context.Context, check PrivilegeCheck, userID string) models.Outcome {
	outcome := timeout.Race(ctx, s.timeout, models.OutcomeIndeterminate, func(ctx context.Context) (models.Outcome, error) {
		ok, err := check.Lookup(ctx, userID)
		if err != nil {
			s.logger.Debug("privilege lookup failed", zap.String("check", check.Name), zap.String("user_id", userID), zap.Error(err))
			return models.OutcomeIndeterminate, err
		}
		return models.OutcomeOf(ok), nil
	})
	s.metrics.RecordRoleLookup(check.Name, outcome)
	return outcome
}

func (s *RoleService) profileName(ctx context.Context, userID string) *string {
	return timeout.Race(ctx, s.timeout, (*string)(nil), func(ctx context.Context) (*string, error) {
		name, err := s.directory.ProfileName(ctx, userID)
		if err != nil {
			s.logger.Debug("profile lookup failed", zap.String("user_id", userID), zap.Error(err))
		}
		return name, err
	})
}
