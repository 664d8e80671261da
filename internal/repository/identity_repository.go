package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// IdentityRepository answers profile and privilege questions about hosted-backend users.
type IdentityRepository struct {
	db *sqlx.DB
}

// NewIdentityRepository constructs an IdentityRepository.
func NewIdentityRepository(db *sqlx.DB) *IdentityRepository {
	return &IdentityRepository{db: db}
}

// IsDeveloper calls the is_dev database function for the user.
func (r *IdentityRepository) IsDeveloper(ctx context.Context, userID string) (bool, error) {
	return r.flag(ctx, "SELECT COALESCE(is_dev($1), false)", userID, "is_dev")
}

// IsAdmin calls the is_admin database function for the user.
func (r *IdentityRepository) IsAdmin(ctx context.Context, userID string) (bool, error) {
	return r.flag(ctx, "SELECT COALESCE(is_admin($1), false)", userID, "is_admin")
}

// InDevUsers reports membership in the dev_users table.
func (r *IdentityRepository) InDevUsers(ctx context.Context, userID string) (bool, error) {
	return r.flag(ctx, "SELECT EXISTS (SELECT 1 FROM dev_users WHERE user_id = $1)", userID, "dev_users")
}

// InAdminUsers reports membership in the admin_users table.
func (r *IdentityRepository) InAdminUsers(ctx context.Context, userID string) (bool, error) {
	return r.flag(ctx, "SELECT EXISTS (SELECT 1 FROM admin_users WHERE user_id = $1)", userID, "admin_users")
}

func (r *IdentityRepository) flag(ctx context.Context, query, userID, label string) (bool, error) {
	var ok bool
	if err := r.db.GetContext(ctx, &ok, query, userID); err != nil {
		return false, fmt.Errorf("%s lookup: %w", label, err)
	}
	return ok, nil
}

// ProfileName returns the display name stored in user_profiles, or nil when absent.
func (r *IdentityRepository) ProfileName(ctx context.Context, userID string) (*string, error) {
	var name sql.NullString
	err := r.db.GetContext(ctx, &name, "SELECT nome FROM user_profiles WHERE id = $1", userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("profile name lookup: %w", err)
	}
	if !name.Valid {
		return nil, nil
	}
	return &name.String, nil
}

// FindUserIDsByEmail returns ids of auth users whose e-mail contains fragment, case-insensitively.
func (r *IdentityRepository) FindUserIDsByEmail(ctx context.Context, fragment string) ([]string, error) {
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, "SELECT id FROM auth.users WHERE email ILIKE $1", "%"+fragment+"%"); err != nil {
		return nil, fmt.Errorf("find users by email: %w", err)
	}
	return ids, nil
}
