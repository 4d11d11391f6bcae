package role

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"paralelogram/internal/user/models"
	"paralelogram/pkg/platform/sentinel"
)

// PostgresStore reads realm roles mirrored in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed role store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// FindByRoleName returns sentinel.ErrNotFound for unknown role names.
func (s *PostgresStore) FindByRoleName(ctx context.Context, roleName string) (*models.Role, error) {
	var r models.Role
	err := s.db.QueryRowContext(ctx,
		`SELECT id, role_id, role_name FROM paralelogram_roles WHERE role_name = $1`, roleName,
	).Scan(&r.ID, &r.RoleID, &r.RoleName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("role %s: %w", roleName, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find role by name: %w", err)
	}
	return &r, nil
}
