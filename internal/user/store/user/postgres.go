package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"paralelogram/internal/platform/postgres"
	"paralelogram/internal/user/models"
	"paralelogram/pkg/platform/sentinel"
)

// PostgresStore persists users in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed user store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const selectUser = `
	SELECT u.id, u.user_id, u.user_name, u.email, u.first_name, u.last_name,
	       u.created_at, u.created_by, u.updated_at, u.updated_by,
	       r.id, r.role_id, r.role_name
	FROM paralelogram_user u
	JOIN paralelogram_roles r ON r.id = u.role_id
	WHERE u.user_name = $1`

// FindByUserName returns sentinel.ErrNotFound when no user has that name.
func (s *PostgresStore) FindByUserName(ctx context.Context, userName string) (*models.User, error) {
	var (
		u                          models.User
		role                       models.Role
		email, firstName, lastName sql.NullString
		createdBy, updatedBy       sql.NullString
	)
	err := s.db.QueryRowContext(ctx, selectUser, userName).Scan(
		&u.ID, &u.UserID, &u.UserName, &email, &firstName, &lastName,
		&u.CreatedAt, &createdBy, &u.UpdatedAt, &updatedBy,
		&role.ID, &role.RoleID, &role.RoleName,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", userName, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find user by name: %w", err)
	}
	u.Email = email.String
	u.FirstName = firstName.String
	u.LastName = lastName.String
	u.CreatedBy = createdBy.String
	u.UpdatedBy = updatedBy.String
	u.Role = &role
	return &u, nil
}

// Save inserts a new user and fills in its generated id and timestamps.
// A duplicate user name, remote id or email yields sentinel.ErrConflict.
func (s *PostgresStore) Save(ctx context.Context, u *models.User) error {
	if u.Role == nil {
		return fmt.Errorf("save user %s: %w", u.UserName, sentinel.ErrInvalidState)
	}
	query := `
		INSERT INTO paralelogram_user
			(user_id, user_name, email, first_name, last_name, role_id, created_by, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		RETURNING id, created_at, updated_at
	`
	err := s.db.QueryRowContext(ctx, query,
		u.UserID, u.UserName, nullable(u.Email), nullable(u.FirstName), nullable(u.LastName),
		u.Role.ID, nullable(u.CreatedBy),
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if postgres.IsUniqueViolation(err) {
		return fmt.Errorf("save user %s: %w", u.UserName, sentinel.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	u.UpdatedBy = u.CreatedBy
	return nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
