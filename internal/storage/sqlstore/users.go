package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/levipshemish/jewgo-api/internal/models"
	"github.com/levipshemish/jewgo-api/internal/storage"
)

const userCols = "id, email, name, password_hash, role, is_guest, created_at, updated_at"

// CreateUser inserts a new user. A colliding email maps to
// storage.ErrDuplicateEmail; guest accounts have no email and never collide.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	now := time.Now().Unix()
	if user.CreatedAt == 0 {
		user.CreatedAt = now
	}
	if user.UpdatedAt == 0 {
		user.UpdatedAt = now
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO users (id, email, name, password_hash, role, is_guest, created_at, updated_at)
		VALUES (:id, :email, :name, :password_hash, :role, :is_guest, :created_at, :updated_at)
	`, user)
	if isUniqueViolation(err) {
		return storage.ErrDuplicateEmail
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByEmail retrieves a user by their email address.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user := &models.User{}
	err := s.db.GetContext(ctx, user,
		"SELECT "+userCols+" FROM users WHERE email = $1 AND email <> ''", email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return user, nil
}

// GetUserByID retrieves a user by their ID.
func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	user := &models.User{}
	err := s.db.GetContext(ctx, user,
		"SELECT "+userCols+" FROM users WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}
	return user, nil
}

// UpdateUserRole changes a user's role.
func (s *Store) UpdateUserRole(ctx context.Context, id string, role models.Role) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE users SET role = $1, updated_at = $2 WHERE id = $3",
		role, time.Now().Unix(), id)
	if err != nil {
		return fmt.Errorf("failed to update user role: %w", err)
	}
	return requireRow(res)
}

// DeleteUser removes a user account. Their reviews keep the denormalized
// author name.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM users WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return requireRow(res)
}

// ListUsers returns users matching the filter plus the total count.
func (s *Store) ListUsers(ctx context.Context, f storage.UserFilter) ([]*models.User, int, error) {
	w := &whereBuilder{}
	if f.Query != "" {
		p := likePattern(f.Query)
		w.add("(lower(email) LIKE $%d OR lower(name) LIKE $%d)", p, p)
	}
	if f.Role != "" {
		w.add("role = $%d", f.Role)
	}

	total, err := s.count(ctx, "users", w)
	if err != nil {
		return nil, 0, err
	}

	limit, offset := storage.Window(f.Page, f.Limit)
	query := "SELECT " + userCols + " FROM users" + w.clause() +
		fmt.Sprintf(" ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d", w.next(), w.next()+1)
	args := append(w.args, limit, offset)

	var rows []*models.User
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return rows, total, nil
}
