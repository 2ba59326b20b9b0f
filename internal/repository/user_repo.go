package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/coolwednesday/bookstore-go-app/internal/db"
	"github.com/coolwednesday/bookstore-go-app/internal/metrics"
	"github.com/coolwednesday/bookstore-go-app/internal/models"
)

// UserRepo persists accounts, role assignments and login sessions.
type UserRepo struct {
	db      *db.DB
	metrics *metrics.AppMetrics
}

func NewUserRepo(database *db.DB, m *metrics.AppMetrics) *UserRepo {
	return &UserRepo{db: database, metrics: m}
}

const userColumns = "id, email, password_hash, first_name, last_name, shipping_address, created_at"

// Insert writes a user and assigns the given role in one transaction.
func (r *UserRepo) Insert(ctx context.Context, user *models.User, roleName string) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	start := time.Now()
	query := "INSERT INTO users (email, password_hash, first_name, last_name, shipping_address) VALUES (?, ?, ?, ?, ?)"
	result, err := tx.ExecContext(ctx, query, user.Email, user.PasswordHash, user.FirstName, user.LastName, user.ShippingAddress)
	r.metrics.RecordDBQuery(ctx, "INSERT", "users", query, start, err == nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get user ID: %w", err)
	}

	roleQuery := "INSERT INTO user_roles (user_id, role_id) SELECT ?, id FROM roles WHERE name = ?"
	if _, err := tx.ExecContext(ctx, roleQuery, id, roleName); err != nil {
		return 0, fmt.Errorf("failed to assign role %s: %w", roleName, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	committed = true
	return id, nil
}

// FindByEmail returns the user with roles, or nil if unknown.
func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE email = ? AND is_deleted = 0"
	return r.findOne(ctx, query, email)
}

// FindByID returns the user with roles, or nil if unknown.
func (r *UserRepo) FindByID(ctx context.Context, id int64) (*models.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE id = ? AND is_deleted = 0"
	return r.findOne(ctx, query, id)
}

func (r *UserRepo) findOne(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	start := time.Now()

	var user models.User
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.FirstName,
		&user.LastName, &user.ShippingAddress, &user.CreatedAt,
	)
	r.metrics.RecordDBQuery(ctx, "SELECT", "users", query, start, err == nil || errors.Is(err, sql.ErrNoRows))

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	roles, err := r.listRoles(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	user.Roles = roles
	return &user, nil
}

func (r *UserRepo) listRoles(ctx context.Context, userID int64) ([]string, error) {
	query := "SELECT r.name FROM roles r JOIN user_roles ur ON ur.role_id = r.id WHERE ur.user_id = ?"
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles for user %d: %w", userID, err)
	}
	defer rows.Close()

	var roles []string
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// CreateSession persists a login token.
func (r *UserRepo) CreateSession(ctx context.Context, session models.Session) error {
	start := time.Now()

	query := "INSERT INTO sessions (token, user_id, expires_at) VALUES (?, ?, ?)"
	_, err := r.db.ExecContext(ctx, query, session.Token, session.UserID, session.ExpiresAt)
	r.metrics.RecordDBQuery(ctx, "INSERT", "sessions", query, start, err == nil)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// FindSessionUser resolves an unexpired token to its user, or nil.
func (r *UserRepo) FindSessionUser(ctx context.Context, token string) (*models.User, error) {
	start := time.Now()

	query := `
		SELECT u.id, u.email, u.password_hash, u.first_name, u.last_name, u.shipping_address, u.created_at
		FROM sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.token = ? AND s.expires_at > NOW() AND u.is_deleted = 0
	`
	var user models.User
	err := r.db.QueryRowContext(ctx, query, token).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.FirstName,
		&user.LastName, &user.ShippingAddress, &user.CreatedAt,
	)
	r.metrics.RecordDBQuery(ctx, "SELECT", "sessions", query, start, err == nil || errors.Is(err, sql.ErrNoRows))

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve session: %w", err)
	}

	roles, err := r.listRoles(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	user.Roles = roles
	return &user, nil
}
