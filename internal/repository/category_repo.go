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

// CategoryRepo persists categories.
type CategoryRepo struct {
	db      *db.DB
	metrics *metrics.AppMetrics
}

func NewCategoryRepo(database *db.DB, m *metrics.AppMetrics) *CategoryRepo {
	return &CategoryRepo{db: database, metrics: m}
}

// Insert writes a category.
func (r *CategoryRepo) Insert(ctx context.Context, category *models.Category) (int64, error) {
	start := time.Now()

	query := "INSERT INTO categories (name, description) VALUES (?, ?)"
	result, err := r.db.ExecContext(ctx, query, category.Name, category.Description)
	r.metrics.RecordDBQuery(ctx, "INSERT", "categories", query, start, err == nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create category: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get category ID: %w", err)
	}
	return id, nil
}

// FindByID returns a category, or nil if missing or deleted.
func (r *CategoryRepo) FindByID(ctx context.Context, id int64) (*models.Category, error) {
	start := time.Now()

	query := "SELECT id, name, description, created_at, updated_at FROM categories WHERE id = ? AND is_deleted = 0"
	var category models.Category
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&category.ID, &category.Name, &category.Description, &category.CreatedAt, &category.UpdatedAt,
	)
	r.metrics.RecordDBQuery(ctx, "SELECT", "categories", query, start, err == nil || errors.Is(err, sql.ErrNoRows))

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category %d: %w", id, err)
	}
	return &category, nil
}

// Update replaces a category's fields. Returns false when it does not exist.
func (r *CategoryRepo) Update(ctx context.Context, category *models.Category) (bool, error) {
	start := time.Now()

	query := "UPDATE categories SET name = ?, description = ?, updated_at = NOW() WHERE id = ? AND is_deleted = 0"
	result, err := r.db.ExecContext(ctx, query, category.Name, category.Description, category.ID)
	r.metrics.RecordDBQuery(ctx, "UPDATE", "categories", query, start, err == nil)
	if err != nil {
		return false, fmt.Errorf("failed to update category %d: %w", category.ID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected > 0, nil
}

// SoftDelete flags a category as deleted.
func (r *CategoryRepo) SoftDelete(ctx context.Context, id int64) (bool, error) {
	start := time.Now()

	query := "UPDATE categories SET is_deleted = 1, updated_at = NOW() WHERE id = ? AND is_deleted = 0"
	result, err := r.db.ExecContext(ctx, query, id)
	r.metrics.RecordDBQuery(ctx, "UPDATE", "categories", query, start, err == nil)
	if err != nil {
		return false, fmt.Errorf("failed to delete category %d: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected > 0, nil
}

// List returns a page of live categories.
func (r *CategoryRepo) List(ctx context.Context, limit, offset int) ([]models.Category, error) {
	start := time.Now()

	query := "SELECT id, name, description, created_at, updated_at FROM categories WHERE is_deleted = 0 ORDER BY id LIMIT ? OFFSET ?"
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	r.metrics.RecordDBQuery(ctx, "SELECT", "categories", query, start, err == nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var category models.Category
		if err := rows.Scan(&category.ID, &category.Name, &category.Description, &category.CreatedAt, &category.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, category)
	}
	return categories, rows.Err()
}
