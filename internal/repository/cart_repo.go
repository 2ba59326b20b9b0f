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

// CartRepo persists shopping carts and their lines. Every read filters out
// soft-deleted rows; removals flip is_deleted instead of deleting.
type CartRepo struct {
	db      *db.DB
	metrics *metrics.AppMetrics
}

func NewCartRepo(database *db.DB, m *metrics.AppMetrics) *CartRepo {
	return &CartRepo{db: database, metrics: m}
}

// FindByUser returns the user's cart, or nil if none exists.
func (r *CartRepo) FindByUser(ctx context.Context, userID int64) (*models.ShoppingCart, error) {
	start := time.Now()

	query := "SELECT id, user_id, created_at, updated_at FROM shopping_carts WHERE user_id = ? AND is_deleted = 0 LIMIT 1"
	var cart models.ShoppingCart
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&cart.ID, &cart.UserID, &cart.CreatedAt, &cart.UpdatedAt,
	)
	r.metrics.RecordDBQuery(ctx, "SELECT", "shopping_carts", query, start, err == nil || errors.Is(err, sql.ErrNoRows))

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cart for user %d: %w", userID, err)
	}
	return &cart, nil
}

// FindByID returns a cart by id, or nil if missing or soft-deleted.
func (r *CartRepo) FindByID(ctx context.Context, id int64) (*models.ShoppingCart, error) {
	start := time.Now()

	query := "SELECT id, user_id, created_at, updated_at FROM shopping_carts WHERE id = ? AND is_deleted = 0"
	var cart models.ShoppingCart
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&cart.ID, &cart.UserID, &cart.CreatedAt, &cart.UpdatedAt,
	)
	r.metrics.RecordDBQuery(ctx, "SELECT", "shopping_carts", query, start, err == nil || errors.Is(err, sql.ErrNoRows))

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cart %d: %w", id, err)
	}
	return &cart, nil
}

// Create persists an empty cart for the user.
func (r *CartRepo) Create(ctx context.Context, userID int64) (*models.ShoppingCart, error) {
	start := time.Now()

	query := "INSERT INTO shopping_carts (user_id) VALUES (?)"
	result, err := r.db.ExecContext(ctx, query, userID)
	r.metrics.RecordDBQuery(ctx, "INSERT", "shopping_carts", query, start, err == nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cart for user %d: %w", userID, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get cart ID: %w", err)
	}

	now := time.Now()
	return &models.ShoppingCart{ID: id, UserID: userID, CreatedAt: now, UpdatedAt: now}, nil
}

// ListLines returns the cart's live lines joined with their books.
func (r *CartRepo) ListLines(ctx context.Context, cartID int64) ([]models.CartLine, error) {
	start := time.Now()

	query := `
		SELECT ci.id, ci.book_id, b.title, ci.quantity, b.price
		FROM cart_items ci
		JOIN books b ON ci.book_id = b.id
		WHERE ci.cart_id = ? AND ci.is_deleted = 0 AND b.is_deleted = 0
		ORDER BY ci.id
	`
	rows, err := r.db.QueryContext(ctx, query, cartID)
	r.metrics.RecordDBQuery(ctx, "SELECT", "cart_items", query, start, err == nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart items for cart %d: %w", cartID, err)
	}
	defer rows.Close()

	var lines []models.CartLine
	for rows.Next() {
		var line models.CartLine
		if err := rows.Scan(&line.ID, &line.BookID, &line.BookTitle, &line.Quantity, &line.Price); err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

// FindItem returns a live cart item by id, or nil if missing or removed.
func (r *CartRepo) FindItem(ctx context.Context, itemID int64) (*models.CartItem, error) {
	start := time.Now()

	query := "SELECT id, cart_id, book_id, quantity, created_at, updated_at FROM cart_items WHERE id = ? AND is_deleted = 0"
	var item models.CartItem
	err := r.db.QueryRowContext(ctx, query, itemID).Scan(
		&item.ID, &item.CartID, &item.BookID, &item.Quantity, &item.CreatedAt, &item.UpdatedAt,
	)
	r.metrics.RecordDBQuery(ctx, "SELECT", "cart_items", query, start, err == nil || errors.Is(err, sql.ErrNoRows))

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cart item %d: %w", itemID, err)
	}
	return &item, nil
}

// InsertItem appends a new line to the cart. It never merges with an existing
// line for the same book.
func (r *CartRepo) InsertItem(ctx context.Context, cartID, bookID int64, quantity int) (int64, error) {
	start := time.Now()

	query := "INSERT INTO cart_items (cart_id, book_id, quantity) VALUES (?, ?, ?)"
	result, err := r.db.ExecContext(ctx, query, cartID, bookID, quantity)
	r.metrics.RecordDBQuery(ctx, "INSERT", "cart_items", query, start, err == nil)
	if err != nil {
		return 0, fmt.Errorf("failed to add item to cart %d: %w", cartID, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get cart item ID: %w", err)
	}
	return id, nil
}

// UpdateItemQuantity replaces a line's quantity. Returns false when the line
// does not exist or was already removed. The connection sets clientFoundRows,
// so resubmitting the current quantity still counts the matched row.
func (r *CartRepo) UpdateItemQuantity(ctx context.Context, itemID int64, quantity int) (bool, error) {
	start := time.Now()

	query := "UPDATE cart_items SET quantity = ?, updated_at = NOW() WHERE id = ? AND is_deleted = 0"
	result, err := r.db.ExecContext(ctx, query, quantity, itemID)
	r.metrics.RecordDBQuery(ctx, "UPDATE", "cart_items", query, start, err == nil)
	if err != nil {
		return false, fmt.Errorf("failed to update cart item %d: %w", itemID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected > 0, nil
}

// SoftDeleteItem removes a line. Returns false when the line was already
// removed, so a second remove of the same id can be reported as missing.
func (r *CartRepo) SoftDeleteItem(ctx context.Context, itemID int64) (bool, error) {
	start := time.Now()

	query := "UPDATE cart_items SET is_deleted = 1, updated_at = NOW() WHERE id = ? AND is_deleted = 0"
	result, err := r.db.ExecContext(ctx, query, itemID)
	r.metrics.RecordDBQuery(ctx, "UPDATE", "cart_items", query, start, err == nil)
	if err != nil {
		return false, fmt.Errorf("failed to remove cart item %d: %w", itemID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected > 0, nil
}

// CountItems returns the number of live lines in the cart.
func (r *CartRepo) CountItems(ctx context.Context, cartID int64) (int, error) {
	start := time.Now()

	query := "SELECT COUNT(*) FROM cart_items WHERE cart_id = ? AND is_deleted = 0"
	var count int
	err := r.db.QueryRowContext(ctx, query, cartID).Scan(&count)
	r.metrics.RecordDBQuery(ctx, "SELECT", "cart_items", query, start, err == nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count cart items for cart %d: %w", cartID, err)
	}
	return count, nil
}
