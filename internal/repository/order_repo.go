package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/coolwednesday/bookstore-go-app/internal/apperr"
	"github.com/coolwednesday/bookstore-go-app/internal/db"
	"github.com/coolwednesday/bookstore-go-app/internal/metrics"
	"github.com/coolwednesday/bookstore-go-app/internal/models"
)

// OrderRepo persists orders and their snapshotted items.
type OrderRepo struct {
	db      *db.DB
	metrics *metrics.AppMetrics
}

func NewOrderRepo(database *db.DB, m *metrics.AppMetrics) *OrderRepo {
	return &OrderRepo{db: database, metrics: m}
}

// Create writes the order and its items and consumes the backing cart lines in
// a single transaction. The cart lines are locked and re-checked inside the
// transaction so two concurrent checkouts of the same cart cannot both commit:
// the loser finds its lines already consumed and gets a not-found error.
func (r *OrderRepo) Create(ctx context.Context, order *models.Order, items []models.OrderItem, cartItemIDs []int64) (*models.Order, error) {
	if len(items) == 0 || len(cartItemIDs) == 0 {
		return nil, apperr.NotFound("shopping cart for user %d is empty", order.UserID)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	placeholders := make([]string, len(cartItemIDs))
	args := make([]interface{}, len(cartItemIDs))
	for i, id := range cartItemIDs {
		placeholders[i] = "?"
		args[i] = id
	}
	in := strings.Join(placeholders, ",")

	// Lock the cart lines this order is built from.
	start := time.Now()
	lockQuery := fmt.Sprintf("SELECT id FROM cart_items WHERE id IN (%s) AND is_deleted = 0 FOR UPDATE", in)
	rows, err := tx.QueryContext(ctx, lockQuery, args...)
	r.metrics.RecordDBQuery(ctx, "SELECT", "cart_items", lockQuery, start, err == nil)
	if err != nil {
		return nil, fmt.Errorf("failed to lock cart items: %w", err)
	}
	locked := 0
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan cart item id: %w", err)
		}
		locked++
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to lock cart items: %w", err)
	}
	if locked != len(cartItemIDs) {
		// A concurrent checkout already consumed (some of) these lines.
		return nil, apperr.NotFound("shopping cart for user %d is empty", order.UserID)
	}

	start = time.Now()
	orderQuery := "INSERT INTO orders (user_id, status, total, order_date, shipping_address) VALUES (?, ?, ?, ?, ?)"
	result, err := tx.ExecContext(ctx, orderQuery, order.UserID, string(order.Status), order.Total, order.OrderDate, order.ShippingAddress)
	r.metrics.RecordDBQuery(ctx, "INSERT", "orders", orderQuery, start, err == nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	orderID, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get order ID: %w", err)
	}

	start = time.Now()
	itemQuery := "INSERT INTO order_items (order_id, book_id, quantity, price) VALUES (?, ?, ?, ?)"
	for i := range items {
		res, err := tx.ExecContext(ctx, itemQuery, orderID, items[i].BookID, items[i].Quantity, items[i].Price)
		if err != nil {
			r.metrics.RecordDBQuery(ctx, "INSERT", "order_items", itemQuery, start, false)
			return nil, fmt.Errorf("failed to create order item: %w", err)
		}
		itemID, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("failed to get order item ID: %w", err)
		}
		items[i].ID = itemID
		items[i].OrderID = orderID
	}
	r.metrics.RecordDBQuery(ctx, "INSERT", "order_items", itemQuery, start, true)

	// Consume the cart lines; the cart itself survives, empty.
	start = time.Now()
	clearQuery := fmt.Sprintf("UPDATE cart_items SET is_deleted = 1, updated_at = NOW() WHERE id IN (%s)", in)
	_, err = tx.ExecContext(ctx, clearQuery, args...)
	r.metrics.RecordDBQuery(ctx, "UPDATE", "cart_items", clearQuery, start, err == nil)
	if err != nil {
		return nil, fmt.Errorf("failed to clear cart items: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	committed = true

	order.ID = orderID
	order.Items = items
	return order, nil
}

// FindByIDAndUser returns the order only when it belongs to the user; nil otherwise.
func (r *OrderRepo) FindByIDAndUser(ctx context.Context, orderID, userID int64) (*models.Order, error) {
	start := time.Now()

	query := "SELECT id, user_id, status, total, order_date, shipping_address FROM orders WHERE id = ? AND user_id = ? AND is_deleted = 0"
	order, err := r.scanOrder(r.db.QueryRowContext(ctx, query, orderID, userID))
	r.metrics.RecordDBQuery(ctx, "SELECT", "orders", query, start, err == nil)
	return order, err
}

// FindByID returns an order regardless of owner, for privileged callers.
func (r *OrderRepo) FindByID(ctx context.Context, orderID int64) (*models.Order, error) {
	start := time.Now()

	query := "SELECT id, user_id, status, total, order_date, shipping_address FROM orders WHERE id = ? AND is_deleted = 0"
	order, err := r.scanOrder(r.db.QueryRowContext(ctx, query, orderID))
	r.metrics.RecordDBQuery(ctx, "SELECT", "orders", query, start, err == nil)
	return order, err
}

func (r *OrderRepo) scanOrder(row *sql.Row) (*models.Order, error) {
	var order models.Order
	var status string
	err := row.Scan(&order.ID, &order.UserID, &status, &order.Total, &order.OrderDate, &order.ShippingAddress)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	order.Status = models.OrderStatus(status)
	return &order, nil
}

// ListByUser returns the user's orders, newest first.
func (r *OrderRepo) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]models.Order, error) {
	start := time.Now()

	query := "SELECT id, user_id, status, total, order_date, shipping_address FROM orders WHERE user_id = ? AND is_deleted = 0 ORDER BY order_date DESC, id DESC LIMIT ? OFFSET ?"
	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	r.metrics.RecordDBQuery(ctx, "SELECT", "orders", query, start, err == nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders for user %d: %w", userID, err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var order models.Order
		var status string
		if err := rows.Scan(&order.ID, &order.UserID, &status, &order.Total, &order.OrderDate, &order.ShippingAddress); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		order.Status = models.OrderStatus(status)
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

// ListItems returns the order's live snapshot items.
func (r *OrderRepo) ListItems(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	start := time.Now()

	query := "SELECT id, order_id, book_id, quantity, price FROM order_items WHERE order_id = ? AND is_deleted = 0 ORDER BY id"
	rows, err := r.db.QueryContext(ctx, query, orderID)
	r.metrics.RecordDBQuery(ctx, "SELECT", "order_items", query, start, err == nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list items for order %d: %w", orderID, err)
	}
	defer rows.Close()

	var items []models.OrderItem
	for rows.Next() {
		var item models.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.BookID, &item.Quantity, &item.Price); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// UpdateStatus persists a new status. Existence is the caller's concern; the
// service resolves the order first to build the event payload anyway.
func (r *OrderRepo) UpdateStatus(ctx context.Context, orderID int64, status models.OrderStatus) error {
	start := time.Now()

	query := "UPDATE orders SET status = ? WHERE id = ? AND is_deleted = 0"
	_, err := r.db.ExecContext(ctx, query, string(status), orderID)
	r.metrics.RecordDBQuery(ctx, "UPDATE", "orders", query, start, err == nil)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	return nil
}
