package services

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/coolwednesday/bookstore-go-app/internal/apperr"
	"github.com/coolwednesday/bookstore-go-app/internal/events"
	"github.com/coolwednesday/bookstore-go-app/internal/metrics"
	"github.com/coolwednesday/bookstore-go-app/internal/models"
)

// OrderService converts carts into orders and manages order status. Orders
// are immutable after placement except for the status, which only privileged
// callers may change.
type OrderService struct {
	orders    OrderStore
	carts     CartStore
	publisher events.Publisher
	metrics   *metrics.AppMetrics
}

// NewOrderService creates a new order service
func NewOrderService(orders OrderStore, carts CartStore, publisher events.Publisher, m *metrics.AppMetrics) *OrderService {
	return &OrderService{orders: orders, carts: carts, publisher: publisher, metrics: m}
}

// PlaceOrder checks out the user's cart. Each cart line is snapshotted with
// the book's price at this moment; the order total is the sum of those
// snapshots and is never re-derived from the catalog. The storage layer
// commits the order, its items and the cart clearing atomically.
func (s *OrderService) PlaceOrder(ctx context.Context, userID int64, shippingAddress string) (*models.Order, error) {
	cart, err := s.carts.FindByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Storage("failed to load cart", err)
	}
	if cart == nil {
		return nil, apperr.NotFound("shopping cart for user %d not found", userID)
	}

	lines, err := s.carts.ListLines(ctx, cart.ID)
	if err != nil {
		return nil, apperr.Storage("failed to list cart items", err)
	}
	if len(lines) == 0 {
		return nil, apperr.NotFound("shopping cart for user %d is empty", userID)
	}

	total := decimal.Zero
	items := make([]models.OrderItem, 0, len(lines))
	cartItemIDs := make([]int64, 0, len(lines))
	for _, line := range lines {
		total = total.Add(line.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
		items = append(items, models.OrderItem{
			BookID:   line.BookID,
			Quantity: line.Quantity,
			Price:    line.Price,
		})
		cartItemIDs = append(cartItemIDs, line.ID)
	}

	order := &models.Order{
		UserID:          userID,
		Status:          models.OrderStatusNew,
		Total:           total,
		OrderDate:       time.Now(),
		ShippingAddress: shippingAddress,
	}

	created, err := s.orders.Create(ctx, order, items, cartItemIDs)
	if err != nil {
		if apperr.KindOf(err) != 0 {
			return nil, err
		}
		return nil, apperr.Storage("failed to place order", err)
	}

	s.metrics.CartItemsCount.Record(ctx, 0, metric.WithAttributes(s.metrics.WithServiceName([]attribute.KeyValue{
		attribute.Int64("user_id", userID),
	})...))

	attrs := s.metrics.WithServiceName([]attribute.KeyValue{
		attribute.String("order_status", string(created.Status)),
	})
	s.metrics.OrdersPlaced.Add(ctx, 1, metric.WithAttributes(attrs...))
	s.metrics.RevenueTotal.Add(ctx, created.Total.InexactFloat64(), metric.WithAttributes(attrs...))

	if err := s.publisher.Publish(ctx, events.RoutingKeyOrderPlaced, events.OrderPlaced{
		OrderID:  created.ID,
		UserID:   created.UserID,
		Total:    created.Total.StringFixed(2),
		Status:   string(created.Status),
		PlacedAt: created.OrderDate,
	}); err != nil {
		log.Warn().Err(err).Int64("order_id", created.ID).Msg("failed to publish order.placed event")
	}

	log.Info().
		Int64("order_id", created.ID).
		Int64("user_id", created.UserID).
		Str("total", created.Total.StringFixed(2)).
		Int("items", len(created.Items)).
		Msg("order placed")

	return created, nil
}

// GetOrder returns one of the user's orders with its items. Orders owned by
// other users look like missing orders.
func (s *OrderService) GetOrder(ctx context.Context, userID, orderID int64) (*models.Order, error) {
	order, err := s.orders.FindByIDAndUser(ctx, orderID, userID)
	if err != nil {
		return nil, apperr.Storage("failed to load order", err)
	}
	if order == nil {
		return nil, apperr.NotFound("order with id %d not found", orderID)
	}

	items, err := s.orders.ListItems(ctx, order.ID)
	if err != nil {
		return nil, apperr.Storage("failed to list order items", err)
	}
	order.Items = items
	return order, nil
}

// ListOrders returns a page of the user's orders, without items.
func (s *OrderService) ListOrders(ctx context.Context, userID int64, limit, offset int) ([]models.Order, error) {
	orders, err := s.orders.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, apperr.Storage("failed to list orders", err)
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return orders, nil
}

// ListOrderItems returns the items of one of the user's orders.
func (s *OrderService) ListOrderItems(ctx context.Context, userID, orderID int64) ([]models.OrderItem, error) {
	order, err := s.orders.FindByIDAndUser(ctx, orderID, userID)
	if err != nil {
		return nil, apperr.Storage("failed to load order", err)
	}
	if order == nil {
		return nil, apperr.NotFound("order with id %d not found", orderID)
	}

	items, err := s.orders.ListItems(ctx, order.ID)
	if err != nil {
		return nil, apperr.Storage("failed to list order items", err)
	}
	if items == nil {
		items = []models.OrderItem{}
	}
	return items, nil
}

// GetOrderItem returns a single item from one of the user's orders.
func (s *OrderService) GetOrderItem(ctx context.Context, userID, orderID, itemID int64) (*models.OrderItem, error) {
	items, err := s.ListOrderItems(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].ID == itemID {
			return &items[i], nil
		}
	}
	return nil, apperr.NotFound("order item with id %d not found", itemID)
}

// UpdateStatus moves an order to the given status. Privileged: the order is
// looked up without a user scope, and any recognized status is accepted
// regardless of the current one.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID int64, newStatus string) (*models.Order, error) {
	status, err := models.ParseOrderStatus(newStatus)
	if err != nil {
		return nil, err
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, apperr.Storage("failed to load order", err)
	}
	if order == nil {
		return nil, apperr.NotFound("order with id %d not found", orderID)
	}

	if err := s.orders.UpdateStatus(ctx, orderID, status); err != nil {
		return nil, apperr.Storage("failed to update order status", err)
	}
	order.Status = status

	items, err := s.orders.ListItems(ctx, order.ID)
	if err != nil {
		return nil, apperr.Storage("failed to list order items", err)
	}
	order.Items = items

	if err := s.publisher.Publish(ctx, events.RoutingKeyOrderStatusChanged, events.OrderStatusChanged{
		OrderID:   order.ID,
		UserID:    order.UserID,
		Status:    string(order.Status),
		ChangedAt: time.Now(),
	}); err != nil {
		log.Warn().Err(err).Int64("order_id", order.ID).Msg("failed to publish order.status_changed event")
	}

	log.Info().
		Int64("order_id", order.ID).
		Str("status", string(order.Status)).
		Msg("order status updated")

	return order, nil
}
