package models

import (
	"strings"

	"github.com/coolwednesday/bookstore-go-app/internal/apperr"
)

// OrderStatus is the lifecycle state of an order. The natural progression is
// NEW → PROCESSED → SHIPPED → DELIVERED, with CANCELED reachable from NEW.
// Transitions are applied by administrators and are not restricted to the
// forward direction.
type OrderStatus string

const (
	OrderStatusNew       OrderStatus = "NEW"
	OrderStatusProcessed OrderStatus = "PROCESSED"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusDelivered OrderStatus = "DELIVERED"
	OrderStatusCanceled  OrderStatus = "CANCELED"
)

// ParseOrderStatus matches s against the known statuses, case-insensitively.
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch OrderStatus(strings.ToUpper(strings.TrimSpace(s))) {
	case OrderStatusNew:
		return OrderStatusNew, nil
	case OrderStatusProcessed:
		return OrderStatusProcessed, nil
	case OrderStatusShipped:
		return OrderStatusShipped, nil
	case OrderStatusDelivered:
		return OrderStatusDelivered, nil
	case OrderStatusCanceled:
		return OrderStatusCanceled, nil
	default:
		return "", apperr.InvalidArgument("unknown order status %q", s)
	}
}
