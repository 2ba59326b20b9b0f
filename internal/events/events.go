// Package events publishes order lifecycle events to RabbitMQ.
package events

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Routing keys on the orders topic exchange.
const (
	RoutingKeyOrderPlaced        = "order.placed"
	RoutingKeyOrderStatusChanged = "order.status_changed"
)

// OrderPlaced is emitted after a checkout commits.
type OrderPlaced struct {
	OrderID  int64     `json:"order_id"`
	UserID   int64     `json:"user_id"`
	Total    string    `json:"total"`
	Status   string    `json:"status"`
	PlacedAt time.Time `json:"placed_at"`
}

// OrderStatusChanged is emitted after an administrator moves an order.
type OrderStatusChanged struct {
	OrderID   int64     `json:"order_id"`
	UserID    int64     `json:"user_id"`
	Status    string    `json:"status"`
	ChangedAt time.Time `json:"changed_at"`
}

// Publisher sends JSON events by routing key. Implementations must be safe
// for concurrent use by request handlers.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, v any) error
	Close()
}

// Rabbit publishes to a durable topic exchange.
type Rabbit struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

func NewRabbit(url, exchange string) (*Rabbit, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	return &Rabbit{conn: conn, ch: ch, exchange: exchange}, nil
}

func (r *Rabbit) Publish(ctx context.Context, routingKey string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return r.ch.PublishWithContext(ctx, r.exchange, routingKey, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
}

func (r *Rabbit) Close() {
	if r.ch != nil {
		_ = r.ch.Close()
	}
	if r.conn != nil {
		_ = r.conn.Close()
	}
}

// Nop discards events. Used when no broker is configured.
type Nop struct{}

func (Nop) Publish(ctx context.Context, routingKey string, v any) error { return nil }

func (Nop) Close() {}
