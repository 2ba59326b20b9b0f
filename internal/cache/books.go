// Package cache provides a small in-process read cache for catalog lookups.
package cache

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.opentelemetry.io/otel/metric"

	"github.com/coolwednesday/bookstore-go-app/internal/metrics"
	"github.com/coolwednesday/bookstore-go-app/internal/models"
)

// Books caches books by id. Carts and checkout hit book rows on every price
// lookup, so the hot part of the catalog stays in memory. Mutations must call
// Remove to invalidate.
type Books struct {
	lru     *lru.Cache[int64, models.Book]
	metrics *metrics.AppMetrics
}

func NewBooks(size int, m *metrics.AppMetrics) (*Books, error) {
	c, err := lru.New[int64, models.Book](size)
	if err != nil {
		return nil, err
	}
	return &Books{lru: c, metrics: m}, nil
}

// Get returns the cached book, recording a hit or miss.
func (c *Books) Get(ctx context.Context, id int64) (models.Book, bool) {
	book, ok := c.lru.Get(id)
	if ok {
		c.metrics.CacheHits.Add(ctx, 1, metric.WithAttributes(c.metrics.WithServiceName(nil)...))
	} else {
		c.metrics.CacheMisses.Add(ctx, 1, metric.WithAttributes(c.metrics.WithServiceName(nil)...))
	}
	return book, ok
}

// Put stores a book.
func (c *Books) Put(book models.Book) {
	c.lru.Add(book.ID, book)
}

// Remove invalidates a book after an update or delete.
func (c *Books) Remove(id int64) {
	c.lru.Remove(id)
}
