package cache

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coolwednesday/bookstore-go-app/internal/metrics"
	"github.com/coolwednesday/bookstore-go-app/internal/models"
)

func TestBooksCache(t *testing.T) {
	c, err := NewBooks(2, metrics.NewNoop("test"))
	require.NoError(t, err)

	ctx := context.Background()

	_, ok := c.Get(ctx, 1)
	assert.False(t, ok)

	c.Put(models.Book{ID: 1, Title: "One", Price: decimal.RequireFromString("9.99")})
	got, ok := c.Get(ctx, 1)
	require.True(t, ok)
	assert.Equal(t, "One", got.Title)

	c.Remove(1)
	_, ok = c.Get(ctx, 1)
	assert.False(t, ok)
}

func TestBooksCacheEviction(t *testing.T) {
	c, err := NewBooks(2, metrics.NewNoop("test"))
	require.NoError(t, err)

	ctx := context.Background()
	c.Put(models.Book{ID: 1})
	c.Put(models.Book{ID: 2})
	c.Put(models.Book{ID: 3})

	// size 2: the oldest entry is gone
	_, ok := c.Get(ctx, 1)
	assert.False(t, ok)
	_, ok = c.Get(ctx, 3)
	assert.True(t, ok)
}
