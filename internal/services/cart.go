package services

import (
	"context"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/coolwednesday/bookstore-go-app/internal/apperr"
	"github.com/coolwednesday/bookstore-go-app/internal/metrics"
	"github.com/coolwednesday/bookstore-go-app/internal/models"
)

// CartService maintains the single active cart per user and its lines. Every
// mutation is scoped to the owning user; a line belonging to someone else is
// reported as missing rather than forbidden.
type CartService struct {
	carts   CartStore
	books   BookStore
	metrics *metrics.AppMetrics
}

// NewCartService creates a new cart service
func NewCartService(carts CartStore, books BookStore, m *metrics.AppMetrics) *CartService {
	return &CartService{carts: carts, books: books, metrics: m}
}

// GetOrCreate returns the user's cart, creating an empty one on first use.
func (s *CartService) GetOrCreate(ctx context.Context, userID int64) (*models.ShoppingCart, error) {
	cart, err := s.carts.FindByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Storage("failed to load cart", err)
	}
	if cart != nil {
		return cart, nil
	}

	cart, err = s.carts.Create(ctx, userID)
	if err != nil {
		// lost a race with a concurrent first add on the user_id unique key;
		// use the winner's cart
		if isDuplicateEntry(err) {
			cart, err = s.carts.FindByUser(ctx, userID)
			if err == nil && cart != nil {
				return cart, nil
			}
		}
		return nil, apperr.Storage("failed to create cart", err)
	}
	return cart, nil
}

// AddItem appends a new line for the book. Each add creates a distinct line;
// lines for the same book are never merged.
func (s *CartService) AddItem(ctx context.Context, userID, bookID int64, quantity int) (*models.CartView, error) {
	book, err := s.books.FindByID(ctx, bookID)
	if err != nil {
		return nil, apperr.Storage("failed to load book", err)
	}
	if book == nil {
		return nil, apperr.NotFound("book with id %d not found", bookID)
	}

	cart, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	if _, err := s.carts.InsertItem(ctx, cart.ID, bookID, quantity); err != nil {
		return nil, apperr.Storage("failed to add item to cart", err)
	}

	s.recordCartSize(ctx, cart.ID, userID)
	return s.view(ctx, cart)
}

// UpdateItemQuantity replaces a line's quantity and returns the owner's cart view.
func (s *CartService) UpdateItemQuantity(ctx context.Context, userID, itemID int64, quantity int) (*models.CartView, error) {
	cart, err := s.ownedCartOfItem(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}

	ok, err := s.carts.UpdateItemQuantity(ctx, itemID, quantity)
	if err != nil {
		return nil, apperr.Storage("failed to update cart item", err)
	}
	if !ok {
		return nil, apperr.NotFound("cart item with id %d not found", itemID)
	}

	return s.view(ctx, cart)
}

// RemoveItem soft-deletes a line. Removing an already-removed id reports the
// item as missing, matching direct-delete semantics.
func (s *CartService) RemoveItem(ctx context.Context, userID, itemID int64) (*models.CartView, error) {
	cart, err := s.ownedCartOfItem(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}

	ok, err := s.carts.SoftDeleteItem(ctx, itemID)
	if err != nil {
		return nil, apperr.Storage("failed to remove cart item", err)
	}
	if !ok {
		return nil, apperr.NotFound("cart item with id %d not found", itemID)
	}

	s.recordCartSize(ctx, cart.ID, userID)
	return s.view(ctx, cart)
}

// ViewCart returns the read projection of the user's cart and its live lines.
// Reads persist nothing: a user who never added an item gets an empty view
// and no cart row.
func (s *CartService) ViewCart(ctx context.Context, userID int64) (*models.CartView, error) {
	cart, err := s.carts.FindByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Storage("failed to load cart", err)
	}
	if cart == nil {
		return &models.CartView{UserID: userID, Items: []models.CartLine{}, Total: decimal.Zero}, nil
	}
	return s.view(ctx, cart)
}

// ownedCartOfItem resolves a live item to its cart and checks the cart belongs
// to userID. Any failure along the way is a not-found, never a forbidden, so
// foreign item ids cannot be probed.
func (s *CartService) ownedCartOfItem(ctx context.Context, userID, itemID int64) (*models.ShoppingCart, error) {
	item, err := s.carts.FindItem(ctx, itemID)
	if err != nil {
		return nil, apperr.Storage("failed to load cart item", err)
	}
	if item == nil {
		return nil, apperr.NotFound("cart item with id %d not found", itemID)
	}

	cart, err := s.carts.FindByID(ctx, item.CartID)
	if err != nil {
		return nil, apperr.Storage("failed to load cart", err)
	}
	if cart == nil || cart.UserID != userID {
		return nil, apperr.NotFound("cart item with id %d not found", itemID)
	}
	return cart, nil
}

func (s *CartService) view(ctx context.Context, cart *models.ShoppingCart) (*models.CartView, error) {
	lines, err := s.carts.ListLines(ctx, cart.ID)
	if err != nil {
		return nil, apperr.Storage("failed to list cart items", err)
	}

	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	if lines == nil {
		lines = []models.CartLine{}
	}
	return &models.CartView{ID: cart.ID, UserID: cart.UserID, Items: lines, Total: total}, nil
}

func (s *CartService) recordCartSize(ctx context.Context, cartID, userID int64) {
	count, err := s.carts.CountItems(ctx, cartID)
	if err != nil {
		return
	}
	s.metrics.CartItemsCount.Record(ctx, int64(count), metric.WithAttributes(s.metrics.WithServiceName([]attribute.KeyValue{
		attribute.Int64("user_id", userID),
	})...))
}
