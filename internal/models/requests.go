package models

import "github.com/shopspring/decimal"

// CreateBookRequest is the payload for creating or replacing a book.
type CreateBookRequest struct {
	Title       string          `json:"title"`
	Author      string          `json:"author"`
	ISBN        string          `json:"isbn"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	CoverImage  string          `json:"cover_image"`
	CategoryIDs []int64         `json:"category_ids"`
}

// BookSearchParams filters the catalog by authors and an inclusive price range.
type BookSearchParams struct {
	Authors  []string         `json:"authors"`
	MinPrice *decimal.Decimal `json:"min_price"`
	MaxPrice *decimal.Decimal `json:"max_price"`
}

// CategoryRequest is the payload for creating or replacing a category.
type CategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// AddToCartRequest adds one line to the caller's cart.
type AddToCartRequest struct {
	BookID   int64 `json:"book_id"`
	Quantity int   `json:"quantity"`
}

// UpdateCartItemRequest replaces a line's quantity.
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

// PlaceOrderRequest starts checkout of the caller's cart.
type PlaceOrderRequest struct {
	ShippingAddress string `json:"shipping_address"`
}

// UpdateOrderStatusRequest moves an order to a new status.
type UpdateOrderStatusRequest struct {
	Status string `json:"status"`
}

// RegisterRequest creates a new account.
type RegisterRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	RepeatPassword  string `json:"repeat_password"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	ShippingAddress string `json:"shipping_address"`
}

// LoginRequest authenticates an existing account.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the opaque session token.
type LoginResponse struct {
	Token string `json:"token"`
}
