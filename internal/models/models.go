package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Book represents a catalog entry. Category membership lives in the
// book_categories join table and is loaded separately.
type Book struct {
	ID          int64           `json:"id" db:"id"`
	Title       string          `json:"title" db:"title"`
	Author      string          `json:"author" db:"author"`
	ISBN        string          `json:"isbn" db:"isbn"`
	Price       decimal.Decimal `json:"price" db:"price"`
	Description string          `json:"description" db:"description"`
	CoverImage  string          `json:"cover_image" db:"cover_image"`
	CategoryIDs []int64         `json:"category_ids,omitempty" db:"-"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// Category groups books; many-to-many with Book.
type Category struct {
	ID          int64     `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// User represents an account. PasswordHash never leaves the service layer.
type User struct {
	ID              int64     `json:"id" db:"id"`
	Email           string    `json:"email" db:"email"`
	PasswordHash    string    `json:"-" db:"password_hash"`
	FirstName       string    `json:"first_name" db:"first_name"`
	LastName        string    `json:"last_name" db:"last_name"`
	ShippingAddress string    `json:"shipping_address" db:"shipping_address"`
	Roles           []string  `json:"roles,omitempty" db:"-"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// IsAdmin reports whether the user carries the ADMIN role.
func (u *User) IsAdmin() bool {
	for _, r := range u.Roles {
		if r == RoleAdmin {
			return true
		}
	}
	return false
}

// Role names seeded in the roles table.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// ShoppingCart is the single active cart of a user. It is created lazily on
// first use and survives checkout with its items soft-deleted.
type ShoppingCart struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// CartItem is one (book, quantity) line owned by a cart. Adding the same book
// twice produces two distinct lines.
type CartItem struct {
	ID        int64     `json:"id" db:"id"`
	CartID    int64     `json:"cart_id" db:"cart_id"`
	BookID    int64     `json:"book_id" db:"book_id"`
	Quantity  int       `json:"quantity" db:"quantity"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// CartLine is a cart item joined with its book for display and checkout.
// Price is the book's current catalog price, not a snapshot.
type CartLine struct {
	ID        int64           `json:"id"`
	BookID    int64           `json:"book_id"`
	BookTitle string          `json:"book_title"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// CartView is the read projection of a cart and its live lines.
type CartView struct {
	ID     int64           `json:"id"`
	UserID int64           `json:"user_id"`
	Items  []CartLine      `json:"items"`
	Total  decimal.Decimal `json:"total"`
}

// Order is an immutable record of a checkout. Total is fixed at placement and
// never recomputed from catalog prices.
type Order struct {
	ID              int64           `json:"id" db:"id"`
	UserID          int64           `json:"user_id" db:"user_id"`
	Status          OrderStatus     `json:"status" db:"status"`
	Total           decimal.Decimal `json:"total" db:"total"`
	OrderDate       time.Time       `json:"order_date" db:"order_date"`
	ShippingAddress string          `json:"shipping_address" db:"shipping_address"`
	Items           []OrderItem     `json:"items,omitempty" db:"-"`
}

// OrderItem snapshots one cart line at checkout. Price is the book's price at
// purchase time and must not change when the catalog price does.
type OrderItem struct {
	ID       int64           `json:"id" db:"id"`
	OrderID  int64           `json:"order_id" db:"order_id"`
	BookID   int64           `json:"book_id" db:"book_id"`
	Quantity int             `json:"quantity" db:"quantity"`
	Price    decimal.Decimal `json:"price" db:"price"`
}

// Session is an opaque login token with an expiry.
type Session struct {
	Token     string    `json:"token" db:"token"`
	UserID    int64     `json:"user_id" db:"user_id"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
}
