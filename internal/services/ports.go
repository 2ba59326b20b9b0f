// Package services implements the bookstore's business operations over
// storage interfaces. Every operation takes the resolved user id explicitly;
// nothing is read from ambient state.
package services

import (
	"context"

	"github.com/coolwednesday/bookstore-go-app/internal/models"
)

// Storage interfaces required by the services. The SQL implementations live
// in internal/repository; tests substitute in-memory fakes.

type BookStore interface {
	Insert(ctx context.Context, book *models.Book) (int64, error)
	Update(ctx context.Context, book *models.Book) (bool, error)
	FindByID(ctx context.Context, id int64) (*models.Book, error)
	SoftDelete(ctx context.Context, id int64) (bool, error)
	List(ctx context.Context, limit, offset int) ([]models.Book, error)
	Search(ctx context.Context, params models.BookSearchParams, limit, offset int) ([]models.Book, error)
	ListByCategory(ctx context.Context, categoryID int64) ([]models.Book, error)
	AddCategory(ctx context.Context, bookID, categoryID int64) error
}

type CategoryStore interface {
	Insert(ctx context.Context, category *models.Category) (int64, error)
	FindByID(ctx context.Context, id int64) (*models.Category, error)
	Update(ctx context.Context, category *models.Category) (bool, error)
	SoftDelete(ctx context.Context, id int64) (bool, error)
	List(ctx context.Context, limit, offset int) ([]models.Category, error)
}

type CartStore interface {
	FindByUser(ctx context.Context, userID int64) (*models.ShoppingCart, error)
	FindByID(ctx context.Context, id int64) (*models.ShoppingCart, error)
	Create(ctx context.Context, userID int64) (*models.ShoppingCart, error)
	ListLines(ctx context.Context, cartID int64) ([]models.CartLine, error)
	FindItem(ctx context.Context, itemID int64) (*models.CartItem, error)
	InsertItem(ctx context.Context, cartID, bookID int64, quantity int) (int64, error)
	UpdateItemQuantity(ctx context.Context, itemID int64, quantity int) (bool, error)
	SoftDeleteItem(ctx context.Context, itemID int64) (bool, error)
	CountItems(ctx context.Context, cartID int64) (int, error)
}

type OrderStore interface {
	Create(ctx context.Context, order *models.Order, items []models.OrderItem, cartItemIDs []int64) (*models.Order, error)
	FindByIDAndUser(ctx context.Context, orderID, userID int64) (*models.Order, error)
	FindByID(ctx context.Context, orderID int64) (*models.Order, error)
	ListByUser(ctx context.Context, userID int64, limit, offset int) ([]models.Order, error)
	ListItems(ctx context.Context, orderID int64) ([]models.OrderItem, error)
	UpdateStatus(ctx context.Context, orderID int64, status models.OrderStatus) error
}

type UserStore interface {
	Insert(ctx context.Context, user *models.User, roleName string) (int64, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id int64) (*models.User, error)
	CreateSession(ctx context.Context, session models.Session) error
	FindSessionUser(ctx context.Context, token string) (*models.User, error)
}
