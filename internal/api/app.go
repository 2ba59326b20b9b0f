package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/coolwednesday/bookstore-go-app/internal/db"
	"github.com/coolwednesday/bookstore-go-app/internal/metrics"
	"github.com/coolwednesday/bookstore-go-app/internal/middleware"
	"github.com/coolwednesday/bookstore-go-app/internal/services"
	"github.com/coolwednesday/bookstore-go-app/pkg/config"
)

// App holds application dependencies
type App struct {
	config          *config.Config
	db              *db.DB
	metrics         *metrics.AppMetrics
	bookService     *services.BookService
	categoryService *services.CategoryService
	cartService     *services.CartService
	orderService    *services.OrderService
	userService     *services.UserService
}

// NewApp creates a new application instance
func NewApp(
	cfg *config.Config,
	database *db.DB,
	m *metrics.AppMetrics,
	bs *services.BookService,
	cats *services.CategoryService,
	cs *services.CartService,
	os *services.OrderService,
	us *services.UserService,
) *App {
	return &App{
		config:          cfg,
		db:              database,
		metrics:         m,
		bookService:     bs,
		categoryService: cats,
		cartService:     cs,
		orderService:    os,
		userService:     us,
	}
}

// SetupRoutes configures the HTTP routes
func (a *App) SetupRoutes(r *mux.Router) {
	// Middleware
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.CORSMiddleware)
	r.Use(middleware.RecoverMiddleware)
	r.Use(middleware.MetricsMiddleware(a.metrics))

	api := r.PathPrefix("/api/v1").Subrouter()

	// Auth
	api.HandleFunc("/auth/register", a.RegisterHandler).Methods("POST")
	api.HandleFunc("/auth/login", a.LoginHandler).Methods("POST")

	// Catalog, public reads
	api.HandleFunc("/books", a.ListBooksHandler).Methods("GET")
	api.HandleFunc("/books/search", a.SearchBooksHandler).Methods("GET")
	api.HandleFunc("/books/{id}", a.GetBookHandler).Methods("GET")
	api.HandleFunc("/categories", a.ListCategoriesHandler).Methods("GET")
	api.HandleFunc("/categories/{id}", a.GetCategoryHandler).Methods("GET")
	api.HandleFunc("/categories/{id}/books", a.ListBooksByCategoryHandler).Methods("GET")

	// Catalog, admin writes
	admin := api.NewRoute().Subrouter()
	admin.Use(middleware.AuthMiddleware(a.userService))
	admin.Use(middleware.RequireAdmin)
	admin.HandleFunc("/books", a.CreateBookHandler).Methods("POST")
	admin.HandleFunc("/books/{id}", a.UpdateBookHandler).Methods("PUT")
	admin.HandleFunc("/books/{id}", a.DeleteBookHandler).Methods("DELETE")
	admin.HandleFunc("/books/{id}/categories/{categoryId}", a.AddBookToCategoryHandler).Methods("POST")
	admin.HandleFunc("/categories", a.CreateCategoryHandler).Methods("POST")
	admin.HandleFunc("/categories/{id}", a.UpdateCategoryHandler).Methods("PUT")
	admin.HandleFunc("/categories/{id}", a.DeleteCategoryHandler).Methods("DELETE")
	admin.HandleFunc("/orders/{id}/status", a.UpdateOrderStatusHandler).Methods("PUT")

	// Cart and orders, authenticated
	authed := api.NewRoute().Subrouter()
	authed.Use(middleware.AuthMiddleware(a.userService))
	authed.HandleFunc("/cart", a.GetCartHandler).Methods("GET")
	authed.HandleFunc("/cart/items", a.AddToCartHandler).Methods("POST")
	authed.HandleFunc("/cart/items/{id}", a.UpdateCartItemHandler).Methods("PUT")
	authed.HandleFunc("/cart/items/{id}", a.RemoveCartItemHandler).Methods("DELETE")
	authed.HandleFunc("/orders", a.PlaceOrderHandler).Methods("POST")
	authed.HandleFunc("/orders", a.ListOrdersHandler).Methods("GET")
	authed.HandleFunc("/orders/{id}", a.GetOrderHandler).Methods("GET")
	authed.HandleFunc("/orders/{id}/items", a.ListOrderItemsHandler).Methods("GET")
	authed.HandleFunc("/orders/{id}/items/{itemId}", a.GetOrderItemHandler).Methods("GET")

	// Health
	r.HandleFunc("/health", a.HealthHandler).Methods("GET")
}

// HealthHandler handles health check requests
func (a *App) HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
}
