package api

import (
	"encoding/json"
	"net/http"

	"github.com/coolwednesday/bookstore-go-app/internal/middleware"
	"github.com/coolwednesday/bookstore-go-app/internal/models"
)

// GetCartHandler handles GET /api/v1/cart
func (a *App) GetCartHandler(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	cart, err := a.cartService.ViewCart(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

// AddToCartHandler handles POST /api/v1/cart/items
func (a *App) AddToCartHandler(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	var req models.AddToCartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if req.BookID <= 0 {
		badRequest(w, "book_id is required")
		return
	}
	if req.Quantity <= 0 {
		badRequest(w, "quantity must be greater than zero")
		return
	}

	cart, err := a.cartService.AddItem(r.Context(), user.ID, req.BookID, req.Quantity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, cart)
}

// UpdateCartItemHandler handles PUT /api/v1/cart/items/{id}
func (a *App) UpdateCartItemHandler(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	itemID, ok := pathID(w, r, "id", "cart item")
	if !ok {
		return
	}

	var req models.UpdateCartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if req.Quantity <= 0 {
		badRequest(w, "quantity must be greater than zero")
		return
	}

	cart, err := a.cartService.UpdateItemQuantity(r.Context(), user.ID, itemID, req.Quantity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

// RemoveCartItemHandler handles DELETE /api/v1/cart/items/{id}
func (a *App) RemoveCartItemHandler(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	itemID, ok := pathID(w, r, "id", "cart item")
	if !ok {
		return
	}

	cart, err := a.cartService.RemoveItem(r.Context(), user.ID, itemID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}
