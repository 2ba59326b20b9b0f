package api

import (
	"encoding/json"
	"net/http"

	"github.com/coolwednesday/bookstore-go-app/internal/middleware"
	"github.com/coolwednesday/bookstore-go-app/internal/models"
)

// PlaceOrderHandler handles POST /api/v1/orders
func (a *App) PlaceOrderHandler(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	var req models.PlaceOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	// fall back to the address on file
	shippingAddress := req.ShippingAddress
	if shippingAddress == "" {
		shippingAddress = user.ShippingAddress
	}
	if shippingAddress == "" {
		badRequest(w, "shipping_address is required")
		return
	}

	order, err := a.orderService.PlaceOrder(r.Context(), user.ID, shippingAddress)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

// ListOrdersHandler handles GET /api/v1/orders
func (a *App) ListOrdersHandler(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	limit, offset := parsePagination(r)

	orders, err := a.orderService.ListOrders(r.Context(), user.ID, limit, offset)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

// GetOrderHandler handles GET /api/v1/orders/{id}
func (a *App) GetOrderHandler(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	orderID, ok := pathID(w, r, "id", "order")
	if !ok {
		return
	}

	order, err := a.orderService.GetOrder(r.Context(), user.ID, orderID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// ListOrderItemsHandler handles GET /api/v1/orders/{id}/items
func (a *App) ListOrderItemsHandler(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	orderID, ok := pathID(w, r, "id", "order")
	if !ok {
		return
	}

	items, err := a.orderService.ListOrderItems(r.Context(), user.ID, orderID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// GetOrderItemHandler handles GET /api/v1/orders/{id}/items/{itemId}
func (a *App) GetOrderItemHandler(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	orderID, ok := pathID(w, r, "id", "order")
	if !ok {
		return
	}
	itemID, ok := pathID(w, r, "itemId", "order item")
	if !ok {
		return
	}

	item, err := a.orderService.GetOrderItem(r.Context(), user.ID, orderID, itemID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// UpdateOrderStatusHandler handles PUT /api/v1/orders/{id}/status
func (a *App) UpdateOrderStatusHandler(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r, "id", "order")
	if !ok {
		return
	}

	var req models.UpdateOrderStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if req.Status == "" {
		badRequest(w, "status is required")
		return
	}

	order, err := a.orderService.UpdateStatus(r.Context(), orderID, req.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}
