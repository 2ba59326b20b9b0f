package api

import (
	"encoding/json"
	"net/http"

	"github.com/coolwednesday/bookstore-go-app/internal/models"
)

// ListCategoriesHandler handles GET /api/v1/categories
func (a *App) ListCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	categories, err := a.categoryService.ListCategories(r.Context(), limit, offset)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

// GetCategoryHandler handles GET /api/v1/categories/{id}
func (a *App) GetCategoryHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "category")
	if !ok {
		return
	}

	category, err := a.categoryService.GetCategory(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, category)
}

// CreateCategoryHandler handles POST /api/v1/categories
func (a *App) CreateCategoryHandler(w http.ResponseWriter, r *http.Request) {
	var req models.CategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if req.Name == "" {
		badRequest(w, "name is required")
		return
	}

	category, err := a.categoryService.CreateCategory(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, category)
}

// UpdateCategoryHandler handles PUT /api/v1/categories/{id}
func (a *App) UpdateCategoryHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "category")
	if !ok {
		return
	}

	var req models.CategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if req.Name == "" {
		badRequest(w, "name is required")
		return
	}

	category, err := a.categoryService.UpdateCategory(r.Context(), id, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, category)
}

// DeleteCategoryHandler handles DELETE /api/v1/categories/{id}
func (a *App) DeleteCategoryHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "category")
	if !ok {
		return
	}

	if err := a.categoryService.DeleteCategory(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
