package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/coolwednesday/bookstore-go-app/internal/models"
)

// ListBooksHandler handles GET /api/v1/books
func (a *App) ListBooksHandler(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	books, err := a.bookService.ListBooks(r.Context(), limit, offset)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, books)
}

// GetBookHandler handles GET /api/v1/books/{id}
func (a *App) GetBookHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "book")
	if !ok {
		return
	}

	book, err := a.bookService.GetBook(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, book)
}

// SearchBooksHandler handles GET /api/v1/books/search. Authors come as a
// comma separated list; prices as decimal strings.
func (a *App) SearchBooksHandler(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	var params models.BookSearchParams
	if authors := r.URL.Query().Get("authors"); authors != "" {
		for _, author := range strings.Split(authors, ",") {
			if author = strings.TrimSpace(author); author != "" {
				params.Authors = append(params.Authors, author)
			}
		}
	}
	if raw := r.URL.Query().Get("min_price"); raw != "" {
		p, err := decimal.NewFromString(raw)
		if err != nil {
			badRequest(w, "invalid min_price")
			return
		}
		params.MinPrice = &p
	}
	if raw := r.URL.Query().Get("max_price"); raw != "" {
		p, err := decimal.NewFromString(raw)
		if err != nil {
			badRequest(w, "invalid max_price")
			return
		}
		params.MaxPrice = &p
	}

	books, err := a.bookService.SearchBooks(r.Context(), params, limit, offset)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, books)
}

// CreateBookHandler handles POST /api/v1/books
func (a *App) CreateBookHandler(w http.ResponseWriter, r *http.Request) {
	var req models.CreateBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if req.Title == "" || req.Author == "" {
		badRequest(w, "title and author are required")
		return
	}
	if req.Price.IsNegative() {
		badRequest(w, "price must not be negative")
		return
	}

	book, err := a.bookService.CreateBook(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, book)
}

// UpdateBookHandler handles PUT /api/v1/books/{id}
func (a *App) UpdateBookHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "book")
	if !ok {
		return
	}

	var req models.CreateBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if req.Price.IsNegative() {
		badRequest(w, "price must not be negative")
		return
	}

	book, err := a.bookService.UpdateBook(r.Context(), id, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, book)
}

// DeleteBookHandler handles DELETE /api/v1/books/{id}
func (a *App) DeleteBookHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "book")
	if !ok {
		return
	}

	if err := a.bookService.DeleteBook(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListBooksByCategoryHandler handles GET /api/v1/categories/{id}/books
func (a *App) ListBooksByCategoryHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "category")
	if !ok {
		return
	}

	books, err := a.bookService.ListBooksByCategory(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, books)
}

// AddBookToCategoryHandler handles POST /api/v1/books/{id}/categories/{categoryId}
func (a *App) AddBookToCategoryHandler(w http.ResponseWriter, r *http.Request) {
	bookID, ok := pathID(w, r, "id", "book")
	if !ok {
		return
	}
	categoryID, ok := pathID(w, r, "categoryId", "category")
	if !ok {
		return
	}

	book, err := a.bookService.AddBookToCategory(r.Context(), bookID, categoryID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, book)
}

func parsePagination(r *http.Request) (limit, offset int) {
	limit = 20
	offset = 0
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil && parsed >= 0 {
			offset = parsed
		}
	}
	return limit, offset
}

// pathID parses an int64 path variable, writing a 400 when it is malformed.
func pathID(w http.ResponseWriter, r *http.Request, name, entity string) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil {
		badRequest(w, "invalid "+entity+" ID")
		return 0, false
	}
	return id, true
}
