package services

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/coolwednesday/bookstore-go-app/internal/apperr"
	"github.com/coolwednesday/bookstore-go-app/internal/cache"
	"github.com/coolwednesday/bookstore-go-app/internal/metrics"
	"github.com/coolwednesday/bookstore-go-app/internal/models"
)

// BookService manages the catalog. Reads go through an LRU cache keyed by
// book id; every mutation invalidates the touched entry.
type BookService struct {
	books      BookStore
	categories CategoryStore
	cache      *cache.Books
	metrics    *metrics.AppMetrics
}

// NewBookService creates a new book service
func NewBookService(books BookStore, categories CategoryStore, bookCache *cache.Books, m *metrics.AppMetrics) *BookService {
	return &BookService{books: books, categories: categories, cache: bookCache, metrics: m}
}

// CreateBook adds a new book to the catalog.
func (s *BookService) CreateBook(ctx context.Context, req models.CreateBookRequest) (*models.Book, error) {
	book := &models.Book{
		Title:       req.Title,
		Author:      req.Author,
		ISBN:        req.ISBN,
		Price:       req.Price,
		Description: req.Description,
		CoverImage:  req.CoverImage,
		CategoryIDs: req.CategoryIDs,
	}

	id, err := s.books.Insert(ctx, book)
	if err != nil {
		// unique index on isbn
		if isDuplicateEntry(err) {
			return nil, apperr.AlreadyExists("book with isbn %s already exists", req.ISBN)
		}
		return nil, apperr.Storage("failed to create book", err)
	}

	return s.GetBook(ctx, id)
}

// GetBook returns a book by id, preferring the cache.
func (s *BookService) GetBook(ctx context.Context, id int64) (*models.Book, error) {
	if cached, ok := s.cache.Get(ctx, id); ok {
		s.recordView(ctx, id)
		return &cached, nil
	}

	book, err := s.books.FindByID(ctx, id)
	if err != nil {
		return nil, apperr.Storage("failed to load book", err)
	}
	if book == nil {
		return nil, apperr.NotFound("book with id %d not found", id)
	}

	s.cache.Put(*book)
	s.recordView(ctx, id)
	return book, nil
}

// UpdateBook replaces a book's fields and category links.
func (s *BookService) UpdateBook(ctx context.Context, id int64, req models.CreateBookRequest) (*models.Book, error) {
	book := &models.Book{
		ID:          id,
		Title:       req.Title,
		Author:      req.Author,
		ISBN:        req.ISBN,
		Price:       req.Price,
		Description: req.Description,
		CoverImage:  req.CoverImage,
		CategoryIDs: req.CategoryIDs,
	}

	ok, err := s.books.Update(ctx, book)
	if err != nil {
		if isDuplicateEntry(err) {
			return nil, apperr.AlreadyExists("book with isbn %s already exists", req.ISBN)
		}
		return nil, apperr.Storage("failed to update book", err)
	}
	if !ok {
		return nil, apperr.NotFound("book with id %d not found", id)
	}

	s.cache.Remove(id)
	return s.GetBook(ctx, id)
}

// DeleteBook soft-deletes a book.
func (s *BookService) DeleteBook(ctx context.Context, id int64) error {
	ok, err := s.books.SoftDelete(ctx, id)
	if err != nil {
		return apperr.Storage("failed to delete book", err)
	}
	if !ok {
		return apperr.NotFound("book with id %d not found", id)
	}

	s.cache.Remove(id)
	return nil
}

// ListBooks returns a page of the catalog.
func (s *BookService) ListBooks(ctx context.Context, limit, offset int) ([]models.Book, error) {
	books, err := s.books.List(ctx, limit, offset)
	if err != nil {
		return nil, apperr.Storage("failed to list books", err)
	}
	if books == nil {
		books = []models.Book{}
	}
	return books, nil
}

// SearchBooks filters the catalog by authors and price range. Both bounds
// must be non-negative and min must not exceed max.
func (s *BookService) SearchBooks(ctx context.Context, params models.BookSearchParams, limit, offset int) ([]models.Book, error) {
	if params.MinPrice != nil && params.MinPrice.IsNegative() {
		return nil, apperr.InvalidArgument("invalid price range: min price %s is negative", params.MinPrice.String())
	}
	if params.MaxPrice != nil && params.MaxPrice.IsNegative() {
		return nil, apperr.InvalidArgument("invalid price range: max price %s is negative", params.MaxPrice.String())
	}
	if params.MinPrice != nil && params.MaxPrice != nil && params.MaxPrice.LessThan(*params.MinPrice) {
		return nil, apperr.InvalidArgument("invalid price range: min %s exceeds max %s",
			params.MinPrice.String(), params.MaxPrice.String())
	}

	books, err := s.books.Search(ctx, params, limit, offset)
	if err != nil {
		return nil, apperr.Storage("failed to search books", err)
	}
	if books == nil {
		books = []models.Book{}
	}
	return books, nil
}

// ListBooksByCategory returns live books linked to the category.
func (s *BookService) ListBooksByCategory(ctx context.Context, categoryID int64) ([]models.Book, error) {
	books, err := s.books.ListByCategory(ctx, categoryID)
	if err != nil {
		return nil, apperr.Storage("failed to list books by category", err)
	}
	if books == nil {
		books = []models.Book{}
	}
	return books, nil
}

// AddBookToCategory links a book to a category and returns the refreshed book.
func (s *BookService) AddBookToCategory(ctx context.Context, bookID, categoryID int64) (*models.Book, error) {
	book, err := s.books.FindByID(ctx, bookID)
	if err != nil {
		return nil, apperr.Storage("failed to load book", err)
	}
	if book == nil {
		return nil, apperr.NotFound("book with id %d not found", bookID)
	}

	category, err := s.categories.FindByID(ctx, categoryID)
	if err != nil {
		return nil, apperr.Storage("failed to load category", err)
	}
	if category == nil {
		return nil, apperr.NotFound("category with id %d not found", categoryID)
	}

	if err := s.books.AddCategory(ctx, bookID, categoryID); err != nil {
		return nil, apperr.Storage("failed to link book to category", err)
	}

	s.cache.Remove(bookID)
	return s.GetBook(ctx, bookID)
}

func (s *BookService) recordView(ctx context.Context, bookID int64) {
	s.metrics.BooksViewed.Add(ctx, 1, metric.WithAttributes(s.metrics.WithServiceName([]attribute.KeyValue{
		attribute.Int64("book_id", bookID),
	})...))
}
