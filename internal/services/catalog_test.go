package services

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coolwednesday/bookstore-go-app/internal/apperr"
	"github.com/coolwednesday/bookstore-go-app/internal/cache"
	"github.com/coolwednesday/bookstore-go-app/internal/metrics"
	"github.com/coolwednesday/bookstore-go-app/internal/models"
)

func newCatalogFixture(t *testing.T) (*BookService, *CategoryService, *fakeBookStore, *fakeCategoryStore) {
	t.Helper()
	m := metrics.NewNoop("test")
	books := newFakeBookStore()
	categories := newFakeCategoryStore()
	bookCache, err := cache.NewBooks(16, m)
	require.NoError(t, err)
	return NewBookService(books, categories, bookCache, m), NewCategoryService(categories), books, categories
}

func TestCreateAndGetBook(t *testing.T) {
	svc, _, _, _ := newCatalogFixture(t)

	book, err := svc.CreateBook(context.Background(), models.CreateBookRequest{
		Title:  "The Go Programming Language",
		Author: "Alan Donovan",
		ISBN:   "978-0134190440",
		Price:  decimal.RequireFromString("39.99"),
	})
	require.NoError(t, err)
	require.NotZero(t, book.ID)

	got, err := svc.GetBook(context.Background(), book.ID)
	require.NoError(t, err)
	assert.Equal(t, "The Go Programming Language", got.Title)
	assert.Equal(t, "39.99", got.Price.String())
}

func TestCreateBookDuplicateISBN(t *testing.T) {
	svc, _, _, _ := newCatalogFixture(t)

	req := models.CreateBookRequest{Title: "A", Author: "B", ISBN: "978-1", Price: decimal.RequireFromString("5.00")}
	_, err := svc.CreateBook(context.Background(), req)
	require.NoError(t, err)

	_, err = svc.CreateBook(context.Background(), req)
	assert.Equal(t, apperr.KindAlreadyExists, apperr.KindOf(err))
}

func TestGetBookMissing(t *testing.T) {
	svc, _, _, _ := newCatalogFixture(t)

	_, err := svc.GetBook(context.Background(), 404)
	assert.True(t, apperr.IsNotFound(err))
}

func TestGetBookServedFromCache(t *testing.T) {
	svc, _, books, _ := newCatalogFixture(t)
	id := seedBook(t, books, "Cached", "10.00")

	// warm the cache
	_, err := svc.GetBook(context.Background(), id)
	require.NoError(t, err)

	// bypass the service and drop the backing row; the cached copy still serves
	delete(books.books, id)
	got, err := svc.GetBook(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Cached", got.Title)
}

func TestUpdateBookInvalidatesCache(t *testing.T) {
	svc, _, _, _ := newCatalogFixture(t)

	book, err := svc.CreateBook(context.Background(), models.CreateBookRequest{
		Title:  "First Edition",
		Author: "A",
		Price:  decimal.RequireFromString("10.00"),
	})
	require.NoError(t, err)

	updated, err := svc.UpdateBook(context.Background(), book.ID, models.CreateBookRequest{
		Title:  "Second Edition",
		Author: "A",
		Price:  decimal.RequireFromString("12.00"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Second Edition", updated.Title)

	got, err := svc.GetBook(context.Background(), book.ID)
	require.NoError(t, err)
	assert.Equal(t, "Second Edition", got.Title)
	assert.Equal(t, "12", got.Price.String())
}

func TestDeleteBook(t *testing.T) {
	svc, _, books, _ := newCatalogFixture(t)
	id := seedBook(t, books, "Doomed", "10.00")

	require.NoError(t, svc.DeleteBook(context.Background(), id))

	_, err := svc.GetBook(context.Background(), id)
	assert.True(t, apperr.IsNotFound(err))

	// deleting again reports missing
	err = svc.DeleteBook(context.Background(), id)
	assert.True(t, apperr.IsNotFound(err))
}

func TestSearchBooks(t *testing.T) {
	svc, _, books, _ := newCatalogFixture(t)
	seedBook(t, books, "Cheap", "5.00")
	midID := seedBook(t, books, "Mid", "15.00")
	seedBook(t, books, "Dear", "50.00")

	min := decimal.RequireFromString("10.00")
	max := decimal.RequireFromString("20.00")
	got, err := svc.SearchBooks(context.Background(), models.BookSearchParams{MinPrice: &min, MaxPrice: &max}, 20, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, midID, got[0].ID)
}

func TestSearchBooksByAuthor(t *testing.T) {
	svc, _, books, _ := newCatalogFixture(t)
	_, err := books.Insert(context.Background(), &models.Book{Title: "X", Author: "Knuth", Price: decimal.RequireFromString("80.00")})
	require.NoError(t, err)
	_, err = books.Insert(context.Background(), &models.Book{Title: "Y", Author: "Pike", Price: decimal.RequireFromString("30.00")})
	require.NoError(t, err)

	got, err := svc.SearchBooks(context.Background(), models.BookSearchParams{Authors: []string{"Pike"}}, 20, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Y", got[0].Title)
}

func TestSearchBooksInvalidPriceRange(t *testing.T) {
	svc, _, _, _ := newCatalogFixture(t)

	neg := decimal.RequireFromString("-1.00")
	_, err := svc.SearchBooks(context.Background(), models.BookSearchParams{MinPrice: &neg}, 20, 0)
	assert.True(t, apperr.IsInvalidArgument(err))

	min := decimal.RequireFromString("20.00")
	max := decimal.RequireFromString("10.00")
	_, err = svc.SearchBooks(context.Background(), models.BookSearchParams{MinPrice: &min, MaxPrice: &max}, 20, 0)
	assert.True(t, apperr.IsInvalidArgument(err))
}

func TestAddBookToCategory(t *testing.T) {
	bookSvc, catSvc, books, _ := newCatalogFixture(t)
	bookID := seedBook(t, books, "Networked", "25.00")

	category, err := catSvc.CreateCategory(context.Background(), models.CategoryRequest{Name: "Networking"})
	require.NoError(t, err)

	book, err := bookSvc.AddBookToCategory(context.Background(), bookID, category.ID)
	require.NoError(t, err)
	assert.Contains(t, book.CategoryIDs, category.ID)

	inCategory, err := bookSvc.ListBooksByCategory(context.Background(), category.ID)
	require.NoError(t, err)
	require.Len(t, inCategory, 1)
	assert.Equal(t, bookID, inCategory[0].ID)
}

func TestAddBookToMissingCategory(t *testing.T) {
	bookSvc, _, books, _ := newCatalogFixture(t)
	bookID := seedBook(t, books, "Orphan", "25.00")

	_, err := bookSvc.AddBookToCategory(context.Background(), bookID, 77)
	assert.True(t, apperr.IsNotFound(err))
}

func TestCategoryCRUD(t *testing.T) {
	_, svc, _, _ := newCatalogFixture(t)

	category, err := svc.CreateCategory(context.Background(), models.CategoryRequest{Name: "Fiction", Description: "Novels"})
	require.NoError(t, err)

	_, err = svc.CreateCategory(context.Background(), models.CategoryRequest{Name: "Fiction"})
	assert.Equal(t, apperr.KindAlreadyExists, apperr.KindOf(err))

	updated, err := svc.UpdateCategory(context.Background(), category.ID, models.CategoryRequest{Name: "Literary Fiction"})
	require.NoError(t, err)
	assert.Equal(t, "Literary Fiction", updated.Name)

	all, err := svc.ListCategories(context.Background(), 20, 0)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, svc.DeleteCategory(context.Background(), category.ID))
	_, err = svc.GetCategory(context.Background(), category.ID)
	assert.True(t, apperr.IsNotFound(err))
}
