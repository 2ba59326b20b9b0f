package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/coolwednesday/bookstore-go-app/internal/db"
	"github.com/coolwednesday/bookstore-go-app/internal/metrics"
	"github.com/coolwednesday/bookstore-go-app/internal/models"
)

// BookRepo persists the catalog. Category membership is kept in the
// book_categories join table and loaded alongside each book.
type BookRepo struct {
	db      *db.DB
	metrics *metrics.AppMetrics
}

func NewBookRepo(database *db.DB, m *metrics.AppMetrics) *BookRepo {
	return &BookRepo{db: database, metrics: m}
}

const bookColumns = "id, title, author, isbn, price, description, cover_image, created_at, updated_at"

// Insert writes a book and its category links in one transaction.
func (r *BookRepo) Insert(ctx context.Context, book *models.Book) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	start := time.Now()
	query := "INSERT INTO books (title, author, isbn, price, description, cover_image) VALUES (?, ?, ?, ?, ?, ?)"
	result, err := tx.ExecContext(ctx, query, book.Title, book.Author, book.ISBN, book.Price, book.Description, book.CoverImage)
	r.metrics.RecordDBQuery(ctx, "INSERT", "books", query, start, err == nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create book: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get book ID: %w", err)
	}

	if err := replaceCategories(ctx, tx, id, book.CategoryIDs); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	committed = true
	return id, nil
}

// Update replaces a book's fields and category links. Returns false when the
// book does not exist.
func (r *BookRepo) Update(ctx context.Context, book *models.Book) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	start := time.Now()
	query := "UPDATE books SET title = ?, author = ?, isbn = ?, price = ?, description = ?, cover_image = ?, updated_at = NOW() WHERE id = ? AND is_deleted = 0"
	result, err := tx.ExecContext(ctx, query, book.Title, book.Author, book.ISBN, book.Price, book.Description, book.CoverImage, book.ID)
	r.metrics.RecordDBQuery(ctx, "UPDATE", "books", query, start, err == nil)
	if err != nil {
		return false, fmt.Errorf("failed to update book %d: %w", book.ID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return false, nil
	}

	if err := replaceCategories(ctx, tx, book.ID, book.CategoryIDs); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	committed = true
	return true, nil
}

func replaceCategories(ctx context.Context, tx *sql.Tx, bookID int64, categoryIDs []int64) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM book_categories WHERE book_id = ?", bookID); err != nil {
		return fmt.Errorf("failed to clear book categories: %w", err)
	}
	for _, categoryID := range categoryIDs {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO book_categories (book_id, category_id) VALUES (?, ?)", bookID, categoryID); err != nil {
			return fmt.Errorf("failed to link book %d to category %d: %w", bookID, categoryID, err)
		}
	}
	return nil
}

// FindByID returns the book with its category ids, or nil if missing or deleted.
func (r *BookRepo) FindByID(ctx context.Context, id int64) (*models.Book, error) {
	start := time.Now()

	query := "SELECT " + bookColumns + " FROM books WHERE id = ? AND is_deleted = 0"
	var book models.Book
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&book.ID, &book.Title, &book.Author, &book.ISBN, &book.Price,
		&book.Description, &book.CoverImage, &book.CreatedAt, &book.UpdatedAt,
	)
	r.metrics.RecordDBQuery(ctx, "SELECT", "books", query, start, err == nil || errors.Is(err, sql.ErrNoRows))

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get book %d: %w", id, err)
	}

	categoryIDs, err := r.listCategoryIDs(ctx, id)
	if err != nil {
		return nil, err
	}
	book.CategoryIDs = categoryIDs
	return &book, nil
}

func (r *BookRepo) listCategoryIDs(ctx context.Context, bookID int64) ([]int64, error) {
	query := "SELECT category_id FROM book_categories WHERE book_id = ? ORDER BY category_id"
	rows, err := r.db.QueryContext(ctx, query, bookID)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories for book %d: %w", bookID, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan category id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SoftDelete flags a book as deleted. Returns false when it was already gone.
func (r *BookRepo) SoftDelete(ctx context.Context, id int64) (bool, error) {
	start := time.Now()

	query := "UPDATE books SET is_deleted = 1, updated_at = NOW() WHERE id = ? AND is_deleted = 0"
	result, err := r.db.ExecContext(ctx, query, id)
	r.metrics.RecordDBQuery(ctx, "UPDATE", "books", query, start, err == nil)
	if err != nil {
		return false, fmt.Errorf("failed to delete book %d: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected > 0, nil
}

// List returns a page of live books.
func (r *BookRepo) List(ctx context.Context, limit, offset int) ([]models.Book, error) {
	start := time.Now()

	query := "SELECT " + bookColumns + " FROM books WHERE is_deleted = 0 ORDER BY id LIMIT ? OFFSET ?"
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	r.metrics.RecordDBQuery(ctx, "SELECT", "books", query, start, err == nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	defer rows.Close()

	return scanBooks(rows)
}

// Search filters by the given authors and price bounds. Validation of the
// bounds happens in the service; empty params degenerate to List.
func (r *BookRepo) Search(ctx context.Context, params models.BookSearchParams, limit, offset int) ([]models.Book, error) {
	where := []string{"is_deleted = 0"}
	var args []interface{}

	if len(params.Authors) > 0 {
		placeholders := make([]string, len(params.Authors))
		for i, author := range params.Authors {
			placeholders[i] = "?"
			args = append(args, author)
		}
		where = append(where, fmt.Sprintf("author IN (%s)", strings.Join(placeholders, ",")))
	}
	if params.MinPrice != nil {
		where = append(where, "price >= ?")
		args = append(args, *params.MinPrice)
	}
	if params.MaxPrice != nil {
		where = append(where, "price <= ?")
		args = append(args, *params.MaxPrice)
	}

	query := "SELECT " + bookColumns + " FROM books WHERE " + strings.Join(where, " AND ") + " ORDER BY id LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	start := time.Now()
	rows, err := r.db.QueryContext(ctx, query, args...)
	r.metrics.RecordDBQuery(ctx, "SELECT", "books", query, start, err == nil)
	if err != nil {
		return nil, fmt.Errorf("failed to search books: %w", err)
	}
	defer rows.Close()

	return scanBooks(rows)
}

// ListByCategory returns live books linked to the category.
func (r *BookRepo) ListByCategory(ctx context.Context, categoryID int64) ([]models.Book, error) {
	start := time.Now()

	query := `
		SELECT b.id, b.title, b.author, b.isbn, b.price, b.description, b.cover_image, b.created_at, b.updated_at
		FROM books b
		JOIN book_categories bc ON bc.book_id = b.id
		WHERE bc.category_id = ? AND b.is_deleted = 0
		ORDER BY b.id
	`
	rows, err := r.db.QueryContext(ctx, query, categoryID)
	r.metrics.RecordDBQuery(ctx, "SELECT", "books", query, start, err == nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list books for category %d: %w", categoryID, err)
	}
	defer rows.Close()

	return scanBooks(rows)
}

// AddCategory links a book to a category, ignoring an existing link.
func (r *BookRepo) AddCategory(ctx context.Context, bookID, categoryID int64) error {
	start := time.Now()

	query := "INSERT IGNORE INTO book_categories (book_id, category_id) VALUES (?, ?)"
	_, err := r.db.ExecContext(ctx, query, bookID, categoryID)
	r.metrics.RecordDBQuery(ctx, "INSERT", "book_categories", query, start, err == nil)
	if err != nil {
		return fmt.Errorf("failed to link book %d to category %d: %w", bookID, categoryID, err)
	}
	return nil
}

func scanBooks(rows *sql.Rows) ([]models.Book, error) {
	var books []models.Book
	for rows.Next() {
		var book models.Book
		if err := rows.Scan(
			&book.ID, &book.Title, &book.Author, &book.ISBN, &book.Price,
			&book.Description, &book.CoverImage, &book.CreatedAt, &book.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan book: %w", err)
		}
		books = append(books, book)
	}
	return books, rows.Err()
}
