package services

import (
	"context"

	"github.com/coolwednesday/bookstore-go-app/internal/apperr"
	"github.com/coolwednesday/bookstore-go-app/internal/models"
)

// CategoryService manages catalog categories.
type CategoryService struct {
	categories CategoryStore
}

// NewCategoryService creates a new category service
func NewCategoryService(categories CategoryStore) *CategoryService {
	return &CategoryService{categories: categories}
}

// CreateCategory adds a new category.
func (s *CategoryService) CreateCategory(ctx context.Context, req models.CategoryRequest) (*models.Category, error) {
	category := &models.Category{Name: req.Name, Description: req.Description}

	id, err := s.categories.Insert(ctx, category)
	if err != nil {
		if isDuplicateEntry(err) {
			return nil, apperr.AlreadyExists("category with name %q already exists", req.Name)
		}
		return nil, apperr.Storage("failed to create category", err)
	}

	return s.GetCategory(ctx, id)
}

// GetCategory returns a category by id.
func (s *CategoryService) GetCategory(ctx context.Context, id int64) (*models.Category, error) {
	category, err := s.categories.FindByID(ctx, id)
	if err != nil {
		return nil, apperr.Storage("failed to load category", err)
	}
	if category == nil {
		return nil, apperr.NotFound("category with id %d not found", id)
	}
	return category, nil
}

// UpdateCategory replaces a category's fields.
func (s *CategoryService) UpdateCategory(ctx context.Context, id int64, req models.CategoryRequest) (*models.Category, error) {
	category := &models.Category{ID: id, Name: req.Name, Description: req.Description}

	ok, err := s.categories.Update(ctx, category)
	if err != nil {
		if isDuplicateEntry(err) {
			return nil, apperr.AlreadyExists("category with name %q already exists", req.Name)
		}
		return nil, apperr.Storage("failed to update category", err)
	}
	if !ok {
		return nil, apperr.NotFound("category with id %d not found", id)
	}

	return s.GetCategory(ctx, id)
}

// DeleteCategory soft-deletes a category.
func (s *CategoryService) DeleteCategory(ctx context.Context, id int64) error {
	ok, err := s.categories.SoftDelete(ctx, id)
	if err != nil {
		return apperr.Storage("failed to delete category", err)
	}
	if !ok {
		return apperr.NotFound("category with id %d not found", id)
	}
	return nil
}

// ListCategories returns a page of categories.
func (s *CategoryService) ListCategories(ctx context.Context, limit, offset int) ([]models.Category, error) {
	categories, err := s.categories.List(ctx, limit, offset)
	if err != nil {
		return nil, apperr.Storage("failed to list categories", err)
	}
	if categories == nil {
		categories = []models.Category{}
	}
	return categories, nil
}
