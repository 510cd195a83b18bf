package services

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/flawlessmakeup/backend/apperrors"
	"github.com/flawlessmakeup/backend/models"
	"github.com/flawlessmakeup/backend/repository"
)

type CategoryService interface {
	ListCategories(ctx context.Context, activeOnly bool) ([]models.Category, error)
	GetCategory(ctx context.Context, id uint) (*models.Category, error)
	CreateCategory(ctx context.Context, category *models.Category) (*models.Category, error)
	UpdateCategory(ctx context.Context, category *models.Category) (*models.Category, error)
	// DeleteCategory soft-deletes by flipping the active flag. It refuses
	// while the category still has products.
	DeleteCategory(ctx context.Context, id uint) error
}

type categoryService struct {
	categories repository.CategoryRepository
	logger     *zap.Logger
}

func NewCategoryService(categories repository.CategoryRepository, logger *zap.Logger) CategoryService {
	return &categoryService{categories: categories, logger: logger}
}

func (s *categoryService) ListCategories(ctx context.Context, activeOnly bool) ([]models.Category, error) {
	if activeOnly {
		return s.categories.FindActive(ctx)
	}
	return s.categories.FindAll(ctx)
}

func (s *categoryService) GetCategory(ctx context.Context, id uint) (*models.Category, error) {
	category, err := s.categories.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("Category")
		}
		return nil, err
	}
	return category, nil
}

func (s *categoryService) CreateCategory(ctx context.Context, category *models.Category) (*models.Category, error) {
	if category.NameEn == "" {
		return nil, apperrors.NewValidation("category name is required")
	}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *categoryService) UpdateCategory(ctx context.Context, category *models.Category) (*models.Category, error) {
	if _, err := s.GetCategory(ctx, category.ID); err != nil {
		return nil, err
	}
	if err := s.categories.Update(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *categoryService) DeleteCategory(ctx context.Context, id uint) error {
	category, err := s.GetCategory(ctx, id)
	if err != nil {
		return err
	}

	count, err := s.categories.CountProducts(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return apperrors.NewValidation("cannot delete a category that still has products")
	}

	category.IsActive = false
	return s.categories.Update(ctx, category)
}
