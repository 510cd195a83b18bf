package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/flawlessmakeup/backend/models"
)

// ProductFilter narrows storefront product queries.
type ProductFilter struct {
	CategoryID *uint
	Featured   *bool
	OnSale     *bool
	ActiveOnly bool
	Search     string
}

// ProductRepository defines the interface for product and shade data access
type ProductRepository interface {
	FindAll(ctx context.Context, filter ProductFilter) ([]models.Product, error)
	FindByID(ctx context.Context, id uint) (*models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id uint) error

	FindShadeByID(ctx context.Context, id uint) (*models.ProductShade, error)
	FindShadesByProduct(ctx context.Context, productID uint) ([]models.ProductShade, error)
	CreateShade(ctx context.Context, shade *models.ProductShade) error
	UpdateShade(ctx context.Context, shade *models.ProductShade) error
	DeleteShade(ctx context.Context, id uint) error
}

type GormProductRepository struct {
	db *gorm.DB
}

func NewGormProductRepository(db *gorm.DB) ProductRepository {
	return &GormProductRepository{db: db}
}

func (r *GormProductRepository) FindAll(ctx context.Context, filter ProductFilter) ([]models.Product, error) {
	query := r.db.WithContext(ctx).Model(&models.Product{}).
		Preload("Category").
		Preload("Shades", func(db *gorm.DB) *gorm.DB {
			return db.Order("display_order ASC")
		})

	if filter.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.Featured != nil {
		query = query.Where("is_featured = ?", *filter.Featured)
	}
	if filter.OnSale != nil {
		query = query.Where("is_on_sale = ?", *filter.OnSale)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("name ILIKE ? OR description ILIKE ? OR brand ILIKE ?", like, like, like)
	}

	var products []models.Product
	err := query.Order("date_created DESC").Find(&products).Error
	return products, err
}

func (r *GormProductRepository) FindByID(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Shades", func(db *gorm.DB) *gorm.DB {
			return db.Order("display_order ASC")
		}).
		First(&product, id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *GormProductRepository) Create(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *GormProductRepository) Update(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

func (r *GormProductRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Product{}, id).Error
}

func (r *GormProductRepository) FindShadeByID(ctx context.Context, id uint) (*models.ProductShade, error) {
	var shade models.ProductShade
	if err := r.db.WithContext(ctx).First(&shade, id).Error; err != nil {
		return nil, err
	}
	return &shade, nil
}

func (r *GormProductRepository) FindShadesByProduct(ctx context.Context, productID uint) ([]models.ProductShade, error) {
	var shades []models.ProductShade
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("display_order ASC").
		Find(&shades).Error
	return shades, err
}

func (r *GormProductRepository) CreateShade(ctx context.Context, shade *models.ProductShade) error {
	return r.db.WithContext(ctx).Create(shade).Error
}

func (r *GormProductRepository) UpdateShade(ctx context.Context, shade *models.ProductShade) error {
	return r.db.WithContext(ctx).Save(shade).Error
}

func (r *GormProductRepository) DeleteShade(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.ProductShade{}, id).Error
}
