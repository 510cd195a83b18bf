package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/flawlessmakeup/backend/models"
)

// CartRepository defines the interface for cart data access
type CartRepository interface {
	// FindByUserID returns the user's cart with items preloaded, or nil when
	// the user has no cart yet.
	FindByUserID(ctx context.Context, userID string) (*models.Cart, error)
	Create(ctx context.Context, cart *models.Cart) error
	SaveItem(ctx context.Context, item *models.CartItem) error
	DeleteItem(ctx context.Context, itemID uint) error
	ClearItems(ctx context.Context, cartID uint) error
	Touch(ctx context.Context, cartID uint) error
}

type GormCartRepository struct {
	db *gorm.DB
}

func NewGormCartRepository(db *gorm.DB) CartRepository {
	return &GormCartRepository{db: db}
}

func (r *GormCartRepository) FindByUserID(ctx context.Context, userID string) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("date_added ASC")
		}).
		Preload("Items.Product").
		Preload("Items.ProductShade").
		Where("user_id = ?", userID).
		First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *GormCartRepository) Create(ctx context.Context, cart *models.Cart) error {
	return r.db.WithContext(ctx).Create(cart).Error
}

func (r *GormCartRepository) SaveItem(ctx context.Context, item *models.CartItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

func (r *GormCartRepository) DeleteItem(ctx context.Context, itemID uint) error {
	return r.db.WithContext(ctx).Delete(&models.CartItem{}, itemID).Error
}

func (r *GormCartRepository) ClearItems(ctx context.Context, cartID uint) error {
	return r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Delete(&models.CartItem{}).Error
}

// Touch bumps the cart's updated timestamp after item-level writes.
func (r *GormCartRepository) Touch(ctx context.Context, cartID uint) error {
	return r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ?", cartID).
		Update("date_updated", gorm.Expr("NOW()")).Error
}
