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

// CartService owns server-held carts for authenticated users. Guest carts
// live entirely in the client and never reach this service; their lines are
// submitted inline with the order request instead.
type CartService interface {
	GetCart(ctx context.Context, userID string) (*models.Cart, error)
	AddItem(ctx context.Context, userID string, productID uint, shadeID *uint, quantity int) (*models.Cart, error)
	UpdateItem(ctx context.Context, userID string, productID uint, shadeID *uint, quantity int) (*models.Cart, error)
	RemoveItem(ctx context.Context, userID string, productID uint, shadeID *uint) (*models.Cart, error)
	Clear(ctx context.Context, userID string) (bool, error)
	ItemCount(ctx context.Context, userID string) (int, error)
}

type cartService struct {
	carts    repository.CartRepository
	products repository.ProductRepository
	logger   *zap.Logger
}

func NewCartService(carts repository.CartRepository, products repository.ProductRepository, logger *zap.Logger) CartService {
	return &cartService{carts: carts, products: products, logger: logger}
}

func (s *cartService) GetCart(ctx context.Context, userID string) (*models.Cart, error) {
	cart, err := s.carts.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		// An absent cart reads as an empty one.
		return &models.Cart{UserID: userID, Items: []models.CartItem{}}, nil
	}
	return cart, nil
}

// AddItem appends a line or, when a line for the same (product, shade) pair
// already exists, merges into it: quantity accumulates and the unit price is
// re-snapshotted from the current catalog price. The merge also makes a
// double-clicked "add to cart" harmless.
func (s *cartService) AddItem(ctx context.Context, userID string, productID uint, shadeID *uint, quantity int) (*models.Cart, error) {
	if quantity <= 0 {
		return nil, apperrors.NewValidation("quantity must be positive")
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("Product")
		}
		return nil, err
	}

	if shadeID != nil {
		shade, err := s.products.FindShadeByID(ctx, *shadeID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperrors.NewNotFound("Product shade")
			}
			return nil, err
		}
		if shade.ProductID != productID {
			return nil, apperrors.NewValidation("shade does not belong to product")
		}
	}

	cart, err := s.carts.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		cart = &models.Cart{UserID: userID}
		if err := s.carts.Create(ctx, cart); err != nil {
			return nil, err
		}
	}

	price := product.EffectivePrice()

	if existing := findCartItem(cart, productID, shadeID); existing != nil {
		existing.Quantity += quantity
		existing.Price = price
		if err := s.carts.SaveItem(ctx, existing); err != nil {
			return nil, err
		}
	} else {
		item := &models.CartItem{
			CartID:         cart.ID,
			ProductID:      productID,
			ProductShadeID: shadeID,
			Quantity:       quantity,
			Price:          price,
		}
		if err := s.carts.SaveItem(ctx, item); err != nil {
			return nil, err
		}
	}

	if err := s.carts.Touch(ctx, cart.ID); err != nil {
		s.logger.Warn("Failed to bump cart timestamp", zap.Uint("cart_id", cart.ID), zap.Error(err))
	}

	return s.carts.FindByUserID(ctx, userID)
}

// UpdateItem sets the line quantity; zero or negative removes the line.
func (s *cartService) UpdateItem(ctx context.Context, userID string, productID uint, shadeID *uint, quantity int) (*models.Cart, error) {
	cart, err := s.carts.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, apperrors.NewNotFound("Cart")
	}

	item := findCartItem(cart, productID, shadeID)
	if item == nil {
		return nil, apperrors.NewNotFound("Cart item")
	}

	if quantity <= 0 {
		if err := s.carts.DeleteItem(ctx, item.ID); err != nil {
			return nil, err
		}
	} else {
		item.Quantity = quantity
		if err := s.carts.SaveItem(ctx, item); err != nil {
			return nil, err
		}
	}

	if err := s.carts.Touch(ctx, cart.ID); err != nil {
		s.logger.Warn("Failed to bump cart timestamp", zap.Uint("cart_id", cart.ID), zap.Error(err))
	}

	return s.carts.FindByUserID(ctx, userID)
}

// RemoveItem is idempotent: removing an absent line is a no-op.
func (s *cartService) RemoveItem(ctx context.Context, userID string, productID uint, shadeID *uint) (*models.Cart, error) {
	cart, err := s.carts.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, apperrors.NewNotFound("Cart")
	}

	if item := findCartItem(cart, productID, shadeID); item != nil {
		if err := s.carts.DeleteItem(ctx, item.ID); err != nil {
			return nil, err
		}
		if err := s.carts.Touch(ctx, cart.ID); err != nil {
			s.logger.Warn("Failed to bump cart timestamp", zap.Uint("cart_id", cart.ID), zap.Error(err))
		}
	}

	return s.carts.FindByUserID(ctx, userID)
}

// Clear empties the cart and reports whether one existed.
func (s *cartService) Clear(ctx context.Context, userID string) (bool, error) {
	cart, err := s.carts.FindByUserID(ctx, userID)
	if err != nil {
		return false, err
	}
	if cart == nil {
		return false, nil
	}

	if err := s.carts.ClearItems(ctx, cart.ID); err != nil {
		return false, err
	}
	if err := s.carts.Touch(ctx, cart.ID); err != nil {
		s.logger.Warn("Failed to bump cart timestamp", zap.Uint("cart_id", cart.ID), zap.Error(err))
	}
	return true, nil
}

func (s *cartService) ItemCount(ctx context.Context, userID string) (int, error) {
	cart, err := s.carts.FindByUserID(ctx, userID)
	if err != nil {
		return 0, err
	}
	if cart == nil {
		return 0, nil
	}
	return cart.TotalItems(), nil
}

func findCartItem(cart *models.Cart, productID uint, shadeID *uint) *models.CartItem {
	for i := range cart.Items {
		item := &cart.Items[i]
		if item.ProductID != productID {
			continue
		}
		if sameShade(item.ProductShadeID, shadeID) {
			return item
		}
	}
	return nil
}

func sameShade(a, b *uint) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
