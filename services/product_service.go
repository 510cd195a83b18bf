package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/flawlessmakeup/backend/apperrors"
	"github.com/flawlessmakeup/backend/models"
	"github.com/flawlessmakeup/backend/repository"
)

const productCacheTTL = 5 * time.Minute

// ProductService is the catalog collaborator: plain CRUD plus storefront
// list queries. Storefront lists go through a redis read-through cache;
// checkout never reads through this service, it re-resolves rows inside its
// own transaction.
type ProductService interface {
	ListProducts(ctx context.Context, filter repository.ProductFilter) ([]models.Product, error)
	GetProduct(ctx context.Context, id uint) (*models.Product, error)
	CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error)
	UpdateProduct(ctx context.Context, product *models.Product) (*models.Product, error)
	DeleteProduct(ctx context.Context, id uint) error

	GetShade(ctx context.Context, id uint) (*models.ProductShade, error)
	ListShades(ctx context.Context, productID uint) ([]models.ProductShade, error)
	CreateShade(ctx context.Context, shade *models.ProductShade) (*models.ProductShade, error)
	UpdateShade(ctx context.Context, shade *models.ProductShade) (*models.ProductShade, error)
	DeleteShade(ctx context.Context, id uint) error
}

type productService struct {
	products repository.ProductRepository
	cache    *redis.Client
	logger   *zap.Logger
}

// NewProductService creates the catalog service. cache may be nil, in which
// case every read goes to the database.
func NewProductService(products repository.ProductRepository, cache *redis.Client, logger *zap.Logger) ProductService {
	return &productService{products: products, cache: cache, logger: logger}
}

func (s *productService) ListProducts(ctx context.Context, filter repository.ProductFilter) ([]models.Product, error) {
	key := cacheKey(filter)
	if s.cache != nil && key != "" {
		if data, err := s.cache.Get(ctx, key).Result(); err == nil {
			var products []models.Product
			if err := json.Unmarshal([]byte(data), &products); err == nil {
				return products, nil
			}
		}
	}

	products, err := s.products.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}

	if s.cache != nil && key != "" {
		if data, err := json.Marshal(products); err == nil {
			if err := s.cache.Set(ctx, key, data, productCacheTTL).Err(); err != nil {
				s.logger.Warn("Failed to cache product list", zap.String("key", key), zap.Error(err))
			}
		}
	}
	return products, nil
}

func (s *productService) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("Product")
		}
		return nil, err
	}
	return product, nil
}

func (s *productService) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := s.products.Create(ctx, product); err != nil {
		return nil, err
	}
	s.invalidateCache(ctx)
	return product, nil
}

func (s *productService) UpdateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := s.products.Update(ctx, product); err != nil {
		return nil, err
	}
	s.invalidateCache(ctx)
	return product, nil
}

func (s *productService) DeleteProduct(ctx context.Context, id uint) error {
	if _, err := s.GetProduct(ctx, id); err != nil {
		return err
	}
	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateCache(ctx)
	return nil
}

func (s *productService) GetShade(ctx context.Context, id uint) (*models.ProductShade, error) {
	shade, err := s.products.FindShadeByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("Product shade")
		}
		return nil, err
	}
	return shade, nil
}

func (s *productService) ListShades(ctx context.Context, productID uint) ([]models.ProductShade, error) {
	if _, err := s.GetProduct(ctx, productID); err != nil {
		return nil, err
	}
	return s.products.FindShadesByProduct(ctx, productID)
}

func (s *productService) CreateShade(ctx context.Context, shade *models.ProductShade) (*models.ProductShade, error) {
	if _, err := s.GetProduct(ctx, shade.ProductID); err != nil {
		return nil, err
	}
	if err := s.products.CreateShade(ctx, shade); err != nil {
		return nil, err
	}
	s.invalidateCache(ctx)
	return shade, nil
}

func (s *productService) UpdateShade(ctx context.Context, shade *models.ProductShade) (*models.ProductShade, error) {
	if err := s.products.UpdateShade(ctx, shade); err != nil {
		return nil, err
	}
	s.invalidateCache(ctx)
	return shade, nil
}

func (s *productService) DeleteShade(ctx context.Context, id uint) error {
	if _, err := s.GetShade(ctx, id); err != nil {
		return err
	}
	if err := s.products.DeleteShade(ctx, id); err != nil {
		return err
	}
	s.invalidateCache(ctx)
	return nil
}

// Only unsearched storefront lists are cached; admin and search queries
// always hit the database.
func cacheKey(filter repository.ProductFilter) string {
	if !filter.ActiveOnly || filter.Search != "" {
		return ""
	}
	key := "products:active"
	if filter.CategoryID != nil {
		key += fmt.Sprintf(":cat:%d", *filter.CategoryID)
	}
	if filter.Featured != nil && *filter.Featured {
		key += ":featured"
	}
	if filter.OnSale != nil && *filter.OnSale {
		key += ":sale"
	}
	return key
}

func (s *productService) invalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	iter := s.cache.Scan(ctx, 0, "products:active*", 100).Iterator()
	for iter.Next(ctx) {
		if err := s.cache.Del(ctx, iter.Val()).Err(); err != nil {
			s.logger.Warn("Failed to invalidate product cache", zap.Error(err))
		}
	}
	if err := iter.Err(); err != nil {
		s.logger.Warn("Product cache scan failed", zap.Error(err))
	}
}
