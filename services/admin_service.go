package services

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/flawlessmakeup/backend/apperrors"
	"github.com/flawlessmakeup/backend/models"
	"github.com/flawlessmakeup/backend/repository"
)

// lowStockThreshold marks products the dashboard flags as running out.
const lowStockThreshold = 10

type DashboardStats struct {
	TotalProducts    int `json:"total_products"`
	ActiveProducts   int `json:"active_products"`
	FeaturedProducts int `json:"featured_products"`
	ProductsOnSale   int `json:"products_on_sale"`
	TotalCategories  int `json:"total_categories"`
	ActiveCategories int `json:"active_categories"`
	LowStockProducts int `json:"low_stock_products"`
	OutOfStock       int `json:"out_of_stock_products"`
}

type BulkUpdateRequest struct {
	ProductIDs []uint           `json:"product_ids" binding:"required"`
	Action     string           `json:"action" binding:"required"`
	SalePrice  *decimal.Decimal `json:"sale_price"`
}

type CategoryProductCount struct {
	CategoryName string `json:"category_name"`
	Count        int    `json:"count"`
}

type BrandProductCount struct {
	BrandName string `json:"brand_name"`
	Count     int    `json:"count"`
}

type StockStatus struct {
	InStock    int `json:"in_stock"`
	LowStock   int `json:"low_stock"`
	OutOfStock int `json:"out_of_stock"`
}

type ProductAnalytics struct {
	TotalProducts      int                    `json:"total_products"`
	ProductsByCategory []CategoryProductCount `json:"products_by_category"`
	ProductsByBrand    []BrandProductCount    `json:"products_by_brand"`
	StockStatus        StockStatus            `json:"stock_status"`
}

// AdminService is the read-mostly admin surface: rollups over the catalog
// and flag flips. No special invariants beyond "flip and persist".
type AdminService interface {
	Dashboard(ctx context.Context) (*DashboardStats, error)
	BulkUpdateProducts(ctx context.Context, req *BulkUpdateRequest) (int, error)
	ToggleProductActive(ctx context.Context, id uint) (*models.Product, error)
	ToggleProductFeatured(ctx context.Context, id uint) (*models.Product, error)
	SetProductSale(ctx context.Context, id uint, onSale bool, salePrice *decimal.Decimal) (*models.Product, error)
	SetProductStock(ctx context.Context, id uint, quantity int) (*models.Product, error)
	SetShadeStock(ctx context.Context, shadeID uint, quantity int) (*models.ProductShade, error)
	ToggleCategoryActive(ctx context.Context, id uint) (*models.Category, error)
	ProductAnalytics(ctx context.Context) (*ProductAnalytics, error)
}

type adminService struct {
	products   ProductService
	categories CategoryService
	logger     *zap.Logger
}

func NewAdminService(products ProductService, categories CategoryService, logger *zap.Logger) AdminService {
	return &adminService{products: products, categories: categories, logger: logger}
}

func (s *adminService) Dashboard(ctx context.Context) (*DashboardStats, error) {
	products, err := s.products.ListProducts(ctx, repository.ProductFilter{})
	if err != nil {
		return nil, err
	}
	categories, err := s.categories.ListCategories(ctx, false)
	if err != nil {
		return nil, err
	}

	stats := &DashboardStats{
		TotalProducts:   len(products),
		TotalCategories: len(categories),
	}
	for _, p := range products {
		if p.IsActive {
			stats.ActiveProducts++
		}
		if p.IsFeatured {
			stats.FeaturedProducts++
		}
		if p.IsOnSale {
			stats.ProductsOnSale++
		}
		if p.StockQuantity == 0 {
			stats.OutOfStock++
		} else if p.StockQuantity < lowStockThreshold {
			stats.LowStockProducts++
		}
	}
	for _, c := range categories {
		if c.IsActive {
			stats.ActiveCategories++
		}
	}
	return stats, nil
}

func (s *adminService) BulkUpdateProducts(ctx context.Context, req *BulkUpdateRequest) (int, error) {
	action := strings.ToLower(req.Action)
	updated := 0

	for _, id := range req.ProductIDs {
		product, err := s.products.GetProduct(ctx, id)
		if err != nil {
			// Skip unknown ids, matching the bulk semantics of the admin UI.
			continue
		}

		switch action {
		case "activate":
			product.IsActive = true
		case "deactivate":
			product.IsActive = false
		case "feature":
			product.IsFeatured = true
		case "unfeature":
			product.IsFeatured = false
		case "sale":
			product.IsOnSale = true
			if req.SalePrice != nil {
				product.SalePrice = req.SalePrice
			}
		case "removesale":
			product.IsOnSale = false
			product.SalePrice = nil
		default:
			return 0, apperrors.NewValidation("unknown bulk action: " + req.Action)
		}

		if _, err := s.products.UpdateProduct(ctx, product); err != nil {
			s.logger.Error("Bulk update failed for product", zap.Uint("product_id", id), zap.Error(err))
			continue
		}
		updated++
	}
	return updated, nil
}

func (s *adminService) ToggleProductActive(ctx context.Context, id uint) (*models.Product, error) {
	product, err := s.products.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	product.IsActive = !product.IsActive
	return s.products.UpdateProduct(ctx, product)
}

func (s *adminService) ToggleProductFeatured(ctx context.Context, id uint) (*models.Product, error) {
	product, err := s.products.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	product.IsFeatured = !product.IsFeatured
	return s.products.UpdateProduct(ctx, product)
}

func (s *adminService) SetProductSale(ctx context.Context, id uint, onSale bool, salePrice *decimal.Decimal) (*models.Product, error) {
	product, err := s.products.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	product.IsOnSale = onSale
	if onSale {
		product.SalePrice = salePrice
	} else {
		product.SalePrice = nil
	}
	return s.products.UpdateProduct(ctx, product)
}

func (s *adminService) SetProductStock(ctx context.Context, id uint, quantity int) (*models.Product, error) {
	if quantity < 0 {
		return nil, apperrors.NewValidation("stock quantity cannot be negative")
	}
	product, err := s.products.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	product.StockQuantity = quantity
	return s.products.UpdateProduct(ctx, product)
}

func (s *adminService) SetShadeStock(ctx context.Context, shadeID uint, quantity int) (*models.ProductShade, error) {
	if quantity < 0 {
		return nil, apperrors.NewValidation("stock quantity cannot be negative")
	}
	shade, err := s.products.GetShade(ctx, shadeID)
	if err != nil {
		return nil, err
	}
	shade.StockQuantity = quantity
	return s.products.UpdateShade(ctx, shade)
}

func (s *adminService) ToggleCategoryActive(ctx context.Context, id uint) (*models.Category, error) {
	category, err := s.categories.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	category.IsActive = !category.IsActive
	return s.categories.UpdateCategory(ctx, category)
}

func (s *adminService) ProductAnalytics(ctx context.Context) (*ProductAnalytics, error) {
	products, err := s.products.ListProducts(ctx, repository.ProductFilter{})
	if err != nil {
		return nil, err
	}

	byCategory := map[string]int{}
	byBrand := map[string]int{}
	analytics := &ProductAnalytics{TotalProducts: len(products)}

	for _, p := range products {
		categoryName := ""
		if p.Category != nil {
			categoryName = p.Category.NameEn
		}
		byCategory[categoryName]++

		if p.Brand != "" {
			byBrand[p.Brand]++
		}

		switch {
		case p.StockQuantity == 0:
			analytics.StockStatus.OutOfStock++
		case p.StockQuantity < lowStockThreshold:
			analytics.StockStatus.LowStock++
		default:
			analytics.StockStatus.InStock++
		}
	}

	for name, count := range byCategory {
		analytics.ProductsByCategory = append(analytics.ProductsByCategory,
			CategoryProductCount{CategoryName: name, Count: count})
	}
	for name, count := range byBrand {
		analytics.ProductsByBrand = append(analytics.ProductsByBrand,
			BrandProductCount{BrandName: name, Count: count})
	}
	return analytics, nil
}
