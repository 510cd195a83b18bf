package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/flawlessmakeup/backend/models"
)

type productRequest struct {
	Name          string           `json:"name" binding:"required"`
	Description   string           `json:"description"`
	Price         decimal.Decimal  `json:"price" binding:"required"`
	SalePrice     *decimal.Decimal `json:"sale_price"`
	StockQuantity int              `json:"stock_quantity"`
	ImageURL      string           `json:"image_url"`
	ImageURLs     []string         `json:"image_urls"`
	CategoryID    uint             `json:"category_id" binding:"required"`
	IsActive      *bool            `json:"is_active"`
	IsFeatured    bool             `json:"is_featured"`
	IsOnSale      bool             `json:"is_on_sale"`
	Brand         string           `json:"brand"`
	Size          string           `json:"size"`
	Ingredients   string           `json:"ingredients"`
	SkinType      string           `json:"skin_type"`
}

func bindProduct(c *gin.Context) (*models.Product, bool) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return nil, false
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	return &models.Product{
		Name:          req.Name,
		Description:   req.Description,
		Price:         req.Price,
		SalePrice:     req.SalePrice,
		StockQuantity: req.StockQuantity,
		ImageURL:      req.ImageURL,
		ImageURLs:     models.StringList(req.ImageURLs),
		CategoryID:    req.CategoryID,
		IsActive:      active,
		IsFeatured:    req.IsFeatured,
		IsOnSale:      req.IsOnSale,
		Brand:         req.Brand,
		Size:          req.Size,
		Ingredients:   req.Ingredients,
		SkinType:      req.SkinType,
	}, true
}

type shadeRequest struct {
	Name          string `json:"name" binding:"required"`
	StockQuantity int    `json:"stock_quantity"`
	IsActive      *bool  `json:"is_active"`
	DisplayOrder  int    `json:"display_order"`
}

func bindShade(c *gin.Context) (*models.ProductShade, bool) {
	var req shadeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return nil, false
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	return &models.ProductShade{
		Name:          req.Name,
		StockQuantity: req.StockQuantity,
		IsActive:      active,
		DisplayOrder:  req.DisplayOrder,
	}, true
}

type categoryRequest struct {
	NameEn       string `json:"name_en" binding:"required"`
	NameAr       string `json:"name_ar"`
	Description  string `json:"description"`
	ImageURL     string `json:"image_url"`
	IsActive     *bool  `json:"is_active"`
	DisplayOrder int    `json:"display_order"`
}

func bindCategory(c *gin.Context) (*models.Category, bool) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return nil, false
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	return &models.Category{
		NameEn:       req.NameEn,
		NameAr:       req.NameAr,
		Description:  req.Description,
		ImageURL:     req.ImageURL,
		IsActive:     active,
		DisplayOrder: req.DisplayOrder,
	}, true
}
