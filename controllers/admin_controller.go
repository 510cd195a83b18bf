package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/flawlessmakeup/backend/services"
)

type AdminController struct {
	adminService services.AdminService
}

func NewAdminController(adminService services.AdminService) *AdminController {
	return &AdminController{adminService: adminService}
}

func (ac *AdminController) Dashboard(c *gin.Context) {
	stats, err := ac.adminService.Dashboard(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (ac *AdminController) Analytics(c *gin.Context) {
	analytics, err := ac.adminService.ProductAnalytics(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, analytics)
}

func (ac *AdminController) BulkUpdateProducts(c *gin.Context) {
	var req services.BulkUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	updated, err := ac.adminService.BulkUpdateProducts(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

func (ac *AdminController) ToggleProductActive(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	product, err := ac.adminService.ToggleProductActive(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (ac *AdminController) ToggleProductFeatured(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	product, err := ac.adminService.ToggleProductFeatured(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

type saleRequest struct {
	OnSale    bool             `json:"on_sale"`
	SalePrice *decimal.Decimal `json:"sale_price"`
}

func (ac *AdminController) SetProductSale(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	var req saleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	product, err := ac.adminService.SetProductSale(c.Request.Context(), id, req.OnSale, req.SalePrice)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

type stockRequest struct {
	Quantity int `json:"quantity"`
}

func (ac *AdminController) SetProductStock(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	var req stockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	product, err := ac.adminService.SetProductStock(c.Request.Context(), id, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (ac *AdminController) SetShadeStock(c *gin.Context) {
	shadeID, ok := parseUintParam(c, "shadeId")
	if !ok {
		return
	}

	var req stockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	shade, err := ac.adminService.SetShadeStock(c.Request.Context(), shadeID, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, shade)
}

func (ac *AdminController) ToggleCategoryActive(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	category, err := ac.adminService.ToggleCategoryActive(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}
