package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/flawlessmakeup/backend/repository"
	"github.com/flawlessmakeup/backend/services"
)

type ProductController struct {
	productService services.ProductService
}

func NewProductController(productService services.ProductService) *ProductController {
	return &ProductController{productService: productService}
}

// filterFromQuery maps storefront query params onto the repository filter.
// The public listing always scopes to active products; admins list through
// their own routes without that restriction.
func filterFromQuery(c *gin.Context, activeOnly bool) repository.ProductFilter {
	filter := repository.ProductFilter{
		ActiveOnly: activeOnly,
		Search:     c.Query("search"),
	}
	if id, err := parseOptionalUintQuery(c, "category_id"); err == nil {
		filter.CategoryID = id
	}
	if v, err := strconv.ParseBool(c.Query("featured")); err == nil {
		filter.Featured = &v
	}
	if v, err := strconv.ParseBool(c.Query("on_sale")); err == nil {
		filter.OnSale = &v
	}
	return filter
}

func (pc *ProductController) ListProducts(c *gin.Context) {
	products, err := pc.productService.ListProducts(c.Request.Context(), filterFromQuery(c, true))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (pc *ProductController) ListAllProducts(c *gin.Context) {
	products, err := pc.productService.ListProducts(c.Request.Context(), filterFromQuery(c, false))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (pc *ProductController) GetProduct(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	product, err := pc.productService.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (pc *ProductController) CreateProduct(c *gin.Context) {
	product, ok := bindProduct(c)
	if !ok {
		return
	}

	created, err := pc.productService.CreateProduct(c.Request.Context(), product)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (pc *ProductController) UpdateProduct(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	product, ok := bindProduct(c)
	if !ok {
		return
	}
	product.ID = id

	updated, err := pc.productService.UpdateProduct(c.Request.Context(), product)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (pc *ProductController) DeleteProduct(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	if err := pc.productService.DeleteProduct(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted"})
}

func (pc *ProductController) ListShades(c *gin.Context) {
	productID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	shades, err := pc.productService.ListShades(c.Request.Context(), productID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, shades)
}

func (pc *ProductController) CreateShade(c *gin.Context) {
	productID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	shade, ok := bindShade(c)
	if !ok {
		return
	}
	shade.ProductID = productID

	created, err := pc.productService.CreateShade(c.Request.Context(), shade)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (pc *ProductController) UpdateShade(c *gin.Context) {
	shadeID, ok := parseUintParam(c, "shadeId")
	if !ok {
		return
	}

	shade, ok := bindShade(c)
	if !ok {
		return
	}
	shade.ID = shadeID

	updated, err := pc.productService.UpdateShade(c.Request.Context(), shade)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (pc *ProductController) DeleteShade(c *gin.Context) {
	shadeID, ok := parseUintParam(c, "shadeId")
	if !ok {
		return
	}

	if err := pc.productService.DeleteShade(c.Request.Context(), shadeID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Shade deleted"})
}
