package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flawlessmakeup/backend/middleware"
	"github.com/flawlessmakeup/backend/models"
	"github.com/flawlessmakeup/backend/services"
)

type OrderController struct {
	checkoutService services.CheckoutService
	orderService    services.OrderService
}

func NewOrderController(checkoutService services.CheckoutService, orderService services.OrderService) *OrderController {
	return &OrderController{checkoutService: checkoutService, orderService: orderService}
}

// CreateOrderFromCart handles both checkout paths behind optional auth: a
// bearer token means the server cart is used, no token means guest checkout
// with the line items supplied in the request body.
func (oc *OrderController) CreateOrderFromCart(c *gin.Context) {
	var req services.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	var userID *string
	if id, err := middleware.GetUserID(c); err == nil {
		userID = &id
	}

	order, err := oc.checkoutService.CreateOrderFromCart(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (oc *OrderController) GetOrders(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	page, limit := parsePagination(c)
	resp, err := oc.orderService.GetUserOrders(c.Request.Context(), userID, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (oc *OrderController) GetOrderByID(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	order, err := oc.orderService.GetOrderForUser(c.Request.Context(), id, userID, middleware.IsAdmin(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (oc *OrderController) GetOrderByNumber(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	order, err := oc.orderService.GetOrderByNumberForUser(
		c.Request.Context(), c.Param("orderNumber"), userID, middleware.IsAdmin(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (oc *OrderController) GetAllOrders(c *gin.Context) {
	page, limit := parsePagination(c)
	resp, err := oc.orderService.GetAllOrders(c.Request.Context(), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

type updateStatusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
}

func (oc *OrderController) UpdateOrderStatus(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	order, err := oc.orderService.UpdateOrderStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}
