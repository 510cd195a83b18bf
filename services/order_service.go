package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/flawlessmakeup/backend/apperrors"
	"github.com/flawlessmakeup/backend/models"
	"github.com/flawlessmakeup/backend/repository"
)

type OrderListResponse struct {
	Orders []models.Order `json:"orders"`
	Meta   MetaData       `json:"meta"`
}

type MetaData struct {
	Page        int   `json:"page"`
	Limit       int   `json:"limit"`
	TotalOrders int64 `json:"total_orders"`
	TotalPages  int64 `json:"total_pages"`
	HasMore     bool  `json:"has_more"`
}

// OrderService covers order reads and the status lifecycle. Creation lives
// in CheckoutService.
type OrderService interface {
	GetUserOrders(ctx context.Context, userID string, page, limit int) (*OrderListResponse, error)
	GetAllOrders(ctx context.Context, page, limit int) (*OrderListResponse, error)
	// GetOrderForUser returns the order only when the requester owns it or
	// is an admin.
	GetOrderForUser(ctx context.Context, id uint, userID string, isAdmin bool) (*models.Order, error)
	GetOrderByNumberForUser(ctx context.Context, orderNumber, userID string, isAdmin bool) (*models.Order, error)
	UpdateOrderStatus(ctx context.Context, id uint, status models.OrderStatus) (*models.Order, error)
}

type orderService struct {
	orders repository.OrderRepository
	logger *zap.Logger
	now    func() time.Time
}

func NewOrderService(orders repository.OrderRepository, logger *zap.Logger) OrderService {
	return &orderService{orders: orders, logger: logger, now: time.Now}
}

func (s *orderService) GetUserOrders(ctx context.Context, userID string, page, limit int) (*OrderListResponse, error) {
	orders, total, err := s.orders.FindByUserID(ctx, userID, page, limit)
	if err != nil {
		s.logger.Error("Failed to fetch orders", zap.String("user_id", userID), zap.Error(err))
		return nil, apperrors.New(500, "Failed to fetch orders", err)
	}
	return listResponse(orders, total, page, limit), nil
}

func (s *orderService) GetAllOrders(ctx context.Context, page, limit int) (*OrderListResponse, error) {
	orders, total, err := s.orders.FindAll(ctx, page, limit)
	if err != nil {
		s.logger.Error("Failed to fetch all orders", zap.Error(err))
		return nil, apperrors.New(500, "Failed to fetch orders", err)
	}
	return listResponse(orders, total, page, limit), nil
}

func (s *orderService) GetOrderForUser(ctx context.Context, id uint, userID string, isAdmin bool) (*models.Order, error) {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("Order")
		}
		return nil, err
	}
	if !isAdmin && (order.UserID == nil || *order.UserID != userID) {
		return nil, apperrors.ErrForbidden
	}
	return order, nil
}

func (s *orderService) GetOrderByNumberForUser(ctx context.Context, orderNumber, userID string, isAdmin bool) (*models.Order, error) {
	order, err := s.orders.FindByOrderNumber(ctx, orderNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("Order")
		}
		return nil, err
	}
	if !isAdmin && (order.UserID == nil || *order.UserID != userID) {
		return nil, apperrors.ErrForbidden
	}
	return order, nil
}

// UpdateOrderStatus moves an order along pending → confirmed → completed,
// with cancellation allowed from the two non-terminal states. Moving to
// confirmed stamps the payment date if it is not already set. Monetary
// fields and items never change here.
func (s *orderService) UpdateOrderStatus(ctx context.Context, id uint, status models.OrderStatus) (*models.Order, error) {
	if !models.ValidOrderStatus(status) {
		return nil, apperrors.NewValidation("unknown order status")
	}

	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("Order")
		}
		return nil, err
	}

	if !order.Status.CanTransitionTo(status) {
		return nil, apperrors.ErrInvalidTransition
	}

	order.Status = status
	if status == models.OrderStatusConfirmed && order.PaymentDate == nil {
		now := s.now()
		order.PaymentDate = &now
	}

	if err := s.orders.Update(ctx, order); err != nil {
		s.logger.Error("Failed to update order status",
			zap.Uint("order_id", id),
			zap.String("status", string(status)),
			zap.Error(err))
		return nil, apperrors.New(500, "Failed to update order", err)
	}
	return order, nil
}

func listResponse(orders []models.Order, total int64, page, limit int) *OrderListResponse {
	return &OrderListResponse{
		Orders: orders,
		Meta: MetaData{
			Page:        page,
			Limit:       limit,
			TotalOrders: total,
			TotalPages:  totalPages(total, limit),
			HasMore:     total > int64(page*limit),
		},
	}
}

func totalPages(total int64, limit int) int64 {
	if limit == 0 {
		return 0
	}
	return (total + int64(limit) - 1) / int64(limit)
}
