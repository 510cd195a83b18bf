package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/flawlessmakeup/backend/apperrors"
	"github.com/flawlessmakeup/backend/models"
	"github.com/flawlessmakeup/backend/repository"
)

// orderNumberRetries bounds how often a duplicate order number is retried
// with a fresh sequence before the checkout fails.
const orderNumberRetries = 3

// notifyTimeout bounds the best-effort admin notification so it can never
// hold resources long after the checkout response went out.
const notifyTimeout = 10 * time.Second

// Notifier dispatches the new-order notification. Implementations must not
// fail the checkout: errors are logged and swallowed at this boundary.
type Notifier interface {
	NotifyNewOrder(ctx context.Context, order *models.Order)
}

// GuestLineItem is one client-held cart line submitted inline with a guest
// order. UnitPrice is the price the shopper saw; stock is still validated
// live at assembly time.
type GuestLineItem struct {
	ProductID      uint            `json:"product_id" binding:"required"`
	ProductShadeID *uint           `json:"product_shade_id"`
	Quantity       int             `json:"quantity" binding:"required,min=1"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
}

// PlaceOrderRequest carries everything checkout needs beyond the cart
// itself. Guest checkouts additionally supply GuestEmail, GuestName and
// Items; authenticated checkouts leave those empty and the server cart is
// used instead.
type PlaceOrderRequest struct {
	GuestEmail string          `json:"guest_email"`
	GuestName  string          `json:"guest_name"`
	Items      []GuestLineItem `json:"items"`

	ShippingFirstName string `json:"shipping_first_name" binding:"required"`
	ShippingLastName  string `json:"shipping_last_name" binding:"required"`
	ShippingAddress   string `json:"shipping_address" binding:"required"`
	ShippingAddress2  string `json:"shipping_address2"`
	ShippingCity      string `json:"shipping_city" binding:"required"`
	ShippingState     string `json:"shipping_state"`
	ShippingZipCode   string `json:"shipping_zip_code"`
	ShippingCountry   string `json:"shipping_country" binding:"required"`
	ShippingPhone     string `json:"shipping_phone"`

	PaymentMethod        string  `json:"payment_method"`
	PaymentProofImageURL *string `json:"payment_proof_image_url"`
	Notes                string  `json:"notes"`
}

// resolvedLine is the normalized cart line the assembly core works on,
// regardless of whether it came from a server cart or a guest request.
type resolvedLine struct {
	ProductID uint
	ShadeID   *uint
	Quantity  int
	UnitPrice decimal.Decimal
}

// CheckoutService converts a cart into a persisted order while atomically
// validating and decrementing per-line stock.
type CheckoutService interface {
	// CreateOrderFromCart places an order. userID nil means guest checkout.
	CreateOrderFromCart(ctx context.Context, userID *string, req *PlaceOrderRequest) (*models.Order, error)
}

type checkoutService struct {
	txRunner repository.CheckoutTxRunner
	carts    CartService
	tax      TaxPolicy
	shipping ShippingPolicy
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time
}

func NewCheckoutService(
	txRunner repository.CheckoutTxRunner,
	carts CartService,
	tax TaxPolicy,
	shipping ShippingPolicy,
	notifier Notifier,
	logger *zap.Logger,
) CheckoutService {
	return &checkoutService{
		txRunner: txRunner,
		carts:    carts,
		tax:      tax,
		shipping: shipping,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *checkoutService) CreateOrderFromCart(ctx context.Context, userID *string, req *PlaceOrderRequest) (*models.Order, error) {
	lines, err := s.resolveLines(ctx, userID, req)
	if err != nil {
		return nil, err
	}

	var order *models.Order
	for attempt := 0; attempt < orderNumberRetries; attempt++ {
		order, err = s.assembleOrder(ctx, userID, req, lines)
		if !errors.Is(err, apperrors.ErrOrderNumberConflict) {
			break
		}
		s.logger.Warn("Order number conflict, retrying with fresh sequence",
			zap.Int("attempt", attempt+1))
	}
	if errors.Is(err, apperrors.ErrOrderNumberConflict) {
		return nil, apperrors.New(503, "Could not allocate an order number, please retry", err)
	}
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, userID, order)
	return order, nil
}

// resolveLines normalizes the two checkout origins into one line shape
// before the assembly core ever runs. All guest-input validation happens
// here, before any stock is touched.
func (s *checkoutService) resolveLines(ctx context.Context, userID *string, req *PlaceOrderRequest) ([]resolvedLine, error) {
	if userID != nil {
		cart, err := s.carts.GetCart(ctx, *userID)
		if err != nil {
			return nil, err
		}
		if len(cart.Items) == 0 {
			return nil, apperrors.ErrEmptyCart
		}
		lines := make([]resolvedLine, 0, len(cart.Items))
		for _, item := range cart.Items {
			lines = append(lines, resolvedLine{
				ProductID: item.ProductID,
				ShadeID:   item.ProductShadeID,
				Quantity:  item.Quantity,
				UnitPrice: item.Price,
			})
		}
		return lines, nil
	}

	if strings.TrimSpace(req.GuestEmail) == "" || strings.TrimSpace(req.GuestName) == "" {
		return nil, apperrors.NewValidation("guest email and name are required")
	}
	if len(req.Items) == 0 {
		return nil, apperrors.NewValidation("order must contain at least one item")
	}
	lines := make([]resolvedLine, 0, len(req.Items))
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, apperrors.NewValidation("item quantity must be positive")
		}
		lines = append(lines, resolvedLine{
			ProductID: item.ProductID,
			ShadeID:   item.ProductShadeID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	return lines, nil
}

// assembleOrder runs one transactional assembly attempt: validate and debit
// stock per line, build denormalized items, compute totals, mint the order
// number and insert. Any failure rolls the whole transaction back, so a
// multi-line order that fails on its last line leaves every stock row
// untouched.
func (s *checkoutService) assembleOrder(ctx context.Context, userID *string, req *PlaceOrderRequest, lines []resolvedLine) (*models.Order, error) {
	isGuest := userID == nil
	now := s.now()

	var order *models.Order
	err := s.txRunner.InCheckoutTx(ctx, func(store repository.CheckoutStore) error {
		items := make([]models.OrderItem, 0, len(lines))

		for _, line := range lines {
			product, err := store.ProductByID(ctx, line.ProductID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					if isGuest {
						// Stale client carts may reference removed products;
						// drop the line rather than failing the order.
						continue
					}
					return apperrors.NewNotFound("Product")
				}
				return err
			}

			item := models.OrderItem{
				ProductID:       product.ID,
				Quantity:        line.Quantity,
				UnitPrice:       line.UnitPrice,
				ProductName:     product.Name,
				ProductImageURL: product.ImageURL,
			}

			// Exactly one stock pool per line: the shade's when a shade is
			// selected, the product's otherwise.
			if line.ShadeID != nil {
				shade, err := store.ShadeByID(ctx, *line.ShadeID)
				if err != nil {
					if errors.Is(err, gorm.ErrRecordNotFound) {
						if isGuest {
							continue
						}
						return apperrors.NewNotFound("Product shade")
					}
					return err
				}
				if shade.ProductID != product.ID {
					return apperrors.NewValidation("shade does not belong to product")
				}

				remaining, ok, err := store.DecrementShadeStock(ctx, shade.ID, line.Quantity)
				if err != nil {
					return err
				}
				if !ok {
					return &apperrors.InsufficientStockError{
						ProductID:   product.ID,
						ProductName: product.Name,
						ShadeID:     &shade.ID,
						ShadeName:   shade.Name,
						Available:   remaining,
						Requested:   line.Quantity,
					}
				}
				item.ProductShadeID = &shade.ID
				item.ProductShadeName = &shade.Name
			} else {
				remaining, ok, err := store.DecrementProductStock(ctx, product.ID, line.Quantity)
				if err != nil {
					return err
				}
				if !ok {
					return &apperrors.InsufficientStockError{
						ProductID:   product.ID,
						ProductName: product.Name,
						Available:   remaining,
						Requested:   line.Quantity,
					}
				}
			}

			items = append(items, item)
		}

		if len(items) == 0 {
			return apperrors.NewValidation("none of the ordered products exist")
		}

		subTotal := decimal.Zero
		for i := range items {
			subTotal = subTotal.Add(items[i].TotalPrice())
		}
		tax := s.tax.Tax(subTotal)
		shippingCost := s.shipping.Cost(subTotal)
		total := subTotal.Add(tax).Add(shippingCost)

		dateKey := orderDateKey(now)
		seq, err := store.NextOrderSequence(ctx, dateKey)
		if err != nil {
			return err
		}

		order = &models.Order{
			UserID:               userID,
			OrderNumber:          formatOrderNumber(dateKey, seq),
			OrderDate:            now,
			Status:               models.OrderStatusPending,
			SubTotal:             subTotal,
			Tax:                  tax,
			ShippingCost:         shippingCost,
			TotalAmount:          total,
			ShippingFirstName:    req.ShippingFirstName,
			ShippingLastName:     req.ShippingLastName,
			ShippingAddress:      req.ShippingAddress,
			ShippingAddress2:     req.ShippingAddress2,
			ShippingCity:         req.ShippingCity,
			ShippingState:        req.ShippingState,
			ShippingZipCode:      req.ShippingZipCode,
			ShippingCountry:      req.ShippingCountry,
			ShippingPhone:        req.ShippingPhone,
			PaymentMethod:        req.PaymentMethod,
			PaymentProofImageURL: req.PaymentProofImageURL,
			Notes:                req.Notes,
			Items:                items,
		}
		if isGuest {
			email := strings.TrimSpace(req.GuestEmail)
			name := strings.TrimSpace(req.GuestName)
			order.GuestEmail = &email
			order.GuestName = &name
		}

		if err := store.InsertOrder(ctx, order); err != nil {
			if repository.IsDuplicateKey(err) {
				return apperrors.ErrOrderNumberConflict
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// afterCommit runs the side effects that must never undo the order: the
// server cart is cleared (guest carts are client-held and cleared by the
// caller) and the admin notification goes out in the background.
func (s *checkoutService) afterCommit(ctx context.Context, userID *string, order *models.Order) {
	if userID != nil {
		if _, err := s.carts.Clear(ctx, *userID); err != nil {
			s.logger.Error("Failed to clear cart after checkout",
				zap.String("user_id", *userID),
				zap.String("order_number", order.OrderNumber),
				zap.Error(err))
		}
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("Order notification panicked",
					zap.String("order_number", order.OrderNumber),
					zap.Any("panic", r))
			}
		}()
		notifyCtx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		s.notifier.NotifyNewOrder(notifyCtx, order)
	}()
}
