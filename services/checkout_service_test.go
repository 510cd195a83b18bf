package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/flawlessmakeup/backend/apperrors"
	"github.com/flawlessmakeup/backend/models"
	"github.com/flawlessmakeup/backend/repository"
)

// fakeCheckoutDB backs the fake store with snapshot-and-restore transaction
// semantics: a failed transaction leaves stock, counters and orders exactly
// as they were.
type fakeCheckoutDB struct {
	mu       sync.Mutex
	products map[uint]*models.Product
	shades   map[uint]*models.ProductShade
	counters map[string]int
	orders   []*models.Order
	numbers  map[string]bool

	// forcedDuplicates makes the next N inserts fail with a unique
	// violation regardless of the order number.
	forcedDuplicates int
}

func newFakeCheckoutDB() *fakeCheckoutDB {
	return &fakeCheckoutDB{
		products: make(map[uint]*models.Product),
		shades:   make(map[uint]*models.ProductShade),
		counters: make(map[string]int),
		numbers:  make(map[string]bool),
	}
}

type dbSnapshot struct {
	productStock map[uint]int
	shadeStock   map[uint]int
	counters     map[string]int
	orderCount   int
	numbers      map[string]bool
}

func (db *fakeCheckoutDB) snapshot() dbSnapshot {
	snap := dbSnapshot{
		productStock: make(map[uint]int, len(db.products)),
		shadeStock:   make(map[uint]int, len(db.shades)),
		counters:     make(map[string]int, len(db.counters)),
		orderCount:   len(db.orders),
		numbers:      make(map[string]bool, len(db.numbers)),
	}
	for id, p := range db.products {
		snap.productStock[id] = p.StockQuantity
	}
	for id, s := range db.shades {
		snap.shadeStock[id] = s.StockQuantity
	}
	for k, v := range db.counters {
		snap.counters[k] = v
	}
	for n := range db.numbers {
		snap.numbers[n] = true
	}
	return snap
}

func (db *fakeCheckoutDB) restore(snap dbSnapshot) {
	for id, qty := range snap.productStock {
		db.products[id].StockQuantity = qty
	}
	for id, qty := range snap.shadeStock {
		db.shades[id].StockQuantity = qty
	}
	db.counters = snap.counters
	db.orders = db.orders[:snap.orderCount]
	db.numbers = snap.numbers
}

// InCheckoutTx serializes transactions under one lock, which mirrors the row
// locking the guarded UPDATE provides on a real database.
func (db *fakeCheckoutDB) InCheckoutTx(ctx context.Context, fn func(store repository.CheckoutStore) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	snap := db.snapshot()
	if err := fn(&fakeCheckoutStore{db: db}); err != nil {
		db.restore(snap)
		return err
	}
	return nil
}

type fakeCheckoutStore struct {
	db *fakeCheckoutDB
}

func (s *fakeCheckoutStore) ProductByID(ctx context.Context, id uint) (*models.Product, error) {
	p, ok := s.db.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *fakeCheckoutStore) ShadeByID(ctx context.Context, id uint) (*models.ProductShade, error) {
	sh, ok := s.db.shades[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *sh
	return &cp, nil
}

func (s *fakeCheckoutStore) DecrementProductStock(ctx context.Context, id uint, qty int) (int, bool, error) {
	p, ok := s.db.products[id]
	if !ok {
		return 0, false, gorm.ErrRecordNotFound
	}
	if p.StockQuantity < qty {
		return p.StockQuantity, false, nil
	}
	p.StockQuantity -= qty
	return p.StockQuantity, true, nil
}

func (s *fakeCheckoutStore) DecrementShadeStock(ctx context.Context, id uint, qty int) (int, bool, error) {
	sh, ok := s.db.shades[id]
	if !ok {
		return 0, false, gorm.ErrRecordNotFound
	}
	if sh.StockQuantity < qty {
		return sh.StockQuantity, false, nil
	}
	sh.StockQuantity -= qty
	return sh.StockQuantity, true, nil
}

func (s *fakeCheckoutStore) NextOrderSequence(ctx context.Context, dateKey string) (int, error) {
	s.db.counters[dateKey]++
	return s.db.counters[dateKey], nil
}

func (s *fakeCheckoutStore) InsertOrder(ctx context.Context, order *models.Order) error {
	if s.db.forcedDuplicates > 0 {
		s.db.forcedDuplicates--
		return gorm.ErrDuplicatedKey
	}
	if s.db.numbers[order.OrderNumber] {
		return gorm.ErrDuplicatedKey
	}
	order.ID = uint(len(s.db.orders) + 1)
	s.db.numbers[order.OrderNumber] = true
	s.db.orders = append(s.db.orders, order)
	return nil
}

// fakeCartService serves a canned cart and records Clear calls.
type fakeCartService struct {
	mu         sync.Mutex
	cart       *models.Cart
	clearCalls []string
	clearErr   error
}

func (f *fakeCartService) GetCart(ctx context.Context, userID string) (*models.Cart, error) {
	if f.cart == nil {
		return &models.Cart{UserID: userID}, nil
	}
	return f.cart, nil
}

func (f *fakeCartService) AddItem(ctx context.Context, userID string, productID uint, shadeID *uint, quantity int) (*models.Cart, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeCartService) UpdateItem(ctx context.Context, userID string, productID uint, shadeID *uint, quantity int) (*models.Cart, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeCartService) RemoveItem(ctx context.Context, userID string, productID uint, shadeID *uint) (*models.Cart, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeCartService) Clear(ctx context.Context, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clearCalls = append(f.clearCalls, userID)
	if f.clearErr != nil {
		return false, f.clearErr
	}
	return true, nil
}

func (f *fakeCartService) ItemCount(ctx context.Context, userID string) (int, error) {
	return 0, nil
}

type fakeNotifier struct {
	notified chan *models.Order
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{notified: make(chan *models.Order, 4)}
}

func (f *fakeNotifier) NotifyNewOrder(ctx context.Context, order *models.Order) {
	f.notified <- order
}

func fixedNow() time.Time {
	return time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)
}

func newTestCheckout(db *fakeCheckoutDB, carts CartService, tax TaxPolicy, ship ShippingPolicy, notifier Notifier) *checkoutService {
	svc := NewCheckoutService(db, carts, tax, ship, notifier, zap.NewNop()).(*checkoutService)
	svc.now = fixedNow
	return svc
}

func validShipping() *PlaceOrderRequest {
	return &PlaceOrderRequest{
		ShippingFirstName: "Sumaia",
		ShippingLastName:  "K",
		ShippingAddress:   "12 Rainbow St",
		ShippingCity:      "Amman",
		ShippingCountry:   "Jordan",
		PaymentMethod:     "cliq",
	}
}

func guestRequest(items ...GuestLineItem) *PlaceOrderRequest {
	req := validShipping()
	req.GuestEmail = "guest@example.com"
	req.GuestName = "Guest Shopper"
	req.Items = items
	return req
}

func price(v string) decimal.Decimal {
	d, _ := decimal.NewFromString(v)
	return d
}

func TestGuestCheckoutComputesTotalsAndNumber(t *testing.T) {
	db := newFakeCheckoutDB()
	db.products[1] = &models.Product{ID: 1, Name: "Velvet Lipstick", Price: price("12.50"), StockQuantity: 10}
	db.products[2] = &models.Product{ID: 2, Name: "Setting Spray", Price: price("8.00"), StockQuantity: 5}

	notifier := newFakeNotifier()
	svc := newTestCheckout(db, &fakeCartService{}, NoTax{}, FlatShipping{Fee: price("3")}, notifier)

	req := guestRequest(
		GuestLineItem{ProductID: 1, Quantity: 2, UnitPrice: price("12.50")},
		GuestLineItem{ProductID: 2, Quantity: 1, UnitPrice: price("8.00")},
	)
	order, err := svc.CreateOrderFromCart(context.Background(), nil, req)
	require.NoError(t, err)

	assert.Equal(t, "202603150001", order.OrderNumber)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.True(t, order.IsGuest())
	require.NotNil(t, order.GuestEmail)
	assert.Equal(t, "guest@example.com", *order.GuestEmail)

	assert.True(t, order.SubTotal.Equal(price("33.00")), "subtotal %s", order.SubTotal)
	assert.True(t, order.Tax.IsZero())
	assert.True(t, order.ShippingCost.Equal(price("3")))
	assert.True(t, order.TotalAmount.Equal(price("36.00")), "total %s", order.TotalAmount)

	assert.Equal(t, 8, db.products[1].StockQuantity)
	assert.Equal(t, 4, db.products[2].StockQuantity)

	select {
	case got := <-notifier.notified:
		assert.Equal(t, order.OrderNumber, got.OrderNumber)
	case <-time.After(time.Second):
		t.Fatal("notification never dispatched")
	}
}

func TestGuestCheckoutWithTaxAndFreeShipping(t *testing.T) {
	db := newFakeCheckoutDB()
	db.products[1] = &models.Product{ID: 1, Name: "Foundation", Price: price("40.00"), StockQuantity: 3}

	ship := ThresholdShipping{Fee: price("3"), Threshold: price("50")}
	svc := newTestCheckout(db, &fakeCartService{}, PercentTax{Rate: price("0.16")}, ship, newFakeNotifier())

	order, err := svc.CreateOrderFromCart(context.Background(), nil,
		guestRequest(GuestLineItem{ProductID: 1, Quantity: 2, UnitPrice: price("40.00")}))
	require.NoError(t, err)

	assert.True(t, order.SubTotal.Equal(price("80.00")))
	assert.True(t, order.Tax.Equal(price("12.80")), "tax %s", order.Tax)
	assert.True(t, order.ShippingCost.IsZero(), "order over threshold ships free")
	assert.True(t, order.TotalAmount.Equal(price("92.80")))
}

func TestAuthenticatedCheckoutUsesServerCartAndClearsIt(t *testing.T) {
	db := newFakeCheckoutDB()
	db.products[1] = &models.Product{ID: 1, Name: "Blush", Price: price("9.00"), StockQuantity: 4}

	userID := "user-42"
	carts := &fakeCartService{cart: &models.Cart{
		UserID: userID,
		Items: []models.CartItem{
			{ProductID: 1, Quantity: 3, Price: price("9.00")},
		},
	}}
	svc := newTestCheckout(db, carts, NoTax{}, FlatShipping{Fee: price("3")}, newFakeNotifier())

	order, err := svc.CreateOrderFromCart(context.Background(), &userID, validShipping())
	require.NoError(t, err)

	assert.False(t, order.IsGuest())
	require.NotNil(t, order.UserID)
	assert.Equal(t, userID, *order.UserID)
	assert.Nil(t, order.GuestEmail)
	assert.Equal(t, 1, db.products[1].StockQuantity)
	assert.Equal(t, []string{userID}, carts.clearCalls)
}

func TestAuthenticatedCheckoutEmptyCart(t *testing.T) {
	db := newFakeCheckoutDB()
	userID := "user-42"
	svc := newTestCheckout(db, &fakeCartService{}, NoTax{}, FlatShipping{Fee: price("3")}, newFakeNotifier())

	_, err := svc.CreateOrderFromCart(context.Background(), &userID, validShipping())
	assert.ErrorIs(t, err, apperrors.ErrEmptyCart)
	assert.Empty(t, db.orders)
}

func TestGuestCheckoutValidation(t *testing.T) {
	db := newFakeCheckoutDB()
	db.products[1] = &models.Product{ID: 1, Name: "Blush", Price: price("9.00"), StockQuantity: 4}
	svc := newTestCheckout(db, &fakeCartService{}, NoTax{}, FlatShipping{Fee: price("3")}, newFakeNotifier())

	missingContact := validShipping()
	missingContact.Items = []GuestLineItem{{ProductID: 1, Quantity: 1, UnitPrice: price("9.00")}}
	_, err := svc.CreateOrderFromCart(context.Background(), nil, missingContact)
	var appErr *apperrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 400, appErr.Code)

	_, err = svc.CreateOrderFromCart(context.Background(), nil, guestRequest())
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 400, appErr.Code)

	_, err = svc.CreateOrderFromCart(context.Background(), nil,
		guestRequest(GuestLineItem{ProductID: 1, Quantity: 0, UnitPrice: price("9.00")}))
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 400, appErr.Code)

	// Validation failures never touch stock.
	assert.Equal(t, 4, db.products[1].StockQuantity)
}

func TestGuestCheckoutSkipsMissingProducts(t *testing.T) {
	db := newFakeCheckoutDB()
	db.products[1] = &models.Product{ID: 1, Name: "Blush", Price: price("9.00"), StockQuantity: 4}
	svc := newTestCheckout(db, &fakeCartService{}, NoTax{}, FlatShipping{Fee: price("3")}, newFakeNotifier())

	order, err := svc.CreateOrderFromCart(context.Background(), nil, guestRequest(
		GuestLineItem{ProductID: 999, Quantity: 1, UnitPrice: price("5.00")},
		GuestLineItem{ProductID: 1, Quantity: 1, UnitPrice: price("9.00")},
	))
	require.NoError(t, err)
	require.Len(t, order.Items, 1)
	assert.Equal(t, uint(1), order.Items[0].ProductID)
	assert.True(t, order.SubTotal.Equal(price("9.00")), "dropped line must not be charged")
}

func TestGuestCheckoutAllProductsMissing(t *testing.T) {
	db := newFakeCheckoutDB()
	svc := newTestCheckout(db, &fakeCartService{}, NoTax{}, FlatShipping{Fee: price("3")}, newFakeNotifier())

	_, err := svc.CreateOrderFromCart(context.Background(), nil,
		guestRequest(GuestLineItem{ProductID: 999, Quantity: 1, UnitPrice: price("5.00")}))
	var appErr *apperrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 400, appErr.Code)
}

func TestAuthenticatedCheckoutMissingProductFails(t *testing.T) {
	db := newFakeCheckoutDB()
	userID := "user-42"
	carts := &fakeCartService{cart: &models.Cart{
		UserID: userID,
		Items:  []models.CartItem{{ProductID: 999, Quantity: 1, Price: price("5.00")}},
	}}
	svc := newTestCheckout(db, carts, NoTax{}, FlatShipping{Fee: price("3")}, newFakeNotifier())

	_, err := svc.CreateOrderFromCart(context.Background(), &userID, validShipping())
	var appErr *apperrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 404, appErr.Code)
	assert.Empty(t, carts.clearCalls, "cart survives a failed checkout")
}

func TestInsufficientStockRollsBackWholeOrder(t *testing.T) {
	db := newFakeCheckoutDB()
	db.products[1] = &models.Product{ID: 1, Name: "Blush", Price: price("9.00"), StockQuantity: 10}
	db.products[2] = &models.Product{ID: 2, Name: "Mascara", Price: price("11.00"), StockQuantity: 1}
	svc := newTestCheckout(db, &fakeCartService{}, NoTax{}, FlatShipping{Fee: price("3")}, newFakeNotifier())

	_, err := svc.CreateOrderFromCart(context.Background(), nil, guestRequest(
		GuestLineItem{ProductID: 1, Quantity: 2, UnitPrice: price("9.00")},
		GuestLineItem{ProductID: 2, Quantity: 3, UnitPrice: price("11.00")},
	))

	var stockErr *apperrors.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, uint(2), stockErr.ProductID)
	assert.Equal(t, "Mascara", stockErr.ProductName)
	assert.Equal(t, 1, stockErr.Available)
	assert.Equal(t, 3, stockErr.Requested)

	// The first line's decrement must have been rolled back.
	assert.Equal(t, 10, db.products[1].StockQuantity)
	assert.Equal(t, 1, db.products[2].StockQuantity)
	assert.Empty(t, db.orders)
	assert.Equal(t, 0, db.counters[orderDateKey(fixedNow())], "rollback leaves no sequence gap")
}

func TestConcurrentCheckoutLastUnit(t *testing.T) {
	db := newFakeCheckoutDB()
	db.products[1] = &models.Product{ID: 1, Name: "Limited Palette", Price: price("25.00"), StockQuantity: 1}
	svc := newTestCheckout(db, &fakeCartService{}, NoTax{}, FlatShipping{Fee: price("3")}, newFakeNotifier())

	const shoppers = 8
	errs := make(chan error, shoppers)
	var wg sync.WaitGroup
	for i := 0; i < shoppers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CreateOrderFromCart(context.Background(), nil,
				guestRequest(GuestLineItem{ProductID: 1, Quantity: 1, UnitPrice: price("25.00")}))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded, short := 0, 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		var stockErr *apperrors.InsufficientStockError
		require.ErrorAs(t, err, &stockErr)
		short++
	}
	assert.Equal(t, 1, succeeded, "exactly one shopper gets the last unit")
	assert.Equal(t, shoppers-1, short)
	assert.Equal(t, 0, db.products[1].StockQuantity, "stock never goes negative")
	assert.Len(t, db.orders, 1)
}

func TestShadeCheckoutUsesShadeStockPool(t *testing.T) {
	db := newFakeCheckoutDB()
	db.products[1] = &models.Product{ID: 1, Name: "Lipstick", Price: price("12.00"), StockQuantity: 50}
	db.shades[7] = &models.ProductShade{ID: 7, ProductID: 1, Name: "Ruby", StockQuantity: 2}
	svc := newTestCheckout(db, &fakeCartService{}, NoTax{}, FlatShipping{Fee: price("3")}, newFakeNotifier())

	shadeID := uint(7)
	order, err := svc.CreateOrderFromCart(context.Background(), nil, guestRequest(
		GuestLineItem{ProductID: 1, ProductShadeID: &shadeID, Quantity: 2, UnitPrice: price("12.00")},
	))
	require.NoError(t, err)

	assert.Equal(t, 0, db.shades[7].StockQuantity)
	assert.Equal(t, 50, db.products[1].StockQuantity, "product pool untouched for shade lines")
	require.NotNil(t, order.Items[0].ProductShadeName)
	assert.Equal(t, "Ruby", *order.Items[0].ProductShadeName)

	// A third unit of the shade is now unavailable even though the product
	// pool has plenty.
	_, err = svc.CreateOrderFromCart(context.Background(), nil, guestRequest(
		GuestLineItem{ProductID: 1, ProductShadeID: &shadeID, Quantity: 1, UnitPrice: price("12.00")},
	))
	var stockErr *apperrors.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	require.NotNil(t, stockErr.ShadeID)
	assert.Equal(t, shadeID, *stockErr.ShadeID)
}

func TestShadeMustBelongToProduct(t *testing.T) {
	db := newFakeCheckoutDB()
	db.products[1] = &models.Product{ID: 1, Name: "Lipstick", Price: price("12.00"), StockQuantity: 5}
	db.products[2] = &models.Product{ID: 2, Name: "Gloss", Price: price("10.00"), StockQuantity: 5}
	db.shades[7] = &models.ProductShade{ID: 7, ProductID: 2, Name: "Ruby", StockQuantity: 5}
	svc := newTestCheckout(db, &fakeCartService{}, NoTax{}, FlatShipping{Fee: price("3")}, newFakeNotifier())

	shadeID := uint(7)
	_, err := svc.CreateOrderFromCart(context.Background(), nil, guestRequest(
		GuestLineItem{ProductID: 1, ProductShadeID: &shadeID, Quantity: 1, UnitPrice: price("12.00")},
	))
	var appErr *apperrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 400, appErr.Code)
	assert.Equal(t, 5, db.shades[7].StockQuantity)
}

func TestOrderNumberConflictRetries(t *testing.T) {
	db := newFakeCheckoutDB()
	db.products[1] = &models.Product{ID: 1, Name: "Blush", Price: price("9.00"), StockQuantity: 10}
	db.forcedDuplicates = 1
	svc := newTestCheckout(db, &fakeCartService{}, NoTax{}, FlatShipping{Fee: price("3")}, newFakeNotifier())

	order, err := svc.CreateOrderFromCart(context.Background(), nil,
		guestRequest(GuestLineItem{ProductID: 1, Quantity: 1, UnitPrice: price("9.00")}))
	require.NoError(t, err)

	// The failed attempt rolled back, so the retry re-mints from a clean
	// counter and debits stock exactly once.
	assert.Equal(t, "202603150001", order.OrderNumber)
	assert.Equal(t, 9, db.products[1].StockQuantity)
}

func TestOrderNumberConflictExhaustsRetries(t *testing.T) {
	db := newFakeCheckoutDB()
	db.products[1] = &models.Product{ID: 1, Name: "Blush", Price: price("9.00"), StockQuantity: 10}
	db.forcedDuplicates = orderNumberRetries
	svc := newTestCheckout(db, &fakeCartService{}, NoTax{}, FlatShipping{Fee: price("3")}, newFakeNotifier())

	_, err := svc.CreateOrderFromCart(context.Background(), nil,
		guestRequest(GuestLineItem{ProductID: 1, Quantity: 1, UnitPrice: price("9.00")}))
	var appErr *apperrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 503, appErr.Code)
	assert.Equal(t, 10, db.products[1].StockQuantity)
}

func TestOrderNumbersAreSequentialWithinDay(t *testing.T) {
	db := newFakeCheckoutDB()
	db.products[1] = &models.Product{ID: 1, Name: "Blush", Price: price("9.00"), StockQuantity: 10}
	svc := newTestCheckout(db, &fakeCartService{}, NoTax{}, FlatShipping{Fee: price("3")}, newFakeNotifier())

	var numbers []string
	for i := 0; i < 3; i++ {
		order, err := svc.CreateOrderFromCart(context.Background(), nil,
			guestRequest(GuestLineItem{ProductID: 1, Quantity: 1, UnitPrice: price("9.00")}))
		require.NoError(t, err)
		numbers = append(numbers, order.OrderNumber)
	}
	assert.Equal(t, []string{"202603150001", "202603150002", "202603150003"}, numbers)
}

func TestCartClearFailureDoesNotFailCheckout(t *testing.T) {
	db := newFakeCheckoutDB()
	db.products[1] = &models.Product{ID: 1, Name: "Blush", Price: price("9.00"), StockQuantity: 10}

	userID := "user-42"
	carts := &fakeCartService{
		cart: &models.Cart{
			UserID: userID,
			Items:  []models.CartItem{{ProductID: 1, Quantity: 1, Price: price("9.00")}},
		},
		clearErr: errors.New("redis hiccup"),
	}
	svc := newTestCheckout(db, carts, NoTax{}, FlatShipping{Fee: price("3")}, newFakeNotifier())

	order, err := svc.CreateOrderFromCart(context.Background(), &userID, validShipping())
	require.NoError(t, err)
	assert.NotEmpty(t, order.OrderNumber)
	assert.Len(t, db.orders, 1)
}
