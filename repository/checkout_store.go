package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/flawlessmakeup/backend/models"
)

// CheckoutStore is the unit of work available inside a checkout transaction.
// Every read reflects the latest committed value at the transaction's
// isolation level; there is no caching across the transaction boundary.
type CheckoutStore interface {
	ProductByID(ctx context.Context, id uint) (*models.Product, error)
	ShadeByID(ctx context.Context, id uint) (*models.ProductShade, error)

	// DecrementProductStock and DecrementShadeStock subtract qty from the
	// row's stock only when enough remains. They return the remaining stock
	// and false (without mutating) when the row is short.
	DecrementProductStock(ctx context.Context, id uint, qty int) (remaining int, ok bool, err error)
	DecrementShadeStock(ctx context.Context, id uint, qty int) (remaining int, ok bool, err error)

	// NextOrderSequence atomically increments and returns the sequence for
	// the given YYYYMMDD key.
	NextOrderSequence(ctx context.Context, dateKey string) (int, error)

	// InsertOrder persists the order with its items and assigns IDs. A
	// duplicate order number maps to apperrors.ErrOrderNumberConflict at the
	// service layer via gorm.ErrDuplicatedKey.
	InsertOrder(ctx context.Context, order *models.Order) error
}

// CheckoutTxRunner runs fn inside a single database transaction; any error
// from fn rolls back every stock decrement and insert made through the store.
type CheckoutTxRunner interface {
	InCheckoutTx(ctx context.Context, fn func(store CheckoutStore) error) error
}

type gormCheckoutStore struct {
	tx *gorm.DB
}

type GormCheckoutTxRunner struct {
	db *gorm.DB
}

func NewGormCheckoutTxRunner(db *gorm.DB) CheckoutTxRunner {
	return &GormCheckoutTxRunner{db: db}
}

func (r *GormCheckoutTxRunner) InCheckoutTx(ctx context.Context, fn func(store CheckoutStore) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormCheckoutStore{tx: tx})
	})
}

func (s *gormCheckoutStore) ProductByID(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	if err := s.tx.Preload("Shades").First(&product, id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (s *gormCheckoutStore) ShadeByID(ctx context.Context, id uint) (*models.ProductShade, error) {
	var shade models.ProductShade
	if err := s.tx.First(&shade, id).Error; err != nil {
		return nil, err
	}
	return &shade, nil
}

// The guarded UPDATE is what makes concurrent checkouts safe: the row's
// current value is checked and decremented in one statement, so two requests
// racing for the last unit cannot both succeed.
func (s *gormCheckoutStore) DecrementProductStock(ctx context.Context, id uint, qty int) (int, bool, error) {
	res := s.tx.Model(&models.Product{}).
		Where("id = ? AND stock_quantity >= ?", id, qty).
		UpdateColumn("stock_quantity", gorm.Expr("stock_quantity - ?", qty))
	if res.Error != nil {
		return 0, false, res.Error
	}
	if res.RowsAffected == 0 {
		var current int
		err := s.tx.Model(&models.Product{}).
			Where("id = ?", id).
			Select("stock_quantity").
			Scan(&current).Error
		return current, false, err
	}

	var remaining int
	err := s.tx.Model(&models.Product{}).
		Where("id = ?", id).
		Select("stock_quantity").
		Scan(&remaining).Error
	return remaining, true, err
}

func (s *gormCheckoutStore) DecrementShadeStock(ctx context.Context, id uint, qty int) (int, bool, error) {
	res := s.tx.Model(&models.ProductShade{}).
		Where("id = ? AND stock_quantity >= ?", id, qty).
		UpdateColumn("stock_quantity", gorm.Expr("stock_quantity - ?", qty))
	if res.Error != nil {
		return 0, false, res.Error
	}
	if res.RowsAffected == 0 {
		var current int
		err := s.tx.Model(&models.ProductShade{}).
			Where("id = ?", id).
			Select("stock_quantity").
			Scan(&current).Error
		return current, false, err
	}

	var remaining int
	err := s.tx.Model(&models.ProductShade{}).
		Where("id = ?", id).
		Select("stock_quantity").
		Scan(&remaining).Error
	return remaining, true, err
}

// NextOrderSequence replaces the racy "scan today's orders for the max
// number" approach with a per-day counter row. The upsert takes a row lock,
// so concurrent checkouts on the same day serialize here and each one gets a
// distinct sequence. A rolled-back transaction leaves no gap behind.
func (s *gormCheckoutStore) NextOrderSequence(ctx context.Context, dateKey string) (int, error) {
	var seq int
	err := s.tx.Raw(`
		INSERT INTO order_counters (date_key, last_seq)
		VALUES (?, 1)
		ON CONFLICT (date_key)
		DO UPDATE SET last_seq = order_counters.last_seq + 1
		RETURNING last_seq`, dateKey).Scan(&seq).Error
	if err != nil {
		return 0, err
	}
	return seq, nil
}

func (s *gormCheckoutStore) InsertOrder(ctx context.Context, order *models.Order) error {
	return s.tx.Create(order).Error
}

// IsDuplicateKey reports whether err is a translated unique violation.
func IsDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
