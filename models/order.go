package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// ValidOrderStatus reports whether s is a member of the status enumeration.
func ValidOrderStatus(s OrderStatus) bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether an order may move from s to next.
// Completed and cancelled are terminal.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	switch s {
	case OrderStatusPending:
		return next == OrderStatusConfirmed || next == OrderStatusCancelled
	case OrderStatusConfirmed:
		return next == OrderStatusCompleted || next == OrderStatusCancelled
	}
	return false
}

// Order is created exactly once per successful checkout. Monetary fields and
// items are immutable afterwards; only status and payment date change.
type Order struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	UserID      *string     `gorm:"size:64;index" json:"user_id,omitempty"`
	GuestEmail  *string     `gorm:"size:254" json:"guest_email,omitempty"`
	GuestName   *string     `gorm:"size:200" json:"guest_name,omitempty"`
	OrderNumber string      `gorm:"size:12;uniqueIndex;not null" json:"order_number"`
	OrderDate   time.Time   `gorm:"not null" json:"order_date"`
	Status      OrderStatus `gorm:"size:20;not null;default:'pending'" json:"status"`

	SubTotal     decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"sub_total"`
	Tax          decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"tax"`
	ShippingCost decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"shipping_cost"`
	TotalAmount  decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"total_amount"`

	ShippingFirstName string `gorm:"size:100;not null" json:"shipping_first_name"`
	ShippingLastName  string `gorm:"size:100;not null" json:"shipping_last_name"`
	ShippingAddress   string `gorm:"not null" json:"shipping_address"`
	ShippingAddress2  string `json:"shipping_address2"`
	ShippingCity      string `gorm:"size:100;not null" json:"shipping_city"`
	ShippingState     string `gorm:"size:100" json:"shipping_state"`
	ShippingZipCode   string `gorm:"size:20" json:"shipping_zip_code"`
	ShippingCountry   string `gorm:"size:100;not null" json:"shipping_country"`
	ShippingPhone     string `gorm:"size:30" json:"shipping_phone"`

	PaymentMethod        string     `gorm:"size:50" json:"payment_method"`
	PaymentProofImageURL *string    `json:"payment_proof_image_url,omitempty"`
	PaymentDate          *time.Time `json:"payment_date,omitempty"`
	Notes                string     `json:"notes"`

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsGuest reports whether the order was placed without an account.
func (o *Order) IsGuest() bool {
	return o.UserID == nil
}

// OrderItem denormalizes the product name, image and shade name so the order
// keeps rendering after catalog edits. UnitPrice is the cart snapshot.
type OrderItem struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	OrderID          uint            `gorm:"not null;index" json:"order_id"`
	ProductID        uint            `gorm:"not null" json:"product_id"`
	ProductShadeID   *uint           `json:"product_shade_id,omitempty"`
	ProductShadeName *string         `gorm:"size:100" json:"product_shade_name,omitempty"`
	Quantity         int             `gorm:"not null" json:"quantity"`
	UnitPrice        decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"unit_price"`
	ProductName      string          `gorm:"size:200;not null" json:"product_name"`
	ProductImageURL  string          `json:"product_image_url"`
}

// TotalPrice is quantity times unit price.
func (i *OrderItem) TotalPrice() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// OrderCounter serializes the daily order-number sequence. One row per
// calendar day, incremented atomically inside the checkout transaction.
type OrderCounter struct {
	DateKey string `gorm:"size:8;primaryKey"`
	LastSeq int    `gorm:"not null"`
}
