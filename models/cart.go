package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Cart struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	UserID      string     `gorm:"size:64;not null;uniqueIndex" json:"user_id"`
	Items       []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items"`
	DateCreated time.Time  `gorm:"autoCreateTime" json:"date_created"`
	DateUpdated time.Time  `gorm:"autoUpdateTime" json:"date_updated"`
}

// TotalItems is the sum of line quantities.
func (c *Cart) TotalItems() int {
	total := 0
	for _, item := range c.Items {
		total += item.Quantity
	}
	return total
}

// TotalAmount is the sum of quantity times snapshot price over all lines.
func (c *Cart) TotalAmount() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

// CartItem holds one (product, shade) line. Price is a snapshot taken when
// the line was added or last merged, not the live catalog price.
type CartItem struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	CartID         uint            `gorm:"not null;index" json:"cart_id"`
	ProductID      uint            `gorm:"not null" json:"product_id"`
	Product        *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	ProductShadeID *uint           `json:"product_shade_id,omitempty"`
	ProductShade   *ProductShade   `gorm:"foreignKey:ProductShadeID" json:"product_shade,omitempty"`
	Quantity       int             `gorm:"not null" json:"quantity"`
	Price          decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"`
	DateAdded      time.Time       `gorm:"autoCreateTime" json:"date_added"`
}
