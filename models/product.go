package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// StringList stores an ordered list of strings as a JSON column.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	return string(b), err
}

func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("unsupported type for StringList: %T", value)
	}
}

type Product struct {
	ID            uint             `gorm:"primaryKey" json:"id"`
	Name          string           `gorm:"size:200;not null" json:"name"`
	Description   string           `json:"description"`
	Price         decimal.Decimal  `gorm:"type:numeric(10,2);not null" json:"price"`
	SalePrice     *decimal.Decimal `gorm:"type:numeric(10,2)" json:"sale_price,omitempty"`
	StockQuantity int              `gorm:"not null;default:0" json:"stock_quantity"`
	ImageURL      string           `json:"image_url"`
	ImageURLs     StringList       `gorm:"type:jsonb" json:"image_urls"`
	CategoryID    uint             `gorm:"not null;index" json:"category_id"`
	Category      *Category        `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	IsActive      bool             `gorm:"default:true" json:"is_active"`
	IsFeatured    bool             `gorm:"default:false" json:"is_featured"`
	IsOnSale      bool             `gorm:"default:false" json:"is_on_sale"`
	Brand         string           `json:"brand,omitempty"`
	Size          string           `json:"size,omitempty"`
	Ingredients   string           `json:"ingredients,omitempty"`
	SkinType      string           `json:"skin_type,omitempty"`
	DateCreated   time.Time        `gorm:"autoCreateTime" json:"date_created"`
	DateUpdated   time.Time        `gorm:"autoUpdateTime" json:"date_updated"`
	Shades        []ProductShade   `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"shades,omitempty"`
}

// EffectivePrice is what the shopper pays right now: the sale price when one
// is set, the base price otherwise.
func (p *Product) EffectivePrice() decimal.Decimal {
	if p.SalePrice != nil {
		return *p.SalePrice
	}
	return p.Price
}

// ProductShade is a purchasable sub-option of a product with its own stock
// pool. When a product has shades, the product-level stock field is not used
// for shade-attached purchases.
type ProductShade struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ProductID     uint      `gorm:"not null;index" json:"product_id"`
	Name          string    `gorm:"size:100;not null" json:"name"`
	StockQuantity int       `gorm:"not null;default:0" json:"stock_quantity"`
	IsActive      bool      `gorm:"default:true" json:"is_active"`
	DisplayOrder  int       `gorm:"default:0" json:"display_order"`
	DateCreated   time.Time `gorm:"autoCreateTime" json:"date_created"`
	DateUpdated   time.Time `gorm:"autoUpdateTime" json:"date_updated"`
}
