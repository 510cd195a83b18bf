package models

import "time"

type Category struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	NameEn       string    `gorm:"size:100;not null" json:"name_en"`
	NameAr       string    `gorm:"size:100" json:"name_ar"`
	Description  string    `json:"description"`
	ImageURL     string    `json:"image_url"`
	IsActive     bool      `gorm:"default:true" json:"is_active"`
	DisplayOrder int       `gorm:"default:0" json:"display_order"`
	DateCreated  time.Time `gorm:"autoCreateTime" json:"date_created"`
	Products     []Product `gorm:"foreignKey:CategoryID" json:"products,omitempty"`
}
