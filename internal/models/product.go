package models

import (
	"time"

	"gorm.io/gorm"
)

type Product struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Name         string         `gorm:"size:255;not null;index" json:"name"`
	Description  string         `gorm:"type:text" json:"description"`
	SKU          string         `gorm:"size:64;not null;uniqueIndex" json:"sku"`
	Category     string         `gorm:"size:100;index" json:"category"`
	PriceCents   int64          `gorm:"not null" json:"price_cents"`
	Currency     string         `gorm:"size:3;default:'usd'" json:"currency"`
	Stock        int            `gorm:"not null;default:0" json:"stock"`
	Status       string         `gorm:"size:20;not null;default:'Active';index" json:"status"` // Active, Inactive, Draft
	ImageURL     string         `gorm:"size:1024" json:"image_url,omitempty"`
	ThumbnailURL string         `gorm:"size:1024" json:"thumbnail_url,omitempty"`
	IsFeatured   bool           `gorm:"default:false" json:"is_featured"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Product) TableName() string {
	return "products"
}
