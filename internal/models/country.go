package models

import (
	"time"

	"gorm.io/gorm"
)

type Country struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"size:100;not null;uniqueIndex" json:"name"`
	Code      string         `gorm:"size:2;not null;uniqueIndex" json:"code"` // ISO 3166-1 alpha-2
	PhoneCode string         `gorm:"size:8" json:"phone_code,omitempty"`
	Currency  string         `gorm:"size:3" json:"currency,omitempty"`
	IsActive  bool           `gorm:"default:true;index" json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Country) TableName() string {
	return "countries"
}
