package models

import (
	"time"

	"gorm.io/gorm"
)

type City struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"size:100;not null;index" json:"name"`
	State     string         `gorm:"size:100" json:"state,omitempty"`
	CountryID uint           `gorm:"not null;index" json:"country_id"`
	IsActive  bool           `gorm:"default:true;index" json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Country Country `gorm:"foreignKey:CountryID" json:"country,omitempty"`
}

func (City) TableName() string {
	return "cities"
}
