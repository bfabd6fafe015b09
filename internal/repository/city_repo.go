package repository

import (
	"storefront/internal/models"

	"gorm.io/gorm"
)

type CityRepository struct {
	db *gorm.DB
}

func NewCityRepository(db *gorm.DB) *CityRepository {
	return &CityRepository{db: db}
}

func (r *CityRepository) Create(c *models.City) error {
	return r.db.Create(c).Error
}

func (r *CityRepository) GetByID(id uint) (*models.City, error) {
	var c models.City
	if err := r.db.Preload("Country").First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CityRepository) Update(c *models.City) error {
	return r.db.Save(c).Error
}

func (r *CityRepository) Delete(id uint) error {
	return r.db.Delete(&models.City{}, id).Error
}

func (r *CityRepository) List(countryID uint, activeOnly bool, search string) ([]models.City, error) {
	q := r.db.Model(&models.City{}).Preload("Country")
	if countryID != 0 {
		q = q.Where("country_id = ?", countryID)
	}
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	if search != "" {
		q = q.Where("name LIKE ?", "%"+search+"%")
	}
	var cities []models.City
	err := q.Order("name ASC").Find(&cities).Error
	return cities, err
}
