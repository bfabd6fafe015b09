package repository

import (
	"storefront/internal/models"

	"gorm.io/gorm"
)

type CountryRepository struct {
	db *gorm.DB
}

func NewCountryRepository(db *gorm.DB) *CountryRepository {
	return &CountryRepository{db: db}
}

func (r *CountryRepository) Create(c *models.Country) error {
	return r.db.Create(c).Error
}

func (r *CountryRepository) GetByID(id uint) (*models.Country, error) {
	var c models.Country
	if err := r.db.First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CountryRepository) Update(c *models.Country) error {
	return r.db.Save(c).Error
}

func (r *CountryRepository) Delete(id uint) error {
	return r.db.Delete(&models.Country{}, id).Error
}

func (r *CountryRepository) List(activeOnly bool, search string) ([]models.Country, error) {
	q := r.db.Model(&models.Country{})
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	if search != "" {
		like := "%" + search + "%"
		q = q.Where("name LIKE ? OR code LIKE ?", like, like)
	}
	var countries []models.Country
	err := q.Order("name ASC").Find(&countries).Error
	return countries, err
}
