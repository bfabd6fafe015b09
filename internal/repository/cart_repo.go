package repository

import (
	"storefront/internal/models"

	"gorm.io/gorm"
)

type CartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) *CartRepository {
	return &CartRepository{db: db}
}

func (r *CartRepository) GetActiveByUser(userID uint) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.Preload("Items").Preload("Items.Product").
		Where("user_id = ? AND status = ?", userID, "active").
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *CartRepository) Create(cart *models.Cart) error {
	return r.db.Create(cart).Error
}

// Save persists the cart's derived columns and upserts its lines. Removed
// lines are deleted through RemoveItem/ClearItems, not here.
func (r *CartRepository) Save(cart *models.Cart) error {
	return r.db.Session(&gorm.Session{FullSaveAssociations: true}).Save(cart).Error
}

func (r *CartRepository) RemoveItem(cartID, itemID uint) error {
	return r.db.Where("cart_id = ? AND id = ?", cartID, itemID).
		Delete(&models.CartItem{}).Error
}

func (r *CartRepository) ClearItems(cartID uint) error {
	return r.db.Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error
}
