package models

import "time"

type CartItem struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	CartID         uint      `gorm:"not null;index" json:"cart_id"`
	ProductID      uint      `gorm:"not null" json:"product_id"`
	Quantity       int       `gorm:"not null" json:"quantity"`
	UnitPriceCents int64     `gorm:"not null" json:"unit_price_cents"` // price snapshot taken at add-time
	AddedAt        time.Time `gorm:"not null" json:"added_at"`

	Product Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

func (CartItem) TableName() string {
	return "cart_items"
}

type Cart struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	UserID uint   `gorm:"not null;index" json:"user_id"`
	Status string `gorm:"size:20;not null;default:'active';index" json:"status"` // active, completed, abandoned
	// ActiveKey emulates UNIQUE(user_id) WHERE status='active': it holds the
	// user id while the cart is active and NULL otherwise. MySQL ignores NULLs
	// in unique indexes, so at most one active cart can exist per user.
	ActiveKey  *string    `gorm:"size:32;uniqueIndex" json:"-"`
	TotalCents int64      `gorm:"not null;default:0" json:"total_cents"`
	ItemCount  int        `gorm:"not null;default:0" json:"item_count"`
	Items      []CartItem `json:"items"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (Cart) TableName() string {
	return "carts"
}

// RecomputeTotals derives total and item count from the lines. Always called
// before persisting; the stored columns are never set any other way.
func (c *Cart) RecomputeTotals() {
	var total int64
	var count int
	for _, it := range c.Items {
		total += it.UnitPriceCents * int64(it.Quantity)
		count += it.Quantity
	}
	c.TotalCents = total
	c.ItemCount = count
}
