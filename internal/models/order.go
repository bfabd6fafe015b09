package models

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
)

type OrderItem struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	OrderID        uint   `gorm:"not null;index" json:"-"`
	ProductID      uint   `gorm:"not null" json:"product_id"`
	Name           string `gorm:"size:255;not null" json:"name"`
	UnitPriceCents int64  `gorm:"not null" json:"unit_price_cents"`
	Quantity       int    `gorm:"not null" json:"quantity"`
	ImageURL       string `gorm:"size:1024" json:"image_url,omitempty"`
}

func (OrderItem) TableName() string {
	return "order_items"
}

// Order is the persistent record of one checkout attempt. Items are a frozen
// snapshot of the cart lines; the live cart and products may change afterwards
// without touching order history.
type Order struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	OrderID  string `gorm:"size:64;not null;uniqueIndex" json:"order_id"`
	UserID   uint   `gorm:"not null;index" json:"user_id"`
	IntentID string `gorm:"size:255;not null;uniqueIndex" json:"intent_id"`

	AmountCents   int64  `gorm:"not null" json:"amount_cents"`
	Currency      string `gorm:"size:3;not null;default:'usd'" json:"currency"`
	Status        string `gorm:"size:32;not null;default:'pending';index" json:"status"`
	PaymentMethod string `gorm:"size:20;not null" json:"payment_method"` // card, paypal, cod

	CustomerFirstName string `gorm:"size:100;not null" json:"customer_first_name"`
	CustomerLastName  string `gorm:"size:100;not null" json:"customer_last_name"`
	CustomerEmail     string `gorm:"size:255;not null;index" json:"customer_email"`
	CustomerPhone     string `gorm:"size:32" json:"customer_phone,omitempty"`

	ShippingAddress string `gorm:"size:255;not null" json:"shipping_address"`
	ShippingCity    string `gorm:"size:100;not null" json:"shipping_city"`
	ShippingState   string `gorm:"size:100;not null" json:"shipping_state"`
	ShippingCountry string `gorm:"size:100;not null" json:"shipping_country"`
	ShippingZip     string `gorm:"size:20;not null" json:"shipping_zip"`

	BillingAddress string `gorm:"size:255" json:"billing_address,omitempty"`
	BillingCity    string `gorm:"size:100" json:"billing_city,omitempty"`
	BillingState   string `gorm:"size:100" json:"billing_state,omitempty"`
	BillingCountry string `gorm:"size:100" json:"billing_country,omitempty"`
	BillingZip     string `gorm:"size:20" json:"billing_zip,omitempty"`

	Items []OrderItem `json:"items"`

	GatewayCustomerID string `gorm:"size:255" json:"-"`
	CardLast4         string `gorm:"size:4" json:"card_last4,omitempty"`
	CardBrand         string `gorm:"size:20" json:"card_brand,omitempty"`

	RefundAmountCents int64  `gorm:"not null;default:0" json:"refund_amount_cents"`
	LastRefundID      string `gorm:"size:255" json:"-"`
	// LastEventID dedupes at-least-once webhook delivery.
	LastEventID string `gorm:"size:255" json:"-"`

	ProcessedAt             *time.Time `json:"processed_at,omitempty"`
	CancellationReason      string     `gorm:"size:255" json:"cancellation_reason,omitempty"`
	CancellationRequestedAt *time.Time `gorm:"index" json:"cancellation_requested_at,omitempty"`
	CancellationProcessedAt *time.Time `json:"cancellation_processed_at,omitempty"`
	CancellationProcessedBy *uint      `json:"cancellation_processed_by,omitempty"`
	AdminNotes              string     `gorm:"type:text" json:"admin_notes,omitempty"`

	// IsActive soft-flags orders out of user-facing views; records are never
	// deleted, for audit retention.
	IsActive bool `gorm:"not null;default:true" json:"is_active"`
	// Version is compared-and-swapped on every update so a stale writer loses
	// instead of silently overwriting a terminal state.
	Version uint `gorm:"not null;default:1" json:"-"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (Order) TableName() string {
	return "orders"
}

const orderIDAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewOrderID generates a collision-resistant order reference,
// e.g. ORD-1700000000000-4F7K2Q9XZ.
func NewOrderID() string {
	var b strings.Builder
	for i := 0; i < 9; i++ {
		b.WriteByte(orderIDAlphabet[rand.Intn(len(orderIDAlphabet))])
	}
	return fmt.Sprintf("ORD-%d-%s", time.Now().UnixMilli(), b.String())
}
