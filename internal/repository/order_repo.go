package repository

import (
	"time"

	"storefront/internal/domain"
	"storefront/internal/models"

	"gorm.io/gorm"
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

type OrderFilter struct {
	UserID    *uint
	Status    string
	Search    string
	StartDate *time.Time
	EndDate   *time.Time
	Page      int
	Limit     int
}

func (r *OrderRepository) Create(o *models.Order) error {
	if o.OrderID == "" {
		o.OrderID = models.NewOrderID()
	}
	if o.Version == 0 {
		o.Version = 1
	}
	return r.db.Create(o).Error
}

func (r *OrderRepository) GetByID(id uint) (*models.Order, error) {
	var o models.Order
	if err := r.db.Preload("Items").First(&o, id).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepository) GetByIntentID(intentID string) (*models.Order, error) {
	var o models.Order
	err := r.db.Preload("Items").Where("intent_id = ?", intentID).First(&o).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepository) GetByOrderIDAndUser(orderID string, userID uint) (*models.Order, error) {
	var o models.Order
	err := r.db.Preload("Items").
		Where("order_id = ? AND user_id = ? AND is_active = ?", orderID, userID, true).
		First(&o).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepository) List(f OrderFilter) ([]models.Order, int64, error) {
	q := r.db.Model(&models.Order{}).Where("is_active = ?", true)
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.Status != "" && f.Status != "all" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Search != "" {
		like := "%" + f.Search + "%"
		q = q.Where("order_id LIKE ? OR customer_email LIKE ? OR customer_first_name LIKE ? OR customer_last_name LIKE ?",
			like, like, like, like)
	}
	if f.StartDate != nil {
		q = q.Where("created_at >= ?", *f.StartDate)
	}
	if f.EndDate != nil {
		q = q.Where("created_at <= ?", *f.EndDate)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	page, limit := normalizePage(f.Page, f.Limit)
	var orders []models.Order
	err := q.Preload("Items").Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).Find(&orders).Error
	return orders, total, err
}

// ListCancellationRequests returns pending cancellation requests oldest first,
// so admins work the queue in the order customers asked.
func (r *OrderRepository) ListCancellationRequests(page, limit int) ([]models.Order, int64, error) {
	q := r.db.Model(&models.Order{}).
		Where("status = ? AND is_active = ?", "cancellation_requested", true)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	page, limit = normalizePage(page, limit)
	var orders []models.Order
	err := q.Preload("Items").Order("cancellation_requested_at ASC").
		Offset((page - 1) * limit).Limit(limit).Find(&orders).Error
	return orders, total, err
}

// UpdateVersioned writes the order's mutable lifecycle fields guarded by a
// compare-and-swap on the version column. A concurrent writer that got there
// first makes the row count come back zero, which surfaces as
// ErrConcurrentModification instead of a silent overwrite.
func (r *OrderRepository) UpdateVersioned(o *models.Order) error {
	updates := map[string]interface{}{
		"status":                    o.Status,
		"refund_amount_cents":       o.RefundAmountCents,
		"last_refund_id":            o.LastRefundID,
		"last_event_id":             o.LastEventID,
		"card_last4":                o.CardLast4,
		"card_brand":                o.CardBrand,
		"processed_at":              o.ProcessedAt,
		"cancellation_reason":       o.CancellationReason,
		"cancellation_requested_at": o.CancellationRequestedAt,
		"cancellation_processed_at": o.CancellationProcessedAt,
		"cancellation_processed_by": o.CancellationProcessedBy,
		"admin_notes":               o.AdminNotes,
		"is_active":                 o.IsActive,
		"version":                   o.Version + 1,
	}
	res := r.db.Model(&models.Order{}).
		Where("id = ? AND version = ?", o.ID, o.Version).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrConcurrentModification
	}
	o.Version++
	return nil
}

func (r *OrderRepository) CountByStatus(status string) (int64, error) {
	var n int64
	err := r.db.Model(&models.Order{}).
		Where("status = ? AND is_active = ?", status, true).Count(&n).Error
	return n, err
}

func (r *OrderRepository) CountCreatedSince(since time.Time) (int64, error) {
	var n int64
	err := r.db.Model(&models.Order{}).
		Where("created_at >= ? AND is_active = ?", since, true).Count(&n).Error
	return n, err
}

// RevenueCents sums captured revenue net of refunds across succeeded and
// refunded orders.
func (r *OrderRepository) RevenueCents() (int64, error) {
	var total *int64
	err := r.db.Model(&models.Order{}).
		Select("SUM(amount_cents - refund_amount_cents)").
		Where("status IN ? AND is_active = ?", []string{"succeeded", "refunded"}, true).
		Scan(&total).Error
	if err != nil || total == nil {
		return 0, err
	}
	return *total, nil
}
