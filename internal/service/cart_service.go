package service

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"storefront/internal/domain"
	"storefront/internal/models"
)

// CartStore is the persistence surface the cart ledger needs.
type CartStore interface {
	GetActiveByUser(userID uint) (*models.Cart, error)
	Create(cart *models.Cart) error
	Save(cart *models.Cart) error
	RemoveItem(cartID, itemID uint) error
	ClearItems(cartID uint) error
}

// ProductStore provides the live stock/price lookups consulted before a line
// is added.
type ProductStore interface {
	GetByID(id uint) (*models.Product, error)
}

type CartService struct {
	carts    CartStore
	products ProductStore
	log      *zap.Logger
}

func NewCartService(carts CartStore, products ProductStore, log *zap.Logger) *CartService {
	return &CartService{carts: carts, products: products, log: log}
}

// Active returns the user's active cart, or ErrNotFound when none exists.
func (s *CartService) Active(userID uint) (*models.Cart, error) {
	cart, err := s.carts.GetActiveByUser(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return cart, nil
}

func (s *CartService) getOrCreate(userID uint) (*models.Cart, error) {
	cart, err := s.carts.GetActiveByUser(userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	key := strconv.FormatUint(uint64(userID), 10)
	cart = &models.Cart{
		UserID:    userID,
		Status:    domain.CartStatusActive,
		ActiveKey: &key,
	}
	if err := s.carts.Create(cart); err != nil {
		// Lost a find-or-create race: the unique active_key row now exists,
		// so pick it up instead.
		if existing, lookupErr := s.carts.GetActiveByUser(userID); lookupErr == nil {
			return existing, nil
		}
		return nil, err
	}
	return cart, nil
}

// AddItem merges a line into the user's active cart. An existing line for the
// product gets its quantity incremented and its price snapshot refreshed to
// the current product price.
func (s *CartService) AddItem(userID, productID uint, quantity int) (*models.Cart, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("%w: quantity must be at least 1", domain.ErrValidation)
	}
	product, err := s.products.GetByID(productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if product.Status != domain.ProductStatusActive {
		return nil, fmt.Errorf("%w: product is not available", domain.ErrValidation)
	}
	if product.Stock < quantity {
		return nil, fmt.Errorf("%w: only %d available", domain.ErrOutOfStock, product.Stock)
	}
	cart, err := s.getOrCreate(userID)
	if err != nil {
		return nil, err
	}
	merged := false
	for i := range cart.Items {
		if cart.Items[i].ProductID == productID {
			cart.Items[i].Quantity += quantity
			cart.Items[i].UnitPriceCents = product.PriceCents
			merged = true
			break
		}
	}
	if !merged {
		cart.Items = append(cart.Items, models.CartItem{
			CartID:         cart.ID,
			ProductID:      productID,
			Quantity:       quantity,
			UnitPriceCents: product.PriceCents,
			AddedAt:        time.Now(),
		})
	}
	cart.RecomputeTotals()
	if err := s.carts.Save(cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *CartService) UpdateQuantity(userID, itemID uint, quantity int) (*models.Cart, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("%w: quantity must be at least 1", domain.ErrValidation)
	}
	cart, err := s.Active(userID)
	if err != nil {
		return nil, err
	}
	found := false
	for i := range cart.Items {
		if cart.Items[i].ID == itemID {
			cart.Items[i].Quantity = quantity
			found = true
			break
		}
	}
	if !found {
		return nil, domain.ErrLineNotFound
	}
	cart.RecomputeTotals()
	if err := s.carts.Save(cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// RemoveLine deletes a line from the cart. Removing a line that is not there
// is a no-op success.
func (s *CartService) RemoveLine(userID, itemID uint) (*models.Cart, error) {
	cart, err := s.Active(userID)
	if err != nil {
		return nil, err
	}
	if err := s.carts.RemoveItem(cart.ID, itemID); err != nil {
		return nil, err
	}
	kept := cart.Items[:0]
	for _, it := range cart.Items {
		if it.ID != itemID {
			kept = append(kept, it)
		}
	}
	cart.Items = kept
	cart.RecomputeTotals()
	if err := s.carts.Save(cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *CartService) Clear(userID uint) (*models.Cart, error) {
	cart, err := s.Active(userID)
	if err != nil {
		return nil, err
	}
	if err := s.carts.ClearItems(cart.ID); err != nil {
		return nil, err
	}
	cart.Items = nil
	cart.RecomputeTotals()
	if err := s.carts.Save(cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// Checkout completes the active cart. The next cart operation for the user
// starts a fresh active cart.
func (s *CartService) Checkout(userID uint) (*models.Cart, error) {
	cart, err := s.Active(userID)
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, domain.ErrEmptyCart
	}
	cart.Status = domain.CartStatusCompleted
	cart.ActiveKey = nil
	cart.RecomputeTotals()
	if err := s.carts.Save(cart); err != nil {
		return nil, err
	}
	s.log.Info("cart checked out",
		zap.Uint("user_id", userID),
		zap.Uint("cart_id", cart.ID),
		zap.Int64("total_cents", cart.TotalCents),
		zap.Int("item_count", cart.ItemCount))
	return cart, nil
}
