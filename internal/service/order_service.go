package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"storefront/internal/domain"
	"storefront/internal/gateway"
	"storefront/internal/models"
	"storefront/internal/repository"
)

// OrderStore is the persistence surface of the order lifecycle. All mutations
// funnel through UpdateVersioned so a stale writer loses the race instead of
// clobbering a terminal state.
type OrderStore interface {
	Create(o *models.Order) error
	GetByID(id uint) (*models.Order, error)
	GetByIntentID(intentID string) (*models.Order, error)
	GetByOrderIDAndUser(orderID string, userID uint) (*models.Order, error)
	List(f repository.OrderFilter) ([]models.Order, int64, error)
	ListCancellationRequests(page, limit int) ([]models.Order, int64, error)
	UpdateVersioned(o *models.Order) error
}

// CartLedger is the slice of the cart service checkout needs.
type CartLedger interface {
	Active(userID uint) (*models.Cart, error)
	Checkout(userID uint) (*models.Cart, error)
}

type OrderService struct {
	orders  OrderStore
	carts   CartLedger
	gateway gateway.Client
	log     *zap.Logger
}

func NewOrderService(orders OrderStore, carts CartLedger, gw gateway.Client, log *zap.Logger) *OrderService {
	return &OrderService{orders: orders, carts: carts, gateway: gw, log: log}
}

type CheckoutInput struct {
	Currency      string
	PaymentMethod string
	Customer      gateway.CustomerInfo
	Shipping      gateway.Address
	Billing       gateway.Address
	BillingSame   bool
}

type CheckoutResult struct {
	Order        *models.Order
	ClientSecret string
}

func (in *CheckoutInput) validate() error {
	switch in.PaymentMethod {
	case domain.PaymentMethodCard, domain.PaymentMethodPaypal, domain.PaymentMethodCOD:
	default:
		return fmt.Errorf("%w: unsupported payment method %q", domain.ErrValidation, in.PaymentMethod)
	}
	if in.Customer.Email == "" || in.Customer.FirstName == "" || in.Customer.LastName == "" {
		return fmt.Errorf("%w: customer information is required", domain.ErrValidation)
	}
	if in.Shipping.Line1 == "" || in.Shipping.City == "" || in.Shipping.Country == "" {
		return fmt.Errorf("%w: shipping address is required", domain.ErrValidation)
	}
	return nil
}

// Checkout turns the user's active cart into a payment intent plus a pending
// order. The order's items are a frozen copy of the cart lines; once the
// order exists the cart is completed and no longer tied to it.
func (s *OrderService) Checkout(ctx context.Context, userID uint, in CheckoutInput) (*CheckoutResult, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	cart, err := s.carts.Active(userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrEmptyCart
		}
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, domain.ErrEmptyCart
	}
	cart.RecomputeTotals()
	if cart.TotalCents < domain.MinChargeCents {
		return nil, fmt.Errorf("%w: order total below provider minimum", domain.ErrValidation)
	}
	currency := strings.ToLower(in.Currency)
	if currency == "" {
		currency = "usd"
	}
	orderRef := models.NewOrderID()
	intent, err := s.gateway.CreateIntent(ctx, gateway.CreateIntentRequest{
		AmountCents:    cart.TotalCents,
		Currency:       currency,
		Customer:       in.Customer,
		Shipping:       in.Shipping,
		Description:    fmt.Sprintf("Order for %d item(s)", len(cart.Items)),
		OrderRef:       orderRef,
		IdempotencyKey: uuid.New().String(),
	})
	if err != nil {
		return nil, err
	}

	billing := in.Billing
	if in.BillingSame || billing.Line1 == "" {
		billing = in.Shipping
	}
	order := &models.Order{
		OrderID:           orderRef,
		UserID:            userID,
		IntentID:          intent.ID,
		AmountCents:       cart.TotalCents,
		Currency:          currency,
		Status:            domain.OrderStatusPending,
		PaymentMethod:     in.PaymentMethod,
		CustomerFirstName: in.Customer.FirstName,
		CustomerLastName:  in.Customer.LastName,
		CustomerEmail:     in.Customer.Email,
		CustomerPhone:     in.Customer.Phone,
		ShippingAddress:   in.Shipping.Line1,
		ShippingCity:      in.Shipping.City,
		ShippingState:     in.Shipping.State,
		ShippingCountry:   in.Shipping.Country,
		ShippingZip:       in.Shipping.PostalCode,
		BillingAddress:    billing.Line1,
		BillingCity:       billing.City,
		BillingState:      billing.State,
		BillingCountry:    billing.Country,
		BillingZip:        billing.PostalCode,
		GatewayCustomerID: intent.CustomerID,
		IsActive:          true,
		Version:           1,
	}
	for _, line := range cart.Items {
		item := models.OrderItem{
			ProductID:      line.ProductID,
			Name:           line.Product.Name,
			UnitPriceCents: line.UnitPriceCents,
			Quantity:       line.Quantity,
			ImageURL:       line.Product.ImageURL,
		}
		if item.Name == "" {
			item.Name = fmt.Sprintf("product #%d", line.ProductID)
		}
		order.Items = append(order.Items, item)
	}
	if err := s.orders.Create(order); err != nil {
		// The remote intent is now orphaned. It stays reconcilable through
		// the webhook path, which looks orders up by intent id.
		s.log.Error("order create failed after intent creation",
			zap.String("intent_id", intent.ID),
			zap.String("order_id", orderRef),
			zap.Error(err))
		return nil, err
	}
	if _, err := s.carts.Checkout(userID); err != nil {
		s.log.Warn("cart completion failed after checkout",
			zap.Uint("user_id", userID),
			zap.String("order_id", order.OrderID),
			zap.Error(err))
	}
	return &CheckoutResult{Order: order, ClientSecret: intent.ClientSecret}, nil
}

// applyIntentOutcome moves a pending order to its gateway-decided terminal
// status. Re-applying the outcome the order already reached is a no-op; a
// conflicting outcome is an invalid transition.
func (s *OrderService) applyIntentOutcome(order *models.Order, target, eventID string) error {
	if order.Status == target {
		return nil
	}
	if order.Status != domain.OrderStatusPending {
		return domain.ErrInvalidTransition
	}
	order.Status = target
	order.LastEventID = eventID
	if target == domain.OrderStatusSucceeded {
		now := time.Now()
		order.ProcessedAt = &now
	}
	return s.orders.UpdateVersioned(order)
}

// ApplyGatewayEvent consumes a verified webhook event. Delivery is
// at-least-once, so everything here is idempotent: a replayed event id or an
// already-reached status changes nothing.
func (s *OrderService) ApplyGatewayEvent(ev *gateway.Event) error {
	var target string
	switch ev.Type {
	case domain.EventIntentSucceeded:
		target = domain.OrderStatusSucceeded
	case domain.EventIntentFailed:
		target = domain.OrderStatusFailed
	default:
		s.log.Debug("ignoring unhandled webhook event", zap.String("type", ev.Type))
		return nil
	}
	order, err := s.orders.GetByIntentID(ev.Data.Object.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotFound
		}
		return err
	}
	if ev.ID != "" && ev.ID == order.LastEventID {
		return nil
	}
	if err := s.applyIntentOutcome(order, target, ev.ID); err != nil {
		return err
	}
	s.log.Info("gateway event applied",
		zap.String("event", ev.Type),
		zap.String("order_id", order.OrderID),
		zap.String("status", order.Status))
	return nil
}

// Confirm re-reads the intent from the gateway and folds its status into the
// order, for clients that confirm synchronously instead of waiting for the
// webhook.
func (s *OrderService) Confirm(ctx context.Context, intentID string, userID uint) (*models.Order, error) {
	order, err := s.orders.GetByIntentID(intentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if order.UserID != userID {
		return nil, domain.ErrNotFound
	}
	intent, err := s.gateway.RetrieveIntent(ctx, intentID)
	if err != nil {
		return nil, err
	}
	switch intent.Status {
	case "succeeded":
		if err := s.applyIntentOutcome(order, domain.OrderStatusSucceeded, ""); err != nil {
			return nil, err
		}
	case "canceled":
		if err := s.applyIntentOutcome(order, domain.OrderStatusFailed, ""); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// CancelPending cancels an order the gateway never settled. Nothing was
// charged, so there is nothing to refund.
func (s *OrderService) CancelPending(orderID string, userID uint, reason string) (*models.Order, error) {
	order, err := s.orders.GetByOrderIDAndUser(orderID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if order.Status != domain.OrderStatusPending {
		return nil, domain.ErrInvalidTransition
	}
	now := time.Now()
	order.Status = domain.OrderStatusCanceled
	order.CancellationReason = defaultReason(reason, "Cancelled by user")
	order.CancellationProcessedAt = &now
	order.CancellationProcessedBy = &userID
	if err := s.orders.UpdateVersioned(order); err != nil {
		return nil, err
	}
	return order, nil
}

// RequestCancellation asks for a post-payment cancellation, which an admin
// must approve or reject.
func (s *OrderService) RequestCancellation(orderID string, userID uint, reason, note string) (*models.Order, error) {
	order, err := s.orders.GetByOrderIDAndUser(orderID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if order.Status != domain.OrderStatusSucceeded {
		return nil, domain.ErrInvalidTransition
	}
	now := time.Now()
	order.Status = domain.OrderStatusCancellationRequested
	order.CancellationReason = defaultReason(reason, "requested_by_customer")
	order.CancellationRequestedAt = &now
	if note != "" {
		order.AdminNotes = "Customer note: " + note
	}
	if err := s.orders.UpdateVersioned(order); err != nil {
		return nil, err
	}
	return order, nil
}

// ProcessCancellation approves or rejects a pending cancellation request.
// Approval issues a full refund of whatever is still refundable; a refund
// failure is logged for out-of-band reconciliation and never blocks the
// local cancellation, because the customer-facing guarantee wins over the
// payment rail being reachable.
func (s *OrderService) ProcessCancellation(ctx context.Context, id uint, adminID uint, action, notes string) (*models.Order, error) {
	order, err := s.orders.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if order.Status != domain.OrderStatusCancellationRequested {
		return nil, domain.ErrInvalidTransition
	}
	now := time.Now()
	switch action {
	case domain.CancellationApprove:
		remaining := order.AmountCents - order.RefundAmountCents
		if remaining > 0 && order.IntentID != "" {
			refund, err := s.gateway.CreateRefund(ctx, gateway.RefundRequest{
				IntentID:    order.IntentID,
				AmountCents: remaining,
				Reason:      "requested_by_customer",
				// Deterministic key: a reconciliation retry replays the same
				// refund instead of issuing a second one.
				IdempotencyKey: "cancel-" + order.OrderID,
			})
			if err != nil {
				s.log.Error("refund failed during cancellation approval; requires manual reconciliation",
					zap.String("order_id", order.OrderID),
					zap.String("intent_id", order.IntentID),
					zap.Int64("amount_cents", remaining),
					zap.Error(err))
			} else {
				order.LastRefundID = refund.ID
			}
		}
		order.RefundAmountCents = order.AmountCents
		order.Status = domain.OrderStatusCanceled
	case domain.CancellationReject:
		order.Status = domain.OrderStatusSucceeded
	default:
		return nil, fmt.Errorf("%w: action must be approve or reject", domain.ErrValidation)
	}
	order.AdminNotes = notes
	order.CancellationProcessedAt = &now
	order.CancellationProcessedBy = &adminID
	if err := s.orders.UpdateVersioned(order); err != nil {
		return nil, err
	}
	s.log.Info("cancellation processed",
		zap.String("order_id", order.OrderID),
		zap.String("action", action),
		zap.Uint("admin_id", adminID))
	return order, nil
}

// Refund issues a manual partial or full refund on a settled order. The
// cumulative refund can never exceed the charged amount; the order flips to
// refunded only once fully refunded.
func (s *OrderService) Refund(ctx context.Context, id uint, adminID uint, amountCents int64, reason string) (*models.Order, error) {
	order, err := s.orders.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if order.Status != domain.OrderStatusSucceeded {
		return nil, domain.ErrInvalidTransition
	}
	if amountCents < 0 {
		return nil, fmt.Errorf("%w: refund amount cannot be negative", domain.ErrValidation)
	}
	available := order.AmountCents - order.RefundAmountCents
	if amountCents == 0 {
		amountCents = available
	}
	if amountCents > available {
		return nil, domain.ErrRefundExceedsAvailable
	}
	refund, err := s.gateway.CreateRefund(ctx, gateway.RefundRequest{
		IntentID:       order.IntentID,
		AmountCents:    amountCents,
		Reason:         defaultReason(reason, "requested_by_customer"),
		IdempotencyKey: uuid.New().String(),
	})
	if err != nil {
		return nil, err
	}
	order.RefundAmountCents += amountCents
	order.LastRefundID = refund.ID
	if order.RefundAmountCents >= order.AmountCents {
		order.Status = domain.OrderStatusRefunded
	}
	if err := s.orders.UpdateVersioned(order); err != nil {
		return nil, err
	}
	s.log.Info("refund issued",
		zap.String("order_id", order.OrderID),
		zap.Int64("amount_cents", amountCents),
		zap.Int64("refund_total_cents", order.RefundAmountCents),
		zap.String("status", order.Status))
	return order, nil
}

// SoftDelete flags an order out of user-facing views. The row stays for
// audit retention.
func (s *OrderService) SoftDelete(id uint, adminID uint) (*models.Order, error) {
	order, err := s.orders.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if !order.IsActive {
		return order, nil
	}
	order.IsActive = false
	if err := s.orders.UpdateVersioned(order); err != nil {
		return nil, err
	}
	s.log.Info("order soft-deleted", zap.String("order_id", order.OrderID), zap.Uint("admin_id", adminID))
	return order, nil
}

func (s *OrderService) GetForUser(orderID string, userID uint) (*models.Order, error) {
	order, err := s.orders.GetByOrderIDAndUser(orderID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return order, nil
}

func (s *OrderService) List(f repository.OrderFilter) ([]models.Order, int64, error) {
	return s.orders.List(f)
}

func (s *OrderService) ListCancellationRequests(page, limit int) ([]models.Order, int64, error) {
	return s.orders.ListCancellationRequests(page, limit)
}

func defaultReason(reason, fallback string) string {
	if reason == "" {
		return fallback
	}
	return reason
}
