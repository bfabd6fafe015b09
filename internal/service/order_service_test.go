package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	"storefront/internal/domain"
	"storefront/internal/gateway"
	"storefront/internal/models"
	"storefront/internal/repository"
)

type memOrderStore struct {
	orders map[uint]*models.Order
	nextID uint
	// updateErr, when set, fails the next UpdateVersioned once.
	updateErr error
}

func newMemOrderStore() *memOrderStore {
	return &memOrderStore{orders: make(map[uint]*models.Order), nextID: 1}
}

func (m *memOrderStore) Create(o *models.Order) error {
	o.ID = m.nextID
	m.nextID++
	if o.Version == 0 {
		o.Version = 1
	}
	cp := *o
	m.orders[o.ID] = &cp
	return nil
}

func (m *memOrderStore) GetByID(id uint) (*models.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *memOrderStore) GetByIntentID(intentID string) (*models.Order, error) {
	for _, o := range m.orders {
		if o.IntentID == intentID {
			cp := *o
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memOrderStore) GetByOrderIDAndUser(orderID string, userID uint) (*models.Order, error) {
	for _, o := range m.orders {
		if o.OrderID == orderID && o.UserID == userID {
			cp := *o
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memOrderStore) List(f repository.OrderFilter) ([]models.Order, int64, error) {
	var out []models.Order
	for _, o := range m.orders {
		out = append(out, *o)
	}
	return out, int64(len(out)), nil
}

func (m *memOrderStore) ListCancellationRequests(page, limit int) ([]models.Order, int64, error) {
	var out []models.Order
	for _, o := range m.orders {
		if o.Status == domain.OrderStatusCancellationRequested {
			out = append(out, *o)
		}
	}
	return out, int64(len(out)), nil
}

func (m *memOrderStore) UpdateVersioned(o *models.Order) error {
	if m.updateErr != nil {
		err := m.updateErr
		m.updateErr = nil
		return err
	}
	stored, ok := m.orders[o.ID]
	if !ok || stored.Version != o.Version {
		return domain.ErrConcurrentModification
	}
	o.Version++
	cp := *o
	m.orders[o.ID] = &cp
	return nil
}

type memCartLedger struct {
	cart       *models.Cart
	checkedOut bool
}

func (m *memCartLedger) Active(userID uint) (*models.Cart, error) {
	if m.cart == nil {
		return nil, domain.ErrNotFound
	}
	return m.cart, nil
}

func (m *memCartLedger) Checkout(userID uint) (*models.Cart, error) {
	m.checkedOut = true
	return m.cart, nil
}

// recordingGateway tracks calls and lets tests inject failures per method.
type recordingGateway struct {
	intents     int
	refunds     []gateway.RefundRequest
	intentErr   error
	refundErr   error
	retrieveRes *gateway.Intent
}

func (g *recordingGateway) CreateIntent(ctx context.Context, req gateway.CreateIntentRequest) (*gateway.Intent, error) {
	if g.intentErr != nil {
		return nil, g.intentErr
	}
	g.intents++
	return &gateway.Intent{
		ID:           "pi_test_123",
		ClientSecret: "pi_test_123_secret",
		Status:       "requires_payment_method",
		AmountCents:  req.AmountCents,
		Currency:     req.Currency,
		CustomerID:   "cus_test_1",
	}, nil
}

func (g *recordingGateway) RetrieveIntent(ctx context.Context, intentID string) (*gateway.Intent, error) {
	if g.retrieveRes != nil {
		return g.retrieveRes, nil
	}
	return &gateway.Intent{ID: intentID, Status: "requires_payment_method"}, nil
}

func (g *recordingGateway) CreateRefund(ctx context.Context, req gateway.RefundRequest) (*gateway.Refund, error) {
	if g.refundErr != nil {
		return nil, g.refundErr
	}
	g.refunds = append(g.refunds, req)
	return &gateway.Refund{ID: "re_test_1", Status: "succeeded", AmountCents: req.AmountCents}, nil
}

func checkoutInput() CheckoutInput {
	return CheckoutInput{
		Currency:      "USD",
		PaymentMethod: domain.PaymentMethodCard,
		Customer: gateway.CustomerInfo{
			FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com",
		},
		Shipping:    gateway.Address{Line1: "1 Main St", City: "Springfield", Country: "US"},
		BillingSame: true,
	}
}

func newOrderFixture(t *testing.T, cart *models.Cart) (*OrderService, *memOrderStore, *memCartLedger, *recordingGateway) {
	t.Helper()
	orders := newMemOrderStore()
	carts := &memCartLedger{cart: cart}
	gw := &recordingGateway{}
	svc := NewOrderService(orders, carts, gw, zaptest.NewLogger(t))
	return svc, orders, carts, gw
}

func testCart() *models.Cart {
	cart := &models.Cart{
		ID:     1,
		UserID: 7,
		Status: domain.CartStatusActive,
		Items: []models.CartItem{
			{ID: 1, ProductID: 1, Quantity: 2, UnitPriceCents: 1000, Product: models.Product{ID: 1, Name: "Mug"}},
			{ID: 2, ProductID: 2, Quantity: 1, UnitPriceCents: 500, Product: models.Product{ID: 2, Name: "Coaster"}},
		},
	}
	cart.RecomputeTotals()
	return cart
}

// seedOrder creates a stored order in the given status and returns its id.
func seedOrder(t *testing.T, orders *memOrderStore, status string) *models.Order {
	t.Helper()
	ref := models.NewOrderID()
	o := &models.Order{
		OrderID:     ref,
		UserID:      7,
		IntentID:    "pi_" + ref,
		AmountCents: 2500,
		Currency:    "usd",
		Status:      status,
		IsActive:    true,
	}
	require.NoError(t, orders.Create(o))
	return o
}

func TestCheckoutCreatesPendingOrder(t *testing.T) {
	svc, orders, carts, gw := newOrderFixture(t, testCart())

	res, err := svc.Checkout(context.Background(), 7, checkoutInput())
	require.NoError(t, err)

	assert.Equal(t, 1, gw.intents)
	assert.True(t, carts.checkedOut)
	assert.Equal(t, "pi_test_123_secret", res.ClientSecret)

	order := res.Order
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Equal(t, int64(2500), order.AmountCents)
	assert.Equal(t, "usd", order.Currency)
	require.Len(t, order.Items, 2)
	assert.Equal(t, "Mug", order.Items[0].Name)
	assert.Equal(t, int64(1000), order.Items[0].UnitPriceCents)

	// Billing falls back to shipping when the client sent none.
	assert.Equal(t, order.ShippingAddress, order.BillingAddress)

	stored, err := orders.GetByIntentID("pi_test_123")
	require.NoError(t, err)
	assert.Equal(t, order.OrderID, stored.OrderID)
}

func TestCheckoutRejectsEmptyOrMissingCart(t *testing.T) {
	svc, _, _, _ := newOrderFixture(t, nil)
	_, err := svc.Checkout(context.Background(), 7, checkoutInput())
	assert.ErrorIs(t, err, domain.ErrEmptyCart)

	empty := &models.Cart{ID: 1, UserID: 7, Status: domain.CartStatusActive}
	svc, _, _, _ = newOrderFixture(t, empty)
	_, err = svc.Checkout(context.Background(), 7, checkoutInput())
	assert.ErrorIs(t, err, domain.ErrEmptyCart)
}

func TestCheckoutRejectsBelowMinimumCharge(t *testing.T) {
	cart := &models.Cart{
		ID: 1, UserID: 7, Status: domain.CartStatusActive,
		Items: []models.CartItem{{ID: 1, ProductID: 1, Quantity: 1, UnitPriceCents: 25}},
	}
	cart.RecomputeTotals()
	svc, _, _, _ := newOrderFixture(t, cart)

	_, err := svc.Checkout(context.Background(), 7, checkoutInput())
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCheckoutValidatesInput(t *testing.T) {
	svc, _, _, gw := newOrderFixture(t, testCart())

	in := checkoutInput()
	in.PaymentMethod = "wire"
	_, err := svc.Checkout(context.Background(), 7, in)
	assert.ErrorIs(t, err, domain.ErrValidation)

	in = checkoutInput()
	in.Customer.Email = ""
	_, err = svc.Checkout(context.Background(), 7, in)
	assert.ErrorIs(t, err, domain.ErrValidation)

	in = checkoutInput()
	in.Shipping.Line1 = ""
	_, err = svc.Checkout(context.Background(), 7, in)
	assert.ErrorIs(t, err, domain.ErrValidation)

	assert.Equal(t, 0, gw.intents, "no intent should be created for invalid input")
}

func TestCheckoutGatewayFailure(t *testing.T) {
	svc, orders, carts, gw := newOrderFixture(t, testCart())
	gw.intentErr = domain.ErrGatewayUnavailable

	_, err := svc.Checkout(context.Background(), 7, checkoutInput())
	assert.ErrorIs(t, err, domain.ErrGatewayUnavailable)
	assert.False(t, carts.checkedOut)
	assert.Empty(t, orders.orders)
}

func succeededEvent(id, intentID string) *gateway.Event {
	ev := &gateway.Event{ID: id, Type: domain.EventIntentSucceeded}
	ev.Data.Object.ID = intentID
	return ev
}

func TestApplyGatewayEventSucceeds(t *testing.T) {
	svc, orders, _, _ := newOrderFixture(t, nil)
	o := seedOrder(t, orders, domain.OrderStatusPending)

	require.NoError(t, svc.ApplyGatewayEvent(succeededEvent("evt_1", o.IntentID)))

	stored, err := orders.GetByID(o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusSucceeded, stored.Status)
	assert.NotNil(t, stored.ProcessedAt)
	assert.Equal(t, "evt_1", stored.LastEventID)
}

func TestApplyGatewayEventIsIdempotent(t *testing.T) {
	svc, orders, _, _ := newOrderFixture(t, nil)
	o := seedOrder(t, orders, domain.OrderStatusPending)

	require.NoError(t, svc.ApplyGatewayEvent(succeededEvent("evt_1", o.IntentID)))
	before, _ := orders.GetByID(o.ID)

	// Same event id replayed: no-op.
	require.NoError(t, svc.ApplyGatewayEvent(succeededEvent("evt_1", o.IntentID)))
	// Different event id, same outcome: still a no-op.
	require.NoError(t, svc.ApplyGatewayEvent(succeededEvent("evt_2", o.IntentID)))

	after, _ := orders.GetByID(o.ID)
	assert.Equal(t, before.Version, after.Version)
	assert.Equal(t, domain.OrderStatusSucceeded, after.Status)
}

func TestApplyGatewayEventConflictingOutcome(t *testing.T) {
	svc, orders, _, _ := newOrderFixture(t, nil)
	o := seedOrder(t, orders, domain.OrderStatusPending)

	require.NoError(t, svc.ApplyGatewayEvent(succeededEvent("evt_1", o.IntentID)))

	failed := &gateway.Event{ID: "evt_2", Type: domain.EventIntentFailed}
	failed.Data.Object.ID = o.IntentID
	err := svc.ApplyGatewayEvent(failed)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	stored, _ := orders.GetByID(o.ID)
	assert.Equal(t, domain.OrderStatusSucceeded, stored.Status)
}

func TestApplyGatewayEventUnknownIntent(t *testing.T) {
	svc, _, _, _ := newOrderFixture(t, nil)
	err := svc.ApplyGatewayEvent(succeededEvent("evt_1", "pi_unknown"))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestApplyGatewayEventIgnoresUnhandledTypes(t *testing.T) {
	svc, orders, _, _ := newOrderFixture(t, nil)
	o := seedOrder(t, orders, domain.OrderStatusPending)

	ev := &gateway.Event{ID: "evt_1", Type: "payment_intent.created"}
	ev.Data.Object.ID = o.IntentID
	require.NoError(t, svc.ApplyGatewayEvent(ev))

	stored, _ := orders.GetByID(o.ID)
	assert.Equal(t, domain.OrderStatusPending, stored.Status)
}

func TestConfirmFoldsGatewayStatus(t *testing.T) {
	svc, orders, _, gw := newOrderFixture(t, nil)
	o := seedOrder(t, orders, domain.OrderStatusPending)
	gw.retrieveRes = &gateway.Intent{ID: o.IntentID, Status: "succeeded"}

	order, err := svc.Confirm(context.Background(), o.IntentID, 7)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusSucceeded, order.Status)

	// Another user cannot confirm someone else's intent.
	_, err = svc.Confirm(context.Background(), o.IntentID, 8)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCancelPending(t *testing.T) {
	svc, orders, _, _ := newOrderFixture(t, nil)
	o := seedOrder(t, orders, domain.OrderStatusPending)

	order, err := svc.CancelPending(o.OrderID, 7, "changed my mind")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCanceled, order.Status)
	assert.Equal(t, "changed my mind", order.CancellationReason)
	assert.NotNil(t, order.CancellationProcessedAt)

	// Settled orders go through the request/review flow instead.
	settled := seedOrder(t, orders, domain.OrderStatusSucceeded)
	_, err = svc.CancelPending(settled.OrderID, 7, "")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestRequestCancellation(t *testing.T) {
	svc, orders, _, _ := newOrderFixture(t, nil)
	o := seedOrder(t, orders, domain.OrderStatusSucceeded)

	order, err := svc.RequestCancellation(o.OrderID, 7, "wrong size", "please hurry")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancellationRequested, order.Status)
	assert.NotNil(t, order.CancellationRequestedAt)
	assert.Equal(t, "Customer note: please hurry", order.AdminNotes)

	// Only settled orders can request cancellation.
	pending := seedOrder(t, orders, domain.OrderStatusPending)
	_, err = svc.RequestCancellation(pending.OrderID, 7, "", "")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestProcessCancellationApprove(t *testing.T) {
	svc, orders, _, gw := newOrderFixture(t, nil)
	o := seedOrder(t, orders, domain.OrderStatusCancellationRequested)

	order, err := svc.ProcessCancellation(context.Background(), o.ID, 99, domain.CancellationApprove, "ok")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCanceled, order.Status)
	assert.Equal(t, order.AmountCents, order.RefundAmountCents)
	require.Len(t, gw.refunds, 1)
	assert.Equal(t, int64(2500), gw.refunds[0].AmountCents)
	assert.Equal(t, "cancel-"+order.OrderID, gw.refunds[0].IdempotencyKey)
	require.NotNil(t, order.CancellationProcessedBy)
	assert.Equal(t, uint(99), *order.CancellationProcessedBy)
}

func TestProcessCancellationApproveSurvivesRefundFailure(t *testing.T) {
	svc, orders, _, gw := newOrderFixture(t, nil)
	o := seedOrder(t, orders, domain.OrderStatusCancellationRequested)
	gw.refundErr = domain.ErrGatewayUnavailable

	order, err := svc.ProcessCancellation(context.Background(), o.ID, 99, domain.CancellationApprove, "")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCanceled, order.Status)
	// The local record still promises the full refund; reconciliation retries
	// the payout out of band.
	assert.Equal(t, order.AmountCents, order.RefundAmountCents)
}

func TestProcessCancellationReject(t *testing.T) {
	svc, orders, _, gw := newOrderFixture(t, nil)
	o := seedOrder(t, orders, domain.OrderStatusCancellationRequested)

	order, err := svc.ProcessCancellation(context.Background(), o.ID, 99, domain.CancellationReject, "out for delivery")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusSucceeded, order.Status)
	assert.Equal(t, int64(0), order.RefundAmountCents)
	assert.Empty(t, gw.refunds)
	assert.Equal(t, "out for delivery", order.AdminNotes)
}

func TestProcessCancellationIsNotReentrant(t *testing.T) {
	svc, orders, _, _ := newOrderFixture(t, nil)
	o := seedOrder(t, orders, domain.OrderStatusCancellationRequested)

	_, err := svc.ProcessCancellation(context.Background(), o.ID, 99, domain.CancellationApprove, "")
	require.NoError(t, err)

	_, err = svc.ProcessCancellation(context.Background(), o.ID, 99, domain.CancellationApprove, "")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestProcessCancellationRejectsUnknownAction(t *testing.T) {
	svc, orders, _, _ := newOrderFixture(t, nil)
	o := seedOrder(t, orders, domain.OrderStatusCancellationRequested)

	_, err := svc.ProcessCancellation(context.Background(), o.ID, 99, "maybe", "")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestRefundAccumulates(t *testing.T) {
	svc, orders, _, gw := newOrderFixture(t, nil)
	o := seedOrder(t, orders, domain.OrderStatusSucceeded)

	// 40% first.
	order, err := svc.Refund(context.Background(), o.ID, 99, 1000, "damaged")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusSucceeded, order.Status)
	assert.Equal(t, int64(1000), order.RefundAmountCents)

	// Remaining 60% flips the order to refunded.
	order, err = svc.Refund(context.Background(), order.ID, 99, 1500, "")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusRefunded, order.Status)
	assert.Equal(t, int64(2500), order.RefundAmountCents)
	assert.Len(t, gw.refunds, 2)

	// Fully refunded orders take no further refunds.
	_, err = svc.Refund(context.Background(), order.ID, 99, 100, "")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestRefundCannotExceedAvailable(t *testing.T) {
	svc, orders, _, gw := newOrderFixture(t, nil)
	o := seedOrder(t, orders, domain.OrderStatusSucceeded)

	_, err := svc.Refund(context.Background(), o.ID, 99, 1000, "")
	require.NoError(t, err)

	_, err = svc.Refund(context.Background(), o.ID, 99, 2000, "")
	assert.ErrorIs(t, err, domain.ErrRefundExceedsAvailable)
	assert.Len(t, gw.refunds, 1)
}

func TestRefundZeroAmountMeansFull(t *testing.T) {
	svc, orders, _, gw := newOrderFixture(t, nil)
	o := seedOrder(t, orders, domain.OrderStatusSucceeded)

	order, err := svc.Refund(context.Background(), o.ID, 99, 0, "")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusRefunded, order.Status)
	require.Len(t, gw.refunds, 1)
	assert.Equal(t, int64(2500), gw.refunds[0].AmountCents)
}

func TestRefundRejectsNegativeAmount(t *testing.T) {
	svc, orders, _, gw := newOrderFixture(t, nil)
	o := seedOrder(t, orders, domain.OrderStatusSucceeded)

	// A negative amount must not slip into the "omitted means full refund"
	// branch.
	_, err := svc.Refund(context.Background(), o.ID, 99, -100, "")
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Empty(t, gw.refunds)

	stored, _ := orders.GetByID(o.ID)
	assert.Equal(t, int64(0), stored.RefundAmountCents)
	assert.Equal(t, domain.OrderStatusSucceeded, stored.Status)
}

func TestRefundGatewayFailureLeavesOrderUntouched(t *testing.T) {
	svc, orders, _, gw := newOrderFixture(t, nil)
	o := seedOrder(t, orders, domain.OrderStatusSucceeded)
	gw.refundErr = domain.ErrGatewayUnavailable

	_, err := svc.Refund(context.Background(), o.ID, 99, 1000, "")
	assert.ErrorIs(t, err, domain.ErrGatewayUnavailable)

	stored, _ := orders.GetByID(o.ID)
	assert.Equal(t, int64(0), stored.RefundAmountCents)
	assert.Equal(t, domain.OrderStatusSucceeded, stored.Status)
}

func TestConcurrentModificationSurfaces(t *testing.T) {
	svc, orders, _, _ := newOrderFixture(t, nil)
	o := seedOrder(t, orders, domain.OrderStatusPending)
	orders.updateErr = domain.ErrConcurrentModification

	err := svc.ApplyGatewayEvent(succeededEvent("evt_1", o.IntentID))
	assert.ErrorIs(t, err, domain.ErrConcurrentModification)
}

func TestSoftDeleteIsIdempotent(t *testing.T) {
	svc, orders, _, _ := newOrderFixture(t, nil)
	o := seedOrder(t, orders, domain.OrderStatusSucceeded)

	order, err := svc.SoftDelete(o.ID, 99)
	require.NoError(t, err)
	assert.False(t, order.IsActive)
	v := order.Version

	order, err = svc.SoftDelete(o.ID, 99)
	require.NoError(t, err)
	assert.False(t, order.IsActive)
	assert.Equal(t, v, order.Version)
}

func TestGetForUserScopesByOwner(t *testing.T) {
	svc, orders, _, _ := newOrderFixture(t, nil)
	o := seedOrder(t, orders, domain.OrderStatusSucceeded)

	_, err := svc.GetForUser(o.OrderID, 7)
	require.NoError(t, err)

	_, err = svc.GetForUser(o.OrderID, 8)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.GetForUser("ORD-missing", 7)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
