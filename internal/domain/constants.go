package domain

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

const (
	CartStatusActive    = "active"
	CartStatusCompleted = "completed"
	CartStatusAbandoned = "abandoned"
)

const (
	OrderStatusPending               = "pending"
	OrderStatusSucceeded             = "succeeded"
	OrderStatusFailed                = "failed"
	OrderStatusCanceled              = "canceled"
	OrderStatusRefunded              = "refunded"
	OrderStatusCancellationRequested = "cancellation_requested"
)

// Gateway webhook event types.
const (
	EventIntentSucceeded = "payment_intent.succeeded"
	EventIntentFailed    = "payment_intent.payment_failed"
)

const (
	CancellationApprove = "approve"
	CancellationReject  = "reject"
)

const (
	PaymentMethodCard   = "card"
	PaymentMethodPaypal = "paypal"
	PaymentMethodCOD    = "cod"
)

const (
	ProductStatusActive   = "Active"
	ProductStatusInactive = "Inactive"
	ProductStatusDraft    = "Draft"
)

// MinChargeCents is the provider minimum charge ($0.50).
const MinChargeCents = 50
