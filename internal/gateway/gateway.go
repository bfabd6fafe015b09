package gateway

import "context"

type CustomerInfo struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

type Address struct {
	Line1      string
	City       string
	State      string
	Country    string
	PostalCode string
}

// Intent is the processor's representation of an in-progress charge attempt.
type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
	AmountCents  int64  `json:"amount"`
	Currency     string `json:"currency"`
	CustomerID   string `json:"customer"`
}

type Refund struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	AmountCents int64  `json:"amount"`
	Currency    string `json:"currency"`
}

type CreateIntentRequest struct {
	AmountCents    int64
	Currency       string
	Customer       CustomerInfo
	Shipping       Address
	Description    string
	OrderRef       string // carried in provider metadata for reconciliation
	IdempotencyKey string
}

type RefundRequest struct {
	IntentID    string
	AmountCents int64
	Reason      string
	// IdempotencyKey is required: refunds are only retried under a key so a
	// replay can never double-refund.
	IdempotencyKey string
}

type Client interface {
	CreateIntent(ctx context.Context, req CreateIntentRequest) (*Intent, error)
	RetrieveIntent(ctx context.Context, intentID string) (*Intent, error)
	CreateRefund(ctx context.Context, req RefundRequest) (*Refund, error)
}
