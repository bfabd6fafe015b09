package gateway

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// StubClient is a no-op processor for development; it fabricates intents and
// refunds without leaving the process.
type StubClient struct {
	mu      sync.Mutex
	intents map[string]*Intent
}

func NewStubClient() *StubClient {
	return &StubClient{intents: make(map[string]*Intent)}
}

func (s *StubClient) CreateIntent(_ context.Context, req CreateIntentRequest) (*Intent, error) {
	id := "pi_stub_" + strings.ReplaceAll(uuid.New().String(), "-", "")
	intent := &Intent{
		ID:           id,
		ClientSecret: id + "_secret_" + uuid.New().String()[:8],
		Status:       "requires_payment_method",
		AmountCents:  req.AmountCents,
		Currency:     strings.ToLower(req.Currency),
		CustomerID:   "cus_stub_" + req.Customer.Email,
	}
	s.mu.Lock()
	s.intents[id] = intent
	s.mu.Unlock()
	return intent, nil
}

func (s *StubClient) RetrieveIntent(_ context.Context, intentID string) (*Intent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	intent, ok := s.intents[intentID]
	if !ok {
		return nil, fmt.Errorf("gateway: no such intent %s", intentID)
	}
	return intent, nil
}

func (s *StubClient) CreateRefund(_ context.Context, req RefundRequest) (*Refund, error) {
	return &Refund{
		ID:          "re_stub_" + uuid.New().String()[:8],
		Status:      "succeeded",
		AmountCents: req.AmountCents,
	}, nil
}
