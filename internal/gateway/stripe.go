package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"storefront/internal/domain"
)

const defaultBaseURL = "https://api.stripe.com"

// StripeClient talks to a Stripe-compatible payment processor over its
// form-encoded REST API.
type StripeClient struct {
	baseURL    string
	secretKey  string
	client     *http.Client
	maxRetries int
	log        *zap.Logger
}

func NewStripeClient(baseURL, secretKey string, log *zap.Logger) *StripeClient {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &StripeClient{
		baseURL:    baseURL,
		secretKey:  secretKey,
		client:     &http.Client{Timeout: 15 * time.Second},
		maxRetries: 2,
		log:        log,
	}
}

type apiError struct {
	Status  int
	Code    string
	Message string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("gateway: %d %s %s", e.Status, e.Code, e.Message)
}

// do runs one API call with bounded retries for transient failures. Every
// request carries an idempotency key, so a retried write replays instead of
// duplicating the remote side effect.
func (c *StripeClient) do(ctx context.Context, method, path string, form url.Values, idemKey string, out interface{}) error {
	endpoint := c.baseURL + path
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("gateway request canceled: %w", domain.ErrGatewayUnavailable)
			case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
			}
		}
		var body io.Reader
		if form != nil {
			body = strings.NewReader(form.Encode())
		}
		req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+c.secretKey)
		if form != nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
		if idemKey != "" {
			req.Header.Set("Idempotency-Key", idemKey)
		}
		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
			c.log.Warn("gateway request failed", zap.String("path", path), zap.Int("attempt", attempt), zap.Error(err))
			continue
		}
		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			continue
		}
		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("gateway: %d %s", resp.StatusCode, string(respBody))
			c.log.Warn("gateway server error", zap.String("path", path), zap.Int("status", resp.StatusCode), zap.Int("attempt", attempt))
			continue
		}
		if resp.StatusCode >= 400 {
			var e struct {
				Error struct {
					Code    string `json:"code"`
					Message string `json:"message"`
				} `json:"error"`
			}
			_ = json.Unmarshal(respBody, &e)
			return &apiError{Status: resp.StatusCode, Code: e.Error.Code, Message: e.Error.Message}
		}
		if out != nil {
			if err := json.Unmarshal(respBody, out); err != nil {
				return fmt.Errorf("gateway: decode %s: %w", path, err)
			}
		}
		return nil
	}
	return fmt.Errorf("gateway: %s after %d attempts: %v: %w", path, c.maxRetries+1, lastErr, domain.ErrGatewayUnavailable)
}

// findOrCreateCustomer looks up the remote customer profile by email and
// creates one if absent.
func (c *StripeClient) findOrCreateCustomer(ctx context.Context, info CustomerInfo, addr Address) (string, error) {
	q := url.Values{}
	q.Set("email", info.Email)
	q.Set("limit", "1")
	var list struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/customers?"+q.Encode(), nil, "", &list); err != nil {
		return "", err
	}
	if len(list.Data) > 0 {
		return list.Data[0].ID, nil
	}
	form := url.Values{}
	form.Set("email", info.Email)
	form.Set("name", strings.TrimSpace(info.FirstName+" "+info.LastName))
	if info.Phone != "" {
		form.Set("phone", info.Phone)
	}
	form.Set("address[line1]", addr.Line1)
	form.Set("address[city]", addr.City)
	form.Set("address[state]", addr.State)
	form.Set("address[country]", addr.Country)
	form.Set("address[postal_code]", addr.PostalCode)
	var created struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/customers", form, "", &created); err != nil {
		return "", err
	}
	return created.ID, nil
}

func (c *StripeClient) CreateIntent(ctx context.Context, req CreateIntentRequest) (*Intent, error) {
	customerID, err := c.findOrCreateCustomer(ctx, req.Customer, req.Shipping)
	if err != nil {
		return nil, err
	}
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(req.AmountCents, 10))
	form.Set("currency", strings.ToLower(req.Currency))
	form.Set("customer", customerID)
	form.Set("automatic_payment_methods[enabled]", "true")
	if req.Description != "" {
		form.Set("description", req.Description)
	}
	if req.OrderRef != "" {
		form.Set("metadata[order_id]", req.OrderRef)
	}
	form.Set("shipping[name]", strings.TrimSpace(req.Customer.FirstName+" "+req.Customer.LastName))
	form.Set("shipping[address][line1]", req.Shipping.Line1)
	form.Set("shipping[address][city]", req.Shipping.City)
	form.Set("shipping[address][state]", req.Shipping.State)
	form.Set("shipping[address][country]", req.Shipping.Country)
	form.Set("shipping[address][postal_code]", req.Shipping.PostalCode)
	var intent Intent
	if err := c.do(ctx, http.MethodPost, "/v1/payment_intents", form, req.IdempotencyKey, &intent); err != nil {
		return nil, err
	}
	c.log.Info("payment intent created",
		zap.String("intent_id", intent.ID),
		zap.Int64("amount_cents", intent.AmountCents),
		zap.String("currency", intent.Currency))
	return &intent, nil
}

func (c *StripeClient) RetrieveIntent(ctx context.Context, intentID string) (*Intent, error) {
	var intent Intent
	if err := c.do(ctx, http.MethodGet, "/v1/payment_intents/"+url.PathEscape(intentID), nil, "", &intent); err != nil {
		return nil, err
	}
	return &intent, nil
}

func (c *StripeClient) CreateRefund(ctx context.Context, req RefundRequest) (*Refund, error) {
	if req.IdempotencyKey == "" {
		return nil, fmt.Errorf("gateway: refund requires an idempotency key")
	}
	form := url.Values{}
	form.Set("payment_intent", req.IntentID)
	form.Set("amount", strconv.FormatInt(req.AmountCents, 10))
	if req.Reason != "" {
		form.Set("reason", req.Reason)
	}
	var refund Refund
	if err := c.do(ctx, http.MethodPost, "/v1/refunds", form, req.IdempotencyKey, &refund); err != nil {
		return nil, err
	}
	c.log.Info("refund created",
		zap.String("refund_id", refund.ID),
		zap.String("intent_id", req.IntentID),
		zap.Int64("amount_cents", refund.AmountCents))
	return &refund, nil
}
