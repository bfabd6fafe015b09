package gateway

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain"
)

const testSecret = "whsec_test_secret"

func TestVerifySignatureRoundTrip(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"payment_intent.succeeded"}`)
	header := SignPayload(payload, testSecret, time.Now())

	assert.NoError(t, VerifySignature(payload, header, testSecret, DefaultTolerance))
}

func TestVerifySignatureFailsClosed(t *testing.T) {
	payload := []byte(`{}`)
	header := SignPayload(payload, testSecret, time.Now())

	// No secret configured: reject, never accept.
	err := VerifySignature(payload, header, "", DefaultTolerance)
	assert.ErrorIs(t, err, domain.ErrSignatureVerification)

	// Missing header.
	err = VerifySignature(payload, "", testSecret, DefaultTolerance)
	assert.ErrorIs(t, err, domain.ErrSignatureVerification)
}

func TestVerifySignatureRejectsTamperedPayload(t *testing.T) {
	payload := []byte(`{"amount":2500}`)
	header := SignPayload(payload, testSecret, time.Now())

	err := VerifySignature([]byte(`{"amount":9999}`), header, testSecret, DefaultTolerance)
	assert.ErrorIs(t, err, domain.ErrSignatureVerification)
}

func TestVerifySignatureRejectsWrongSecret(t *testing.T) {
	payload := []byte(`{}`)
	header := SignPayload(payload, "whsec_other", time.Now())

	err := VerifySignature(payload, header, testSecret, DefaultTolerance)
	assert.ErrorIs(t, err, domain.ErrSignatureVerification)
}

func TestVerifySignatureRejectsStaleTimestamp(t *testing.T) {
	payload := []byte(`{}`)
	header := SignPayload(payload, testSecret, time.Now().Add(-10*time.Minute))

	err := VerifySignature(payload, header, testSecret, DefaultTolerance)
	assert.ErrorIs(t, err, domain.ErrSignatureVerification)
}

func TestVerifySignatureRejectsMalformedHeader(t *testing.T) {
	payload := []byte(`{}`)
	for _, header := range []string{
		"t=notanumber,v1=abc",
		"v1=deadbeef",
		"t=1700000000",
		"garbage",
	} {
		err := VerifySignature(payload, header, testSecret, DefaultTolerance)
		assert.ErrorIs(t, err, domain.ErrSignatureVerification, "header %q", header)
	}
}

func TestParseEvent(t *testing.T) {
	ev, err := ParseEvent([]byte(`{
		"id": "evt_1",
		"type": "payment_intent.payment_failed",
		"created": 1700000000,
		"data": {"object": {"id": "pi_1", "status": "requires_payment_method", "amount": 2500, "currency": "usd",
			"last_payment_error": {"message": "card declined"}}}
	}`))
	require.NoError(t, err)
	assert.Equal(t, "evt_1", ev.ID)
	assert.Equal(t, domain.EventIntentFailed, ev.Type)
	assert.Equal(t, "pi_1", ev.Data.Object.ID)
	assert.Equal(t, int64(2500), ev.Data.Object.AmountCents)
	require.NotNil(t, ev.Data.Object.LastPaymentError)
	assert.Equal(t, "card declined", ev.Data.Object.LastPaymentError.Message)

	_, err = ParseEvent([]byte(`{"id":"evt_2"}`))
	assert.Error(t, err, "events without a type are rejected")

	_, err = ParseEvent([]byte(`not json`))
	assert.Error(t, err)
}
