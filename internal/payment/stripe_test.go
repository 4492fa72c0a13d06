package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "whsec_test"

func sign(payload []byte, secret string, at time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(fmt.Sprintf("%d.", at.Unix())))
	mac.Write(payload)
	return fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func TestStripeProvider_ParseWebhook(t *testing.T) {
	p := NewStripeProvider(Config{WebhookSecret: testSecret})

	completed := []byte(`{
		"id": "evt_1",
		"object": "event",
		"type": "checkout.session.completed",
		"data": {"object": {
			"id": "cs_1",
			"object": "checkout.session",
			"customer_email": "fallback@example.com",
			"customer_details": {"email": "Ada@Example.com"},
			"metadata": {"kind": "stars", "bundle": "120"}
		}}
	}`)

	t.Run("Completed checkout", func(t *testing.T) {
		got, err := p.ParseWebhook(completed, sign(completed, testSecret, time.Now()))
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "evt_1", got.EventID)
		assert.Equal(t, "cs_1", got.SessionID)
		assert.Equal(t, "Ada@Example.com", got.Email)
		assert.Equal(t, map[string]string{"kind": "stars", "bundle": "120"}, got.Metadata)
	})

	t.Run("Wrong secret", func(t *testing.T) {
		_, err := p.ParseWebhook(completed, sign(completed, "whsec_other", time.Now()))
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("Tampered payload", func(t *testing.T) {
		header := sign(completed, testSecret, time.Now())
		tampered := append([]byte{}, completed...)
		tampered[len(tampered)-2] = ' '
		_, err := p.ParseWebhook(tampered, header)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("Stale timestamp", func(t *testing.T) {
		_, err := p.ParseWebhook(completed, sign(completed, testSecret, time.Now().Add(-time.Hour)))
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("Other event type", func(t *testing.T) {
		other := []byte(`{"id": "evt_2", "object": "event", "type": "invoice.paid", "data": {"object": {}}}`)
		got, err := p.ParseWebhook(other, sign(other, testSecret, time.Now()))
		assert.NoError(t, err)
		assert.Nil(t, got)
	})
}
