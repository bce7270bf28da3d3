package payment

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sokoticket/checkout-service/internal/models"
)

func signedMockCallback(t *testing.T, secret string, cb MockCallback) ([]byte, string) {
	t.Helper()
	payload, err := json.Marshal(cb)
	require.NoError(t, err)
	return payload, SignPayload(secret, payload)
}

func TestMockGatewayRoundTrip(t *testing.T) {
	g, err := NewMockGateway("test-secret")
	require.NoError(t, err)

	sess, err := g.CreateSession(context.Background(), &models.Order{ID: "ord-1"}, "http://x/ok", "http://x/no")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ProviderRef)

	payload, sig := signedMockCallback(t, "test-secret", MockCallback{
		OrderID:   "ord-1",
		Reference: sess.ProviderRef,
		Outcome:   "success",
	})

	ev, err := g.VerifyCallback(payload, sig)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, ev.Outcome)
	assert.Equal(t, "ord-1", ev.OrderID)
	assert.Equal(t, sess.ProviderRef, ev.ProviderRef)
}

func TestMockGatewayFailureOutcome(t *testing.T) {
	g, err := NewMockGateway("test-secret")
	require.NoError(t, err)

	payload, sig := signedMockCallback(t, "test-secret", MockCallback{
		OrderID: "ord-1",
		Outcome: "failure",
		Reason:  "simulated decline",
	})

	ev, err := g.VerifyCallback(payload, sig)
	require.NoError(t, err)
	assert.Equal(t, OutcomeFailure, ev.Outcome)
	assert.Equal(t, "simulated decline", ev.Reason)
}

func TestMockGatewayRejectsBadSignature(t *testing.T) {
	g, err := NewMockGateway("test-secret")
	require.NoError(t, err)

	payload, _ := signedMockCallback(t, "other-secret", MockCallback{OrderID: "ord-1", Outcome: "success"})

	_, err = g.VerifyCallback(payload, SignPayload("other-secret", payload))
	assert.ErrorIs(t, err, ErrSignature)
}
