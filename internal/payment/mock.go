package payment

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/sokoticket/checkout-service/internal/models"
)

// MockGateway is a first-class provider variant for development and tests.
// It goes through the exact same webhook path as the real providers: the
// caller posts a signed MockCallback to /webhooks/mock, nothing is written
// out-of-band.
type MockGateway struct {
	secret string
}

// MockCallback is the payload a simulated payment posts back.
type MockCallback struct {
	OrderID   string `json:"order_id"`
	Reference string `json:"reference"`
	Outcome   string `json:"outcome"` // "success" or "failure"
	Reason    string `json:"reason,omitempty"`
}

func NewMockGateway(secret string) (*MockGateway, error) {
	if secret == "" {
		return nil, fmt.Errorf("%w: mock secret is required", ErrCredentials)
	}
	return &MockGateway{secret: secret}, nil
}

func (g *MockGateway) Provider() Provider { return ProviderMock }

func (g *MockGateway) CreateSession(ctx context.Context, order *models.Order, successURL, cancelURL string) (*Session, error) {
	return &Session{
		Provider:    ProviderMock,
		RedirectURL: successURL,
		ProviderRef: uuid.NewString(),
	}, nil
}

func (g *MockGateway) VerifyCallback(payload []byte, signature string) (*Event, error) {
	if !verifySignature(g.secret, payload, signature) {
		return nil, ErrSignature
	}

	var cb MockCallback
	if err := json.Unmarshal(payload, &cb); err != nil {
		return nil, fmt.Errorf("mock: decode callback: %w", err)
	}

	ev := &Event{
		Provider:    ProviderMock,
		OrderID:     cb.OrderID,
		ProviderRef: cb.Reference,
		IntentID:    "mock-" + cb.Reference,
	}
	switch cb.Outcome {
	case "success":
		ev.Outcome = OutcomeSuccess
	case "failure":
		ev.Outcome = OutcomeFailure
		ev.Reason = cb.Reason
	default:
		ev.Outcome = OutcomeIgnored
	}
	return ev, nil
}
