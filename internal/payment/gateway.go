package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/sokoticket/checkout-service/internal/models"
)

type Provider string

const (
	ProviderStripe Provider = "stripe"
	ProviderMoMo   Provider = "momo"
	ProviderMock   Provider = "mock"
)

var (
	// ErrSignature means the callback payload could not be authenticated.
	// Nothing signed with the wrong secret may reach the order state machine.
	ErrSignature = errors.New("payment: callback signature verification failed")

	// ErrCredentials is returned at construction time so a misconfigured
	// provider fails the process start, not the first checkout.
	ErrCredentials = errors.New("payment: missing provider credentials")

	// ErrUnavailable wraps transient transport failures while opening a
	// provider session; callers may retry, only the pending order exists.
	ErrUnavailable = errors.New("payment: provider unavailable")
)

type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
	// OutcomeIgnored covers verified events the pipeline has no interest
	// in (still pending, or an event type we do not handle).
	OutcomeIgnored Outcome = "ignored"
)

// Session is what a provider hands back when a payment attempt is opened.
// Redirect-based providers fill RedirectURL; request-to-pay providers only
// return the reference the buyer approves on their handset.
type Session struct {
	Provider    Provider `json:"provider"`
	RedirectURL string   `json:"redirect_url,omitempty"`
	ProviderRef string   `json:"provider_ref"`
	IntentID    string   `json:"intent_id,omitempty"`
}

// Event is a verified payment outcome, normalized across providers. OrderID
// is the correlation id we planted when the session was created.
type Event struct {
	Provider    Provider `json:"provider"`
	OrderID     string   `json:"order_id"`
	ProviderRef string   `json:"provider_ref"`
	IntentID    string   `json:"intent_id,omitempty"`
	Outcome     Outcome  `json:"outcome"`
	Reason      string   `json:"reason,omitempty"`
}

// Gateway is the provider-agnostic surface the checkout and confirmation
// services program against.
type Gateway interface {
	Provider() Provider
	CreateSession(ctx context.Context, order *models.Order, successURL, cancelURL string) (*Session, error)
	VerifyCallback(payload []byte, signature string) (*Event, error)
}

// StatusChecker is implemented by poll-based providers that never push a
// webhook on their own (mobile money request-to-pay).
type StatusChecker interface {
	CheckStatus(ctx context.Context, order *models.Order) (*Event, error)
}

// Registry holds the configured gateways keyed by provider.
type Registry struct {
	gateways map[Provider]Gateway
}

func NewRegistry() *Registry {
	return &Registry{gateways: make(map[Provider]Gateway)}
}

func (r *Registry) Register(g Gateway) {
	r.gateways[g.Provider()] = g
}

func (r *Registry) Get(p Provider) (Gateway, error) {
	g, ok := r.gateways[p]
	if !ok {
		return nil, fmt.Errorf("payment: provider %q not configured", p)
	}
	return g, nil
}

func (r *Registry) Providers() []Provider {
	ps := make([]Provider, 0, len(r.gateways))
	for p := range r.gateways {
		ps = append(ps, p)
	}
	return ps
}
