package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sokoticket/checkout-service/internal/models"
)

const stripeSignatureTolerance = 5 * time.Minute

var centFactor = decimal.NewFromInt(100)

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	BaseURL       string
}

// StripeGateway drives the hosted Checkout Session flow: the buyer is
// redirected to Stripe and the outcome arrives on the webhook endpoint.
type StripeGateway struct {
	cfg StripeConfig
	hc  *http.Client
	now func() time.Time
}

func NewStripeGateway(cfg StripeConfig, hc *http.Client) (*StripeGateway, error) {
	if cfg.SecretKey == "" || cfg.WebhookSecret == "" {
		return nil, fmt.Errorf("%w: stripe secret key and webhook secret are required", ErrCredentials)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.stripe.com"
	}
	if hc == nil {
		hc = http.DefaultClient
	}
	return &StripeGateway{cfg: cfg, hc: hc, now: time.Now}, nil
}

func (g *StripeGateway) Provider() Provider { return ProviderStripe }

func (g *StripeGateway) CreateSession(ctx context.Context, order *models.Order, successURL, cancelURL string) (*Session, error) {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("client_reference_id", order.ID)
	form.Set("customer_email", order.BuyerEmail)
	form.Set("success_url", successURL)
	form.Set("cancel_url", cancelURL)

	for i, it := range order.Items {
		prefix := fmt.Sprintf("line_items[%d]", i)
		form.Set(prefix+"[quantity]", strconv.Itoa(it.Quantity))
		form.Set(prefix+"[price_data][currency]", strings.ToLower(order.Currency))
		// Stripe amounts are in the smallest currency unit.
		form.Set(prefix+"[price_data][unit_amount]", it.UnitPrice.Mul(centFactor).StringFixed(0))
		form.Set(prefix+"[price_data][product_data][name]", fmt.Sprintf("Ticket type %d", it.TicketTypeID))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		g.cfg.BaseURL+"/v1/checkout/sessions", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("stripe: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.cfg.SecretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: stripe session: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: stripe session: %v", ErrUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("stripe: session creation failed (%d): %s", resp.StatusCode, body)
	}

	var out struct {
		ID            string `json:"id"`
		URL           string `json:"url"`
		PaymentIntent string `json:"payment_intent"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("stripe: decode session: %w", err)
	}

	return &Session{
		Provider:    ProviderStripe,
		RedirectURL: out.URL,
		ProviderRef: out.ID,
		IntentID:    out.PaymentIntent,
	}, nil
}

// VerifyCallback checks the Stripe-Signature header
// (t=<unix>,v1=<hmac-sha256 of "<t>.<payload>">) before reading anything
// from the payload.
func (g *StripeGateway) VerifyCallback(payload []byte, signature string) (*Event, error) {
	ts, sigs, err := parseStripeSignature(signature)
	if err != nil {
		return nil, ErrSignature
	}

	if d := g.now().Sub(time.Unix(ts, 0)); d > stripeSignatureTolerance || d < -stripeSignatureTolerance {
		return nil, ErrSignature
	}

	mac := hmac.New(sha256.New, []byte(g.cfg.WebhookSecret))
	fmt.Fprintf(mac, "%d.", ts)
	mac.Write(payload)
	expected := mac.Sum(nil)

	valid := false
	for _, s := range sigs {
		got, err := hex.DecodeString(s)
		if err == nil && hmac.Equal(expected, got) {
			valid = true
			break
		}
	}
	if !valid {
		return nil, ErrSignature
	}

	var evt struct {
		Type string `json:"type"`
		Data struct {
			Object struct {
				ID                string `json:"id"`
				ClientReferenceID string `json:"client_reference_id"`
				PaymentIntent     string `json:"payment_intent"`
			} `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &evt); err != nil {
		return nil, fmt.Errorf("stripe: decode event: %w", err)
	}

	out := &Event{
		Provider:    ProviderStripe,
		OrderID:     evt.Data.Object.ClientReferenceID,
		ProviderRef: evt.Data.Object.ID,
		IntentID:    evt.Data.Object.PaymentIntent,
	}

	switch evt.Type {
	case "checkout.session.completed":
		out.Outcome = OutcomeSuccess
	case "checkout.session.expired", "checkout.session.async_payment_failed":
		out.Outcome = OutcomeFailure
		out.Reason = evt.Type
	default:
		out.Outcome = OutcomeIgnored
	}
	return out, nil
}

func parseStripeSignature(header string) (ts int64, sigs []string, err error) {
	for _, part := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			ts, err = strconv.ParseInt(v, 10, 64)
			if err != nil {
				return 0, nil, fmt.Errorf("stripe: bad timestamp: %w", err)
			}
		case "v1":
			sigs = append(sigs, v)
		}
	}
	if ts == 0 || len(sigs) == 0 {
		return 0, nil, fmt.Errorf("stripe: malformed signature header")
	}
	return ts, sigs, nil
}
