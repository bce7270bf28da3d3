package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sokoticket/checkout-service/internal/models"
)

type MoMoConfig struct {
	BaseURL         string
	SubscriptionKey string
	APIUser         string
	APIKey          string
	TargetEnv       string
	CallbackSecret  string
}

// MoMoGateway implements the MTN Mobile Money collections flow: a
// request-to-pay is pushed to the buyer's handset and the outcome is read
// back by polling, or by the signed callback if one is configured upstream.
type MoMoGateway struct {
	cfg MoMoConfig
	hc  *http.Client

	mu       sync.Mutex
	token    string
	tokenExp time.Time
}

func NewMoMoGateway(cfg MoMoConfig, hc *http.Client) (*MoMoGateway, error) {
	if cfg.SubscriptionKey == "" || cfg.APIUser == "" || cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: momo subscription key, api user and api key are required", ErrCredentials)
	}
	if cfg.CallbackSecret == "" {
		return nil, fmt.Errorf("%w: momo callback secret is required", ErrCredentials)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://sandbox.momodeveloper.mtn.com"
	}
	if cfg.TargetEnv == "" {
		cfg.TargetEnv = "sandbox"
	}
	if hc == nil {
		hc = http.DefaultClient
	}
	return &MoMoGateway{cfg: cfg, hc: hc}, nil
}

func (g *MoMoGateway) Provider() Provider { return ProviderMoMo }

type momoPayRequest struct {
	Amount     string `json:"amount"`
	Currency   string `json:"currency"`
	ExternalID string `json:"externalId"`
	Payer      struct {
		PartyIDType string `json:"partyIdType"`
		PartyID     string `json:"partyId"`
	} `json:"payer"`
	PayerMessage string `json:"payerMessage"`
	PayeeNote    string `json:"payeeNote"`
}

type momoPayStatus struct {
	Status                 string `json:"status"`
	Reason                 string `json:"reason"`
	ExternalID             string `json:"externalId"`
	FinancialTransactionID string `json:"financialTransactionId"`
}

// CreateSession opens a request-to-pay. There is no redirect; the returned
// reference is what the poller (and the callback) correlate on.
func (g *MoMoGateway) CreateSession(ctx context.Context, order *models.Order, successURL, cancelURL string) (*Session, error) {
	token, err := g.ensureToken(ctx)
	if err != nil {
		return nil, err
	}

	ref := uuid.NewString()

	var pay momoPayRequest
	pay.Amount = order.TotalAmount.StringFixed(2)
	pay.Currency = order.Currency
	pay.ExternalID = order.ID
	pay.Payer.PartyIDType = "MSISDN"
	pay.Payer.PartyID = order.BuyerPhone
	pay.PayerMessage = fmt.Sprintf("Tickets for event %d", order.EventID)
	pay.PayeeNote = order.ID

	body, _ := json.Marshal(pay)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		g.cfg.BaseURL+"/collection/v1_0/requesttopay", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("momo: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Reference-Id", ref)
	req.Header.Set("X-Target-Environment", g.cfg.TargetEnv)
	req.Header.Set("Ocp-Apim-Subscription-Key", g.cfg.SubscriptionKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: momo request-to-pay: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		msg, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("momo: request-to-pay rejected (%d): %s", resp.StatusCode, msg)
	}

	return &Session{Provider: ProviderMoMo, ProviderRef: ref}, nil
}

// CheckStatus polls the request-to-pay resource. PENDING maps to an ignored
// outcome so the poller simply tries again next tick.
func (g *MoMoGateway) CheckStatus(ctx context.Context, order *models.Order) (*Event, error) {
	token, err := g.ensureToken(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		g.cfg.BaseURL+"/collection/v1_0/requesttopay/"+order.ProviderSessionRef, nil)
	if err != nil {
		return nil, fmt.Errorf("momo: build status request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Target-Environment", g.cfg.TargetEnv)
	req.Header.Set("Ocp-Apim-Subscription-Key", g.cfg.SubscriptionKey)

	resp, err := g.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: momo status: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: momo status: %v", ErrUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("momo: status check failed (%d): %s", resp.StatusCode, body)
	}

	var st momoPayStatus
	if err := json.Unmarshal(body, &st); err != nil {
		return nil, fmt.Errorf("momo: decode status: %w", err)
	}

	return g.statusEvent(order.ProviderSessionRef, st), nil
}

// VerifyCallback authenticates the relayed request-to-pay resource against
// the shared callback secret.
func (g *MoMoGateway) VerifyCallback(payload []byte, signature string) (*Event, error) {
	if !verifySignature(g.cfg.CallbackSecret, payload, signature) {
		return nil, ErrSignature
	}

	var st momoPayStatus
	if err := json.Unmarshal(payload, &st); err != nil {
		return nil, fmt.Errorf("momo: decode callback: %w", err)
	}
	return g.statusEvent("", st), nil
}

func (g *MoMoGateway) statusEvent(ref string, st momoPayStatus) *Event {
	ev := &Event{
		Provider:    ProviderMoMo,
		OrderID:     st.ExternalID,
		ProviderRef: ref,
		IntentID:    st.FinancialTransactionID,
	}
	switch st.Status {
	case "SUCCESSFUL":
		ev.Outcome = OutcomeSuccess
	case "FAILED":
		ev.Outcome = OutcomeFailure
		ev.Reason = st.Reason
	default: // PENDING
		ev.Outcome = OutcomeIgnored
	}
	return ev
}

func (g *MoMoGateway) ensureToken(ctx context.Context) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.token != "" && time.Now().Before(g.tokenExp) {
		return g.token, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		g.cfg.BaseURL+"/collection/token/", nil)
	if err != nil {
		return "", fmt.Errorf("momo: build token request: %w", err)
	}
	req.SetBasicAuth(g.cfg.APIUser, g.cfg.APIKey)
	req.Header.Set("Ocp-Apim-Subscription-Key", g.cfg.SubscriptionKey)

	resp, err := g.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: momo token: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: momo token: %v", ErrUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("momo: token request failed (%d): %s", resp.StatusCode, body)
	}

	var tok struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &tok); err != nil {
		return "", fmt.Errorf("momo: decode token: %w", err)
	}

	g.token = tok.AccessToken
	// Refresh a little early rather than race the expiry.
	g.tokenExp = time.Now().Add(time.Duration(tok.ExpiresIn)*time.Second - 30*time.Second)
	return g.token, nil
}
