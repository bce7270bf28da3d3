package service

import (
	"context"
	"time"

	"github.com/sokoticket/checkout-service/internal/models"
	"github.com/sokoticket/checkout-service/internal/payment"
	"gorm.io/gorm"
)

// --- Mock OrderRepository ---

type mockOrderRepo struct {
	createFn         func(ctx context.Context, tx *gorm.DB, order *models.Order) error
	findByIDFn       func(ctx context.Context, id string) (*models.Order, error)
	markPaidFn       func(ctx context.Context, tx *gorm.DB, orderID, intentID string) (bool, error)
	markFailedFn     func(ctx context.Context, tx *gorm.DB, orderID, reason string) (bool, error)
	flagForReviewFn  func(ctx context.Context, orderID, intentID, reason string) (bool, error)
	cancelStaleFn    func(ctx context.Context, olderThan time.Time) (int64, error)
	listPendingFn    func(ctx context.Context, provider string) ([]models.Order, error)
	setSessionFn     func(ctx context.Context, orderID, provider, sessionRef, intentID string) error
	transactionErrFn func(err error) error
}

func (m *mockOrderRepo) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	err := fn(nil)
	if m.transactionErrFn != nil {
		return m.transactionErrFn(err)
	}
	return err
}

func (m *mockOrderRepo) Create(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	if m.createFn != nil {
		return m.createFn(ctx, tx, order)
	}
	return nil
}

func (m *mockOrderRepo) FindByID(ctx context.Context, id string) (*models.Order, error) {
	return m.findByIDFn(ctx, id)
}

func (m *mockOrderRepo) FindByBuyer(ctx context.Context, buyerID string) ([]models.Order, error) {
	return nil, nil
}

func (m *mockOrderRepo) ListPendingByProvider(ctx context.Context, provider string) ([]models.Order, error) {
	if m.listPendingFn != nil {
		return m.listPendingFn(ctx, provider)
	}
	return nil, nil
}

func (m *mockOrderRepo) ListNeedsReview(ctx context.Context) ([]models.Order, error) {
	return nil, nil
}

func (m *mockOrderRepo) SetPaymentSession(ctx context.Context, orderID, provider, sessionRef, intentID string) error {
	if m.setSessionFn != nil {
		return m.setSessionFn(ctx, orderID, provider, sessionRef, intentID)
	}
	return nil
}

func (m *mockOrderRepo) MarkPaid(ctx context.Context, tx *gorm.DB, orderID, intentID string) (bool, error) {
	if m.markPaidFn != nil {
		return m.markPaidFn(ctx, tx, orderID, intentID)
	}
	return true, nil
}

func (m *mockOrderRepo) MarkFailed(ctx context.Context, tx *gorm.DB, orderID, reason string) (bool, error) {
	if m.markFailedFn != nil {
		return m.markFailedFn(ctx, tx, orderID, reason)
	}
	return true, nil
}

func (m *mockOrderRepo) FlagForReview(ctx context.Context, orderID, intentID, reason string) (bool, error) {
	if m.flagForReviewFn != nil {
		return m.flagForReviewFn(ctx, orderID, intentID, reason)
	}
	return true, nil
}

func (m *mockOrderRepo) CancelStale(ctx context.Context, olderThan time.Time) (int64, error) {
	if m.cancelStaleFn != nil {
		return m.cancelStaleFn(ctx, olderThan)
	}
	return 0, nil
}

// --- Mock TicketTypeRepository ---

type mockTicketTypeRepo struct {
	findByIDFn   func(ctx context.Context, id uint) (*models.TicketType, error)
	commitSaleFn func(ctx context.Context, tx *gorm.DB, id uint, quantity int) (bool, error)
}

func (m *mockTicketTypeRepo) Create(ctx context.Context, tt *models.TicketType) error { return nil }

func (m *mockTicketTypeRepo) FindByID(ctx context.Context, id uint) (*models.TicketType, error) {
	return m.findByIDFn(ctx, id)
}

func (m *mockTicketTypeRepo) FindByEventID(ctx context.Context, eventID uint) ([]models.TicketType, error) {
	return nil, nil
}

func (m *mockTicketTypeRepo) CommitSale(ctx context.Context, tx *gorm.DB, id uint, quantity int) (bool, error) {
	if m.commitSaleFn != nil {
		return m.commitSaleFn(ctx, tx, id, quantity)
	}
	return true, nil
}

// --- Mock TicketRepository ---

type mockTicketRepo struct {
	created []models.Ticket
}

func (m *mockTicketRepo) CreateBatch(ctx context.Context, tx *gorm.DB, tickets []models.Ticket) error {
	// First write wins, like the conflict clause on (order_id, seq_no).
	if len(m.created) == 0 {
		m.created = append(m.created, tickets...)
	}
	return nil
}

func (m *mockTicketRepo) FindByOrder(ctx context.Context, tx *gorm.DB, orderID string) ([]models.Ticket, error) {
	return m.created, nil
}

func (m *mockTicketRepo) CountByOrder(ctx context.Context, tx *gorm.DB, orderID string) (int64, error) {
	return int64(len(m.created)), nil
}

// --- Mock EventRepository ---

type mockEventRepo struct {
	findByIDFn func(ctx context.Context, id uint) (*models.Event, error)
}

func (m *mockEventRepo) Create(ctx context.Context, event *models.Event) error { return nil }

func (m *mockEventRepo) FindByID(ctx context.Context, id uint) (*models.Event, error) {
	return m.findByIDFn(ctx, id)
}

func (m *mockEventRepo) FindAll(ctx context.Context) ([]models.Event, error) { return nil, nil }

// --- Mock NotificationDispatcher ---

type mockDispatcher struct {
	sent []string
	err  error
}

func (m *mockDispatcher) SendConfirmation(order *models.Order, tickets []models.Ticket) error {
	m.sent = append(m.sent, order.ID)
	return m.err
}

// --- Stub payment gateway ---

type stubGateway struct {
	provider        payment.Provider
	createSessionFn func(ctx context.Context, order *models.Order, successURL, cancelURL string) (*payment.Session, error)
	verifyFn        func(payload []byte, signature string) (*payment.Event, error)
}

func (g *stubGateway) Provider() payment.Provider { return g.provider }

func (g *stubGateway) CreateSession(ctx context.Context, order *models.Order, successURL, cancelURL string) (*payment.Session, error) {
	if g.createSessionFn != nil {
		return g.createSessionFn(ctx, order, successURL, cancelURL)
	}
	return &payment.Session{Provider: g.provider, ProviderRef: "ref-1", RedirectURL: "https://pay.example/s/1"}, nil
}

func (g *stubGateway) VerifyCallback(payload []byte, signature string) (*payment.Event, error) {
	if g.verifyFn != nil {
		return g.verifyFn(payload, signature)
	}
	return nil, payment.ErrSignature
}

func registryWith(gateways ...payment.Gateway) *payment.Registry {
	r := payment.NewRegistry()
	for _, g := range gateways {
		r.Register(g)
	}
	return r
}
