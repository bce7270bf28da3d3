package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sokoticket/checkout-service/internal/dto"
	"github.com/sokoticket/checkout-service/internal/models"
	"github.com/sokoticket/checkout-service/internal/monitoring"
	"github.com/sokoticket/checkout-service/internal/payment"
	"github.com/sokoticket/checkout-service/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type CheckoutService interface {
	Checkout(ctx context.Context, req *dto.CheckoutRequest) (*dto.CheckoutResponse, error)
}

type checkoutService struct {
	orders      repository.OrderRepository
	ticketTypes repository.TicketTypeRepository
	events      repository.EventRepository
	gateways    *payment.Registry
	baseURL     string
	logger      *zap.Logger
}

func NewCheckoutService(
	orders repository.OrderRepository,
	ticketTypes repository.TicketTypeRepository,
	events repository.EventRepository,
	gateways *payment.Registry,
	baseURL string,
	logger *zap.Logger,
) CheckoutService {
	return &checkoutService{
		orders:      orders,
		ticketTypes: ticketTypes,
		events:      events,
		gateways:    gateways,
		baseURL:     baseURL,
		logger:      logger,
	}
}

// Checkout validates availability, prices the order from the ticket-type
// table, persists it pending and opens a provider session. Availability here
// is only a feasibility check; the authoritative guard runs at confirmation.
func (s *checkoutService) Checkout(ctx context.Context, req *dto.CheckoutRequest) (*dto.CheckoutResponse, error) {
	gateway, err := s.gateways.Get(payment.Provider(req.Provider))
	if err != nil {
		return nil, err
	}
	if payment.Provider(req.Provider) == payment.ProviderMoMo && req.BuyerPhone == "" {
		return nil, ErrPhoneRequired
	}

	event, err := s.events.FindByID(ctx, req.EventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("load event: %w", err)
	}

	now := time.Now()
	if now.Before(event.SalesOpenAt) || now.After(event.SalesEndAt) {
		return nil, ErrSalesClosed
	}

	items, total, currency, err := s.priceItems(ctx, event, req.Items)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		ID:          uuid.NewString(),
		BuyerID:     req.BuyerID,
		BuyerEmail:  req.BuyerEmail,
		BuyerPhone:  req.BuyerPhone,
		EventID:     event.ID,
		TotalAmount: total,
		Currency:    currency,
		Status:      models.OrderPending,
		Provider:    req.Provider,
		Items:       items,
	}

	if err := s.orders.Create(ctx, nil, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	monitoring.TrackOrderCreated(req.Provider)

	successURL := fmt.Sprintf("%s/checkout/success?order=%s", s.baseURL, order.ID)
	cancelURL := fmt.Sprintf("%s/checkout/cancelled?order=%s", s.baseURL, order.ID)

	// A failure past this point leaves only a pending order behind; the
	// sweeper reclaims it if the buyer never retries.
	sess, err := gateway.CreateSession(ctx, order, successURL, cancelURL)
	if err != nil {
		s.logger.Warn("payment session creation failed",
			zap.String("order_id", order.ID),
			zap.String("provider", req.Provider),
			zap.Error(err),
		)
		return nil, fmt.Errorf("open payment session: %w", err)
	}

	if err := s.orders.SetPaymentSession(ctx, order.ID, req.Provider, sess.ProviderRef, sess.IntentID); err != nil {
		return nil, fmt.Errorf("store payment session: %w", err)
	}

	s.logger.Info("checkout initiated",
		zap.String("order_id", order.ID),
		zap.String("provider", req.Provider),
		zap.String("provider_ref", sess.ProviderRef),
		zap.String("total", total.String()),
	)

	return &dto.CheckoutResponse{
		OrderID:     order.ID,
		Status:      order.Status,
		Provider:    req.Provider,
		RedirectURL: sess.RedirectURL,
		ProviderRef: sess.ProviderRef,
		TotalAmount: total,
		Currency:    currency,
	}, nil
}

func (s *checkoutService) priceItems(ctx context.Context, event *models.Event, reqItems []dto.CheckoutItem) ([]models.OrderItem, decimal.Decimal, string, error) {
	if len(reqItems) == 0 {
		return nil, decimal.Zero, "", ErrInvalidQuantity
	}

	items := make([]models.OrderItem, 0, len(reqItems))
	total := decimal.Zero
	currency := ""

	for _, ri := range reqItems {
		if ri.Quantity <= 0 {
			return nil, decimal.Zero, "", ErrInvalidQuantity
		}

		tt, err := s.ticketTypes.FindByID(ctx, ri.TicketTypeID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, decimal.Zero, "", ErrTicketTypeNotFound
			}
			return nil, decimal.Zero, "", fmt.Errorf("load ticket type: %w", err)
		}
		if tt.EventID != event.ID {
			return nil, decimal.Zero, "", ErrTicketTypeNotFound
		}
		if tt.Available() < ri.Quantity {
			return nil, decimal.Zero, "", ErrInsufficientStock
		}

		if currency == "" {
			currency = tt.Currency
		} else if currency != tt.Currency {
			return nil, decimal.Zero, "", ErrCurrencyMismatch
		}

		lineTotal := tt.Price.Mul(decimal.NewFromInt(int64(ri.Quantity)))
		items = append(items, models.OrderItem{
			TicketTypeID: tt.ID,
			Quantity:     ri.Quantity,
			UnitPrice:    tt.Price,
			LineTotal:    lineTotal,
		})
		total = total.Add(lineTotal)
	}

	return items, total, currency, nil
}
