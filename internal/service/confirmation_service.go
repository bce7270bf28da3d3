package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sokoticket/checkout-service/internal/models"
	"github.com/sokoticket/checkout-service/internal/monitoring"
	"github.com/sokoticket/checkout-service/internal/payment"
	"github.com/sokoticket/checkout-service/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// errAlreadyProcessed aborts the confirmation transaction when the status
// CAS lost a race with a concurrent delivery of the same event.
var errAlreadyProcessed = errors.New("order already left pending")

// ConfirmationResult reports what a verified payment event did. Applied is
// false for duplicate deliveries, which are acknowledged without side
// effects.
type ConfirmationResult struct {
	Order   *models.Order
	Tickets []models.Ticket
	Applied bool
}

// ConfirmationService is the single writer for order status, inventory and
// tickets. Webhooks and the mobile-money poller both funnel into Apply.
type ConfirmationService interface {
	HandleCallback(ctx context.Context, provider payment.Provider, payload []byte, signature string) (*ConfirmationResult, error)
	Apply(ctx context.Context, ev *payment.Event) (*ConfirmationResult, error)
}

type confirmationService struct {
	orders     repository.OrderRepository
	inventory  repository.TicketTypeRepository
	issuer     TicketIssuer
	gateways   *payment.Registry
	dispatcher NotificationDispatcher
	logger     *zap.Logger
}

func NewConfirmationService(
	orders repository.OrderRepository,
	inventory repository.TicketTypeRepository,
	issuer TicketIssuer,
	gateways *payment.Registry,
	dispatcher NotificationDispatcher,
	logger *zap.Logger,
) ConfirmationService {
	return &confirmationService{
		orders:     orders,
		inventory:  inventory,
		issuer:     issuer,
		gateways:   gateways,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// HandleCallback authenticates a raw webhook payload and applies the event.
// An unverifiable payload never reaches the order state machine.
func (s *confirmationService) HandleCallback(ctx context.Context, provider payment.Provider, payload []byte, signature string) (*ConfirmationResult, error) {
	gateway, err := s.gateways.Get(provider)
	if err != nil {
		return nil, err
	}

	ev, err := gateway.VerifyCallback(payload, signature)
	if err != nil {
		if errors.Is(err, payment.ErrSignature) {
			monitoring.TrackSignatureRejection(string(provider))
			s.logger.Warn("webhook signature rejected", zap.String("provider", string(provider)))
		}
		return nil, err
	}

	return s.Apply(ctx, ev)
}

func (s *confirmationService) Apply(ctx context.Context, ev *payment.Event) (*ConfirmationResult, error) {
	if ev.Outcome == payment.OutcomeIgnored {
		return &ConfirmationResult{Applied: false}, nil
	}
	monitoring.TrackPaymentEvent(string(ev.Provider), string(ev.Outcome))

	order, err := s.orders.FindByID(ctx, ev.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("payment event for unknown order",
				zap.String("provider", string(ev.Provider)),
				zap.String("order_id", ev.OrderID),
			)
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("load order: %w", err)
	}

	// Providers retry delivery; a non-pending order means this event (or
	// its twin) was already handled.
	if order.Status != models.OrderPending {
		return &ConfirmationResult{Order: order, Applied: false}, nil
	}

	if ev.Outcome == payment.OutcomeFailure {
		return s.applyFailure(ctx, order, ev)
	}
	return s.applySuccess(ctx, order, ev)
}

func (s *confirmationService) applyFailure(ctx context.Context, order *models.Order, ev *payment.Event) (*ConfirmationResult, error) {
	applied, err := s.orders.MarkFailed(ctx, nil, order.ID, ev.Reason)
	if err != nil {
		return nil, fmt.Errorf("mark order failed: %w", err)
	}
	if applied {
		order.Status = models.OrderFailed
		s.logger.Info("order failed",
			zap.String("order_id", order.ID),
			zap.String("reason", ev.Reason),
		)
	}
	return &ConfirmationResult{Order: order, Applied: applied}, nil
}

// applySuccess runs steps 3-5 of the confirmation as one transaction: CAS
// pending->paid, guarded inventory commits, ticket issuance. The CAS is the
// serialization point; everything after it rolls back together.
func (s *confirmationService) applySuccess(ctx context.Context, order *models.Order, ev *payment.Event) (*ConfirmationResult, error) {
	var tickets []models.Ticket

	err := s.orders.Transaction(ctx, func(tx *gorm.DB) error {
		applied, err := s.orders.MarkPaid(ctx, tx, order.ID, ev.IntentID)
		if err != nil {
			return fmt.Errorf("mark order paid: %w", err)
		}
		if !applied {
			return errAlreadyProcessed
		}

		for _, it := range order.Items {
			ok, err := s.inventory.CommitSale(ctx, tx, it.TicketTypeID, it.Quantity)
			if err != nil {
				return fmt.Errorf("commit sale for ticket type %d: %w", it.TicketTypeID, err)
			}
			if !ok {
				return ErrInventoryConflict
			}
		}

		tickets, err = s.issuer.Issue(ctx, tx, order)
		return err
	})

	switch {
	case errors.Is(err, errAlreadyProcessed):
		return &ConfirmationResult{Order: order, Applied: false}, nil

	case errors.Is(err, ErrInventoryConflict):
		// The provider took the money but the capacity is gone. Park the
		// order for a manual refund; replays now no-op on the CAS.
		monitoring.TrackInventoryConflict()
		if _, ferr := s.orders.FlagForReview(ctx, order.ID, ev.IntentID, "inventory commit rejected after payment confirmation"); ferr != nil {
			s.logger.Error("failed to flag order for review",
				zap.String("order_id", order.ID),
				zap.Error(ferr),
			)
		}
		s.logger.Error("inventory conflict after payment confirmation",
			zap.String("order_id", order.ID),
			zap.String("provider", string(ev.Provider)),
		)
		return &ConfirmationResult{Order: order, Applied: false}, ErrInventoryConflict

	case err != nil:
		return nil, err
	}

	order.Status = models.OrderPaid
	order.PaymentIntentID = ev.IntentID
	monitoring.TrackTicketsIssued(len(tickets))

	s.logger.Info("order paid",
		zap.String("order_id", order.ID),
		zap.String("provider", string(ev.Provider)),
		zap.Int("tickets", len(tickets)),
	)

	// Notification is outside the consistency boundary: a delivery failure
	// is logged and retried out of band, never unwinds the paid state.
	if s.dispatcher != nil {
		if err := s.dispatcher.SendConfirmation(order, tickets); err != nil {
			s.logger.Warn("confirmation dispatch failed",
				zap.String("order_id", order.ID),
				zap.Error(err),
			)
		}
	}

	return &ConfirmationResult{Order: order, Tickets: tickets, Applied: true}, nil
}
