package service

import (
	"context"
	"time"

	"github.com/sokoticket/checkout-service/internal/payment"
	"github.com/sokoticket/checkout-service/internal/repository"
	"go.uber.org/zap"
)

// StatusPoller drives poll-based providers: mobile money has no redirect and
// pushes nothing on its own, so pending orders are checked on a ticker and
// resolved events go through the same confirmation path as webhooks.
type StatusPoller struct {
	orders        repository.OrderRepository
	confirmations ConfirmationService
	checker       payment.StatusChecker
	provider      payment.Provider
	interval      time.Duration
	logger        *zap.Logger
}

func NewStatusPoller(
	orders repository.OrderRepository,
	confirmations ConfirmationService,
	checker payment.StatusChecker,
	provider payment.Provider,
	interval time.Duration,
	logger *zap.Logger,
) *StatusPoller {
	return &StatusPoller{
		orders:        orders,
		confirmations: confirmations,
		checker:       checker,
		provider:      provider,
		interval:      interval,
		logger:        logger,
	}
}

func (p *StatusPoller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *StatusPoller) poll(ctx context.Context) {
	orders, err := p.orders.ListPendingByProvider(ctx, string(p.provider))
	if err != nil {
		p.logger.Error("poll: list pending orders failed", zap.Error(err))
		return
	}

	for i := range orders {
		order := orders[i]
		ev, err := p.checker.CheckStatus(ctx, &order)
		if err != nil {
			p.logger.Warn("poll: status check failed",
				zap.String("order_id", order.ID),
				zap.Error(err),
			)
			continue
		}
		if ev.Outcome == payment.OutcomeIgnored {
			continue // still pending at the provider
		}
		if ev.OrderID == "" {
			ev.OrderID = order.ID
		}

		if _, err := p.confirmations.Apply(ctx, ev); err != nil {
			p.logger.Error("poll: applying payment event failed",
				zap.String("order_id", order.ID),
				zap.Error(err),
			)
		}
	}
}
