package service

import (
	"context"
	"time"

	"github.com/sokoticket/checkout-service/internal/monitoring"
	"github.com/sokoticket/checkout-service/internal/repository"
	"go.uber.org/zap"
)

// Sweeper cancels pending orders that never got a payment confirmation,
// releasing the implicit pressure they put on availability checks.
type Sweeper struct {
	orders   repository.OrderRepository
	expiry   time.Duration
	interval time.Duration
	logger   *zap.Logger
}

func NewSweeper(orders repository.OrderRepository, expiry, interval time.Duration, logger *zap.Logger) *Sweeper {
	return &Sweeper{orders: orders, expiry: expiry, interval: interval, logger: logger}
}

func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	n, err := s.orders.CancelStale(ctx, time.Now().Add(-s.expiry))
	if err != nil {
		s.logger.Error("order sweep failed", zap.Error(err))
		return
	}
	if n > 0 {
		monitoring.TrackOrdersSwept(n)
		s.logger.Info("cancelled stale pending orders", zap.Int64("count", n))
	}
}
