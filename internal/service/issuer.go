package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sokoticket/checkout-service/internal/models"
	"github.com/sokoticket/checkout-service/internal/repository"
	"gorm.io/gorm"
)

// TicketIssuer materializes one ticket per purchased unit. Issue is safe to
// call again for the same order: codes are keyed by (order_id, seq_no) and
// the insert ignores conflicts, so a retry returns the original set.
type TicketIssuer interface {
	Issue(ctx context.Context, tx *gorm.DB, order *models.Order) ([]models.Ticket, error)
}

type ticketIssuer struct {
	tickets repository.TicketRepository
}

func NewTicketIssuer(tickets repository.TicketRepository) TicketIssuer {
	return &ticketIssuer{tickets: tickets}
}

func (s *ticketIssuer) Issue(ctx context.Context, tx *gorm.DB, order *models.Order) ([]models.Ticket, error) {
	want := order.TotalQuantity()

	batch := make([]models.Ticket, 0, want)
	seq := 0
	for _, it := range order.Items {
		for i := 0; i < it.Quantity; i++ {
			seq++
			batch = append(batch, models.Ticket{
				OrderID:      order.ID,
				TicketTypeID: it.TicketTypeID,
				SeqNo:        seq,
				Code:         uuid.NewString(),
				Status:       models.TicketActive,
			})
		}
	}

	if err := s.tickets.CreateBatch(ctx, tx, batch); err != nil {
		return nil, fmt.Errorf("issue tickets: %w", err)
	}

	// Read back the canonical set: on a retry the conflict clause dropped
	// our inserts and the originals win.
	issued, err := s.tickets.FindByOrder(ctx, tx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("load issued tickets: %w", err)
	}
	if len(issued) != want {
		return nil, fmt.Errorf("issued %d tickets for order %s, want %d", len(issued), order.ID, want)
	}
	return issued, nil
}
