package service

import (
	"time"

	"github.com/sokoticket/checkout-service/internal/dto"
	"github.com/sokoticket/checkout-service/internal/models"
	"github.com/sokoticket/checkout-service/internal/monitoring"
	"github.com/sokoticket/checkout-service/pkg/rabbitmq"
	"go.uber.org/zap"
)

// NotificationDispatcher fires the confirmation message once an order is
// durably paid and ticketed. Delivery is best effort and never rolls the
// paid state back.
type NotificationDispatcher interface {
	SendConfirmation(order *models.Order, tickets []models.Ticket) error
}

type rabbitDispatcher struct {
	publisher *rabbitmq.Publisher
	logger    *zap.Logger
}

func NewRabbitDispatcher(publisher *rabbitmq.Publisher, logger *zap.Logger) NotificationDispatcher {
	return &rabbitDispatcher{publisher: publisher, logger: logger}
}

func (d *rabbitDispatcher) SendConfirmation(order *models.Order, tickets []models.Ticket) error {
	codes := make([]string, len(tickets))
	for i, t := range tickets {
		codes[i] = t.Code
	}

	msg := dto.ConfirmationMessage{
		OrderID:     order.ID,
		BuyerEmail:  order.BuyerEmail,
		EventID:     order.EventID,
		TotalAmount: order.TotalAmount,
		Currency:    order.Currency,
		TicketCodes: codes,
		PaidAt:      time.Now().UTC(),
	}

	if err := d.publisher.Publish("order.paid", msg); err != nil {
		monitoring.TrackNotification("publish_failed")
		d.logger.Error("confirmation publish failed",
			zap.String("order_id", order.ID),
			zap.Error(err),
		)
		return err
	}

	monitoring.TrackNotification("published")
	return nil
}
