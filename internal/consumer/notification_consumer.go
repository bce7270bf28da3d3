package consumer

import (
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sokoticket/checkout-service/internal/dto"
	"github.com/sokoticket/checkout-service/internal/models"
	"github.com/sokoticket/checkout-service/internal/monitoring"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Mailer delivers a confirmation to the buyer. The smtp implementation lives
// behind this so tests can swap in a recorder.
type Mailer interface {
	SendConfirmation(msg dto.ConfirmationMessage) error
}

// LogMailer is the default when no SMTP relay is configured: it logs the
// delivery instead of sending it. Useful in development and CI.
type LogMailer struct {
	Logger *zap.Logger
}

func (m *LogMailer) SendConfirmation(msg dto.ConfirmationMessage) error {
	m.Logger.Info("confirmation email (log mailer)",
		zap.String("order_id", msg.OrderID),
		zap.String("recipient", msg.BuyerEmail),
		zap.Int("tickets", len(msg.TicketCodes)))
	return nil
}

// NotificationConsumer drains the confirmation queue, hands each message to
// the mailer, and records the delivery outcome.
type NotificationConsumer struct {
	db     *gorm.DB
	mailer Mailer
	logger *zap.Logger
}

func NewNotificationConsumer(db *gorm.DB, mailer Mailer, logger *zap.Logger) *NotificationConsumer {
	return &NotificationConsumer{db: db, mailer: mailer, logger: logger}
}

func (nc *NotificationConsumer) Start(msgs <-chan amqp.Delivery) {
	go func() {
		for msg := range msgs {
			nc.handleMessage(msg)
		}
		nc.logger.Info("notification channel closed, stopping consumer")
	}()
}

func (nc *NotificationConsumer) handleMessage(msg amqp.Delivery) {
	var confirmation dto.ConfirmationMessage
	if err := json.Unmarshal(msg.Body, &confirmation); err != nil {
		nc.logger.Error("malformed confirmation message", zap.Error(err))
		msg.Nack(false, false)
		return
	}

	record := models.Notification{
		OrderID:   confirmation.OrderID,
		Recipient: confirmation.BuyerEmail,
		Attempts:  1,
	}

	if err := nc.mailer.SendConfirmation(confirmation); err != nil {
		record.Status = models.NotificationFailed
		record.LastError = err.Error()
		monitoring.TrackNotification("failed")
		nc.logger.Error("confirmation delivery failed",
			zap.String("order_id", confirmation.OrderID),
			zap.Error(err))
	} else {
		record.Status = models.NotificationSent
		monitoring.TrackNotification("sent")
	}

	if err := nc.db.Create(&record).Error; err != nil {
		nc.logger.Error("failed to persist notification record",
			zap.String("order_id", confirmation.OrderID),
			zap.Error(err))
		msg.Nack(false, true)
		return
	}

	msg.Ack(false)
}
