package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ConfirmationMessage is published to RabbitMQ once an order is durably paid
// and ticketed; the mailer worker consumes it.
type ConfirmationMessage struct {
	OrderID     string          `json:"order_id"`
	BuyerEmail  string          `json:"buyer_email"`
	EventID     uint            `json:"event_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Currency    string          `json:"currency"`
	TicketCodes []string        `json:"ticket_codes"`
	PaidAt      time.Time       `json:"paid_at"`
}
