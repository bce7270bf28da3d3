package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type CheckoutItem struct {
	TicketTypeID uint `json:"ticket_type_id"`
	Quantity     int  `json:"quantity"`
}

// CheckoutRequest initiates an order. Any price the client might send is
// ignored; totals come from the ticket-type table.
type CheckoutRequest struct {
	EventID    uint           `json:"event_id"`
	BuyerID    string         `json:"buyer_id"`
	BuyerEmail string         `json:"buyer_email"`
	BuyerPhone string         `json:"buyer_phone,omitempty"`
	Provider   string         `json:"provider"`
	Items      []CheckoutItem `json:"items"`
}

type CreateEventRequest struct {
	OrganizerID string    `json:"organizer_id"`
	Name        string    `json:"name"`
	Venue       string    `json:"venue"`
	StartsAt    time.Time `json:"starts_at"`
	SalesOpenAt time.Time `json:"sales_open_at"`
	SalesEndAt  time.Time `json:"sales_end_at"`
}

type CreateTicketTypeRequest struct {
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	Currency      string          `json:"currency"`
	QuantityTotal int             `json:"quantity_total"`
}
