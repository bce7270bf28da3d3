package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderPaid      OrderStatus = "paid"
	OrderFailed    OrderStatus = "failed"
	OrderCancelled OrderStatus = "cancelled"
)

// Order tracks a buyer's purchase through the payment lifecycle.
// Transitions are monotonic: pending -> {paid, failed, cancelled}, applied
// only through the guarded updates in the order repository.
type Order struct {
	ID          string          `gorm:"primaryKey;type:varchar(36)" json:"id"`
	BuyerID     string          `gorm:"not null;index" json:"buyer_id"`
	BuyerEmail  string          `gorm:"not null" json:"buyer_email"`
	BuyerPhone  string          `json:"buyer_phone,omitempty"`
	EventID     uint            `gorm:"not null;index" json:"event_id"`
	TotalAmount decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total_amount"`
	Currency    string          `gorm:"type:varchar(3);not null" json:"currency"`
	Status      OrderStatus     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`

	// Payment correlation written when the provider session is opened.
	Provider           string `gorm:"type:varchar(20)" json:"provider"`
	ProviderSessionRef string `gorm:"index" json:"provider_session_ref,omitempty"`
	PaymentIntentID    string `json:"payment_intent_id,omitempty"`

	// Set when an inventory commit was rejected after the provider already
	// confirmed payment; such orders wait in the operator refund queue.
	NeedsReview  bool   `gorm:"not null;default:false" json:"needs_review"`
	ReviewReason string `json:"review_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`
}

// OrderItem is a line of an order. UnitPrice is the authoritative
// price-at-purchase copied from the ticket type, never the client's value.
type OrderItem struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	OrderID      string          `gorm:"type:varchar(36);not null;index" json:"order_id"`
	TicketTypeID uint            `gorm:"not null" json:"ticket_type_id"`
	Quantity     int             `gorm:"not null" json:"quantity"`
	UnitPrice    decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"unit_price"`
	LineTotal    decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"line_total"`
}

// TotalQuantity is the number of tickets the order should yield once paid.
func (o *Order) TotalQuantity() int {
	n := 0
	for _, it := range o.Items {
		n += it.Quantity
	}
	return n
}
