package dto

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/sokoticket/checkout-service/internal/models"
)

// CheckoutResponse carries whichever handle the provider gave us: a redirect
// URL for card checkouts, a provider reference for request-to-pay.
type CheckoutResponse struct {
	OrderID     string             `json:"order_id"`
	Status      models.OrderStatus `json:"status"`
	Provider    string             `json:"provider"`
	RedirectURL string             `json:"redirect_url,omitempty"`
	ProviderRef string             `json:"provider_ref,omitempty"`
	TotalAmount decimal.Decimal    `json:"total_amount"`
	Currency    string             `json:"currency"`
}

type OrderItemResponse struct {
	TicketTypeID uint            `json:"ticket_type_id"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	LineTotal    decimal.Decimal `json:"line_total"`
}

type OrderResponse struct {
	ID           string              `json:"id"`
	BuyerID      string              `json:"buyer_id"`
	EventID      uint                `json:"event_id"`
	Status       models.OrderStatus  `json:"status"`
	TotalAmount  decimal.Decimal     `json:"total_amount"`
	Currency     string              `json:"currency"`
	Provider     string              `json:"provider"`
	NeedsReview  bool                `json:"needs_review,omitempty"`
	ReviewReason string              `json:"review_reason,omitempty"`
	Items        []OrderItemResponse `json:"items"`
	CreatedAt    time.Time           `json:"created_at"`
}

type TicketResponse struct {
	Code         string              `json:"code"`
	TicketTypeID uint                `json:"ticket_type_id"`
	SeqNo        int                 `json:"seq_no"`
	Status       models.TicketStatus `json:"status"`
}

type ErrorResponse struct {
	Message string `json:"message"`
}

func ToOrderResponse(o *models.Order) OrderResponse {
	items := make([]OrderItemResponse, len(o.Items))
	for i, it := range o.Items {
		items[i] = OrderItemResponse{
			TicketTypeID: it.TicketTypeID,
			Quantity:     it.Quantity,
			UnitPrice:    it.UnitPrice,
			LineTotal:    it.LineTotal,
		}
	}
	return OrderResponse{
		ID:           o.ID,
		BuyerID:      o.BuyerID,
		EventID:      o.EventID,
		Status:       o.Status,
		TotalAmount:  o.TotalAmount,
		Currency:     o.Currency,
		Provider:     o.Provider,
		NeedsReview:  o.NeedsReview,
		ReviewReason: o.ReviewReason,
		Items:        items,
		CreatedAt:    o.CreatedAt,
	}
}

func ToTicketResponse(t *models.Ticket) TicketResponse {
	return TicketResponse{
		Code:         t.Code,
		TicketTypeID: t.TicketTypeID,
		SeqNo:        t.SeqNo,
		Status:       t.Status,
	}
}
