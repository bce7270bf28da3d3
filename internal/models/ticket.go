package models

import "time"

type TicketStatus string

const (
	TicketActive TicketStatus = "active"
	TicketUsed   TicketStatus = "used"
	TicketVoid   TicketStatus = "void"
)

// Ticket is one issued admission unit. SeqNo is the position of the ticket
// within its order (1..n); the unique index on (order_id, seq_no) is what
// makes re-running issuance for the same order a no-op.
type Ticket struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	OrderID      string       `gorm:"type:varchar(36);not null;index" json:"order_id"`
	TicketTypeID uint         `gorm:"not null" json:"ticket_type_id"`
	SeqNo        int          `gorm:"not null" json:"seq_no"`
	Code         string       `gorm:"type:varchar(36);not null;uniqueIndex" json:"code"`
	Status       TicketStatus `gorm:"type:varchar(10);not null;default:'active'" json:"status"`
	CreatedAt    time.Time    `json:"created_at"`
}
