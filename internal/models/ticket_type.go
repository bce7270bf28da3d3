package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TicketType is a priced admission category for an event. QuantitySold is
// only ever moved by the guarded increment in the repository, so
// 0 <= quantity_sold <= quantity_total holds at all times.
type TicketType struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	EventID       uint            `gorm:"not null;index" json:"event_id"`
	Name          string          `gorm:"not null" json:"name"`
	Price         decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	Currency      string          `gorm:"type:varchar(3);not null" json:"currency"`
	QuantityTotal int             `gorm:"not null" json:"quantity_total"`
	QuantitySold  int             `gorm:"not null;default:0" json:"quantity_sold"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (t *TicketType) Available() int {
	return t.QuantityTotal - t.QuantitySold
}
