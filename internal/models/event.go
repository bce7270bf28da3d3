package models

import "time"

type Event struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	OrganizerID string    `gorm:"not null;index" json:"organizer_id"`
	Name        string    `gorm:"not null" json:"name"`
	Venue       string    `json:"venue"`
	StartsAt    time.Time `gorm:"not null" json:"starts_at"`
	SalesOpenAt time.Time `gorm:"not null" json:"sales_open_at"`
	SalesEndAt  time.Time `gorm:"not null" json:"sales_end_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	TicketTypes []TicketType `gorm:"foreignKey:EventID" json:"ticket_types,omitempty"`
}
