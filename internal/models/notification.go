package models

import "time"

type NotificationStatus string

const (
	NotificationSent   NotificationStatus = "sent"
	NotificationFailed NotificationStatus = "failed"
)

// Notification is the delivery record the mailer worker writes for each
// confirmation message it picks up. Failures stay visible here for retry.
type Notification struct {
	ID        uint               `gorm:"primaryKey" json:"id"`
	OrderID   string             `gorm:"type:varchar(36);not null;index" json:"order_id"`
	Recipient string             `gorm:"not null" json:"recipient"`
	Status    NotificationStatus `gorm:"type:varchar(10);not null" json:"status"`
	Attempts  int                `gorm:"not null;default:0" json:"attempts"`
	LastError string             `json:"last_error,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}
