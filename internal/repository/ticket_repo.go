package repository

import (
	"context"

	"github.com/sokoticket/checkout-service/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TicketRepository interface {
	// CreateBatch inserts with ON CONFLICT DO NOTHING on (order_id,
	// seq_no), so a retried issuance cannot duplicate tickets.
	CreateBatch(ctx context.Context, tx *gorm.DB, tickets []models.Ticket) error
	FindByOrder(ctx context.Context, tx *gorm.DB, orderID string) ([]models.Ticket, error)
	CountByOrder(ctx context.Context, tx *gorm.DB, orderID string) (int64, error)
}

type ticketRepository struct {
	db *gorm.DB
}

func NewTicketRepository(db *gorm.DB) TicketRepository {
	return &ticketRepository{db: db}
}

func (r *ticketRepository) CreateBatch(ctx context.Context, tx *gorm.DB, tickets []models.Ticket) error {
	if len(tickets) == 0 {
		return nil
	}
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "order_id"}, {Name: "seq_no"}},
			DoNothing: true,
		}).
		Create(&tickets).Error
}

func (r *ticketRepository) FindByOrder(ctx context.Context, tx *gorm.DB, orderID string) ([]models.Ticket, error) {
	if tx == nil {
		tx = r.db
	}
	var tickets []models.Ticket
	err := tx.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("seq_no ASC").
		Find(&tickets).Error
	if err != nil {
		return nil, err
	}
	return tickets, nil
}

func (r *ticketRepository) CountByOrder(ctx context.Context, tx *gorm.DB, orderID string) (int64, error) {
	if tx == nil {
		tx = r.db
	}
	var count int64
	err := tx.WithContext(ctx).
		Model(&models.Ticket{}).
		Where("order_id = ?", orderID).
		Count(&count).Error
	return count, err
}
