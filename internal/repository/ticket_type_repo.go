package repository

import (
	"context"

	"github.com/sokoticket/checkout-service/internal/models"
	"gorm.io/gorm"
)

// TicketTypeRepository is the inventory ledger. CommitSale is the only write
// path for quantity_sold on the purchase side.
type TicketTypeRepository interface {
	Create(ctx context.Context, tt *models.TicketType) error
	FindByID(ctx context.Context, id uint) (*models.TicketType, error)
	FindByEventID(ctx context.Context, eventID uint) ([]models.TicketType, error)
	CommitSale(ctx context.Context, tx *gorm.DB, id uint, quantity int) (bool, error)
}

type ticketTypeRepository struct {
	db *gorm.DB
}

func NewTicketTypeRepository(db *gorm.DB) TicketTypeRepository {
	return &ticketTypeRepository{db: db}
}

func (r *ticketTypeRepository) Create(ctx context.Context, tt *models.TicketType) error {
	return r.db.WithContext(ctx).Create(tt).Error
}

func (r *ticketTypeRepository) FindByID(ctx context.Context, id uint) (*models.TicketType, error) {
	var tt models.TicketType
	if err := r.db.WithContext(ctx).First(&tt, id).Error; err != nil {
		return nil, err
	}
	return &tt, nil
}

func (r *ticketTypeRepository) FindByEventID(ctx context.Context, eventID uint) ([]models.TicketType, error) {
	var tts []models.TicketType
	if err := r.db.WithContext(ctx).Where("event_id = ?", eventID).Order("id ASC").Find(&tts).Error; err != nil {
		return nil, err
	}
	return tts, nil
}

// CommitSale applies the guarded increment: condition and update happen in a
// single statement, so two confirmations racing for the last units can never
// both pass. Returns false when capacity would be exceeded.
func (r *ticketTypeRepository) CommitSale(ctx context.Context, tx *gorm.DB, id uint, quantity int) (bool, error) {
	if tx == nil {
		tx = r.db
	}
	res := tx.WithContext(ctx).
		Model(&models.TicketType{}).
		Where("id = ? AND quantity_sold + ? <= quantity_total", id, quantity).
		UpdateColumn("quantity_sold", gorm.Expr("quantity_sold + ?", quantity))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
