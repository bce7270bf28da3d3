package database

import (
	"log"

	"github.com/sokoticket/checkout-service/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewPostgresDB(dsn string) *gorm.DB {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Event{},
		&models.TicketType{},
		&models.Order{},
		&models.OrderItem{},
		&models.Ticket{},
		&models.Notification{},
	); err != nil {
		log.Fatalf("failed to auto-migrate: %v", err)
	}

	// Unique index: re-running issuance for an order inserts nothing new.
	db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_ticket_order_seq
		ON tickets (order_id, seq_no)
	`)

	// Backstop for the guarded increment; the counters can never cross.
	db.Exec(`
		DO $$ BEGIN
			ALTER TABLE ticket_types
			ADD CONSTRAINT chk_ticket_type_sold
			CHECK (quantity_sold >= 0 AND quantity_sold <= quantity_total);
		EXCEPTION WHEN duplicate_object THEN NULL;
		END $$
	`)

	return db
}
