package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sokoticket/checkout-service/internal/models"
	"github.com/sokoticket/checkout-service/internal/repository"
	"github.com/sokoticket/checkout-service/pkg/rabbitmq"
	"gorm.io/gorm"
)

type EventService interface {
	CreateEvent(ctx context.Context, event *models.Event) error
	GetEvent(ctx context.Context, id uint) (*models.Event, error)
	ListEvents(ctx context.Context) ([]models.Event, error)
	CreateTicketType(ctx context.Context, tt *models.TicketType) error
	ListTicketTypes(ctx context.Context, eventID uint) ([]models.TicketType, error)
}

type eventService struct {
	events      repository.EventRepository
	ticketTypes repository.TicketTypeRepository
	publisher   *rabbitmq.Publisher
}

func NewEventService(events repository.EventRepository, ticketTypes repository.TicketTypeRepository, publisher *rabbitmq.Publisher) EventService {
	return &eventService{events: events, ticketTypes: ticketTypes, publisher: publisher}
}

func (s *eventService) CreateEvent(ctx context.Context, event *models.Event) error {
	if err := s.events.Create(ctx, event); err != nil {
		return fmt.Errorf("create event: %w", err)
	}

	if s.publisher != nil {
		_ = s.publisher.Publish("event.created", event)
	}

	return nil
}

func (s *eventService) GetEvent(ctx context.Context, id uint) (*models.Event, error) {
	event, err := s.events.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return event, nil
}

func (s *eventService) ListEvents(ctx context.Context) ([]models.Event, error) {
	return s.events.FindAll(ctx)
}

func (s *eventService) CreateTicketType(ctx context.Context, tt *models.TicketType) error {
	if tt.QuantityTotal <= 0 {
		return ErrInvalidQuantity
	}
	if tt.Price.IsNegative() {
		return fmt.Errorf("ticket type price must not be negative")
	}

	if _, err := s.events.FindByID(ctx, tt.EventID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEventNotFound
		}
		return err
	}

	if err := s.ticketTypes.Create(ctx, tt); err != nil {
		return fmt.Errorf("create ticket type: %w", err)
	}
	return nil
}

func (s *eventService) ListTicketTypes(ctx context.Context, eventID uint) ([]models.TicketType, error) {
	return s.ticketTypes.FindByEventID(ctx, eventID)
}
