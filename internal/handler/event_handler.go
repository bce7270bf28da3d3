package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/sokoticket/checkout-service/internal/dto"
	"github.com/sokoticket/checkout-service/internal/models"
	"github.com/sokoticket/checkout-service/internal/service"
)

type EventHandler struct {
	events service.EventService
}

func NewEventHandler(events service.EventService) *EventHandler {
	return &EventHandler{events: events}
}

func (h *EventHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/api/v1/events", h.CreateEvent)
	e.GET("/api/v1/events", h.ListEvents)
	e.GET("/api/v1/events/:id", h.GetEvent)
	e.POST("/api/v1/events/:id/ticket-types", h.CreateTicketType)
	e.GET("/api/v1/events/:id/ticket-types", h.ListTicketTypes)
}

func (h *EventHandler) CreateEvent(c echo.Context) error {
	var req dto.CreateEventRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Name == "" || req.OrganizerID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name and organizer_id are required")
	}
	if !req.SalesEndAt.IsZero() && req.SalesEndAt.Before(req.SalesOpenAt) {
		return echo.NewHTTPError(http.StatusBadRequest, "sales_end_at must be after sales_open_at")
	}

	event := &models.Event{
		OrganizerID: req.OrganizerID,
		Name:        req.Name,
		Venue:       req.Venue,
		StartsAt:    req.StartsAt,
		SalesOpenAt: req.SalesOpenAt,
		SalesEndAt:  req.SalesEndAt,
	}
	if err := h.events.CreateEvent(c.Request().Context(), event); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, event)
}

func (h *EventHandler) ListEvents(c echo.Context) error {
	events, err := h.events.ListEvents(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, events)
}

func (h *EventHandler) GetEvent(c echo.Context) error {
	id, err := parseID(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid event id")
	}

	event, err := h.events.GetEvent(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrEventNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "event not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, event)
}

func (h *EventHandler) CreateTicketType(c echo.Context) error {
	eventID, err := parseID(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid event id")
	}

	var req dto.CreateTicketTypeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Name == "" || req.Currency == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name and currency are required")
	}

	tt := &models.TicketType{
		EventID:       eventID,
		Name:          req.Name,
		Price:         req.Price,
		Currency:      req.Currency,
		QuantityTotal: req.QuantityTotal,
	}
	if err := h.events.CreateTicketType(c.Request().Context(), tt); err != nil {
		switch {
		case errors.Is(err, service.ErrEventNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "event not found")
		case errors.Is(err, service.ErrInvalidQuantity):
			return echo.NewHTTPError(http.StatusBadRequest, "quantity_total must be positive")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.JSON(http.StatusCreated, tt)
}

func (h *EventHandler) ListTicketTypes(c echo.Context) error {
	eventID, err := parseID(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid event id")
	}

	types, err := h.events.ListTicketTypes(c.Request().Context(), eventID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, types)
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
