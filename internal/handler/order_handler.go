package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sokoticket/checkout-service/internal/dto"
	"github.com/sokoticket/checkout-service/internal/models"
	"github.com/sokoticket/checkout-service/internal/repository"
	"gorm.io/gorm"
)

// OrderHandler is the read side: buyers list their orders and ticket codes,
// operators list the refund queue.
type OrderHandler struct {
	orders  repository.OrderRepository
	tickets repository.TicketRepository
}

func NewOrderHandler(orders repository.OrderRepository, tickets repository.TicketRepository) *OrderHandler {
	return &OrderHandler{orders: orders, tickets: tickets}
}

func (h *OrderHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/v1/orders/:id", h.GetOrder)
	e.GET("/api/v1/orders/:id/tickets", h.GetOrderTickets)
	e.GET("/api/v1/buyers/:buyerID/orders", h.ListBuyerOrders)
	e.GET("/api/v1/admin/orders/review", h.ListReviewQueue)
}

func (h *OrderHandler) GetOrder(c echo.Context) error {
	order, err := h.orders.FindByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "order not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, dto.ToOrderResponse(order))
}

func (h *OrderHandler) GetOrderTickets(c echo.Context) error {
	ctx := c.Request().Context()
	orderID := c.Param("id")

	order, err := h.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "order not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if order.Status != models.OrderPaid {
		return c.JSON(http.StatusOK, []dto.TicketResponse{})
	}

	tickets, err := h.tickets.FindByOrder(ctx, nil, orderID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	resp := make([]dto.TicketResponse, len(tickets))
	for i, t := range tickets {
		resp[i] = dto.ToTicketResponse(&t)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *OrderHandler) ListBuyerOrders(c echo.Context) error {
	orders, err := h.orders.FindByBuyer(c.Request().Context(), c.Param("buyerID"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	resp := make([]dto.OrderResponse, len(orders))
	for i, o := range orders {
		resp[i] = dto.ToOrderResponse(&o)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *OrderHandler) ListReviewQueue(c echo.Context) error {
	orders, err := h.orders.ListNeedsReview(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	resp := make([]dto.OrderResponse, len(orders))
	for i, o := range orders {
		resp[i] = dto.ToOrderResponse(&o)
	}
	return c.JSON(http.StatusOK, resp)
}
