package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sokoticket/checkout-service/internal/dto"
	"github.com/sokoticket/checkout-service/internal/payment"
	"github.com/sokoticket/checkout-service/internal/service"
)

type CheckoutHandler struct {
	svc service.CheckoutService
}

func NewCheckoutHandler(svc service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{svc: svc}
}

func (h *CheckoutHandler) RegisterRoutes(e *echo.Echo, mw ...echo.MiddlewareFunc) {
	e.POST("/api/v1/checkout", h.Checkout, mw...)
}

func (h *CheckoutHandler) Checkout(c echo.Context) error {
	var req dto.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.EventID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "event_id is required")
	}
	if req.BuyerID == "" || req.BuyerEmail == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "buyer_id and buyer_email are required")
	}
	if !strings.Contains(req.BuyerEmail, "@") {
		return echo.NewHTTPError(http.StatusBadRequest, "buyer_email is not a valid email address")
	}
	if len(req.Items) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "at least one item is required")
	}

	resp, err := h.svc.Checkout(c.Request().Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEventNotFound),
			errors.Is(err, service.ErrTicketTypeNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrInvalidQuantity),
			errors.Is(err, service.ErrSalesClosed),
			errors.Is(err, service.ErrPhoneRequired),
			errors.Is(err, service.ErrCurrencyMismatch):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrInsufficientStock):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		case errors.Is(err, payment.ErrUnavailable):
			return echo.NewHTTPError(http.StatusBadGateway, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.JSON(http.StatusCreated, resp)
}
