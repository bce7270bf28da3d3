package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sokoticket/checkout-service/internal/payment"
	"github.com/sokoticket/checkout-service/internal/service"
)

type WebhookHandler struct {
	confirmations service.ConfirmationService
}

func NewWebhookHandler(confirmations service.ConfirmationService) *WebhookHandler {
	return &WebhookHandler{confirmations: confirmations}
}

func (h *WebhookHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/api/v1/webhooks/:provider", h.Handle)
}

// Handle receives a provider-signed callback. 2xx is returned only after
// durable processing or an explicit idempotent no-op; anything else makes
// the provider retry.
func (h *WebhookHandler) Handle(c echo.Context) error {
	provider := payment.Provider(c.Param("provider"))

	payload, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable payload")
	}

	result, err := h.confirmations.HandleCallback(
		c.Request().Context(), provider, payload, signatureHeader(c, provider))
	if err != nil {
		switch {
		case errors.Is(err, payment.ErrSignature):
			return echo.NewHTTPError(http.StatusBadRequest, "signature verification failed")
		case errors.Is(err, service.ErrOrderNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "unknown order reference")
		case errors.Is(err, service.ErrInventoryConflict):
			// Payment is real but capacity was gone; the order is flagged
			// for refund. Acknowledge so the provider stops retrying.
			resp := map[string]string{"status": "conflict_flagged"}
			if result != nil && result.Order != nil {
				resp["order_id"] = result.Order.ID
			}
			return c.JSON(http.StatusOK, resp)
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	if !result.Applied {
		return c.JSON(http.StatusOK, map[string]string{"status": "ignored"})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"status":         "processed",
		"order_id":       result.Order.ID,
		"order_status":   result.Order.Status,
		"tickets_issued": len(result.Tickets),
	})
}

func signatureHeader(c echo.Context, provider payment.Provider) string {
	if provider == payment.ProviderStripe {
		return c.Request().Header.Get("Stripe-Signature")
	}
	return c.Request().Header.Get("X-Callback-Signature")
}
