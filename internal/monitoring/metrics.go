package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ordersCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_orders_created_total",
			Help: "Pending orders created at checkout initiation",
		},
		[]string{"provider"},
	)

	paymentEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_events_total",
			Help: "Verified payment events by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)

	signatureRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_signature_rejections_total",
			Help: "Webhook payloads rejected for bad signatures",
		},
		[]string{"provider"},
	)

	ticketsIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tickets_issued_total",
			Help: "Individual tickets issued",
		},
	)

	inventoryConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "inventory_conflicts_total",
			Help: "Paid orders whose inventory commit was rejected; each needs a manual refund",
		},
	)

	notifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "confirmation_notifications_total",
			Help: "Confirmation messages by publish/delivery status",
		},
		[]string{"status"},
	)

	ordersSwept = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "orders_swept_total",
			Help: "Stale pending orders cancelled by the sweeper",
		},
	)
)

func TrackOrderCreated(provider string)       { ordersCreated.WithLabelValues(provider).Inc() }
func TrackPaymentEvent(provider, outcome string) {
	paymentEvents.WithLabelValues(provider, outcome).Inc()
}
func TrackSignatureRejection(provider string) { signatureRejections.WithLabelValues(provider).Inc() }
func TrackTicketsIssued(n int)                { ticketsIssued.Add(float64(n)) }
func TrackInventoryConflict()                 { inventoryConflicts.Inc() }
func TrackNotification(status string)         { notifications.WithLabelValues(status).Inc() }
func TrackOrdersSwept(n int64)                { ordersSwept.Add(float64(n)) }
