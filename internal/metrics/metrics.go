package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eshop_orders_created_total",
		Help: "Orders created, by payment mode.",
	}, []string{"mode"})

	WebhookDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eshop_webhook_deliveries_total",
		Help: "Gateway webhook deliveries, by outcome.",
	}, []string{"outcome"})

	StockRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "eshop_stock_rejections_total",
		Help: "Reservations rejected by the stock floor check.",
	})
)

const (
	WebhookOutcomeProcessed = "processed"
	WebhookOutcomeDuplicate = "duplicate"
	WebhookOutcomeIgnored   = "ignored"
	WebhookOutcomeRejected  = "rejected"
	WebhookOutcomeFailed    = "failed"
)
