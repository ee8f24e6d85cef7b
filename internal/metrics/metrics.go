// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "academy_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "academy_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	PaymentIntentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "academy_payment_intents_total",
			Help: "Payment transactions opened with the provider, by result",
		},
		[]string{"result"},
	)

	WebhookDeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "academy_webhook_deliveries_total",
			Help: "Payment webhook deliveries, by outcome",
		},
		[]string{"outcome"},
	)

	RegistrationsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "academy_registrations_created_total",
			Help: "Registrations materialized from confirmed payments",
		},
		[]string{"payment_status"},
	)

	RegistrationsOverbookedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "academy_registrations_overbooked_total",
			Help: "Registrations created while the training was already full",
		},
	)
)

// RecordHTTPRequest records one served request.
func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordPaymentIntent(result string) {
	PaymentIntentsTotal.WithLabelValues(result).Inc()
}

func RecordWebhookDelivery(outcome string) {
	WebhookDeliveriesTotal.WithLabelValues(outcome).Inc()
}

func RecordRegistration(paymentStatus string, overbooked bool) {
	RegistrationsCreatedTotal.WithLabelValues(paymentStatus).Inc()
	if overbooked {
		RegistrationsOverbookedTotal.Inc()
	}
}
