package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "boostify_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "boostify_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	OrdersCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "boostify_orders_created_total",
			Help: "Total number of orders created",
		},
		[]string{"payment_method"},
	)

	OrderClaimsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "boostify_order_claims_total",
			Help: "Total number of order claim attempts",
		},
		[]string{"result"},
	)

	OrderSettlementsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "boostify_order_settlements_total",
			Help: "Total number of order settlements",
		},
		[]string{"outcome"},
	)

	EscrowOpenedCentsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "boostify_escrow_opened_cents_total",
			Help: "Total amount placed in escrow, in cents",
		},
	)

	WalletDepositsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "boostify_wallet_deposits_total",
			Help: "Total number of wallet deposits",
		},
	)

	CouponValidationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "boostify_coupon_validations_total",
			Help: "Total number of coupon validation requests",
		},
		[]string{"valid"},
	)

	EmailsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "boostify_emails_sent_total",
			Help: "Total number of emails sent",
		},
		[]string{"type", "status"},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordOrderCreated(paymentMethod string) {
	OrdersCreatedTotal.WithLabelValues(paymentMethod).Inc()
}

func RecordClaim(result string) {
	OrderClaimsTotal.WithLabelValues(result).Inc()
}

func RecordSettlement(outcome string) {
	OrderSettlementsTotal.WithLabelValues(outcome).Inc()
}

func RecordDeposit() {
	WalletDepositsTotal.Inc()
}

func RecordCouponValidation(valid bool) {
	if valid {
		CouponValidationsTotal.WithLabelValues("true").Inc()
	} else {
		CouponValidationsTotal.WithLabelValues("false").Inc()
	}
}

func RecordEmail(emailType, status string) {
	EmailsSentTotal.WithLabelValues(emailType, status).Inc()
}
