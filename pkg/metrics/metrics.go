package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Engine-level counters. Registered on the default registry and exposed on
// /metrics by the HTTP server.
var (
	ReserveTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "inventory",
		Name:      "reserve_requests_total",
		Help:      "Reserve calls by outcome (success, insufficient_stock, error).",
	}, []string{"outcome"})

	TransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "inventory",
		Name:      "reservation_transitions_total",
		Help:      "Reservation state transitions by target status.",
	}, []string{"status"})

	ExpiredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "inventory",
		Name:      "reservations_expired_total",
		Help:      "Reservations expired by the background sweep.",
	})

	LedgerAppendsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "inventory",
		Name:      "ledger_appends_total",
		Help:      "Stock ledger appends by ref type.",
	}, []string{"ref_type"})

	NegativeOnHand = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "inventory",
		Name:      "negative_on_hand_observed_total",
		Help:      "Ledger appends that left on-hand negative (data-quality signal).",
	})
)
