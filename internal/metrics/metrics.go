// Package metrics holds the Prometheus collectors shared across the
// simulator's station connections, ATG engine and worker command bus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ActiveStations tracks how many simulated stations this process has
	// registered; cmd/simulator increments it once per station at startup.
	ActiveStations = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "simulator_active_stations",
		Help: "The total number of simulated stations registered by this process.",
	})

	// OCPPRequestsSent is the counter for outbound OCPP requests, labeled by
	// action and outcome (accepted/rejected/error). Nothing in this
	// repository increments it.
	OCPPRequestsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "simulator_ocpp_requests_sent_total",
		Help: "Total number of OCPP requests sent to the CSMS.",
	}, []string{"action", "outcome"})

	// OCPPRequestDuration observes the duration of every perfstats
	// measurement (the ATG start/stop brackets and each dispatched worker
	// command); its "action" label carries the measurement id.
	OCPPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "simulator_ocpp_request_duration_seconds",
		Help:    "Histogram of OCPP request round-trip times.",
		Buckets: prometheus.DefBuckets,
	}, []string{"action"})

	// ATGTransactionsStarted counts transactions started by the Automatic
	// Transaction Generator, labeled by station hashId.
	ATGTransactionsStarted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "simulator_atg_transactions_started_total",
		Help: "Total number of transactions started by the ATG.",
	}, []string{"hash_id"})

	// ATGTransactionsStopped counts transactions stopped by the Automatic
	// Transaction Generator, labeled by station hashId.
	ATGTransactionsStopped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "simulator_atg_transactions_stopped_total",
		Help: "Total number of transactions stopped by the ATG.",
	}, []string{"hash_id"})

	// ATGSkippedCycles counts ATG loop iterations that drew the probability
	// check and chose not to start a transaction.
	ATGSkippedCycles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "simulator_atg_skipped_cycles_total",
		Help: "Total number of ATG iterations that skipped starting a transaction.",
	}, []string{"hash_id"})

	// CommandsDispatched counts worker-channel command envelopes handled,
	// labeled by procedure name and outcome status.
	CommandsDispatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "simulator_commands_dispatched_total",
		Help: "Total number of worker channel commands dispatched.",
	}, []string{"command", "status"})
)

// RegisterMetrics is a conceptual placeholder: promauto registers every
// collector above at package init time.
func RegisterMetrics() {}
