package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects the operational counters the watch loop and the
// webhook path report. One instance is shared through the container.
type Metrics struct {
	WatchCyclesTotal      *prometheus.CounterVec
	WatchCycleErrorsTotal *prometheus.CounterVec
	WatchCycleDuration    *prometheus.HistogramVec
	DepositsObservedTotal *prometheus.CounterVec
	DepositsConfirmed     *prometheus.CounterVec
	AnomaliesFlaggedTotal *prometheus.CounterVec
	WebhookEventsTotal    *prometheus.CounterVec
	CreditsAppliedTotal   prometheus.Counter
	DebitsAppliedTotal    prometheus.Counter
}

func New(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)

	return &Metrics{
		WatchCyclesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "paycore_watch_cycles_total",
			Help: "Completed watch cycles per chain.",
		}, []string{"chain"}),
		WatchCycleErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "paycore_watch_cycle_errors_total",
			Help: "Failed watch cycles per chain.",
		}, []string{"chain"}),
		WatchCycleDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "paycore_watch_cycle_duration_seconds",
			Help:    "Watch cycle latency per chain.",
			Buckets: prometheus.DefBuckets,
		}, []string{"chain"}),
		DepositsObservedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "paycore_deposits_observed_total",
			Help: "New deposit observations recorded per chain.",
		}, []string{"chain"}),
		DepositsConfirmed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "paycore_deposits_confirmed_total",
			Help: "Deposits confirmed and credited per chain.",
		}, []string{"chain"}),
		AnomaliesFlaggedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "paycore_deposit_anomalies_total",
			Help: "Confirmed deposits flagged missing from the chain view.",
		}, []string{"chain"}),
		WebhookEventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "paycore_processor_webhook_events_total",
			Help: "Processor webhook deliveries by result.",
		}, []string{"result"}),
		CreditsAppliedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "paycore_balance_credits_applied_total",
			Help: "Balance credits applied across all sources.",
		}),
		DebitsAppliedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "paycore_balance_debits_applied_total",
			Help: "Balance debits applied.",
		}),
	}
}
