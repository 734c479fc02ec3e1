// Package metrics defines Prometheus collectors for ledger activity.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application-level Prometheus collectors.
type Metrics struct {
	MovementsRecorded *prometheus.CounterVec
	MovementAmount    *prometheus.HistogramVec

	ConversionsCompleted prometheus.Counter
	ConversionsRejected  prometheus.Counter
	ConversionAmount     prometheus.Histogram

	FeesCreated   prometheus.Counter
	FeesCollected prometheus.Counter
	FeesCancelled prometheus.Counter
	FeeAmount     prometheus.Histogram
}

// New creates and registers all metrics with the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		MovementsRecorded: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_movements_recorded_total",
				Help: "Total number of movements recorded, by kind.",
			},
			[]string{"kind"},
		),
		MovementAmount: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ledger_movement_amount",
				Help:    "Distribution of movement amounts, by currency.",
				Buckets: prometheus.ExponentialBuckets(100, 10, 7),
			},
			[]string{"currency"},
		),
		ConversionsCompleted: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "ledger_conversions_completed_total",
				Help: "Total number of completed currency conversions.",
			},
		),
		ConversionsRejected: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "ledger_conversions_rejected_total",
				Help: "Total number of rejected currency conversions.",
			},
		),
		ConversionAmount: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ledger_conversion_amount",
				Help:    "Distribution of conversion source amounts.",
				Buckets: prometheus.ExponentialBuckets(100, 10, 7),
			},
		),
		FeesCreated: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "ledger_fees_created_total",
				Help: "Total number of administration fees created.",
			},
		),
		FeesCollected: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "ledger_fees_collected_total",
				Help: "Total number of administration fees collected.",
			},
		),
		FeesCancelled: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "ledger_fees_cancelled_total",
				Help: "Total number of administration fees cancelled.",
			},
		),
		FeeAmount: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ledger_fee_amount",
				Help:    "Distribution of collected fee amounts.",
				Buckets: prometheus.ExponentialBuckets(10, 10, 7),
			},
		),
	}
}
