package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BatchCyclesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "finwatch_batch_cycles_total",
		Help: "Total number of discover/pair/dispatch cycles run",
	})

	PairsProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "finwatch_pairs_processed_total",
		Help: "Total number of video pairs dispatched, by outcome",
	}, []string{"status"})

	PairProcessingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "finwatch_pair_processing_duration_seconds",
		Help:    "Wall time spent processing one video pair",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
	})

	EventsDetectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "finwatch_events_detected_total",
		Help: "Total number of events detected across all videos",
	})

	QRMarkersTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "finwatch_qr_markers_total",
		Help: "Total number of pairs in which the calibration marker was decoded",
	})

	ActivePairs = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "finwatch_active_pairs",
		Help: "Number of video pairs currently being processed",
	})
)
