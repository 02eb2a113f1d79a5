// Package telemetry exposes Prometheus counters for journal activity.
// Metrics are registered on the default registry so the /metrics handler
// picks them up without extra wiring.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	matchesCreatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scorekeeper_matches_created_total",
		Help: "Total matches created",
	})
	pointsRecordedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scorekeeper_points_recorded_total",
		Help: "Total points recorded, by winning side",
	}, []string{"side"})
	undosTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scorekeeper_undos_total",
		Help: "Total undo markers appended",
	})
	annotationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scorekeeper_annotations_total",
		Help: "Total point annotations appended",
	})
	replayEvents = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "scorekeeper_replay_events",
		Help:    "Distribution of journal lengths replayed per state rebuild",
		Buckets: []float64{1, 2, 4, 8, 16, 32, 64, 128, 256, 512, 1024},
	})
)

func init() {
	prometheus.MustRegister(matchesCreatedTotal, pointsRecordedTotal, undosTotal, annotationsTotal, replayEvents)
}

// RecordMatchCreated increments the created-matches counter.
func RecordMatchCreated() {
	matchesCreatedTotal.Inc()
}

// RecordPointWon increments the points counter for the given side label.
func RecordPointWon(side string) {
	pointsRecordedTotal.WithLabelValues(side).Inc()
}

// RecordUndo increments the undo counter.
func RecordUndo() {
	undosTotal.Inc()
}

// RecordAnnotation increments the annotation counter.
func RecordAnnotation() {
	annotationsTotal.Inc()
}

// RecordReplay observes the number of journal events folded in one rebuild.
func RecordReplay(eventCount int) {
	replayEvents.Observe(float64(eventCount))
}
