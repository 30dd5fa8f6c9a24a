// Package metrics declares the prometheus collectors for alignment
// sessions and HTTP traffic. Collectors register with the default registry.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Step modes.
const (
	ModeStep   = "step"
	ModeFinish = "finish"
)

var (
	// StepsTotal counts filled cells by how they were filled
	StepsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stepalign_steps_total",
		Help: "Matrix cells filled, by mode",
	}, []string{"mode"})

	// UndoTotal counts reverted cells
	UndoTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stepalign_undo_total",
		Help: "Matrix cells reverted by undo",
	})

	// FinishDuration tracks bulk-fill latency
	FinishDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "stepalign_finish_duration_seconds",
		Help:    "Time spent completing a matrix",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14), // 0.1ms to ~800ms
	})

	// AlignmentsEnumerated tracks how many optimal alignments one query returned
	AlignmentsEnumerated = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "stepalign_alignments_enumerated",
		Help:    "Optimal alignments returned per enumeration",
		Buckets: []float64{1, 2, 5, 10, 20, 50, 100, 500},
	})

	// SessionsActive is the number of live sessions in the store
	SessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "stepalign_sessions_active",
		Help: "Sessions currently held by the server",
	})

	// HTTPRequestsTotal counts requests by route pattern and status
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stepalign_http_requests_total",
		Help: "HTTP requests by method, route and status",
	}, []string{"method", "route", "status"})
)

// ObserveSteps records n cells filled in mode.
func ObserveSteps(mode string, n int) {
	if n > 0 {
		StepsTotal.WithLabelValues(mode).Add(float64(n))
	}
}

// ObserveFinish records a bulk fill that took d and filled n cells.
func ObserveFinish(d time.Duration, n int) {
	FinishDuration.Observe(d.Seconds())
	ObserveSteps(ModeFinish, n)
}

// ObserveRequest records one served HTTP request.
func ObserveRequest(method, route string, status int) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}
