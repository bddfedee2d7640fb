// Package observability provides Prometheus metrics for the simulation engines.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const defaultNamespace = "actus"

// Metrics holds all Prometheus metrics of the module. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	// Engine metrics
	SimulationsTotal   *prometheus.CounterVec
	SimulationDuration *prometheus.HistogramVec
	EventsProcessed    *prometheus.CounterVec
	UnhandledEvents    *prometheus.CounterVec

	// Kernel metrics
	KernelBatchesTotal  prometheus.Counter
	KernelLanes         prometheus.Counter
	KernelBatchDuration prometheus.Histogram

	// Store metrics
	StoreQueryDuration *prometheus.HistogramVec
	StoreQueryErrors   *prometheus.CounterVec
}

// NewMetrics creates the metrics and registers them on reg.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	if namespace == "" {
		namespace = defaultNamespace
	}
	f := promauto.With(reg)

	return &Metrics{
		SimulationsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "simulations_total",
			Help:      "Total number of contract simulations by contract type and status",
		}, []string{"contract_type", "status"}),
		SimulationDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "simulation_duration_seconds",
			Help:      "Contract simulation duration in seconds",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
		}, []string{"contract_type"}),
		EventsProcessed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "events_processed_total",
			Help:      "Total number of evaluated events by event type",
		}, []string{"event_type"}),
		UnhandledEvents: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "unhandled_events_total",
			Help:      "Events without a payoff function, evaluated as no-ops",
		}, []string{"contract_type", "event_type"}),

		KernelBatchesTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "kernel",
			Name:      "batches_total",
			Help:      "Total number of array-mode batches run",
		}),
		KernelLanes: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "kernel",
			Name:      "lanes_total",
			Help:      "Total number of contracts run in array mode",
		}),
		KernelBatchDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "kernel",
			Name:      "batch_duration_seconds",
			Help:      "Array-mode batch duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		StoreQueryDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "query_duration_seconds",
			Help:      "Store query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		StoreQueryErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "query_errors_total",
			Help:      "Total number of failed store queries",
		}, []string{"operation"}),
	}
}

// ObserveSimulation records one finished simulation.
func (m *Metrics) ObserveSimulation(contractType, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.SimulationsTotal.WithLabelValues(contractType, status).Inc()
	m.SimulationDuration.WithLabelValues(contractType).Observe(d.Seconds())
}

// ObserveEvent counts one evaluated event.
func (m *Metrics) ObserveEvent(eventType string) {
	if m == nil {
		return
	}
	m.EventsProcessed.WithLabelValues(eventType).Inc()
}

// ObserveUnhandled counts an event evaluated without a registered function.
func (m *Metrics) ObserveUnhandled(contractType, eventType string) {
	if m == nil {
		return
	}
	m.UnhandledEvents.WithLabelValues(contractType, eventType).Inc()
}

// ObserveBatch records one kernel batch.
func (m *Metrics) ObserveBatch(lanes int, d time.Duration) {
	if m == nil {
		return
	}
	m.KernelBatchesTotal.Inc()
	m.KernelLanes.Add(float64(lanes))
	m.KernelBatchDuration.Observe(d.Seconds())
}

// ObserveQuery records one store query.
func (m *Metrics) ObserveQuery(operation string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.StoreQueryDuration.WithLabelValues(operation).Observe(d.Seconds())
	if err != nil {
		m.StoreQueryErrors.WithLabelValues(operation).Inc()
	}
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
