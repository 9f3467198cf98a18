// Package observability exposes kernel metrics, tracing setup and the HTTP
// surface (/metrics, /healthz, /control) used when a simulation runs as a
// service.
package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	stepsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chs_kernel_steps_total",
			Help: "Total number of completed simulation steps",
		},
	)

	stepDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chs_kernel_step_duration_seconds",
			Help:    "Wall-clock duration of one simulation step",
			Buckets: prometheus.DefBuckets,
		},
	)

	messagesPublished = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chs_bus_messages_published_total",
			Help: "Total number of messages published to the bus",
		},
	)

	messagesDelivered = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chs_bus_messages_delivered_total",
			Help: "Total number of message deliveries to subscriber queues",
		},
	)

	agentFaults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chs_agent_faults_total",
			Help: "Total number of boundary-caught agent faults",
		},
		[]string{"phase"},
	)

	liveAgents = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "chs_agents_live",
			Help: "Number of agents currently eligible for step invocations",
		},
	)
)

var registerOnce sync.Once

// InitMetrics registers the kernel metrics with the default registry.
// Safe to call more than once.
func InitMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			stepsTotal,
			stepDuration,
			messagesPublished,
			messagesDelivered,
			agentFaults,
			liveAgents,
		)
	})
}

// RecordStep counts one completed step and its wall-clock duration.
func RecordStep(d time.Duration) {
	stepsTotal.Inc()
	stepDuration.Observe(d.Seconds())
}

// RecordPublish counts one published message and its fan-out.
func RecordPublish(deliveries int) {
	messagesPublished.Inc()
	messagesDelivered.Add(float64(deliveries))
}

// RecordFault counts one boundary-caught fault in the given lifecycle phase.
func RecordFault(phase string) {
	agentFaults.WithLabelValues(phase).Inc()
}

// SetLiveAgents tracks how many agents remain eligible for stepping.
func SetLiveAgents(n int) {
	liveAgents.Set(float64(n))
}
