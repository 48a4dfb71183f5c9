package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "liaison",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests on the operator surface.",
		},
		[]string{"method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "liaison",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
	sessionsOpen = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "liaison",
			Subsystem: "session",
			Name:      "open",
			Help:      "Currently open transport sessions.",
		},
	)
	sessionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "liaison",
			Subsystem: "session",
			Name:      "opened_total",
			Help:      "Transport sessions opened since start.",
		},
	)
	commandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "liaison",
			Subsystem: "command",
			Name:      "dispatched_total",
			Help:      "Command envelopes dispatched, by method and outcome.",
		},
		[]string{"method", "outcome"},
	)
	commandDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "liaison",
			Subsystem: "command",
			Name:      "duration_seconds",
			Help:      "Command dispatch duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method"},
	)
	decodeFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "liaison",
			Subsystem: "command",
			Name:      "decode_failures_total",
			Help:      "Inbound envelopes rejected before dispatch.",
		},
	)
	pushesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "liaison",
			Subsystem: "session",
			Name:      "pushes_total",
			Help:      "Out-of-band messages pushed to peers.",
		},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			httpDuration,
			sessionsOpen,
			sessionsTotal,
			commandsTotal,
			commandDuration,
			decodeFailures,
			pushesTotal,
		)
	})
}

func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(method, path, statusLabel).Observe(duration.Seconds())
}

func RecordSessionOpen() {
	RegisterMetrics()
	sessionsTotal.Inc()
	sessionsOpen.Inc()
}

func RecordSessionClose() {
	RegisterMetrics()
	sessionsOpen.Dec()
}

func RecordCommand(method string, ok bool, duration time.Duration) {
	RegisterMetrics()
	outcome := "success"
	if !ok {
		outcome = "error"
	}
	commandsTotal.WithLabelValues(method, outcome).Inc()
	commandDuration.WithLabelValues(method).Observe(duration.Seconds())
}

func RecordDecodeFailure() {
	RegisterMetrics()
	decodeFailures.Inc()
}

func RecordPush() {
	RegisterMetrics()
	pushesTotal.Inc()
}
