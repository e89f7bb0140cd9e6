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
			Namespace: "planetctl",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total admin HTTP requests.",
		},
		[]string{"node", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "planetctl",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Admin HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "method", "path", "status"},
	)
	renders = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "planetctl",
			Subsystem: "render",
			Name:      "total",
			Help:      "Completed render attempts by outcome.",
		},
		[]string{"outcome"},
	)
	renderDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "planetctl",
			Subsystem: "render",
			Name:      "duration_seconds",
			Help:      "Render pipeline duration in seconds, excluding the writer.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		},
	)
	noiseBuilds = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "planetctl",
			Subsystem: "noise",
			Name:      "builds_total",
			Help:      "Noise fields built, by namespace and method.",
		},
		[]string{"namespace", "method"},
	)
	patches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "planetctl",
			Subsystem: "session",
			Name:      "patches_total",
			Help:      "Patch protocol messages by kind and acceptance.",
		},
		[]string{"kind", "accepted"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, renders, renderDuration, noiseBuilds, patches)
	})
}

func RecordHTTPRequest(node, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(node, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(node, method, path, statusLabel).Observe(duration.Seconds())
}

func RecordRender(duration time.Duration, err error) {
	RegisterMetrics()
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	renders.WithLabelValues(outcome).Inc()
	if err == nil {
		renderDuration.Observe(duration.Seconds())
	}
}

func RecordNoiseBuild(namespace, method string) {
	RegisterMetrics()
	noiseBuilds.WithLabelValues(namespace, method).Inc()
}

func RecordPatch(kind string, accepted bool) {
	RegisterMetrics()
	patches.WithLabelValues(kind, strconv.FormatBool(accepted)).Inc()
}
