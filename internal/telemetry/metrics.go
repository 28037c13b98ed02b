package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Registry = prometheus.NewRegistry()

	// ---- Gossip protocol ----
	MessagesReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "primemesh",
			Name:      "messages_received_total",
			Help:      "Inbound envelopes acted on, by message type.",
		},
		[]string{"msg_type"},
	)

	MessagesSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "primemesh",
			Name:      "messages_sent_total",
			Help:      "Outbound envelopes attempted, by message type.",
		},
		[]string{"msg_type"},
	)

	DuplicatesDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "primemesh",
			Name:      "duplicates_dropped_total",
			Help:      "Inbound envelopes discarded by the seen-set.",
		},
	)

	SendFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "primemesh",
			Name:      "send_failures_total",
			Help:      "Point-to-point deliveries that failed.",
		},
	)

	PeerEvictions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "primemesh",
			Name:      "peer_evictions_total",
			Help:      "Peers removed by the staleness sweep.",
		},
	)

	LivePeers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "primemesh",
			Name:      "live_peers",
			Help:      "Peers currently in the membership table.",
		},
	)

	BiggestPrime = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "primemesh",
			Name:      "biggest_prime",
			Help:      "Largest Mersenne prime this node has adopted.",
		},
	)

	// ---- HTTP surface ----
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "primemesh",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests.",
		},
		[]string{"op", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "primemesh",
			Name:      "request_duration_seconds",
			Help:      "Latency of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 13),
		},
		[]string{"op"},
	)

	InFlight = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "primemesh",
			Name:      "in_flight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
		[]string{"op"},
	)

	// ---- Process / build info ----
	buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "primemesh",
			Name:      "build_info",
			Help:      "Build info (constant 1, labeled by version and git_sha).",
		},
		[]string{"version", "git_sha"},
	)

	startTime = time.Now()
	uptime    = prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: "primemesh",
			Name:      "uptime_seconds",
			Help:      "Process uptime in seconds.",
		},
		func() float64 { return time.Since(startTime).Seconds() },
	)
)

func init() {
	Registry.MustRegister(
		MessagesReceived, MessagesSent, DuplicatesDropped, SendFailures,
		PeerEvictions, LivePeers, BiggestPrime,
		RequestsTotal, RequestDuration, InFlight, buildInfo, uptime,
	)
}

// MetricsHandler exposes /metrics. Mount it with mux.Handle("/metrics", telemetry.MetricsHandler()).
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// SetBuildInfo should be called once at startup, e.g. with ldflags-provided values.
func SetBuildInfo(version, gitSHA string) {
	buildInfo.WithLabelValues(version, gitSHA).Set(1)
}

// ---- Middleware instrumentation ----

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Instrument wraps an http.Handler to record metrics under the provided "op" label.
// Example:
//
//	mux.Handle("/receive", telemetry.Instrument("receive", http.HandlerFunc(s.Receive)))
func Instrument(op string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w, status: 200}
		start := time.Now()

		InFlight.WithLabelValues(op).Inc()
		defer InFlight.WithLabelValues(op).Dec()

		next.ServeHTTP(sw, r)

		class := strconv.Itoa(sw.status/100) + "xx"
		RequestsTotal.WithLabelValues(op, class).Inc()
		RequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	})
}
