// Package metrics holds the Prometheus collectors for the game loop and
// the HTTP surface. Collectors live on a private registry so tests and
// multiple servers in one process never collide.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	Registry *prometheus.Registry

	TickDuration   prometheus.Histogram
	Players        *prometheus.GaugeVec // role
	Sessions       prometheus.Gauge
	BroadcastBytes prometheus.Counter
	Infections     prometheus.Counter
	Rejections     *prometheus.CounterVec // reason
	Rounds         *prometheus.CounterVec // winner

	reqDuration *prometheus.HistogramVec
	reqErrors   *prometheus.CounterVec
}

func New(namespace string) *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tick_duration_seconds",
			Help:      "Wall time of one simulation tick.",
			Buckets:   []float64{0.0005, 0.001, 0.002, 0.004, 0.008, 0.016, 0.032, 0.064},
		}),
		Players: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "players",
			Help:      "Connected players by role.",
		}, []string{"role"}),
		Sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions",
			Help:      "Open websocket sessions.",
		}),
		BroadcastBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "broadcast_bytes_total",
			Help:      "Snapshot bytes queued to clients.",
		}),
		Infections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "infections_total",
			Help:      "Humans turned into zombies.",
		}),
		Rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gatekeeper_rejections_total",
			Help:      "Client frames dropped by the gatekeeper.",
		}, []string{"reason"}),
		Rounds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rounds_total",
			Help:      "Finished rounds by winner.",
		}, []string{"winner"}),
		reqDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}, []string{"method", "path", "status"}),
		reqErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_request_errors_total",
			Help:      "HTTP requests answered with 4xx/5xx.",
		}, []string{"method", "path", "status"}),
	}
	m.Registry.MustRegister(
		m.TickDuration, m.Players, m.Sessions, m.BroadcastBytes,
		m.Infections, m.Rejections, m.Rounds, m.reqDuration, m.reqErrors,
	)
	return m
}

// ObserveTick records one tick's duration.
func (m *Metrics) ObserveTick(d time.Duration) {
	m.TickDuration.Observe(d.Seconds())
}

// SetPlayers updates the per-role gauge.
func (m *Metrics) SetPlayers(humans, zombies int) {
	m.Players.WithLabelValues("human").Set(float64(humans))
	m.Players.WithLabelValues("zombie").Set(float64(zombies))
}

// Handler serves the private registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

// GinMiddleware records request latency and error counts.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path // unmatched routes
		}
		method := c.Request.Method
		m.reqDuration.WithLabelValues(method, path, status).Observe(time.Since(start).Seconds())
		if c.Writer.Status() >= 400 {
			m.reqErrors.WithLabelValues(method, path, status).Inc()
		}
	}
}
