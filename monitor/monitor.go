// monitor/monitor.go
package monitor

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	ActiveRooms     prometheus.Gauge
	RoomsCreated    prometheus.Counter
	RoundsStarted   prometheus.Counter
	Guesses         *prometheus.CounterVec
	RoomWatchers    prometheus.Gauge
	RequestDuration *prometheus.HistogramVec
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		ActiveRooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_rooms",
			Help:      "Number of rooms in the directory",
		}),
		RoomsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rooms_created_total",
			Help:      "Total number of rooms created",
		}),
		RoundsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rounds_started_total",
			Help:      "Total number of role assignments",
		}),
		Guesses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "guesses_total",
			Help:      "Resolved Mantri guesses by outcome",
		}, []string{"result"}),
		RoomWatchers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "room_watchers",
			Help:      "Open websocket sessions watching rooms",
		}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}, []string{"route"}),
	}
}

func (m *Metrics) all() []prometheus.Collector {
	return []prometheus.Collector{
		m.ActiveRooms,
		m.RoomsCreated,
		m.RoundsStarted,
		m.Guesses,
		m.RoomWatchers,
		m.RequestDuration,
	}
}

// Monitor owns a private registry so several instances (tests, embedded
// servers) never collide on the default one.
type Monitor struct {
	metrics   *Metrics
	registry  *prometheus.Registry
	startTime time.Time
}

func NewMonitor(namespace string) *Monitor {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(namespace)
	reg.MustRegister(metrics.all()...)
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Monitor{
		metrics:   metrics,
		registry:  reg,
		startTime: time.Now(),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Monitor) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Monitor) Uptime() time.Duration {
	return time.Since(m.startTime)
}

// --- room.Observer ---

func (m *Monitor) RoomCreated() {
	m.metrics.RoomsCreated.Inc()
	m.metrics.ActiveRooms.Inc()
}

func (m *Monitor) RoomRemoved() {
	m.metrics.ActiveRooms.Dec()
}

func (m *Monitor) RoundStarted() {
	m.metrics.RoundsStarted.Inc()
}

func (m *Monitor) GuessResolved(correct bool) {
	result := "incorrect"
	if correct {
		result = "correct"
	}
	m.metrics.Guesses.WithLabelValues(result).Inc()
}

func (m *Monitor) IncWatchers() {
	m.metrics.RoomWatchers.Inc()
}

func (m *Monitor) DecWatchers() {
	m.metrics.RoomWatchers.Dec()
}

func (m *Monitor) ObserveRequest(route string, duration time.Duration) {
	m.metrics.RequestDuration.WithLabelValues(route).Observe(duration.Seconds())
}
