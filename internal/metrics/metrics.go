package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dukerupert/habitrack/internal/backup"
	"github.com/dukerupert/habitrack/internal/tracker"
)

const namespace = "habitrack"

// Metrics owns a private registry so tests and multiple servers never collide
// on the global one.
type Metrics struct {
	reg *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	changes         *prometheus.CounterVec
	backupRuns      *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		reg: reg,
		requestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds.",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
			},
			[]string{"method", "route", "status"},
		),
		changes: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "changes_total",
				Help:      "Committed day store mutations by kind.",
			},
			[]string{"kind"},
		),
		backupRuns: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "backup_runs_total",
				Help:      "Finished backup runs by result.",
			},
			[]string{"result"},
		),
	}
}

// TrackGauges exposes live values read at scrape time.
func (m *Metrics) TrackGauges(svc *tracker.Service, clients func() int) {
	f := promauto.With(m.reg)
	f.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "recorded_days",
		Help:      "Dates with a day record.",
	}, func() float64 { return float64(svc.Snapshot().Len()) })
	f.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "streak_days",
		Help:      "Current streak ending today.",
	}, func() float64 { return float64(svc.Summary(svc.Today()).Streak) })
	f.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "websocket_clients",
		Help:      "Connected live sync clients.",
	}, func() float64 { return float64(clients()) })
}

func (m *Metrics) ObserveChange(c tracker.Change) {
	m.changes.WithLabelValues(string(c.Kind)).Inc()
}

func (m *Metrics) ObserveBackup(s backup.Status) {
	switch s.State {
	case backup.StateIdle:
		m.backupRuns.WithLabelValues("success").Inc()
	case backup.StateError:
		m.backupRuns.WithLabelValues("error").Inc()
	}
}

// Middleware records request latency labelled by the matched route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		m.requestDuration.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Observe(time.Since(start).Seconds())
	})
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
