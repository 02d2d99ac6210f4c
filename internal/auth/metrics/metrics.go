// Package metrics holds the Prometheus instruments of the auth service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/aussiebroadwan/fitra/pkg/slogx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for signup and login counters.
const (
	OutcomeSuccess  = "success"
	OutcomeInvalid  = "invalid"
	OutcomeConflict = "conflict"
	OutcomeError    = "error"
)

// Metrics owns a private registry so tests and multiple instances in one
// process never collide on the default one. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	users        prometheus.Gauge
	signups      *prometheus.CounterVec
	logins       *prometheus.CounterVec
	logouts      prometheus.Counter
	hashSeconds  *prometheus.HistogramVec
	httpRequests *prometheus.CounterVec
}

// New creates the registry with the Go and process collectors plus the
// service's own instruments.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: reg,
		users: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "fitra_auth_registered_users",
				Help: "Number of registered accounts, seeded at startup and raised by signups",
			},
		),
		signups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fitra_auth_signups_total",
				Help: "Total number of signup attempts by outcome",
			},
			[]string{"outcome"},
		),
		logins: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fitra_auth_logins_total",
				Help: "Total number of login attempts by outcome",
			},
			[]string{"outcome"},
		),
		logouts: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "fitra_auth_logouts_total",
				Help: "Total number of logouts",
			},
		),
		hashSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fitra_auth_password_hash_seconds",
				Help:    "Password hashing duration in seconds by operation",
				Buckets: prometheus.ExponentialBuckets(0.005, 2, 10),
			},
			[]string{"op"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fitra_auth_http_requests_total",
				Help: "Total number of HTTP requests by route and status code",
			},
			[]string{"route", "code"},
		),
	}

	reg.MustRegister(m.users, m.signups, m.logins, m.logouts, m.hashSeconds, m.httpRequests)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// SetUsers seeds the registered account gauge from the store.
func (m *Metrics) SetUsers(n int64) {
	if m == nil {
		return
	}
	m.users.Set(float64(n))
}

func (m *Metrics) RecordSignup(outcome string) {
	if m == nil {
		return
	}
	m.signups.WithLabelValues(outcome).Inc()
	if outcome == OutcomeSuccess {
		m.users.Inc()
	}
}

func (m *Metrics) RecordLogin(outcome string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordLogout() {
	if m == nil {
		return
	}
	m.logouts.Inc()
}

// ObserveHash has the shape of cryptox.ObserveFunc.
func (m *Metrics) ObserveHash(op string, d time.Duration) {
	if m == nil {
		return
	}
	m.hashSeconds.WithLabelValues(op).Observe(d.Seconds())
}

// Instrument counts requests served by next under the given route label.
// The label is fixed at registration so path parameters and unknown paths
// cannot blow up cardinality.
func (m *Metrics) Instrument(route string, next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rw := slogx.NewResponseWriter(w)
		next.ServeHTTP(rw, r)
		m.httpRequests.WithLabelValues(route, strconv.Itoa(rw.Status())).Inc()
	})
}
