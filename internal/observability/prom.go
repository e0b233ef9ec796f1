package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "crudapi"

type Prom struct {
	RequestsTotal    *prometheus.CounterVec
	RequestsDuration *prometheus.HistogramVec
	InFlight         *prometheus.GaugeVec

	// DB
	DbQueryDuration *prometheus.HistogramVec
	DbErrorsTotal   *prometheus.CounterVec

	// Pool
	PoolTotalConns    prometheus.Gauge
	PoolIdleConns     prometheus.Gauge
	PoolAcquiredConns prometheus.Gauge
	PoolMaxConns      prometheus.Gauge
	PoolEmptyAcquires prometheus.Gauge

	// Auth
	AuthAttempts *prometheus.CounterVec
}

func NewProm(reg prometheus.Registerer) *Prom {
	poolGauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "db_pool",
			Name:      name,
			Help:      help,
		})
	}

	p := &Prom{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests processed",
			},
			[]string{"method", "route", "status"},
		),
		RequestsDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency distributions.",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"method", "route", "status"},
		),
		InFlight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_in_flight_requests",
				Help:      "Current number of in-flight HTTP requests.",
			},
			[]string{"method"},
		),
		DbQueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "db",
				Name:      "query_duration_seconds",
				Help:      "DB operation latency (logical op, not raw SQL)",
				Buckets:   []float64{0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.35, 0.5, 1, 2, 5},
			},
			[]string{"op", "status"},
		),
		DbErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "db",
				Name:      "errors_total",
				Help:      "DB errors by logical op and class.",
			},
			[]string{"op", "class"},
		),
		PoolTotalConns:    poolGauge("total_conns", "Connections currently open in the pool."),
		PoolIdleConns:     poolGauge("idle_conns", "Idle connections in the pool."),
		PoolAcquiredConns: poolGauge("acquired_conns", "Connections currently checked out."),
		PoolMaxConns:      poolGauge("max_conns", "Configured pool capacity."),
		PoolEmptyAcquires: poolGauge("empty_acquire_total", "Acquires that had to wait for a free connection (cumulative)."),
		AuthAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "auth",
				Name:      "attempts_total",
				Help:      "Register and login attempts by outcome.",
			},
			[]string{"action", "result"},
		),
	}

	reg.MustRegister(
		p.RequestsTotal, p.RequestsDuration, p.InFlight,
		p.DbQueryDuration, p.DbErrorsTotal,
		p.PoolTotalConns, p.PoolIdleConns, p.PoolAcquiredConns, p.PoolMaxConns, p.PoolEmptyAcquires,
		p.AuthAttempts,
	)

	return p
}

// ObserveAuth counts a register or login outcome. Safe on a nil receiver.
func (p *Prom) ObserveAuth(action string, success bool) {
	if p == nil {
		return
	}
	result := "success"
	if !success {
		result = "failure"
	}
	p.AuthAttempts.WithLabelValues(action, result).Inc()
}
