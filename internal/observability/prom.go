package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

type Prom struct {
	RequestsTotal    *prometheus.CounterVec
	RequestsDuration *prometheus.HistogramVec
	InFlight         *prometheus.GaugeVec

	// Record store
	StoreOpDuration *prometheus.HistogramVec
	StoreErrors     *prometheus.CounterVec

	// Welcome-notification queue
	JobsEnqueued *prometheus.CounterVec
	JobResults   *prometheus.CounterVec
}

func NewProm(reg prometheus.Registerer) *Prom {
	p := &Prom{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "contacthub",
				Name:      "http_requests_total",
				Help:      "Total HTTP requests processed",
			},
			[]string{"method", "route", "status"},
		),
		RequestsDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "contacthub",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency distributions.",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"method", "route", "status"},
		),
		InFlight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "contacthub",
				Name:      "http_in_flight_requests",
				Help:      "Current number of in-flight HTTP requests.",
			},
			[]string{"method", "route"},
		),
		StoreOpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "contacthub",
				Subsystem: "store",
				Name:      "op_duration_seconds",
				Help:      "Record store operation latency (logical op)",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.5, 1, 2},
			},
			[]string{"collection", "op"},
		),
		StoreErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "contacthub",
				Subsystem: "store",
				Name:      "errors_total",
				Help:      "Record store operation failures",
			},
			[]string{"collection", "op"},
		),
		JobsEnqueued: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "contacthub",
				Subsystem: "queue",
				Name:      "jobs_enqueued_total",
				Help:      "Jobs pushed onto the notification queue",
			},
			[]string{"type"},
		),
		JobResults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "contacthub",
				Subsystem: "queue",
				Name:      "job_results_total",
				Help:      "Worker job outcomes",
			},
			[]string{"type", "result"},
		),
	}

	reg.MustRegister(
		p.RequestsTotal,
		p.RequestsDuration,
		p.InFlight,
		p.StoreOpDuration,
		p.StoreErrors,
		p.JobsEnqueued,
		p.JobResults,
	)

	return p
}

// HTTPMetrics records per-request counters and latency keyed by route template.
func (p *Prom) HTTPMetrics() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		route := ctx.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := ctx.Request.Method

		p.InFlight.WithLabelValues(method, route).Inc()
		start := time.Now()

		ctx.Next()

		elapsed := time.Since(start).Seconds()
		status := strconv.Itoa(ctx.Writer.Status())

		p.InFlight.WithLabelValues(method, route).Dec()
		p.RequestsTotal.WithLabelValues(method, route, status).Inc()
		p.RequestsDuration.WithLabelValues(method, route, status).Observe(elapsed)
	}
}

// ObserveStoreOp is handed to the file/postgres repos as a callback so they
// stay free of a prometheus import.
func (p *Prom) ObserveStoreOp(collection, op string, start time.Time, err error) {
	p.StoreOpDuration.WithLabelValues(collection, op).Observe(time.Since(start).Seconds())
	if err != nil {
		p.StoreErrors.WithLabelValues(collection, op).Inc()
	}
}
