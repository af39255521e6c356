package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's collectors, registered on their own registry
// so tests can build as many instances as they like.
type Metrics struct {
	registry *prometheus.Registry

	Registrations    *prometheus.CounterVec
	Logins           *prometheus.CounterVec
	ReportsCreated   prometheus.Counter
	DonorsRegistered prometheus.Counter
	requestDuration  *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medivault",
			Name:      "registrations_total",
			Help:      "User registrations by role and outcome.",
		}, []string{"role", "outcome"}),
		Logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medivault",
			Name:      "logins_total",
			Help:      "Login attempts by role and outcome.",
		}, []string{"role", "outcome"}),
		ReportsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "medivault",
			Name:      "health_reports_generated_total",
			Help:      "Health reports generated.",
		}),
		DonorsRegistered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "medivault",
			Name:      "blood_donors_registered_total",
			Help:      "Blood donor registrations, including re-registrations.",
		}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "medivault",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	m.registry.MustRegister(
		m.Registrations,
		m.Logins,
		m.ReportsCreated,
		m.DonorsRegistered,
		m.requestDuration,
	)
	return m
}

// Outcome converts an error into the outcome label value.
func Outcome(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

// Middleware records request durations keyed by the matched route template.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}
