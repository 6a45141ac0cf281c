package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var durationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}

// Metrics groups the collectors exported by the API and the worker.
type Metrics struct {
	gatherer prometheus.Gatherer

	HTTPRequests  *prometheus.CounterVec
	HTTPDuration  *prometheus.HistogramVec
	Logins        *prometheus.CounterVec
	RateLimited   prometheus.Counter
	JobRuns       *prometheus.CounterVec
	JobDuration   *prometheus.HistogramVec
	Notifications prometheus.Counter
	MessagesSent  *prometheus.CounterVec
}

// New registers every collector on reg. Pass prometheus.NewRegistry() in tests.
func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		gatherer: reg,
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "igreja_http_requests_total",
			Help: "Total number of HTTP requests by route, method and status code",
		}, []string{"route", "method", "code"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "igreja_http_request_duration_seconds",
			Help:    "Duration of HTTP requests by route and method",
			Buckets: durationBuckets,
		}, []string{"route", "method"}),
		Logins: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "igreja_logins_total",
			Help: "Total number of login attempts by result",
		}, []string{"result"}),
		RateLimited: factory.NewCounter(prometheus.CounterOpts{
			Name: "igreja_rate_limited_requests_total",
			Help: "Total number of requests rejected by the rate limiter",
		}),
		JobRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "igreja_worker_job_runs_total",
			Help: "Total number of worker job runs by job and status",
		}, []string{"job", "status"}),
		JobDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "igreja_worker_job_duration_seconds",
			Help:    "Duration of worker job runs",
			Buckets: durationBuckets,
		}, []string{"job"}),
		Notifications: factory.NewCounter(prometheus.CounterOpts{
			Name: "igreja_notifications_delivered_total",
			Help: "Total number of alert notifications created by the worker",
		}),
		MessagesSent: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "igreja_messages_sent_total",
			Help: "Total number of messages dispatched by channel",
		}, []string{"channel"}),
	}
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(route, method, code string, start time.Time) {
	m.HTTPRequests.WithLabelValues(route, method, code).Inc()
	m.HTTPDuration.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
}

// ObserveJob records one worker job run. err is nil on success.
func (m *Metrics) ObserveJob(job string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.JobRuns.WithLabelValues(job, status).Inc()
	m.JobDuration.WithLabelValues(job).Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncrementLogin(ok bool) {
	result := "success"
	if !ok {
		result = "failure"
	}
	m.Logins.WithLabelValues(result).Inc()
}

// Handler serves the registered collectors in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
