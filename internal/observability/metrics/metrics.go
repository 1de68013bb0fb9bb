package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jobtracker_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "jobtracker_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	registrationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jobtracker_registrations_total",
		Help: "Count of successful user registrations",
	})

	loginsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jobtracker_logins_total",
		Help: "Count of login attempts by result",
	}, []string{"result"})

	applicationWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jobtracker_application_writes_total",
		Help: "Count of application write operations by action",
	}, []string{"action"})

	registeredUsers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "jobtracker_registered_users",
		Help: "Number of registered users",
	})

	activeApplications = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "jobtracker_active_applications",
		Help: "Number of active (not soft-deleted) applications",
	})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveRegistration increments the registration counter.
func ObserveRegistration() {
	registrationsTotal.Inc()
}

// ObserveLogin records a login attempt with a result label ("ok"/"failed").
func ObserveLogin(result string) {
	loginsTotal.WithLabelValues(result).Inc()
}

// ObserveApplicationWrite records a write to the application registry.
func ObserveApplicationWrite(action string) {
	applicationWrites.WithLabelValues(action).Inc()
}

// SetRegisteredUsers sets the registered user gauge.
func SetRegisteredUsers(count int64) {
	registeredUsers.Set(float64(count))
}

// SetActiveApplications sets the active application gauge.
func SetActiveApplications(count int64) {
	activeApplications.Set(float64(count))
}
