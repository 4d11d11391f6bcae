package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels shared by the counters below.
const (
	OutcomeSuccess     = "success"
	OutcomeRejected    = "rejected"
	OutcomeFailure     = "failure"
	OutcomeCompensated = "compensated"
)

// Metrics holds all Prometheus metrics for one service process.
type Metrics struct {
	IdentityProviderCalls *prometheus.CounterVec
	AdminTokenRefreshes   prometheus.Counter
	TokenOperations       *prometheus.CounterVec
	UsersProvisioned      *prometheus.CounterVec
	RateLimited           *prometheus.CounterVec
	HTTPRequestDuration   *prometheus.HistogramVec
}

// New creates and registers all metrics on reg. Pass prometheus.DefaultRegisterer
// in main and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		IdentityProviderCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "paralelogram_identity_provider_calls_total",
			Help: "Calls made to the identity provider by operation and outcome",
		}, []string{"operation", "outcome"}),
		AdminTokenRefreshes: factory.NewCounter(prometheus.CounterOpts{
			Name: "paralelogram_admin_token_refreshes_total",
			Help: "Client-credentials tokens fetched to refresh the admin token slot",
		}),
		TokenOperations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "paralelogram_token_operations_total",
			Help: "User-facing token operations by operation and outcome",
		}, []string{"operation", "outcome"}),
		UsersProvisioned: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "paralelogram_users_provisioned_total",
			Help: "User provisioning attempts by outcome",
		}, []string{"outcome"}),
		RateLimited: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "paralelogram_rate_limited_requests_total",
			Help: "Requests rejected by a rate limit, by endpoint",
		}, []string{"endpoint"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "paralelogram_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

// ObserveIdentityProviderCall counts one call to the identity provider.
func (m *Metrics) ObserveIdentityProviderCall(operation, outcome string) {
	if m == nil {
		return
	}
	m.IdentityProviderCalls.WithLabelValues(operation, outcome).Inc()
}

// IncrementAdminTokenRefreshes counts one client-credentials fetch.
func (m *Metrics) IncrementAdminTokenRefreshes() {
	if m == nil {
		return
	}
	m.AdminTokenRefreshes.Inc()
}

// ObserveTokenOperation counts one issue/refresh/validate call.
func (m *Metrics) ObserveTokenOperation(operation, outcome string) {
	if m == nil {
		return
	}
	m.TokenOperations.WithLabelValues(operation, outcome).Inc()
}

// ObserveProvisioning counts one provisioning workflow run.
func (m *Metrics) ObserveProvisioning(outcome string) {
	if m == nil {
		return
	}
	m.UsersProvisioned.WithLabelValues(outcome).Inc()
}

// ObserveRateLimited counts one request rejected by a rate limit.
func (m *Metrics) ObserveRateLimited(endpoint string) {
	if m == nil {
		return
	}
	m.RateLimited.WithLabelValues(endpoint).Inc()
}
