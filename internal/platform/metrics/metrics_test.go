package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveIdentityProviderCall("create_user", OutcomeSuccess)
	m.ObserveIdentityProviderCall("create_user", OutcomeSuccess)
	m.IncrementAdminTokenRefreshes()
	m.ObserveProvisioning(OutcomeCompensated)
	m.ObserveRateLimited("token_generate")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.IdentityProviderCalls.WithLabelValues("create_user", OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AdminTokenRefreshes))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UsersProvisioned.WithLabelValues(OutcomeCompensated)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RateLimited.WithLabelValues("token_generate")))
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveIdentityProviderCall("delete_user", OutcomeFailure)
		m.IncrementAdminTokenRefreshes()
		m.ObserveTokenOperation("issue", OutcomeSuccess)
		m.ObserveProvisioning(OutcomeSuccess)
		m.ObserveRateLimited("token_generate")
	})
}
