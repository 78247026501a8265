package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector counts auth outcomes. A nil *Collector is safe to call so the
// service layer never has to guard the recording sites.
type Collector struct {
	registrations    prometheus.Counter
	loginSuccess     prometheus.Counter
	loginFailure     prometheus.Counter
	refreshRotations prometheus.Counter
	refreshRejected  prometheus.Counter
	logouts          prometheus.Counter

	registry *prometheus.Registry
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		registrations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taskhub_auth_registrations_total",
			Help: "Accounts created.",
		}),
		loginSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taskhub_auth_login_success_total",
			Help: "Successful sign-ins.",
		}),
		loginFailure: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taskhub_auth_login_failure_total",
			Help: "Sign-ins rejected with invalid credentials.",
		}),
		refreshRotations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taskhub_auth_refresh_rotations_total",
			Help: "Refresh token pairs rotated.",
		}),
		refreshRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taskhub_auth_refresh_rejected_total",
			Help: "Refresh attempts rejected (expired, forged or superseded).",
		}),
		logouts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taskhub_auth_logouts_total",
			Help: "Sessions ended by logout.",
		}),
		registry: reg,
	}

	reg.MustRegister(
		c.registrations,
		c.loginSuccess,
		c.loginFailure,
		c.refreshRotations,
		c.refreshRejected,
		c.logouts,
	)
	return c
}

func (c *Collector) RecordRegistration() {
	if c != nil {
		c.registrations.Inc()
	}
}

func (c *Collector) RecordLogin(ok bool) {
	if c == nil {
		return
	}
	if ok {
		c.loginSuccess.Inc()
	} else {
		c.loginFailure.Inc()
	}
}

func (c *Collector) RecordRefresh(ok bool) {
	if c == nil {
		return
	}
	if ok {
		c.refreshRotations.Inc()
	} else {
		c.refreshRejected.Inc()
	}
}

func (c *Collector) RecordLogout() {
	if c != nil {
		c.logouts.Inc()
	}
}

// Handler serves the /metrics endpoint for this collector's registry.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
