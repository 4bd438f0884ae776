package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the access-control counters. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	AccessDecisions  *prometheus.CounterVec
	ProfileFetches   *prometheus.CounterVec
	SessionRefreshes *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		AccessDecisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reboot_access_decisions_total",
				Help: "Authorization decisions by layer, requirement and outcome",
			},
			[]string{"layer", "requirement", "outcome"},
		),
		ProfileFetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reboot_profile_fetches_total",
				Help: "Profile fetches by outcome",
			},
			[]string{"outcome"},
		),
		SessionRefreshes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reboot_session_refreshes_total",
				Help: "Session refresh attempts by outcome",
			},
			[]string{"outcome"},
		),
		gatherer: registry,
	}

	registry.MustRegister(m.AccessDecisions, m.ProfileFetches, m.SessionRefreshes)
	return m
}

func (m *Metrics) Decision(layer, requirement, outcome string) {
	if m == nil {
		return
	}
	m.AccessDecisions.WithLabelValues(layer, requirement, outcome).Inc()
}

func (m *Metrics) ProfileFetch(outcome string) {
	if m == nil {
		return
	}
	m.ProfileFetches.WithLabelValues(outcome).Inc()
}

func (m *Metrics) SessionRefresh(outcome string) {
	if m == nil {
		return
	}
	m.SessionRefreshes.WithLabelValues(outcome).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
