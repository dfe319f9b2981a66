// Package metrics exposes Prometheus counters for the device authorization
// flow. A nil *Metrics is valid and records nothing, which keeps tests and
// callers free of wiring.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	deviceCodesIssued prometheus.Counter
	deviceDecisions   *prometheus.CounterVec
	tokenExchanges    *prometheus.CounterVec
	tokenRefreshes    *prometheus.CounterVec
	tokenRevocations  prometheus.Counter
	logins            *prometheus.CounterVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		deviceCodesIssued: factory.NewCounter(prometheus.CounterOpts{
			Name: "auth_device_codes_issued_total",
			Help: "Device authorization attempts started.",
		}),
		deviceDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_device_decisions_total",
			Help: "Interactive approval outcomes.",
		}, []string{"decision"}),
		tokenExchanges: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_token_exchanges_total",
			Help: "Device-code token exchange outcomes.",
		}, []string{"outcome"}),
		tokenRefreshes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_token_refreshes_total",
			Help: "Refresh-token rotation outcomes.",
		}, []string{"outcome"}),
		tokenRevocations: factory.NewCounter(prometheus.CounterOpts{
			Name: "auth_token_revocations_total",
			Help: "Revocation requests processed.",
		}),
		logins: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_logins_total",
			Help: "Login attempts by outcome.",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) DeviceCodeIssued() {
	if m == nil {
		return
	}
	m.deviceCodesIssued.Inc()
}

func (m *Metrics) DeviceDecision(decision string) {
	if m == nil {
		return
	}
	m.deviceDecisions.WithLabelValues(decision).Inc()
}

func (m *Metrics) TokenExchange(outcome string) {
	if m == nil {
		return
	}
	m.tokenExchanges.WithLabelValues(outcome).Inc()
}

func (m *Metrics) TokenRefresh(outcome string) {
	if m == nil {
		return
	}
	m.tokenRefreshes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) TokenRevoked() {
	if m == nil {
		return
	}
	m.tokenRevocations.Inc()
}

func (m *Metrics) Login(outcome string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(outcome).Inc()
}
