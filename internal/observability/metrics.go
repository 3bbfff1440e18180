// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gateward Contributors

package observability

import "github.com/prometheus/client_golang/prometheus"

// Package-level collectors so the auth and gate packages can record events
// without holding a Server instance. NewMetrics registers them on the
// server's registry.
var (
	loginAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateward_login_attempts_total",
			Help: "Total number of login attempts by result",
		},
		[]string{"result"},
	)

	gateDenials = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateward_gate_denials_total",
			Help: "Total number of actions denied before authentication, by action",
		},
		[]string{"action"},
	)

	unauthenticatedSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "gateward_unauthenticated_sessions",
			Help: "Number of live sessions that have not authenticated yet",
		},
	)
)

// RecordLoginAttempt increments the login attempt counter.
// result is one of: success, wrong_password, not_registered, throttled, timeout.
func RecordLoginAttempt(result string) {
	loginAttempts.WithLabelValues(result).Inc()
}

// RecordGateDenial increments the denial counter for an action.
func RecordGateDenial(action string) {
	gateDenials.WithLabelValues(action).Inc()
}

// SetUnauthenticatedSessions updates the unauthenticated session gauge.
func SetUnauthenticatedSessions(n int) {
	unauthenticatedSessions.Set(float64(n))
}

// Metrics holds the custom gateward collectors.
type Metrics struct {
	LoginAttempts           *prometheus.CounterVec
	GateDenials             *prometheus.CounterVec
	UnauthenticatedSessions prometheus.Gauge
}

// NewMetrics registers the gateward collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		LoginAttempts:           loginAttempts,
		GateDenials:             gateDenials,
		UnauthenticatedSessions: unauthenticatedSessions,
	}

	reg.MustRegister(m.LoginAttempts)
	reg.MustRegister(m.GateDenials)
	reg.MustRegister(m.UnauthenticatedSessions)

	return m
}
