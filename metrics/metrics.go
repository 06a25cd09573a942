// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Vote outcomes
const (
	VoteAccepted = "accepted"
	VoteRejected = "rejected"
)

// Resolution triggers
const (
	TriggerThreshold = "threshold"
	TriggerManual    = "manual"
)

// Metrics holds the game's collectors. A nil *Metrics is valid and records
// nothing, which keeps tests free of registry plumbing.
type Metrics struct {
	registry *prometheus.Registry

	votes        *prometheus.CounterVec
	resolutions  *prometheus.CounterVec
	payouts      prometheus.Histogram
	bonuses      prometheus.Counter
	transfers    prometheus.Counter
	chatMessages prometheus.Counter
	sessions     prometheus.Gauge
	httpRequests *prometheus.CounterVec
}

// New registers the collectors on reg. A nil reg gets a fresh registry
// that also carries the Go runtime and process collectors.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		votes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "election_votes_total",
			Help: "votes attempted, by outcome",
		}, []string{"outcome"}),
		resolutions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "election_resolutions_total",
			Help: "elections closed, by trigger",
		}, []string{"trigger"}),
		payouts: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "election_payout_amount",
			Help:    "personalized payouts credited on resolution",
			Buckets: []float64{-80, -60, -40, -20, 0, 20, 40, 60, 80, 120, 160},
		}),
		bonuses: factory.NewCounter(prometheus.CounterOpts{
			Name: "election_entry_bonuses_total",
			Help: "entry bonuses granted",
		}),
		transfers: factory.NewCounter(prometheus.CounterOpts{
			Name: "ledger_transfers_total",
			Help: "completed balance transfers",
		}),
		chatMessages: factory.NewCounter(prometheus.CounterOpts{
			Name: "chat_messages_total",
			Help: "chat messages persisted, including system announcements",
		}),
		sessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "realtime_sessions",
			Help: "connected realtime sessions",
		}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests served, by method and status code",
		}, []string{"method", "code"}),
	}
}

// Registry exposes the underlying registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Vote(outcome string) {
	if m == nil {
		return
	}
	m.votes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Resolution(trigger string) {
	if m == nil {
		return
	}
	m.resolutions.WithLabelValues(trigger).Inc()
}

func (m *Metrics) Payout(amount int64) {
	if m == nil {
		return
	}
	m.payouts.Observe(float64(amount))
}

func (m *Metrics) Bonus() {
	if m == nil {
		return
	}
	m.bonuses.Inc()
}

func (m *Metrics) Transfer() {
	if m == nil {
		return
	}
	m.transfers.Inc()
}

func (m *Metrics) ChatMessage() {
	if m == nil {
		return
	}
	m.chatMessages.Inc()
}

func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.sessions.Inc()
}

func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.sessions.Dec()
}

// InstrumentHandler counts requests through next.
func (m *Metrics) InstrumentHandler(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return promhttp.InstrumentHandlerCounter(m.httpRequests, next)
}
