// Package prometheus bridges the engine's internal counters to a
// Prometheus registry.
package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/clinicore/clinicauth"
)

// Snapshotter supplies counter snapshots. Satisfied by
// *clinicauth.Engine.
type Snapshotter interface {
	MetricsSnapshot() clinicauth.MetricsSnapshot
}

// Collector exposes engine counters as Prometheus metrics. Register it
// once per engine:
//
//	prometheus.MustRegister(promexport.NewCollector(engine))
//
// Scrapes read the live atomic counters; no sampling loop runs.
type Collector struct {
	source Snapshotter

	tokensIssued     *prometheus.Desc
	tokensValidated  *prometheus.Desc
	tokensRejected   *prometheus.Desc
	refreshRotations *prometheus.Desc
	refreshReuse     *prometheus.Desc
	sessionsRevoked  *prometheus.Desc
	riskFlags        *prometheus.Desc
	storeErrors      *prometheus.Desc
}

// NewCollector creates a Collector reading from the given source.
func NewCollector(source Snapshotter) *Collector {
	return &Collector{
		source: source,
		tokensIssued: prometheus.NewDesc(
			"clinicauth_tokens_issued_total",
			"Access tokens issued.",
			nil, nil,
		),
		tokensValidated: prometheus.NewDesc(
			"clinicauth_tokens_validated_total",
			"Access tokens that passed verification.",
			nil, nil,
		),
		tokensRejected: prometheus.NewDesc(
			"clinicauth_tokens_rejected_total",
			"Tokens rejected for any reason.",
			nil, nil,
		),
		refreshRotations: prometheus.NewDesc(
			"clinicauth_refresh_rotations_total",
			"Successful refresh-token rotations.",
			nil, nil,
		),
		refreshReuse: prometheus.NewDesc(
			"clinicauth_refresh_reuse_total",
			"Refresh-token reuse detections.",
			nil, nil,
		),
		sessionsRevoked: prometheus.NewDesc(
			"clinicauth_sessions_revoked_total",
			"Session revocation operations.",
			nil, nil,
		),
		riskFlags: prometheus.NewDesc(
			"clinicauth_risk_flags_total",
			"Sessions flagged suspicious at creation.",
			nil, nil,
		),
		storeErrors: prometheus.NewDesc(
			"clinicauth_store_errors_total",
			"Session store failures.",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.tokensIssued
	ch <- c.tokensValidated
	ch <- c.tokensRejected
	ch <- c.refreshRotations
	ch <- c.refreshReuse
	ch <- c.sessionsRevoked
	ch <- c.riskFlags
	ch <- c.storeErrors
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	snap := c.source.MetricsSnapshot()

	ch <- prometheus.MustNewConstMetric(c.tokensIssued, prometheus.CounterValue, float64(snap.TokensIssued))
	ch <- prometheus.MustNewConstMetric(c.tokensValidated, prometheus.CounterValue, float64(snap.TokensValidated))
	ch <- prometheus.MustNewConstMetric(c.tokensRejected, prometheus.CounterValue, float64(snap.TokensRejected))
	ch <- prometheus.MustNewConstMetric(c.refreshRotations, prometheus.CounterValue, float64(snap.RefreshRotations))
	ch <- prometheus.MustNewConstMetric(c.refreshReuse, prometheus.CounterValue, float64(snap.RefreshReuse))
	ch <- prometheus.MustNewConstMetric(c.sessionsRevoked, prometheus.CounterValue, float64(snap.SessionsRevoked))
	ch <- prometheus.MustNewConstMetric(c.riskFlags, prometheus.CounterValue, float64(snap.RiskFlags))
	ch <- prometheus.MustNewConstMetric(c.storeErrors, prometheus.CounterValue, float64(snap.StoreErrors))
}
