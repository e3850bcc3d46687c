package clinicauth

import "sync/atomic"

// counter is a cache-line padded atomic counter. Padding keeps the hot
// counters from false-sharing a line under concurrent request load.
type counter struct {
	value atomic.Uint64
	_     [56]byte
}

func (c *counter) inc() {
	c.value.Add(1)
}

func (c *counter) addN(n uint64) {
	c.value.Add(n)
}

func (c *counter) load() uint64 {
	return c.value.Load()
}

// Metrics holds the engine's in-process counters. All fields are
// updated lock-free; read them through [Engine.MetricsSnapshot].
type Metrics struct {
	enabled bool

	tokensIssued     counter
	tokensValidated  counter
	tokensRejected   counter
	refreshRotations counter
	refreshReuse     counter
	sessionsRevoked  counter
	riskFlags        counter
	storeErrors      counter
}

func newMetrics(enabled bool) *Metrics {
	return &Metrics{enabled: enabled}
}

func (m *Metrics) inc(c *counter) {
	if m == nil || !m.enabled {
		return
	}
	c.inc()
}

func (m *Metrics) add(c *counter, n uint64) {
	if m == nil || !m.enabled || n == 0 {
		return
	}
	c.addN(n)
}

// MetricsSnapshot is a point-in-time copy of the engine counters.
type MetricsSnapshot struct {
	TokensIssued     uint64
	TokensValidated  uint64
	TokensRejected   uint64
	RefreshRotations uint64
	RefreshReuse     uint64
	SessionsRevoked  uint64
	RiskFlags        uint64
	StoreErrors      uint64
}

// Snapshot copies the current counter values. Counters advance
// independently, so the snapshot is consistent per-counter, not across
// counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	return MetricsSnapshot{
		TokensIssued:     m.tokensIssued.load(),
		TokensValidated:  m.tokensValidated.load(),
		TokensRejected:   m.tokensRejected.load(),
		RefreshRotations: m.refreshRotations.load(),
		RefreshReuse:     m.refreshReuse.load(),
		SessionsRevoked:  m.sessionsRevoked.load(),
		RiskFlags:        m.riskFlags.load(),
		StoreErrors:      m.storeErrors.load(),
	}
}
