package prometheus

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/clinicore/clinicauth"
)

type stubSource struct {
	snap clinicauth.MetricsSnapshot
}

func (s stubSource) MetricsSnapshot() clinicauth.MetricsSnapshot {
	return s.snap
}

func TestCollectorExposesCounters(t *testing.T) {
	source := stubSource{snap: clinicauth.MetricsSnapshot{
		TokensIssued:     12,
		TokensValidated:  340,
		TokensRejected:   7,
		RefreshRotations: 5,
		RefreshReuse:     1,
		SessionsRevoked:  2,
		RiskFlags:        3,
		StoreErrors:      0,
	}}

	expected := `
# HELP clinicauth_refresh_reuse_total Refresh-token reuse detections.
# TYPE clinicauth_refresh_reuse_total counter
clinicauth_refresh_reuse_total 1
# HELP clinicauth_tokens_issued_total Access tokens issued.
# TYPE clinicauth_tokens_issued_total counter
clinicauth_tokens_issued_total 12
# HELP clinicauth_tokens_validated_total Access tokens that passed verification.
# TYPE clinicauth_tokens_validated_total counter
clinicauth_tokens_validated_total 340
`
	err := testutil.CollectAndCompare(NewCollector(source), strings.NewReader(expected),
		"clinicauth_tokens_issued_total",
		"clinicauth_tokens_validated_total",
		"clinicauth_refresh_reuse_total",
	)
	if err != nil {
		t.Fatalf("unexpected exposition: %v", err)
	}
}

func TestCollectorMetricCount(t *testing.T) {
	c := NewCollector(stubSource{})
	if got := testutil.CollectAndCount(c); got != 8 {
		t.Fatalf("metric count = %d, want 8", got)
	}
}
