package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"postledger/pkg/domain"
)

func gathered(t *testing.T, reg *prometheus.Registry) map[string]*dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	out := make(map[string]*dto.MetricFamily, len(families))
	for _, f := range families {
		out[f.GetName()] = f
	}
	return out
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObservePost(domain.NewUint128(1000), domain.NewUint128(9000))
	m.ObserveDeposit(domain.NewUint128(500))
	m.ObserveWithdrawal(domain.NewUint128(200))
	m.IncrementError("post", "insufficient_funds")

	fams := gathered(t, reg)
	assert.InDelta(t, 1, fams["postledger_posts_created_total"].GetMetric()[0].GetCounter().GetValue(), 1e-9)
	assert.InDelta(t, 500, fams["postledger_deposited_amount_total"].GetMetric()[0].GetCounter().GetValue(), 1e-9)
	assert.InDelta(t, 200, fams["postledger_withdrawn_amount_total"].GetMetric()[0].GetCounter().GetValue(), 1e-9)

	fees := map[string]float64{}
	for _, metric := range fams["postledger_post_fees_total"].GetMetric() {
		fees[metric.GetLabel()[0].GetValue()] = metric.GetCounter().GetValue()
	}
	assert.InDelta(t, 1000, fees[RecipientOwner], 1e-9)
	assert.InDelta(t, 9000, fees[RecipientAgent], 1e-9)

	require.Len(t, fams["postledger_operation_errors_total"].GetMetric(), 1)
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObservePost(domain.NewUint128(1), domain.NewUint128(1))
		m.ObserveDeposit(domain.NewUint128(1))
		m.ObserveWithdrawal(domain.NewUint128(1))
		m.IncrementError("post", "internal_error")
		m.ObserveLatestPostsLimit(10)
	})
}
