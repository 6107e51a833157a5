// Package metrics records contract-level Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"postledger/pkg/domain"
)

// Fee recipient labels.
const (
	RecipientOwner = "owner"
	RecipientAgent = "agent"
)

// Metrics counts contract operations. A nil *Metrics records nothing.
type Metrics struct {
	PostsCreated     prometheus.Counter
	FeesCollected    *prometheus.CounterVec
	Deposited        prometheus.Counter
	Withdrawn        prometheus.Counter
	OperationErrors  *prometheus.CounterVec
	LatestPostsLimit prometheus.Histogram
}

// New creates and registers the contract metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		PostsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "postledger_posts_created_total",
			Help: "Posts appended to the post store",
		}),
		FeesCollected: f.NewCounterVec(prometheus.CounterOpts{
			Name: "postledger_post_fees_total",
			Help: "Post fee amounts transferred, by recipient",
		}, []string{"recipient"}),
		Deposited: f.NewCounter(prometheus.CounterOpts{
			Name: "postledger_deposited_amount_total",
			Help: "Amount credited by deposits",
		}),
		Withdrawn: f.NewCounter(prometheus.CounterOpts{
			Name: "postledger_withdrawn_amount_total",
			Help: "Amount debited by withdrawals",
		}),
		OperationErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "postledger_operation_errors_total",
			Help: "Failed contract operations by operation and error code",
		}, []string{"operation", "code"}),
		LatestPostsLimit: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "postledger_latest_posts_limit",
			Help:    "Requested limit of latest_posts queries",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 255},
		}),
	}
}

// ObservePost records one successful post and its fee legs.
func (m *Metrics) ObservePost(ownerShare, agentShare domain.Uint128) {
	if m == nil {
		return
	}
	m.PostsCreated.Inc()
	m.FeesCollected.WithLabelValues(RecipientOwner).Add(ownerShare.Float64())
	m.FeesCollected.WithLabelValues(RecipientAgent).Add(agentShare.Float64())
}

// ObserveDeposit records a credited deposit.
func (m *Metrics) ObserveDeposit(amount domain.Uint128) {
	if m == nil {
		return
	}
	m.Deposited.Add(amount.Float64())
}

// ObserveWithdrawal records a debited withdrawal.
func (m *Metrics) ObserveWithdrawal(amount domain.Uint128) {
	if m == nil {
		return
	}
	m.Withdrawn.Add(amount.Float64())
}

// IncrementError counts a failed operation.
func (m *Metrics) IncrementError(operation, code string) {
	if m == nil {
		return
	}
	m.OperationErrors.WithLabelValues(operation, code).Inc()
}

// ObserveLatestPostsLimit records the effective limit of a latest_posts query.
func (m *Metrics) ObserveLatestPostsLimit(limit uint8) {
	if m == nil {
		return
	}
	m.LatestPostsLimit.Observe(float64(limit))
}
