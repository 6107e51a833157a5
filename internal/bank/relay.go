// Package bank relays withdrawal bank sends from the outbox to the
// asset-transfer primitive.
//
// Delivery is at least once: an instruction stays pending until its publish
// succeeds and it has been marked dispatched.
package bank

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"postledger/internal/contract/store"
	"postledger/pkg/platform/circuit"
)

const (
	defaultInterval  = time.Second
	defaultBatchSize = 100
)

// Relay drains the outbox on an interval.
type Relay struct {
	outbox    store.Outbox
	publisher Publisher
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
	now       func() time.Time
	breaker   *circuit.Breaker

	published prometheus.Counter
	failed    prometheus.Counter
}

// Option configures a Relay.
type Option func(*Relay)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Relay) {
		r.logger = logger
	}
}

func WithInterval(d time.Duration) Option {
	return func(r *Relay) {
		if d > 0 {
			r.interval = d
		}
	}
}

func WithBatchSize(n int) Option {
	return func(r *Relay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

// WithBreaker skips flushes while the publisher keeps failing.
func WithBreaker(b *circuit.Breaker) Option {
	return func(r *Relay) {
		r.breaker = b
	}
}

// WithRegisterer registers relay counters on reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(r *Relay) {
		f := promauto.With(reg)
		r.published = f.NewCounter(prometheus.CounterOpts{
			Name: "postledger_bank_instructions_published_total",
			Help: "Bank instructions relayed to the publisher",
		})
		r.failed = f.NewCounter(prometheus.CounterOpts{
			Name: "postledger_bank_instructions_failed_total",
			Help: "Bank instruction publish attempts that failed",
		})
	}
}

// NewRelay creates a Relay reading outbox and writing to publisher.
func NewRelay(outbox store.Outbox, publisher Publisher, opts ...Option) *Relay {
	r := &Relay{
		outbox:    outbox,
		publisher: publisher,
		logger:    slog.Default(),
		interval:  defaultInterval,
		batchSize: defaultBatchSize,
		now:       time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Run flushes on every tick until ctx is done.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.InfoContext(ctx, "bank relay started", "interval", r.interval, "batch_size", r.batchSize)
	for {
		select {
		case <-ctx.Done():
			r.logger.InfoContext(ctx, "bank relay stopped")
			return nil
		case <-ticker.C:
			if _, err := r.Flush(ctx); err != nil && !errors.Is(err, context.Canceled) {
				r.logger.ErrorContext(ctx, "bank relay flush failed", "error", err)
			}
		}
	}
}

// Flush publishes one batch of pending instructions in creation order and
// returns how many were dispatched. It stops at the first publish failure so
// later sends never overtake an earlier one.
func (r *Relay) Flush(ctx context.Context) (int, error) {
	if r.breaker != nil && !r.breaker.Allow() {
		return 0, nil
	}
	pending, err := r.outbox.PendingInstructions(ctx, r.batchSize)
	if err != nil {
		r.recordFailure(ctx)
		return 0, err
	}
	if len(pending) == 0 {
		r.recordSuccess(ctx)
		return 0, nil
	}

	dispatched := make([]uuid.UUID, 0, len(pending))
	var publishErr error
	for _, ins := range pending {
		if err := r.publisher.Publish(ctx, ins); err != nil {
			publishErr = err
			if r.failed != nil {
				r.failed.Inc()
			}
			r.logger.WarnContext(ctx, "bank send publish failed",
				"instruction_id", ins.ID,
				"error", err,
			)
			r.recordFailure(ctx)
			break
		}
		dispatched = append(dispatched, ins.ID)
	}
	if publishErr == nil {
		r.recordSuccess(ctx)
	}

	if len(dispatched) > 0 {
		if err := r.outbox.MarkDispatched(ctx, dispatched, r.now().UTC()); err != nil {
			return 0, errors.Join(publishErr, err)
		}
		if r.published != nil {
			r.published.Add(float64(len(dispatched)))
		}
	}
	return len(dispatched), publishErr
}

func (r *Relay) recordSuccess(ctx context.Context) {
	if r.breaker != nil && r.breaker.RecordSuccess() {
		r.logger.InfoContext(ctx, "bank publisher recovered", "breaker", r.breaker.Name())
	}
}

func (r *Relay) recordFailure(ctx context.Context) {
	if r.breaker != nil && r.breaker.RecordFailure() {
		r.logger.WarnContext(ctx, "bank publisher circuit opened", "breaker", r.breaker.Name())
	}
}
