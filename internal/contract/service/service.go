// Package service runs contract operations inside one unit of work each.
//
// Every mutating operation opens a single store.Store RunInTx scope and runs
// the gate, ledger and post store against it. Any error discards every write
// the operation made, including a fee leg that already succeeded.
package service

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"postledger/internal/contract/gate"
	"postledger/internal/contract/metrics"
	"postledger/internal/contract/models"
	"postledger/internal/contract/store"
	dErrors "postledger/pkg/domain-errors"
	"postledger/pkg/requestcontext"
)

const (
	tracerName = "postledger/contract"

	// DefaultLatestPostsLimit applies when latest_posts omits limit.
	DefaultLatestPostsLimit uint8 = 10
)

// Service implements instantiate, execute and query for the contract.
type Service struct {
	store    store.Store
	verifier gate.Verifier
	denom    string
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger used for operation events.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithMetrics enables contract metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithTracer replaces the global OpenTelemetry tracer.
func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

// WithDenom sets the native denomination recorded at instantiation.
func WithDenom(denom string) Option {
	return func(s *Service) {
		s.denom = denom
	}
}

// New creates a Service backed by st that authorizes posts with verifier.
func New(st store.Store, verifier gate.Verifier, opts ...Option) *Service {
	s := &Service{
		store:    st,
		verifier: verifier,
		denom:    models.DefaultDenom,
		logger:   slog.Default(),
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Execute dispatches msg to the operation it names.
func (s *Service) Execute(ctx context.Context, info models.MessageInfo, msg models.ExecuteMsg) (*models.Response, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	switch {
	case msg.Post != nil:
		return s.Post(ctx, info, *msg.Post)
	case msg.DepositFunds != nil:
		return s.DepositFunds(ctx, info, msg.DepositFunds.Amount)
	default:
		return s.WithdrawFunds(ctx, info, msg.WithdrawFunds.Amount)
	}
}

func (s *Service) startSpan(ctx context.Context, operation string, info models.MessageInfo) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "contract."+operation, trace.WithAttributes(
		attribute.String("contract.operation", operation),
		attribute.String("contract.sender", info.Sender.String()),
	))
}

// finish ends span and accounts for err. It returns err unchanged.
func (s *Service) finish(ctx context.Context, span trace.Span, operation string, err error) error {
	defer span.End()
	if err == nil {
		span.SetStatus(codes.Ok, "")
		return nil
	}
	code := dErrors.CodeOf(err)
	span.RecordError(err)
	span.SetStatus(codes.Error, string(code))
	s.metrics.IncrementError(operation, string(code))

	level := slog.LevelWarn
	if code == dErrors.CodeInternal {
		level = slog.LevelError
	}
	s.logger.Log(ctx, level, "contract operation failed",
		"operation", operation,
		"request_id", requestcontext.RequestID(ctx),
		"code", code,
		"error", err,
	)
	return err
}

func requireSender(info models.MessageInfo) error {
	if info.Sender.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "sender is required")
	}
	return nil
}

// now returns the request time, truncated for storage.
func now(ctx context.Context) time.Time {
	return requestcontext.Now(ctx).UTC().Truncate(time.Microsecond)
}
