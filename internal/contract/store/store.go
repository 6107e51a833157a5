// Package store defines the transactional state behind the contract.
//
// Every contract operation runs inside exactly one unit of work. RunInTx
// commits all writes made through State when fn returns nil and discards
// them otherwise; View gives a consistent read-only State.
package store

import (
	"context"
	"iter"
	"time"

	"github.com/google/uuid"

	"postledger/internal/contract/models"
	"postledger/pkg/domain"
)

// ConfigStore persists the singleton configuration.
type ConfigStore interface {
	// GetConfig returns sentinel.ErrNotFound before instantiation.
	GetConfig(ctx context.Context) (*models.Config, error)
	// PutConfig returns sentinel.ErrConflict if a configuration exists.
	PutConfig(ctx context.Context, cfg models.Config) error
}

// BalanceStore persists per-address balances.
type BalanceStore interface {
	GetBalance(ctx context.Context, addr domain.Address) (amount domain.Uint128, found bool, err error)
	PutBalance(ctx context.Context, addr domain.Address, amount domain.Uint128) error
}

// PostStore persists posts and the post counter.
type PostStore interface {
	// GetCounter returns sentinel.ErrNotFound before instantiation.
	GetCounter(ctx context.Context) (uint64, error)
	PutCounter(ctx context.Context, n uint64) error
	GetPost(ctx context.Context, id uint64) (*models.Post, error)
	// PutPost returns sentinel.ErrConflict if the id is taken.
	PutPost(ctx context.Context, post models.Post) error
	// PostsDescending yields at most limit posts, highest id first.
	PostsDescending(ctx context.Context, limit int) iter.Seq2[models.Post, error]
}

// OutboxStore receives bank instructions inside the contract unit of work.
type OutboxStore interface {
	AppendInstruction(ctx context.Context, ins models.BankInstruction) error
}

// State is the view of contract storage available inside a unit of work.
type State interface {
	ConfigStore
	BalanceStore
	PostStore
	OutboxStore
}

// Store runs units of work against contract state.
type Store interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, st State) error) error
	View(ctx context.Context, fn func(ctx context.Context, st State) error) error
}

// Outbox is the relay-facing side of the bank instruction outbox.
type Outbox interface {
	PendingInstructions(ctx context.Context, limit int) ([]models.BankInstruction, error)
	MarkDispatched(ctx context.Context, ids []uuid.UUID, at time.Time) error
}
