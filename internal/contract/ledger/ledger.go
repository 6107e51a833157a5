// Package ledger keeps per-address balances of the native denomination.
//
// The ledger never rolls back on its own. Every transfer that belongs to one
// logical operation must run inside the same store unit of work.
package ledger

import (
	"context"
	"errors"

	"postledger/internal/contract/models"
	"postledger/internal/contract/store"
	"postledger/pkg/domain"
	dErrors "postledger/pkg/domain-errors"
)

// Ledger applies balance mutations to a unit of work.
type Ledger struct {
	st store.BalanceStore
}

// New binds a ledger to the given state.
func New(st store.BalanceStore) *Ledger {
	return &Ledger{st: st}
}

// Read returns the balance of addr, zero if never credited.
func (l *Ledger) Read(ctx context.Context, addr domain.Address) (domain.Uint128, error) {
	amount, _, err := l.st.GetBalance(ctx, addr)
	if err != nil {
		return domain.Uint128{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read balance")
	}
	return amount, nil
}

// Credit adds amount to addr and returns the new balance.
func (l *Ledger) Credit(ctx context.Context, addr domain.Address, amount domain.Uint128) (domain.Uint128, error) {
	current, err := l.Read(ctx, addr)
	if err != nil {
		return domain.Uint128{}, err
	}
	next, err := current.Add(amount)
	if err != nil {
		return domain.Uint128{}, dErrors.Wrap(err, dErrors.CodeInternal, "balance overflow")
	}
	if err := l.st.PutBalance(ctx, addr, next); err != nil {
		return domain.Uint128{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to write balance")
	}
	return next, nil
}

// Debit removes amount from addr and returns the new balance. Nothing is
// written when the balance does not cover amount.
func (l *Ledger) Debit(ctx context.Context, addr domain.Address, amount domain.Uint128) (domain.Uint128, error) {
	current, err := l.Read(ctx, addr)
	if err != nil {
		return domain.Uint128{}, err
	}
	next, err := current.Sub(amount)
	if errors.Is(err, domain.ErrUnderflow) {
		return domain.Uint128{}, &models.InsufficientFundsError{Available: current, Requested: amount}
	}
	if err != nil {
		return domain.Uint128{}, dErrors.Wrap(err, dErrors.CodeInternal, "balance arithmetic failed")
	}
	if err := l.st.PutBalance(ctx, addr, next); err != nil {
		return domain.Uint128{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to write balance")
	}
	return next, nil
}

// Transfer debits from and credits to. The two writes are only atomic
// together with the surrounding unit of work.
func (l *Ledger) Transfer(ctx context.Context, from, to domain.Address, amount domain.Uint128) error {
	if _, err := l.Debit(ctx, from, amount); err != nil {
		return err
	}
	if _, err := l.Credit(ctx, to, amount); err != nil {
		return err
	}
	return nil
}
