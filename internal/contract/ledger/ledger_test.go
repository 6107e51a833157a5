package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"postledger/internal/contract/models"
	"postledger/internal/contract/store"
	"postledger/pkg/domain"
	dErrors "postledger/pkg/domain-errors"
)

func inTx(t *testing.T, s *store.InMemoryStore, fn func(ctx context.Context, l *Ledger) error) error {
	t.Helper()
	return s.RunInTx(context.Background(), func(ctx context.Context, st store.State) error {
		return fn(ctx, New(st))
	})
}

func balance(t *testing.T, s *store.InMemoryStore, addr domain.Address) domain.Uint128 {
	t.Helper()
	var got domain.Uint128
	require.NoError(t, s.View(context.Background(), func(ctx context.Context, st store.State) error {
		var err error
		got, err = New(st).Read(ctx, addr)
		return err
	}))
	return got
}

func TestLedger_ReadDefaultsToZero(t *testing.T) {
	assert.True(t, balance(t, store.NewInMemoryStore(), "juno1nobody").IsZero())
}

func TestLedger_CreditDebitRoundTrip(t *testing.T) {
	s := store.NewInMemoryStore()
	require.NoError(t, inTx(t, s, func(ctx context.Context, l *Ledger) error {
		_, err := l.Credit(ctx, "juno1a", domain.NewUint128(70))
		return err
	}))

	require.NoError(t, inTx(t, s, func(ctx context.Context, l *Ledger) error {
		up, err := l.Credit(ctx, "juno1a", domain.NewUint128(30))
		require.NoError(t, err)
		assert.Equal(t, domain.NewUint128(100), up)
		down, err := l.Debit(ctx, "juno1a", domain.NewUint128(30))
		require.NoError(t, err)
		assert.Equal(t, domain.NewUint128(70), down)
		return nil
	}))
	assert.Equal(t, domain.NewUint128(70), balance(t, s, "juno1a"))
}

func TestLedger_DebitNeverGoesNegative(t *testing.T) {
	s := store.NewInMemoryStore()
	require.NoError(t, inTx(t, s, func(ctx context.Context, l *Ledger) error {
		_, err := l.Credit(ctx, "juno1a", domain.NewUint128(9999))
		return err
	}))

	err := inTx(t, s, func(ctx context.Context, l *Ledger) error {
		_, err := l.Debit(ctx, "juno1a", domain.NewUint128(10000))
		return err
	})
	var insufficient *models.InsufficientFundsError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, domain.NewUint128(9999), insufficient.Available)
	assert.Equal(t, domain.NewUint128(10000), insufficient.Requested)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInsufficientFunds))
	assert.Equal(t, domain.NewUint128(9999), balance(t, s, "juno1a"))
}

func TestLedger_CreditOverflowIsFatal(t *testing.T) {
	s := store.NewInMemoryStore()
	err := inTx(t, s, func(ctx context.Context, l *Ledger) error {
		if _, err := l.Credit(ctx, "juno1a", domain.MaxUint128); err != nil {
			return err
		}
		_, err := l.Credit(ctx, "juno1a", domain.NewUint128(1))
		return err
	})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
	assert.ErrorIs(t, err, domain.ErrOverflow)
	assert.True(t, balance(t, s, "juno1a").IsZero(), "failed unit of work leaves no balance")
}

func TestLedger_TransferFailureNeedsOuterRollback(t *testing.T) {
	s := store.NewInMemoryStore()
	require.NoError(t, inTx(t, s, func(ctx context.Context, l *Ledger) error {
		_, err := l.Credit(ctx, "juno1user", domain.NewUint128(1500))
		return err
	}))

	err := inTx(t, s, func(ctx context.Context, l *Ledger) error {
		if err := l.Transfer(ctx, "juno1user", "juno1owner", domain.NewUint128(1000)); err != nil {
			return err
		}
		return l.Transfer(ctx, "juno1user", "juno1agent", domain.NewUint128(1000))
	})
	require.Error(t, err)

	assert.Equal(t, domain.NewUint128(1500), balance(t, s, "juno1user"))
	assert.True(t, balance(t, s, "juno1owner").IsZero(), "first leg rolled back with the unit of work")
	assert.True(t, balance(t, s, "juno1agent").IsZero())
}
