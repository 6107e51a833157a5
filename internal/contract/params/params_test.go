package params

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"postledger/internal/contract/models"
	"postledger/internal/contract/store"
	"postledger/pkg/domain"
	dErrors "postledger/pkg/domain-errors"
)

func validConfig() models.Config {
	return models.Config{
		Owner:           "juno1owner",
		NameCharLimit:   20,
		PostCharLimit:   140,
		AgentCutPercent: 90,
		PostFee:         domain.NewUint128(10000),
		Denom:           models.DefaultDenom,
	}
}

func TestInitialize(t *testing.T) {
	ctx := context.Background()

	t.Run("stores config and zero counter", func(t *testing.T) {
		s := store.NewInMemoryStore()
		require.NoError(t, s.RunInTx(ctx, func(ctx context.Context, st store.State) error {
			return Initialize(ctx, st, validConfig())
		}))

		require.NoError(t, s.View(ctx, func(ctx context.Context, st store.State) error {
			cfg, err := Load(ctx, st)
			require.NoError(t, err)
			assert.Equal(t, validConfig(), *cfg)
			n, err := st.GetCounter(ctx)
			require.NoError(t, err)
			assert.Zero(t, n)
			return nil
		}))
	})

	t.Run("second initialization is a conflict and keeps the first", func(t *testing.T) {
		s := store.NewInMemoryStore()
		require.NoError(t, s.RunInTx(ctx, func(ctx context.Context, st store.State) error {
			return Initialize(ctx, st, validConfig())
		}))

		other := validConfig()
		other.Owner = "juno1usurper"
		err := s.RunInTx(ctx, func(ctx context.Context, st store.State) error {
			return Initialize(ctx, st, other)
		})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))

		require.NoError(t, s.View(ctx, func(ctx context.Context, st store.State) error {
			cfg, err := Load(ctx, st)
			require.NoError(t, err)
			assert.Equal(t, domain.Address("juno1owner"), cfg.Owner)
			return nil
		}))
	})

	t.Run("rejects agent cut above one hundred", func(t *testing.T) {
		cfg := validConfig()
		cfg.AgentCutPercent = 101
		err := store.NewInMemoryStore().RunInTx(ctx, func(ctx context.Context, st store.State) error {
			return Initialize(ctx, st, cfg)
		})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func TestLoad_Uninitialized(t *testing.T) {
	err := store.NewInMemoryStore().View(context.Background(), func(ctx context.Context, st store.State) error {
		_, err := Load(ctx, st)
		return err
	})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
}
