//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"postledger/internal/contract/models"
	"postledger/internal/contract/store"
	"postledger/internal/contract/store/postgres"
	"postledger/pkg/domain"
	"postledger/pkg/platform/sentinel"
	"postledger/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *postgres.Store
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.Require().NoError(postgres.Migrate(context.Background(), s.postgres.DB))
	s.store = postgres.New(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(),
		"contract_config", "balances", "post_counter", "posts", "bank_outbox")
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) TestMigrateIsIdempotent() {
	s.Require().NoError(postgres.Migrate(context.Background(), s.postgres.DB))
}

func (s *PostgresStoreSuite) TestFailedUnitOfWorkLeavesNoTrace() {
	ctx := context.Background()
	boom := errors.New("second transfer failed")

	err := s.store.RunInTx(ctx, func(ctx context.Context, st store.State) error {
		s.Require().NoError(st.PutBalance(ctx, "juno1owner", domain.NewUint128(1000)))
		s.Require().NoError(st.PutCounter(ctx, 1))
		s.Require().NoError(st.PutPost(ctx, models.Post{ID: 1, PosterAddress: "juno1user", Username: "u", Content: "c"}))
		return boom
	})
	s.Require().ErrorIs(err, boom)

	s.Require().NoError(s.store.View(ctx, func(ctx context.Context, st store.State) error {
		_, found, err := st.GetBalance(ctx, "juno1owner")
		s.Require().NoError(err)
		s.False(found)
		_, err = st.GetCounter(ctx)
		s.ErrorIs(err, sentinel.ErrNotFound)
		return nil
	}))
}

func (s *PostgresStoreSuite) TestConfigIsWriteOnce() {
	ctx := context.Background()
	cfg := models.Config{Owner: "juno1owner", NameCharLimit: 20, PostCharLimit: 140, AgentCutPercent: 90, PostFee: domain.NewUint128(10000), Denom: "ujunox", Contract: models.ContractName, Version: models.ContractVersion}

	s.Require().NoError(s.store.RunInTx(ctx, func(ctx context.Context, st store.State) error {
		return st.PutConfig(ctx, cfg)
	}))
	err := s.store.RunInTx(ctx, func(ctx context.Context, st store.State) error {
		return st.PutConfig(ctx, models.Config{Owner: "juno1thief", Denom: "ujunox"})
	})
	s.ErrorIs(err, sentinel.ErrConflict)

	s.Require().NoError(s.store.View(ctx, func(ctx context.Context, st store.State) error {
		got, err := st.GetConfig(ctx)
		s.Require().NoError(err)
		s.Equal(cfg, *got)
		return nil
	}))
}

func (s *PostgresStoreSuite) TestLargeBalancesRoundTrip() {
	ctx := context.Background()
	big := domain.MaxUint128

	s.Require().NoError(s.store.RunInTx(ctx, func(ctx context.Context, st store.State) error {
		return st.PutBalance(ctx, "juno1whale", big)
	}))
	s.Require().NoError(s.store.View(ctx, func(ctx context.Context, st store.State) error {
		got, found, err := st.GetBalance(ctx, "juno1whale")
		s.Require().NoError(err)
		s.True(found)
		s.Equal(big, got)
		return nil
	}))
}

// TestConcurrentIncrementsSerialize checks that the advisory lock makes
// read-modify-write units of work behave as if run one at a time.
func (s *PostgresStoreSuite) TestConcurrentIncrementsSerialize() {
	ctx := context.Background()
	s.Require().NoError(s.store.RunInTx(ctx, func(ctx context.Context, st store.State) error {
		return st.PutCounter(ctx, 0)
	}))

	const workers = 20
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.store.RunInTx(ctx, func(ctx context.Context, st store.State) error {
				n, err := st.GetCounter(ctx)
				if err != nil {
					return err
				}
				return st.PutCounter(ctx, n+1)
			})
			s.NoError(err)
		}()
	}
	wg.Wait()

	s.Require().NoError(s.store.View(ctx, func(ctx context.Context, st store.State) error {
		n, err := st.GetCounter(ctx)
		s.Require().NoError(err)
		s.Equal(uint64(workers), n)
		return nil
	}))
}

func (s *PostgresStoreSuite) TestOutboxLifecycle() {
	ctx := context.Background()
	ins := models.NewBankInstruction("juno1user", domain.NewUint128(250), "ujunox", time.Now().UTC())

	s.Require().NoError(s.store.RunInTx(ctx, func(ctx context.Context, st store.State) error {
		return st.AppendInstruction(ctx, ins)
	}))

	pending, err := s.store.PendingInstructions(ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(pending, 1)
	s.Equal(ins.ID, pending[0].ID)
	s.Equal(ins.Amount, pending[0].Amount)

	s.Require().NoError(s.store.MarkDispatched(ctx, []uuid.UUID{ins.ID}, time.Now()))
	pending, err = s.store.PendingInstructions(ctx, 10)
	s.Require().NoError(err)
	s.Empty(pending)
}
