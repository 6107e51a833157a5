package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"postledger/internal/contract/models"
	"postledger/pkg/domain"
	"postledger/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.ctx = context.Background()
}

func (s *InMemoryStoreSuite) instantiate() {
	err := s.store.RunInTx(s.ctx, func(ctx context.Context, st State) error {
		if err := st.PutConfig(ctx, models.Config{Owner: "juno1owner", Denom: models.DefaultDenom}); err != nil {
			return err
		}
		return st.PutCounter(ctx, 0)
	})
	s.Require().NoError(err)
}

func (s *InMemoryStoreSuite) TestRunInTx() {
	s.Run("commits writes when fn succeeds", func() {
		s.SetupTest()
		err := s.store.RunInTx(s.ctx, func(ctx context.Context, st State) error {
			return st.PutBalance(ctx, "juno1a", domain.NewUint128(10))
		})
		s.Require().NoError(err)

		s.Require().NoError(s.store.View(s.ctx, func(ctx context.Context, st State) error {
			got, found, err := st.GetBalance(ctx, "juno1a")
			s.Require().NoError(err)
			s.True(found)
			s.Equal(domain.NewUint128(10), got)
			return nil
		}))
	})

	s.Run("discards every write when fn fails", func() {
		s.SetupTest()
		s.instantiate()
		boom := errors.New("second leg failed")
		err := s.store.RunInTx(s.ctx, func(ctx context.Context, st State) error {
			s.Require().NoError(st.PutBalance(ctx, "juno1owner", domain.NewUint128(1000)))
			s.Require().NoError(st.PutCounter(ctx, 1))
			s.Require().NoError(st.PutPost(ctx, models.Post{ID: 1, Content: "x"}))
			s.Require().NoError(st.AppendInstruction(ctx, models.NewBankInstruction("juno1a", domain.NewUint128(1), models.DefaultDenom, time.Now())))
			return boom
		})
		s.Require().ErrorIs(err, boom)

		s.Require().NoError(s.store.View(s.ctx, func(ctx context.Context, st State) error {
			_, found, _ := st.GetBalance(ctx, "juno1owner")
			s.False(found)
			n, err := st.GetCounter(ctx)
			s.Require().NoError(err)
			s.Equal(uint64(0), n)
			_, err = st.GetPost(ctx, 1)
			s.ErrorIs(err, sentinel.ErrNotFound)
			return nil
		}))
		s.Empty(s.store.Instructions())
	})

	s.Run("reads see staged writes", func() {
		s.SetupTest()
		err := s.store.RunInTx(s.ctx, func(ctx context.Context, st State) error {
			s.Require().NoError(st.PutBalance(ctx, "juno1a", domain.NewUint128(3)))
			got, found, err := st.GetBalance(ctx, "juno1a")
			s.Require().NoError(err)
			s.True(found)
			s.Equal(domain.NewUint128(3), got)
			return nil
		})
		s.Require().NoError(err)
	})

	s.Run("cancelled context never runs fn", func() {
		s.SetupTest()
		ctx, cancel := context.WithCancel(s.ctx)
		cancel()
		called := false
		err := s.store.RunInTx(ctx, func(context.Context, State) error {
			called = true
			return nil
		})
		s.Error(err)
		s.False(called)
	})
}

func (s *InMemoryStoreSuite) TestWriteOnceRecords() {
	s.SetupTest()
	s.instantiate()

	err := s.store.RunInTx(s.ctx, func(ctx context.Context, st State) error {
		return st.PutConfig(ctx, models.Config{Owner: "juno1other"})
	})
	s.ErrorIs(err, sentinel.ErrConflict)

	err = s.store.RunInTx(s.ctx, func(ctx context.Context, st State) error {
		s.Require().NoError(st.PutPost(ctx, models.Post{ID: 1}))
		return st.PutPost(ctx, models.Post{ID: 1})
	})
	s.ErrorIs(err, sentinel.ErrConflict)
}

func (s *InMemoryStoreSuite) TestViewIsReadOnly() {
	s.SetupTest()
	err := s.store.View(s.ctx, func(ctx context.Context, st State) error {
		return st.PutBalance(ctx, "juno1a", domain.NewUint128(1))
	})
	s.ErrorIs(err, sentinel.ErrReadOnly)

	err = s.store.View(s.ctx, func(ctx context.Context, st State) error {
		_, err := st.GetConfig(ctx)
		return err
	})
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestPostsDescending() {
	s.SetupTest()
	s.instantiate()
	s.Require().NoError(s.store.RunInTx(s.ctx, func(ctx context.Context, st State) error {
		for id := uint64(1); id <= 5; id++ {
			if err := st.PutPost(ctx, models.Post{ID: id, Content: "post"}); err != nil {
				return err
			}
		}
		return st.PutCounter(ctx, 5)
	}))

	collect := func(limit int) []uint64 {
		var ids []uint64
		s.Require().NoError(s.store.View(s.ctx, func(ctx context.Context, st State) error {
			for p, err := range st.PostsDescending(ctx, limit) {
				if err != nil {
					return err
				}
				ids = append(ids, p.ID)
			}
			return nil
		}))
		return ids
	}

	s.Equal([]uint64{5, 4, 3}, collect(3))
	s.Equal([]uint64{5, 4, 3, 2, 1}, collect(10))
	s.Empty(collect(0))
}

func (s *InMemoryStoreSuite) TestOutboxRelayView() {
	s.SetupTest()
	first := models.NewBankInstruction("juno1a", domain.NewUint128(1), models.DefaultDenom, time.Now())
	second := models.NewBankInstruction("juno1b", domain.NewUint128(2), models.DefaultDenom, time.Now())
	s.Require().NoError(s.store.RunInTx(s.ctx, func(ctx context.Context, st State) error {
		s.Require().NoError(st.AppendInstruction(ctx, first))
		return st.AppendInstruction(ctx, second)
	}))

	pending, err := s.store.PendingInstructions(s.ctx, 1)
	s.Require().NoError(err)
	s.Require().Len(pending, 1)
	s.Equal(first.ID, pending[0].ID)

	s.Require().NoError(s.store.MarkDispatched(s.ctx, []uuid.UUID{first.ID}, time.Now()))
	pending, err = s.store.PendingInstructions(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(pending, 1)
	s.Equal(second.ID, pending[0].ID)
}
