package posts

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"postledger/internal/contract/models"
	"postledger/internal/contract/store"
	dErrors "postledger/pkg/domain-errors"
)

func newInstantiated(t *testing.T) *store.InMemoryStore {
	t.Helper()
	s := store.NewInMemoryStore()
	require.NoError(t, s.RunInTx(context.Background(), func(ctx context.Context, st store.State) error {
		return st.PutCounter(ctx, 0)
	}))
	return s
}

func appendPost(t *testing.T, s *store.InMemoryStore, content string) uint64 {
	t.Helper()
	var id uint64
	require.NoError(t, s.RunInTx(context.Background(), func(ctx context.Context, st store.State) error {
		p := New(st)
		var err error
		id, err = p.NextID(ctx)
		if err != nil {
			return err
		}
		return p.Append(ctx, id, models.Post{PosterAddress: "juno1user", Username: "alice", Content: content})
	}))
	return id
}

func TestPosts_IDsAreSequentialFromOne(t *testing.T) {
	s := newInstantiated(t)
	for want := uint64(1); want <= 3; want++ {
		assert.Equal(t, want, appendPost(t, s, "hello"))
	}
}

func TestPosts_FailedAppendDoesNotConsumeID(t *testing.T) {
	s := newInstantiated(t)
	appendPost(t, s, "first")

	boom := errors.New("fee transfer failed")
	err := s.RunInTx(context.Background(), func(ctx context.Context, st store.State) error {
		if _, err := New(st).NextID(ctx); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	assert.Equal(t, uint64(2), appendPost(t, s, "second"))
}

func TestPosts_ListDescending(t *testing.T) {
	s := newInstantiated(t)
	for _, c := range []string{"a", "b", "c", "d"} {
		appendPost(t, s, c)
	}

	var contents []string
	require.NoError(t, s.View(context.Background(), func(ctx context.Context, st store.State) error {
		p := New(st)
		n, err := p.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(4), n)

		for post, err := range p.ListDescending(ctx, 2) {
			if err != nil {
				return err
			}
			contents = append(contents, post.Content)
		}
		return nil
	}))
	assert.Equal(t, []string{"d", "c"}, contents)
}

func TestPosts_CountBeforeInstantiation(t *testing.T) {
	err := store.NewInMemoryStore().View(context.Background(), func(ctx context.Context, st store.State) error {
		_, err := New(st).Count(ctx)
		return err
	})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
}
