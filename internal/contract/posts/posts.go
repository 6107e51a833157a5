// Package posts numbers and stores posts.
package posts

import (
	"context"
	"errors"
	"iter"
	"math"

	"postledger/internal/contract/models"
	"postledger/internal/contract/store"
	dErrors "postledger/pkg/domain-errors"
	"postledger/pkg/platform/sentinel"
)

// Posts is the post store bound to one unit of work.
type Posts struct {
	st store.PostStore
}

// New binds the post store to the given state.
func New(st store.PostStore) *Posts {
	return &Posts{st: st}
}

// Count returns the number of posts ever appended.
func (p *Posts) Count(ctx context.Context) (uint64, error) {
	n, err := p.st.GetCounter(ctx)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return 0, dErrors.Wrap(err, dErrors.CodeInternal, "contract is not instantiated")
		}
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read post counter")
	}
	return n, nil
}

// NextID advances the counter and returns the new value. Callers must append
// the post in the same unit of work.
func (p *Posts) NextID(ctx context.Context) (uint64, error) {
	n, err := p.Count(ctx)
	if err != nil {
		return 0, err
	}
	if n == math.MaxUint64 {
		return 0, dErrors.New(dErrors.CodeInternal, "post counter overflow")
	}
	n++
	if err := p.st.PutCounter(ctx, n); err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to advance post counter")
	}
	return n, nil
}

// Append stores post under id.
func (p *Posts) Append(ctx context.Context, id uint64, post models.Post) error {
	post.ID = id
	if err := p.st.PutPost(ctx, post); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store post")
	}
	return nil
}

// ListDescending yields up to limit posts, most recent first.
func (p *Posts) ListDescending(ctx context.Context, limit int) iter.Seq2[models.Post, error] {
	return func(yield func(models.Post, error) bool) {
		for post, err := range p.st.PostsDescending(ctx, limit) {
			if err != nil {
				yield(models.Post{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list posts"))
				return
			}
			if !yield(post, nil) {
				return
			}
		}
	}
}
