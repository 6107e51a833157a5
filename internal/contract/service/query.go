package service

import (
	"context"

	"postledger/internal/contract/ledger"
	"postledger/internal/contract/models"
	"postledger/internal/contract/posts"
	"postledger/internal/contract/store"
	"postledger/pkg/domain"
)

// PostCount returns the number of posts created.
func (s *Service) PostCount(ctx context.Context) (*models.PostCountResponse, error) {
	var count uint64
	err := s.store.View(ctx, func(ctx context.Context, st store.State) error {
		var err error
		count, err = posts.New(st).Count(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &models.PostCountResponse{Count: count}, nil
}

// LatestPosts returns up to limit posts, newest first. A nil limit means
// DefaultLatestPostsLimit.
func (s *Service) LatestPosts(ctx context.Context, limit *uint8) (*models.LatestPostsResponse, error) {
	n := DefaultLatestPostsLimit
	if limit != nil {
		n = *limit
	}
	s.metrics.ObserveLatestPostsLimit(n)

	out := make([]models.Post, 0, n)
	err := s.store.View(ctx, func(ctx context.Context, st store.State) error {
		for post, err := range posts.New(st).ListDescending(ctx, int(n)) {
			if err != nil {
				return err
			}
			out = append(out, post)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &models.LatestPostsResponse{Posts: out}, nil
}

// GetBalance returns the balance of address, zero if it never held funds.
func (s *Service) GetBalance(ctx context.Context, address string) (*models.GetBalanceResponse, error) {
	addr, err := domain.ParseAddress(address)
	if err != nil {
		return nil, err
	}
	var balance domain.Uint128
	err = s.store.View(ctx, func(ctx context.Context, st store.State) error {
		var err error
		balance, err = ledger.New(st).Read(ctx, addr)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &models.GetBalanceResponse{Balance: balance}, nil
}
