package models

import "postledger/pkg/domain"

// Post is an immutable, sequentially numbered message.
type Post struct {
	ID            uint64         `json:"id"`
	PosterAddress domain.Address `json:"poster_address"`
	Username      string         `json:"username"`
	Content       string         `json:"content"`
}
