// Package gate turns a posting token into a trusted identity.
//
// The gate performs no cryptography itself. A Verifier does the checking and
// any token failure it reports surfaces as unauthorized.
package gate

import (
	"context"
	"errors"

	"postledger/pkg/domain"
	dErrors "postledger/pkg/domain-errors"
)

// Identity is the trusted result of verifying a token.
type Identity struct {
	User     domain.Address
	Username string
	Agent    domain.Address
	// TokenID identifies the token for revocation. May be empty.
	TokenID string
}

// Verifier checks a token and returns the identity it carries.
type Verifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}

// Authorized pairs an action with the identity allowed to perform it.
type Authorized[T any] struct {
	Actor    domain.Address
	Username string
	Agent    domain.Address
	Action   T
}

// Authorize verifies token and wraps action with the resulting identity.
// Verifier faults are unauthorized unless the verifier coded them internal,
// such as an unreachable revocation list.
func Authorize[T any](ctx context.Context, v Verifier, token string, action T) (Authorized[T], error) {
	if token == "" {
		return Authorized[T]{}, dErrors.New(dErrors.CodeUnauthorized, "missing token")
	}
	id, err := v.Verify(ctx, token)
	if err != nil {
		var coded *dErrors.Error
		if errors.As(err, &coded) && (coded.Code == dErrors.CodeUnauthorized || coded.Code == dErrors.CodeInternal) {
			return Authorized[T]{}, err
		}
		return Authorized[T]{}, dErrors.Wrap(err, dErrors.CodeUnauthorized, "token verification failed")
	}
	if id.User.IsZero() || id.Agent.IsZero() {
		return Authorized[T]{}, dErrors.New(dErrors.CodeUnauthorized, "token identity is incomplete")
	}
	return Authorized[T]{
		Actor:    id.User,
		Username: id.Username,
		Agent:    id.Agent,
		Action:   action,
	}, nil
}
