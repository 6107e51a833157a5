package gate

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"postledger/pkg/domain"
	dErrors "postledger/pkg/domain-errors"
)

// Claims are the posting-token claims.
type Claims struct {
	User     string `json:"user"`
	Username string `json:"username"`
	Agent    string `json:"agent"`
	jwt.RegisteredClaims
}

// JWTVerifier validates HMAC-signed posting tokens bound to one contract.
type JWTVerifier struct {
	signingKey []byte
	issuer     string
	audience   string
	revoked    RevocationList
	now        func() time.Time
}

// VerifierOption configures a JWTVerifier.
type VerifierOption func(*JWTVerifier)

// WithRevocationList rejects tokens whose jti has been revoked.
func WithRevocationList(list RevocationList) VerifierOption {
	return func(v *JWTVerifier) {
		v.revoked = list
	}
}

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) VerifierOption {
	return func(v *JWTVerifier) {
		v.now = now
	}
}

// NewJWTVerifier accepts tokens from issuer whose audience is contractID.
func NewJWTVerifier(signingKey, issuer, contractID string, opts ...VerifierOption) *JWTVerifier {
	v := &JWTVerifier{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		audience:   contractID,
		now:        time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(v)
		}
	}
	return v
}

// Verify implements Verifier.
func (v *JWTVerifier) Verify(ctx context.Context, token string) (Identity, error) {
	claims, err := v.parse(token)
	if err != nil {
		return Identity{}, err
	}

	if v.revoked != nil {
		revoked, err := v.revoked.IsRevoked(ctx, claims.ID)
		if err != nil {
			return Identity{}, dErrors.Wrap(err, dErrors.CodeInternal, "revocation check failed")
		}
		if revoked {
			return Identity{}, dErrors.New(dErrors.CodeUnauthorized, "token has been revoked")
		}
	}

	user, err := domain.ParseAddress(claims.User)
	if err != nil {
		return Identity{}, dErrors.New(dErrors.CodeUnauthorized, "invalid user claim")
	}
	agent, err := domain.ParseAddress(claims.Agent)
	if err != nil {
		return Identity{}, dErrors.New(dErrors.CodeUnauthorized, "invalid agent claim")
	}
	return Identity{
		User:     user,
		Username: claims.Username,
		Agent:    agent,
		TokenID:  claims.ID,
	}, nil
}

// Revoke adds the token's jti to the revocation list until the token expires.
func (v *JWTVerifier) Revoke(ctx context.Context, token string) error {
	if v.revoked == nil {
		return dErrors.New(dErrors.CodeInternal, "revocation is not configured")
	}
	claims, err := v.parse(token)
	if err != nil {
		return err
	}
	if claims.ID == "" {
		return dErrors.New(dErrors.CodeValidation, "token has no jti")
	}
	ttl := claims.ExpiresAt.Sub(v.now())
	if ttl <= 0 {
		return nil
	}
	if err := v.revoked.Revoke(ctx, claims.ID, ttl); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke token")
	}
	return nil
}

func (v *JWTVerifier) parse(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return v.signingKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(v.audience),
		jwt.WithIssuer(v.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	return claims, nil
}

// Issuer mints posting tokens accepted by a JWTVerifier with the same settings.
type Issuer struct {
	signingKey []byte
	issuer     string
	audience   string
	now        func() time.Time
}

// NewIssuer creates an Issuer for contractID.
func NewIssuer(signingKey, issuer, contractID string) *Issuer {
	return &Issuer{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		audience:   contractID,
		now:        time.Now,
	}
}

// Issue signs a token for user, naming agent as the fee recipient.
func (i *Issuer) Issue(user domain.Address, username string, agent domain.Address, ttl time.Duration) (string, error) {
	now := i.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		User:     user.String(),
		Username: username,
		Agent:    agent.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    i.issuer,
			Audience:  []string{i.audience},
			ID:        uuid.NewString(),
		},
	})
	signed, err := token.SignedString(i.signingKey)
	if err != nil {
		return "", err
	}
	return signed, nil
}
