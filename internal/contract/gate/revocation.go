package gate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultRedisKeyPrefix = "postledger:"
	revokedTokenKeySuffix = "trl:jti:"
)

// RevocationList records revoked token IDs until their tokens expire.
type RevocationList interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

func validateTTL(ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("ttl must be positive, got %s", ttl)
	}
	return nil
}

// InMemoryRevocationList is a single-process RevocationList.
type InMemoryRevocationList struct {
	mu      sync.Mutex
	expires map[string]time.Time
	now     func() time.Time
}

// NewInMemoryRevocationList returns an empty list.
func NewInMemoryRevocationList() *InMemoryRevocationList {
	return &InMemoryRevocationList{
		expires: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (l *InMemoryRevocationList) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	if jti == "" {
		return nil
	}
	if err := validateTTL(ttl); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.expires[jti] = l.now().Add(ttl)
	return nil
}

func (l *InMemoryRevocationList) IsRevoked(_ context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	exp, ok := l.expires[jti]
	if !ok {
		return false, nil
	}
	if !l.now().Before(exp) {
		delete(l.expires, jti)
		return false, nil
	}
	return true, nil
}

// RedisRevocationList shares revocations across instances.
type RedisRevocationList struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisRevocationList wraps an existing client. The caller owns its
// lifecycle. Keys are namespaced under keyPrefix, "postledger:" when empty.
func NewRedisRevocationList(client redis.UniversalClient, keyPrefix string) *RedisRevocationList {
	if keyPrefix == "" {
		keyPrefix = defaultRedisKeyPrefix
	}
	return &RedisRevocationList{client: client, prefix: keyPrefix + revokedTokenKeySuffix}
}

func (r *RedisRevocationList) key(jti string) string {
	return r.prefix + jti
}

// Revoke stores a marker key with SETEX semantics.
func (r *RedisRevocationList) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if jti == "" {
		return nil
	}
	if err := validateTTL(ttl); err != nil {
		return err
	}
	return r.client.Set(ctx, r.key(jti), "1", ttl).Err()
}

// IsRevoked reports whether the marker key exists.
func (r *RedisRevocationList) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	_, err := r.client.Get(ctx, r.key(jti)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
