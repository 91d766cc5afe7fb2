// Package redis provides a Redis-backed credential store, letting several
// shells on one machine or one kiosk fleet share a signed-in session.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ExpiryFunc reports the absolute expiry of a credential, ok=false when unknown.
type ExpiryFunc func(token string) (expiresAt time.Time, ok bool)

// ErrExpired is returned by Set when the credential has already expired.
var ErrExpired = errors.New("credential is expired")

// TokenStore keeps the raw credential under <prefix><key>.
// When an ExpiryFunc is configured the key TTL follows the credential expiry.
type TokenStore struct {
	client redis.UniversalClient
	key    string
	expiry ExpiryFunc
}

// TokenStoreOptions groups dependencies for NewTokenStore.
type TokenStoreOptions struct {
	Client redis.UniversalClient
	Prefix string
	Key    string
	Expiry ExpiryFunc
}

// NewTokenStore creates a Redis-based token store.
func NewTokenStore(opts TokenStoreOptions) (*TokenStore, error) {
	if opts.Client == nil {
		return nil, errors.New("redis client is required")
	}
	if opts.Key == "" {
		return nil, errors.New("storage key is required")
	}
	return &TokenStore{
		client: opts.Client,
		key:    opts.Prefix + opts.Key,
		expiry: opts.Expiry,
	}, nil
}

// Key returns the fully prefixed Redis key.
func (s *TokenStore) Key() string { return s.key }

// Get returns the stored credential; a missing key means absent.
func (s *TokenStore) Get(ctx context.Context) (string, bool, error) {
	token, err := s.client.Get(ctx, s.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("redis get: %w", err)
	}
	if token == "" {
		return "", false, nil
	}
	return token, true, nil
}

// Set stores token, with a TTL matching its expiry when one is known.
func (s *TokenStore) Set(ctx context.Context, token string) error {
	if token == "" {
		return errors.New("token cannot be empty")
	}

	var ttl time.Duration
	if s.expiry != nil {
		if exp, ok := s.expiry(token); ok {
			ttl = time.Until(exp)
			if ttl <= 0 {
				return ErrExpired
			}
		}
	}

	if err := s.client.Set(ctx, s.key, token, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Clear deletes the key. Deleting a missing key is not an error.
func (s *TokenStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
