// Package rediscodestore is a store.Store backed by github.com/redis/go-redis/v9,
// the client the teacher used in infra/cache/client/client_cache_redis.go for
// its own distributed cache provider. Use this instead of store/codestore
// when the token endpoint runs behind more than one instance, so a code
// issued by one instance can be redeemed on another.
package rediscodestore

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sunsided/go-oidcserver/infra/ucerr"
)

// Store is a store.Store backed by a Redis client.
type Store struct {
	rc     *redis.Client
	prefix string
}

// New builds a Store. prefix namespaces keys so this store can share a
// Redis instance with other consumers.
func New(rc *redis.Client, prefix string) *Store {
	return &Store{rc: rc, prefix: prefix}
}

func (s *Store) key(token string) string {
	return s.prefix + token
}

// Save records token, expiring it after ttlSeconds.
func (s *Store) Save(ctx context.Context, token string, ttlSeconds int64) error {
	if token == "" {
		return ucerr.New("rediscodestore: token must not be empty")
	}
	if err := s.rc.Set(ctx, s.key(token), "1", time.Duration(ttlSeconds)*time.Second).Err(); err != nil {
		return ucerr.Wrap(err)
	}
	return nil
}

// Exists reports whether token is still present.
func (s *Store) Exists(ctx context.Context, token string) (bool, error) {
	n, err := s.rc.Exists(ctx, s.key(token)).Result()
	if err != nil {
		return false, ucerr.Wrap(err)
	}
	return n > 0, nil
}

// Consume atomically deletes token and reports whether it was present,
// via a single GETDEL so concurrent redemption attempts can't both win.
func (s *Store) Consume(ctx context.Context, token string) (bool, error) {
	_, err := s.rc.GetDel(ctx, s.key(token)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, ucerr.Wrap(err)
	}
	return true, nil
}
