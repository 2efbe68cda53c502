// Package codestore is an in-process Store backed by
// github.com/patrickmn/go-cache, the same TTL-cache library the teacher
// used for authz.Client's in-memory lookups — here repurposed to track
// which opaque authorization codes/refresh tokens are still redeemable.
// Suitable for a single-instance deployment; store/rediscodestore is the
// multi-instance alternative behind the same store.Store interface.
package codestore

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/sunsided/go-oidcserver/infra/ucerr"
)

const gcInterval = 10 * time.Minute

// Store is an in-memory store.Store.
type Store struct {
	cache *cache.Cache
	mu    sync.Mutex
}

// New builds a Store whose cleanup sweep runs every gcInterval.
func New() *Store {
	return &Store{cache: cache.New(cache.NoExpiration, gcInterval)}
}

// Save records token, expiring it after ttlSeconds.
func (s *Store) Save(_ context.Context, token string, ttlSeconds int64) error {
	if token == "" {
		return ucerr.New("codestore: token must not be empty")
	}
	s.cache.Set(token, struct{}{}, time.Duration(ttlSeconds)*time.Second)
	return nil
}

// Exists reports whether token is still present.
func (s *Store) Exists(_ context.Context, token string) (bool, error) {
	_, ok := s.cache.Get(token)
	return ok, nil
}

// Consume checks existence and deletes the entry in one step; concurrent
// Consume calls for the same token are serialized, so at most one succeeds.
func (s *Store) Consume(_ context.Context, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.cache.Get(token)
	if !ok {
		return false, nil
	}
	s.cache.Delete(token)
	return true, nil
}
