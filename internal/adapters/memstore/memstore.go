// Package memstore keeps the credential in process memory only. Nothing
// survives a restart.
package memstore

import (
	"context"
	"sync"
)

type TokenStore struct {
	mu    sync.RWMutex
	token string
	set   bool
}

func New() *TokenStore { return &TokenStore{} }

func (s *TokenStore) Get(_ context.Context) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.set, nil
}

func (s *TokenStore) Set(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token, s.set = token, true
	return nil
}

func (s *TokenStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token, s.set = "", false
	return nil
}
