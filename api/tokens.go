// Copyright 2026 The Streakmate Authors
// SPDX-License-Identifier: Apache-2.0

package api

import "sync"

// TokenStore holds the current access token in process memory. It is
// deliberately never persisted — the durable credential is the
// httpOnly refresh cookie held by the HTTP client's jar, and a lost
// access token is recovered by a silent refresh on the next 401.
//
// TokenStore is an explicit object passed into the Session and the
// realtime dialer, not package state: its lifecycle is init at login,
// clear at logout.
type TokenStore struct {
	mu    sync.Mutex
	token string
}

// NewTokenStore returns an empty store.
func NewTokenStore() *TokenStore {
	return &TokenStore{}
}

// Token returns the current access token, or "" when unauthenticated.
func (s *TokenStore) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Set replaces the stored token.
func (s *TokenStore) Set(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

// Clear discards the stored token.
func (s *TokenStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
}
