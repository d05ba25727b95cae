// Copyright 2026 The Streakmate Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
)

// Session is an authenticated view of the backend. It wraps a Client
// with a TokenStore: every request carries the current access token,
// and a 401 triggers one silent refresh followed by a single replay of
// the original request.
//
// Sessions are safe for concurrent use. Concurrent 401s coalesce into
// one in-flight refresh whose outcome is shared by all waiters.
type Session struct {
	client *Client
	tokens *TokenStore

	mu       sync.Mutex
	inFlight *refreshCall // non-nil while a refresh is running
}

// refreshCall is a single-flight refresh. done closes when the refresh
// completes; token and err are valid after that.
type refreshCall struct {
	done  chan struct{}
	token string
	err   error
}

// NewSession creates a Session over client using tokens.
func NewSession(client *Client, tokens *TokenStore) *Session {
	return &Session{client: client, tokens: tokens}
}

// Client returns the underlying unauthenticated client.
func (s *Session) Client() *Client { return s.client }

// Tokens returns the session's token store.
func (s *Session) Tokens() *TokenStore { return s.tokens }

// request performs an authenticated request. On a 401 outside the
// /auth/ namespace it refreshes the access token (single-flight) and
// replays the original request exactly once. Exhaustion of the refresh
// path surfaces as ErrSessionEnded.
func (s *Session) request(ctx context.Context, method, path string, query url.Values, body any) (json.RawMessage, error) {
	data, err := s.client.do(ctx, method, path, s.tokens.Token(), query, body)
	if err == nil {
		return data, nil
	}

	// Auth endpoints never trigger a refresh: a 401 from login is a
	// bad credential, and a 401 from refresh means the refresh cookie
	// itself is dead.
	if !IsStatus(err, http.StatusUnauthorized) || strings.HasPrefix(path, "/auth/") {
		return nil, err
	}

	token, refreshErr := s.refreshToken(ctx)
	if refreshErr != nil {
		s.tokens.Clear()
		return nil, fmt.Errorf("%w: %w", ErrSessionEnded, refreshErr)
	}

	data, err = s.client.do(ctx, method, path, token, query, body)
	if err != nil {
		return nil, err
	}
	return data, nil
}

// refreshToken obtains a fresh access token, coalescing concurrent
// callers onto one in-flight POST /auth/refresh.
func (s *Session) refreshToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	if call := s.inFlight; call != nil {
		s.mu.Unlock()
		select {
		case <-call.done:
			return call.token, call.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	call := &refreshCall{done: make(chan struct{})}
	s.inFlight = call
	s.mu.Unlock()

	call.token, call.err = s.doRefresh(ctx)

	s.mu.Lock()
	s.inFlight = nil
	s.mu.Unlock()
	close(call.done)

	return call.token, call.err
}

// doRefresh performs the refresh call and stores the new token on
// success. The refresh credential is the httpOnly cookie in the HTTP
// client's jar, so no bearer token is attached.
func (s *Session) doRefresh(ctx context.Context) (string, error) {
	data, err := s.client.do(ctx, http.MethodPost, "/auth/refresh", "", nil, nil)
	if err != nil {
		return "", fmt.Errorf("api: token refresh failed: %w", err)
	}

	var payload struct {
		AccessToken string `json:"accessToken"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return "", fmt.Errorf("api: parsing refresh response: %w", err)
	}
	if payload.AccessToken == "" {
		return "", errors.New("api: refresh response carried no access token")
	}

	s.tokens.Set(payload.AccessToken)
	return payload.AccessToken, nil
}

// Login authenticates with email and password. On success the access
// token is stored and the identity returned.
func (s *Session) Login(ctx context.Context, email, password string) (*User, error) {
	body := map[string]string{"email": email, "password": password}
	data, err := s.request(ctx, http.MethodPost, "/auth/login", nil, body)
	if err != nil {
		return nil, fmt.Errorf("api: login failed: %w", err)
	}
	auth, err := decode[AuthResponse](data, "login")
	if err != nil {
		return nil, err
	}
	s.tokens.Set(auth.AccessToken)
	s.client.logger.Info("logged in", "user_id", auth.User.ID, "username", auth.User.Username)
	return &auth.User, nil
}

// Register creates an account and authenticates as it.
func (s *Session) Register(ctx context.Context, email, username, password string) (*User, error) {
	body := map[string]string{"email": email, "username": username, "password": password}
	data, err := s.request(ctx, http.MethodPost, "/auth/register", nil, body)
	if err != nil {
		return nil, fmt.Errorf("api: registration failed: %w", err)
	}
	auth, err := decode[AuthResponse](data, "register")
	if err != nil {
		return nil, err
	}
	s.tokens.Set(auth.AccessToken)
	s.client.logger.Info("registered account", "user_id", auth.User.ID, "username", auth.User.Username)
	return &auth.User, nil
}

// Refresh performs an explicit silent refresh, as done at startup to
// restore a session from the refresh cookie.
func (s *Session) Refresh(ctx context.Context) error {
	_, err := s.refreshToken(ctx)
	return err
}

// Logout invalidates the refresh cookie server-side. The local token
// is cleared even when the call fails.
func (s *Session) Logout(ctx context.Context) error {
	_, err := s.request(ctx, http.MethodPost, "/auth/logout", nil, nil)
	s.tokens.Clear()
	if err != nil {
		return fmt.Errorf("api: logout failed: %w", err)
	}
	return nil
}
