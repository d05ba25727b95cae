// Copyright 2026 The Streakmate Authors
// SPDX-License-Identifier: Apache-2.0

// Package auth owns the authenticated-user identity. The Manager
// drives the api.Session's auth operations, caches the current user,
// and notifies a subscriber when the authentication state flips, for
// callers that need to react when the session ends.
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/streakmate/streakmate/api"
)

// Manager tracks who is logged in. Safe for concurrent use.
type Manager struct {
	session *api.Session
	logger  *slog.Logger

	mu       sync.Mutex
	user     *api.User
	onChange func(authenticated bool)
}

// NewManager creates a Manager over session. A nil logger falls back
// to slog.Default().
func NewManager(session *api.Session, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{session: session, logger: logger}
}

// Session returns the underlying API session.
func (m *Manager) Session() *api.Session { return m.session }

// OnChange registers fn to be called whenever authentication state
// changes. Only one subscriber is supported; a later call replaces the
// earlier one. fn runs on the goroutine that triggered the change.
func (m *Manager) OnChange(fn func(authenticated bool)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = fn
}

// CurrentUser returns the cached identity, or nil when logged out.
func (m *Manager) CurrentUser() *api.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user
}

// Authenticated reports whether a user is logged in.
func (m *Manager) Authenticated() bool {
	return m.CurrentUser() != nil
}

// Restore attempts to resurrect a session from the refresh cookie:
// silent token refresh, then a profile fetch. Returns (nil, nil) when
// there is simply no valid session to restore — that is the normal
// first-run path, not an error.
func (m *Manager) Restore(ctx context.Context) (*api.User, error) {
	if err := m.session.Refresh(ctx); err != nil {
		m.session.Tokens().Clear()
		m.logger.Debug("no session to restore", "error", err)
		return nil, nil
	}
	user, err := m.session.Me(ctx)
	if err != nil {
		return nil, fmt.Errorf("auth: fetching profile after restore: %w", err)
	}
	m.setUser(user)
	m.logger.Info("restored session", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// Login authenticates and caches the identity.
func (m *Manager) Login(ctx context.Context, email, password string) (*api.User, error) {
	user, err := m.session.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	m.setUser(user)
	return user, nil
}

// Register creates an account and caches the identity.
func (m *Manager) Register(ctx context.Context, email, username, password string) (*api.User, error) {
	user, err := m.session.Register(ctx, email, username, password)
	if err != nil {
		return nil, err
	}
	m.setUser(user)
	return user, nil
}

// Logout ends the session. The cached identity and token are dropped
// even when the server call fails.
func (m *Manager) Logout(ctx context.Context) error {
	err := m.session.Logout(ctx)
	m.setUser(nil)
	return err
}

// setUser swaps the cached identity and fires the subscriber when the
// authenticated/unauthenticated state flips.
func (m *Manager) setUser(user *api.User) {
	m.mu.Lock()
	wasAuthenticated := m.user != nil
	m.user = user
	notify := m.onChange
	m.mu.Unlock()

	if notify != nil && wasAuthenticated != (user != nil) {
		notify(user != nil)
	}
}
