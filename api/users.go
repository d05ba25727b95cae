// Copyright 2026 The Streakmate Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// Me returns the authenticated user's own profile.
func (s *Session) Me(ctx context.Context) (*User, error) {
	data, err := s.request(ctx, http.MethodGet, "/users/me", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("api: fetching own profile: %w", err)
	}
	payload, err := decode[struct {
		User User `json:"user"`
	}](data, "me")
	if err != nil {
		return nil, err
	}
	return &payload.User, nil
}

// SearchUsers finds users matching query.
func (s *Session) SearchUsers(ctx context.Context, query string) ([]User, error) {
	params := url.Values{"q": {query}}
	data, err := s.request(ctx, http.MethodGet, "/users/search", params, nil)
	if err != nil {
		return nil, fmt.Errorf("api: searching users: %w", err)
	}
	payload, err := decode[struct {
		Users []User `json:"users"`
	}](data, "user search")
	if err != nil {
		return nil, err
	}
	return payload.Users, nil
}

// UserByID fetches a user by id.
func (s *Session) UserByID(ctx context.Context, id string) (*User, error) {
	data, err := s.request(ctx, http.MethodGet, "/users/"+url.PathEscape(id), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("api: fetching user %q: %w", id, err)
	}
	payload, err := decode[struct {
		User User `json:"user"`
	}](data, "user")
	if err != nil {
		return nil, err
	}
	return &payload.User, nil
}
