// Copyright 2026 The Streakmate Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// Friends lists the viewer's accepted friends.
func (s *Session) Friends(ctx context.Context) ([]Friend, error) {
	data, err := s.request(ctx, http.MethodGet, "/friends", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("api: listing friends: %w", err)
	}
	payload, err := decode[struct {
		Friends []Friend `json:"friends"`
	}](data, "friends")
	if err != nil {
		return nil, err
	}
	return payload.Friends, nil
}

// PendingRequests lists inbound friend requests awaiting a response.
func (s *Session) PendingRequests(ctx context.Context) ([]FriendRequest, error) {
	data, err := s.request(ctx, http.MethodGet, "/friends/requests", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("api: listing friend requests: %w", err)
	}
	payload, err := decode[struct {
		Requests []FriendRequest `json:"requests"`
	}](data, "friend requests")
	if err != nil {
		return nil, err
	}
	return payload.Requests, nil
}

// SendFriendRequest sends a friend request to userID.
func (s *Session) SendFriendRequest(ctx context.Context, userID string) error {
	body := map[string]string{"userId": userID}
	if _, err := s.request(ctx, http.MethodPost, "/friends/request", nil, body); err != nil {
		return fmt.Errorf("api: sending friend request to %q: %w", userID, err)
	}
	return nil
}

// RespondToRequest accepts or rejects a pending request. action must
// be "accept" or "reject"; anything else is rejected locally.
func (s *Session) RespondToRequest(ctx context.Context, requestID, action string) error {
	if action != "accept" && action != "reject" {
		return fmt.Errorf("api: invalid friend request action %q", action)
	}
	body := map[string]string{"action": action}
	path := "/friends/request/" + url.PathEscape(requestID)
	if _, err := s.request(ctx, http.MethodPatch, path, nil, body); err != nil {
		return fmt.Errorf("api: responding to friend request %q: %w", requestID, err)
	}
	return nil
}

// RemoveFriend deletes an accepted friendship.
func (s *Session) RemoveFriend(ctx context.Context, friendID string) error {
	if _, err := s.request(ctx, http.MethodDelete, "/friends/"+url.PathEscape(friendID), nil, nil); err != nil {
		return fmt.Errorf("api: removing friend %q: %w", friendID, err)
	}
	return nil
}
