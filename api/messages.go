// Copyright 2026 The Streakmate Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Conversations lists the viewer's conversations, most recently
// updated first.
func (s *Session) Conversations(ctx context.Context) ([]Conversation, error) {
	data, err := s.request(ctx, http.MethodGet, "/messages/conversations", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("api: listing conversations: %w", err)
	}
	payload, err := decode[struct {
		Conversations []Conversation `json:"conversations"`
	}](data, "conversations")
	if err != nil {
		return nil, err
	}
	return payload.Conversations, nil
}

// GetOrCreateConversation returns the conversation between the viewer
// and userID, creating it if this is their first contact. Idempotent
// server-side.
func (s *Session) GetOrCreateConversation(ctx context.Context, userID string) (*Conversation, error) {
	body := map[string]string{"userId": userID}
	data, err := s.request(ctx, http.MethodPost, "/messages/conversations", nil, body)
	if err != nil {
		return nil, fmt.Errorf("api: opening conversation with %q: %w", userID, err)
	}
	payload, err := decode[struct {
		Conversation Conversation `json:"conversation"`
	}](data, "conversation")
	if err != nil {
		return nil, err
	}
	return &payload.Conversation, nil
}

// Messages fetches one page of a conversation's history. An empty
// cursor fetches the newest page; the returned NextCursor fetches the
// page before it. Messages within a page are oldest-first.
func (s *Session) Messages(ctx context.Context, conversationID, cursor string) (*MessagesPage, error) {
	if strings.TrimSpace(conversationID) == "" {
		return nil, fmt.Errorf("api: conversation id is required")
	}
	var query url.Values
	if cursor != "" {
		query = url.Values{"cursor": {cursor}}
	}
	path := "/messages/conversations/" + url.PathEscape(conversationID) + "/messages"
	data, err := s.request(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return nil, fmt.Errorf("api: fetching messages for %q: %w", conversationID, err)
	}
	page, err := decode[MessagesPage](data, "messages")
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// SendMessage posts a message over REST. This is the non-realtime
// fallback; the primary send path is the live channel.
func (s *Session) SendMessage(ctx context.Context, conversationID, content string) (*Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("api: message content is empty")
	}
	body := map[string]string{"content": content}
	path := "/messages/conversations/" + url.PathEscape(conversationID) + "/messages"
	data, err := s.request(ctx, http.MethodPost, path, nil, body)
	if err != nil {
		return nil, fmt.Errorf("api: sending message to %q: %w", conversationID, err)
	}
	payload, err := decode[struct {
		Message Message `json:"message"`
	}](data, "sent message")
	if err != nil {
		return nil, err
	}
	return &payload.Message, nil
}

// MarkRead moves the viewer's read marker to now for a conversation.
func (s *Session) MarkRead(ctx context.Context, conversationID string) error {
	path := "/messages/conversations/" + url.PathEscape(conversationID) + "/read"
	if _, err := s.request(ctx, http.MethodPost, path, nil, nil); err != nil {
		return fmt.Errorf("api: marking %q read: %w", conversationID, err)
	}
	return nil
}

// UnreadCount returns the number of conversations with unread
// messages.
func (s *Session) UnreadCount(ctx context.Context) (int, error) {
	data, err := s.request(ctx, http.MethodGet, "/messages/unread", nil, nil)
	if err != nil {
		return 0, fmt.Errorf("api: fetching unread count: %w", err)
	}
	payload, err := decode[struct {
		UnreadCount int `json:"unreadCount"`
	}](data, "unread count")
	if err != nil {
		return 0, err
	}
	return payload.UnreadCount, nil
}
