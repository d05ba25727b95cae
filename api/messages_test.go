// Copyright 2026 The Streakmate Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"net/http"
	"testing"
	"time"
)

func TestMessagesPagination(t *testing.T) {
	session := newTestSession(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.Path != "/api/v1/messages/conversations/c1/messages" {
			t.Errorf("unexpected path: %s", request.URL.Path)
		}
		switch request.URL.Query().Get("cursor") {
		case "":
			writeEnvelope(writer, MessagesPage{
				Messages:   []Message{{ID: "m2", Content: "newer"}, {ID: "m3", Content: "newest"}},
				NextCursor: "cur-1",
				HasMore:    true,
			})
		case "cur-1":
			writeEnvelope(writer, MessagesPage{
				Messages: []Message{{ID: "m1", Content: "oldest"}},
				HasMore:  false,
			})
		default:
			t.Errorf("unexpected cursor: %s", request.URL.Query().Get("cursor"))
		}
	}))

	first, err := session.Messages(context.Background(), "c1", "")
	if err != nil {
		t.Fatalf("Messages failed: %v", err)
	}
	if len(first.Messages) != 2 || !first.HasMore || first.NextCursor != "cur-1" {
		t.Errorf("unexpected first page: %+v", first)
	}

	second, err := session.Messages(context.Background(), "c1", first.NextCursor)
	if err != nil {
		t.Fatalf("Messages with cursor failed: %v", err)
	}
	if len(second.Messages) != 1 || second.HasMore {
		t.Errorf("unexpected second page: %+v", second)
	}
}

func TestMessagesRequiresConversationID(t *testing.T) {
	session := newTestSession(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		t.Error("no request should be issued")
	}))
	if _, err := session.Messages(context.Background(), "  ", ""); err == nil {
		t.Fatal("expected error for blank conversation id")
	}
}

func TestSendMessageRejectsEmptyContent(t *testing.T) {
	session := newTestSession(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		t.Error("no request should be issued")
	}))
	if _, err := session.SendMessage(context.Background(), "c1", "   "); err == nil {
		t.Fatal("expected error for whitespace-only content")
	}
}

func TestGetOrCreateConversation(t *testing.T) {
	session := newTestSession(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.Method != http.MethodPost || request.URL.Path != "/api/v1/messages/conversations" {
			t.Errorf("unexpected request: %s %s", request.Method, request.URL.Path)
		}
		writeEnvelope(writer, map[string]any{"conversation": Conversation{
			ID:        "c1",
			OtherUser: ConversationUser{ID: "u2", Username: "bob"},
		}})
	}))

	conversation, err := session.GetOrCreateConversation(context.Background(), "u2")
	if err != nil {
		t.Fatalf("GetOrCreateConversation failed: %v", err)
	}
	if conversation.ID != "c1" || conversation.OtherUser.Username != "bob" {
		t.Errorf("unexpected conversation: %+v", conversation)
	}
}

func TestConversationUnread(t *testing.T) {
	now := time.Now()
	conversation := Conversation{
		LastReadAt: now.Add(-time.Hour),
		LastMessage: &LastMessage{
			CreatedAt: now,
		},
	}
	if !conversation.Unread() {
		t.Error("conversation with newer last message should be unread")
	}

	conversation.LastReadAt = now.Add(time.Hour)
	if conversation.Unread() {
		t.Error("conversation read after last message should not be unread")
	}

	conversation.LastMessage = nil
	if conversation.Unread() {
		t.Error("empty conversation should not be unread")
	}
}

func TestMarkRead(t *testing.T) {
	var called bool
	session := newTestSession(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.Method != http.MethodPost || request.URL.Path != "/api/v1/messages/conversations/c1/read" {
			t.Errorf("unexpected request: %s %s", request.Method, request.URL.Path)
		}
		called = true
		writeEnvelope(writer, struct{}{})
	}))

	if err := session.MarkRead(context.Background(), "c1"); err != nil {
		t.Fatalf("MarkRead failed: %v", err)
	}
	if !called {
		t.Error("MarkRead issued no request")
	}
}
