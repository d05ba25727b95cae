// Copyright 2026 The Streakmate Authors
// SPDX-License-Identifier: Apache-2.0

package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/streakmate/streakmate/api"
	"github.com/streakmate/streakmate/lib/testutil"
)

var upgrader = websocket.Upgrader{}

// newWSServer starts a test websocket server. Each connection is
// handed to serve on its own goroutine.
func newWSServer(t *testing.T, serve func(conn *websocket.Conn, request *http.Request)) string {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		conn, err := upgrader.Upgrade(writer, request, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		serve(conn, request)
	}))
	t.Cleanup(server.Close)
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func newTestConn(t *testing.T, url string, handlers Handlers) *Conn {
	t.Helper()
	tokens := api.NewTokenStore()
	tokens.Set("socket-token")
	conn, err := New(Config{
		URL:            url,
		Tokens:         tokens,
		ReconnectDelay: 5 * time.Millisecond,
	}, handlers)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return conn
}

func TestDialPresentsToken(t *testing.T) {
	headers := make(chan string, 1)
	url := newWSServer(t, func(conn *websocket.Conn, request *http.Request) {
		headers <- request.Header.Get("Authorization")
		conn.ReadMessage() // hold until client closes
		conn.Close()
	})

	conn := newTestConn(t, url, Handlers{})
	if err := conn.Dial(context.Background()); err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	got := testutil.RequireReceive(t, headers, 5*time.Second, "waiting for handshake")
	if got != "Bearer socket-token" {
		t.Errorf("auth header = %q", got)
	}
	if !conn.Connected() {
		t.Error("Connected() = false after successful dial")
	}
}

func TestOutboundFrames(t *testing.T) {
	frames := make(chan frame, 8)
	url := newWSServer(t, func(conn *websocket.Conn, request *http.Request) {
		defer conn.Close()
		for {
			var incoming frame
			if err := conn.ReadJSON(&incoming); err != nil {
				return
			}
			frames <- incoming
		}
	})

	conn := newTestConn(t, url, Handlers{})
	if err := conn.Dial(context.Background()); err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	conn.JoinConversation("c1")
	conn.SendMessage("c1", "hello")
	conn.TypingStart("c1")
	conn.TypingStop("c1")
	conn.MarkRead("c1")
	conn.LeaveConversation("c1")

	want := []string{
		eventJoinConversation,
		eventMessageSend,
		eventTypingStart,
		eventTypingStop,
		eventMessageRead,
		eventLeaveConversation,
	}
	for _, event := range want {
		got := testutil.RequireReceive(t, frames, 5*time.Second, "waiting for %s", event)
		if got.Event != event {
			t.Errorf("frame event = %q, want %q", got.Event, event)
		}
		if event == eventMessageSend {
			var payload sendPayload
			if err := json.Unmarshal(got.Data, &payload); err != nil {
				t.Fatalf("decoding send payload: %v", err)
			}
			if payload.ConversationID != "c1" || payload.Content != "hello" {
				t.Errorf("unexpected send payload: %+v", payload)
			}
		}
	}
}

func TestInboundDispatchOrder(t *testing.T) {
	url := newWSServer(t, func(conn *websocket.Conn, request *http.Request) {
		defer conn.Close()
		message, _ := json.Marshal(api.Message{ID: "m1", ConversationID: "c1", Content: "hi"})
		typing, _ := json.Marshal(TypingUpdate{ConversationID: "c1", UserID: "u2", Username: "bob", IsTyping: true})
		notification, _ := json.Marshal(Notification{ConversationID: "c9"})
		conn.WriteJSON(frame{Event: eventMessageNew, Data: message})
		conn.WriteJSON(frame{Event: eventTypingUpdate, Data: typing})
		conn.WriteJSON(frame{Event: eventMessageNotification, Data: notification})
		conn.ReadMessage() // hold until client closes
	})

	type received struct {
		kind string
		id   string
	}
	events := make(chan received, 8)
	conn := newTestConn(t, url, Handlers{
		Message: func(message api.Message) {
			events <- received{kind: "message", id: message.ID}
		},
		Typing: func(update TypingUpdate) {
			events <- received{kind: "typing", id: update.UserID}
		},
		Notification: func(notification Notification) {
			events <- received{kind: "notification", id: notification.ConversationID}
		},
	})
	if err := conn.Dial(context.Background()); err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	want := []received{
		{kind: "message", id: "m1"},
		{kind: "typing", id: "u2"},
		{kind: "notification", id: "c9"},
	}
	for _, expected := range want {
		got := testutil.RequireReceive(t, events, 5*time.Second, "waiting for %s", expected.kind)
		if got != expected {
			t.Errorf("event = %+v, want %+v", got, expected)
		}
	}
}

func TestReconnectAfterDrop(t *testing.T) {
	var connections atomic.Int64
	url := newWSServer(t, func(conn *websocket.Conn, request *http.Request) {
		if connections.Add(1) == 1 {
			conn.Close() // drop the first connection immediately
			return
		}
		conn.ReadMessage() // second connection stays up
		conn.Close()
	})

	reconnected := make(chan struct{}, 1)
	conn := newTestConn(t, url, Handlers{
		Reconnect: func() { reconnected <- struct{}{} },
	})
	if err := conn.Dial(context.Background()); err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	testutil.RequireReceive(t, reconnected, 5*time.Second, "waiting for reconnect")
	if got := connections.Load(); got != 2 {
		t.Errorf("connection count = %d, want 2", got)
	}
	if !conn.Connected() {
		t.Error("Connected() = false after reconnect")
	}
}

func TestCloseWithoutDial(t *testing.T) {
	conn := newTestConn(t, "ws://127.0.0.1:0", Handlers{})
	conn.Close() // must not block or panic
	conn.Close() // idempotent
}
