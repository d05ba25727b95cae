// Copyright 2026 The Streakmate Authors
// SPDX-License-Identifier: Apache-2.0

package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/streakmate/streakmate/api"
	"github.com/streakmate/streakmate/lib/clock"
)

const (
	// writeWait bounds a single frame or control write.
	writeWait = 10 * time.Second
	// pongWait is how long a silent peer is tolerated before the read
	// side declares the connection dead.
	pongWait = 60 * time.Second
	// pingPeriod must be shorter than pongWait so a pong is always
	// pending when the deadline is checked.
	pingPeriod = (pongWait * 9) / 10
	// maxFrameBytes bounds inbound frames.
	maxFrameBytes = 32 << 10
	// sendBuffer is the outbound frame queue depth. Emits are
	// fire-and-forget: when the buffer is full the frame is dropped
	// and logged rather than blocking the caller.
	sendBuffer = 64
	// reconnectAttempts bounds redials after a dropped connection,
	// matching the original client's transport settings.
	reconnectAttempts = 5
	// defaultReconnectDelay is the pause before each redial.
	defaultReconnectDelay = time.Second
)

// Config holds configuration for creating a Conn.
type Config struct {
	// URL is the websocket endpoint (e.g., "ws://localhost:3000/socket").
	URL string
	// Tokens supplies the access token presented at dial time.
	Tokens *api.TokenStore
	// Logger is used for structured logging. If nil, slog.Default() is used.
	Logger *slog.Logger
	// Clock drives the keepalive ticker and reconnect delay. If nil,
	// the real clock is used.
	Clock clock.Clock
	// ReconnectDelay overrides the pause between redial attempts.
	// Zero means the 1-second default.
	ReconnectDelay time.Duration
	// Dialer overrides the websocket dialer. If nil, a dialer with a
	// 10-second handshake timeout is used.
	Dialer *websocket.Dialer
}

// Handlers are the inbound-event callbacks. All handlers are invoked
// sequentially from the single read goroutine, so delivery order on
// the wire is delivery order to the handlers. Register handlers
// before calling Dial.
type Handlers struct {
	// Message is called for every message:new event.
	Message func(api.Message)
	// Typing is called for every typing:update event.
	Typing func(TypingUpdate)
	// Notification is called for message:notification events.
	Notification func(Notification)
	// Reconnect is called after the connection is reestablished
	// following a drop, so the open conversation can re-join its room
	// and re-fetch recent history.
	Reconnect func()
}

// Conn is the single live bidirectional connection, lifecycle-bound
// to the authenticated session. Outbound sends are fire-and-forget;
// there is no acknowledgment contract on the live channel.
type Conn struct {
	url            string
	tokens         *api.TokenStore
	logger         *slog.Logger
	clock          clock.Clock
	reconnectDelay time.Duration
	dialer         *websocket.Dialer
	handlers       Handlers

	send chan outboundFrame
	stop chan struct{}
	done chan struct{}

	mu        sync.Mutex
	current   *websocket.Conn
	connected bool
	started   bool
	closeOnce sync.Once
}

// New creates a Conn. It does not connect — call Dial.
func New(config Config, handlers Handlers) (*Conn, error) {
	if config.URL == "" {
		return nil, fmt.Errorf("realtime: URL is required")
	}
	if config.Tokens == nil {
		return nil, fmt.Errorf("realtime: Tokens is required")
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clk := config.Clock
	if clk == nil {
		clk = clock.Real()
	}
	delay := config.ReconnectDelay
	if delay == 0 {
		delay = defaultReconnectDelay
	}
	dialer := config.Dialer
	if dialer == nil {
		dialer = &websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	}

	return &Conn{
		url:            config.URL,
		tokens:         config.Tokens,
		logger:         logger,
		clock:          clk,
		reconnectDelay: delay,
		dialer:         dialer,
		handlers:       handlers,
		send:           make(chan outboundFrame, sendBuffer),
		stop:           make(chan struct{}),
		done:           make(chan struct{}),
	}, nil
}

// Dial establishes the connection and starts the read/write pumps.
// Returns an error only when the initial dial fails; later drops are
// handled by the bounded reconnect loop.
func (c *Conn) Dial(ctx context.Context) error {
	conn, err := c.dialOnce(ctx)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.current = conn
	c.connected = true
	c.started = true
	c.mu.Unlock()
	go c.run(ctx, conn)
	return nil
}

// Connected reports whether the live connection is currently up.
func (c *Conn) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Close tears the connection down. Idempotent. Blocks until the pumps
// have exited.
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		close(c.stop)
		c.mu.Lock()
		if c.current != nil {
			c.current.Close()
		}
		c.mu.Unlock()
	})
	c.mu.Lock()
	started := c.started
	c.mu.Unlock()
	if started {
		<-c.done
	}
}

// JoinConversation subscribes to room-scoped events for a conversation.
func (c *Conn) JoinConversation(conversationID string) {
	c.emit(eventJoinConversation, conversationID)
}

// LeaveConversation unsubscribes from a conversation's room.
func (c *Conn) LeaveConversation(conversationID string) {
	c.emit(eventLeaveConversation, conversationID)
}

// SendMessage sends a chat message on the live channel. Fire-and-
// forget: confirmation is implicit in the server echoing the stored
// message back as message:new.
func (c *Conn) SendMessage(conversationID, content string) {
	c.emit(eventMessageSend, sendPayload{ConversationID: conversationID, Content: content})
}

// TypingStart signals that the viewer began typing in a conversation.
func (c *Conn) TypingStart(conversationID string) {
	c.emit(eventTypingStart, conversationID)
}

// TypingStop signals that the viewer stopped typing.
func (c *Conn) TypingStop(conversationID string) {
	c.emit(eventTypingStop, conversationID)
}

// MarkRead moves the viewer's read marker for a conversation.
func (c *Conn) MarkRead(conversationID string) {
	c.emit(eventMessageRead, conversationID)
}

// emit queues a frame for the writer. A full queue drops the frame —
// the live channel has no delivery contract, and blocking the UI
// thread on a stalled socket would be worse.
func (c *Conn) emit(event string, data any) {
	select {
	case c.send <- outboundFrame{Event: event, Data: data}:
	default:
		c.logger.Warn("dropping live frame, send queue full", "event", event)
	}
}

// dialOnce performs one websocket handshake, presenting the current
// access token.
func (c *Conn) dialOnce(ctx context.Context) (*websocket.Conn, error) {
	header := http.Header{}
	if token := c.tokens.Token(); token != "" {
		header.Set("Authorization", "Bearer "+token)
	}
	conn, response, err := c.dialer.DialContext(ctx, c.url, header)
	if err != nil {
		if response != nil {
			return nil, fmt.Errorf("realtime: dial %s: status %d: %w", c.url, response.StatusCode, err)
		}
		return nil, fmt.Errorf("realtime: dial %s: %w", c.url, err)
	}
	return conn, nil
}

func (c *Conn) setCurrent(conn *websocket.Conn, connected bool) {
	c.mu.Lock()
	c.current = conn
	c.connected = connected
	c.mu.Unlock()
}

// run owns the connection lifecycle: pump until the read side fails,
// then either shut down (context/Close) or redial.
func (c *Conn) run(ctx context.Context, conn *websocket.Conn) {
	defer close(c.done)
	defer c.setCurrent(nil, false)

	for {
		stopWriter := make(chan struct{})
		writerDone := make(chan struct{})
		go func() {
			defer close(writerDone)
			c.writeLoop(conn, stopWriter)
		}()

		readErr := c.readLoop(conn)
		close(stopWriter)
		conn.Close()
		<-writerDone
		c.setCurrent(nil, false)

		select {
		case <-ctx.Done():
			return
		case <-c.stop:
			return
		default:
		}

		c.logger.Warn("live connection lost", "error", readErr)
		next, ok := c.redial(ctx)
		if !ok {
			return
		}
		conn = next
		c.setCurrent(conn, true)
		if c.handlers.Reconnect != nil {
			c.handlers.Reconnect()
		}
	}
}

// redial attempts to reestablish the connection, pausing before each
// attempt. Gives up after reconnectAttempts failures.
func (c *Conn) redial(ctx context.Context) (*websocket.Conn, bool) {
	for attempt := 1; attempt <= reconnectAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return nil, false
		case <-c.stop:
			return nil, false
		case <-c.clock.After(c.reconnectDelay):
		}

		conn, err := c.dialOnce(ctx)
		if err == nil {
			c.logger.Info("live connection reestablished", "attempt", attempt)
			return conn, true
		}
		c.logger.Warn("reconnect attempt failed", "attempt", attempt, "max_attempts", reconnectAttempts, "error", err)
	}
	c.logger.Error("giving up on live connection", "attempts", reconnectAttempts)
	return nil, false
}

// readLoop reads frames until the connection fails, dispatching each
// to its handler. Handlers run on this goroutine, preserving receipt
// order.
func (c *Conn) readLoop(conn *websocket.Conn) error {
	conn.SetReadLimit(maxFrameBytes)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var incoming frame
		if err := conn.ReadJSON(&incoming); err != nil {
			return err
		}
		c.dispatch(incoming)
	}
}

func (c *Conn) dispatch(incoming frame) {
	switch incoming.Event {
	case eventMessageNew:
		var message api.Message
		if err := json.Unmarshal(incoming.Data, &message); err != nil {
			c.logger.Warn("malformed message:new frame", "error", err)
			return
		}
		if c.handlers.Message != nil {
			c.handlers.Message(message)
		}
	case eventTypingUpdate:
		var update TypingUpdate
		if err := json.Unmarshal(incoming.Data, &update); err != nil {
			c.logger.Warn("malformed typing:update frame", "error", err)
			return
		}
		if c.handlers.Typing != nil {
			c.handlers.Typing(update)
		}
	case eventMessageNotification:
		var notification Notification
		if err := json.Unmarshal(incoming.Data, &notification); err != nil {
			c.logger.Warn("malformed message:notification frame", "error", err)
			return
		}
		if c.handlers.Notification != nil {
			c.handlers.Notification(notification)
		}
	default:
		c.logger.Debug("ignoring unknown live event", "event", incoming.Event)
	}
}

// writeLoop owns all writes on the connection: queued frames, pings,
// and the closing handshake.
func (c *Conn) writeLoop(conn *websocket.Conn, stop <-chan struct{}) {
	ticker := c.clock.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case outgoing := <-c.send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(outgoing); err != nil {
				c.logger.Warn("live frame write failed", "event", outgoing.Event, "error", err)
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-stop:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
