// Copyright 2026 The Streakmate Authors
// SPDX-License-Identifier: Apache-2.0

package realtime

import (
	"encoding/json"

	"github.com/streakmate/streakmate/api"
)

// Wire event names. Outbound events are emitted by the client;
// inbound events are pushed by the server.
const (
	eventJoinConversation  = "join:conversation"
	eventLeaveConversation = "leave:conversation"
	eventMessageSend       = "message:send"
	eventTypingStart       = "typing:start"
	eventTypingStop        = "typing:stop"
	eventMessageRead       = "message:read"

	eventMessageNew          = "message:new"
	eventTypingUpdate        = "typing:update"
	eventMessageNotification = "message:notification"
)

// frame is the wire shape of every live-channel message.
type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// outboundFrame is a frame before encoding. Data is marshaled at
// write time on the writer goroutine.
type outboundFrame struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// sendPayload carries an outbound chat message.
type sendPayload struct {
	ConversationID string `json:"conversationId"`
	Content        string `json:"content"`
}

// TypingUpdate is the inbound typing-presence signal. A later update
// for the same user supersedes the earlier one.
type TypingUpdate struct {
	ConversationID string `json:"conversationId"`
	UserID         string `json:"userId"`
	Username       string `json:"username"`
	IsTyping       bool   `json:"isTyping"`
}

// Notification announces a new message in a conversation the viewer
// does not currently have open. Used for cross-conversation unread
// badges, not for the open chat feed.
type Notification struct {
	ConversationID string      `json:"conversationId"`
	Message        api.Message `json:"message"`
}
