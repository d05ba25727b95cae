// Copyright 2026 The Streakmate Authors
// SPDX-License-Identifier: Apache-2.0

// Package realtime manages the live bidirectional connection to the
// chat transport.
//
// [Conn] owns a single websocket, authenticated by presenting the
// current access token at handshake time. Outbound operations (join,
// leave, send, typing start/stop, mark read) are fire-and-forget:
// frames are queued for a dedicated writer goroutine and dropped with
// a warning when the queue is full. Inbound events (message:new,
// typing:update, message:notification) are dispatched sequentially
// from the single reader goroutine, so handlers observe events in
// wire order — the ordering guarantee the chat session's append-only
// feed relies on.
//
// A dropped connection triggers up to five redials, one second apart
// (the original client's transport settings). After a successful
// redial the Reconnect handler fires so the open conversation can
// re-join its room and re-fetch recent history; message continuity
// across the drop is otherwise not guaranteed.
package realtime
