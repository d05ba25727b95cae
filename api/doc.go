// Copyright 2026 The Streakmate Authors
// SPDX-License-Identifier: Apache-2.0

// Package api wraps the Streakmate REST backend.
//
// [Client] is the unauthenticated HTTP layer: base URL, transport (with
// a cookie jar for the httpOnly refresh-token cookie), and structured
// logging. [Session] wraps a Client with a [TokenStore] and provides
// every authenticated operation: auth (login, register, refresh,
// logout), users, goals, friends, leaderboard, and messaging
// (conversations, paginated history, read markers).
//
// Every response uses the backend's uniform envelope {success, data,
// message?}; failures decode into [*Error] with the backend code and
// HTTP status. A 401 on any non-auth endpoint triggers one silent
// token refresh and a single replay of the original request.
// Concurrent 401s coalesce onto one in-flight refresh (single-flight).
// When the refresh itself fails, the token store is cleared and the
// error wraps [ErrSessionEnded] — the caller must re-authenticate.
//
// The access token lives only in the in-memory TokenStore, passed
// explicitly to the Session and the realtime dialer. It is never
// written to disk.
package api
