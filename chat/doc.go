// Copyright 2026 The Streakmate Authors
// SPDX-License-Identifier: Apache-2.0

// Package chat holds the per-conversation view-model: it composes the
// REST history source with the live channel into one append-only
// message feed with typing presence, optimistic send, and cursor
// pagination. One Session serves whichever conversation is currently
// open; switching conversations discards the previous one's state.
package chat
