// Copyright 2026 The Streakmate Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source. The chat session's
// typing debounce and presence expiry, and the realtime reconnect
// delay, all run on a Clock so tests can drive them with [FakeClock]
// instead of real sleeps.
package clock
