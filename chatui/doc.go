// Copyright 2026 The Streakmate Authors
// SPDX-License-Identifier: Apache-2.0

// Package chatui is the terminal UI for Streakmate messaging: a
// conversation list, a live message feed with typing presence, and a
// composer, rendered with bubbletea and lipgloss. The view-model logic
// itself lives in package chat; this package only renders snapshots
// and translates keystrokes into chat session operations.
package chatui
