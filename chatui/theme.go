// Copyright 2026 The Streakmate Authors
// SPDX-License-Identifier: Apache-2.0

package chatui

import "github.com/charmbracelet/lipgloss"

// Theme defines the color palette for the chat TUI. All colors use
// lipgloss ANSI 256-color codes for broad terminal compatibility.
type Theme struct {
	// Text colors.
	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	// Selected conversation row.
	SelectedBackground lipgloss.Color
	SelectedForeground lipgloss.Color

	// Message senders.
	OwnSender  lipgloss.Color // The viewer's own messages.
	PeerSender lipgloss.Color
	Pending    lipgloss.Color // Optimistic messages awaiting their echo.

	// UI chrome.
	HeaderForeground lipgloss.Color
	BorderColor      lipgloss.Color
	HelpText         lipgloss.Color

	// Unread badge on the conversation list.
	UnreadBackground lipgloss.Color
	UnreadForeground lipgloss.Color

	// Typing-presence line under the feed.
	TypingIndicator lipgloss.Color

	// Retryable fetch failures in the status bar.
	ErrorText lipgloss.Color

	// Inline code and code blocks in message text.
	CodeForeground lipgloss.Color
	CodeBackground lipgloss.Color
}

// DefaultTheme is the built-in dark-terminal color scheme.
var DefaultTheme = Theme{
	NormalText:         lipgloss.Color("252"),
	FaintText:          lipgloss.Color("243"),
	SelectedBackground: lipgloss.Color("236"),
	SelectedForeground: lipgloss.Color("255"),
	OwnSender:          lipgloss.Color("114"),
	PeerSender:         lipgloss.Color("75"),
	Pending:            lipgloss.Color("245"),
	HeaderForeground:   lipgloss.Color("255"),
	BorderColor:        lipgloss.Color("238"),
	HelpText:           lipgloss.Color("243"),
	UnreadBackground:   lipgloss.Color("167"),
	UnreadForeground:   lipgloss.Color("255"),
	TypingIndicator:    lipgloss.Color("180"),
	ErrorText:          lipgloss.Color("203"),
	CodeForeground:     lipgloss.Color("222"),
	CodeBackground:     lipgloss.Color("236"),
}
