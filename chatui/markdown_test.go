// Copyright 2026 The Streakmate Authors
// SPDX-License-Identifier: Apache-2.0

package chatui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
)

// stripped renders a message and returns ANSI-stripped visible text.
func stripped(input string, width int) string {
	return ansi.Strip(renderMessageText(input, DefaultTheme, width))
}

func TestRenderMessageEmpty(t *testing.T) {
	if result := renderMessageText("", DefaultTheme, 80); result != "" {
		t.Errorf("expected empty string for empty input, got %q", result)
	}
}

func TestRenderMessageReflow(t *testing.T) {
	input := "a message that was\nhard wrapped while\ntyping"
	result := stripped(input, 120)

	if strings.Contains(result, "\n") {
		t.Errorf("expected soft breaks joined at width=120, got:\n%s", result)
	}
	if !strings.Contains(result, "was hard wrapped") {
		t.Errorf("expected soft break converted to space, got:\n%s", result)
	}
}

func TestRenderMessageWrapsNarrow(t *testing.T) {
	input := "a longer message that definitely needs wrapping at narrow widths"
	result := stripped(input, 24)

	for _, line := range strings.Split(result, "\n") {
		if len(line) > 24 {
			t.Errorf("line exceeds width 24: %q (len=%d)", line, len(line))
		}
	}
}

func TestRenderMessageEmphasis(t *testing.T) {
	result := renderMessageText("**done** with _today's_ run", DefaultTheme, 80)

	if !strings.Contains(result, "\x1b[") {
		t.Fatalf("expected ANSI styling, got %q", result)
	}
	visible := ansi.Strip(result)
	if !strings.Contains(visible, "done with today's run") {
		t.Errorf("emphasis markers leaked into visible text: %q", visible)
	}
}

func TestRenderMessageInlineCode(t *testing.T) {
	visible := stripped("run `streak --today` before midnight", 80)
	if !strings.Contains(visible, "streak --today") {
		t.Errorf("inline code content missing: %q", visible)
	}
	if strings.Contains(visible, "`") {
		t.Errorf("backticks leaked into visible text: %q", visible)
	}
}

func TestRenderMessageFencedCode(t *testing.T) {
	input := "look:\n```go\nfunc main() {}\n```"
	visible := stripped(input, 80)

	if !strings.Contains(visible, "func main() {}") {
		t.Errorf("code block content missing: %q", visible)
	}
	if strings.Contains(visible, "```") {
		t.Errorf("fence markers leaked into visible text: %q", visible)
	}
}

func TestRenderMessageAutolink(t *testing.T) {
	visible := stripped("progress chart: https://example.com/chart", 120)
	if !strings.Contains(visible, "https://example.com/chart") {
		t.Errorf("autolink URL missing: %q", visible)
	}
}
