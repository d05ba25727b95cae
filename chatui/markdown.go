// Copyright 2026 The Streakmate Authors
// SPDX-License-Identifier: Apache-2.0

package chatui

import (
	"os"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// messageParserInstance is initialized once and reused. The parser
// configuration never changes and the goldmark Parser is safe to
// share; parsing creates per-call state via Parse(reader).
var (
	messageParserInstance goldmark.Markdown
	messageParserOnce     sync.Once
)

func getMessageParser() goldmark.Markdown {
	messageParserOnce.Do(func() {
		messageParserInstance = goldmark.New(
			goldmark.WithExtensions(
				extension.Strikethrough,
				extension.Linkify,
			),
		)
	})
	return messageParserInstance
}

// renderMessageText renders a chat message body as styled terminal
// text: markdown emphasis, inline code, and fenced code blocks with
// syntax highlighting. Soft line breaks become spaces so long messages
// reflow at any feed width; fenced code keeps its line structure.
func renderMessageText(input string, theme Theme, width int) string {
	if input == "" {
		return ""
	}
	source := []byte(input)
	document := getMessageParser().Parser().Parse(text.NewReader(source))

	// Force the ANSI256 color profile: output always goes to the
	// bubbletea display, so auto-detection (which sees no TTY in
	// tests) must be bypassed.
	lipRenderer := lipgloss.NewRenderer(os.Stderr, termenv.WithProfile(termenv.ANSI256))
	lipRenderer.SetColorProfile(termenv.ANSI256)

	renderer := &messageRenderer{
		source:      source,
		theme:       theme,
		width:       width,
		lipRenderer: lipRenderer,
	}
	ast.Walk(document, renderer.walk)

	return strings.TrimRight(renderer.output.String(), "\n")
}

// messageRenderer walks a goldmark AST and produces styled terminal
// text. Paragraph inline content accumulates in a buffer and is
// word-wrapped as a unit when the paragraph closes; goldmark's
// streaming renderer interface does not fit that pattern.
type messageRenderer struct {
	source []byte
	theme  Theme
	width  int

	output strings.Builder

	// Inline accumulator for the current paragraph.
	inline strings.Builder

	// Style counters incremented on entering emphasis nodes and
	// decremented on leaving. Counters rather than booleans so nested
	// emphasis unwinds correctly.
	boldCount          int
	italicCount        int
	strikethroughCount int

	lipRenderer *lipgloss.Renderer
}

func (renderer *messageRenderer) newStyle() lipgloss.Style {
	return renderer.lipRenderer.NewStyle()
}

func (renderer *messageRenderer) contentWidth() int {
	if renderer.width < 10 {
		return 10
	}
	return renderer.width
}

// flushParagraph word-wraps the accumulated inline content and writes
// it to the output, followed by a blank line.
func (renderer *messageRenderer) flushParagraph() {
	content := renderer.inline.String()
	renderer.inline.Reset()
	if content == "" {
		return
	}
	renderer.output.WriteString(ansi.Wrap(content, renderer.contentWidth(), " ,.;-+|"))
	renderer.output.WriteString("\n\n")
}

// styledText applies the active emphasis state to a text fragment.
func (renderer *messageRenderer) styledText(content string) string {
	style := renderer.newStyle().Foreground(renderer.theme.NormalText)
	if renderer.boldCount > 0 {
		style = style.Bold(true)
	}
	if renderer.italicCount > 0 {
		style = style.Italic(true)
	}
	if renderer.strikethroughCount > 0 {
		style = style.Strikethrough(true)
	}
	return style.Render(content)
}

// highlightCode syntax-highlights a fenced code block with Chroma.
// Unknown languages and highlighter errors fall back to faint text.
func (renderer *messageRenderer) highlightCode(code, language string) string {
	if language == "" {
		return renderer.newStyle().Foreground(renderer.theme.FaintText).Render(code)
	}
	var buffer strings.Builder
	if err := quick.Highlight(&buffer, code, language, "terminal256", "monokai"); err != nil {
		return renderer.newStyle().Foreground(renderer.theme.FaintText).Render(code)
	}
	return buffer.String()
}

func (renderer *messageRenderer) walk(node ast.Node, entering bool) (ast.WalkStatus, error) {
	switch node.Kind() {

	case ast.KindParagraph, ast.KindTextBlock:
		if !entering {
			renderer.flushParagraph()
		}

	case ast.KindHeading:
		// Chat messages have no real headings; render the text bold
		// on its own line.
		if !entering {
			content := renderer.inline.String()
			renderer.inline.Reset()
			renderer.output.WriteString(renderer.newStyle().Bold(true).Render(ansi.Strip(content)))
			renderer.output.WriteString("\n\n")
		}

	case ast.KindText:
		if entering {
			textNode := node.(*ast.Text)
			renderer.inline.WriteString(renderer.styledText(string(textNode.Segment.Value(renderer.source))))
			if textNode.SoftLineBreak() {
				renderer.inline.WriteString(" ")
			}
			if textNode.HardLineBreak() {
				renderer.inline.WriteString("\n")
			}
		}

	case ast.KindEmphasis:
		emphasis := node.(*ast.Emphasis)
		delta := 1
		if !entering {
			delta = -1
		}
		if emphasis.Level >= 2 {
			renderer.boldCount += delta
		} else {
			renderer.italicCount += delta
		}

	case extast.KindStrikethrough:
		if entering {
			renderer.strikethroughCount++
		} else {
			renderer.strikethroughCount--
		}

	case ast.KindCodeSpan:
		if entering {
			var code strings.Builder
			for child := node.FirstChild(); child != nil; child = child.NextSibling() {
				if textNode, ok := child.(*ast.Text); ok {
					code.Write(textNode.Segment.Value(renderer.source))
				}
			}
			styled := renderer.newStyle().
				Foreground(renderer.theme.CodeForeground).
				Background(renderer.theme.CodeBackground).
				Render(code.String())
			renderer.inline.WriteString(styled)
			return ast.WalkSkipChildren, nil
		}

	case ast.KindFencedCodeBlock:
		if entering {
			block := node.(*ast.FencedCodeBlock)
			language := string(block.Language(renderer.source))
			var code strings.Builder
			lines := block.Lines()
			for index := 0; index < lines.Len(); index++ {
				line := lines.At(index)
				code.Write(line.Value(renderer.source))
			}
			renderer.output.WriteString(renderer.highlightCode(strings.TrimRight(code.String(), "\n"), language))
			renderer.output.WriteString("\n\n")
			return ast.WalkSkipChildren, nil
		}

	case ast.KindCodeBlock:
		if entering {
			block := node.(*ast.CodeBlock)
			var code strings.Builder
			lines := block.Lines()
			for index := 0; index < lines.Len(); index++ {
				line := lines.At(index)
				code.Write(line.Value(renderer.source))
			}
			renderer.output.WriteString(renderer.newStyle().
				Foreground(renderer.theme.FaintText).
				Render(strings.TrimRight(code.String(), "\n")))
			renderer.output.WriteString("\n\n")
			return ast.WalkSkipChildren, nil
		}

	case ast.KindLink:
		if entering {
			link := node.(*ast.Link)
			label := renderer.collectText(node)
			destination := string(link.Destination)
			styled := renderer.newStyle().Foreground(renderer.theme.PeerSender).Underline(true).Render(destination)
			if label != "" && label != destination {
				renderer.inline.WriteString(renderer.styledText(label) + " (" + styled + ")")
			} else {
				renderer.inline.WriteString(styled)
			}
			return ast.WalkSkipChildren, nil
		}

	case ast.KindAutoLink:
		if entering {
			link := node.(*ast.AutoLink)
			destination := string(link.URL(renderer.source))
			renderer.inline.WriteString(renderer.newStyle().
				Foreground(renderer.theme.PeerSender).Underline(true).Render(destination))
			return ast.WalkSkipChildren, nil
		}

	case ast.KindList, ast.KindListItem:
		// Flattened: list items render as their own paragraphs.

	case ast.KindThematicBreak:
		if entering {
			renderer.output.WriteString(renderer.newStyle().
				Foreground(renderer.theme.BorderColor).
				Render(strings.Repeat("─", renderer.contentWidth())))
			renderer.output.WriteString("\n\n")
		}
	}

	return ast.WalkContinue, nil
}

// collectText gathers the raw text of a node's descendants.
func (renderer *messageRenderer) collectText(node ast.Node) string {
	var result strings.Builder
	var walk func(ast.Node)
	walk = func(current ast.Node) {
		if textNode, ok := current.(*ast.Text); ok {
			result.Write(textNode.Segment.Value(renderer.source))
		}
		for child := current.FirstChild(); child != nil; child = child.NextSibling() {
			walk(child)
		}
	}
	walk(node)
	return result.String()
}
