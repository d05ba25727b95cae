// Copyright 2026 The Streakmate Authors
// SPDX-License-Identifier: Apache-2.0

package chatui

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/streakmate/streakmate/api"
	"github.com/streakmate/streakmate/chat"
	"github.com/streakmate/streakmate/realtime"
)

// FocusRegion identifies which pane has keyboard focus.
type FocusRegion int

const (
	// FocusConversations means navigation keys move the conversation
	// list cursor.
	FocusConversations FocusRegion = iota
	// FocusComposer means keystrokes go to the message input.
	FocusComposer
)

// Layout constants.
const (
	listPaneWidth = 32

	// statusFadeDelay is how long transient status notices stay visible.
	statusFadeDelay = 4 * time.Second

	// conversationFetchTimeout bounds the conversation-list request.
	conversationFetchTimeout = 10 * time.Second
)

// chatUpdateMsg signals that the chat session state changed; the model
// re-reads it with Snapshot.
type chatUpdateMsg struct{}

// conversationsMsg delivers the conversation list fetch result.
type conversationsMsg struct {
	conversations []api.Conversation
	err           error
}

// NotificationMsg wraps a cross-conversation message notification for
// delivery through the bubbletea message loop. Sent from the realtime
// notification handler via Program.Send.
type NotificationMsg struct {
	Notification realtime.Notification
}

// statusFadeMsg clears the transient status notice.
type statusFadeMsg struct{}

// Model is the top-level bubbletea model for the chat TUI: a
// conversation list on the left and the open conversation's feed,
// typing indicator, and composer on the right.
type Model struct {
	ctx     context.Context
	api     *api.Session
	session *chat.Session
	viewer  api.User
	theme   Theme
	keys    KeyMap

	// Terminal dimensions (set by WindowSizeMsg).
	width  int
	height int
	ready  bool

	focus FocusRegion

	// Conversation list state.
	conversations []api.Conversation
	cursor        int
	listErr       error
	openID        string

	// Open conversation state, re-read on every chatUpdateMsg.
	snapshot chat.Snapshot
	feed     viewport.Model
	input    textinput.Model

	status string
}

// NewModel creates a Model over the given API session and chat
// session. ctx governs the conversation-list fetches and the chat
// session's history fetches.
func NewModel(ctx context.Context, apiSession *api.Session, session *chat.Session, viewer api.User) Model {
	input := textinput.New()
	input.Placeholder = "Message"
	input.Prompt = "> "

	return Model{
		ctx:     ctx,
		api:     apiSession,
		session: session,
		viewer:  viewer,
		theme:   DefaultTheme,
		keys:    DefaultKeyMap,
		input:   input,
	}
}

// Init implements tea.Model.
func (model Model) Init() tea.Cmd {
	return tea.Batch(
		loadConversations(model.ctx, model.api),
		listenForChatUpdate(model.session),
		textinput.Blink,
	)
}

// loadConversations fetches the conversation list off the update loop.
func loadConversations(ctx context.Context, session *api.Session) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, conversationFetchTimeout)
		defer cancel()
		conversations, err := session.Conversations(ctx)
		return conversationsMsg{conversations: conversations, err: err}
	}
}

// listenForChatUpdate blocks until the chat session signals a state
// change, then delivers a chatUpdateMsg. Re-armed after each delivery.
func listenForChatUpdate(session *chat.Session) tea.Cmd {
	return func() tea.Msg {
		<-session.Updates()
		return chatUpdateMsg{}
	}
}

// Update implements tea.Model.
func (model Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case tea.KeyMsg:
		return model.handleKey(message)

	case tea.WindowSizeMsg:
		model.width = message.Width
		model.height = message.Height
		model.feed.Width = model.feedWidth()
		model.feed.Height = model.feedHeight()
		model.ready = true
		model.input.Width = model.feedWidth() - len(model.input.Prompt) - 1
		model.refreshFeed(true)

	case conversationsMsg:
		model.listErr = message.err
		if message.err == nil {
			model.conversations = message.conversations
			if model.cursor >= len(model.conversations) {
				model.cursor = 0
			}
		}

	case chatUpdateMsg:
		atBottom := model.feed.AtBottom()
		model.snapshot = model.session.Snapshot()
		model.refreshFeed(atBottom)
		return model, listenForChatUpdate(model.session)

	case NotificationMsg:
		model.applyNotification(message.Notification)
		return model, tea.Tick(statusFadeDelay, func(time.Time) tea.Msg {
			return statusFadeMsg{}
		})

	case statusFadeMsg:
		model.status = ""
	}

	return model, nil
}

func (model *Model) handleKey(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(message, model.keys.Quit):
		return *model, tea.Quit

	case key.Matches(message, model.keys.FocusToggle):
		if model.focus == FocusConversations {
			model.focus = FocusComposer
			model.input.Focus()
		} else {
			model.focus = FocusConversations
			model.input.Blur()
		}
		return *model, nil

	case key.Matches(message, model.keys.Retry):
		if model.snapshot.Err != nil {
			model.session.Retry()
			return *model, nil
		}
		return *model, loadConversations(model.ctx, model.api)

	case key.Matches(message, model.keys.PageUp):
		if model.feed.AtTop() && model.snapshot.HasMore {
			model.session.LoadOlderPage()
			return *model, nil
		}
		model.feed.ViewUp()
		return *model, nil

	case key.Matches(message, model.keys.PageDown):
		model.feed.ViewDown()
		return *model, nil
	}

	if model.focus == FocusConversations {
		return model.handleListKey(message)
	}
	return model.handleComposerKey(message)
}

func (model *Model) handleListKey(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(message, model.keys.Up):
		if model.cursor > 0 {
			model.cursor--
		}

	case key.Matches(message, model.keys.Down):
		if model.cursor < len(model.conversations)-1 {
			model.cursor++
		}

	case key.Matches(message, model.keys.Confirm):
		if model.cursor < len(model.conversations) {
			model.openConversation(model.conversations[model.cursor])
		}
	}
	return *model, nil
}

// openConversation switches the chat session to the selected
// conversation and moves focus to the composer. Reopening the already
// open conversation is a no-op.
func (model *Model) openConversation(conversation api.Conversation) {
	if conversation.ID == model.openID {
		model.focus = FocusComposer
		model.input.Focus()
		return
	}
	model.openID = conversation.ID
	model.session.Open(model.ctx, conversation.ID)

	// Opening marks the conversation read server-side; reflect that
	// locally so the unread badge clears without a refetch.
	for index := range model.conversations {
		if model.conversations[index].ID == conversation.ID {
			model.conversations[index].LastReadAt = time.Now()
		}
	}

	model.focus = FocusComposer
	model.input.Focus()
	model.input.Reset()
}

func (model *Model) handleComposerKey(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(message, model.keys.Confirm) {
		model.session.SendMessage(model.input.Value())
		model.input.Reset()
		return *model, nil
	}

	var cmd tea.Cmd
	model.input, cmd = model.input.Update(message)
	model.session.SetDraft(model.input.Value())
	return *model, cmd
}

// applyNotification updates the conversation list for a message in a
// conversation that is not open: bump its last-message summary so the
// unread badge lights up, and show a transient status notice.
func (model *Model) applyNotification(notification realtime.Notification) {
	if notification.ConversationID == model.openID {
		return // the chat session already handles the open conversation
	}
	for index := range model.conversations {
		if model.conversations[index].ID != notification.ConversationID {
			continue
		}
		message := notification.Message
		model.conversations[index].LastMessage = &api.LastMessage{
			ID:        message.ID,
			Content:   message.Content,
			SenderID:  message.SenderID,
			CreatedAt: message.CreatedAt,
		}
		model.conversations[index].UpdatedAt = message.CreatedAt
		model.status = fmt.Sprintf("new message from %s", model.conversations[index].OtherUser.DisplayName)
		return
	}
}

// refreshFeed re-renders the open conversation into the viewport.
// When stick is true the viewport stays pinned to the bottom, the
// usual position while chatting.
func (model *Model) refreshFeed(stick bool) {
	if !model.ready {
		return
	}
	model.feed.SetContent(model.renderFeed())
	if stick {
		model.feed.GotoBottom()
	}
}

// Layout: the right pane loses rows to the peer header, the typing
// line, the composer, and the status bar.
func (model *Model) feedWidth() int {
	width := model.width - listPaneWidth - 3
	if width < 20 {
		width = 20
	}
	return width
}

func (model *Model) feedHeight() int {
	height := model.height - 4
	if height < 3 {
		height = 3
	}
	return height
}

// View implements tea.Model.
func (model Model) View() string {
	if !model.ready {
		return "loading..."
	}

	left := model.renderConversationList()
	right := lipgloss.JoinVertical(lipgloss.Left,
		model.renderHeader(),
		model.feed.View(),
		model.renderTypingLine(),
		model.input.View(),
	)

	divider := lipgloss.NewStyle().
		Foreground(model.theme.BorderColor).
		Render(strings.TrimRight(strings.Repeat("│\n", model.height-1), "\n"))

	body := lipgloss.JoinHorizontal(lipgloss.Top, left, divider, right)
	return lipgloss.JoinVertical(lipgloss.Left, body, model.renderStatusBar())
}

func (model *Model) renderConversationList() string {
	style := lipgloss.NewStyle().Width(listPaneWidth)
	var rows []string

	header := lipgloss.NewStyle().
		Foreground(model.theme.HeaderForeground).
		Bold(true).
		Render("Conversations")
	rows = append(rows, header, "")

	if model.listErr != nil {
		rows = append(rows, lipgloss.NewStyle().
			Foreground(model.theme.ErrorText).
			Render("load failed (C-r to retry)"))
	}

	for index, conversation := range model.conversations {
		rows = append(rows, model.renderConversationRow(conversation, index == model.cursor))
	}

	return style.Height(model.height - 1).Render(strings.Join(rows, "\n"))
}

func (model *Model) renderConversationRow(conversation api.Conversation, selected bool) string {
	name := conversation.OtherUser.DisplayName
	if name == "" {
		name = conversation.OtherUser.Username
	}

	badge := ""
	if conversation.Unread() && conversation.ID != model.openID {
		badge = lipgloss.NewStyle().
			Foreground(model.theme.UnreadForeground).
			Background(model.theme.UnreadBackground).
			Render(" ● ")
	}

	snippet := ""
	if conversation.LastMessage != nil {
		snippet = conversation.LastMessage.Content
		if len(snippet) > 20 {
			snippet = snippet[:20] + "…"
		}
	}

	row := fmt.Sprintf("%-12s %s%s", name, snippet, badge)
	style := lipgloss.NewStyle().Width(listPaneWidth).MaxHeight(1)
	if selected {
		style = style.
			Foreground(model.theme.SelectedForeground).
			Background(model.theme.SelectedBackground)
	} else {
		style = style.Foreground(model.theme.NormalText)
	}
	return style.Render(row)
}

func (model *Model) renderHeader() string {
	title := "no conversation open"
	for _, conversation := range model.conversations {
		if conversation.ID == model.openID {
			title = conversation.OtherUser.DisplayName
			if title == "" {
				title = conversation.OtherUser.Username
			}
			break
		}
	}
	return lipgloss.NewStyle().
		Foreground(model.theme.HeaderForeground).
		Bold(true).
		Width(model.feedWidth()).
		Render(title)
}

// renderFeed renders the open conversation's message history.
func (model *Model) renderFeed() string {
	snapshot := model.snapshot
	if snapshot.Err != nil && len(snapshot.Messages) == 0 {
		return lipgloss.NewStyle().
			Foreground(model.theme.ErrorText).
			Render("could not load messages — press C-r to retry")
	}
	if snapshot.Loading && len(snapshot.Messages) == 0 {
		return lipgloss.NewStyle().
			Foreground(model.theme.FaintText).
			Render("loading messages...")
	}

	var blocks []string
	if snapshot.Err != nil {
		blocks = append(blocks, lipgloss.NewStyle().
			Foreground(model.theme.ErrorText).
			Render("could not load older messages — press C-r to retry"))
	} else if snapshot.HasMore {
		blocks = append(blocks, lipgloss.NewStyle().
			Foreground(model.theme.FaintText).
			Render("PgUp for older messages"))
	}
	for _, message := range snapshot.Messages {
		blocks = append(blocks, model.renderMessage(message))
	}
	return strings.Join(blocks, "\n")
}

func (model *Model) renderMessage(message api.Message) string {
	senderColor := model.theme.PeerSender
	name := message.Sender.DisplayName
	if name == "" {
		name = message.Sender.Username
	}
	if message.SenderID == model.viewer.ID {
		senderColor = model.theme.OwnSender
		name = "you"
	}

	timestamp := message.CreatedAt.Local().Format("15:04")
	suffix := ""
	if strings.HasPrefix(message.ID, "pending-") {
		senderColor = model.theme.Pending
		suffix = " (sending)"
	}

	header := lipgloss.NewStyle().Foreground(senderColor).Bold(true).Render(name) +
		lipgloss.NewStyle().Foreground(model.theme.FaintText).Render(" "+timestamp+suffix)
	body := renderMessageText(message.Content, model.theme, model.feedWidth())
	return header + "\n" + body
}

// renderTypingLine shows who is currently typing in the open
// conversation, names sorted for a stable display.
func (model *Model) renderTypingLine() string {
	names := make([]string, 0, len(model.snapshot.TypingUsers))
	for _, username := range model.snapshot.TypingUsers {
		names = append(names, username)
	}
	if len(names) == 0 {
		return ""
	}
	sort.Strings(names)

	verb := "is"
	if len(names) > 1 {
		verb = "are"
	}
	return lipgloss.NewStyle().
		Foreground(model.theme.TypingIndicator).
		Italic(true).
		Render(fmt.Sprintf("%s %s typing...", strings.Join(names, ", "), verb))
}

func (model *Model) renderStatusBar() string {
	if model.status != "" {
		return lipgloss.NewStyle().Foreground(model.theme.NormalText).Render(model.status)
	}
	help := "Tab switch pane · Enter open/send · PgUp older · C-r retry · C-c quit"
	return lipgloss.NewStyle().Foreground(model.theme.HelpText).Render(help)
}
