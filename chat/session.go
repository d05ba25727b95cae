// Copyright 2026 The Streakmate Authors
// SPDX-License-Identifier: Apache-2.0

package chat

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/streakmate/streakmate/api"
	"github.com/streakmate/streakmate/lib/clock"
	"github.com/streakmate/streakmate/realtime"
)

const (
	// typingIdle is how long after the last keystroke the typing-stop
	// signal fires. Each keystroke resets the deadline.
	typingIdle = 2000 * time.Millisecond

	// typingTTL bounds how long a peer's typing indicator survives
	// without a fresh typing-start. Clears stale presence when the
	// stop signal is lost in transit.
	typingTTL = 5 * time.Second
)

// Transport is the live-channel surface a Session emits on.
// *realtime.Conn satisfies it.
type Transport interface {
	JoinConversation(conversationID string)
	LeaveConversation(conversationID string)
	SendMessage(conversationID, content string)
	TypingStart(conversationID string)
	TypingStop(conversationID string)
	MarkRead(conversationID string)
}

// History is the paged message store a Session fetches from.
// *api.Session satisfies it.
type History interface {
	Messages(ctx context.Context, conversationID, cursor string) (*api.MessagesPage, error)
}

type phase int

const (
	phaseClosed  phase = iota
	phaseOpening       // first-page fetch in flight, live messages buffered
	phaseOpen
)

// typingEntry tracks one peer currently signaling typing, with the
// expiry timer that clears it if no further signal arrives.
type typingEntry struct {
	username string
	expiry   *clock.Timer
}

// Config carries the collaborators for a Session.
type Config struct {
	History   History
	Transport Transport

	// Viewer is the authenticated user, used as the sender of
	// optimistic messages.
	Viewer api.User

	// Clock drives the typing debounce and presence expiry. If nil,
	// the real clock is used.
	Clock clock.Clock

	// Logger is used for structured logging. If nil, slog.Default()
	// is used.
	Logger *slog.Logger
}

// Session presents one conversation as a live, append-only message
// feed with typing presence and read-state side effects. It owns the
// in-memory history and typing set for the conversation currently
// open; both are discarded on Close.
//
// All exported methods are safe for concurrent use. The inbound
// appliers (HandleMessage, HandleTyping, HandleReconnect) are wired as
// realtime handler callbacks and run on the connection's read
// goroutine.
type Session struct {
	history   History
	transport Transport
	viewer    api.User
	clock     clock.Clock
	logger    *slog.Logger

	updates chan struct{}

	mu             sync.Mutex
	phase          phase
	epoch          int // bumped on every Open/Close; stale async results check it
	ctx            context.Context
	conversationID string
	messages       []api.Message
	buffered       []api.Message // arrivals during the first fetch, replayed at the merge
	typing         map[string]typingEntry
	draft          string
	typingActive   bool
	typingTimer    *clock.Timer
	nextCursor     string
	hasMore        bool
	loadingOlder   bool
	loadErr        error
}

// New constructs a Session. It holds no conversation until Open.
func New(config Config) *Session {
	c := config.Clock
	if c == nil {
		c = clock.Real()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		history:   config.History,
		transport: config.Transport,
		viewer:    config.Viewer,
		clock:     c,
		logger:    logger,
		updates:   make(chan struct{}, 1),
		typing:    make(map[string]typingEntry),
	}
}

// SetTransport installs the live-channel transport. Must be called
// before Open. Lets the caller construct the session first and the
// connection whose inbound handlers feed it second.
func (s *Session) SetTransport(transport Transport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transport = transport
}

// Updates signals that the session state changed. Notifications are
// coalesced; consumers read the current state with Snapshot.
func (s *Session) Updates() <-chan struct{} { return s.updates }

// Snapshot is a point-in-time copy of the session state for rendering.
type Snapshot struct {
	ConversationID string
	Messages       []api.Message
	TypingUsers    map[string]string // user id -> username
	Draft          string
	Loading        bool // first-page fetch in flight
	LoadingOlder   bool
	HasMore        bool
	Err            error // retryable fetch failure, nil otherwise
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	messages := make([]api.Message, len(s.messages))
	copy(messages, s.messages)
	typing := make(map[string]string, len(s.typing))
	for id, entry := range s.typing {
		typing[id] = entry.username
	}
	return Snapshot{
		ConversationID: s.conversationID,
		Messages:       messages,
		TypingUsers:    typing,
		Draft:          s.draft,
		Loading:        s.phase == phaseOpening,
		LoadingOlder:   s.loadingOlder,
		HasMore:        s.hasMore,
		Err:            s.loadErr,
	}
}

// Open switches the session to conversationID: joins the live room,
// marks the conversation read, and fetches the first history page.
// Any previously open conversation is closed first; late results for
// it are discarded. ctx governs this conversation's history fetches
// until the next Open or Close.
func (s *Session) Open(ctx context.Context, conversationID string) {
	s.mu.Lock()
	if s.phase != phaseClosed {
		s.closeLocked()
	}
	s.epoch++
	epoch := s.epoch
	s.ctx = ctx
	s.conversationID = conversationID
	s.phase = phaseOpening
	s.mu.Unlock()

	s.transport.JoinConversation(conversationID)
	s.transport.MarkRead(conversationID)
	go s.fetchFirstPage(ctx, conversationID, epoch)
	s.notify()
}

func (s *Session) fetchFirstPage(ctx context.Context, conversationID string, epoch int) {
	page, err := s.history.Messages(ctx, conversationID, "")

	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch {
		return // conversation switched while the fetch was in flight
	}
	if err != nil {
		s.logger.Warn("history fetch failed",
			"conversation", conversationID, "error", err)
		s.loadErr = err
		s.notify()
		return
	}
	s.loadErr = nil
	s.messages = append([]api.Message(nil), page.Messages...)
	s.nextCursor = page.NextCursor
	s.hasMore = page.HasMore

	// Append live messages that arrived during the fetch, in receipt
	// order, skipping any already present in the fetched page.
	known := make(map[string]bool, len(s.messages))
	for _, message := range s.messages {
		known[message.ID] = true
	}
	for _, message := range s.buffered {
		if !known[message.ID] {
			s.messages = append(s.messages, message)
			known[message.ID] = true
		}
	}
	s.buffered = nil
	s.phase = phaseOpen
	s.notify()
}

// Retry re-issues the failed history fetch: the first page while the
// conversation is opening, or the older-page fetch once it is open.
// No-op unless the session is in the retryable error state.
func (s *Session) Retry() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr == nil {
		return
	}
	switch s.phase {
	case phaseOpening:
		s.loadErr = nil
		go s.fetchFirstPage(s.ctx, s.conversationID, s.epoch)
	case phaseOpen:
		s.loadErr = nil
		if s.hasMore && !s.loadingOlder {
			s.loadingOlder = true
			go s.fetchOlderPage(s.ctx, s.conversationID, s.nextCursor, s.epoch)
		}
	default:
		return
	}
	s.notify()
}

// Close leaves the live room and discards the open conversation's
// history, typing set, and draft. Idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == phaseClosed {
		return
	}
	s.closeLocked()
	s.notify()
}

// closeLocked tears down the open conversation. Caller holds mu.
func (s *Session) closeLocked() {
	s.transport.LeaveConversation(s.conversationID)
	s.epoch++
	if s.typingTimer != nil {
		s.typingTimer.Stop()
		s.typingTimer = nil
	}
	for _, entry := range s.typing {
		entry.expiry.Stop()
	}
	s.phase = phaseClosed
	s.ctx = nil
	s.conversationID = ""
	s.messages = nil
	s.buffered = nil
	s.typing = make(map[string]typingEntry)
	s.draft = ""
	s.typingActive = false
	s.nextCursor = ""
	s.hasMore = false
	s.loadingOlder = false
	s.loadErr = nil
}

// SendMessage appends an optimistic message to the feed and emits the
// send on the live channel. Whitespace-only text is rejected with no
// state change and no emission. The optimistic entry is never rolled
// back; confirmation is the server echo arriving via HandleMessage,
// which is not matched against it.
func (s *Session) SendMessage(text string) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return
	}

	s.mu.Lock()
	if s.phase == phaseClosed {
		s.mu.Unlock()
		return
	}
	conversationID := s.conversationID
	message := api.Message{
		ID:             "pending-" + uuid.NewString(),
		Content:        trimmed,
		ConversationID: conversationID,
		SenderID:       s.viewer.ID,
		Sender: api.MessageSender{
			ID:          s.viewer.ID,
			Username:    s.viewer.Username,
			DisplayName: s.viewer.DisplayName,
			AvatarURL:   s.viewer.AvatarURL,
		},
		CreatedAt: s.clock.Now(),
	}
	// The optimistic entry is visible immediately, even mid-fetch. A
	// copy also goes into the buffer then, so the merge re-appends it
	// in receipt order among the buffered live arrivals (its pending
	// ID can never collide with a fetched one).
	if s.phase == phaseOpening {
		s.buffered = append(s.buffered, message)
	}
	s.messages = append(s.messages, message)
	s.draft = ""
	wasTyping := s.typingActive
	if wasTyping {
		s.typingActive = false
		if s.typingTimer != nil {
			s.typingTimer.Stop()
		}
	}
	s.mu.Unlock()

	s.transport.SendMessage(conversationID, trimmed)
	if wasTyping {
		s.transport.TypingStop(conversationID)
	}
	s.notify()
}

// SetDraft records the input buffer and maintains the typing-presence
// signal: the first keystroke emits typing-start, and typing-stop
// fires after typingIdle with no further keystrokes. Each call resets
// the deadline.
func (s *Session) SetDraft(text string) {
	s.mu.Lock()
	if s.phase == phaseClosed {
		s.mu.Unlock()
		return
	}
	s.draft = text
	conversationID := s.conversationID
	start := !s.typingActive
	s.typingActive = true
	if s.typingTimer != nil {
		s.typingTimer.Reset(typingIdle)
	} else {
		epoch := s.epoch
		s.typingTimer = s.clock.AfterFunc(typingIdle, func() {
			s.typingIdleExpired(epoch)
		})
	}
	s.mu.Unlock()

	if start {
		s.transport.TypingStart(conversationID)
	}
	s.notify()
}

func (s *Session) typingIdleExpired(epoch int) {
	s.mu.Lock()
	if epoch != s.epoch || !s.typingActive {
		s.mu.Unlock()
		return
	}
	s.typingActive = false
	conversationID := s.conversationID
	s.mu.Unlock()

	s.transport.TypingStop(conversationID)
}

// LoadOlderPage fetches the page before the oldest loaded message and
// prepends it, preserving oldest-first order. No-op while a fetch is
// already running or when the previous page reported no further
// history.
func (s *Session) LoadOlderPage() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != phaseOpen || !s.hasMore || s.loadingOlder {
		return
	}
	s.loadingOlder = true
	go s.fetchOlderPage(s.ctx, s.conversationID, s.nextCursor, s.epoch)
	s.notify()
}

func (s *Session) fetchOlderPage(ctx context.Context, conversationID, cursor string, epoch int) {
	page, err := s.history.Messages(ctx, conversationID, cursor)

	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch {
		return
	}
	s.loadingOlder = false
	if err != nil {
		s.logger.Warn("older-page fetch failed",
			"conversation", conversationID, "error", err)
		s.loadErr = err
		s.notify()
		return
	}
	s.loadErr = nil
	s.messages = append(append([]api.Message(nil), page.Messages...), s.messages...)
	s.nextCursor = page.NextCursor
	s.hasMore = page.HasMore
	s.notify()
}

// HandleMessage applies a live-pushed message. Messages for other
// conversations are ignored; arrivals during the first-page fetch are
// buffered and appended once the fetch resolves. Each applied message
// re-issues mark-read.
func (s *Session) HandleMessage(message api.Message) {
	s.mu.Lock()
	if s.phase == phaseClosed || message.ConversationID != s.conversationID {
		s.mu.Unlock()
		return
	}
	if s.phase == phaseOpening {
		s.buffered = append(s.buffered, message)
	} else {
		s.messages = append(s.messages, message)
	}
	conversationID := s.conversationID
	s.mu.Unlock()

	s.transport.MarkRead(conversationID)
	s.notify()
}

// HandleTyping applies a live typing-presence update for the open
// conversation. A start upserts the user and arms (or re-arms) the
// expiry timer; a stop removes the user immediately.
func (s *Session) HandleTyping(update realtime.TypingUpdate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == phaseClosed || update.ConversationID != s.conversationID {
		return
	}
	if !update.IsTyping {
		if entry, ok := s.typing[update.UserID]; ok {
			entry.expiry.Stop()
			delete(s.typing, update.UserID)
			s.notify()
		}
		return
	}
	if entry, ok := s.typing[update.UserID]; ok {
		entry.username = update.Username
		entry.expiry.Reset(typingTTL)
		s.typing[update.UserID] = entry
		s.notify()
		return
	}
	epoch := s.epoch
	userID := update.UserID
	s.typing[userID] = typingEntry{
		username: update.Username,
		expiry: s.clock.AfterFunc(typingTTL, func() {
			s.typingExpired(epoch, userID)
		}),
	}
	s.notify()
}

func (s *Session) typingExpired(epoch int, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch {
		return
	}
	if _, ok := s.typing[userID]; ok {
		delete(s.typing, userID)
		s.notify()
	}
}

// HandleReconnect re-establishes conversation state after the live
// connection was rebuilt: re-joins the room, re-issues mark-read, and
// re-fetches the latest page to bound staleness, appending any
// messages missed during the outage.
func (s *Session) HandleReconnect() {
	s.mu.Lock()
	if s.phase == phaseClosed {
		s.mu.Unlock()
		return
	}
	conversationID := s.conversationID
	epoch := s.epoch
	ctx := s.ctx
	refresh := s.phase == phaseOpen
	s.mu.Unlock()

	s.transport.JoinConversation(conversationID)
	s.transport.MarkRead(conversationID)
	if refresh {
		go s.refreshLatest(ctx, conversationID, epoch)
	}
}

// refreshLatest appends messages from the newest history page that the
// feed does not already hold. Pagination state is left untouched: the
// cursor still names the oldest loaded page.
func (s *Session) refreshLatest(ctx context.Context, conversationID string, epoch int) {
	page, err := s.history.Messages(ctx, conversationID, "")
	if err != nil {
		s.logger.Warn("post-reconnect refresh failed",
			"conversation", conversationID, "error", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch {
		return
	}
	known := make(map[string]bool, len(s.messages))
	for _, message := range s.messages {
		known[message.ID] = true
	}
	appended := false
	for _, message := range page.Messages {
		if !known[message.ID] {
			s.messages = append(s.messages, message)
			appended = true
		}
	}
	if appended {
		s.notify()
	}
}

// notify signals Updates without blocking; pending signals coalesce.
func (s *Session) notify() {
	select {
	case s.updates <- struct{}{}:
	default:
	}
}
