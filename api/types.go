// Copyright 2026 The Streakmate Authors
// SPDX-License-Identifier: Apache-2.0

package api

import "time"

// User is the authenticated user's own account record.
type User struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	Username      string     `json:"username"`
	DisplayName   string     `json:"displayName,omitempty"`
	Bio           string     `json:"bio,omitempty"`
	AvatarURL     string     `json:"avatarUrl,omitempty"`
	Points        int        `json:"points"`
	CurrentStreak int        `json:"currentStreak"`
	LongestStreak int        `json:"longestStreak"`
	LastActiveAt  *time.Time `json:"lastActiveAt"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// GoalFrequency is the completion cadence of a goal.
type GoalFrequency string

const (
	FrequencyDaily   GoalFrequency = "daily"
	FrequencyWeekly  GoalFrequency = "weekly"
	FrequencyMonthly GoalFrequency = "monthly"
	FrequencyYearly  GoalFrequency = "yearly"
)

// Goal is a tracked habit or objective.
type Goal struct {
	ID                  string        `json:"id"`
	Title               string        `json:"title"`
	Description         string        `json:"description,omitempty"`
	Frequency           GoalFrequency `json:"frequency"`
	CurrentStreak       int           `json:"currentStreak"`
	LongestStreak       int           `json:"longestStreak"`
	CompletedThisPeriod bool          `json:"completedThisPeriod"`
	LastCompletedAt     *time.Time    `json:"lastCompletedAt"`
	IsShared            bool          `json:"isShared"`
	UserID              string        `json:"userId"`
	CreatedAt           time.Time     `json:"createdAt"`
	UpdatedAt           time.Time     `json:"updatedAt"`
}

// CreateGoalRequest is the payload for creating a goal. Description is
// optional; a zero Frequency is rejected by the backend.
type CreateGoalRequest struct {
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Frequency   GoalFrequency `json:"frequency"`
}

// UpdateGoalRequest carries a partial goal update. Nil fields are
// omitted from the request and left unchanged by the backend.
type UpdateGoalRequest struct {
	Title       *string        `json:"title,omitempty"`
	Description *string        `json:"description,omitempty"`
	Frequency   *GoalFrequency `json:"frequency,omitempty"`
}

// GoalStats aggregates the user's goal activity.
type GoalStats struct {
	TotalGoals        int `json:"totalGoals"`
	TotalCompletions  int `json:"totalCompletions"`
	CurrentStreak     int `json:"currentStreak"`
	LongestStreak     int `json:"longestStreak"`
	TotalPointsEarned int `json:"totalPointsEarned"`
}

// GoalStreak is a per-goal streak summary inside StreakInfo.
type GoalStreak struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	CurrentStreak int    `json:"currentStreak"`
	LongestStreak int    `json:"longestStreak"`
}

// StreakInfo is the user's overall streak state.
type StreakInfo struct {
	CurrentStreak  int          `json:"currentStreak"`
	LongestStreak  int          `json:"longestStreak"`
	CompletedToday bool         `json:"completedToday"`
	GoalStreaks    []GoalStreak `json:"goalStreaks"`
}

// Friend is an accepted friend connection.
type Friend struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Email         string `json:"email"`
	Points        int    `json:"points"`
	CurrentStreak int    `json:"currentStreak"`
}

// FriendRequestSender identifies who sent a pending friend request.
type FriendRequestSender struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// FriendRequest is a pending inbound friend request.
type FriendRequest struct {
	ID        string              `json:"id"`
	Sender    FriendRequestSender `json:"from"`
	CreatedAt time.Time           `json:"createdAt"`
}

// LeaderboardEntry is one row of a points leaderboard.
type LeaderboardEntry struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	Email          string `json:"email"`
	Points         int    `json:"points"`
	CompletedGoals int    `json:"completedGoals"`
	CurrentStreak  int    `json:"currentStreak"`
	Rank           int    `json:"rank,omitempty"`
}

// UserRank is the viewer's own leaderboard position.
type UserRank struct {
	Rank           int `json:"rank"`
	Points         int `json:"points"`
	CompletedGoals int `json:"completedGoals"`
}

// ConversationUser is the other participant in a conversation.
type ConversationUser struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	AvatarURL   string `json:"avatarUrl"`
}

// LastMessage is the conversation-list summary of the newest message.
type LastMessage struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	SenderID  string    `json:"senderId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Conversation is a one-to-one messaging thread. LastMessage is nil
// for a thread with no messages yet.
type Conversation struct {
	ID          string           `json:"id"`
	OtherUser   ConversationUser `json:"otherUser"`
	LastMessage *LastMessage     `json:"lastMessage"`
	LastReadAt  time.Time        `json:"lastReadAt"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

// Unread reports whether the conversation has activity newer than the
// viewer's last read marker.
func (c *Conversation) Unread() bool {
	return c.LastMessage != nil && c.LastMessage.CreatedAt.After(c.LastReadAt)
}

// MessageSender identifies who sent a message.
type MessageSender struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	AvatarURL   string `json:"avatarUrl"`
}

// Message is a single chat message. Within a conversation, messages
// are totally ordered by creation time; clients append in receipt
// order and never reorder.
type Message struct {
	ID             string        `json:"id"`
	Content        string        `json:"content"`
	ConversationID string        `json:"conversationId"`
	SenderID       string        `json:"senderId"`
	Sender         MessageSender `json:"sender"`
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`
}

// MessagesPage is one page of conversation history, oldest-first, with
// an opaque cursor for fetching the page before it. A nil NextCursor
// with HasMore false means the full history has been fetched.
type MessagesPage struct {
	Messages   []Message `json:"messages"`
	NextCursor string    `json:"nextCursor"`
	HasMore    bool      `json:"hasMore"`
}

// AuthResponse is the login/register payload: the identity plus the
// short-lived access token (the refresh token travels separately as an
// httpOnly cookie).
type AuthResponse struct {
	User        User   `json:"user"`
	AccessToken string `json:"accessToken"`
}
