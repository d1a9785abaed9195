// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/surya-tui/internal/util"
)

// TitleMaxRunes is the length a derived chat title is truncated to.
const TitleMaxRunes = 50

// DefaultTitle is the placeholder title for a chat with no messages yet.
const DefaultTitle = "New Chat"

// =============================================================================
// CHAT TYPE
// =============================================================================

// Chat holds a conversation thread with its message history and metadata.
// The backend owns the canonical copy; the client caches one per known
// chat and reconciles after every send.
type Chat struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Messages []*Message `json:"messages"`
}

// NewChat creates a chat with a generated id. An empty title falls back to
// the default.
func NewChat(title string) *Chat {
	if title == "" {
		title = DefaultTitle
	}
	now := time.Now().UTC()
	return &Chat{
		ID:        uuid.NewString(),
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
		Messages:  make([]*Message, 0),
	}
}

// =============================================================================
// MESSAGE MANAGEMENT
// =============================================================================

// AppendMessage adds a message to the chat and bumps the update time.
func (c *Chat) AppendMessage(msg *Message) {
	c.Messages = append(c.Messages, msg)
	c.UpdatedAt = time.Now().UTC()
}

// MessageByID returns the message with the given id, or nil.
func (c *Chat) MessageByID(id string) *Message {
	for _, msg := range c.Messages {
		if msg.ID == id {
			return msg
		}
	}
	return nil
}

// FirstUserMessage returns the earliest user message, or nil.
func (c *Chat) FirstUserMessage() *Message {
	for _, msg := range c.Messages {
		if msg.Role == RoleUser {
			return msg
		}
	}
	return nil
}

// LastMessage returns the most recent message, or nil if empty.
func (c *Chat) LastMessage() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return c.Messages[len(c.Messages)-1]
}

// MessageCount returns the number of messages.
func (c *Chat) MessageCount() int {
	return len(c.Messages)
}

// IsEmpty returns true if there are no messages.
func (c *Chat) IsEmpty() bool {
	return len(c.Messages) == 0
}

// =============================================================================
// TITLE DERIVATION
// =============================================================================

// DeriveTitle builds a chat title from the first user message: the text
// unchanged when it fits, otherwise the first TitleMaxRunes characters
// followed by an ellipsis marker.
func DeriveTitle(content string) string {
	return util.TruncateRunes(content, TitleMaxRunes)
}

// RefreshTitle re-derives the title from the first user message. Chats
// without a user message keep their current title.
func (c *Chat) RefreshTitle() {
	if first := c.FirstUserMessage(); first != nil {
		c.Title = DeriveTitle(first.Content)
	}
}

// DisplayTitle returns the title or the default placeholder.
func (c *Chat) DisplayTitle() string {
	if c.Title != "" {
		return c.Title
	}
	return DefaultTitle
}

// Clone creates a deep copy of the chat.
func (c *Chat) Clone() *Chat {
	clone := &Chat{
		ID:        c.ID,
		Title:     c.Title,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
		Messages:  make([]*Message, len(c.Messages)),
	}
	for i, msg := range c.Messages {
		msgCopy := *msg
		clone.Messages[i] = &msgCopy
	}
	return clone
}

// =============================================================================
// CHAT SUMMARY
// =============================================================================

// ChatSummary is the lightweight form returned by the chat-list endpoint
// and shown in the sidebar.
type ChatSummary struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	MessageCount int       `json:"message_count"`
}

// Summary returns the chat's sidebar representation.
func (c *Chat) Summary() ChatSummary {
	return ChatSummary{
		ID:           c.ID,
		Title:        c.DisplayTitle(),
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
		MessageCount: len(c.Messages),
	}
}

// SidebarLabel returns the title truncated to a display width for the
// sidebar list.
func (c *Chat) SidebarLabel(maxWidth int) string {
	return util.TruncateWidth(c.DisplayTitle(), maxWidth)
}
