// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chats and messages.
package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/surya-tui/internal/util"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Surya"
	default:
		return string(r)
	}
}

// =============================================================================
// MESSAGE STATUS
// =============================================================================

// Status tracks the lifecycle of a message relative to the backend.
// Optimistic user messages start Pending, become Confirmed once the
// backend accepts the send, or Failed when the send errors out. Messages
// fetched from the backend are always Confirmed.
type Status int

const (
	StatusConfirmed Status = iota
	StatusPending
	StatusFailed
)

// String returns a short label for the status.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusFailed:
		return "failed"
	default:
		return "confirmed"
	}
}

// =============================================================================
// FILE REFERENCE
// =============================================================================

// FileRef describes an uploaded file as echoed back by the backend's
// upload endpoint: the original filename, the base64-encoded content,
// the MIME type, and the decoded size in bytes.
type FileRef struct {
	Filename string `json:"filename"`
	Content  string `json:"content,omitempty"`
	Type     string `json:"type,omitempty"`
	Size     int64  `json:"size,omitempty"`
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// localIDPrefix namespaces client-generated message ids so they can never
// collide with (or be mistaken for) server-assigned ids.
const localIDPrefix = "local_"

// Message represents a single turn in a chat. Messages are append-only:
// once added to a chat they are never mutated or reordered, except for
// the Status transitions of an optimistic local message.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`

	// AttachedFile references an uploaded file, if any.
	AttachedFile *FileRef `json:"attached_file,omitempty"`

	// IsCode marks assistant output that should be shown in the code
	// viewer and preview panes.
	IsCode bool `json:"is_code,omitempty"`

	// Status is client-side bookkeeping only and never crosses the wire.
	Status Status `json:"-"`
}

// NewMessage creates a confirmed message with a server-style id.
func NewMessage(role Role, content string) *Message {
	return &Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
}

// NewLocalUserMessage creates an optimistic user message with a
// client-generated id and pending status. The id carries the local_
// prefix and must never be sent to the backend.
func NewLocalUserMessage(content string, file *FileRef) *Message {
	return &Message{
		ID:           localIDPrefix + uuid.NewString(),
		Role:         RoleUser,
		Content:      content,
		Timestamp:    time.Now(),
		AttachedFile: file,
		Status:       StatusPending,
	}
}

// IsLocal reports whether the message carries a client-generated id.
func (m *Message) IsLocal() bool {
	return len(m.ID) >= len(localIDPrefix) && m.ID[:len(localIDPrefix)] == localIDPrefix
}

// Preview returns a truncated preview of the message content.
func (m *Message) Preview(maxRunes int) string {
	return util.TruncateRunes(m.Content, maxRunes)
}

// HasAttachment reports whether the message carries a file reference.
func (m *Message) HasAttachment() bool {
	return m.AttachedFile != nil
}
