// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
//
// This file defines the Bubble Tea message types and the commands that bridge
// the UI to the session view-model. Session calls block on the network, so
// every one of them runs inside a tea.Cmd and reports back with a message
// carrying a fresh snapshot.
package chat

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/surya-tui/internal/session"
)

// =============================================================================
// MESSAGES
// =============================================================================

// ChatsLoadedMsg reports the initial chat list fetch.
type ChatsLoadedMsg struct {
	Snapshot session.Snapshot
}

// SendDoneMsg reports the outcome of a send, including the thinking delay.
type SendDoneMsg struct {
	Snapshot session.Snapshot
	Err      error
}

// ChatSelectedMsg reports a sidebar selection.
type ChatSelectedMsg struct {
	Snapshot session.Snapshot
	Err      error
}

// ChatDeletedMsg reports a chat deletion.
type ChatDeletedMsg struct {
	Snapshot session.Snapshot
}

// NewChatMsg reports a freshly created chat.
type NewChatMsg struct {
	Snapshot session.Snapshot
	Err      error
}

// RetryDoneMsg reports a retried send.
type RetryDoneMsg struct {
	Snapshot session.Snapshot
	Err      error
}

// SnapshotMsg carries a plain state refresh, used to pick up the optimistic
// user message shortly after a send starts.
type SnapshotMsg struct {
	Snapshot session.Snapshot
}

// TickMsg drives the elapsed-time display while thinking.
type TickMsg time.Time

// =============================================================================
// COMMANDS
// =============================================================================

// loadChatsCmd fetches the chat list from the backend.
func loadChatsCmd(s *session.Session) tea.Cmd {
	return func() tea.Msg {
		s.LoadChats(context.Background())
		return ChatsLoadedMsg{Snapshot: s.Snapshot()}
	}
}

// sendCmd sends the typed message. The command blocks for the full request
// (the backend thinks for a couple of seconds), which is exactly why it runs
// off the render loop.
func sendCmd(s *session.Session, content string) tea.Cmd {
	return func() tea.Msg {
		err := s.SendMessage(context.Background(), content)
		return SendDoneMsg{Snapshot: s.Snapshot(), Err: err}
	}
}

// selectChatCmd loads a chat's transcript.
func selectChatCmd(s *session.Session, chatID string) tea.Cmd {
	return func() tea.Msg {
		err := s.SelectChat(context.Background(), chatID)
		return ChatSelectedMsg{Snapshot: s.Snapshot(), Err: err}
	}
}

// deleteChatCmd deletes a chat. Backend failures are absorbed by the session,
// so there is no error to surface here.
func deleteChatCmd(s *session.Session, chatID string) tea.Cmd {
	return func() tea.Msg {
		s.DeleteChat(context.Background(), chatID)
		return ChatDeletedMsg{Snapshot: s.Snapshot()}
	}
}

// newChatCmd creates and activates a fresh chat.
func newChatCmd(s *session.Session) tea.Cmd {
	return func() tea.Msg {
		_, err := s.NewChat(context.Background())
		return NewChatMsg{Snapshot: s.Snapshot(), Err: err}
	}
}

// retryCmd resends a failed message.
func retryCmd(s *session.Session, messageID string) tea.Cmd {
	return func() tea.Msg {
		err := s.RetryMessage(context.Background(), messageID)
		return RetryDoneMsg{Snapshot: s.Snapshot(), Err: err}
	}
}

// refreshCmd re-snapshots shortly after a send starts so the optimistic user
// message shows up before the reply lands.
func refreshCmd(s *session.Session) tea.Cmd {
	return tea.Tick(50*time.Millisecond, func(time.Time) tea.Msg {
		return SnapshotMsg{Snapshot: s.Snapshot()}
	})
}

// tickCmd emits a TickMsg every second for the thinking timer.
func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
