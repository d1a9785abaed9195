// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/surya-tui/internal/api"
	"github.com/jeranaias/surya-tui/internal/model"
	"github.com/jeranaias/surya-tui/internal/session"
	"github.com/jeranaias/surya-tui/internal/ui/components"
)

// =============================================================================
// UPDATE
// =============================================================================

// Update is the Bubble Tea message loop.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case ChatsLoadedMsg:
		m.applySnapshot(msg.Snapshot)
		return m, nil

	case SendDoneMsg:
		m.applySnapshot(msg.Snapshot)
		if msg.Err != nil {
			return m.showError(msg.Err)
		}
		return m, nil

	case RetryDoneMsg:
		m.applySnapshot(msg.Snapshot)
		if msg.Err != nil {
			return m.showError(msg.Err)
		}
		return m, nil

	case ChatSelectedMsg:
		m.applySnapshot(msg.Snapshot)
		if msg.Err != nil {
			return m.showError(msg.Err)
		}
		m.sidebarFocus = false
		m.input.Focus()
		m.viewport.GotoBottom()
		return m, nil

	case NewChatMsg:
		m.applySnapshot(msg.Snapshot)
		if msg.Err != nil {
			return m.showError(msg.Err)
		}
		m.sidebarFocus = false
		m.input.Focus()
		return m, nil

	case ChatDeletedMsg:
		m.applySnapshot(msg.Snapshot)
		return m, nil

	case components.ToastExpiredMsg:
		if m.toast != nil && m.toast.CreatedAt == msg.CreatedAt {
			m.toast = nil
		}
		return m, nil

	case SnapshotMsg:
		m.applySnapshot(msg.Snapshot)
		return m, nil

	case TickMsg:
		if m.snap.Pending {
			m.applySnapshot(m.sess.Snapshot())
			return m, tickCmd()
		}
		return m, nil
	}

	// Spinner frames and cursor blink.
	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	cmds = append(cmds, cmd)

	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// handleKey dispatches keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	keys := m.keys

	switch {
	case key.Matches(msg, keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, keys.Help):
		m.showHelp = !m.showHelp
		return m, nil

	case key.Matches(msg, keys.CycleTab):
		m.sess.SetTab(components.NextTab(m.snap.ActiveTab))
		m.applySnapshot(m.sess.Snapshot())
		return m, nil

	case key.Matches(msg, keys.Sidebar):
		m.sidebarFocus = !m.sidebarFocus
		m.sidebar.Focused = m.sidebarFocus
		if m.sidebarFocus {
			m.input.Blur()
		} else {
			m.input.Focus()
		}
		return m, nil

	case key.Matches(msg, keys.NewChat):
		return m, newChatCmd(m.sess)

	case key.Matches(msg, keys.Retry):
		if id := m.lastFailedID(); id != "" {
			spin := m.spinner.Start()
			return m, tea.Batch(retryCmd(m.sess, id), refreshCmd(m.sess), spin, tickCmd())
		}
		return m, nil

	case key.Matches(msg, keys.Escape):
		m.showHelp = false
		m.sidebarFocus = false
		m.sidebar.Focused = false
		m.input.Focus()
		return m, nil
	}

	if m.sidebarFocus {
		return m.handleSidebarKey(msg)
	}

	switch {
	case key.Matches(msg, keys.Submit):
		return m.submit()

	case key.Matches(msg, keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil

	case key.Matches(msg, keys.Up):
		m.viewport.LineUp(1)
		return m, nil

	case key.Matches(msg, keys.Down):
		m.viewport.LineDown(1)
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleSidebarKey handles keys while the chat list has focus.
func (m Model) handleSidebarKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	keys := m.keys

	switch {
	case key.Matches(msg, keys.Up):
		m.sidebar.CursorUp()
		return m, nil

	case key.Matches(msg, keys.Down):
		m.sidebar.CursorDown()
		return m, nil

	case key.Matches(msg, keys.Submit):
		if sel := m.sidebar.Selected(); sel != nil {
			return m, selectChatCmd(m.sess, sel.ID)
		}
		return m, nil

	case key.Matches(msg, keys.DeleteChat):
		if sel := m.sidebar.Selected(); sel != nil {
			return m, deleteChatCmd(m.sess, sel.ID)
		}
		return m, nil
	}

	return m, nil
}

// submit sends the typed message.
func (m Model) submit() (tea.Model, tea.Cmd) {
	content := strings.TrimSpace(m.input.Value())
	if content == "" && !m.sess.HasAttachment() {
		return m, nil
	}
	if m.snap.Pending {
		return m.showError(session.ErrSendInProgress)
	}

	m.input.Reset()
	spin := m.spinner.Start()

	return m, tea.Batch(sendCmd(m.sess, content), refreshCmd(m.sess), spin, tickCmd())
}

// lastFailedID returns the most recent failed message id, or "".
func (m Model) lastFailedID() string {
	for i := len(m.snap.Messages) - 1; i >= 0; i-- {
		if m.snap.Messages[i].Status == model.StatusFailed {
			return m.snap.Messages[i].ID
		}
	}
	return ""
}

// showError surfaces an error as a corner toast.
func (m Model) showError(err error) (tea.Model, tea.Cmd) {
	kind := components.ToastKindError
	if errors.Is(err, session.ErrSendInProgress) || errors.Is(err, session.ErrEmptyMessage) {
		kind = components.ToastKindWarning
	}

	msg := err.Error()
	var netErr *api.NetworkError
	if errors.As(err, &netErr) {
		msg = "backend unreachable. Is the server running?"
	}

	toast, cmd := components.NewToast(msg, kind)
	m.toast = &toast
	return m, cmd
}
