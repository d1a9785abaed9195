// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
package chat

import (
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/surya-tui/internal/session"
	"github.com/jeranaias/surya-tui/internal/ui/components"
	"github.com/jeranaias/surya-tui/internal/ui/styles"
)

// =============================================================================
// CHAT MODEL
// =============================================================================

const (
	sidebarWidth   = 32
	minShellWidth  = 60 // below this the sidebar collapses
	chromeHeight   = 5  // top bar, tabs, input, status bar
	inputCharLimit = 4000
)

// Model is the root Bubble Tea model for the surya TUI. It owns the widgets
// and delegates all chat state to the session view-model.
type Model struct {
	sess  *session.Session
	theme *styles.Theme
	keys  KeyMap

	// Widgets
	sidebar  components.Sidebar
	viewport viewport.Model
	input    textinput.Model
	spinner  components.Spinner
	toast    *components.Toast

	// Latest view of the session state. Refreshed from every command result.
	snap session.Snapshot

	// Layout
	width    int
	height   int
	ready    bool
	showHelp bool

	// sidebarFocus routes up/down/enter to the chat list instead of the
	// transcript and input.
	sidebarFocus bool

	backendLabel string
	quitting     bool
}

// New creates the TUI model around a session.
func New(sess *session.Session, theme *styles.Theme, backendLabel string) Model {
	input := textinput.New()
	input.Placeholder = "Ask Surya anything..."
	input.CharLimit = inputCharLimit
	input.Focus()

	sb := components.NewSidebar()
	sb.Width = sidebarWidth
	sb.Loading = true

	return Model{
		sess:         sess,
		theme:        theme,
		keys:         DefaultKeyMap(),
		sidebar:      sb,
		input:        input,
		spinner:      components.NewThinkingSpinner(),
		snap:         sess.Snapshot(),
		backendLabel: backendLabel,
	}
}

// Init kicks off the initial chat list fetch.
func (m Model) Init() tea.Cmd {
	return tea.Batch(loadChatsCmd(m.sess), textinput.Blink)
}

// applySnapshot folds a fresh session snapshot into the widgets.
func (m *Model) applySnapshot(snap session.Snapshot) {
	atBottom := m.viewport.AtBottom()

	m.snap = snap
	m.sidebar.Chats = snap.Chats
	m.sidebar.ActiveID = snap.ActiveChatID
	m.sidebar.Loading = snap.Loading
	m.sidebar.ClampCursor()

	if m.ready {
		m.viewport.SetContent(m.renderContent())
		if atBottom || snap.Pending {
			m.viewport.GotoBottom()
		}
	}

	if snap.Pending {
		// Spinner start is handled by the send path; keep it running here.
		return
	}
	m.spinner.Stop()
}

// layout recomputes widget sizes after a resize. The sidebar collapses on
// narrow terminals.
func (m *Model) layout() {
	sbWidth := 0
	if m.width >= minShellWidth {
		sbWidth = sidebarWidth
	}
	contentWidth := m.width - sbWidth
	contentHeight := m.height - chromeHeight
	if contentHeight < 3 {
		contentHeight = 3
	}

	m.sidebar.SetSize(sbWidth, contentHeight)

	if !m.ready {
		m.viewport = viewport.New(contentWidth, contentHeight)
		m.ready = true
	} else {
		m.viewport.Width = contentWidth
		m.viewport.Height = contentHeight
	}
	m.viewport.SetContent(m.renderContent())

	m.input.Width = contentWidth - 4
}

// contentWidth is the width available to the transcript pane.
func (m Model) contentWidth() int {
	if m.width >= minShellWidth {
		return m.width - sidebarWidth
	}
	return m.width
}
