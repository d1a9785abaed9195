// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/surya-tui/internal/model"
	"github.com/jeranaias/surya-tui/internal/ui/styles"
	"github.com/jeranaias/surya-tui/internal/util"
)

// =============================================================================
// SIDEBAR COMPONENT
// =============================================================================

// Sidebar renders the chat list panel on the left edge of the TUI.
type Sidebar struct {
	Chats    []model.ChatSummary
	ActiveID string // chat currently shown in the transcript
	Cursor   int    // keyboard selection
	Loading  bool
	Width    int
	Height   int
	Focused  bool
}

// NewSidebar creates a sidebar with the default width.
func NewSidebar() Sidebar {
	return Sidebar{Width: 32}
}

// SetSize updates the sidebar dimensions.
func (s *Sidebar) SetSize(width, height int) {
	s.Width = width
	s.Height = height
}

// ClampCursor keeps the cursor inside the chat list after mutations.
func (s *Sidebar) ClampCursor() {
	if s.Cursor >= len(s.Chats) {
		s.Cursor = len(s.Chats) - 1
	}
	if s.Cursor < 0 {
		s.Cursor = 0
	}
}

// CursorUp moves the selection up one row.
func (s *Sidebar) CursorUp() {
	if s.Cursor > 0 {
		s.Cursor--
	}
}

// CursorDown moves the selection down one row.
func (s *Sidebar) CursorDown() {
	if s.Cursor < len(s.Chats)-1 {
		s.Cursor++
	}
}

// Selected returns the summary under the cursor, or nil when the list is empty.
func (s *Sidebar) Selected() *model.ChatSummary {
	if s.Cursor < 0 || s.Cursor >= len(s.Chats) {
		return nil
	}
	return &s.Chats[s.Cursor]
}

// Render renders the sidebar at its configured size.
func (s Sidebar) Render(theme *styles.Theme) string {
	innerWidth := s.Width - 2
	if innerWidth < 8 {
		innerWidth = 8
	}

	var b strings.Builder
	b.WriteString(theme.SidebarTitle.Render("Chats"))
	b.WriteString("\n\n")

	switch {
	case s.Loading:
		b.WriteString(theme.SidebarMeta.Render("loading..."))
	case len(s.Chats) == 0:
		b.WriteString(theme.SidebarMeta.Render("no chats yet"))
		b.WriteString("\n")
		b.WriteString(theme.SidebarMeta.Render("ctrl+n to start"))
	default:
		for i, chat := range s.Chats {
			label := util.TruncateWidth(chat.Title, innerWidth-4)
			marker := "  "
			if chat.ID == s.ActiveID {
				marker = "* "
			}

			style := theme.SidebarItem
			if s.Focused && i == s.Cursor {
				style = theme.SidebarItemSelected
			} else if chat.ID == s.ActiveID {
				style = theme.SidebarItemActive
			}

			b.WriteString(style.Width(innerWidth).Render(marker + label))
			b.WriteString("\n")
		}
	}

	return theme.Sidebar.
		Width(s.Width).
		Height(s.Height).
		Render(lipgloss.NewStyle().Width(innerWidth).Render(b.String()))
}
