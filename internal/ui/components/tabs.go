// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/surya-tui/internal/session"
	"github.com/jeranaias/surya-tui/internal/ui/styles"
)

// =============================================================================
// TAB BAR COMPONENT
// =============================================================================

// tabOrder fixes the display and cycle order of the view tabs.
var tabOrder = []session.Tab{session.TabChat, session.TabCode, session.TabPreview}

// tabLabels maps tabs to their display labels.
var tabLabels = map[session.Tab]string{
	session.TabChat:    "Chat",
	session.TabCode:    "Code",
	session.TabPreview: "Preview",
}

// NextTab returns the tab after current in cycle order.
func NextTab(current session.Tab) session.Tab {
	for i, t := range tabOrder {
		if t == current {
			return tabOrder[(i+1)%len(tabOrder)]
		}
	}
	return session.TabChat
}

// RenderTabs renders the tab bar with the active tab highlighted.
func RenderTabs(theme *styles.Theme, active session.Tab, width int) string {
	var cells []string
	for _, t := range tabOrder {
		style := theme.Tab
		if t == active {
			style = theme.TabActive
		}
		cells = append(cells, style.Render(tabLabels[t]))
	}
	row := lipgloss.JoinHorizontal(lipgloss.Top, cells...)
	return lipgloss.NewStyle().Width(width).Render(row)
}
