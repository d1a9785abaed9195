// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/surya-tui/internal/ui/styles"
)

// =============================================================================
// STATUS BAR COMPONENT
// =============================================================================

// Status is the coarse application state shown in the bottom bar.
type Status int

const (
	StatusReady Status = iota
	StatusThinking
	StatusLoading
	StatusError
)

// String returns the display string for the status.
func (s Status) String() string {
	switch s {
	case StatusReady:
		return "Ready"
	case StatusThinking:
		return "Thinking..."
	case StatusLoading:
		return "Loading..."
	case StatusError:
		return "Error"
	default:
		return "Unknown"
	}
}

// StatusBar is the bottom status bar.
type StatusBar struct {
	Status    Status
	Backend   string // "sim" or the backend host
	ChatCount int
	Width     int
	Notice    string // transient message, cleared by the caller
}

// Render renders the bar at the configured width.
func (b StatusBar) Render(theme *styles.Theme) string {
	statusStyle := lipgloss.NewStyle().Foreground(styles.Emerald)
	if b.Status == StatusError {
		statusStyle = lipgloss.NewStyle().Foreground(styles.Rose)
	}

	left := statusStyle.Render(b.Status.String())
	if b.Notice != "" {
		left = left + "  " + theme.Hint.Render(b.Notice)
	}

	right := theme.Hint.Render(fmt.Sprintf("%s | %d chats | ? help", b.Backend, b.ChatCount))

	gap := b.Width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}

	return theme.StatusBar.Width(b.Width).Render(left + strings.Repeat(" ", gap) + right)
}
