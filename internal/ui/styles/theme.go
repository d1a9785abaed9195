// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// =============================================================================
// THEME
// =============================================================================

// Theme holds the pre-built styles for the TUI. Build one with NewTheme and
// share it across components.
type Theme struct {
	ColorProfile termenv.Profile
	IsDark       bool

	// Chrome
	TopBar    lipgloss.Style
	StatusBar lipgloss.Style
	Tab       lipgloss.Style
	TabActive lipgloss.Style

	// Sidebar
	Sidebar             lipgloss.Style
	SidebarTitle        lipgloss.Style
	SidebarItem         lipgloss.Style
	SidebarItemSelected lipgloss.Style
	SidebarItemActive   lipgloss.Style
	SidebarMeta         lipgloss.Style

	// Transcript
	UserLabel      lipgloss.Style
	AssistantLabel lipgloss.Style
	UserBubble     lipgloss.Style
	AssistantBubble lipgloss.Style
	Timestamp      lipgloss.Style
	FailedMarker   lipgloss.Style
	PendingMarker  lipgloss.Style
	Attachment     lipgloss.Style

	// Misc
	Hint  lipgloss.Style
	Error lipgloss.Style
	Empty lipgloss.Style
}

// NewTheme builds the theme. forceDark overrides terminal background
// detection ("dark"/"light" from config; anything else autodetects).
func NewTheme(mode string) *Theme {
	isDark := termenv.HasDarkBackground()
	switch mode {
	case "dark":
		isDark = true
	case "light":
		isDark = false
	}

	t := &Theme{
		ColorProfile: termenv.ColorProfile(),
		IsDark:       isDark,
	}
	t.initStyles()
	return t
}

func (t *Theme) initStyles() {
	t.TopBar = lipgloss.NewStyle().
		Foreground(Sun).
		Background(SurfaceDim).
		Bold(true).
		Padding(0, 1)

	t.StatusBar = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Background(SurfaceDim).
		Padding(0, 1)

	t.Tab = lipgloss.NewStyle().
		Foreground(TextMuted).
		Padding(0, 2)

	t.TabActive = lipgloss.NewStyle().
		Foreground(TextInverse).
		Background(Sun).
		Bold(true).
		Padding(0, 2)

	t.Sidebar = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderRight(true).
		BorderForeground(Overlay).
		PaddingRight(1)

	t.SidebarTitle = lipgloss.NewStyle().
		Foreground(Sun).
		Bold(true).
		Padding(0, 1)

	t.SidebarItem = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Padding(0, 1)

	t.SidebarItemSelected = lipgloss.NewStyle().
		Foreground(TextInverse).
		Background(Sun).
		Padding(0, 1)

	t.SidebarItemActive = lipgloss.NewStyle().
		Foreground(Sun).
		Padding(0, 1)

	t.SidebarMeta = lipgloss.NewStyle().
		Foreground(TextMuted).
		Padding(0, 1)

	t.UserLabel = lipgloss.NewStyle().
		Foreground(Sky).
		Bold(true)

	t.AssistantLabel = lipgloss.NewStyle().
		Foreground(Sun).
		Bold(true)

	t.UserBubble = lipgloss.NewStyle().
		Foreground(UserBubbleFg).
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(UserBubbleBorder).
		PaddingLeft(1)

	t.AssistantBubble = lipgloss.NewStyle().
		Foreground(TextPrimary).
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(AssistantBubbleBorder).
		PaddingLeft(1)

	t.Timestamp = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.FailedMarker = lipgloss.NewStyle().
		Foreground(Rose).
		Bold(true)

	t.PendingMarker = lipgloss.NewStyle().
		Foreground(Amber)

	t.Attachment = lipgloss.NewStyle().
		Foreground(Emerald)

	t.Hint = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.Error = lipgloss.NewStyle().
		Foreground(Rose).
		Bold(true)

	t.Empty = lipgloss.NewStyle().
		Foreground(TextMuted).
		Align(lipgloss.Center)
}
