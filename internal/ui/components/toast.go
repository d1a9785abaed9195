// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/surya-tui/internal/ui/styles"
)

// =============================================================================
// ERROR TOAST
// =============================================================================

// Toasts are non-blocking: they sit in the corner and auto-dismiss instead
// of stealing focus the way a modal would.

// ToastKind selects the toast color.
type ToastKind int

const (
	ToastKindError ToastKind = iota
	ToastKindWarning
	ToastKindSuccess
)

// ErrorToastDuration is the auto-dismiss delay. Errors get a longer read time
// than the usual notification.
const ErrorToastDuration = 6 * time.Second

// Toast is a transient corner notification.
type Toast struct {
	Message   string
	Kind      ToastKind
	CreatedAt time.Time
}

// ToastExpiredMsg signals that the current toast should be cleared.
type ToastExpiredMsg struct {
	CreatedAt time.Time
}

// NewToast creates a toast and returns the command that expires it. The
// CreatedAt stamp lets the model ignore expiry messages for superseded toasts.
func NewToast(message string, kind ToastKind) (Toast, tea.Cmd) {
	t := Toast{
		Message:   message,
		Kind:      kind,
		CreatedAt: time.Now(),
	}
	cmd := tea.Tick(ErrorToastDuration, func(time.Time) tea.Msg {
		return ToastExpiredMsg{CreatedAt: t.CreatedAt}
	})
	return t, cmd
}

// Render renders the toast box.
func (t Toast) Render(theme *styles.Theme, maxWidth int) string {
	border := styles.Rose
	prefix := "error"
	switch t.Kind {
	case ToastKindWarning:
		border = styles.Amber
		prefix = "warning"
	case ToastKindSuccess:
		border = styles.Emerald
		prefix = "ok"
	}

	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1).
		MaxWidth(maxWidth).
		Render(theme.Error.Foreground(border).Render(prefix+": ") + t.Message)
}
