// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/surya-tui/internal/ui/styles"
)

// =============================================================================
// THINKING SPINNER
// =============================================================================

// Spinner shows activity while a reply is pending.
type Spinner struct {
	spinner   spinner.Model
	message   string
	startTime time.Time
	active    bool
}

// NewThinkingSpinner creates the spinner shown while the assistant is
// generating a reply.
func NewThinkingSpinner() Spinner {
	s := spinner.New()
	s.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}
	s.Style = lipgloss.NewStyle().Foreground(styles.Sun)

	return Spinner{
		spinner: s,
		message: "Thinking",
	}
}

// Start activates the spinner and returns its tick command.
func (s *Spinner) Start() tea.Cmd {
	s.active = true
	s.startTime = time.Now()
	return s.spinner.Tick
}

// Stop deactivates the spinner.
func (s *Spinner) Stop() {
	s.active = false
}

// Active reports whether the spinner is running.
func (s Spinner) Active() bool {
	return s.active
}

// Update advances the animation. Tick messages are ignored while stopped.
func (s Spinner) Update(msg tea.Msg) (Spinner, tea.Cmd) {
	if !s.active {
		return s, nil
	}
	var cmd tea.Cmd
	s.spinner, cmd = s.spinner.Update(msg)
	return s, cmd
}

// View renders "| Thinking... (2s)".
func (s Spinner) View() string {
	if !s.active {
		return ""
	}
	elapsed := time.Since(s.startTime).Round(time.Second)
	label := fmt.Sprintf("%s %s... (%s)", s.spinner.View(), s.message, elapsed)
	return lipgloss.NewStyle().Foreground(styles.TextSecondary).Render(label)
}
