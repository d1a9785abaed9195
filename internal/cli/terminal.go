// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// terminal.go - Terminal detection and handling for the surya CLI.
package cli

import (
	"os"
	"sync"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// =============================================================================
// TTY DETECTION
// =============================================================================

// IsTTY returns true if stdin is a terminal.
func IsTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// IsStdoutTTY returns true if stdout is a terminal.
func IsStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// =============================================================================
// TERMINAL WIDTH
// =============================================================================

const defaultWidth = 80

// TerminalWidth returns the stdout width, or a default when not a terminal.
func TerminalWidth() int {
	if !IsStdoutTTY() {
		return defaultWidth
	}
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return defaultWidth
	}
	return width
}

// =============================================================================
// COLOR PROFILE
// =============================================================================

var (
	colorProfile     termenv.Profile
	colorProfileOnce sync.Once
)

// GetColorProfile determines the color profile for output. Respects NO_COLOR
// and falls back to no color for non-TTY output.
func GetColorProfile() termenv.Profile {
	colorProfileOnce.Do(func() {
		if os.Getenv("NO_COLOR") != "" || !IsStdoutTTY() {
			colorProfile = termenv.Ascii
			return
		}
		colorProfile = termenv.ColorProfile()
	})
	return colorProfile
}
