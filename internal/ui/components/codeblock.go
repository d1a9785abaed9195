// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the visual UI components for the surya TUI.
package components

import (
	"strconv"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/surya-tui/internal/ui/styles"
)

// =============================================================================
// CODE BLOCK RENDERER
// =============================================================================

// CodeBlock renders generated code with syntax highlighting and line numbers.
type CodeBlock struct {
	Language string
	Code     string
	MaxWidth int
}

// NewCodeBlock creates a code block. An empty language triggers detection.
func NewCodeBlock(language, code string) CodeBlock {
	return CodeBlock{
		Language: language,
		Code:     code,
		MaxWidth: 80,
	}
}

// SetMaxWidth sets the maximum render width.
func (c *CodeBlock) SetMaxWidth(width int) {
	c.MaxWidth = width
}

// Render renders the block with a language badge, line numbers, and a
// rounded border.
func (c CodeBlock) Render() string {
	code := strings.TrimSpace(c.Code)

	language := c.Language
	if language == "" {
		language = detectLanguage(code)
	}

	highlighted := Highlight(code, language)
	lines := strings.Split(highlighted, "\n")

	lineNumStyle := lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Width(4).
		Align(lipgloss.Right).
		MarginRight(1)

	var rendered []string
	for i, line := range lines {
		num := lineNumStyle.Render(strconv.Itoa(i + 1))
		rendered = append(rendered, num+line)
	}
	content := strings.Join(rendered, "\n")

	var header string
	if language != "" {
		badge := lipgloss.NewStyle().
			Foreground(styles.TextMuted).
			Background(styles.OverlayDim).
			Padding(0, 1).
			Bold(true).
			Render(language)
		header = badge + "\n"
	}

	maxWidth := c.MaxWidth - 4
	if maxWidth < 20 {
		maxWidth = 20
	}

	return lipgloss.NewStyle().
		Background(styles.SurfaceDim).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(styles.Overlay).
		Padding(1, 2).
		MaxWidth(maxWidth).
		Render(header + content)
}

// =============================================================================
// MARKDOWN FENCE PARSER
// =============================================================================

// FirstFence extracts the first fenced code block from markdown text.
// Returns the language tag, the code body, and whether a fence was found.
// Text without a fence is returned whole with ok=false, which lets callers
// treat raw HTML replies as code in their own right.
func FirstFence(text string) (language, code string, ok bool) {
	lines := strings.Split(text, "\n")
	var body []string
	inFence := false

	for _, line := range lines {
		if strings.HasPrefix(line, "```") {
			if inFence {
				return language, strings.Join(body, "\n"), true
			}
			language = strings.TrimSpace(strings.TrimPrefix(line, "```"))
			inFence = true
			continue
		}
		if inFence {
			body = append(body, line)
		}
	}

	// Unclosed fence still counts.
	if inFence && len(body) > 0 {
		return language, strings.Join(body, "\n"), true
	}
	return "", "", false
}

// =============================================================================
// SYNTAX HIGHLIGHTING (Chroma-based)
// =============================================================================

// Highlight applies terminal syntax highlighting via chroma. The input is
// returned unchanged when highlighting fails.
func Highlight(code, language string) string {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := chromaStyles.Get("monokai")
	if style == nil {
		style = chromaStyles.Fallback
	}

	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}

	var buf strings.Builder
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return code
	}
	return strings.TrimRight(buf.String(), "\n")
}

// detectLanguage guesses a language tag for unlabelled code. The generated
// code buffer is usually HTML, so that check comes first.
func detectLanguage(code string) string {
	lower := strings.ToLower(code)
	switch {
	case strings.Contains(lower, "<!doctype") || strings.Contains(lower, "<html"):
		return "html"
	case strings.Contains(lower, "def ") && strings.Contains(lower, ":"):
		return "python"
	case strings.Contains(lower, "function ") || strings.Contains(lower, "const "):
		return "javascript"
	default:
		return ""
	}
}
