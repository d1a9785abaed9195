// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/surya-tui/internal/model"
	"github.com/jeranaias/surya-tui/internal/preview"
	"github.com/jeranaias/surya-tui/internal/session"
	"github.com/jeranaias/surya-tui/internal/ui/components"
)

// =============================================================================
// VIEW
// =============================================================================

// View renders the full TUI frame.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "starting..."
	}

	top := m.theme.TopBar.Width(m.width).Render("Surya AI ☀")

	var body string
	if m.showHelp {
		body = m.renderHelp()
	} else {
		panes := []string{}
		if m.sidebar.Width > 0 {
			panes = append(panes, m.sidebar.Render(m.theme))
		}
		panes = append(panes, m.viewport.View())
		body = lipgloss.JoinHorizontal(lipgloss.Top, panes...)
	}

	tabs := components.RenderTabs(m.theme, m.snap.ActiveTab, m.width)

	inputRow := m.renderInputRow()

	status := components.StatusBar{
		Status:    m.statusFor(),
		Backend:   m.backendLabel,
		ChatCount: len(m.snap.Chats),
		Width:     m.width,
	}
	statusRow := status.Render(m.theme)

	frame := lipgloss.JoinVertical(lipgloss.Left, top, body, tabs, inputRow, statusRow)

	if m.toast != nil {
		frame += "\n" + m.toast.Render(m.theme, m.width-4)
	}
	return frame
}

// statusFor maps session state to the status bar state.
func (m Model) statusFor() components.Status {
	switch {
	case m.snap.Pending:
		return components.StatusThinking
	case m.snap.Loading:
		return components.StatusLoading
	default:
		return components.StatusReady
	}
}

// renderInputRow shows the prompt, or the spinner while a reply is pending.
func (m Model) renderInputRow() string {
	if m.snap.Pending {
		return " " + m.spinner.View()
	}
	if m.sess.HasAttachment() {
		return m.theme.Attachment.Render(" [file attached] ") + m.input.View()
	}
	return " " + m.input.View()
}

// renderContent renders the active tab into the viewport.
func (m Model) renderContent() string {
	switch m.snap.ActiveTab {
	case session.TabCode:
		return m.renderCode()
	case session.TabPreview:
		return m.renderPreview()
	default:
		return m.renderTranscript()
	}
}

// renderTranscript renders the message list.
func (m Model) renderTranscript() string {
	width := m.contentWidth() - 4
	if width < 20 {
		width = 20
	}

	if len(m.snap.Messages) == 0 {
		return m.theme.Empty.Width(width).Render(
			"\n\nWelcome to Surya AI ☀\n\nType a message to get started, or Tab to browse tabs.")
	}

	var b strings.Builder
	for _, msg := range m.snap.Messages {
		b.WriteString(m.renderMessage(msg, width))
		b.WriteString("\n\n")
	}
	return b.String()
}

// renderMessage renders one chat bubble.
func (m Model) renderMessage(msg *model.Message, width int) string {
	var label, body string

	if msg.Role == model.RoleUser {
		label = m.theme.UserLabel.Render("You")
		body = m.theme.UserBubble.Width(width).Render(msg.Content)
	} else {
		label = m.theme.AssistantLabel.Render("Surya")
		content := msg.Content
		if lang, code, ok := components.FirstFence(content); ok {
			cb := components.NewCodeBlock(lang, code)
			cb.SetMaxWidth(width)
			content = cb.Render()
			body = content
		} else {
			body = m.theme.AssistantBubble.Width(width).Render(content)
		}
	}

	meta := m.theme.Timestamp.Render(msg.Timestamp.Format("15:04"))
	switch msg.Status {
	case model.StatusPending:
		meta += " " + m.theme.PendingMarker.Render("sending...")
	case model.StatusFailed:
		meta += " " + m.theme.FailedMarker.Render("failed (C-r to retry)")
	}

	header := label + "  " + meta
	if msg.HasAttachment() {
		header += "  " + m.theme.Attachment.Render("["+msg.AttachedFile.Filename+"]")
	}

	return header + "\n" + body
}

// renderCode renders the generated code buffer with highlighting.
func (m Model) renderCode() string {
	code := m.snap.GeneratedCode
	if code == "" {
		return m.theme.Empty.Width(m.contentWidth()).Render(
			"\n\nNo generated code yet.\n\nAsk for some code and it will land here.")
	}

	lang, body, ok := components.FirstFence(code)
	if !ok {
		// Raw replies (full HTML documents) have no fence.
		lang, body = "", code
	}
	cb := components.NewCodeBlock(lang, body)
	cb.SetMaxWidth(m.contentWidth() - 2)
	return cb.Render()
}

// renderPreview describes how the generated code would render. Terminals
// cannot host a browser, so this pane classifies the buffer and points at
// the server's live preview endpoint.
func (m Model) renderPreview() string {
	code := m.snap.GeneratedCode
	if code == "" {
		return m.theme.Empty.Width(m.contentWidth()).Render(
			"\n\nNothing to preview yet.")
	}

	_, body, ok := components.FirstFence(code)
	if !ok {
		body = code
	}
	kind := preview.Classify(body)

	var desc string
	switch kind {
	case preview.KindDocument:
		desc = "Complete HTML document. It renders as-is in a browser."
	case preview.KindFragment:
		desc = "HTML fragment. The preview wraps it in a minimal page."
	default:
		desc = "Plain text or code. The preview shows it escaped in a <pre> block."
	}

	var b strings.Builder
	b.WriteString(m.theme.AssistantLabel.Render("Preview: " + kind.String()))
	b.WriteString("\n\n")
	b.WriteString(desc)
	b.WriteString("\n\n")
	if strings.HasPrefix(m.backendLabel, "http") {
		b.WriteString(m.theme.Hint.Render(fmt.Sprintf(
			"Open %s/preview/%s in a browser, or save with the chat CLI's /save command.",
			m.backendLabel, m.snap.ActiveChatID)))
	} else {
		b.WriteString(m.theme.Hint.Render(
			"Save it with the chat CLI's /save command to open in a browser."))
	}
	b.WriteString("\n\n")

	cb := components.NewCodeBlock("html", preview.Render(body))
	cb.SetMaxWidth(m.contentWidth() - 2)
	b.WriteString(cb.Render())
	return b.String()
}

// renderHelp renders the key binding overlay.
func (m Model) renderHelp() string {
	var b strings.Builder
	b.WriteString(m.theme.AssistantLabel.Render("Keys"))
	b.WriteString("\n\n")
	for _, line := range m.keys.HelpLines() {
		b.WriteString("  " + line + "\n")
	}
	return lipgloss.NewStyle().
		Width(m.contentWidth()).
		Height(m.height - chromeHeight).
		Render(b.String())
}
