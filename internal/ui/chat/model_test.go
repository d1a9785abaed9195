// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/surya-tui/internal/model"
	"github.com/jeranaias/surya-tui/internal/session"
	"github.com/jeranaias/surya-tui/internal/sim"
	"github.com/jeranaias/surya-tui/internal/ui/styles"
)

func newTestModel(t *testing.T) Model {
	t.Helper()
	backend := sim.New().WithDelay(0)
	sess := session.New(backend)
	sess.LoadChats(context.Background())
	m := New(sess, styles.NewTheme("dark"), "sim")

	// Simulate the initial resize so the viewport exists.
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return updated.(Model)
}

func TestViewRendersWelcome(t *testing.T) {
	m := newTestModel(t)
	m.applySnapshot(m.sess.Snapshot())

	view := m.View()
	if !strings.Contains(view, "Surya AI") {
		t.Error("view missing the top bar title")
	}
	if !strings.Contains(view, "Chat") || !strings.Contains(view, "Code") {
		t.Error("view missing tab labels")
	}
}

func TestTranscriptShowsMessages(t *testing.T) {
	m := newTestModel(t)
	if err := m.sess.SendMessage(context.Background(), "hello there"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	m.applySnapshot(m.sess.Snapshot())

	content := m.renderTranscript()
	if !strings.Contains(content, "You") || !strings.Contains(content, "Surya") {
		t.Error("transcript missing role labels")
	}
	if !strings.Contains(content, "hello there") {
		t.Error("transcript missing the user message")
	}
}

func TestCodeTabEmptyAndFilled(t *testing.T) {
	m := newTestModel(t)
	m.applySnapshot(m.sess.Snapshot())
	if !strings.Contains(m.renderCode(), "No generated code") {
		t.Error("empty code tab should show the placeholder")
	}

	if err := m.sess.SendMessage(context.Background(), "write me a python script"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	m.applySnapshot(m.sess.Snapshot())
	if m.snap.GeneratedCode == "" {
		t.Fatal("expected generated code after a code request")
	}
	if strings.Contains(m.renderCode(), "No generated code") {
		t.Error("filled code tab still shows the placeholder")
	}
}

func TestLastFailedID(t *testing.T) {
	m := newTestModel(t)

	msg := model.NewLocalUserMessage("doomed", nil)
	msg.Status = model.StatusFailed
	m.snap.Messages = []*model.Message{
		model.NewMessage(model.RoleUser, "fine"),
		msg,
	}

	if got := m.lastFailedID(); got != msg.ID {
		t.Errorf("lastFailedID() = %q, want %q", got, msg.ID)
	}

	m.snap.Messages = m.snap.Messages[:1]
	if got := m.lastFailedID(); got != "" {
		t.Errorf("lastFailedID() on clean transcript = %q, want empty", got)
	}
}

func TestStatusFor(t *testing.T) {
	m := newTestModel(t)

	m.snap.Pending = true
	if m.statusFor().String() != "Thinking..." {
		t.Error("pending snapshot should report thinking")
	}

	m.snap.Pending = false
	m.snap.Loading = false
	if m.statusFor().String() != "Ready" {
		t.Error("idle snapshot should report ready")
	}
}

func TestTickKeepsRunningWhilePending(t *testing.T) {
	m := newTestModel(t)
	m.snap.Pending = true

	_, cmd := m.Update(TickMsg(time.Now()))
	if cmd == nil {
		t.Error("tick while pending should schedule another tick")
	}

	m.snap.Pending = false
	m.applySnapshot(m.sess.Snapshot())
	_, cmd = m.Update(TickMsg(time.Now()))
	if cmd != nil {
		t.Error("tick after completion should stop")
	}
}
