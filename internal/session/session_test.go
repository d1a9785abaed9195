// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jeranaias/surya-tui/internal/api"
	"github.com/jeranaias/surya-tui/internal/model"
	"github.com/jeranaias/surya-tui/internal/sim"
)

// =============================================================================
// TEST BACKENDS
// =============================================================================

func newTestSession(t *testing.T) (*Session, *sim.Sim) {
	t.Helper()
	backend := sim.New().WithDelay(0)
	s := New(backend).WithLogger(log.New(io.Discard, "", 0))
	return s, backend
}

// failingBackend wraps the simulator and fails selected operations.
type failingBackend struct {
	*sim.Sim
	failSend    bool
	failUpload  bool
	createDelay time.Duration
	uploads     int
}

func (f *failingBackend) SendMessage(ctx context.Context, chatID, content string, file *model.FileRef) (*model.Message, error) {
	if f.failSend {
		return nil, &api.NetworkError{Op: "send message", Cause: errors.New("connection refused")}
	}
	return f.Sim.SendMessage(ctx, chatID, content, file)
}

func (f *failingBackend) UploadFile(ctx context.Context, filename string, r io.Reader) (*model.FileRef, error) {
	f.uploads++
	if f.failUpload {
		return nil, &api.NetworkError{Op: "upload file", Cause: errors.New("connection refused")}
	}
	return f.Sim.UploadFile(ctx, filename, r)
}

func (f *failingBackend) CreateChat(ctx context.Context, title string) (*model.Chat, error) {
	if f.createDelay > 0 {
		time.Sleep(f.createDelay)
	}
	return f.Sim.CreateChat(ctx, title)
}

// =============================================================================
// CHAT LIST
// =============================================================================

func TestSession_LoadChats(t *testing.T) {
	s, backend := newTestSession(t)
	ctx := context.Background()

	backend.CreateChat(ctx, "one")
	backend.CreateChat(ctx, "two")

	if !s.Snapshot().Loading {
		t.Error("session should start in loading state")
	}

	s.LoadChats(ctx)

	snap := s.Snapshot()
	if snap.Loading {
		t.Error("loading should clear after LoadChats")
	}
	if len(snap.Chats) != 2 {
		t.Errorf("chats = %d, want 2", len(snap.Chats))
	}
}

func TestSession_NewChat(t *testing.T) {
	s, _ := newTestSession(t)
	ctx := context.Background()

	s.LoadChats(ctx)
	chat, err := s.NewChat(ctx)
	if err != nil {
		t.Fatalf("NewChat: %v", err)
	}

	snap := s.Snapshot()
	if snap.ActiveChatID != chat.ID {
		t.Error("new chat should become active")
	}
	if len(snap.Messages) != 0 {
		t.Error("new chat should start with an empty transcript")
	}
	if len(snap.Chats) != 1 || snap.Chats[0].ID != chat.ID {
		t.Error("new chat should be prepended to the list")
	}
	if snap.ActiveTab != TabChat {
		t.Error("new chat should switch to the chat tab")
	}
}

func TestSession_SelectChat(t *testing.T) {
	s, _ := newTestSession(t)
	ctx := context.Background()

	first, _ := s.NewChat(ctx)
	if err := s.SendMessage(ctx, "hello there"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	second, _ := s.NewChat(ctx)

	if got := s.ActiveChatID(); got != second.ID {
		t.Fatalf("active = %s, want %s", got, second.ID)
	}

	if err := s.SelectChat(ctx, first.ID); err != nil {
		t.Fatalf("SelectChat: %v", err)
	}
	snap := s.Snapshot()
	if snap.ActiveChatID != first.ID {
		t.Error("selected chat should become active")
	}
	if len(snap.Messages) != 2 {
		t.Errorf("transcript = %d messages, want 2", len(snap.Messages))
	}
}

func TestSession_SelectChat_FailureKeepsState(t *testing.T) {
	s, _ := newTestSession(t)
	ctx := context.Background()

	chat, _ := s.NewChat(ctx)
	if err := s.SelectChat(ctx, "missing"); err == nil {
		t.Fatal("expected error for unknown chat")
	}
	if got := s.ActiveChatID(); got != chat.ID {
		t.Error("failed selection must leave the prior active chat in place")
	}
}

// =============================================================================
// DELETE
// =============================================================================

func TestSession_DeleteActiveChat(t *testing.T) {
	s, _ := newTestSession(t)
	ctx := context.Background()

	chat, _ := s.NewChat(ctx)
	if err := s.SendMessage(ctx, "hello"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	s.DeleteChat(ctx, chat.ID)

	snap := s.Snapshot()
	if snap.ActiveChatID != "" {
		t.Error("deleting the active chat must clear the active id")
	}
	if len(snap.Messages) != 0 {
		t.Error("deleting the active chat must clear the transcript")
	}
	for _, c := range snap.Chats {
		if c.ID == chat.ID {
			t.Error("deleted chat still present in list")
		}
	}
}

func TestSession_DeleteNonActiveChat(t *testing.T) {
	s, _ := newTestSession(t)
	ctx := context.Background()

	other, _ := s.NewChat(ctx)
	active, _ := s.NewChat(ctx)
	if err := s.SendMessage(ctx, "hello"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	before := s.Snapshot()

	s.DeleteChat(ctx, other.ID)

	snap := s.Snapshot()
	if snap.ActiveChatID != active.ID {
		t.Error("deleting a non-active chat must not change the active id")
	}
	if len(snap.Messages) != len(before.Messages) {
		t.Error("deleting a non-active chat must not touch the transcript")
	}
}

// =============================================================================
// SEND
// =============================================================================

func TestSession_SendMessage_EmptyIsNoOp(t *testing.T) {
	s, _ := newTestSession(t)
	ctx := context.Background()

	s.LoadChats(ctx)
	before := s.Snapshot()

	if err := s.SendMessage(ctx, "   \n\t"); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("err = %v, want ErrEmptyMessage", err)
	}

	snap := s.Snapshot()
	if len(snap.Chats) != len(before.Chats) || len(snap.Messages) != 0 || snap.Pending {
		t.Error("empty send must leave state unchanged")
	}
	if snap.ActiveChatID != "" {
		t.Error("empty send must not create a chat")
	}
}

func TestSession_SendMessage_Success(t *testing.T) {
	s, _ := newTestSession(t)
	ctx := context.Background()

	s.LoadChats(ctx)
	if err := s.SendMessage(ctx, "write a python function"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	snap := s.Snapshot()
	if snap.ActiveChatID == "" {
		t.Error("sending with no active chat should create one")
	}
	if len(snap.Messages) != 2 {
		t.Fatalf("transcript = %d messages, want 2", len(snap.Messages))
	}
	if snap.Messages[0].Role != model.RoleUser || snap.Messages[1].Role != model.RoleAssistant {
		t.Error("transcript should hold user then assistant")
	}
	if snap.Messages[0].Status != model.StatusConfirmed {
		t.Error("optimistic message should be confirmed after a successful send")
	}
	if snap.Pending {
		t.Error("pending flag should clear after the reply arrives")
	}
	if snap.GeneratedCode == "" || snap.ActiveTab != TabCode {
		t.Error("a code reply should fill the code buffer and switch tabs")
	}
	if len(snap.Chats) == 0 || snap.Chats[0].Title == model.DefaultTitle {
		t.Error("chat list should be refreshed with the server-derived title")
	}
}

func TestSession_SendMessage_Failure(t *testing.T) {
	backend := &failingBackend{Sim: sim.New().WithDelay(0), failSend: true}
	s := New(backend).WithLogger(log.New(io.Discard, "", 0))
	ctx := context.Background()

	chat, _ := s.NewChat(ctx)
	err := s.SendMessage(ctx, "hello")
	if !api.IsNetworkError(err) {
		t.Fatalf("err = %v, want a network error", err)
	}

	snap := s.Snapshot()
	if len(snap.Messages) != 1 {
		t.Fatalf("transcript = %d messages, want just the optimistic one", len(snap.Messages))
	}
	if snap.Messages[0].Status != model.StatusFailed {
		t.Error("optimistic message should be marked failed")
	}
	if !snap.Messages[0].IsLocal() {
		t.Error("optimistic message should stay in the local id namespace")
	}
	if snap.Pending {
		t.Error("pending flag should clear after a failed send")
	}

	// The backend saw nothing for this chat.
	stored, _ := backend.GetChat(ctx, chat.ID)
	if stored.MessageCount() != 0 {
		t.Error("failed send must not reach the backend transcript")
	}
}

func TestSession_SendMessage_SecondSendBlocked(t *testing.T) {
	backend := sim.New().WithDelay(50 * time.Millisecond)
	s := New(backend).WithLogger(log.New(io.Discard, "", 0))
	ctx := context.Background()

	if _, err := s.NewChat(ctx); err != nil {
		t.Fatalf("NewChat: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- s.SendMessage(ctx, "first") }()

	// Wait for the optimistic append, then try a second send.
	deadline := time.After(time.Second)
	for !s.Pending() {
		select {
		case <-deadline:
			t.Fatal("first send never became pending")
		default:
			time.Sleep(time.Millisecond)
		}
	}
	if err := s.SendMessage(ctx, "second"); !errors.Is(err, ErrSendInProgress) {
		t.Errorf("err = %v, want ErrSendInProgress", err)
	}

	if err := <-done; err != nil {
		t.Fatalf("first send: %v", err)
	}
}

func TestSession_SendMessage_ReplyAttributionAfterNavigation(t *testing.T) {
	backend := sim.New().WithDelay(50 * time.Millisecond)
	s := New(backend).WithLogger(log.New(io.Discard, "", 0))
	ctx := context.Background()

	chatA, _ := s.NewChat(ctx)
	chatB, _ := s.NewChat(ctx)
	if err := s.SelectChat(ctx, chatA.ID); err != nil {
		t.Fatalf("SelectChat: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- s.SendMessage(ctx, "hello from A") }()

	deadline := time.After(time.Second)
	for !s.Pending() {
		select {
		case <-deadline:
			t.Fatal("send never became pending")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	// Navigate away before the reply lands.
	if err := s.SelectChat(ctx, chatB.ID); err != nil {
		t.Fatalf("SelectChat: %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("send: %v", err)
	}

	// Chat A's stored messages gained the reply.
	stored, err := backend.GetChat(ctx, chatA.ID)
	if err != nil {
		t.Fatalf("GetChat: %v", err)
	}
	if stored.MessageCount() != 2 {
		t.Errorf("chat A stored %d messages, want 2", stored.MessageCount())
	}

	// The displayed transcript (chat B) is unaffected.
	snap := s.Snapshot()
	if snap.ActiveChatID != chatB.ID {
		t.Fatalf("active = %s, want chat B", snap.ActiveChatID)
	}
	if len(snap.Messages) != 0 {
		t.Errorf("chat B transcript gained %d stray messages", len(snap.Messages))
	}
	if snap.Pending {
		t.Error("pending flag should clear even after navigation")
	}
}

// =============================================================================
// ATTACHMENTS AND RETRY
// =============================================================================

func TestSession_SendMessage_AttachmentUploadFailure(t *testing.T) {
	backend := &failingBackend{Sim: sim.New().WithDelay(0), failUpload: true}
	s := New(backend).WithLogger(log.New(io.Discard, "", 0))
	ctx := context.Background()

	s.NewChat(ctx)
	s.AttachFile(&Attachment{Filename: "a.txt", Reader: strings.NewReader("abc")})

	if err := s.SendMessage(ctx, "look at this"); err == nil {
		t.Fatal("expected upload failure to abort the send")
	}

	snap := s.Snapshot()
	if len(snap.Messages) != 1 || snap.Messages[0].Status != model.StatusFailed {
		t.Error("optimistic message should remain, marked failed")
	}
	if snap.Pending {
		t.Error("pending flag should clear after an aborted send")
	}
}

func TestSession_AttachmentOnlySend(t *testing.T) {
	s, _ := newTestSession(t)
	ctx := context.Background()

	s.NewChat(ctx)
	s.AttachFile(&Attachment{Filename: "a.txt", Reader: strings.NewReader("abc")})
	if !s.HasAttachment() {
		t.Fatal("attachment should be staged")
	}

	if err := s.SendMessage(ctx, ""); err != nil {
		t.Fatalf("attachment-only send should be allowed: %v", err)
	}
	if s.HasAttachment() {
		t.Error("attachment should be discarded after the send")
	}

	snap := s.Snapshot()
	if snap.Messages[0].AttachedFile == nil {
		t.Error("uploaded file reference should be attached to the user message")
	}
}

func TestSession_RetryMessage(t *testing.T) {
	backend := &failingBackend{Sim: sim.New().WithDelay(0), failSend: true}
	s := New(backend).WithLogger(log.New(io.Discard, "", 0))
	ctx := context.Background()

	s.NewChat(ctx)
	if err := s.SendMessage(ctx, "hello again"); err == nil {
		t.Fatal("expected first send to fail")
	}
	failedID := s.Snapshot().Messages[0].ID

	backend.failSend = false
	if err := s.RetryMessage(ctx, failedID); err != nil {
		t.Fatalf("RetryMessage: %v", err)
	}

	snap := s.Snapshot()
	if len(snap.Messages) != 2 {
		t.Fatalf("transcript = %d messages, want 2 after retry", len(snap.Messages))
	}
	if snap.Messages[0].Status != model.StatusConfirmed {
		t.Error("retried message should be confirmed")
	}

	if err := s.RetryMessage(ctx, "nope"); !errors.Is(err, ErrMessageNotFound) {
		t.Errorf("err = %v, want ErrMessageNotFound", err)
	}
}

func TestSession_SendMessage_ConcurrentSendsSingleFlight(t *testing.T) {
	backend := &failingBackend{Sim: sim.New().WithDelay(0), createDelay: 100 * time.Millisecond}
	s := New(backend).WithLogger(log.New(io.Discard, "", 0))
	ctx := context.Background()

	// No active chat: every send that passes the gate creates one, so a
	// leaked second send shows up as a second chat.
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.SendMessage(ctx, "hello")
		}(i)
	}
	wg.Wait()

	var sent, blocked int
	for _, err := range errs {
		switch {
		case err == nil:
			sent++
		case errors.Is(err, ErrSendInProgress):
			blocked++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if sent != 1 || blocked != 1 {
		t.Fatalf("sent = %d blocked = %d, want exactly one of each", sent, blocked)
	}

	chats, err := backend.ListChats(ctx)
	if err != nil {
		t.Fatalf("ListChats: %v", err)
	}
	if len(chats) != 1 {
		t.Errorf("backend has %d chats, want 1", len(chats))
	}
}

func TestSession_RetryMessage_KeepsUnsendableEntry(t *testing.T) {
	backend := &failingBackend{Sim: sim.New().WithDelay(0), failUpload: true}
	s := New(backend).WithLogger(log.New(io.Discard, "", 0))
	ctx := context.Background()

	s.NewChat(ctx)
	s.AttachFile(&Attachment{Filename: "a.txt", Reader: strings.NewReader("abc")})
	if err := s.SendMessage(ctx, ""); err == nil {
		t.Fatal("expected upload failure to abort the send")
	}

	failedID := s.Snapshot().Messages[0].ID

	// The attachment reader was consumed by the original send; there is
	// nothing left to resend, but the entry must not vanish.
	if err := s.RetryMessage(ctx, failedID); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("err = %v, want ErrEmptyMessage", err)
	}

	snap := s.Snapshot()
	if len(snap.Messages) != 1 {
		t.Fatalf("transcript = %d messages, want the failed entry kept", len(snap.Messages))
	}
	if snap.Messages[0].Status != model.StatusFailed {
		t.Error("unsendable entry should stay failed")
	}
}

func TestSession_RetryMessage_ReusesUploadedRef(t *testing.T) {
	backend := &failingBackend{Sim: sim.New().WithDelay(0), failSend: true}
	s := New(backend).WithLogger(log.New(io.Discard, "", 0))
	ctx := context.Background()

	s.NewChat(ctx)
	s.AttachFile(&Attachment{Filename: "a.txt", Reader: strings.NewReader("abc")})
	if err := s.SendMessage(ctx, "see attached"); err == nil {
		t.Fatal("expected the send to fail after the upload")
	}
	if backend.uploads != 1 {
		t.Fatalf("uploads = %d, want 1", backend.uploads)
	}

	failedID := s.Snapshot().Messages[0].ID

	backend.failSend = false
	if err := s.RetryMessage(ctx, failedID); err != nil {
		t.Fatalf("RetryMessage: %v", err)
	}

	if backend.uploads != 1 {
		t.Errorf("uploads = %d, want the retry to reuse the uploaded ref", backend.uploads)
	}

	snap := s.Snapshot()
	if snap.Messages[0].Status != model.StatusConfirmed {
		t.Error("retried message should be confirmed")
	}
	if snap.Messages[0].AttachedFile == nil {
		t.Error("retried message should keep its file ref")
	}
}

func TestSession_SetTab(t *testing.T) {
	s, _ := newTestSession(t)
	s.SetTab(TabPreview)
	if got := s.Snapshot().ActiveTab; got != TabPreview {
		t.Errorf("tab = %v, want preview", got)
	}
}
