// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package sim

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jeranaias/surya-tui/internal/api"
	"github.com/jeranaias/surya-tui/internal/model"
)

func newTestSim() *Sim {
	return New().WithDelay(0)
}

func TestSim_CreateAndGetChat(t *testing.T) {
	s := newTestSim()
	ctx := context.Background()

	chat, err := s.CreateChat(ctx, "")
	if err != nil {
		t.Fatalf("CreateChat: %v", err)
	}
	if chat.ID == "" {
		t.Error("created chat should have a server-assigned id")
	}
	if chat.Title != model.DefaultTitle {
		t.Errorf("Title = %q, want %q", chat.Title, model.DefaultTitle)
	}

	got, err := s.GetChat(ctx, chat.ID)
	if err != nil {
		t.Fatalf("GetChat: %v", err)
	}
	if got.ID != chat.ID {
		t.Errorf("GetChat id = %q, want %q", got.ID, chat.ID)
	}

	if _, err := s.GetChat(ctx, "nope"); !errors.Is(err, api.ErrNotFound) {
		t.Errorf("GetChat unknown id: err = %v, want ErrNotFound", err)
	}
}

func TestSim_GetChatReturnsCopy(t *testing.T) {
	s := newTestSim()
	ctx := context.Background()

	chat, _ := s.CreateChat(ctx, "")
	got, _ := s.GetChat(ctx, chat.ID)
	got.Title = "mutated"

	again, _ := s.GetChat(ctx, chat.ID)
	if again.Title == "mutated" {
		t.Error("GetChat must return a copy, not shared state")
	}
}

func TestSim_ListChats_RecentFirst(t *testing.T) {
	s := newTestSim()
	ctx := context.Background()

	first, _ := s.CreateChat(ctx, "")
	time.Sleep(2 * time.Millisecond)
	second, _ := s.CreateChat(ctx, "")

	// Messaging the older chat bumps it to the top.
	time.Sleep(2 * time.Millisecond)
	if _, err := s.SendMessage(ctx, first.ID, "hello", nil); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	chats, err := s.ListChats(ctx)
	if err != nil {
		t.Fatalf("ListChats: %v", err)
	}
	if len(chats) != 2 {
		t.Fatalf("len = %d, want 2", len(chats))
	}
	if chats[0].ID != first.ID || chats[1].ID != second.ID {
		t.Errorf("ordering = [%s %s], want most recently updated first", chats[0].ID, chats[1].ID)
	}
}

func TestSim_SendMessage(t *testing.T) {
	s := newTestSim()
	ctx := context.Background()

	chat, _ := s.CreateChat(ctx, "")
	reply, err := s.SendMessage(ctx, chat.ID, "write me a python script", nil)
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if reply.Role != model.RoleAssistant {
		t.Errorf("reply role = %q, want assistant", reply.Role)
	}
	if !reply.IsCode {
		t.Error("python reply should be flagged as code")
	}

	got, _ := s.GetChat(ctx, chat.ID)
	if n := got.MessageCount(); n != 2 {
		t.Fatalf("message count = %d, want 2 (user then assistant)", n)
	}
	if got.Messages[0].Role != model.RoleUser || got.Messages[1].Role != model.RoleAssistant {
		t.Error("messages should be ordered user then assistant")
	}
	if got.Title == model.DefaultTitle {
		t.Error("title should be derived from the first user message")
	}
}

func TestSim_SendMessage_EmptyRejected(t *testing.T) {
	s := newTestSim()
	ctx := context.Background()

	chat, _ := s.CreateChat(ctx, "")
	if _, err := s.SendMessage(ctx, chat.ID, "   ", nil); !errors.Is(err, api.ErrEmptyMessage) {
		t.Errorf("err = %v, want ErrEmptyMessage", err)
	}

	// An attachment alone is a valid message.
	file := &model.FileRef{Filename: "a.txt", Type: "text/plain"}
	if _, err := s.SendMessage(ctx, chat.ID, "", file); err != nil {
		t.Errorf("attachment-only message should be accepted: %v", err)
	}
}

func TestSim_SendMessage_UnknownChat(t *testing.T) {
	s := newTestSim()
	if _, err := s.SendMessage(context.Background(), "nope", "hi", nil); !errors.Is(err, api.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSim_SendMessage_CancelDuringDelay(t *testing.T) {
	s := New().WithDelay(5 * time.Second)
	ctx, cancel := context.WithCancel(context.Background())

	chat, _ := s.CreateChat(ctx, "")

	done := make(chan error, 1)
	go func() {
		_, err := s.SendMessage(ctx, chat.ID, "hello", nil)
		done <- err
	}()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("SendMessage did not honor cancellation")
	}
}

func TestSim_DeleteChat(t *testing.T) {
	s := newTestSim()
	ctx := context.Background()

	chat, _ := s.CreateChat(ctx, "")
	if err := s.DeleteChat(ctx, chat.ID); err != nil {
		t.Fatalf("DeleteChat: %v", err)
	}
	if _, err := s.GetChat(ctx, chat.ID); !errors.Is(err, api.ErrNotFound) {
		t.Error("deleted chat should be gone")
	}

	// Deleting again is a no-op.
	if err := s.DeleteChat(ctx, chat.ID); err != nil {
		t.Errorf("repeat delete: %v", err)
	}
}

func TestSim_UploadFile(t *testing.T) {
	s := newTestSim()

	ref, err := s.UploadFile(context.Background(), "notes.txt", strings.NewReader("hello"))
	if err != nil {
		t.Fatalf("UploadFile: %v", err)
	}
	if ref.Size != 5 {
		t.Errorf("Size = %d, want 5", ref.Size)
	}
	if !strings.HasPrefix(ref.Type, "text/plain") {
		t.Errorf("Type = %q, want text/plain", ref.Type)
	}
	if ref.Content == "" {
		t.Error("content should be stored inline as base64")
	}
}

func TestDetectCode(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"fenced block", "Sure:\n```python\nprint(1)\n```", true},
		{"doctype", "<!DOCTYPE html><html></html>", true},
		{"function keyword", "Use function foo() here", true},
		{"python def", "def main():", true},
		{"java main", "public class Main {}", true},
		{"prose", "The weather is lovely today.", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectCode(tt.text); got != tt.want {
				t.Errorf("DetectCode(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}
