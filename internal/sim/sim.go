// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package sim provides an in-process implementation of the backend API for
// use without a server and for testing. Chats live in memory, replies come from
// a canned responder after a configurable thinking delay, and all identifiers
// are assigned on the "server" side so callers see the same contract as the
// HTTP client.
package sim

import (
	"context"
	"encoding/base64"
	"io"
	"mime"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jeranaias/surya-tui/internal/api"
	"github.com/jeranaias/surya-tui/internal/model"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// DefaultThinkingDelay stands in for AI inference latency.
	DefaultThinkingDelay = 2 * time.Second

	// MaxUploadSize bounds in-memory file uploads.
	MaxUploadSize = 10 * 1024 * 1024
)

// Responder produces an assistant reply for a user prompt. The turn counter
// starts at 1 for the first exchange in a chat.
type Responder func(prompt string, file *model.FileRef, turn int) string

// =============================================================================
// SIMULATED BACKEND
// =============================================================================

// Sim is an in-memory api.Backend. Safe for concurrent use.
type Sim struct {
	mu       sync.Mutex
	chats    map[string]*model.Chat
	sessions map[string]int // chat id -> completed turns

	delay     time.Duration
	responder Responder
}

var _ api.Backend = (*Sim)(nil)

// New creates a simulated backend with the default responder and delay.
func New() *Sim {
	return &Sim{
		chats:     make(map[string]*model.Chat),
		sessions:  make(map[string]int),
		delay:     DefaultThinkingDelay,
		responder: Respond,
	}
}

// WithDelay overrides the thinking delay. Tests pass zero.
func (s *Sim) WithDelay(d time.Duration) *Sim {
	s.delay = d
	return s
}

// WithResponder overrides the reply generator.
func (s *Sim) WithResponder(r Responder) *Sim {
	s.responder = r
	return s
}

// =============================================================================
// CHAT CRUD
// =============================================================================

// CreateChat creates a new empty chat.
func (s *Sim) CreateChat(_ context.Context, title string) (*model.Chat, error) {
	chat := model.NewChat(title)

	s.mu.Lock()
	s.chats[chat.ID] = chat
	s.mu.Unlock()

	return chat.Clone(), nil
}

// ListChats returns summaries ordered most recently updated first.
func (s *Sim) ListChats(_ context.Context) ([]model.ChatSummary, error) {
	s.mu.Lock()
	summaries := make([]model.ChatSummary, 0, len(s.chats))
	for _, chat := range s.chats {
		summaries = append(summaries, chat.Summary())
	}
	s.mu.Unlock()

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].UpdatedAt.After(summaries[j].UpdatedAt)
	})
	return summaries, nil
}

// GetChat returns a deep copy of the chat, or api.ErrNotFound.
func (s *Sim) GetChat(_ context.Context, id string) (*model.Chat, error) {
	s.mu.Lock()
	chat, ok := s.chats[id]
	s.mu.Unlock()

	if !ok {
		return nil, api.ErrNotFound
	}
	return chat.Clone(), nil
}

// DeleteChat removes the chat and its responder session. Deleting an unknown
// id is not an error, matching the HTTP client's idempotent delete.
func (s *Sim) DeleteChat(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.chats, id)
	delete(s.sessions, id)
	s.mu.Unlock()
	return nil
}

// =============================================================================
// MESSAGING
// =============================================================================

// SendMessage appends the user message, waits out the thinking delay, then
// appends and returns the assistant reply. The delay respects ctx cancellation.
func (s *Sim) SendMessage(ctx context.Context, chatID, content string, file *model.FileRef) (*model.Message, error) {
	if strings.TrimSpace(content) == "" && file == nil {
		return nil, api.ErrEmptyMessage
	}

	s.mu.Lock()
	chat, ok := s.chats[chatID]
	if !ok {
		s.mu.Unlock()
		return nil, api.ErrNotFound
	}

	userMsg := model.NewMessage(model.RoleUser, content)
	userMsg.AttachedFile = file
	chat.AppendMessage(userMsg)
	chat.RefreshTitle()

	s.sessions[chatID]++
	turn := s.sessions[chatID]
	respond := s.responder
	s.mu.Unlock()

	if s.delay > 0 {
		timer := time.NewTimer(s.delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	reply := respond(content, file, turn)
	aiMsg := model.NewMessage(model.RoleAssistant, reply)
	aiMsg.IsCode = DetectCode(reply)

	s.mu.Lock()
	defer s.mu.Unlock()
	// The chat may have been deleted while we were "thinking".
	if _, ok := s.chats[chatID]; !ok {
		return nil, api.ErrNotFound
	}
	chat.AppendMessage(aiMsg)

	out := *aiMsg
	return &out, nil
}

// UploadFile reads and stores the file content inline as base64.
func (s *Sim) UploadFile(_ context.Context, filename string, r io.Reader) (*model.FileRef, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadSize))
	if err != nil {
		return nil, err
	}

	contentType := mime.TypeByExtension(filepath.Ext(filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return &model.FileRef{
		Filename: filename,
		Content:  base64.StdEncoding.EncodeToString(data),
		Type:     contentType,
		Size:     int64(len(data)),
	}, nil
}

// Health always reports healthy.
func (s *Sim) Health(_ context.Context) (api.HealthStatus, error) {
	return api.HealthStatus{Status: "healthy", Service: "surya-sim"}, nil
}
