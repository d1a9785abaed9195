// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session owns the client-side view of the conversation: the chat
// list, the active chat's transcript, the pending-response flag, and the
// last-generated-code buffer. All mutations go through methods on Session,
// which is the single writer of this state; the UI reads consistent copies
// through Snapshot.
//
// The backend is the source of truth for identity and timestamps. The one
// exception is the optimistic user message appended before a send resolves,
// which carries a client-local id in its own namespace and is marked
// confirmed or failed when the send completes.
package session

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"sync"

	"github.com/jeranaias/surya-tui/internal/api"
	"github.com/jeranaias/surya-tui/internal/model"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrSendInProgress is returned when a send starts while another is
	// still awaiting its reply.
	ErrSendInProgress = errors.New("a send is already in progress")

	// ErrEmptyMessage is returned for a send with no text and no attachment.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrMessageNotFound is returned when a retry references an unknown
	// message id.
	ErrMessageNotFound = errors.New("message not found")
)

// =============================================================================
// TYPES
// =============================================================================

// Tab identifies the active view.
type Tab string

const (
	TabChat    Tab = "chat"
	TabCode    Tab = "code"
	TabPreview Tab = "preview"
)

// Attachment is a user-picked file waiting to be uploaded with the next send.
type Attachment struct {
	Filename string
	Reader   io.Reader
}

// Snapshot is a consistent, read-only copy of the session state for
// rendering. Messages are shared pointers; callers must not mutate them.
type Snapshot struct {
	Chats         []model.ChatSummary
	ActiveChatID  string
	Messages      []*model.Message
	Pending       bool
	Loading       bool
	GeneratedCode string
	ActiveTab     Tab
}

// =============================================================================
// SESSION
// =============================================================================

// Session is the view-model. Safe for concurrent use; typically the UI
// event loop calls the mutating methods and renders from Snapshot.
type Session struct {
	mu      sync.Mutex
	backend api.Backend
	logger  *log.Logger

	chats         []model.ChatSummary
	activeChatID  string
	messages      []*model.Message
	pending       bool
	loading       bool
	generatedCode string
	activeTab     Tab

	// attachment staged for the next send, discarded once sent or removed
	attachment *Attachment
}

// New creates a session bound to a backend.
func New(backend api.Backend) *Session {
	return &Session{
		backend:   backend,
		logger:    log.Default(),
		activeTab: TabChat,
		loading:   true,
	}
}

// WithLogger overrides the logger.
func (s *Session) WithLogger(logger *log.Logger) *Session {
	s.logger = logger
	return s
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Chats:         append([]model.ChatSummary(nil), s.chats...),
		ActiveChatID:  s.activeChatID,
		Messages:      append([]*model.Message(nil), s.messages...),
		Pending:       s.pending,
		Loading:       s.loading,
		GeneratedCode: s.generatedCode,
		ActiveTab:     s.activeTab,
	}
}

// =============================================================================
// CHAT LIST
// =============================================================================

// LoadChats fetches the chat list. On failure the list is left empty and the
// error is logged, not surfaced; the user can retry by reloading.
func (s *Session) LoadChats(ctx context.Context) {
	chats, err := s.backend.ListChats(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.logger.Printf("load chats failed: %v", err)
		s.chats = nil
		return
	}
	s.chats = chats
}

// refreshChats re-fetches the list to pick up server-side title and
// timestamp changes.
func (s *Session) refreshChats(ctx context.Context) {
	chats, err := s.backend.ListChats(ctx)
	if err != nil {
		s.logger.Printf("refresh chats failed: %v", err)
		return
	}
	s.mu.Lock()
	s.chats = chats
	s.mu.Unlock()
}

// NewChat creates a chat, makes it active with an empty transcript, and
// switches to the chat tab.
func (s *Session) NewChat(ctx context.Context) (*model.Chat, error) {
	chat, err := s.backend.CreateChat(ctx, "")
	if err != nil {
		s.logger.Printf("create chat failed: %v", err)
		return nil, err
	}

	s.mu.Lock()
	s.chats = append([]model.ChatSummary{chat.Summary()}, s.chats...)
	s.activeChatID = chat.ID
	s.messages = nil
	s.activeTab = TabChat
	s.mu.Unlock()

	return chat, nil
}

// SelectChat fetches the chat and replaces the active transcript with its
// messages. On failure the prior state is kept.
func (s *Session) SelectChat(ctx context.Context, id string) error {
	chat, err := s.backend.GetChat(ctx, id)
	if err != nil {
		s.logger.Printf("select chat %s failed: %v", id, err)
		return err
	}

	s.mu.Lock()
	s.activeChatID = chat.ID
	s.messages = append([]*model.Message(nil), chat.Messages...)
	s.activeTab = TabChat
	s.mu.Unlock()

	return nil
}

// DeleteChat removes the chat from the list immediately and requests
// deletion from the backend. If the chat was active, the active id and
// transcript are cleared in the same step. Backend failures are logged only.
func (s *Session) DeleteChat(ctx context.Context, id string) {
	s.mu.Lock()
	kept := s.chats[:0]
	for _, c := range s.chats {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	s.chats = kept
	if s.activeChatID == id {
		s.activeChatID = ""
		s.messages = nil
	}
	s.mu.Unlock()

	if err := s.backend.DeleteChat(ctx, id); err != nil {
		s.logger.Printf("delete chat %s failed: %v", id, err)
	}
}

// =============================================================================
// ATTACHMENTS
// =============================================================================

// AttachFile stages a file for the next send.
func (s *Session) AttachFile(a *Attachment) {
	s.mu.Lock()
	s.attachment = a
	s.mu.Unlock()
}

// RemoveAttachment discards the staged file.
func (s *Session) RemoveAttachment() {
	s.mu.Lock()
	s.attachment = nil
	s.mu.Unlock()
}

// HasAttachment reports whether a file is staged.
func (s *Session) HasAttachment() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attachment != nil
}

// =============================================================================
// SEND
// =============================================================================

// SendMessage runs the full send path: optimistic append, optional upload,
// backend call, reply attribution, and chat-list refresh. It blocks until
// the assistant reply arrives or the send fails; callers run it off the
// render path.
//
// An empty submission (no trimmed text, no staged attachment) is rejected
// before any state change or API call.
func (s *Session) SendMessage(ctx context.Context, content string) error {
	content = strings.TrimSpace(content)

	s.mu.Lock()
	if content == "" && s.attachment == nil {
		s.mu.Unlock()
		return ErrEmptyMessage
	}
	if s.pending {
		s.mu.Unlock()
		return ErrSendInProgress
	}
	// Claim the in-flight slot before releasing the lock; a second send
	// racing past the check here would otherwise also pass the gate.
	s.pending = true
	attachment := s.attachment
	s.attachment = nil
	chatID := s.activeChatID
	s.mu.Unlock()

	// A message needs a destination.
	if chatID == "" {
		chat, err := s.NewChat(ctx)
		if err != nil {
			s.mu.Lock()
			s.pending = false
			if s.attachment == nil {
				s.attachment = attachment
			}
			s.mu.Unlock()
			return err
		}
		chatID = chat.ID
	}

	// Optimistic user message, in the local id namespace. The file ref is
	// attached once the upload resolves.
	userMsg := model.NewLocalUserMessage(content, nil)

	s.mu.Lock()
	s.messages = append(s.messages, userMsg)
	s.mu.Unlock()

	var fileRef *model.FileRef
	if attachment != nil {
		ref, err := s.backend.UploadFile(ctx, attachment.Filename, attachment.Reader)
		if err != nil {
			s.logger.Printf("upload %s failed: %v", attachment.Filename, err)
			s.failSend(chatID, userMsg.ID)
			return err
		}
		fileRef = ref
		s.mu.Lock()
		userMsg.AttachedFile = ref
		s.mu.Unlock()
	}

	reply, err := s.backend.SendMessage(ctx, chatID, content, fileRef)
	if err != nil {
		s.logger.Printf("send to chat %s failed: %v", chatID, err)
		s.failSend(chatID, userMsg.ID)
		return err
	}

	s.completeSend(chatID, userMsg.ID, reply)

	// Pick up the server-side title and timestamp changes.
	s.refreshChats(ctx)
	return nil
}

// completeSend attributes the reply to its originating chat. If the user
// navigated away while the send was in flight, the displayed transcript
// belongs to another chat and is left untouched; the reply is already stored
// on the backend and will appear when the chat is selected again.
func (s *Session) completeSend(chatID, localID string, reply *model.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending = false

	if s.activeChatID == chatID {
		if msg := s.findMessage(localID); msg != nil {
			msg.Status = model.StatusConfirmed
		}
		s.messages = append(s.messages, reply)
	}

	if reply.IsCode {
		s.generatedCode = reply.Content
		if s.activeChatID == chatID {
			s.activeTab = TabCode
		}
	}
}

// failSend clears the pending flag and marks the optimistic message failed,
// if it is still on screen.
func (s *Session) failSend(chatID, localID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending = false
	if s.activeChatID != chatID {
		return
	}
	if msg := s.findMessage(localID); msg != nil {
		msg.Status = model.StatusFailed
	}
}

// RetryMessage re-sends a failed optimistic message in place. The entry
// stays in the transcript, flips back to pending for the duration, and is
// confirmed or re-marked failed by the outcome. An already-uploaded file
// ref is carried into the resend without another upload.
//
// A message with no content whose upload never succeeded has nothing left
// to resend (the attachment reader was consumed by the original send); it
// stays failed in the transcript.
func (s *Session) RetryMessage(ctx context.Context, messageID string) error {
	s.mu.Lock()
	msg := s.findMessage(messageID)
	if msg == nil || msg.Status != model.StatusFailed {
		s.mu.Unlock()
		return ErrMessageNotFound
	}
	if s.pending {
		s.mu.Unlock()
		return ErrSendInProgress
	}
	if msg.Content == "" && msg.AttachedFile == nil {
		s.mu.Unlock()
		return ErrEmptyMessage
	}
	s.pending = true
	msg.Status = model.StatusPending
	chatID := s.activeChatID
	s.mu.Unlock()

	reply, err := s.backend.SendMessage(ctx, chatID, msg.Content, msg.AttachedFile)
	if err != nil {
		s.logger.Printf("retry to chat %s failed: %v", chatID, err)
		s.failSend(chatID, msg.ID)
		return err
	}

	s.completeSend(chatID, msg.ID, reply)
	s.refreshChats(ctx)
	return nil
}

// findMessage returns the displayed message with the given id. Caller holds mu.
func (s *Session) findMessage(id string) *model.Message {
	for _, msg := range s.messages {
		if msg.ID == id {
			return msg
		}
	}
	return nil
}

// =============================================================================
// TABS
// =============================================================================

// SetTab switches the active view.
func (s *Session) SetTab(tab Tab) {
	s.mu.Lock()
	s.activeTab = tab
	s.mu.Unlock()
}

// GeneratedCode returns the last-generated-code buffer.
func (s *Session) GeneratedCode() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generatedCode
}

// Pending reports whether a send is awaiting its reply.
func (s *Session) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// ActiveChatID returns the active chat id, or empty when no chat is active.
func (s *Session) ActiveChatID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeChatID
}
