// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server implements the Surya reference backend: a REST API under
// /api for chat CRUD, messaging, and file upload, backed by SQLite storage
// and the canned responder. It exists so the terminal client has a real
// HTTP backend to talk to without any external AI provider.
package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/jeranaias/surya-tui/internal/model"
	"github.com/jeranaias/surya-tui/internal/preview"
	"github.com/jeranaias/surya-tui/internal/sim"
	"github.com/jeranaias/surya-tui/internal/storage"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// DefaultPort is the default server port.
	DefaultPort = 8787

	// MaxRequestBodySize caps JSON request bodies. Inline base64 attachments
	// inflate uploads by a third, so this sits above the raw upload cap.
	MaxRequestBodySize = 15 * 1024 * 1024

	// MaxUploadSize caps raw multipart uploads.
	MaxUploadSize = 10 * 1024 * 1024
)

// bannerMessage greets anyone probing the API root.
const bannerMessage = "Surya AI Backend is running! ☀️"

// ============================================================================
// SERVER
// ============================================================================

// Server is the Surya backend HTTP server.
type Server struct {
	port   int
	router *http.ServeMux
	server *http.Server

	store     *storage.Store
	responder sim.Responder
	delay     time.Duration

	// sessions counts completed exchanges per chat, mirroring the responder
	// sessions the AI service keeps. Cleared when the chat is deleted.
	sessionsMu sync.Mutex
	sessions   map[string]int
}

// NewServer creates a server on the given port backed by store.
// If port is 0, the default port (8787) is used.
func NewServer(port int, store *storage.Store) *Server {
	if port == 0 {
		port = DefaultPort
	}

	s := &Server{
		port:      port,
		router:    http.NewServeMux(),
		store:     store,
		responder: sim.Respond,
		delay:     sim.DefaultThinkingDelay,
		sessions:  make(map[string]int),
	}

	s.setupRoutes()
	return s
}

// WithResponder sets a custom reply generator.
func (s *Server) WithResponder(r sim.Responder) *Server {
	s.responder = r
	return s
}

// WithDelay sets the simulated thinking delay. Tests pass zero.
func (s *Server) WithDelay(d time.Duration) *Server {
	s.delay = d
	return s
}

// Port returns the server port.
func (s *Server) Port() int {
	return s.port
}

// Handler returns the routed handler with the full middleware chain applied.
func (s *Server) Handler() http.Handler {
	return Chain(
		RecoveryMiddleware(),
		CORSMiddleware(),
		LoggingMiddleware(log.Default()),
		RateLimitMiddleware(DefaultRateLimiter()),
	)(s.router)
}

// ============================================================================
// ROUTES
// ============================================================================

func (s *Server) setupRoutes() {
	s.router.HandleFunc("GET /api/{$}", s.handleBanner)
	s.router.HandleFunc("GET /api/health", s.handleHealth)

	s.router.HandleFunc("POST /api/chats", s.handleCreateChat)
	s.router.HandleFunc("GET /api/chats", s.handleListChats)
	s.router.HandleFunc("GET /api/chats/{id}", s.handleGetChat)
	s.router.HandleFunc("DELETE /api/chats/{id}", s.handleDeleteChat)
	s.router.HandleFunc("POST /api/chats/{id}/messages", s.handleSendMessage)
	s.router.HandleFunc("POST /api/upload", s.handleUpload)

	// Serves the latest generated code of a chat as an isolated document.
	s.router.HandleFunc("GET /preview/{id}", s.handlePreview)
}

// ============================================================================
// REQUEST/RESPONSE TYPES
// ============================================================================

type createChatRequest struct {
	Title string `json:"title"`
}

type sendMessageRequest struct {
	Content      string         `json:"content"`
	AttachedFile *model.FileRef `json:"attached_file,omitempty"`
}

// ============================================================================
// CHAT HANDLERS
// ============================================================================

func (s *Server) handleBanner(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"message": bannerMessage})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "surya-backend",
	})
}

func (s *Server) handleCreateChat(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)

	var req createChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	chat := model.NewChat(req.Title)
	if err := s.store.CreateChat(r.Context(), chat); err != nil {
		log.Printf("CREATE_CHAT_FAILED | error=%v", err)
		s.writeError(w, http.StatusInternalServerError, "failed to create chat")
		return
	}

	s.writeJSON(w, http.StatusOK, chat)
}

func (s *Server) handleListChats(w http.ResponseWriter, r *http.Request) {
	chats, err := s.store.ListChats(r.Context())
	if err != nil {
		log.Printf("LIST_CHATS_FAILED | error=%v", err)
		s.writeError(w, http.StatusInternalServerError, "failed to list chats")
		return
	}
	s.writeJSON(w, http.StatusOK, chats)
}

func (s *Server) handleGetChat(w http.ResponseWriter, r *http.Request) {
	chat, err := s.store.GetChat(r.Context(), r.PathValue("id"))
	if errors.Is(err, storage.ErrChatNotFound) {
		s.writeError(w, http.StatusNotFound, "chat not found")
		return
	}
	if err != nil {
		log.Printf("GET_CHAT_FAILED | error=%v", err)
		s.writeError(w, http.StatusInternalServerError, "failed to load chat")
		return
	}
	s.writeJSON(w, http.StatusOK, chat)
}

func (s *Server) handleDeleteChat(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	err := s.store.DeleteChat(r.Context(), id)
	if errors.Is(err, storage.ErrChatNotFound) {
		s.writeError(w, http.StatusNotFound, "chat not found")
		return
	}
	if err != nil {
		log.Printf("DELETE_CHAT_FAILED | error=%v", err)
		s.writeError(w, http.StatusInternalServerError, "failed to delete chat")
		return
	}

	s.clearSession(id)
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "Chat deleted successfully"})
}

// ============================================================================
// MESSAGING
// ============================================================================

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)
	chatID := r.PathValue("id")

	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Content) == "" && req.AttachedFile == nil {
		s.writeError(w, http.StatusBadRequest, "message content is empty")
		return
	}

	chat, err := s.store.GetChat(r.Context(), chatID)
	if errors.Is(err, storage.ErrChatNotFound) {
		s.writeError(w, http.StatusNotFound, "chat not found")
		return
	}
	if err != nil {
		log.Printf("SEND_MESSAGE_FAILED | chat=%s error=%v", chatID, err)
		s.writeError(w, http.StatusInternalServerError, "failed to load chat")
		return
	}

	userMsg := model.NewMessage(model.RoleUser, req.Content)
	userMsg.AttachedFile = req.AttachedFile

	if s.delay > 0 {
		timer := time.NewTimer(s.delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-r.Context().Done():
			return
		}
	}

	turn := s.bumpSession(chatID)
	reply := s.responder(req.Content, req.AttachedFile, turn)

	aiMsg := model.NewMessage(model.RoleAssistant, reply)
	aiMsg.IsCode = sim.DetectCode(reply)

	// Title is derived from the first user message of the chat.
	title := ""
	if chat.IsEmpty() {
		title = model.DeriveTitle(req.Content)
	}

	if err := s.store.AppendMessages(r.Context(), chatID, title, userMsg, aiMsg); err != nil {
		log.Printf("SEND_MESSAGE_FAILED | chat=%s error=%v", chatID, err)
		s.writeError(w, http.StatusInternalServerError, "failed to store messages")
		return
	}

	s.writeJSON(w, http.StatusOK, aiMsg)
}

func (s *Server) bumpSession(chatID string) int {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()
	s.sessions[chatID]++
	return s.sessions[chatID]
}

func (s *Server) clearSession(chatID string) {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()
	delete(s.sessions, chatID)
}

// ============================================================================
// UPLOAD
// ============================================================================

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, MaxUploadSize))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to read upload")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(header.Filename))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	s.writeJSON(w, http.StatusOK, model.FileRef{
		Filename: header.Filename,
		Content:  base64.StdEncoding.EncodeToString(data),
		Type:     contentType,
		Size:     int64(len(data)),
	})
}

// ============================================================================
// PREVIEW
// ============================================================================

// handlePreview serves the chat's most recent code reply as a standalone
// document. The CSP sandbox permits scripts but blocks storage and top-level
// navigation, so generated content cannot escape its frame.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	chat, err := s.store.GetChat(r.Context(), r.PathValue("id"))
	if errors.Is(err, storage.ErrChatNotFound) {
		s.writeError(w, http.StatusNotFound, "chat not found")
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to load chat")
		return
	}

	code := ""
	for i := len(chat.Messages) - 1; i >= 0; i-- {
		if msg := chat.Messages[i]; msg.Role == model.RoleAssistant && msg.IsCode {
			code = msg.Content
			break
		}
	}
	if code == "" {
		s.writeError(w, http.StatusNotFound, "no generated code to preview")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Security-Policy", "sandbox allow-scripts")
	io.WriteString(w, preview.Render(code))
}

// ============================================================================
// SERVER LIFECYCLE
// ============================================================================

// Start starts the HTTP server and blocks until it exits.
func (s *Server) Start() error {
	addr := fmt.Sprintf("127.0.0.1:%d", s.port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("SERVER_START | addr=%s", addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	log.Printf("SERVER_SHUTDOWN | starting graceful shutdown")
	return s.server.Shutdown(ctx)
}

// ============================================================================
// HELPERS
// ============================================================================

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
