// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/surya-tui/internal/model"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL)
}

// =============================================================================
// CHAT CRUD
// =============================================================================

func TestClient_CreateChat(t *testing.T) {
	var gotPath, gotMethod, gotContentType string
	var gotBody createChatRequest

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		gotContentType = r.Header.Get("Content-Type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		json.NewEncoder(w).Encode(model.Chat{ID: "c1", Title: gotBody.Title})
	})

	chat, err := client.CreateChat(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, "/api/chats", gotPath)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, model.DefaultTitle, gotBody.Title, "empty title should default")
	assert.Equal(t, "c1", chat.ID)
}

func TestClient_ListChats(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chats", r.URL.Path)
		json.NewEncoder(w).Encode([]model.ChatSummary{
			{ID: "b", Title: "newer"},
			{ID: "a", Title: "older"},
		})
	})

	chats, err := client.ListChats(context.Background())
	require.NoError(t, err)
	require.Len(t, chats, 2)
	assert.Equal(t, "b", chats[0].ID, "server ordering must be preserved")
}

func TestClient_GetChat_NotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"chat not found"}`, http.StatusNotFound)
	})

	_, err := client.GetChat(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound), "404 should match ErrNotFound, got %v", err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}

func TestClient_DeleteChat_Idempotent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		http.Error(w, `{"error":"chat not found"}`, http.StatusNotFound)
	})

	// A 404 on delete is success from the caller's perspective.
	err := client.DeleteChat(context.Background(), "already-gone")
	assert.NoError(t, err)
}

func TestClient_DeleteChat_ServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	err := client.DeleteChat(context.Background(), "c1")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
}

// =============================================================================
// SEND MESSAGE
// =============================================================================

func TestClient_SendMessage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chats/c1/messages", r.URL.Path)

		var body sendMessageRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "hello", body.Content)
		require.NotNil(t, body.AttachedFile)
		assert.Equal(t, "notes.txt", body.AttachedFile.Filename)

		json.NewEncoder(w).Encode(model.Message{
			ID:      "m1",
			Role:    model.RoleAssistant,
			Content: "hi there",
		})
	})

	reply, err := client.SendMessage(context.Background(), "c1", "hello", &model.FileRef{Filename: "notes.txt"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleAssistant, reply.Role)
	assert.Equal(t, "hi there", reply.Content)
}

func TestClient_SendMessage_OutlivesStandardTimeout(t *testing.T) {
	if testing.Short() {
		t.Skip("slow test")
	}

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(150 * time.Millisecond)
		json.NewEncoder(w).Encode(model.Message{ID: "m1", Role: model.RoleAssistant})
	})
	// Shrink the bounded client's timeout below the server's latency; the
	// send path must not be affected because it uses the unbounded client.
	client.WithTimeout(50 * time.Millisecond)

	_, err := client.SendMessage(context.Background(), "c1", "slow", nil)
	assert.NoError(t, err, "SendMessage must not use the bounded client")

	_, err = client.ListChats(context.Background())
	assert.Error(t, err, "bounded calls should hit the shortened timeout")
	assert.True(t, IsNetworkError(err))
}

// =============================================================================
// UPLOAD
// =============================================================================

func TestClient_UploadFile(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/upload", r.URL.Path)
		assert.Contains(t, r.Header.Get("Content-Type"), "multipart/form-data")

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "notes.txt", header.Filename)

		json.NewEncoder(w).Encode(model.FileRef{
			Filename: header.Filename,
			Type:     "text/plain",
			Size:     5,
		})
	})

	ref, err := client.UploadFile(context.Background(), "notes.txt", strings.NewReader("hello"))
	require.NoError(t, err)
	assert.Equal(t, "notes.txt", ref.Filename)
	assert.Equal(t, int64(5), ref.Size)
}

// =============================================================================
// HEALTH AND ERROR MAPPING
// =============================================================================

func TestClient_Health(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/health", r.URL.Path)
		json.NewEncoder(w).Encode(HealthStatus{Status: "healthy", Service: "surya-backend"})
	})

	status, err := client.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "healthy", status.Status)
}

func TestClient_NetworkError(t *testing.T) {
	// Point at a server that is already closed.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := NewClient(srv.URL)
	_, err := client.ListChats(context.Background())
	require.Error(t, err)
	assert.True(t, IsNetworkError(err), "transport failure should be a NetworkError, got %v", err)

	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr), "transport failure must not look like a server response")
}
