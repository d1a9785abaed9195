// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/jeranaias/surya-tui/internal/model"
)

// Configuration constants for the backend API.
const (
	// DefaultBaseURL is the default backend address.
	DefaultBaseURL = "http://127.0.0.1:8787"

	// DefaultTimeout bounds every request except SendMessage.
	DefaultTimeout = 30 * time.Second

	// MaxResponseSize caps response bodies to prevent memory exhaustion.
	MaxResponseSize = 10 * 1024 * 1024 // 10MB
)

// Client is the HTTP implementation of Backend. All paths are relative
// to baseURL + "/api", mirroring the server's route prefix.
//
// Two HTTP clients are used: a bounded one for the CRUD surface and an
// unbounded one for SendMessage, whose latency depends on assistant
// generation and is controlled by the caller's context instead.
type Client struct {
	baseURL    string
	httpClient *http.Client
	sendClient *http.Client
	userAgent  string
}

// compile-time interface check
var _ Backend = (*Client)(nil)

// NewClient creates a backend client for the given base URL.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   DefaultTimeout,
		},
		sendClient: &http.Client{
			Transport: transport,
			// No timeout: send latency is context-controlled.
		},
		userAgent: "surya/" + clientVersion,
	}
}

// clientVersion is embedded in the User-Agent header.
const clientVersion = "0.1.0"

// WithTimeout sets the request timeout for the bounded client.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	c.httpClient.Timeout = timeout
	return c
}

// BaseURL returns the configured backend address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// apiURL joins the /api prefix and a path.
func (c *Client) apiURL(path string) string {
	return c.baseURL + "/api" + path
}

// =============================================================================
// CHAT OPERATIONS
// =============================================================================

// createChatRequest is the body for POST /chats.
type createChatRequest struct {
	Title string `json:"title"`
}

// CreateChat creates a new chat on the backend.
func (c *Client) CreateChat(ctx context.Context, title string) (*model.Chat, error) {
	if title == "" {
		title = model.DefaultTitle
	}

	var chat model.Chat
	err := c.doJSON(ctx, http.MethodPost, c.apiURL("/chats"), createChatRequest{Title: title}, &chat)
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

// ListChats fetches the chat summaries, most recently updated first.
func (c *Client) ListChats(ctx context.Context) ([]model.ChatSummary, error) {
	var chats []model.ChatSummary
	if err := c.doJSON(ctx, http.MethodGet, c.apiURL("/chats"), nil, &chats); err != nil {
		return nil, err
	}
	return chats, nil
}

// GetChat fetches a full chat with its messages.
func (c *Client) GetChat(ctx context.Context, id string) (*model.Chat, error) {
	var chat model.Chat
	if err := c.doJSON(ctx, http.MethodGet, c.apiURL("/chats/"+id), nil, &chat); err != nil {
		return nil, err
	}
	return &chat, nil
}

// DeleteChat deletes a chat. A 404 from the backend is treated as
// success: the chat being gone is exactly the intended outcome.
func (c *Client) DeleteChat(ctx context.Context, id string) error {
	err := c.doJSON(ctx, http.MethodDelete, c.apiURL("/chats/"+id), nil, nil)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Printf("delete chat %s: already gone", id)
			return nil
		}
		return err
	}
	return nil
}

// sendMessageRequest is the body for POST /chats/{id}/messages.
type sendMessageRequest struct {
	Content      string         `json:"content"`
	AttachedFile *model.FileRef `json:"attached_file,omitempty"`
}

// SendMessage submits user content and returns the assistant reply.
// Uses the unbounded client: the caller's context is the only deadline.
func (c *Client) SendMessage(ctx context.Context, chatID, content string, file *model.FileRef) (*model.Message, error) {
	body := sendMessageRequest{Content: content, AttachedFile: file}

	var reply model.Message
	err := c.do(ctx, c.sendClient, http.MethodPost, c.apiURL("/chats/"+chatID+"/messages"), body, &reply)
	if err != nil {
		return nil, err
	}
	return &reply, nil
}

// =============================================================================
// FILE UPLOAD
// =============================================================================

// UploadFile posts a file as multipart form data and returns the
// backend's reference for it.
func (c *Client) UploadFile(ctx context.Context, filename string, r io.Reader) (*model.FileRef, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to build multipart body: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL("/upload"), &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: "upload", Cause: err}
	}
	defer resp.Body.Close()

	respBody, err := readResponse(resp)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{Status: resp.StatusCode, Body: string(respBody)}
	}

	var ref model.FileRef
	if err := json.Unmarshal(respBody, &ref); err != nil {
		return nil, fmt.Errorf("failed to parse upload response: %w", err)
	}
	return &ref, nil
}

// =============================================================================
// HEALTH CHECK
// =============================================================================

// Health probes the backend's /health endpoint.
func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	var status HealthStatus
	if err := c.doJSON(ctx, http.MethodGet, c.apiURL("/health"), nil, &status); err != nil {
		return HealthStatus{}, err
	}
	return status, nil
}

// =============================================================================
// REQUEST PLUMBING
// =============================================================================

// doJSON performs a bounded JSON round-trip.
func (c *Client) doJSON(ctx context.Context, method, url string, body, out any) error {
	return c.do(ctx, c.httpClient, method, url, body, out)
}

// do performs one request/response cycle with uniform error mapping:
// transport failures become *NetworkError, non-2xx responses become
// *APIError, and 404s additionally match ErrNotFound.
func (c *Client) do(ctx context.Context, client *http.Client, method, url string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return &NetworkError{Op: method + " " + req.URL.Path, Cause: err}
	}
	defer resp.Body.Close()
	log.Printf("API %s %s: %d (%v)", method, req.URL.Path, resp.StatusCode, time.Since(start).Round(time.Millisecond))

	respBody, err := readResponse(resp)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// readResponse reads a response body with a size limit.
func readResponse(resp *http.Response) ([]byte, error) {
	limited := io.LimitReader(resp.Body, MaxResponseSize)
	body, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) == MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", int64(MaxResponseSize))
	}
	return body, nil
}
