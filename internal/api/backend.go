// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api defines the backend contract for the surya client and the
// HTTP implementation of it.
package api

import (
	"context"
	"io"

	"github.com/jeranaias/surya-tui/internal/model"
)

// HealthStatus is the backend's liveness report.
type HealthStatus struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// Backend is the set of operations the session layer needs from a chat
// backend. Two implementations exist: the HTTP Client in this package
// and the in-process simulator in internal/sim, selected at composition
// time. Business logic never branches on which one it is talking to.
//
// None of these operations retry on their own: CreateChat, SendMessage
// and UploadFile are not safe to repeat blindly, and for the rest the
// retry policy belongs to the caller.
type Backend interface {
	// CreateChat creates a new chat. An empty title gets the default.
	CreateChat(ctx context.Context, title string) (*model.Chat, error)

	// ListChats returns chat summaries, most recently updated first.
	ListChats(ctx context.Context) ([]model.ChatSummary, error)

	// GetChat returns the full chat with messages. Unknown ids fail
	// with ErrNotFound.
	GetChat(ctx context.Context, id string) (*model.Chat, error)

	// DeleteChat removes a chat. Idempotent from the caller's side:
	// deleting an unknown id is treated as success.
	DeleteChat(ctx context.Context, id string) error

	// SendMessage submits user content to a chat and returns the
	// assistant's reply. Generation latency is unbounded, so this call
	// is not subject to the standard request timeout.
	SendMessage(ctx context.Context, chatID, content string, file *model.FileRef) (*model.Message, error)

	// UploadFile stores a file and returns its reference. Must complete
	// before SendMessage is called with the resulting reference.
	UploadFile(ctx context.Context, filename string, r io.Reader) (*model.FileRef, error)

	// Health probes backend liveness. Never on the critical path of a
	// user action.
	Health(ctx context.Context) (HealthStatus, error)
}
