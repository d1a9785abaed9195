// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// =============================================================================
// ERROR TAXONOMY
// =============================================================================

// Sentinel errors for easy checking.
var (
	// ErrNotFound indicates the backend does not know the requested id.
	ErrNotFound = errors.New("not found")

	// ErrEmptyMessage indicates a send was attempted with nothing to send.
	// This is raised client-side before any request is made.
	ErrEmptyMessage = errors.New("message is empty")
)

// APIError represents a non-2xx response from the backend.
type APIError struct {
	Status int
	Body   string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("backend error (HTTP %d): %s", e.Status, e.Body)
	}
	return fmt.Sprintf("backend error (HTTP %d)", e.Status)
}

// Is lets a 404 APIError match errors.Is(err, ErrNotFound).
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

// NetworkError wraps a transport failure: the request never produced a
// response, so the server's state is unknown.
type NetworkError struct {
	Op    string
	Cause error
}

// Error implements the error interface.
func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error during %s: %v", e.Op, e.Cause)
}

// Unwrap returns the underlying transport error.
func (e *NetworkError) Unwrap() error {
	return e.Cause
}

// IsNetworkError reports whether err is a transport failure (including
// context timeouts surfaced through the HTTP client).
func IsNetworkError(err error) bool {
	var ne *NetworkError
	if errors.As(err, &ne) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
