// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package preview turns generated text into a self-contained HTML document
// suitable for rendering in an isolated context (a sandboxed iframe when
// served, a browser tab when written to disk). Classification is a pure
// function of the input text; no network or filesystem access happens here.
package preview

import (
	"html"
	"strings"
)

// =============================================================================
// CLASSIFICATION
// =============================================================================

// Kind describes how a piece of generated text should be previewed.
type Kind int

const (
	// KindDocument is a complete HTML document, rendered verbatim.
	KindDocument Kind = iota
	// KindFragment is partial markup, wrapped in a minimal document shell.
	KindFragment
	// KindText is anything else, escaped inside a <pre> block.
	KindText
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindDocument:
		return "document"
	case KindFragment:
		return "fragment"
	default:
		return "text"
	}
}

// Classify determines how text should be previewed. First matching rule wins:
// a full-document marker renders verbatim, the presence of angle brackets
// marks a fragment, and everything else is plain text.
func Classify(text string) Kind {
	lower := strings.ToLower(text)
	if strings.Contains(lower, "<!doctype html") || strings.Contains(lower, "<html") {
		return KindDocument
	}
	if strings.Contains(text, "<") && strings.Contains(text, ">") {
		return KindFragment
	}
	return KindText
}

// =============================================================================
// RENDERING
// =============================================================================

const fragmentShell = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <style>
        body { margin: 20px; font-family: Arial, sans-serif; }
    </style>
</head>
<body>
%BODY%
</body>
</html>
`

const textShell = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <style>
        body { margin: 20px; font-family: 'Courier New', monospace; }
        pre { background: #f5f5f5; padding: 20px; border-radius: 8px; overflow-x: auto; }
    </style>
</head>
<body>
    <h3>Code Preview</h3>
    <pre>%BODY%</pre>
</body>
</html>
`

// Render produces a complete HTML document for the given text. Full documents
// pass through untouched, fragments are embedded in a shell with default
// styling, and plain text is HTML-escaped inside a <pre> block so markup-like
// characters display literally.
func Render(text string) string {
	switch Classify(text) {
	case KindDocument:
		return text
	case KindFragment:
		return strings.Replace(fragmentShell, "%BODY%", text, 1)
	default:
		return strings.Replace(textShell, "%BODY%", html.EscapeString(text), 1)
	}
}
