// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package sim

import (
	"fmt"
	"strings"

	"github.com/jeranaias/surya-tui/internal/model"
)

// =============================================================================
// CODE DETECTION
// =============================================================================

// codeIndicators are substrings whose presence marks a reply as code.
// Matching is case-insensitive against the whole response.
var codeIndicators = []string{
	"```", "<!doctype", "<html>", "<head>", "<body>", "<script>", "<style>",
	"function ", "const ", "let ", "var ", "class ", "def ", "import ",
	"from ", "if __name__", "public class", "private ", "public ",
}

// DetectCode reports whether a response should render as code.
func DetectCode(response string) bool {
	lower := strings.ToLower(response)
	for _, indicator := range codeIndicators {
		if strings.Contains(lower, indicator) {
			return true
		}
	}
	return false
}

// =============================================================================
// CANNED RESPONDER
// =============================================================================

// Respond is the default reply generator. It picks a reply shape from the
// prompt so that code and preview paths get exercised without a real model.
func Respond(prompt string, file *model.FileRef, turn int) string {
	lower := strings.ToLower(prompt)

	switch {
	case strings.Contains(lower, "html") || strings.Contains(lower, "page") || strings.Contains(lower, "website"):
		return htmlReply(prompt)
	case strings.Contains(lower, "python") || strings.Contains(lower, "script"):
		return pythonReply(prompt)
	case strings.Contains(lower, "function") || strings.Contains(lower, "code"):
		return jsReply(prompt)
	case file != nil:
		return fmt.Sprintf("I received your file %q (%s, %d bytes). What would you like me to do with it?",
			file.Filename, file.Type, file.Size)
	case turn == 1:
		return "Hello! I'm Surya AI ☀️, your assistant. Ask me anything, or ask me to write some code."
	default:
		return fmt.Sprintf("Here's a thought on %q: I'd be happy to dig deeper if you tell me more about what you're after.", firstWords(prompt, 8))
	}
}

func htmlReply(prompt string) string {
	return fmt.Sprintf(`Here's a simple page for you:

<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>Surya Demo</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 40px; }
        h1 { color: #2d7d46; }
    </style>
</head>
<body>
    <h1>Hello from Surya AI</h1>
    <p>Generated for: %s</p>
</body>
</html>`, firstWords(prompt, 10))
}

func pythonReply(prompt string) string {
	return fmt.Sprintf("Here's a Python snippet:\n\n```python\ndef solve():\n    \"\"\"%s\"\"\"\n    result = sum(range(10))\n    return result\n\nif __name__ == \"__main__\":\n    print(solve())\n```", firstWords(prompt, 10))
}

func jsReply(prompt string) string {
	return fmt.Sprintf("Here's a JavaScript function:\n\n```javascript\n// %s\nfunction greet(name) {\n    const message = `Hello, ${name}!`;\n    return message;\n}\n\nconsole.log(greet(\"Surya\"));\n```", firstWords(prompt, 10))
}

// firstWords truncates a prompt to its first n words for echoing back.
func firstWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) <= n {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:n], " ") + "..."
}
