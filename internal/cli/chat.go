// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Interactive chat command handler for the surya CLI.
//
// Handles the "surya chat" command: a line-based REPL against the backend.
//
// Examples:
//   surya chat                        Chat against the configured backend
//   surya chat --mock              Chat against the simulated backend
//   surya chat --backend URL          Use a specific backend
//
// Interactive commands (during chat):
//   /new                New chat
//   /list               List chats
//   /open N             Open chat number N from the list
//   /delete N           Delete chat number N
//   /attach PATH        Stage a file for the next message
//   /code               Print the last generated code
//   /save PATH          Write the last generated code's preview document
//   /retry              Retry the last failed message
//   /help, /h           Show available commands
//   /quit, /q           Exit chat
//   Ctrl+D              Exit chat
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/peterh/liner"

	"github.com/jeranaias/surya-tui/internal/config"
	"github.com/jeranaias/surya-tui/internal/model"
	"github.com/jeranaias/surya-tui/internal/preview"
	"github.com/jeranaias/surya-tui/internal/session"
	"github.com/jeranaias/surya-tui/internal/util"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// ChatCLI provides input history and line editing for interactive chat.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a ChatCLI with input history support.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	configDir, err := config.ConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}

	c := &ChatCLI{
		line:        line,
		historyFile: filepath.Join(configDir, "chat_history"),
	}
	c.loadHistory()
	return c
}

func (c *ChatCLI) loadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads a line with history navigation.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

func (c *ChatCLI) saveHistory() {
	if err := config.EnsureConfigDir(); err != nil {
		return
	}
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	c.line.WriteHistory(f)
}

// Close saves history and closes the liner.
func (c *ChatCLI) Close() {
	c.saveHistory()
	c.line.Close()
}

// =============================================================================
// CHAT COMMAND
// =============================================================================

// HandleChat runs the interactive chat REPL.
func HandleChat(args *Args) {
	backend := BuildBackend(args)
	sess := session.New(backend)
	ctx := context.Background()

	sess.LoadChats(ctx)

	input := NewChatCLI()
	defer input.Close()

	renderer := newMarkdownRenderer()

	if !args.Quiet {
		fmt.Println(TitleStyle.Render("Surya AI ☀️"))
		if args.Mock {
			fmt.Println(InfoStyle.Render("mock mode: simulated assistant"))
		}
		fmt.Println(InfoStyle.Render("Type a message, /help for commands, /quit to exit."))
		fmt.Println()
	}

	for {
		line, err := input.ReadInput(PromptStyle.Render("surya> "))
		if err != nil {
			// Ctrl+C or Ctrl+D
			if !errors.Is(err, liner.ErrPromptAborted) && args.Verbose {
				fmt.Fprintf(os.Stderr, "input error: %v\n", err)
			}
			fmt.Println()
			return
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			if quit := handleSlashCommand(ctx, sess, line, renderer); quit {
				return
			}
			continue
		}
		if strings.EqualFold(line, "exit") || strings.EqualFold(line, "quit") {
			return
		}

		sendAndPrint(ctx, sess, line, renderer)
	}
}

// sendAndPrint runs the send path and renders the reply.
func sendAndPrint(ctx context.Context, sess *session.Session, text string, renderer *glamour.TermRenderer) {
	fmt.Println(InfoStyle.Render("thinking..."))

	if err := sess.SendMessage(ctx, text); err != nil {
		switch {
		case errors.Is(err, session.ErrEmptyMessage):
			// Nothing to do.
		case errors.Is(err, session.ErrSendInProgress):
			fmt.Fprintln(os.Stderr, WarningStyle.Render("A send is already in progress."))
		default:
			fmt.Fprintf(os.Stderr, "%s %v (/retry to try again)\n", ErrorStyle.Render("[send failed]"), err)
		}
		return
	}

	snap := sess.Snapshot()
	if len(snap.Messages) == 0 {
		return
	}
	reply := snap.Messages[len(snap.Messages)-1]
	if reply.Role != model.RoleAssistant {
		return
	}

	fmt.Println()
	printMarkdown(renderer, reply.Content)
	if reply.IsCode {
		fmt.Println(InfoStyle.Render("(code captured: /code to print, /save FILE for a preview document)"))
	}
	fmt.Println()
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// handleSlashCommand executes a /command. Returns true when the REPL should
// exit.
func handleSlashCommand(ctx context.Context, sess *session.Session, line string, renderer *glamour.TermRenderer) bool {
	fields := strings.Fields(line)
	cmd := fields[0]
	arg := ""
	if len(fields) > 1 {
		arg = fields[1]
	}

	switch cmd {
	case "/quit", "/q":
		return true

	case "/help", "/h":
		printChatHelp()

	case "/new":
		chat, err := sess.NewChat(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n", ErrorStyle.Render("[error]"), err)
			return false
		}
		fmt.Println(SuccessStyle.Render("Started " + chat.DisplayTitle()))

	case "/list":
		printChatList(sess)

	case "/open":
		if chat := chatByNumber(sess, arg); chat != "" {
			if err := sess.SelectChat(ctx, chat); err != nil {
				fmt.Fprintf(os.Stderr, "%s %v\n", ErrorStyle.Render("[error]"), err)
				return false
			}
			printTranscript(sess, renderer)
		}

	case "/delete":
		if chat := chatByNumber(sess, arg); chat != "" {
			sess.DeleteChat(ctx, chat)
			fmt.Println(SuccessStyle.Render("Deleted."))
		}

	case "/attach":
		if arg == "" {
			fmt.Fprintln(os.Stderr, WarningStyle.Render("usage: /attach PATH"))
			return false
		}
		f, err := os.Open(arg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n", ErrorStyle.Render("[error]"), err)
			return false
		}
		// The reader is consumed by the upload during the next send.
		sess.AttachFile(&session.Attachment{Filename: filepath.Base(arg), Reader: f})
		fmt.Println(SuccessStyle.Render("Attached " + filepath.Base(arg) + " to the next message."))

	case "/code":
		code := sess.GeneratedCode()
		if code == "" {
			fmt.Println(InfoStyle.Render("No generated code yet."))
			return false
		}
		fmt.Println(code)

	case "/save":
		if arg == "" {
			fmt.Fprintln(os.Stderr, WarningStyle.Render("usage: /save PATH"))
			return false
		}
		code := sess.GeneratedCode()
		if code == "" {
			fmt.Println(InfoStyle.Render("No generated code yet."))
			return false
		}
		doc := preview.Render(code)
		if err := util.AtomicWriteFile(arg, []byte(doc), 0644); err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n", ErrorStyle.Render("[error]"), err)
			return false
		}
		fmt.Println(SuccessStyle.Render("Preview written to " + arg))

	case "/retry":
		snap := sess.Snapshot()
		retried := false
		for i := len(snap.Messages) - 1; i >= 0; i-- {
			if snap.Messages[i].Status == model.StatusFailed {
				if err := sess.RetryMessage(ctx, snap.Messages[i].ID); err != nil {
					fmt.Fprintf(os.Stderr, "%s %v\n", ErrorStyle.Render("[retry failed]"), err)
				} else {
					printTranscript(sess, renderer)
				}
				retried = true
				break
			}
		}
		if !retried {
			fmt.Println(InfoStyle.Render("No failed message to retry."))
		}

	default:
		fmt.Fprintf(os.Stderr, "Unknown command %s (/help for commands)\n", cmd)
	}
	return false
}

func printChatHelp() {
	fmt.Print(`Commands:
  /new           Start a new chat
  /list          List chats
  /open N        Open chat number N
  /delete N      Delete chat number N
  /attach PATH   Stage a file for the next message
  /code          Print the last generated code
  /save PATH     Write the preview document for the last generated code
  /retry         Retry the last failed message
  /quit, /q      Exit
`)
}

// printChatList renders the known chats, numbered for /open and /delete.
func printChatList(sess *session.Session) {
	snap := sess.Snapshot()
	if len(snap.Chats) == 0 {
		fmt.Println(InfoStyle.Render("No chats yet. Just type a message to start one."))
		return
	}
	for i, c := range snap.Chats {
		marker := "  "
		if c.ID == snap.ActiveChatID {
			marker = "* "
		}
		fmt.Printf("%s%2d. %s  %s\n", marker, i+1,
			ValueStyle.Render(c.Title),
			InfoStyle.Render(fmt.Sprintf("(%d messages)", c.MessageCount)))
	}
}

// chatByNumber resolves a 1-based list index to a chat id.
func chatByNumber(sess *session.Session, arg string) string {
	n, err := strconv.Atoi(arg)
	snap := sess.Snapshot()
	if err != nil || n < 1 || n > len(snap.Chats) {
		fmt.Fprintln(os.Stderr, WarningStyle.Render("expected a chat number from /list"))
		return ""
	}
	return snap.Chats[n-1].ID
}

// printTranscript renders the active transcript.
func printTranscript(sess *session.Session, renderer *glamour.TermRenderer) {
	snap := sess.Snapshot()
	for _, msg := range snap.Messages {
		label := msg.Role.DisplayName()
		switch msg.Role {
		case model.RoleUser:
			fmt.Println(PromptStyle.Render(label + ":"))
			fmt.Println(msg.Content)
			if msg.Status == model.StatusFailed {
				fmt.Println(ErrorStyle.Render("  [failed to send]"))
			}
		default:
			fmt.Println(TitleStyle.Render(label + ":"))
			printMarkdown(renderer, msg.Content)
		}
		fmt.Println()
	}
}

// =============================================================================
// MARKDOWN OUTPUT
// =============================================================================

// newMarkdownRenderer builds a glamour renderer for TTY output, or nil when
// piped.
func newMarkdownRenderer() *glamour.TermRenderer {
	if !IsStdoutTTY() {
		return nil
	}
	width := TerminalWidth()
	if width > 100 {
		width = 100
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	return renderer
}

func printMarkdown(renderer *glamour.TermRenderer, content string) {
	if renderer != nil {
		if out, err := renderer.Render(content); err == nil {
			fmt.Print(out)
			return
		}
	}
	fmt.Println(content)
}
