// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing and command handlers for surya.
package cli

import (
	"fmt"
	"os"
	"runtime"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdChat
	CmdServe
	CmdStatus
	CmdVersion
	CmdHelp
)

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Quiet   bool
	Verbose bool
	Mock    bool // use the in-process simulated backend

	// Command-specific
	Backend string // backend base URL override
	Port    int
	DBPath  string

	// Raw args remaining after flag parsing
	Raw []string
}

const usageText = `surya - Surya AI terminal chat client

Surya is a terminal client for the Surya AI chat backend.

It provides:
  - A full-screen chat interface (sidebar, transcript, code, preview)
  - A line-based REPL for quick conversations
  - A reference backend server with SQLite persistence
  - A mock mode with a simulated assistant

Usage:
  surya                      Start the TUI (default)
  surya chat                 Line-based interactive chat
  surya serve                Run the reference backend server
  surya status, s            Check backend health and show config
  surya version, -v          Show version information
  surya help, -h             Show this help

Global flags:
  --backend URL    Backend base URL (default http://127.0.0.1:8787)
  --mock           Use the in-process simulated backend
  -q, --quiet      Minimal output
  --verbose        Verbose output

Serve flags:
  --port N         Listen port (default 8787)
  --db PATH        SQLite database path (default ~/.surya/surya.db)

Environment:
  SURYA_BACKEND_URL   Backend base URL
  SURYA_MOCK          "1" to force the mock backend
  SURYA_PORT          Server port
  SURYA_DB            Server database path
  SURYA_THEME         UI theme (dark|light)

Configuration file: ~/.surya/config.toml
`

// Parse parses os.Args into a command and its arguments.
func Parse() (Command, *Args) {
	return ParseArgs(os.Args[1:])
}

// ParseArgs parses the given arguments. Split out for testing.
func ParseArgs(argv []string) (Command, *Args) {
	args := &Args{}
	cmd := CmdTUI

	rest := make([]string, 0, len(argv))
	i := 0
	for i < len(argv) {
		arg := argv[i]
		switch {
		case arg == "-q" || arg == "--quiet":
			args.Quiet = true
		case arg == "--verbose":
			args.Verbose = true
		case arg == "--mock":
			args.Mock = true
		case arg == "--backend":
			if i+1 < len(argv) {
				args.Backend = argv[i+1]
				i++
			}
		case strings.HasPrefix(arg, "--backend="):
			args.Backend = strings.TrimPrefix(arg, "--backend=")
		case arg == "--port":
			if i+1 < len(argv) {
				fmt.Sscanf(argv[i+1], "%d", &args.Port)
				i++
			}
		case strings.HasPrefix(arg, "--port="):
			fmt.Sscanf(strings.TrimPrefix(arg, "--port="), "%d", &args.Port)
		case arg == "--db":
			if i+1 < len(argv) {
				args.DBPath = argv[i+1]
				i++
			}
		case strings.HasPrefix(arg, "--db="):
			args.DBPath = strings.TrimPrefix(arg, "--db=")
		default:
			rest = append(rest, arg)
		}
		i++
	}

	if len(rest) > 0 {
		switch rest[0] {
		case "chat":
			cmd = CmdChat
		case "serve":
			cmd = CmdServe
		case "status", "s":
			cmd = CmdStatus
		case "version", "-v", "--version":
			cmd = CmdVersion
		case "help", "-h", "--help":
			cmd = CmdHelp
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", rest[0])
			cmd = CmdHelp
		}
		args.Raw = rest[1:]
	}

	return cmd, args
}

// HandleHelp prints usage.
func HandleHelp() {
	fmt.Print(usageText)
}

// HandleVersion prints version information.
func HandleVersion() {
	fmt.Printf("surya %s\n", Version)
	fmt.Printf("  commit:  %s\n", GitCommit)
	fmt.Printf("  built:   %s\n", BuildDate)
	fmt.Printf("  go:      %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
