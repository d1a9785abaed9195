// surya TUI - A terminal interface for the Surya AI chat assistant.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/surya-tui/internal/cli"
	"github.com/jeranaias/surya-tui/internal/config"
	"github.com/jeranaias/surya-tui/internal/session"
	"github.com/jeranaias/surya-tui/internal/sim"
	"github.com/jeranaias/surya-tui/internal/ui/chat"
	"github.com/jeranaias/surya-tui/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse()

	switch cmd {
	case cli.CmdHelp:
		cli.HandleHelp()

	case cli.CmdVersion:
		cli.HandleVersion()

	case cli.CmdStatus:
		cli.HandleStatus(args)

	case cli.CmdServe:
		if err := cli.HandleServe(args); err != nil {
			fmt.Fprintf(os.Stderr, "surya serve: %v\n", err)
			os.Exit(1)
		}

	case cli.CmdChat:
		cli.HandleChat(args)

	default:
		runTUI(args)
	}
}

// runTUI launches the full-screen Bubble Tea interface.
func runTUI(args *cli.Args) {
	cfg := config.Global()

	backend := cli.BuildBackend(args)
	sess := session.New(backend)

	label := cfg.Backend.BaseURL
	if _, mock := backend.(*sim.Sim); mock {
		label = "sim"
	}

	m := chat.New(sess, styles.NewTheme(cfg.UI.Theme), label)

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "surya: %v\n", err)
		os.Exit(1)
	}
}
