// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// status.go - Backend health check for the surya CLI.
package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/jeranaias/surya-tui/internal/config"
)

// HandleStatus probes the backend and prints health and configuration.
func HandleStatus(args *Args) {
	cfg := config.Global()
	backend := BuildBackend(args)

	fmt.Println(TitleStyle.Render("Surya status"))
	fmt.Println()
	fmt.Printf("%s %s\n", LabelStyle.Render("Backend"), ValueStyle.Render(cfg.Backend.BaseURL))
	fmt.Printf("%s %ds\n", LabelStyle.Render("Timeout"), cfg.Backend.TimeoutSecs)
	if args.Mock || cfg.Backend.Mock {
		fmt.Printf("%s %s\n", LabelStyle.Render("Mode"), WarningStyle.Render("mock (simulated)"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	start := time.Now()
	status, err := backend.Health(ctx)
	if err != nil {
		fmt.Printf("%s %s\n", LabelStyle.Render("Health"), ErrorStyle.Render("unreachable"))
		if args.Verbose {
			fmt.Printf("%s %v\n", LabelStyle.Render(""), err)
		}
		return
	}

	fmt.Printf("%s %s %s\n", LabelStyle.Render("Health"),
		SuccessStyle.Render(status.Status),
		InfoStyle.Render(fmt.Sprintf("(%s, %v)", status.Service, time.Since(start).Round(time.Millisecond))))

	chats, err := backend.ListChats(ctx)
	if err == nil {
		fmt.Printf("%s %d\n", LabelStyle.Render("Chats"), len(chats))
	}
}
