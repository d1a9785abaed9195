// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"time"

	"github.com/jeranaias/surya-tui/internal/api"
	"github.com/jeranaias/surya-tui/internal/config"
	"github.com/jeranaias/surya-tui/internal/sim"
)

// BuildBackend constructs the backend from config and CLI flags. Flags win
// over config; mock mode returns the in-process simulator.
func BuildBackend(args *Args) api.Backend {
	cfg := config.Global()

	if args.Mock || cfg.Backend.Mock {
		return sim.New()
	}

	baseURL := cfg.Backend.BaseURL
	if args.Backend != "" {
		baseURL = args.Backend
	}

	client := api.NewClient(baseURL)
	if cfg.Backend.TimeoutSecs > 0 {
		client.WithTimeout(time.Duration(cfg.Backend.TimeoutSecs) * time.Second)
	}
	return client
}
