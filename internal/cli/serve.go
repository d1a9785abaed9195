// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// serve.go - Reference backend server command for the surya CLI.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jeranaias/surya-tui/internal/config"
	"github.com/jeranaias/surya-tui/internal/server"
	"github.com/jeranaias/surya-tui/internal/storage"
)

// HandleServe runs the reference backend server until interrupted.
func HandleServe(args *Args) error {
	cfg := config.Global()

	port := cfg.Server.Port
	if args.Port != 0 {
		port = args.Port
	}
	dbPath := cfg.Server.DatabasePath
	if args.DBPath != "" {
		dbPath = args.DBPath
	}

	store, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open chat store: %w", err)
	}
	defer store.Close()

	srv := server.NewServer(port, store).
		WithDelay(time.Duration(cfg.Server.ThinkingDelayMs) * time.Millisecond)

	// Reload config on file changes while serving.
	if watcher, err := config.NewWatcher(nil); err == nil {
		if err := watcher.Watch(); err == nil {
			defer watcher.Close()
		}
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	if !args.Quiet {
		fmt.Println(TitleStyle.Render("Surya backend"))
		fmt.Printf("%s http://127.0.0.1:%d/api\n", LabelStyle.Render("Listening"), srv.Port())
		fmt.Printf("%s %s\n", LabelStyle.Render("Database"), ValueStyle.Render(dbPath))
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case sig := <-sigCh:
		log.Printf("SERVER_SIGNAL | sig=%v", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			return err
		}
	}
	return nil
}
