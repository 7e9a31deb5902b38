// creaty-tui - A terminal client for the Creaty content workspace.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/creaty-tui/internal/api"
	"github.com/jeranaias/creaty-tui/internal/chat"
	"github.com/jeranaias/creaty-tui/internal/config"
	"github.com/jeranaias/creaty-tui/internal/session"
	uichat "github.com/jeranaias/creaty-tui/internal/ui/chat"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	var (
		projectID   = flag.String("project", "", "attach to a project workspace chat instead of standalone sessions")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("creaty-tui %s (%s, built %s)\n", Version, GitCommit, BuildDate)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *projectID != "" {
		cfg.API.ProjectID = *projectID
	}

	// Client diagnostics go to a file; stderr belongs to the terminal UI.
	setupLogging()

	client, err := api.NewClient(cfg.API.BaseURL, cfg.API.Token)
	if err != nil {
		fmt.Fprintf(os.Stderr, "api: %v\n", err)
		os.Exit(1)
	}

	scope := session.Standalone()
	if cfg.API.ProjectID != "" {
		scope = session.Workspace(cfg.API.ProjectID)
	}
	sessions := session.NewManager(client, scope)

	orch := chat.New(client, sessions, chat.WithHistoryLimit(cfg.Chat.HistoryLimit))

	p := tea.NewProgram(uichat.New(orch, client, cfg), tea.WithAltScreen())
	orch.SetNotify(func() {
		p.Send(uichat.ConversationChangedMsg{})
	})

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "creaty-tui: %v\n", err)
		os.Exit(1)
	}
}

// setupLogging redirects the standard logger away from the terminal. The
// UI owns the screen; diagnostics that raced with it would corrupt frames.
func setupLogging() {
	home, err := os.UserHomeDir()
	if err != nil {
		log.SetOutput(io.Discard)
		return
	}
	dir := filepath.Join(home, ".creaty")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		log.SetOutput(io.Discard)
		return
	}
	f, err := os.OpenFile(filepath.Join(dir, "client.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		log.SetOutput(io.Discard)
		return
	}
	log.SetOutput(f)
}
