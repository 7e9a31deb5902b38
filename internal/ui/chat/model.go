// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/creaty-tui/internal/api"
	engine "github.com/jeranaias/creaty-tui/internal/chat"
	"github.com/jeranaias/creaty-tui/internal/config"
	"github.com/jeranaias/creaty-tui/internal/model"
)

// Mode is the view's input mode.
type Mode int

const (
	// ModeChat is the normal prompt-entry mode.
	ModeChat Mode = iota
	// ModeSessions shows the recent-sessions picker.
	ModeSessions
	// ModeRename reuses the input line to retitle the selected session.
	ModeRename
)

// Model is the Bubble Tea model for the conversation view.
//
// The model never touches conversation state directly: it pulls immutable
// snapshots from the orchestrator and treats them as read-only, so a
// mid-stream mutation can never tear a frame.
type Model struct {
	orch   *engine.Orchestrator
	client *api.Client
	cfg    *config.Config

	input    textinput.Model
	viewport viewport.Model
	spin     spinner.Model
	limiter  *RenderLimiter
	renderer *glamour.TermRenderer

	msgs     []model.Snapshot
	sessions []api.SessionMeta
	selected int

	mode         Mode
	showThoughts bool
	status       string
	width        int
	height       int
	ready        bool
}

// New creates the conversation view.
func New(orch *engine.Orchestrator, client *api.Client, cfg *config.Config) Model {
	ti := textinput.New()
	ti.Placeholder = "Ask anything..."
	ti.CharLimit = 0
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return Model{
		orch:         orch,
		client:       client,
		cfg:          cfg,
		input:        ti,
		spin:         sp,
		limiter:      NewRenderLimiter(),
		msgs:         orch.Snapshot(),
		showThoughts: cfg.UI.ShowThoughts,
		status:       "ready",
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.spin.Tick,
		loadSessionsCmd(m.orch),
	)
}

// refresh pulls a fresh snapshot and rebuilds the transcript.
func (m *Model) refresh() {
	m.msgs = m.orch.Snapshot()
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderConversation())
	m.viewport.GotoBottom()
}

// wrapWidth returns the markdown render width for the current terminal.
func (m *Model) wrapWidth() int {
	if m.cfg.UI.WrapWidth > 0 {
		return m.cfg.UI.WrapWidth
	}
	w := m.width - 4
	if w < 20 {
		w = 20
	}
	return w
}

// rebuildRenderer recreates the glamour renderer after a resize.
func (m *Model) rebuildRenderer() {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(m.wrapWidth()),
	)
	if err != nil {
		// Fall back to raw text rendering.
		m.renderer = nil
		return
	}
	m.renderer = r
}

// lastAnswer returns the newest finalized AI answer, for the TTS shortcut.
func (m *Model) lastAnswer() string {
	for i := len(m.msgs) - 1; i >= 0; i-- {
		if m.msgs[i].Role == model.RoleAI && !m.msgs[i].Streaming && m.msgs[i].Content != "" {
			return m.msgs[i].Content
		}
	}
	return ""
}
