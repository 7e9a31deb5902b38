// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/creaty-tui/internal/util"
)

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		vpHeight := msg.Height - chromeHeight
		if vpHeight < 1 {
			vpHeight = 1
		}
		if !m.ready {
			m.viewport = viewport.New(msg.Width, vpHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = vpHeight
		}
		m.input.Width = msg.Width - 4
		m.rebuildRenderer()
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case ConversationChangedMsg:
		if m.limiter.Mark() {
			m.refresh()
		}
		return m, nil

	case RenderTickMsg:
		if m.limiter.Flush() {
			m.refresh()
		}
		if m.orch.Busy() {
			return m, renderTickCmd()
		}
		return m, nil

	case TurnDoneMsg:
		m.limiter.Flush()
		m.refresh()
		if msg.Err != nil {
			m.status = "error: " + msg.Err.Error()
		} else {
			m.status = "ready"
		}
		// A first turn may have created a session behind the scenes.
		return m, loadSessionsCmd(m.orch)

	case SessionsLoadedMsg:
		m.sessions = msg.Sessions
		if m.selected >= len(m.sessions) {
			m.selected = 0
		}
		return m, nil

	case SessionOpenedMsg:
		if msg.Err != nil {
			m.status = "load failed: " + msg.Err.Error()
			return m, nil
		}
		m.mode = ModeChat
		m.input.Focus()
		m.limiter.Reset()
		m.refresh()
		m.status = "session loaded"
		return m, nil

	case SessionDeletedMsg:
		if msg.Err != nil {
			m.status = "delete failed: " + msg.Err.Error()
			return m, nil
		}
		m.refresh()
		m.status = "session deleted"
		return m, loadSessionsCmd(m.orch)

	case SessionRenamedMsg:
		if msg.Err != nil {
			m.status = "rename failed: " + msg.Err.Error()
			return m, nil
		}
		m.status = "session renamed"
		return m, loadSessionsCmd(m.orch)

	case NewsUpdatedMsg:
		if msg.Err != nil {
			m.status = "news update failed: " + msg.Err.Error()
		} else {
			m.status = "news database updated"
		}
		return m, nil

	case SpeechSavedMsg:
		if msg.Err != nil {
			m.status = "speech failed: " + msg.Err.Error()
		} else {
			m.status = "speech saved to " + msg.Path
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	return m.updateFocused(msg)
}

// handleKey dispatches key presses by input mode.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Global bindings first.
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	}

	switch m.mode {
	case ModeSessions:
		return m.handleSessionsKey(msg)
	case ModeRename:
		return m.handleRenameKey(msg)
	default:
		return m.handleChatKey(msg)
	}
}

func (m Model) handleChatKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		prompt := strings.TrimSpace(m.input.Value())
		if prompt == "" {
			return m, nil
		}
		if m.orch.Busy() {
			m.status = "still answering, hold on"
			return m, nil
		}
		m.input.Reset()
		m.status = "thinking..."
		m.limiter.Reset()
		return m, tea.Batch(sendCmd(m.orch, prompt), renderTickCmd())

	case "ctrl+n":
		if m.orch.Busy() {
			m.status = "finishing current turn"
		}
		m.orch.NewChat()
		m.limiter.Reset()
		m.refresh()
		m.status = "new chat"
		return m, loadSessionsCmd(m.orch)

	case "ctrl+s":
		m.mode = ModeSessions
		m.input.Blur()
		return m, loadSessionsCmd(m.orch)

	case "ctrl+t":
		m.showThoughts = !m.showThoughts
		m.refresh()
		if m.showThoughts {
			m.status = "thoughts shown"
		} else {
			m.status = "thoughts hidden"
		}
		return m, nil

	case "ctrl+r":
		m.status = "updating news database..."
		return m, updateNewsCmd(m.client)

	case "ctrl+a":
		text := m.lastAnswer()
		if text == "" {
			m.status = "nothing to speak yet"
			return m, nil
		}
		m.status = "synthesizing speech..."
		return m, speakCmd(m.client, text)
	}

	return m.updateFocused(msg)
}

func (m Model) handleSessionsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "ctrl+s":
		m.mode = ModeChat
		m.input.Focus()
		return m, nil

	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}
		return m, nil

	case "down", "j":
		if m.selected < len(m.sessions)-1 {
			m.selected++
		}
		return m, nil

	case "enter":
		if len(m.sessions) == 0 {
			return m, nil
		}
		id := m.sessions[m.selected].ID
		m.status = "loading session..."
		return m, openSessionCmd(m.orch, id)

	case "ctrl+d":
		if len(m.sessions) == 0 {
			return m, nil
		}
		id := m.sessions[m.selected].ID
		m.status = "deleting..."
		return m, deleteSessionCmd(m.orch, id)

	case "ctrl+e":
		if len(m.sessions) == 0 {
			return m, nil
		}
		m.mode = ModeRename
		m.input.SetValue(m.sessions[m.selected].Title)
		m.input.Focus()
		m.input.CursorEnd()
		return m, nil
	}
	return m, nil
}

func (m Model) handleRenameKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = ModeSessions
		m.input.Reset()
		m.input.Blur()
		return m, nil

	case "enter":
		title := strings.TrimSpace(m.input.Value())
		m.input.Reset()
		m.input.Blur()
		m.mode = ModeSessions
		if title == "" || len(m.sessions) == 0 {
			return m, nil
		}
		id := m.sessions[m.selected].ID
		return m, renameSessionCmd(m.orch, id, title)
	}
	return m.updateFocused(msg)
}

// updateFocused forwards remaining messages to the focused components.
func (m Model) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	if m.mode != ModeSessions {
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}
	if m.ready {
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// pickerTitleMax caps how many characters of a session title a picker row
// shows.
const pickerTitleMax = 48

// sessionLabel formats one row of the sessions picker.
func sessionLabel(title string, i, selected int) string {
	cursor := "  "
	if i == selected {
		cursor = "> "
	}
	if title == "" {
		title = "(untitled)"
	}
	return fmt.Sprintf("%s%s", cursor, util.TruncateRunes(title, pickerTitleMax))
}
