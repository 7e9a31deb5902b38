// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/creaty-tui/internal/model"
)

// chromeHeight is the number of terminal rows taken by everything that is
// not the transcript viewport: header, status line, input line.
const chromeHeight = 4

// =============================================================================
// STYLES
// =============================================================================

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			Padding(0, 1)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Padding(0, 1)

	userLabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	aiLabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	thoughtStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Italic(true)

	pickerTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("205")).
				Padding(0, 1)

	pickerSelectedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("205")).
				Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "starting..."
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render("Creaty Chat · " + m.orch.Title()))
	b.WriteString("\n")

	if m.mode == ModeSessions {
		b.WriteString(m.renderSessions())
	} else {
		b.WriteString(m.viewport.View())
	}
	b.WriteString("\n")

	b.WriteString(statusStyle.Render(m.statusLine()))
	b.WriteString("\n")
	b.WriteString(m.renderInput())
	return b.String()
}

func (m Model) statusLine() string {
	if m.orch.Busy() {
		return m.spin.View() + " " + m.status
	}
	return m.status + "  " + helpStyle.Render(m.helpHint())
}

func (m Model) helpHint() string {
	switch m.mode {
	case ModeSessions:
		return "enter open · ctrl+d delete · ctrl+e rename · esc back"
	case ModeRename:
		return "enter save · esc cancel"
	default:
		return "ctrl+s sessions · ctrl+n new · ctrl+t thoughts · ctrl+r news · ctrl+a speak · ctrl+c quit"
	}
}

func (m Model) renderInput() string {
	if m.mode == ModeSessions {
		return helpStyle.Render("  (browsing sessions)")
	}
	if m.mode == ModeRename {
		return "rename: " + m.input.View()
	}
	return m.input.View()
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// renderConversation renders the full transcript for the viewport.
func (m *Model) renderConversation() string {
	var b strings.Builder
	for i, msg := range m.msgs {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(m.renderMessage(msg))
	}
	return b.String()
}

func (m *Model) renderMessage(msg model.Snapshot) string {
	var b strings.Builder

	label := msg.Role.DisplayName()
	switch msg.Role {
	case model.RoleUser:
		b.WriteString(userLabelStyle.Render(label))
	default:
		b.WriteString(aiLabelStyle.Render(label))
	}
	if msg.Streaming {
		b.WriteString(" " + m.spin.View())
	}
	b.WriteString("\n")

	if m.showThoughts && msg.Thought != "" {
		for _, line := range strings.Split(strings.TrimRight(msg.Thought, "\n"), "\n") {
			b.WriteString(thoughtStyle.Render("┆ "+line) + "\n")
		}
	}

	switch {
	case msg.Content == "" && msg.Streaming:
		b.WriteString(thoughtStyle.Render("...") + "\n")
	case msg.Role == model.RoleAI && !msg.Streaming:
		b.WriteString(m.renderMarkdown(msg.Content))
	default:
		// User text and in-flight AI text render raw; markdown styling of a
		// half-received document produces flicker.
		b.WriteString(msg.Content + "\n")
	}
	return b.String()
}

// renderMarkdown runs glamour over finalized AI answers, falling back to
// plain text when the renderer is unavailable.
func (m *Model) renderMarkdown(text string) string {
	if m.renderer == nil {
		return text + "\n"
	}
	out, err := m.renderer.Render(text)
	if err != nil {
		return text + "\n"
	}
	return out
}

// =============================================================================
// SESSIONS PICKER
// =============================================================================

func (m Model) renderSessions() string {
	var b strings.Builder
	b.WriteString(pickerTitleStyle.Render("Recent Sessions"))
	b.WriteString("\n\n")

	if len(m.sessions) == 0 {
		b.WriteString(helpStyle.Render("  no saved sessions"))
	}
	for i, s := range m.sessions {
		row := sessionLabel(s.Title, i, m.selected)
		if i == m.selected {
			row = pickerSelectedStyle.Render(row)
		}
		b.WriteString(row + "\n")
	}

	// Pad to the viewport height so the chrome stays put.
	rendered := b.String()
	lines := strings.Count(rendered, "\n") + 1
	for lines < m.viewport.Height {
		rendered += "\n"
		lines++
	}
	return rendered
}
