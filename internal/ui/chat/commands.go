// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/creaty-tui/internal/api"
	engine "github.com/jeranaias/creaty-tui/internal/chat"
)

// sessionOpTimeout bounds the persistence calls issued from the UI. The chat
// stream itself is never subject to a client-side timeout.
const sessionOpTimeout = 10 * time.Second

// sendCmd runs one complete chat turn on its own goroutine. Token-level
// updates arrive separately through the orchestrator's change notification.
func sendCmd(orch *engine.Orchestrator, prompt string) tea.Cmd {
	return func() tea.Msg {
		return TurnDoneMsg{Err: orch.Send(context.Background(), prompt)}
	}
}

// loadSessionsCmd fetches the recent-sessions list (fail-soft).
func loadSessionsCmd(orch *engine.Orchestrator) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), sessionOpTimeout)
		defer cancel()
		return SessionsLoadedMsg{Sessions: orch.ListSessions(ctx)}
	}
}

// openSessionCmd loads a stored session into the conversation.
func openSessionCmd(orch *engine.Orchestrator, id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), sessionOpTimeout)
		defer cancel()
		return SessionOpenedMsg{ID: id, Err: orch.LoadSession(ctx, id)}
	}
}

// deleteSessionCmd removes a stored session.
func deleteSessionCmd(orch *engine.Orchestrator, id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), sessionOpTimeout)
		defer cancel()
		return SessionDeletedMsg{ID: id, Err: orch.DeleteSession(ctx, id)}
	}
}

// renameSessionCmd retitles a stored session.
func renameSessionCmd(orch *engine.Orchestrator, id, title string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), sessionOpTimeout)
		defer cancel()
		return SessionRenamedMsg{Err: orch.RenameSession(ctx, id, title)}
	}
}

// updateNewsCmd asks the backend to refresh its knowledge base.
func updateNewsCmd(client *api.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()
		return NewsUpdatedMsg{Err: client.UpdateNews(ctx)}
	}
}

// speakCmd fetches a text-to-speech rendering of the last answer and writes
// it next to the temp dir for an external player.
func speakCmd(client *api.Client, text string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		audio, err := client.Speak(ctx, text)
		if err != nil {
			return SpeechSavedMsg{Err: err}
		}
		path := filepath.Join(os.TempDir(), "creaty-tts.wav")
		if err := os.WriteFile(path, audio, 0o600); err != nil {
			return SpeechSavedMsg{Err: err}
		}
		return SpeechSavedMsg{Path: path}
	}
}
