// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the conversation view for the terminal client.
//
// This file defines the Bubble Tea message types used by the view. The
// rendering layer never mutates conversation state; it reacts to change
// notifications by pulling fresh snapshots from the orchestrator.
package chat

import (
	"time"

	"github.com/jeranaias/creaty-tui/internal/api"
)

// =============================================================================
// STREAMING MESSAGES
// =============================================================================

// ConversationChangedMsg signals that the conversation snapshot is stale.
// One is sent per accumulated stream event.
type ConversationChangedMsg struct{}

// RenderTickMsg drives coalesced re-renders while a turn is streaming.
type RenderTickMsg struct {
	Time time.Time
}

// TurnDoneMsg signals that a submitted turn has settled.
type TurnDoneMsg struct {
	Err error
}

// =============================================================================
// SESSION MESSAGES
// =============================================================================

// SessionsLoadedMsg delivers the recent-sessions list.
type SessionsLoadedMsg struct {
	Sessions []api.SessionMeta
}

// SessionOpenedMsg signals that a stored session was loaded (or failed to).
type SessionOpenedMsg struct {
	ID  string
	Err error
}

// SessionDeletedMsg signals the outcome of a session delete.
type SessionDeletedMsg struct {
	ID  string
	Err error
}

// SessionRenamedMsg signals the outcome of a session rename.
type SessionRenamedMsg struct {
	Err error
}

// =============================================================================
// SIDE-CHANNEL MESSAGES
// =============================================================================

// NewsUpdatedMsg reports the knowledge-base refresh outcome. This is the one
// failure class with a dedicated user-visible alert path.
type NewsUpdatedMsg struct {
	Err error
}

// SpeechSavedMsg reports where a text-to-speech payload was written.
type SpeechSavedMsg struct {
	Path string
	Err  error
}
