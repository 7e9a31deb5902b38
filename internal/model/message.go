// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/creaty-tui/internal/stream"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
// The backend uses "ai" (not "assistant") for model turns.
type Role string

const (
	RoleUser Role = "user"
	RoleAI   Role = "ai"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAI:
		return "Creaty"
	default:
		return string(r)
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single conversational turn.
//
// An AI message carries two ordered text buffers: Content (the final-answer
// channel) and Thought (the reasoning channel). While the turn is open both
// are append-only; once the turn is finalized the message is immutable and
// the buffers become the source of truth for persistence.
type Message struct {
	Role      Role
	Timestamp time.Time

	// Final buffers, set when the turn completes (or immediately for user
	// and greeting messages).
	Content string
	Thought string

	// TurnID routes incoming stream events to this message while it is the
	// single open turn. Empty for user messages and finalized turns.
	TurnID string

	// PERFORMANCE: strings.Builder avoids quadratic allocations during streaming
	open       bool
	contentBuf strings.Builder
	thoughtBuf strings.Builder
}

// NewUserMessage creates an immutable user message.
func NewUserMessage(content string) *Message {
	return &Message{
		Role:      RoleUser,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewPlaceholder creates an open AI message with empty buffers and a fresh
// turn id.
func NewPlaceholder() *Message {
	return &Message{
		Role:      RoleAI,
		Timestamp: time.Now(),
		TurnID:    uuid.NewString(),
		open:      true,
	}
}

// GreetingText is the canned first message of every new conversation.
const GreetingText = "Hello! I am connected to **Qwen 3 (NVIDIA)** and your local **News Database**. \n\nI can analyze PDFs, read the latest news, and answer your questions with real-time reasoning."

// NewGreetingMessage creates the default greeting shown in a fresh
// conversation. It is never persisted.
func NewGreetingMessage() *Message {
	return &Message{
		Role:      RoleAI,
		Content:   GreetingText,
		Timestamp: time.Now(),
	}
}

// =============================================================================
// STREAMING MUTATION
// =============================================================================

// Append folds one classified stream event into the matching buffer.
// Appending to a finalized message is a no-op.
func (m *Message) Append(ev stream.Event) {
	if !m.open {
		return
	}
	switch ev.Kind {
	case stream.KindThought:
		m.thoughtBuf.WriteString(ev.Text)
	default:
		m.contentBuf.WriteString(ev.Text)
	}
}

// Finalize closes the turn: the buffers are frozen into Content/Thought and
// the message becomes immutable.
func (m *Message) Finalize() {
	if !m.open {
		return
	}
	m.Content = m.contentBuf.String()
	m.Thought = m.thoughtBuf.String()
	m.contentBuf.Reset()
	m.thoughtBuf.Reset()
	m.open = false
	m.TurnID = ""
}

// IsOpen reports whether the turn is still accepting stream events.
func (m *Message) IsOpen() bool {
	return m.open
}

// DisplayContent returns the answer text to render (streaming or final).
func (m *Message) DisplayContent() string {
	if m.open {
		return m.contentBuf.String()
	}
	return m.Content
}

// DisplayThought returns the reasoning text to render (streaming or final).
func (m *Message) DisplayThought() string {
	if m.open {
		return m.thoughtBuf.String()
	}
	return m.Thought
}

// IsEmpty returns true if the message has no answer text.
func (m *Message) IsEmpty() bool {
	return len(m.Content) == 0 && m.contentBuf.Len() == 0
}

// Preview returns a truncated preview of the message content.
// Uses rune-based truncation to handle Unicode correctly.
func (m *Message) Preview(maxLen int) string {
	content := m.DisplayContent()
	runes := []rune(content)
	if len(runes) <= maxLen {
		return content
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// snapshot returns an immutable value copy for the rendering layer.
func (m *Message) snapshot() Snapshot {
	return Snapshot{
		Role:      m.Role,
		Content:   m.DisplayContent(),
		Thought:   m.DisplayThought(),
		Streaming: m.open,
		Timestamp: m.Timestamp,
	}
}

// Snapshot is a read-only view of a message. The rendering layer only ever
// sees snapshots, so mid-stream mutations can never tear a render.
type Snapshot struct {
	Role      Role
	Content   string
	Thought   string
	Streaming bool
	Timestamp time.Time
}
