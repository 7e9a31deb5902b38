// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"github.com/jeranaias/creaty-tui/internal/stream"
)

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation is the ordered list of messages for the visible conversation.
// Insertion order is display order is chronological order.
//
// The conversation is owned exclusively by the chat orchestrator; the
// rendering layer only ever reads value snapshots. At most one message may be
// an open (in-flight) AI turn at any time.
type Conversation struct {
	messages []*Message
	openTurn string // turn id of the open placeholder, "" when idle
}

// NewConversation creates a conversation seeded with the default greeting.
func NewConversation() *Conversation {
	c := &Conversation{}
	c.Reset()
	return c
}

// =============================================================================
// TURN LIFECYCLE
// =============================================================================

// AppendUser pushes a new immutable user message.
func (c *Conversation) AppendUser(content string) *Message {
	msg := NewUserMessage(content)
	c.messages = append(c.messages, msg)
	return msg
}

// OpenPlaceholder pushes a new open AI message with empty buffers and returns
// its turn id.
//
// Opening a second placeholder while one is open is a programmer error, not a
// recoverable failure, and panics.
func (c *Conversation) OpenPlaceholder() string {
	if c.openTurn != "" {
		panic("conversation: placeholder already open for turn " + c.openTurn)
	}
	msg := NewPlaceholder()
	c.messages = append(c.messages, msg)
	c.openTurn = msg.TurnID
	return msg.TurnID
}

// Accumulate appends one stream event to the message with the given turn id.
//
// Returns false when the turn id does not match the open placeholder: a
// lingering read from a stream the user has already navigated away from must
// not mutate state.
func (c *Conversation) Accumulate(turnID string, ev stream.Event) bool {
	if turnID == "" || turnID != c.openTurn {
		return false
	}
	msg := c.openMessage()
	if msg == nil {
		return false
	}
	msg.Append(ev)
	return true
}

// ClosePlaceholder finalizes the open turn, making its message immutable.
// Returns the finalized message, or nil if the turn id is stale.
func (c *Conversation) ClosePlaceholder(turnID string) *Message {
	if turnID == "" || turnID != c.openTurn {
		return nil
	}
	msg := c.openMessage()
	if msg == nil {
		return nil
	}
	msg.Finalize()
	c.openTurn = ""
	return msg
}

// OpenTurnID returns the id of the in-flight turn, or "" when idle.
func (c *Conversation) OpenTurnID() string {
	return c.openTurn
}

// Reset clears all messages and reseeds the default greeting.
// Any open placeholder is abandoned; its turn id becomes stale.
func (c *Conversation) Reset() {
	c.messages = []*Message{NewGreetingMessage()}
	c.openTurn = ""
}

// Replace swaps the conversation contents with persisted history, used when
// reopening a stored session. Empty history reseeds the greeting.
func (c *Conversation) Replace(msgs []*Message) {
	if len(msgs) == 0 {
		c.Reset()
		return
	}
	c.messages = msgs
	c.openTurn = ""
}

// openMessage returns the message owning the open turn.
func (c *Conversation) openMessage() *Message {
	for i := len(c.messages) - 1; i >= 0; i-- {
		if c.messages[i].TurnID == c.openTurn {
			return c.messages[i]
		}
	}
	return nil
}

// =============================================================================
// READ ACCESS
// =============================================================================

// Len returns the number of messages.
func (c *Conversation) Len() int {
	return len(c.messages)
}

// Snapshot returns immutable value copies of every message, in display order.
func (c *Conversation) Snapshot() []Snapshot {
	out := make([]Snapshot, len(c.messages))
	for i, msg := range c.messages {
		out[i] = msg.snapshot()
	}
	return out
}

// Title derives a conversation title from the first user message.
func (c *Conversation) Title() string {
	for _, msg := range c.messages {
		if msg.Role == RoleUser {
			return msg.Preview(50)
		}
	}
	return "New Conversation"
}

// =============================================================================
// HISTORY PAYLOAD
// =============================================================================

// HistoryEntry is the role/content pair sent to the backend as prior context.
// Thought text never leaves the client.
type HistoryEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// HistoryPayload builds the prior-conversation payload for a chat request.
//
// The live placeholder and all thought buffers are excluded. maxTurns caps
// the number of most-recent entries; zero means no cap and sends everything.
func (c *Conversation) HistoryPayload(maxTurns int) []HistoryEntry {
	entries := make([]HistoryEntry, 0, len(c.messages))
	for _, msg := range c.messages {
		if msg.IsOpen() {
			continue
		}
		entries = append(entries, HistoryEntry{
			Role:    msg.Role.String(),
			Content: msg.Content,
		})
	}
	if maxTurns > 0 && len(entries) > maxTurns {
		entries = entries[len(entries)-maxTurns:]
	}
	return entries
}
