// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"encoding/json"
	"log"
)

// =============================================================================
// EVENT TYPES
// =============================================================================

// Kind identifies which logical channel an event belongs to.
type Kind int

const (
	// KindContent is the final-answer channel (the default).
	KindContent Kind = iota
	// KindThought is the reasoning channel.
	KindThought
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	if k == KindThought {
		return "thought"
	}
	return "content"
}

// Event is one classified token delta from the stream.
// Events are transient; they exist only inside the decode pipeline for the
// duration of one turn and are never persisted.
type Event struct {
	Kind Kind
	Text string
}

// framePayload is the wire shape of a frame body.
// Any discriminator value other than "thought" routes to the content channel.
type framePayload struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// =============================================================================
// EVENT CLASSIFIER
// =============================================================================

// Classifier interprets decoded frame payloads as stream events.
//
// A payload that fails to parse is discarded and counted; one malformed frame
// must never lose the rest of the turn.
type Classifier struct {
	// Dropped counts frames discarded as malformed.
	Dropped int
}

// Classify parses one frame payload. The second return value is false when
// the frame was discarded.
func (c *Classifier) Classify(payload []byte) (Event, bool) {
	var frame framePayload
	if err := json.Unmarshal(payload, &frame); err != nil {
		c.Dropped++
		log.Printf("stream: dropping malformed frame (%d dropped): %v", c.Dropped, err)
		return Event{}, false
	}

	kind := KindContent
	if frame.Type == "thought" {
		kind = KindThought
	}

	return Event{Kind: kind, Text: frame.Content}, true
}
