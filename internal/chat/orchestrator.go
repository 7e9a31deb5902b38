// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat drives one conversation against the Creaty backend.
//
// The orchestrator accepts a user prompt, updates the conversation, opens the
// event stream through the decode pipeline, and performs session persistence
// side effects. It owns cancellation and error handling for the single
// in-flight turn; submitting while a turn is streaming is rejected, never
// queued.
//
// State machine: Idle -> Sending -> Streaming -> Finalizing -> Idle. Any
// transport failure during Sending or Streaming returns the machine to Idle;
// the partial text already accumulated stays visible but is not persisted.
package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"

	"github.com/jeranaias/creaty-tui/internal/api"
	"github.com/jeranaias/creaty-tui/internal/model"
	"github.com/jeranaias/creaty-tui/internal/session"
	"github.com/jeranaias/creaty-tui/internal/stream"
)

// =============================================================================
// STATE
// =============================================================================

// State is the orchestrator's turn-processing state.
type State int

const (
	// StateIdle means no turn is in flight.
	StateIdle State = iota
	// StateSending covers user-message bookkeeping and session setup up to
	// the transport request.
	StateSending
	// StateStreaming means events are being folded into the open placeholder.
	StateStreaming
	// StateFinalizing covers placeholder close and assistant-turn persistence.
	StateFinalizing
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateSending:
		return "sending"
	case StateStreaming:
		return "streaming"
	case StateFinalizing:
		return "finalizing"
	default:
		return "idle"
	}
}

// Error variables for submission rejection.
var (
	// ErrBusy indicates a turn is already in flight.
	ErrBusy = errors.New("a turn is already in flight")

	// ErrEmptyPrompt indicates the submitted prompt was empty or whitespace.
	ErrEmptyPrompt = errors.New("empty prompt")
)

// =============================================================================
// ORCHESTRATOR
// =============================================================================

// Orchestrator is the top-level driver for one visible conversation.
//
// It is the sole writer of the conversation; the rendering layer reads
// immutable snapshots through Snapshot. Send blocks for the whole turn and is
// intended to run on its own goroutine (the UI wraps it in a command), with
// every other method safe to call concurrently.
type Orchestrator struct {
	mu       sync.Mutex
	conv     *model.Conversation
	client   *api.Client
	sessions *session.Manager

	state     State
	sessionID string
	turnID    string // in-flight turn, "" when idle
	cancel    context.CancelFunc

	historyLimit int
	notify       func()
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithHistoryLimit caps how many prior turns are sent as context.
// Zero (the default) sends the full history.
func WithHistoryLimit(n int) Option {
	return func(o *Orchestrator) { o.historyLimit = n }
}

// New creates an orchestrator over a fresh conversation.
func New(client *api.Client, sessions *session.Manager, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		conv:     model.NewConversation(),
		client:   client,
		sessions: sessions,
		state:    StateIdle,
		notify:   func() {},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// SetNotify installs the changed-notification hook. It is invoked once per
// visible state change, including once per accumulated stream event; that is
// the unit of UI update granularity.
func (o *Orchestrator) SetNotify(fn func()) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if fn == nil {
		fn = func() {}
	}
	o.notify = fn
}

// =============================================================================
// READ ACCESS
// =============================================================================

// Snapshot returns immutable copies of the visible messages.
func (o *Orchestrator) Snapshot() []model.Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.conv.Snapshot()
}

// State returns the current turn-processing state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Busy reports whether a turn is in flight.
func (o *Orchestrator) Busy() bool {
	return o.State() != StateIdle
}

// SessionID returns the active persisted session id, "" for a memory-only
// conversation.
func (o *Orchestrator) SessionID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sessionID
}

// Title returns the display title derived from the first user message.
func (o *Orchestrator) Title() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.conv.Title()
}

// =============================================================================
// TURN PROCESSING
// =============================================================================

// Send runs one complete turn: user message, session side effects, transport
// request, stream ingestion, finalization. It blocks until the turn settles.
//
// Returns ErrBusy when a turn is already in flight and ErrEmptyPrompt for
// blank input. A transport error is returned after the machine has settled
// back to Idle; persistence errors are never returned, only logged.
func (o *Orchestrator) Send(ctx context.Context, prompt string) error {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return ErrEmptyPrompt
	}

	// ---- Sending -----------------------------------------------------------

	o.mu.Lock()
	if o.state != StateIdle {
		o.mu.Unlock()
		return ErrBusy
	}
	o.state = StateSending

	// History is captured before the new user message: the request carries
	// the prompt separately, and the placeholder never joins the payload.
	history := historyEntries(o.conv.HistoryPayload(o.historyLimit))
	userMsg := o.conv.AppendUser(prompt)

	turnCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel
	o.mu.Unlock()
	defer cancel()
	o.emit()

	// Session identity is settled before the placeholder's network call so a
	// conversation can never race into creating two sessions.
	sid, err := o.sessions.EnsureSession(turnCtx, o.SessionID(), userMsg)
	if err != nil {
		log.Printf("chat: session creation failed, staying memory-only: %v", err)
		sid = ""
	}

	o.mu.Lock()
	if turnCtx.Err() != nil {
		// The conversation was reset while session setup was in flight.
		// The fresh conversation must not inherit this turn's session id.
		o.mu.Unlock()
		log.Printf("chat: turn abandoned during session setup")
		return nil
	}
	o.sessionID = sid
	o.mu.Unlock()

	if err := o.sessions.AppendMessage(turnCtx, sid, userMsg); err != nil {
		log.Printf("chat: persisting user turn failed: %v", err)
	}

	o.mu.Lock()
	if turnCtx.Err() != nil {
		// Reset during the user-turn flush: bail before the placeholder
		// can land in a conversation this turn no longer belongs to.
		o.mu.Unlock()
		log.Printf("chat: turn abandoned before streaming")
		return nil
	}
	turnID := o.conv.OpenPlaceholder()
	o.turnID = turnID
	o.mu.Unlock()
	o.emit()

	body, err := o.client.ChatStream(turnCtx, prompt, history)
	if err != nil {
		o.settle(turnID, sid, err)
		if turnCtx.Err() != nil {
			return nil
		}
		return fmt.Errorf("chat turn failed: %w", err)
	}
	defer body.Close()

	o.mu.Lock()
	if o.turnID == turnID {
		o.state = StateStreaming
	}
	o.mu.Unlock()

	// ---- Streaming ---------------------------------------------------------

	streamErr := o.consume(turnCtx, body, turnID)

	// ---- Finalizing --------------------------------------------------------

	o.settle(turnID, sid, streamErr)
	if streamErr != nil {
		if turnCtx.Err() != nil {
			// A deliberate reset is not a turn failure.
			return nil
		}
		return fmt.Errorf("chat turn failed: %w", streamErr)
	}
	return nil
}

// consume folds the decoded event stream into the open placeholder.
func (o *Orchestrator) consume(ctx context.Context, body io.Reader, turnID string) error {
	decoder := stream.NewDecoder(body)
	classifier := &stream.Classifier{}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		payload, err := decoder.Next()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}

		ev, ok := classifier.Classify(payload)
		if !ok {
			continue
		}

		o.mu.Lock()
		alive := o.conv.Accumulate(turnID, ev)
		o.mu.Unlock()
		if !alive {
			// The user reset or switched conversations mid-stream; stop
			// listening, the rest of this stream belongs to nobody.
			return nil
		}
		o.emit()
	}
}

// settle closes the placeholder, persists the assistant turn when it earned
// persistence, and returns the machine to Idle.
//
// An empty final answer (thought-only response or transport failure) is
// never persisted; whatever was accumulated stays visible in memory.
func (o *Orchestrator) settle(turnID, sid string, turnErr error) {
	o.mu.Lock()
	if o.turnID == turnID {
		o.state = StateFinalizing
	}
	msg := o.conv.ClosePlaceholder(turnID)
	o.mu.Unlock()
	o.emit()

	if turnErr != nil {
		log.Printf("chat: turn aborted: %v", turnErr)
	} else if msg != nil && msg.Content != "" {
		// Persistence must not block or fail the UI path; the background
		// context keeps a user navigation from cancelling the flush.
		if err := o.sessions.AppendMessage(context.Background(), sid, msg); err != nil {
			log.Printf("chat: persisting assistant turn failed: %v", err)
		}
	}

	o.mu.Lock()
	if o.turnID == turnID {
		o.state = StateIdle
		o.turnID = ""
		o.cancel = nil
	}
	o.mu.Unlock()
	o.emit()
}

// emit fires the changed notification outside the lock.
func (o *Orchestrator) emit() {
	o.mu.Lock()
	fn := o.notify
	o.mu.Unlock()
	fn()
}

// historyEntries converts model history to the wire shape.
func historyEntries(entries []model.HistoryEntry) []api.HistoryEntry {
	out := make([]api.HistoryEntry, len(entries))
	for i, e := range entries {
		out[i] = api.HistoryEntry{Role: e.Role, Content: e.Content}
	}
	return out
}

// =============================================================================
// CONVERSATION LIFECYCLE
// =============================================================================

// NewChat abandons any in-flight stream, clears the conversation back to the
// greeting, and detaches from the persisted session so the next turn creates
// a fresh one.
func (o *Orchestrator) NewChat() {
	o.mu.Lock()
	if o.cancel != nil {
		o.cancel()
	}
	o.conv.Reset()
	o.sessionID = ""
	o.turnID = ""
	o.state = StateIdle
	o.mu.Unlock()
	o.emit()
}

// LoadSession replaces the conversation with a stored session's history and
// makes that session active. An empty stored history reseeds the greeting.
func (o *Orchestrator) LoadSession(ctx context.Context, sessionID string) error {
	msgs, err := o.sessions.LoadHistory(ctx, sessionID)
	if err != nil {
		return err
	}

	o.mu.Lock()
	if o.cancel != nil {
		o.cancel()
	}
	o.conv.Replace(msgs)
	o.sessionID = sessionID
	o.turnID = ""
	o.state = StateIdle
	o.mu.Unlock()
	o.emit()
	return nil
}

// DeleteSession removes a stored session. Deleting the active session also
// resets the visible conversation to the greeting.
func (o *Orchestrator) DeleteSession(ctx context.Context, sessionID string) error {
	if err := o.sessions.Delete(ctx, sessionID); err != nil {
		return err
	}
	if o.SessionID() == sessionID {
		o.NewChat()
	}
	return nil
}

// RenameSession updates a stored session's title. Blank titles are ignored.
func (o *Orchestrator) RenameSession(ctx context.Context, sessionID, title string) error {
	return o.sessions.Rename(ctx, sessionID, title)
}

// ListSessions returns the recent stored sessions, fail-soft.
func (o *Orchestrator) ListSessions(ctx context.Context) []api.SessionMeta {
	return o.sessions.ListRecent(ctx)
}
