// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session orchestrates chat-session identity against the persistence
// boundary.
//
// Two scopes exist. A standalone session is owned by the authenticated user
// and supports the full lifecycle: lazy creation on the first message of a
// new conversation, append, rename, delete, and listing recent sessions. A
// workspace session is the single chat document attached to a project; it is
// append-and-load only, with no lifecycle operations of its own.
//
// Persistence failures are deliberately quiet: the in-memory conversation is
// the visible source of truth, so appends and listings fail soft and are only
// logged. Nothing in this package may block the streaming UI.
package session

import (
	"context"
	"log"
	"strings"

	"github.com/jeranaias/creaty-tui/internal/api"
	"github.com/jeranaias/creaty-tui/internal/model"
	"github.com/jeranaias/creaty-tui/internal/util"
)

// TitlePrefixLen is the number of characters of the first user message used
// as the default session title.
const TitlePrefixLen = 30

// =============================================================================
// SCOPE
// =============================================================================

// Scope selects which persistence code path a conversation uses.
type Scope struct {
	projectID string
}

// Standalone returns the user-owned session scope.
func Standalone() Scope {
	return Scope{}
}

// Workspace returns the scope for a project's single chat document.
func Workspace(projectID string) Scope {
	return Scope{projectID: projectID}
}

// IsWorkspace reports whether this scope targets a project document.
func (s Scope) IsWorkspace() bool {
	return s.projectID != ""
}

// ProjectID returns the owning project id for workspace scopes.
func (s Scope) ProjectID() string {
	return s.projectID
}

// =============================================================================
// MANAGER
// =============================================================================

// Manager performs session operations against the backend.
//
// The manager is stateless with respect to the active session id; the
// orchestrator owns that identity and passes it in, which is what keeps
// session creation serialized to exactly once per conversation.
type Manager struct {
	client *api.Client
	scope  Scope
}

// NewManager creates a session manager for the given scope.
func NewManager(client *api.Client, scope Scope) *Manager {
	return &Manager{client: client, scope: scope}
}

// Scope returns the manager's scope.
func (m *Manager) Scope() Scope {
	return m.scope
}

// =============================================================================
// LIFECYCLE OPERATIONS
// =============================================================================

// ListRecent returns the stored standalone sessions.
//
// Fails soft: transport errors (and a missing credential) yield an empty
// list. Workspace scopes have nothing to list.
func (m *Manager) ListRecent(ctx context.Context) []api.SessionMeta {
	if m.scope.IsWorkspace() {
		return nil
	}
	sessions, err := m.client.ListChats(ctx)
	if err != nil {
		log.Printf("session: listing recent sessions failed: %v", err)
		return nil
	}
	return sessions
}

// EnsureSession returns the session id a conversation should persist to.
//
// A non-empty existingID is returned unchanged with no network call. An empty
// one triggers the single creation call of the conversation's lifetime,
// titled with a fixed-length prefix of the first user message. Without a
// credential (or in workspace scope) the id stays empty and the conversation
// remains memory-only.
func (m *Manager) EnsureSession(ctx context.Context, existingID string, first *model.Message) (string, error) {
	if existingID != "" || m.scope.IsWorkspace() {
		return existingID, nil
	}
	if !m.client.HasCredential() {
		return "", nil
	}

	title := util.TruncateRunesNoEllipsis(first.Content, TitlePrefixLen)
	created, err := m.client.CreateChat(ctx, title)
	if err != nil {
		return "", err
	}
	return created.ID, nil
}

// AppendMessage persists one completed turn.
//
// Workspace scope targets the project's chat document and ignores sessionID.
// Standalone scope silently skips when there is no credential or no session
// yet. There is no client-side dedup; idempotency is the transport's problem.
func (m *Manager) AppendMessage(ctx context.Context, sessionID string, msg *model.Message) error {
	stored := toStored(msg)

	if m.scope.IsWorkspace() {
		return m.client.AppendWorkspaceMessage(ctx, m.scope.projectID, stored)
	}
	if !m.client.HasCredential() || sessionID == "" {
		return nil
	}
	return m.client.AppendChatMessage(ctx, sessionID, stored)
}

// Rename updates a session title. Blank titles are a no-op.
func (m *Manager) Rename(ctx context.Context, sessionID, title string) error {
	if m.scope.IsWorkspace() {
		return nil
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil
	}
	return m.client.RenameChat(ctx, sessionID, title)
}

// Delete removes a stored session. The caller resets the active conversation
// when the deleted session was the active one.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	if m.scope.IsWorkspace() {
		return nil
	}
	return m.client.DeleteChat(ctx, sessionID)
}

// LoadHistory fetches the stored messages for a session (or, in workspace
// scope, the project chat document) as finalized model messages.
func (m *Manager) LoadHistory(ctx context.Context, sessionID string) ([]*model.Message, error) {
	var (
		stored []api.StoredMessage
		err    error
	)
	if m.scope.IsWorkspace() {
		stored, err = m.client.WorkspaceHistory(ctx, m.scope.projectID)
	} else {
		stored, err = m.client.GetChat(ctx, sessionID)
	}
	if err != nil {
		return nil, err
	}

	msgs := make([]*model.Message, 0, len(stored))
	for _, s := range stored {
		msgs = append(msgs, fromStored(s))
	}
	return msgs, nil
}

// =============================================================================
// WIRE CONVERSION
// =============================================================================

func toStored(msg *model.Message) api.StoredMessage {
	return api.StoredMessage{
		Role:    msg.Role.String(),
		Content: msg.Content,
		Thought: msg.Thought,
	}
}

func fromStored(s api.StoredMessage) *model.Message {
	msg := model.NewUserMessage(s.Content)
	msg.Role = model.Role(s.Role)
	msg.Thought = s.Thought
	return msg
}
