// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api implements the HTTP client for the Creaty backend.
//
// Two boundaries live here: the chat transport (a streaming POST /chat whose
// body is handed to the stream decoder) and the session persistence API
// (standalone chat sessions plus the per-project workspace chat document).
// All persistence calls carry a bearer credential issued by the external auth
// provider; without one, standalone persistence is skipped entirely and the
// conversation stays memory-only.
package api

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Configuration constants for the backend API.
const (
	// DefaultTimeout is the default timeout for non-streaming API requests.
	DefaultTimeout = 30 * time.Second

	// MaxResponseSize is the maximum allowed response body size.
	// SECURITY: Response size limit prevents memory exhaustion attacks.
	MaxResponseSize = 10 * 1024 * 1024 // 10MB limit
)

var (
	// PERFORMANCE: Connection pooling reduces TCP handshake overhead.
	// Shared HTTP client for all persistence and side-channel requests.
	sharedHTTPClient = &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
		Timeout: DefaultTimeout,
	}

	// sharedStreamingClient is used for the chat stream. No client-side
	// timeout; the request context and the backend own timeout policy.
	sharedStreamingClient = &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
	}
)

// Error variables for common API errors.
var (
	// ErrNoCredential indicates a persistence call was attempted without a
	// bearer token.
	ErrNoCredential = errors.New("no bearer credential configured")

	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("not found")
)

// APIError represents an error response from the backend.
type APIError struct {
	Status  int
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("creaty API error (HTTP %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("creaty API error (HTTP %d)", e.Status)
}

// Is allows APIError 404s to match ErrNotFound.
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

// =============================================================================
// WIRE TYPES
// =============================================================================

// SessionMeta identifies a stored standalone session in list responses.
type SessionMeta struct {
	ID    string `json:"_id"`
	Title string `json:"title"`
}

// StoredMessage is the persisted shape of one conversational turn.
type StoredMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Thought string `json:"thought,omitempty"`
}

// HistoryEntry is a prior role/content pair carried by a chat request.
type HistoryEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatRequest is the body of a streaming chat turn request.
type chatRequest struct {
	Message string         `json:"message"`
	History []HistoryEntry `json:"history"`
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the Creaty backend.
type Client struct {
	baseURL string
	token   string

	httpClient   *http.Client
	streamClient *http.Client
}

// NewClient creates a client for the given base URL. token may be empty, in
// which case every authenticated call fails with ErrNoCredential.
func NewClient(baseURL, token string) (*Client, error) {
	baseURL = strings.TrimRight(baseURL, "/")
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	return &Client{
		baseURL:      baseURL,
		token:        token,
		httpClient:   sharedHTTPClient,
		streamClient: sharedStreamingClient,
	}, nil
}

// HasCredential reports whether a bearer token is configured.
func (c *Client) HasCredential() bool {
	return c.token != ""
}

// setHeaders applies the standard request headers.
func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// =============================================================================
// CHAT TRANSPORT
// =============================================================================

// ChatStream issues a chat turn request and returns the raw event-stream
// body. The caller owns the ReadCloser and must close it; decoding is the
// stream package's job.
func (c *Client) ChatStream(ctx context.Context, message string, history []HistoryEntry) (io.ReadCloser, error) {
	if history == nil {
		history = []HistoryEntry{}
	}
	body, err := json.Marshal(chatRequest{Message: message, History: history})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.streamClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chat request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, readError(resp)
	}
	return resp.Body, nil
}

// =============================================================================
// STANDALONE SESSIONS
// =============================================================================

// ListChats returns the stored standalone sessions, most recent first.
func (c *Client) ListChats(ctx context.Context) ([]SessionMeta, error) {
	var sessions []SessionMeta
	if err := c.doJSON(ctx, http.MethodGet, "/chats", nil, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// CreateChat creates a new session with the given title and returns its
// server-assigned id.
func (c *Client) CreateChat(ctx context.Context, title string) (SessionMeta, error) {
	var created SessionMeta
	payload := map[string]string{"title": title}
	if err := c.doJSON(ctx, http.MethodPost, "/chats", payload, &created); err != nil {
		return SessionMeta{}, err
	}
	return created, nil
}

// GetChat loads the stored messages of one session.
func (c *Client) GetChat(ctx context.Context, id string) ([]StoredMessage, error) {
	var resp struct {
		Messages []StoredMessage `json:"messages"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/chats/"+url.PathEscape(id), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

// AppendChatMessage appends one turn to a stored session.
func (c *Client) AppendChatMessage(ctx context.Context, id string, msg StoredMessage) error {
	return c.doJSON(ctx, http.MethodPost, "/chats/"+url.PathEscape(id)+"/message", msg, nil)
}

// RenameChat updates a session title.
func (c *Client) RenameChat(ctx context.Context, id, title string) error {
	payload := map[string]string{"title": title}
	return c.doJSON(ctx, http.MethodPatch, "/chats/"+url.PathEscape(id), payload, nil)
}

// DeleteChat removes a stored session.
func (c *Client) DeleteChat(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/chats/"+url.PathEscape(id), nil, nil)
}

// =============================================================================
// WORKSPACE SESSIONS
// =============================================================================

// WorkspaceHistory loads the single chat document attached to a project.
func (c *Client) WorkspaceHistory(ctx context.Context, projectID string) ([]StoredMessage, error) {
	var resp struct {
		ChatHistory []StoredMessage `json:"chatHistory"`
	}
	path := "/projects/" + url.PathEscape(projectID) + "/workspace/chat"
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.ChatHistory, nil
}

// AppendWorkspaceMessage appends one turn to a project's chat document.
func (c *Client) AppendWorkspaceMessage(ctx context.Context, projectID string, msg StoredMessage) error {
	path := "/projects/" + url.PathEscape(projectID) + "/workspace/chat"
	return c.doJSON(ctx, http.MethodPost, path, msg, nil)
}

// =============================================================================
// SIDE CHANNEL
// =============================================================================

// UpdateNews asks the backend to refresh its knowledge base.
// Fire-and-forget: the result is only reported to the user, never folded into
// conversation state.
func (c *Client) UpdateNews(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/update-news", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("update-news request failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, MaxResponseSize))
	if resp.StatusCode != http.StatusOK {
		return &APIError{Status: resp.StatusCode}
	}
	return nil
}

// Speak converts text to speech and returns the audio payload.
func (c *Client) Speak(ctx context.Context, text string) ([]byte, error) {
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/tts", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tts request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, readError(resp)
	}
	return io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
}

// =============================================================================
// REQUEST PLUMBING
// =============================================================================

// doJSON performs an authenticated JSON round trip. All session endpoints
// require the bearer credential.
func (c *Client) doJSON(ctx context.Context, method, path string, payload, out any) error {
	if c.token == "" {
		return ErrNoCredential
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	log.Printf("API %s %s -> %d (%v)", method, path, resp.StatusCode, time.Since(start).Round(time.Millisecond))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return readError(resp)
	}

	if out != nil {
		data, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
		if err != nil {
			return fmt.Errorf("failed to read response: %w", err)
		}
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// readError turns a non-2xx response into an APIError, pulling a message out
// of the body when one is present.
func readError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var parsed struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Detail  string `json:"detail"`
	}
	msg := ""
	if json.Unmarshal(data, &parsed) == nil {
		switch {
		case parsed.Error != "":
			msg = parsed.Error
		case parsed.Message != "":
			msg = parsed.Message
		case parsed.Detail != "":
			msg = parsed.Detail
		}
	}
	return &APIError{Status: resp.StatusCode, Message: msg}
}
