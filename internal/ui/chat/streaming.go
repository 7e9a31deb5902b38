// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// RENDER LIMITER
// =============================================================================

// renderFPS caps how often the view re-renders during streaming. Token
// events can arrive far faster than a terminal can usefully repaint.
const renderFPS = 30

// RenderLimiter coalesces change notifications into a capped frame rate.
//
// Every stream event marks the limiter dirty; the view only rebuilds when
// enough time has passed since the last flush, with a tick sweeping up
// whatever a slow stream leaves behind. This keeps rendering smooth without
// ever reordering or dropping conversation state; the snapshot read at
// flush time always reflects every event processed so far.
//
// Thread-safety: notifications arrive from the streaming goroutine while
// flushes happen on the Bubble Tea loop, so all state is mutex-protected.
type RenderLimiter struct {
	mu        sync.Mutex
	dirty     bool
	lastFlush time.Time
	interval  time.Duration
}

// NewRenderLimiter creates a limiter at the default frame rate.
func NewRenderLimiter() *RenderLimiter {
	return &RenderLimiter{
		interval: time.Second / renderFPS,
	}
}

// Mark records a pending change and reports whether the caller should
// re-render immediately.
func (r *RenderLimiter) Mark() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dirty = true
	if time.Since(r.lastFlush) >= r.interval {
		r.dirty = false
		r.lastFlush = time.Now()
		return true
	}
	return false
}

// Flush reports whether a deferred change is waiting and clears it.
func (r *RenderLimiter) Flush() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.dirty {
		return false
	}
	r.dirty = false
	r.lastFlush = time.Now()
	return true
}

// Reset clears any pending change, used when a conversation is replaced
// wholesale.
func (r *RenderLimiter) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dirty = false
	r.lastFlush = time.Time{}
}

// renderTickCmd schedules the sweep tick while streaming.
func renderTickCmd() tea.Cmd {
	return tea.Tick(time.Second/renderFPS, func(t time.Time) tea.Msg {
		return RenderTickMsg{Time: t}
	})
}
