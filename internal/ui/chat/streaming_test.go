// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"testing"
	"time"
)

// =============================================================================
// RENDER LIMITER TESTS
// =============================================================================

func TestRenderLimiter_FirstMarkFlushes(t *testing.T) {
	r := NewRenderLimiter()

	if !r.Mark() {
		t.Error("first Mark should render immediately")
	}
	if r.Flush() {
		t.Error("nothing should be pending after an immediate render")
	}
}

func TestRenderLimiter_CoalescesBurst(t *testing.T) {
	r := NewRenderLimiter()
	r.Mark() // establishes lastFlush

	rendered := 0
	for i := 0; i < 100; i++ {
		if r.Mark() {
			rendered++
		}
	}
	// A burst faster than the frame interval coalesces to nearly nothing.
	if rendered > 2 {
		t.Errorf("burst rendered %d times, want <= 2", rendered)
	}
	// The burst left a pending change for the sweep tick.
	if !r.Flush() {
		t.Error("coalesced burst should leave a pending flush")
	}
}

func TestRenderLimiter_MarkAfterInterval(t *testing.T) {
	r := &RenderLimiter{interval: 5 * time.Millisecond}
	r.Mark()
	r.Mark() // deferred

	time.Sleep(10 * time.Millisecond)
	if !r.Mark() {
		t.Error("Mark after the interval should render")
	}
}

func TestRenderLimiter_FlushIdempotent(t *testing.T) {
	r := NewRenderLimiter()
	if r.Flush() {
		t.Error("fresh limiter has nothing to flush")
	}

	r.Mark()
	r.Mark() // second mark within the interval goes pending
	if !r.Flush() {
		t.Error("pending change should flush")
	}
	if r.Flush() {
		t.Error("second flush should report nothing pending")
	}
}

func TestRenderLimiter_Reset(t *testing.T) {
	r := NewRenderLimiter()
	r.Mark()
	r.Mark()

	r.Reset()
	if r.Flush() {
		t.Error("reset should discard the pending change")
	}
	if !r.Mark() {
		t.Error("Mark after reset should render immediately")
	}
}
