// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"errors"
	"io"
	"strings"
	"testing"
)

// chunkReader delivers its payload in fixed-size chunks so tests can prove
// that frame reassembly is independent of transport chunk boundaries.
type chunkReader struct {
	data []byte
	size int
	pos  int
}

func (c *chunkReader) Read(p []byte) (int, error) {
	if c.pos >= len(c.data) {
		return 0, io.EOF
	}
	end := c.pos + c.size
	if end > len(c.data) {
		end = len(c.data)
	}
	n := copy(p, c.data[c.pos:end])
	c.pos += n
	return n, nil
}

// drain collects every frame payload until EOF.
func drain(t *testing.T, d *Decoder) []string {
	t.Helper()
	var frames []string
	for {
		payload, err := d.Next()
		if err == io.EOF {
			return frames
		}
		if err != nil {
			t.Fatalf("Next returned unexpected error: %v", err)
		}
		frames = append(frames, string(payload))
	}
}

// =============================================================================
// FRAME REASSEMBLY TESTS
// =============================================================================

func TestDecoder_SingleFrame(t *testing.T) {
	d := NewDecoder(strings.NewReader("data: {\"content\":\"hi\"}\n\n"))
	frames := drain(t, d)

	if len(frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(frames))
	}
	if frames[0] != `{"content":"hi"}` {
		t.Errorf("frame = %q", frames[0])
	}
}

func TestDecoder_MultipleFramesOneChunk(t *testing.T) {
	raw := "data: one\n\ndata: two\n\ndata: three\n\n"
	d := NewDecoder(strings.NewReader(raw))
	frames := drain(t, d)

	want := []string{"one", "two", "three"}
	if len(frames) != len(want) {
		t.Fatalf("got %d frames, want %d", len(frames), len(want))
	}
	for i := range want {
		if frames[i] != want[i] {
			t.Errorf("frame[%d] = %q, want %q", i, frames[i], want[i])
		}
	}
}

// TestDecoder_ArbitraryChunking feeds the same stream at every chunk size
// from 1 byte up, verifying the decoded sequence never changes. A frame
// split mid-token must reassemble identically to one delivered whole.
func TestDecoder_ArbitraryChunking(t *testing.T) {
	raw := "data: {\"type\":\"thought\",\"content\":\"hmm\"}\n\ndata: {\"content\":\"Hello, \"}\n\ndata: {\"content\":\"world\"}\n\ndata: [DONE]\n\n"
	want := []string{
		`{"type":"thought","content":"hmm"}`,
		`{"content":"Hello, "}`,
		`{"content":"world"}`,
	}

	for size := 1; size <= len(raw); size++ {
		d := NewDecoder(&chunkReader{data: []byte(raw), size: size})
		frames := drain(t, d)

		if len(frames) != len(want) {
			t.Fatalf("chunk size %d: got %d frames, want %d", size, len(frames), len(want))
		}
		for i := range want {
			if frames[i] != want[i] {
				t.Errorf("chunk size %d: frame[%d] = %q, want %q", size, i, frames[i], want[i])
			}
		}
	}
}

func TestDecoder_CRLFLineEndings(t *testing.T) {
	d := NewDecoder(strings.NewReader("data: hello\r\n\r\ndata: world\r\n\r\n"))
	frames := drain(t, d)

	if len(frames) != 2 || frames[0] != "hello" || frames[1] != "world" {
		t.Errorf("frames = %v, want [hello world]", frames)
	}
}

func TestDecoder_IgnoresNonDataFields(t *testing.T) {
	raw := ": keepalive comment\nevent: message\nid: 42\ndata: payload\nretry: 100\n\n"
	d := NewDecoder(strings.NewReader(raw))
	frames := drain(t, d)

	if len(frames) != 1 || frames[0] != "payload" {
		t.Errorf("frames = %v, want [payload]", frames)
	}
}

func TestDecoder_MultiLineData(t *testing.T) {
	// Two data lines in one frame join with a newline, per SSE semantics.
	d := NewDecoder(strings.NewReader("data: first\ndata: second\n\n"))
	frames := drain(t, d)

	if len(frames) != 1 || frames[0] != "first\nsecond" {
		t.Errorf("frames = %v, want [first\\nsecond]", frames)
	}
}

// =============================================================================
// TERMINATION TESTS
// =============================================================================

func TestDecoder_DoneSentinelStops(t *testing.T) {
	raw := "data: before\n\ndata: [DONE]\n\ndata: after\n\n"
	d := NewDecoder(strings.NewReader(raw))
	frames := drain(t, d)

	if len(frames) != 1 || frames[0] != "before" {
		t.Errorf("frames = %v, want only the frame before the terminator", frames)
	}

	// Every call after termination keeps returning EOF.
	for i := 0; i < 3; i++ {
		if _, err := d.Next(); err != io.EOF {
			t.Fatalf("call %d after done: err = %v, want io.EOF", i, err)
		}
	}
}

func TestDecoder_EOFFlushesPartialFrame(t *testing.T) {
	// Stream ends without a trailing blank line or newline.
	d := NewDecoder(strings.NewReader("data: complete\n\ndata: partial"))
	frames := drain(t, d)

	if len(frames) != 2 || frames[1] != "partial" {
		t.Errorf("frames = %v, want trailing partial flushed", frames)
	}
}

func TestDecoder_EmptyStream(t *testing.T) {
	d := NewDecoder(strings.NewReader(""))
	if _, err := d.Next(); err != io.EOF {
		t.Errorf("err = %v, want io.EOF", err)
	}
}

func TestDecoder_FrameSizeLimit(t *testing.T) {
	huge := "data: " + strings.Repeat("x", MaxFrameSize+1) + "\n\n"
	d := NewDecoder(strings.NewReader(huge))

	_, err := d.Next()
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("err = %v, want *DecodeError", err)
	}
	if _, err := d.Next(); err != io.EOF {
		t.Errorf("after size error: err = %v, want io.EOF", err)
	}
}

// =============================================================================
// CLASSIFIER TESTS
// =============================================================================

func TestClassifier_Channels(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    Event
	}{
		{"thought", `{"type":"thought","content":"reasoning"}`, Event{Kind: KindThought, Text: "reasoning"}},
		{"explicit content", `{"type":"content","content":"answer"}`, Event{Kind: KindContent, Text: "answer"}},
		{"missing type defaults to content", `{"content":"answer"}`, Event{Kind: KindContent, Text: "answer"}},
		{"unknown type defaults to content", `{"type":"reflection","content":"x"}`, Event{Kind: KindContent, Text: "x"}},
		{"empty content", `{"type":"thought"}`, Event{Kind: KindThought, Text: ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Classifier
			got, ok := c.Classify([]byte(tt.payload))
			if !ok {
				t.Fatal("Classify rejected a valid payload")
			}
			if got != tt.want {
				t.Errorf("Classify = %+v, want %+v", got, tt.want)
			}
			if c.Dropped != 0 {
				t.Errorf("Dropped = %d, want 0", c.Dropped)
			}
		})
	}
}

func TestClassifier_MalformedFrameDropped(t *testing.T) {
	var c Classifier

	if _, ok := c.Classify([]byte("not json at all")); ok {
		t.Error("Classify accepted a malformed payload")
	}
	if c.Dropped != 1 {
		t.Errorf("Dropped = %d, want 1", c.Dropped)
	}

	// The classifier keeps working after a drop.
	ev, ok := c.Classify([]byte(`{"content":"still here"}`))
	if !ok || ev.Text != "still here" {
		t.Errorf("Classify after drop = %+v ok=%v", ev, ok)
	}
}

func TestKind_String(t *testing.T) {
	if KindContent.String() != "content" {
		t.Errorf("KindContent.String() = %q", KindContent.String())
	}
	if KindThought.String() != "thought" {
		t.Errorf("KindThought.String() = %q", KindThought.String())
	}
}
