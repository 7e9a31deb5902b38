// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream decodes the chat backend's server-sent event stream.
//
// The backend answers a chat request with a chunked text/event-stream body.
// Each logical frame is prefixed with "data: " and frames are separated by a
// blank line. A frame carrying the literal sentinel "[DONE]" terminates the
// stream regardless of what the transport delivers afterwards. Chunk
// boundaries are arbitrary: a frame may be split across chunks or several
// frames may arrive in one chunk, so decoding buffers any partial trailing
// frame and resumes on the next read.
package stream

import (
	"bufio"
	"bytes"
	"io"
)

// DoneSentinel is the frame payload that terminates a stream early.
const DoneSentinel = "[DONE]"

// MaxFrameSize is the maximum allowed size for a single frame (64KB).
const MaxFrameSize = 64 * 1024

// ErrFrameTooLarge is returned when a single frame exceeds MaxFrameSize.
var ErrFrameTooLarge = &DecodeError{Message: "frame exceeds size limit"}

// DecodeError represents a protocol-level decoding failure.
type DecodeError struct {
	Message string
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return e.Message
}

// =============================================================================
// FRAME DECODER
// =============================================================================

// Decoder turns a raw byte stream into a sequence of complete frame payloads.
//
// Frames are produced in strict arrival order; none are reordered or dropped.
// After the DoneSentinel or transport end-of-stream, Next returns io.EOF for
// every subsequent call.
type Decoder struct {
	reader *bufio.Reader
	done   bool
}

// NewDecoder creates a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{
		reader: bufio.NewReader(r),
	}
}

// Next returns the payload of the next complete frame.
//
// The "data: " prefix and the blank-line separator are consumed; the returned
// bytes are the bare payload. io.EOF signals end of stream, either because the
// transport closed or because the DoneSentinel was seen.
func (d *Decoder) Next() ([]byte, error) {
	if d.done {
		return nil, io.EOF
	}

	var dataLines [][]byte
	size := 0

	for {
		line, err := d.reader.ReadBytes('\n')
		if err != nil {
			if err == io.EOF {
				d.done = true
				// Flush a partial trailing frame before reporting EOF.
				if payload := joinData(dataLines, bytes.TrimRight(line, "\r\n")); payload != nil {
					if bytes.Equal(payload, []byte(DoneSentinel)) {
						return nil, io.EOF
					}
					return payload, nil
				}
				return nil, io.EOF
			}
			d.done = true
			return nil, err
		}

		line = bytes.TrimRight(line, "\r\n")

		// Blank line ends the frame.
		if len(line) == 0 {
			if len(dataLines) == 0 {
				continue
			}
			payload := bytes.Join(dataLines, []byte("\n"))
			if bytes.Equal(payload, []byte(DoneSentinel)) {
				d.done = true
				return nil, io.EOF
			}
			return payload, nil
		}

		if data, ok := dataField(line); ok {
			dataLines = append(dataLines, data)
			size += len(data)
			if size > MaxFrameSize {
				d.done = true
				return nil, ErrFrameTooLarge
			}
		}
		// Other SSE fields (id:, event:, retry:, comments) are ignored.
	}
}

// dataField extracts the payload of a "data:" line.
func dataField(line []byte) ([]byte, bool) {
	if !bytes.HasPrefix(line, []byte("data:")) {
		return nil, false
	}
	data := line[5:]
	if len(data) > 0 && data[0] == ' ' {
		data = data[1:]
	}
	return data, true
}

// joinData merges buffered data lines with an optional unterminated tail line.
// Returns nil when there is no payload at all.
func joinData(dataLines [][]byte, tail []byte) []byte {
	if data, ok := dataField(tail); ok {
		dataLines = append(dataLines, data)
	}
	if len(dataLines) == 0 {
		return nil
	}
	return bytes.Join(dataLines, []byte("\n"))
}
