// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"
	"testing"
)

func TestSessionLabel(t *testing.T) {
	tests := []struct {
		name     string
		title    string
		i        int
		selected int
		want     string
	}{
		{"selected row gets cursor", "First chat", 0, 0, "> First chat"},
		{"unselected row is padded", "First chat", 1, 0, "  First chat"},
		{"empty title placeholder", "", 0, 1, "  (untitled)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sessionLabel(tt.title, tt.i, tt.selected); got != tt.want {
				t.Errorf("sessionLabel = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSessionLabel_TruncatesLongTitles(t *testing.T) {
	long := strings.Repeat("x", 2*pickerTitleMax)
	got := sessionLabel(long, 0, 0)

	if want := 2 + pickerTitleMax; len([]rune(got)) != want {
		t.Errorf("label length = %d runes, want %d", len([]rune(got)), want)
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("truncated label should end with an ellipsis: %q", got)
	}
}
