// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 the wmpstat authors

package emulator

import (
	"reflect"
	"testing"
)

// ============================================================================
// Compact capability notation
// ============================================================================

func TestParseCompactNotation(t *testing.T) {
	tests := []struct {
		notation   string
		allowSwing bool
		want       []string
	}{
		{"A7S", true, []string{"AUTO", "1", "2", "3", "4", "5", "6", "7", "SWING"}},
		{"A3", true, []string{"AUTO", "1", "2", "3"}},
		{"3S", true, []string{"1", "2", "3", "SWING"}},
		{"4", false, []string{"1", "2", "3", "4"}},
		{"A", false, []string{"AUTO"}},
		{"AS", true, []string{"AUTO", "SWING"}},
		{"a3s", true, []string{"AUTO", "1", "2", "3", "SWING"}},
		{" A2 ", false, []string{"AUTO", "1", "2"}},
		{"N", true, nil},
		{"", true, nil},
	}

	for _, tt := range tests {
		got, err := ParseCompactNotation(tt.notation, tt.allowSwing)
		if err != nil {
			t.Errorf("ParseCompactNotation(%q) unexpected error: %v", tt.notation, err)
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ParseCompactNotation(%q) = %v, want %v", tt.notation, got, tt.want)
		}
	}
}

func TestParseCompactNotationErrors(t *testing.T) {
	tests := []struct {
		notation   string
		allowSwing bool
	}{
		{"3S", false}, // SWING only valid for vanes
		{"AS", false},
		{"0", true}, // positions out of range
		{"10", true},
		{"A12S", true},
		{"X3", true}, // junk
		{"A3X", true},
	}

	for _, tt := range tests {
		if _, err := ParseCompactNotation(tt.notation, tt.allowSwing); err == nil {
			t.Errorf("ParseCompactNotation(%q, swing=%v) expected error", tt.notation, tt.allowSwing)
		}
	}
}
