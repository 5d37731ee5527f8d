// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 the wmpstat authors

package taplog

import (
	"bytes"
	"testing"
)

func TestWriteReadRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}

	lines := []struct {
		dir  string
		line string
	}{
		{DirOut, "GET,1:*"},
		{DirIn, "CHN,1:MODE,HEAT"},
		{DirIn, "ACK"},
	}
	for _, l := range lines {
		if err := w.Record(l.dir, l.line); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	events, err := NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(events) != len(lines) {
		t.Fatalf("got %d events, want %d", len(events), len(lines))
	}
	for i, l := range lines {
		if events[i].Direction != l.dir || events[i].Line != l.line {
			t.Errorf("event %d = %+v, want %+v", i, events[i], l)
		}
		if events[i].Time.IsZero() {
			t.Errorf("event %d has zero timestamp", i)
		}
	}
}

func TestReadAll_Empty(t *testing.T) {
	events, err := NewReader(bytes.NewReader(nil)).ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("got %d events from empty stream", len(events))
	}
}
