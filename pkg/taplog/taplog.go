// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 the wmpstat authors

// Package taplog records wire traffic as a stream of CBOR-encoded events.
//
// Each event captures one protocol line together with its direction and a
// capture timestamp. The format is append-only: events are written
// back-to-back as CBOR maps, so a reader can replay a session without
// knowing how many events it holds.
package taplog

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Direction of a captured line relative to the capturing endpoint.
const (
	DirIn  = "in"
	DirOut = "out"
)

// Event is one captured protocol line.
type Event struct {
	Time      time.Time `cbor:"1,keyasint"`
	Direction string    `cbor:"2,keyasint"`
	Line      string    `cbor:"3,keyasint"`
}

// Writer appends events to an underlying stream. Safe for concurrent use.
type Writer struct {
	mu  sync.Mutex
	w   io.Writer
	c   io.Closer
	enc cbor.EncMode
}

// NewWriter wraps an io.Writer.
func NewWriter(w io.Writer) (*Writer, error) {
	enc, err := cbor.EncOptions{Time: cbor.TimeRFC3339Nano}.EncMode()
	if err != nil {
		return nil, fmt.Errorf("taplog: encoder options: %w", err)
	}
	tw := &Writer{w: w, enc: enc}
	if c, ok := w.(io.Closer); ok {
		tw.c = c
	}
	return tw, nil
}

// Create opens (or truncates) a tap log file for writing.
func Create(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("taplog: create %s: %w", path, err)
	}
	return NewWriter(f)
}

// Record appends one event. The line is stored without terminators.
func (w *Writer) Record(direction, line string) error {
	data, err := w.enc.Marshal(Event{
		Time:      time.Now(),
		Direction: direction,
		Line:      line,
	})
	if err != nil {
		return fmt.Errorf("taplog: marshal event: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.w.Write(data); err != nil {
		return fmt.Errorf("taplog: write event: %w", err)
	}
	return nil
}

// Close closes the underlying stream if it is closable.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.c != nil {
		return w.c.Close()
	}
	return nil
}

// Reader decodes events from a tap log stream.
type Reader struct {
	dec *cbor.Decoder
}

// NewReader wraps an io.Reader.
func NewReader(r io.Reader) *Reader {
	return &Reader{dec: cbor.NewDecoder(r)}
}

// Open opens a tap log file for reading.
func Open(path string) (*Reader, io.Closer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("taplog: open %s: %w", path, err)
	}
	return NewReader(f), f, nil
}

// Next returns the next event, or io.EOF at end of stream.
func (r *Reader) Next() (*Event, error) {
	var ev Event
	if err := r.dec.Decode(&ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

// ReadAll drains the stream.
func (r *Reader) ReadAll() ([]Event, error) {
	var events []Event
	for {
		ev, err := r.Next()
		if err == io.EOF {
			return events, nil
		}
		if err != nil {
			return events, err
		}
		events = append(events, *ev)
	}
}
