// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 the wmpstat authors

package emulator

import (
	"bufio"
	"bytes"
	"fmt"
	"log"
	"net"
	"sync"
	"time"

	"github.com/hvackit/wmpstat/pkg/taplog"
)

// Config configures an emulator server.
type Config struct {
	Host string
	Port int

	// Capability notation, [A][1-9][S] or N (see ParseCompactNotation).
	VaneUD   string
	VaneLR   string
	FanSpeed string

	// DynamicSetpoint switches LIMITS:SETPTEMP to mode-dependent bounds.
	DynamicSetpoint bool

	// Seed for the notification scheduler; zero means time-based.
	Seed int64

	// Delay and compliance windows; zero values take the defaults.
	MinDelay      time.Duration
	MaxDelay      time.Duration
	OnOffMaxDelay time.Duration
	IdleTimeout   time.Duration
	MinReconnect  time.Duration

	// Logf receives emulator log output; defaults to log.Printf.
	Logf func(format string, args ...any)

	// Tap, when set, records every inbound and outbound line.
	Tap *taplog.Writer
}

func (c Config) withDefaults() Config {
	if c.MinDelay == 0 {
		c.MinDelay = ResponseDelayMin
	}
	if c.MaxDelay == 0 {
		c.MaxDelay = ResponseDelayMax
	}
	if c.OnOffMaxDelay == 0 {
		c.OnOffMaxDelay = OnOffDelayMax
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = SocketIdleTimeout
	}
	if c.MinReconnect == 0 {
		c.MinReconnect = MinReconnectInterval
	}
	if c.Logf == nil {
		c.Logf = log.Printf
	}
	return c
}

// ViolationCounts tallies observed protocol-compliance violations. The
// emulator logs violations but never rejects the offending client.
type ViolationCounts struct {
	RapidReconnect int
	IdleTimeout    int
}

// Server accepts WMP connections and serves them against one shared
// device record, the way a single physical device serves all comers.
type Server struct {
	cfg    Config
	limits Limits

	device *Device
	clock  *Clock

	ln net.Listener
	wg sync.WaitGroup

	mu             sync.Mutex
	conns          map[net.Conn]struct{}
	closed         bool
	lastDisconnect time.Time
	violations     ViolationCounts
}

// NewServer validates configuration and builds a server. Invalid compact
// notation is a startup error.
func NewServer(cfg Config) (*Server, error) {
	cfg = cfg.withDefaults()

	vaneUD, err := ParseCompactNotation(cfg.VaneUD, true)
	if err != nil {
		return nil, fmt.Errorf("emulator: --vud: %w", err)
	}
	vaneLR, err := ParseCompactNotation(cfg.VaneLR, true)
	if err != nil {
		return nil, fmt.Errorf("emulator: --vlr: %w", err)
	}
	fanSpeed, err := ParseCompactNotation(cfg.FanSpeed, false)
	if err != nil {
		return nil, fmt.Errorf("emulator: --fan: %w", err)
	}

	return &Server{
		cfg: cfg,
		limits: Limits{
			VaneUD:          vaneUD,
			VaneLR:          vaneLR,
			FanSpeed:        fanSpeed,
			DynamicSetpoint: cfg.DynamicSetpoint,
		},
		device: NewDevice(),
		clock:  NewClock(),
		conns:  make(map[net.Conn]struct{}),
	}, nil
}

// Start begins listening and accepting connections.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("emulator: listen %s: %w", addr, err)
	}
	s.ln = ln
	s.cfg.Logf("[EMU] listening on %s", ln.Addr())

	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

// Addr returns the bound listen address.
func (s *Server) Addr() net.Addr {
	return s.ln.Addr()
}

// Violations returns the compliance tallies observed so far.
func (s *Server) Violations() ViolationCounts {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.violations
}

// Close stops the listener and drops every active connection.
func (s *Server) Close() error {
	s.mu.Lock()
	s.closed = true
	for conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()

	var err error
	if s.ln != nil {
		err = s.ln.Close()
	}
	s.wg.Wait()
	return err
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}

		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			conn.Close()
			return
		}
		s.conns[conn] = struct{}{}
		s.checkReconnectLocked(conn)
		s.mu.Unlock()

		s.wg.Add(1)
		go s.handleConn(conn)
	}
}

// checkReconnectLocked observes the minimum-reconnect-interval rule.
func (s *Server) checkReconnectLocked(conn net.Conn) {
	if s.lastDisconnect.IsZero() {
		return
	}
	interval := time.Since(s.lastDisconnect)
	if interval < s.cfg.MinReconnect {
		s.violations.RapidReconnect++
		s.cfg.Logf("[EMU] protocol violation: %s reconnected after %.3fs (min %.1fs)",
			conn.RemoteAddr(), interval.Seconds(), s.cfg.MinReconnect.Seconds())
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer s.wg.Done()

	connected := time.Now()
	s.cfg.Logf("[EMU] connection established from %s", conn.RemoteAddr())

	writer := &connWriter{conn: conn, tap: s.cfg.Tap}
	scheduler := NewScheduler(s.cfg.Seed, writer.write)
	scheduler.SetDelayBounds(s.cfg.MinDelay, s.cfg.MaxDelay, s.cfg.OnOffMaxDelay)
	processor := NewProcessor(s.device, s.clock, s.limits)
	processor.SetLogf(s.cfg.Logf)

	defer func() {
		scheduler.Stop()
		conn.Close()
		s.mu.Lock()
		delete(s.conns, conn)
		s.lastDisconnect = time.Now()
		s.mu.Unlock()
		s.cfg.Logf("[EMU] connection closed (duration %.1fs)", time.Since(connected).Seconds())
	}()

	lastActivity := time.Now()
	scanner := bufio.NewScanner(conn)
	scanner.Split(scanProtocolLines)

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		now := time.Now()
		if idle := now.Sub(lastActivity); idle > s.cfg.IdleTimeout {
			s.mu.Lock()
			s.violations.IdleTimeout++
			s.mu.Unlock()
			s.cfg.Logf("[EMU] protocol violation: socket idle for %.1fs (timeout %.1fs)",
				idle.Seconds(), s.cfg.IdleTimeout.Seconds())
		}
		lastActivity = now

		if s.cfg.Tap != nil {
			s.cfg.Tap.Record(taplog.DirIn, line)
		}

		reply, changes := processor.HandleLine(line)
		if len(reply) > 0 {
			writer.write(reply)
		}
		if len(changes) > 0 {
			scheduler.Notify(changes)
		}
	}
}

// connWriter serializes writes from the session and its notification
// timers onto one socket.
type connWriter struct {
	mu   sync.Mutex
	conn net.Conn
	tap  *taplog.Writer
}

func (w *connWriter) write(data []byte) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.conn.Write(data)
	if w.tap != nil {
		for _, line := range bytes.Split(bytes.TrimRight(data, "\r\n"), []byte("\r\n")) {
			if len(line) > 0 {
				w.tap.Record(taplog.DirOut, string(line))
			}
		}
	}
}

// scanProtocolLines splits on CR, LF, or CRLF. Client commands end with
// a bare CR, device lines with CRLF; the emulator accepts both.
func scanProtocolLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	for i, b := range data {
		if b == '\r' || b == '\n' {
			advance = i + 1
			if b == '\r' && i+1 < len(data) && data[i+1] == '\n' {
				advance = i + 2
			} else if b == '\r' && i+1 >= len(data) && !atEOF {
				// Might be the first half of a CRLF; wait for more data.
				return 0, nil, nil
			}
			return advance, data[:i], nil
		}
	}
	if atEOF && len(data) > 0 {
		return len(data), data, nil
	}
	return 0, nil, nil
}
