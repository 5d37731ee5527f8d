// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 the wmpstat authors

package emulator

import (
	"bufio"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startTestServer(t *testing.T, cfg Config) *Server {
	t.Helper()
	cfg.Host = "127.0.0.1"
	if cfg.Logf == nil {
		cfg.Logf = t.Logf
	}
	if cfg.MinDelay == 0 {
		cfg.MinDelay = time.Millisecond
		cfg.MaxDelay = 10 * time.Millisecond
		cfg.OnOffMaxDelay = 10 * time.Millisecond
	}
	srv, err := NewServer(cfg)
	require.NoError(t, err)
	require.NoError(t, srv.Start())
	t.Cleanup(func() { srv.Close() })
	return srv
}

func dialTestServer(t *testing.T, srv *Server) (net.Conn, *bufio.Reader) {
	t.Helper()
	conn, err := net.Dial("tcp", srv.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn, bufio.NewReader(conn)
}

func sendCommand(t *testing.T, conn net.Conn, line string) {
	t.Helper()
	_, err := conn.Write([]byte(line + "\r"))
	require.NoError(t, err)
}

func readReply(t *testing.T, r *bufio.Reader) string {
	t.Helper()
	line, err := r.ReadString('\n')
	require.NoError(t, err)
	return strings.TrimRight(line, "\r\n")
}

func TestServerIdentity(t *testing.T) {
	srv := startTestServer(t, Config{VaneUD: "A3S", VaneLR: "A3S", FanSpeed: "A4"})
	conn, r := dialTestServer(t, srv)

	sendCommand(t, conn, "ID")
	assert.Equal(t, "ID:IS-IR-WMP-1,001DC9A2C911,192.168.100.246,ASCII,v0.0.1,-44", readReply(t, r))
}

func TestServerSetAckThenNotification(t *testing.T) {
	srv := startTestServer(t, Config{VaneUD: "A3S", VaneLR: "A3S", FanSpeed: "A4", Seed: 1})
	conn, r := dialTestServer(t, srv)

	sendCommand(t, conn, "SET,1:MODE,HEAT")
	assert.Equal(t, "ACK", readReply(t, r))

	// The CHN confirmation follows after the simulated device delay.
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	assert.Equal(t, "CHN,1:MODE,HEAT", readReply(t, r))
}

func TestServerInvalidNotation(t *testing.T) {
	_, err := NewServer(Config{FanSpeed: "A3S"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--fan")
}

// Disabled features stay silent on LIMITS; the follow-up PING proves the
// server skipped the reply rather than stalling.
func TestServerLimitsSilenceForDisabledFeature(t *testing.T) {
	srv := startTestServer(t, Config{VaneUD: "N", VaneLR: "N", FanSpeed: "A4"})
	conn, r := dialTestServer(t, srv)

	sendCommand(t, conn, "LIMITS:VANEUD")
	sendCommand(t, conn, "PING")
	assert.Equal(t, "PONG", readReply(t, r))

	sendCommand(t, conn, "LIMITS:FANSP")
	assert.Equal(t, "LIMITS:FANSP,[AUTO,1,2,3,4]", readReply(t, r))
}

// State is held by the device, not the connection: a value written on
// one connection is visible on the next.
func TestServerStateSurvivesReconnect(t *testing.T) {
	srv := startTestServer(t, Config{VaneUD: "A3S", VaneLR: "A3S", FanSpeed: "A4", Seed: 1})

	conn, r := dialTestServer(t, srv)
	sendCommand(t, conn, "SET,1:SETPTEMP,245")
	assert.Equal(t, "ACK", readReply(t, r))
	conn.Close()

	require.Eventually(t, func() bool {
		srv.mu.Lock()
		defer srv.mu.Unlock()
		return len(srv.conns) == 0
	}, time.Second, time.Millisecond)

	conn2, r2 := dialTestServer(t, srv)
	sendCommand(t, conn2, "GET,1:SETPTEMP")
	assert.Equal(t, "CHN,1:SETPTEMP,245", readReply(t, r2))
}

func TestServerLogsRapidReconnect(t *testing.T) {
	srv := startTestServer(t, Config{
		VaneUD: "A3S", VaneLR: "A3S", FanSpeed: "A4",
		MinReconnect: time.Second,
	})

	conn, r := dialTestServer(t, srv)
	sendCommand(t, conn, "PING")
	assert.Equal(t, "PONG", readReply(t, r))
	conn.Close()

	require.Eventually(t, func() bool {
		srv.mu.Lock()
		defer srv.mu.Unlock()
		return !srv.lastDisconnect.IsZero()
	}, time.Second, time.Millisecond)

	// Reconnect immediately, well inside the one second minimum. The
	// connection is still served.
	conn2, r2 := dialTestServer(t, srv)
	sendCommand(t, conn2, "PING")
	assert.Equal(t, "PONG", readReply(t, r2))

	assert.Equal(t, 1, srv.Violations().RapidReconnect)
}

func TestServerLogsIdleViolation(t *testing.T) {
	srv := startTestServer(t, Config{
		VaneUD: "A3S", VaneLR: "A3S", FanSpeed: "A4",
		IdleTimeout: 20 * time.Millisecond,
	})
	conn, r := dialTestServer(t, srv)

	sendCommand(t, conn, "PING")
	assert.Equal(t, "PONG", readReply(t, r))

	time.Sleep(50 * time.Millisecond)

	// The idle client is logged, never disconnected.
	sendCommand(t, conn, "PING")
	assert.Equal(t, "PONG", readReply(t, r))
	assert.Equal(t, 1, srv.Violations().IdleTimeout)
}

func TestScanProtocolLines(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"GET,1:*\r", []string{"GET,1:*"}},
		{"ACK\r\nCHN,1:MODE,HEAT\r\n", []string{"ACK", "CHN,1:MODE,HEAT"}},
		{"PING\nPING\r", []string{"PING", "PING"}},
		{"SET,1:ONOFF,ON\rGET,1:*\r", []string{"SET,1:ONOFF,ON", "GET,1:*"}},
		{"partial", []string{"partial"}},
	}

	for _, tt := range tests {
		sc := bufio.NewScanner(strings.NewReader(tt.input))
		sc.Split(scanProtocolLines)
		var got []string
		for sc.Scan() {
			got = append(got, sc.Text())
		}
		require.NoError(t, sc.Err())
		assert.Equal(t, tt.want, got, "input %q", tt.input)
	}
}
