// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 the wmpstat authors

package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const identityLine = "ID:IS-IR-WMP-1,001DC9A2C911,192.168.100.246,ASCII,v0.0.1,-44"

// fakeDevice is the device end of an in-memory pipe. It collects the
// client's commands and lets tests inject replies.
type fakeDevice struct {
	conn  net.Conn
	lines chan string
}

func newFakeDevice(conn net.Conn) *fakeDevice {
	f := &fakeDevice{conn: conn, lines: make(chan string, 64)}
	go f.readLoop()
	return f
}

func (f *fakeDevice) readLoop() {
	scanner := bufio.NewScanner(f.conn)
	scanner.Split(func(data []byte, atEOF bool) (int, []byte, error) {
		for i, b := range data {
			if b == '\r' {
				return i + 1, data[:i], nil
			}
		}
		if atEOF && len(data) > 0 {
			return len(data), data, nil
		}
		return 0, nil, nil
	})
	for scanner.Scan() {
		f.lines <- scanner.Text()
	}
	close(f.lines)
}

func (f *fakeDevice) send(t *testing.T, line string) {
	t.Helper()
	_, err := f.conn.Write([]byte(line + "\r\n"))
	require.NoError(t, err)
}

// waitFor consumes commands until want arrives, failing on timeout.
// Other commands in between are tolerated: the background loops
// interleave with whatever the test is waiting on.
func (f *fakeDevice) waitFor(t *testing.T, want string) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case line, ok := <-f.lines:
			if !ok {
				t.Fatalf("connection closed while waiting for %q", want)
			}
			if line == want {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %q", want)
		}
	}
}

// waitForAll consumes commands until every wanted line has been seen,
// in any order: the background loops interleave with discovery.
func (f *fakeDevice) waitForAll(t *testing.T, wants ...string) {
	t.Helper()
	missing := make(map[string]bool, len(wants))
	for _, w := range wants {
		missing[w] = true
	}
	deadline := time.After(2 * time.Second)
	for len(missing) > 0 {
		select {
		case line, ok := <-f.lines:
			if !ok {
				t.Fatalf("connection closed while waiting for %v", missing)
			}
			delete(missing, line)
		case <-deadline:
			t.Fatalf("timed out waiting for %v", missing)
		}
	}
}

// newTestClient wires a client to a fakeDevice over net.Pipe. Each
// Connect gets a fresh pipe; devices are delivered on the returned
// channel.
func newTestClient(t *testing.T, cfg Config) (*Client, chan *fakeDevice) {
	t.Helper()
	devices := make(chan *fakeDevice, 4)
	cfg.Logf = t.Logf
	cfg.CommandSpacing = time.Millisecond
	cfg.Dial = func(ctx context.Context, addr string) (net.Conn, error) {
		clientEnd, deviceEnd := net.Pipe()
		devices <- newFakeDevice(deviceEnd)
		return clientEnd, nil
	}
	c := New(cfg)
	t.Cleanup(c.Stop)
	return c, devices
}

func TestConnectRunsDiscoverySequence(t *testing.T) {
	c, devices := newTestClient(t, Config{DisableAutoReconnect: true})
	require.NoError(t, c.Connect())
	dev := <-devices

	assert.Equal(t, Connecting, c.State())

	dev.waitFor(t, "ID")
	dev.send(t, identityLine)

	require.Eventually(t, func() bool {
		return c.State() == Authenticated
	}, time.Second, time.Millisecond)

	id, ok := c.Identity()
	require.True(t, ok)
	assert.Equal(t, "IS-IR-WMP-1", id.Model)
	assert.Equal(t, "001DC9A2C911", id.MAC)
	assert.Equal(t, -44, id.RSSI)

	dev.waitForAll(t,
		"LIMITS:SETPTEMP", "LIMITS:FANSP", "LIMITS:MODE",
		"LIMITS:VANEUD", "LIMITS:VANELR", "GET,1:*",
	)
}

func TestConnectIsNoOpWhileConnected(t *testing.T) {
	c, devices := newTestClient(t, Config{DisableAutoReconnect: true})
	require.NoError(t, c.Connect())
	<-devices

	require.NoError(t, c.Connect())
	select {
	case <-devices:
		t.Fatal("second Connect dialed again")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestChangeNotificationsUpdateState(t *testing.T) {
	c := New(Config{Logf: t.Logf, DisableAutoReconnect: true})

	c.handleLine("CHN,1:SETPTEMP,225")
	got, ok := c.Setpoint()
	require.True(t, ok)
	assert.Equal(t, 22.5, got)

	c.handleLine("CHN,1:ONOFF,ON")
	power, ok := c.Power()
	require.True(t, ok)
	assert.Equal(t, "ON", power)

	// Notifications for other addresses are not ours.
	c.handleLine("CHN,2:SETPTEMP,999")
	got, _ = c.Setpoint()
	assert.Equal(t, 22.5, got)
}

func TestNullTemperatureSentinel(t *testing.T) {
	c := New(Config{Logf: t.Logf, DisableAutoReconnect: true})

	c.handleLine("CHN,1:AMBTEMP,215")
	_, ok := c.AmbientTemp()
	require.True(t, ok)

	// The null sentinel clears the reading instead of being stored.
	c.handleLine("CHN,1:AMBTEMP,32768")
	_, ok = c.AmbientTemp()
	assert.False(t, ok)
}

func TestLimitsRepliesPopulateCapabilities(t *testing.T) {
	c := New(Config{Logf: t.Logf, DisableAutoReconnect: true})

	c.handleLine("LIMITS:MODE,[AUTO,HEAT,DRY,COOL,FAN]")
	c.handleLine("LIMITS:VANEUD,[AUTO,1,2,3]")
	c.handleLine("LIMITS:SETPTEMP,[180,300]")

	caps := c.Capabilities()
	assert.Equal(t, []string{"AUTO", "HEAT", "DRY", "COOL", "FAN"}, caps.Modes)
	assert.Equal(t, []string{"AUTO", "1", "2", "3"}, caps.VaneUD)

	min, max, ok := c.SetpointRange()
	require.True(t, ok)
	assert.Equal(t, 18.0, min)
	assert.Equal(t, 30.0, max)
}

// A mode change notification triggers a re-query of the setpoint
// limits: the bounds can depend on the active mode.
func TestModeChangeRequeriesSetpointLimits(t *testing.T) {
	c, devices := newTestClient(t, Config{DisableAutoReconnect: true})
	require.NoError(t, c.Connect())
	dev := <-devices

	dev.waitFor(t, "ID")
	dev.send(t, identityLine)
	dev.waitFor(t, "LIMITS:VANELR")

	dev.send(t, "CHN,1:MODE,HEAT")
	dev.waitFor(t, "LIMITS:SETPTEMP")

	mode, ok := c.Mode()
	require.True(t, ok)
	assert.Equal(t, "HEAT", mode)
}

// Commands must hit the wire in the order they were issued: the writer
// drains one ordered queue, so rapid back-to-back calls cannot overtake
// each other even with rate-limit spacing in between.
func TestCommandsTransmitInRequestOrder(t *testing.T) {
	c, devices := newTestClient(t, Config{DisableAutoReconnect: true})
	require.NoError(t, c.Connect())
	dev := <-devices

	dev.waitFor(t, "ID")
	dev.send(t, identityLine)
	dev.waitFor(t, "LIMITS:VANELR")

	const pairs = 20
	var want []string
	for i := 0; i < pairs; i++ {
		c.SetVaneUpDown(fmt.Sprintf("%d", i))
		c.SetFanSpeed(fmt.Sprintf("%d", i))
		want = append(want,
			fmt.Sprintf("SET,1:VANEUD,%d", i),
			fmt.Sprintf("SET,1:FANSP,%d", i),
		)
	}

	// The background loops interleave GET and PING traffic; only the
	// relative order of the SETs is under test.
	var got []string
	deadline := time.After(5 * time.Second)
	for len(got) < len(want) {
		select {
		case line, ok := <-dev.lines:
			if !ok {
				t.Fatalf("connection closed after %d of %d commands", len(got), len(want))
			}
			if len(line) >= 4 && line[:4] == "SET," {
				got = append(got, line)
			}
		case <-deadline:
			t.Fatalf("timed out after %d of %d commands", len(got), len(want))
		}
	}
	assert.Equal(t, want, got)
}

// A read loop from a torn-down connection can report its failure after
// a new connection is already up. The late failure must close only its
// own socket, never the live link.
func TestTeardownIgnoresStaleConnection(t *testing.T) {
	c, devices := newTestClient(t, Config{DisableAutoReconnect: true})
	require.NoError(t, c.Connect())
	dev := <-devices

	dev.waitFor(t, "ID")
	dev.send(t, identityLine)
	require.Eventually(t, func() bool {
		return c.State() == Authenticated
	}, time.Second, time.Millisecond)

	stale, _ := net.Pipe()
	c.teardown(stale, errors.New("read error from a previous session"), false)

	assert.Equal(t, Authenticated, c.State())
	c.SetFanSpeed("2")
	dev.waitFor(t, "SET,1:FANSP,2")
}

// SetMode on a powered-off unit sends the mode change first and powers
// on only after the device confirms it. When confirmation never comes,
// the power-on must be abandoned and the timeout reported.
func TestSetModeTimeoutLeavesUnitOff(t *testing.T) {
	var timedOut atomic.Bool
	c, devices := newTestClient(t, Config{
		DisableAutoReconnect: true,
		ModeConfirmPoll:      2 * time.Millisecond,
		ModeConfirmTimeout:   20 * time.Millisecond,
	})
	c.SubscribeErrors(func(err error) {
		if errors.Is(err, ErrModeConfirmTimeout) {
			timedOut.Store(true)
		}
	})

	require.NoError(t, c.Connect())
	dev := <-devices
	dev.waitFor(t, "ID")
	dev.send(t, identityLine)
	dev.send(t, "CHN,1:ONOFF,OFF")
	require.Eventually(t, func() bool {
		power, ok := c.Power()
		return ok && power == "OFF"
	}, time.Second, time.Millisecond)

	c.SetMode("COOL")
	dev.waitFor(t, "SET,1:MODE,COOL")

	// The device swallows the mode change without confirming it. The
	// client must give up without ever powering the unit on.
	deadline := time.After(150 * time.Millisecond)
	for {
		select {
		case line := <-dev.lines:
			if line == "SET,1:ONOFF,ON" {
				t.Fatal("unit powered on despite unconfirmed mode change")
			}
		case <-deadline:
			assert.True(t, timedOut.Load())
			return
		}
	}
}

func TestWaitForDisconnect(t *testing.T) {
	c, devices := newTestClient(t, Config{DisableAutoReconnect: true})

	// Starts disconnected: the token is already set.
	assert.True(t, c.WaitForDisconnect(10*time.Millisecond))

	require.NoError(t, c.Connect())
	<-devices
	assert.False(t, c.WaitForDisconnect(20*time.Millisecond))

	c.Disconnect()
	assert.True(t, c.WaitForDisconnect(time.Second))
	assert.Equal(t, Disconnected, c.State())
}

func TestHealthMonitorForceClosesSilentLink(t *testing.T) {
	var healthErr atomic.Bool
	c, devices := newTestClient(t, Config{
		DisableAutoReconnect: true,
		AmbientPollPeriod:    5 * time.Millisecond,
		HealthTimeout:        25 * time.Millisecond,
	})
	c.SubscribeErrors(func(err error) {
		if err == ErrHealthTimeout {
			healthErr.Store(true)
		}
	})

	require.NoError(t, c.Connect())
	dev := <-devices
	dev.waitFor(t, "ID")
	dev.send(t, identityLine)

	// The device never answers the ambient polls; the watchdog must
	// conclude the link is dead.
	require.Eventually(t, func() bool {
		return c.State() == Disconnected
	}, 2*time.Second, time.Millisecond)
	assert.True(t, healthErr.Load())
}

func TestAutoReconnectAfterUnexpectedDrop(t *testing.T) {
	c, devices := newTestClient(t, Config{ReconnectInterval: 20 * time.Millisecond})
	require.NoError(t, c.Connect())
	dev := <-devices

	// Device drops the link; the client must dial again after the
	// fixed reconnect interval.
	dev.conn.Close()

	select {
	case <-devices:
	case <-time.After(2 * time.Second):
		t.Fatal("client did not reconnect")
	}
}

func TestStopSuppressesReconnect(t *testing.T) {
	c, devices := newTestClient(t, Config{ReconnectInterval: 10 * time.Millisecond})
	require.NoError(t, c.Connect())
	<-devices

	c.Stop()
	require.True(t, c.WaitForDisconnect(time.Second))

	select {
	case <-devices:
		t.Fatal("client reconnected after Stop")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestCommandWhileDisconnected(t *testing.T) {
	c := New(Config{Logf: t.Logf, DisableAutoReconnect: true})

	var got atomic.Value
	c.SubscribeErrors(func(err error) { got.Store(err) })

	c.SetTemperature(22.0)
	assert.Equal(t, ErrNotConnected, got.Load())
}

func TestConnectionStateString(t *testing.T) {
	assert.Equal(t, "disconnected", Disconnected.String())
	assert.Equal(t, "connecting", Connecting.String())
	assert.Equal(t, "authenticated", Authenticated.String())
}
