// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 the wmpstat authors

// Package client implements the WMP connection engine: a persistent
// rate-limited connection to one gateway device, with capability
// discovery, live state tracking, background polling, and a watchdog
// that force-closes a link the device has silently abandoned.
package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/hvackit/wmpstat/pkg/wmp"
)

var (
	// ErrNotConnected is reported when a command is issued with no
	// active connection.
	ErrNotConnected = errors.New("client: not connected")
	// ErrModeConfirmTimeout is reported when a mode change is not
	// confirmed by the device before the deadline; the pending power-on
	// is abandoned.
	ErrModeConfirmTimeout = errors.New("client: mode change not confirmed in time")
	// ErrHealthTimeout is reported when no ambient reading arrives
	// within the health timeout and the link is force-closed.
	ErrHealthTimeout = errors.New("client: device unresponsive, no ambient reading")
	// ErrDeviceError is reported when the device answers a command
	// with ERR.
	ErrDeviceError = errors.New("client: device replied ERR")
)

// DialFunc opens the transport. The default dials TCP; the CLI layer
// substitutes a WebSocket-bridged transport with the same signature.
type DialFunc func(ctx context.Context, addr string) (net.Conn, error)

// commandQueueSize bounds the per-connection send queue. At the default
// one-second spacing a full queue is minutes of backlog; overflow is
// logged and dropped rather than blocking the caller.
const commandQueueSize = 256

// Config configures a Client. Zero durations take the defaults.
type Config struct {
	Host string
	Port int

	// Dial overrides the transport; nil means plain TCP.
	Dial DialFunc

	DialTimeout        time.Duration // default 10s
	CommandSpacing     time.Duration // min gap between commands, default 1s
	KeepalivePeriod    time.Duration // default 60s
	AmbientPollPeriod  time.Duration // default 10s
	StatusPollPeriod   time.Duration // default 300s
	HealthTimeout      time.Duration // default 30s
	ModeConfirmPoll    time.Duration // default 1s
	ModeConfirmTimeout time.Duration // default 5s
	ReconnectInterval  time.Duration // fixed retry interval, default 10s

	// DisableAutoReconnect turns off the automatic reconnect loop.
	// One-shot CLI commands set this; the monitor and TUI do not.
	DisableAutoReconnect bool

	// OnWireEvent, when set, observes every line sent and received,
	// without terminators. Used for monitoring and session tap logs.
	OnWireEvent func(outbound bool, line string)

	// Logf receives client log output; defaults to log.Printf.
	Logf func(format string, args ...any)
}

func (c Config) withDefaults() Config {
	if c.DialTimeout == 0 {
		c.DialTimeout = 10 * time.Second
	}
	if c.CommandSpacing == 0 {
		c.CommandSpacing = time.Second
	}
	if c.KeepalivePeriod == 0 {
		c.KeepalivePeriod = 60 * time.Second
	}
	if c.AmbientPollPeriod == 0 {
		c.AmbientPollPeriod = 10 * time.Second
	}
	if c.StatusPollPeriod == 0 {
		c.StatusPollPeriod = 300 * time.Second
	}
	if c.HealthTimeout == 0 {
		c.HealthTimeout = 30 * time.Second
	}
	if c.ModeConfirmPoll == 0 {
		c.ModeConfirmPoll = time.Second
	}
	if c.ModeConfirmTimeout == 0 {
		c.ModeConfirmTimeout = 5 * time.Second
	}
	if c.ReconnectInterval == 0 {
		c.ReconnectInterval = 10 * time.Second
	}
	if c.Logf == nil {
		c.Logf = log.Printf
	}
	return c
}

// Client is the connection engine for one gateway device. All outbound
// commands funnel through one ordered queue drained by a single
// rate-limited writer per connection; inbound lines are decoded on a
// dedicated read loop and dispatched to the device state model.
type Client struct {
	cfg       Config
	device    *deviceState
	limiter   *rateLimiter
	observers *observerRegistry

	mu             sync.Mutex
	state          ConnectionState
	conn           net.Conn
	connCtx        context.Context
	connCancel     context.CancelFunc
	sendQ          chan *wmp.Message
	disconnected   chan struct{}
	stopped        bool
	reconnectTimer *time.Timer
	lastAmbient    time.Time
	deviceTime     time.Time
	hasDeviceTime  bool
}

// New creates a client for one device. The client starts Disconnected;
// call Connect to bring the link up.
func New(cfg Config) *Client {
	cfg = cfg.withDefaults()
	closed := make(chan struct{})
	close(closed)
	return &Client{
		cfg:          cfg,
		device:       newDeviceState(),
		limiter:      newRateLimiter(cfg.CommandSpacing),
		observers:    newObserverRegistry(cfg.Logf),
		state:        Disconnected,
		disconnected: closed,
	}
}

// State returns the current connection state.
func (c *Client) State() ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect dials the device and starts discovery. It is a no-op when a
// connection attempt is already in progress or established.
func (c *Client) Connect() error {
	c.mu.Lock()
	if c.state != Disconnected {
		c.mu.Unlock()
		return nil
	}
	c.state = Connecting
	c.stopped = false
	c.disconnected = make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())
	c.connCtx, c.connCancel = ctx, cancel
	queue := make(chan *wmp.Message, commandQueueSize)
	c.sendQ = queue
	c.mu.Unlock()

	c.limiter.reset()
	c.device.reset()
	c.observers.notifyUpdate()

	// Discovery heads the queue before any user command can slip in.
	for _, m := range discoverySequence() {
		queue <- m
	}

	addr := fmt.Sprintf("%s:%d", c.cfg.Host, c.cfg.Port)
	c.cfg.Logf("[CLIENT] connecting to %s", addr)

	dial := c.cfg.Dial
	if dial == nil {
		dial = func(ctx context.Context, addr string) (net.Conn, error) {
			d := net.Dialer{Timeout: c.cfg.DialTimeout}
			return d.DialContext(ctx, "tcp", addr)
		}
	}
	conn, err := dial(ctx, addr)
	if err != nil {
		err = fmt.Errorf("client: dial %s: %w", addr, err)
		c.teardown(nil, err, false)
		return err
	}

	c.mu.Lock()
	if c.state != Connecting || c.connCtx != ctx {
		// Disconnect or Stop won the race against the dial; the fresh
		// socket belongs to nobody.
		c.mu.Unlock()
		conn.Close()
		return nil
	}
	c.conn = conn
	c.mu.Unlock()

	go c.readLoop(conn)
	go c.runWriter(ctx, conn, queue)
	return nil
}

// Disconnect tears the socket down without waiting for a graceful
// close. Automatic reconnection does not follow an explicit disconnect.
func (c *Client) Disconnect() {
	c.stopReconnectTimer()
	c.teardown(nil, nil, true)
}

// Stop is Disconnect for final teardown.
func (c *Client) Stop() {
	c.mu.Lock()
	c.stopped = true
	c.mu.Unlock()
	c.stopReconnectTimer()
	c.teardown(nil, nil, true)
}

// WaitForDisconnect blocks until the socket is fully closed or the
// timeout elapses, reporting whether teardown completed in time. Socket
// close is asynchronous relative to requesting it, and the device's
// minimum-reconnect rule requires knowing the moment the link actually
// dropped.
func (c *Client) WaitForDisconnect(timeout time.Duration) bool {
	c.mu.Lock()
	token := c.disconnected
	c.mu.Unlock()

	select {
	case <-token:
		return true
	case <-time.After(timeout):
		return false
	}
}

// Subscribe registers a state-change subscriber.
func (c *Client) Subscribe(fn func()) SubscriberHandle {
	return c.observers.subscribeUpdates(fn)
}

// SubscribeErrors registers an error subscriber.
func (c *Client) SubscribeErrors(fn func(error)) SubscriberHandle {
	return c.observers.subscribeErrors(fn)
}

// Unsubscribe removes a subscriber by handle.
func (c *Client) Unsubscribe(h SubscriberHandle) {
	c.observers.unsubscribe(h)
}

// teardown closes the connection and resets to Disconnected. failing is
// the connection that triggered the teardown; nil means the current one.
// A failing connection that is no longer current belongs to an earlier
// session and must not take the live link down. userRequested suppresses
// the automatic reconnect that follows an unexpected drop.
func (c *Client) teardown(failing net.Conn, err error, userRequested bool) {
	c.mu.Lock()
	if c.state == Disconnected || (failing != nil && failing != c.conn) {
		c.mu.Unlock()
		if failing != nil {
			failing.Close()
		}
		return
	}
	c.state = Disconnected
	conn := c.conn
	c.conn = nil
	cancel := c.connCancel
	c.connCancel = nil
	token := c.disconnected
	stopped := c.stopped
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		conn.Close()
	}
	close(token)

	if err != nil {
		c.cfg.Logf("[CLIENT] connection lost: %v", err)
		c.observers.notifyError(err)
	} else {
		c.cfg.Logf("[CLIENT] disconnected")
	}
	c.observers.notifyUpdate()

	if err != nil && !userRequested && !stopped && !c.cfg.DisableAutoReconnect {
		c.scheduleReconnect()
	}
}

func (c *Client) scheduleReconnect() {
	c.cfg.Logf("[CLIENT] reconnecting in %s", c.cfg.ReconnectInterval)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	c.reconnectTimer = time.AfterFunc(c.cfg.ReconnectInterval, func() {
		c.Connect()
	})
}

func (c *Client) stopReconnectTimer() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
		c.reconnectTimer = nil
	}
}

// ============================================================================
// Outbound path
// ============================================================================

// send transmits one message through the rate limiter onto a specific
// connection.
func (c *Client) send(ctx context.Context, conn net.Conn, m *wmp.Message) error {
	if err := c.limiter.wait(ctx); err != nil {
		return err
	}

	data, err := wmp.EncodeClient(m)
	if err != nil {
		return err
	}
	if _, err := conn.Write(data); err != nil {
		return fmt.Errorf("client: write: %w", err)
	}
	if c.cfg.OnWireEvent != nil {
		c.cfg.OnWireEvent(true, strings.TrimRight(string(data), "\r\n"))
	}
	return nil
}

// runWriter drains the per-connection queue onto the wire. The single
// writer is what makes transmission order equal request order: the
// rate limiter only spaces messages out, the queue sequences them.
func (c *Client) runWriter(ctx context.Context, conn net.Conn, queue <-chan *wmp.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case m := <-queue:
			if err := c.send(ctx, conn, m); err != nil {
				if !errors.Is(err, context.Canceled) {
					c.cfg.Logf("[CLIENT] send failed: %v", err)
					c.observers.notifyError(err)
				}
				return
			}
		}
	}
}

// command queues one command without blocking the caller. Commands are
// transmitted in the order queued, each at least CommandSpacing after
// the previous.
func (c *Client) command(m *wmp.Message) {
	c.mu.Lock()
	queue := c.sendQ
	connected := c.state != Disconnected
	c.mu.Unlock()

	if !connected {
		c.observers.notifyError(ErrNotConnected)
		return
	}
	c.enqueue(queue, m)
}

// enqueue adds a message to a connection's send queue; a full queue
// drops the message rather than blocking.
func (c *Client) enqueue(queue chan<- *wmp.Message, m *wmp.Message) {
	select {
	case queue <- m:
	default:
		c.cfg.Logf("[CLIENT] send queue full, dropping %s", m.Verb)
	}
}

// discoverySequence is the one-shot discovery run on every connection:
// identification, then the capability limits.
func discoverySequence() []*wmp.Message {
	return []*wmp.Message{
		wmp.NewIDRequest(),
		wmp.NewLimitsQuery(wmp.FunctionSetpoint),
		wmp.NewLimitsQuery(wmp.FunctionFanSpeed),
		wmp.NewLimitsQuery(wmp.FunctionMode),
		wmp.NewLimitsQuery(wmp.FunctionVaneUpDown),
		wmp.NewLimitsQuery(wmp.FunctionVaneLeftRight),
	}
}

// ============================================================================
// Inbound path
// ============================================================================

func (c *Client) readLoop(conn net.Conn) {
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		if c.cfg.OnWireEvent != nil {
			c.cfg.OnWireEvent(false, line)
		}
		c.handleLine(line)
	}

	err := scanner.Err()
	if err == nil {
		err = errors.New("client: connection closed by device")
	}
	c.teardown(conn, err, false)
}

func (c *Client) handleLine(line string) {
	m, err := wmp.DecodeLine(line)
	if err != nil {
		c.cfg.Logf("[CLIENT] ignoring unrecognized line %q", line)
		return
	}

	switch m.Verb {
	case wmp.VerbID:
		if m.Identity != nil {
			c.device.setIdentity(*m.Identity)
			c.onAuthenticated()
			c.observers.notifyUpdate()
		}

	case wmp.VerbChange:
		c.handleChange(m)

	case wmp.VerbLimits:
		c.handleLimits(m)

	case wmp.VerbConfig:
		c.handleConfig(m)

	case wmp.VerbErr:
		c.cfg.Logf("[CLIENT] device replied ERR")
		c.observers.notifyError(ErrDeviceError)

	case wmp.VerbAck, wmp.VerbPong:
		// Expected replies to SET and PING; nothing to record.
	}
}

// handleChange applies a change notification. A mode change triggers a
// re-query of the setpoint limits, which can be mode-dependent.
func (c *Client) handleChange(m *wmp.Message) {
	if m.Address != wmp.DefaultAddress {
		return
	}

	previous, had := c.device.setValue(m.Function, m.Value)

	if m.Function == wmp.FunctionAmbientTemp {
		c.mu.Lock()
		c.lastAmbient = time.Now()
		c.mu.Unlock()
	}

	if m.Function == wmp.FunctionMode && (!had || previous != m.Value) {
		c.command(wmp.NewLimitsQuery(wmp.FunctionSetpoint))
	}

	c.observers.notifyUpdate()
}

func (c *Client) handleLimits(m *wmp.Message) {
	if m.Values == nil {
		return
	}
	if m.Function == wmp.FunctionSetpoint {
		min, max, err := wmp.ParseSetpointRange(m.Values)
		if err != nil {
			c.cfg.Logf("[CLIENT] ignoring malformed setpoint limits %v", m.Values)
			return
		}
		c.device.setSetpointBounds(min, max)
	} else {
		c.device.setCapabilityList(m.Function, m.Values)
	}
	c.observers.notifyUpdate()
}

func (c *Client) handleConfig(m *wmp.Message) {
	if m.Function != wmp.ConfigDateTime || m.Value == "" {
		return
	}
	t, err := time.ParseInLocation(wmp.DateTimeLayout, m.Value, time.UTC)
	if err != nil {
		c.cfg.Logf("[CLIENT] ignoring malformed datetime %q", m.Value)
		return
	}
	c.mu.Lock()
	c.deviceTime = t
	c.hasDeviceTime = true
	c.mu.Unlock()
	c.observers.notifyUpdate()
}

// onAuthenticated transitions to Authenticated on the first identity
// reply of a connection and starts the background task set.
func (c *Client) onAuthenticated() {
	c.mu.Lock()
	if c.state != Connecting {
		c.mu.Unlock()
		return
	}
	c.state = Authenticated
	c.lastAmbient = time.Now()
	ctx := c.connCtx
	queue := c.sendQ
	c.mu.Unlock()

	c.cfg.Logf("[CLIENT] authenticated")
	go c.runKeepalive(ctx, queue)
	go c.runAmbientPoll(ctx, queue)
	go c.runStatusPoll(ctx, queue)
}

// ============================================================================
// Command API
// ============================================================================

// SetTemperature sets the target temperature in decimal degrees.
func (c *Client) SetTemperature(degrees float64) {
	c.command(wmp.NewSet(wmp.DefaultAddress, wmp.FunctionSetpoint, wmp.FormatTenths(degrees)))
}

// SetFanSpeed sets the fan speed to one of the discovered values.
func (c *Client) SetFanSpeed(speed string) {
	c.command(wmp.NewSet(wmp.DefaultAddress, wmp.FunctionFanSpeed, speed))
}

// SetVaneUpDown sets the vertical vane position.
func (c *Client) SetVaneUpDown(position string) {
	c.command(wmp.NewSet(wmp.DefaultAddress, wmp.FunctionVaneUpDown, position))
}

// SetVaneLeftRight sets the horizontal vane position.
func (c *Client) SetVaneLeftRight(position string) {
	c.command(wmp.NewSet(wmp.DefaultAddress, wmp.FunctionVaneLeftRight, position))
}

// PowerOn turns the unit on.
func (c *Client) PowerOn() {
	c.command(wmp.NewSet(wmp.DefaultAddress, wmp.FunctionOnOff, wmp.PowerOn))
}

// PowerOff turns the unit off.
func (c *Client) PowerOff() {
	c.command(wmp.NewSet(wmp.DefaultAddress, wmp.FunctionOnOff, wmp.PowerOff))
}

// SetMode sets the operation mode. When the unit is off, the mode
// change is sent first and power-on follows only after the device
// confirms the new mode: the device's change notifications arrive in
// arbitrary order, and powering on early risks starting in the previous
// mode. An unconfirmed change abandons the power-on and reports
// ErrModeConfirmTimeout.
func (c *Client) SetMode(mode string) {
	c.mu.Lock()
	ctx := c.connCtx
	connected := c.state != Disconnected
	c.mu.Unlock()

	if !connected {
		c.observers.notifyError(ErrNotConnected)
		return
	}

	power, _ := c.device.value(wmp.FunctionOnOff)
	if power != wmp.PowerOff {
		c.command(wmp.NewSet(wmp.DefaultAddress, wmp.FunctionMode, mode))
		return
	}

	c.command(wmp.NewSet(wmp.DefaultAddress, wmp.FunctionMode, mode))

	go func() {
		confirm := &modeConfirm{
			poll:    c.cfg.ModeConfirmPoll,
			timeout: c.cfg.ModeConfirmTimeout,
			check: func() bool {
				v, ok := c.device.value(wmp.FunctionMode)
				return ok && v == mode
			},
		}
		if confirm.run(ctx) != confirmConfirmed {
			c.cfg.Logf("[CLIENT] mode change to %s not confirmed, leaving unit off", mode)
			c.observers.notifyError(ErrModeConfirmTimeout)
			return
		}
		c.command(wmp.NewSet(wmp.DefaultAddress, wmp.FunctionOnOff, wmp.PowerOn))
	}()
}

// QueryDateTime requests the device's internal clock; the reply arrives
// as a state update readable via DeviceTime.
func (c *Client) QueryDateTime() {
	c.command(wmp.NewConfigQuery(wmp.ConfigDateTime))
}

// SetDateTime sets the device's internal clock.
func (c *Client) SetDateTime(t time.Time) {
	c.command(wmp.NewConfigSet(wmp.ConfigDateTime, t.Format(wmp.DateTimeLayout)))
}

// ============================================================================
// Observation surface
// ============================================================================

// Identity returns the device identification, once discovered.
func (c *Client) Identity() (wmp.Identity, bool) {
	return c.device.getIdentity()
}

// Value returns the last observed value of a function.
func (c *Client) Value(function string) (string, bool) {
	return c.device.value(function)
}

// Power returns the last observed power state ("ON"/"OFF").
func (c *Client) Power() (string, bool) {
	return c.device.value(wmp.FunctionOnOff)
}

// Mode returns the last observed operation mode.
func (c *Client) Mode() (string, bool) {
	return c.device.value(wmp.FunctionMode)
}

// FanSpeed returns the last observed fan speed.
func (c *Client) FanSpeed() (string, bool) {
	return c.device.value(wmp.FunctionFanSpeed)
}

// VaneUpDown returns the last observed vertical vane position.
func (c *Client) VaneUpDown() (string, bool) {
	return c.device.value(wmp.FunctionVaneUpDown)
}

// VaneLeftRight returns the last observed horizontal vane position.
func (c *Client) VaneLeftRight() (string, bool) {
	return c.device.value(wmp.FunctionVaneLeftRight)
}

// Setpoint returns the target temperature in decimal degrees.
func (c *Client) Setpoint() (float64, bool) {
	v, ok := c.device.value(wmp.FunctionSetpoint)
	if !ok {
		return 0, false
	}
	return wmp.ParseTenths(v)
}

// AmbientTemp returns the ambient temperature in decimal degrees.
func (c *Client) AmbientTemp() (float64, bool) {
	v, ok := c.device.value(wmp.FunctionAmbientTemp)
	if !ok {
		return 0, false
	}
	return wmp.ParseTenths(v)
}

// SetpointRange returns the discovered setpoint bounds in decimal
// degrees.
func (c *Client) SetpointRange() (min, max float64, ok bool) {
	caps := c.device.capabilities()
	if caps.SetpointMin == 0 && caps.SetpointMax == 0 {
		return 0, 0, false
	}
	return float64(caps.SetpointMin) / 10, float64(caps.SetpointMax) / 10, true
}

// Capabilities returns the discovered capability lists.
func (c *Client) Capabilities() Capabilities {
	return c.device.capabilities()
}

// DeviceTime returns the device clock value from the most recent
// CFG:DATETIME reply.
func (c *Client) DeviceTime() (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deviceTime, c.hasDeviceTime
}
