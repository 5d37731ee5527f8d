// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 the wmpstat authors

package cmd

import (
	"bufio"
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/term"

	"github.com/hvackit/wmpstat/pkg/client"
)

// ErrConnectionClosed is returned when reading from a closed WebSocket
// connection
var ErrConnectionClosed = fmt.Errorf("websocket connection closed")

// wsConn adapts a WebSocket connection to net.Conn so the client engine
// can use it like a plain TCP socket. Some gateways sit behind a bridge
// that carries the WMP byte stream over WebSocket messages.
type wsConn struct {
	conn      *websocket.Conn
	buf       []byte
	bufOffset int
	closed    bool
}

func (w *wsConn) Read(p []byte) (int, error) {
	// Return immediately if connection is known to be closed
	if w.closed {
		return 0, ErrConnectionClosed
	}

	// If we have buffered data, return it first
	if w.bufOffset < len(w.buf) {
		n := copy(p, w.buf[w.bufOffset:])
		w.bufOffset += n
		return n, nil
	}

	// Read next message from WebSocket (non-recursive loop to avoid
	// stack overflow)
	for {
		messageType, data, err := w.conn.ReadMessage()
		if err != nil {
			// Mark connection as closed to prevent further read attempts
			w.closed = true
			return 0, err
		}

		// Bridges deliver the byte stream as binary or text messages
		if messageType != websocket.BinaryMessage && messageType != websocket.TextMessage {
			continue
		}

		// Buffer the message and return what fits
		w.buf = data
		w.bufOffset = 0
		n := copy(p, w.buf)
		w.bufOffset = n
		return n, nil
	}
}

func (w *wsConn) Write(p []byte) (int, error) {
	err := w.conn.WriteMessage(websocket.BinaryMessage, p)
	if err != nil {
		return 0, err
	}
	return len(p), nil
}

func (w *wsConn) Close() error {
	return w.conn.Close()
}

func (w *wsConn) LocalAddr() net.Addr  { return w.conn.LocalAddr() }
func (w *wsConn) RemoteAddr() net.Addr { return w.conn.RemoteAddr() }

func (w *wsConn) SetDeadline(t time.Time) error {
	if err := w.conn.SetReadDeadline(t); err != nil {
		return err
	}
	return w.conn.SetWriteDeadline(t)
}

func (w *wsConn) SetReadDeadline(t time.Time) error  { return w.conn.SetReadDeadline(t) }
func (w *wsConn) SetWriteDeadline(t time.Time) error { return w.conn.SetWriteDeadline(t) }

// openWebSocketConn opens a WebSocket connection with HTTP Basic auth
func openWebSocketConn(ctx context.Context, wsURL, username, password string, skipSSLVerify bool) (net.Conn, error) {
	// Parse and validate URL
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %v", err)
	}

	// Validate scheme
	switch u.Scheme {
	case "ws", "wss":
		// OK
	default:
		return nil, fmt.Errorf("unsupported URL scheme: %s (use ws:// or wss://)", u.Scheme)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	// Configure TLS for wss://
	if u.Scheme == "wss" {
		dialer.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: skipSSLVerify,
		}
	}

	// Build HTTP headers with Basic auth
	headers := http.Header{}
	if username != "" && password != "" {
		credentials := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
		headers.Set("Authorization", "Basic "+credentials)
	}

	conn, resp, err := dialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("WebSocket connection failed (HTTP %d): %v", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("WebSocket connection failed: %v", err)
	}

	return &wsConn{conn: conn}, nil
}

// getPassword retrieves the password from the environment or prompts
// the user
func getPassword() (string, error) {
	// First check environment variable
	if pw := os.Getenv("WMP_PASSWORD"); pw != "" {
		return pw, nil
	}

	// Prompt user for password (hide input)
	fmt.Fprint(os.Stderr, "Password: ")

	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		// Fallback to regular input if terminal functions fail
		reader := bufio.NewReader(os.Stdin)
		password, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read password: %v", err)
		}
		fmt.Fprintln(os.Stderr) // newline after password
		return strings.TrimSpace(password), nil
	}

	fmt.Fprintln(os.Stderr) // newline after password
	return string(passwordBytes), nil
}

// newClientConfig builds a client configuration from the connection
// flags, choosing TCP or the WebSocket bridge.
func newClientConfig() (client.Config, string, error) {
	if wsURL != "" {
		password := ""
		if wsUsername != "" {
			var err error
			password, err = getPassword()
			if err != nil {
				return client.Config{}, "", err
			}
		}

		cfg := client.Config{
			Dial: func(ctx context.Context, addr string) (net.Conn, error) {
				return openWebSocketConn(ctx, wsURL, wsUsername, password, wsNoSSLVerify)
			},
		}
		return cfg, fmt.Sprintf("WebSocket: %s", wsURL), nil
	}

	if gatewayHost != "" {
		cfg := client.Config{
			Host: gatewayHost,
			Port: gatewayPort,
		}
		return cfg, fmt.Sprintf("TCP: %s:%d", gatewayHost, gatewayPort), nil
	}

	return client.Config{}, "", fmt.Errorf("either --host or --url must be specified")
}
