// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 the wmpstat authors

package client

import (
	"context"
	"time"

	"github.com/hvackit/wmpstat/pkg/wmp"
)

// The background task set: three periodic loops started together once
// the connection is Authenticated and cancelled atomically via the
// connection context on teardown. All of them feed the connection's
// send queue, sharing its ordering and rate limiting with the command
// API.

// runKeepalive queues a heartbeat on a fixed period. The device closes
// connections it considers abandoned; the heartbeat keeps the link up
// through idle stretches.
func (c *Client) runKeepalive(ctx context.Context, queue chan<- *wmp.Message) {
	ticker := time.NewTicker(c.cfg.KeepalivePeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.enqueue(queue, wmp.NewPing())
		}
	}
}

// runAmbientPoll requests the ambient temperature on a short period and
// drives the health monitor: when no ambient reading has arrived within
// the health timeout, the device is presumed unresponsive and the link
// is force-closed even though the TCP socket may still look open.
func (c *Client) runAmbientPoll(ctx context.Context, queue chan<- *wmp.Message) {
	ticker := time.NewTicker(c.cfg.AmbientPollPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.enqueue(queue, wmp.NewGet(wmp.DefaultAddress, wmp.FunctionAmbientTemp))
			c.checkHealth()
		}
	}
}

// runStatusPoll requests every function on a long period, an
// eventual-consistency safety net against missed notifications. The
// first request goes out immediately so the state model fills right
// after discovery.
func (c *Client) runStatusPoll(ctx context.Context, queue chan<- *wmp.Message) {
	ticker := time.NewTicker(c.cfg.StatusPollPeriod)
	defer ticker.Stop()

	c.enqueue(queue, wmp.NewGet(wmp.DefaultAddress, wmp.FunctionWildcard))

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.enqueue(queue, wmp.NewGet(wmp.DefaultAddress, wmp.FunctionWildcard))
		}
	}
}

// checkHealth force-closes the link when the last ambient reading is
// older than the health timeout.
func (c *Client) checkHealth() {
	c.mu.Lock()
	elapsed := time.Since(c.lastAmbient)
	conn := c.conn
	c.mu.Unlock()

	if elapsed > c.cfg.HealthTimeout {
		c.cfg.Logf("[CLIENT] no ambient reading for %.1fs, closing link", elapsed.Seconds())
		c.teardown(conn, ErrHealthTimeout, false)
	}
}
