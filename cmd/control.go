// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 the wmpstat authors

package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/hvackit/wmpstat/pkg/client"
)

var controlCmd = &cobra.Command{
	Use:   "control",
	Short: "Interactive TUI for controlling the gateway",
	Long: `Control an HVAC gateway via an interactive terminal UI.

Features:
  - Live device state display (power, mode, setpoint, ambient, fan, vanes)
  - Setpoint entry with discovered min/max bounds
  - Key bindings for power, mode, fan speed, and vane cycling
  - Event logging
  - Automatic reconnection on connection loss

Mode changes while the unit is off follow the device's confirmation
sequencing before power-on.

Supports both TCP and WebSocket connections.`,
	RunE: runControl,
}

func init() {
	rootCmd.AddCommand(controlCmd)
}

func runControl(cmd *cobra.Command, args []string) error {
	cfg, connInfo, err := newClientConfig()
	if err != nil {
		return err
	}
	cfg.Logf = func(string, ...any) {} // the event log replaces stderr output

	c := client.New(cfg)
	defer c.Stop()

	m := initialControlModel(c, connInfo)
	p := tea.NewProgram(m, tea.WithAltScreen())

	// The engine's subscriber callbacks drive the TUI: every state
	// change or error becomes a Bubble Tea message.
	c.Subscribe(func() {
		p.Send(stateChangedMsg{})
	})
	c.SubscribeErrors(func(err error) {
		p.Send(clientErrorMsg{err: err})
	})

	if err := c.Connect(); err != nil {
		// The engine keeps retrying; the TUI shows the state.
		p.Send(clientErrorMsg{err: err})
	}

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %v", err)
	}
	return nil
}
