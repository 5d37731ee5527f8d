// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 the wmpstat authors

package cmd

import (
	"github.com/spf13/cobra"
)

var (
	// TCP connection flags
	gatewayHost string
	gatewayPort int

	// WebSocket bridge flags
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool
)

var rootCmd = &cobra.Command{
	Use:   "wmpstat",
	Short: "WMP HVAC gateway client and emulator",
	Long: `Wmpstat - a CLI tool for monitoring and controlling HVAC gateway devices
speaking the WMP line protocol.

Provides commands for live monitoring, one-shot control, an interactive
control TUI, and a device emulator for testing clients without hardware.

Connection modes:
  TCP:       --host 192.168.1.50 [--port 3310]
  WebSocket: --url ws://host/path [--username user]

For WebSocket authentication, the password is read from the WMP_PASSWORD
environment variable, or prompted interactively if not set. The --password
flag is intentionally not provided to avoid leaking credentials in shell
history.`,
	Version: "1.0.0",
}

func init() {
	// TCP connection flags
	rootCmd.PersistentFlags().StringVarP(&gatewayHost, "host", "H", "", "Gateway host or IP address")
	rootCmd.PersistentFlags().IntVarP(&gatewayPort, "port", "p", 3310, "Gateway TCP port")

	// WebSocket bridge flags
	rootCmd.PersistentFlags().StringVarP(&wsURL, "url", "u", "", "WebSocket URL (ws:// or wss://)")
	rootCmd.PersistentFlags().StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	rootCmd.PersistentFlags().BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
