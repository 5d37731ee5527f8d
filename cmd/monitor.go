// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 the wmpstat authors

package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/hvackit/wmpstat/pkg/client"
	"github.com/hvackit/wmpstat/pkg/taplog"
	"github.com/hvackit/wmpstat/pkg/wmp"
)

var monitorLogFile string

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Display the gateway's wire traffic in human-readable format",
	Long: `Connect to the gateway, run capability discovery, and continuously
decode and display protocol lines as they arrive.

Each inbound line is shown with timestamp, verb, and decoded payload;
outbound commands are shown as sent. With --log-file, every line in both
directions is additionally recorded to a CBOR session log for later
analysis.

Supports both TCP and WebSocket connections.`,
	RunE: runMonitor,
}

func init() {
	monitorCmd.Flags().StringVar(&monitorLogFile, "log-file", "", "Write a CBOR session log to this file")
	rootCmd.AddCommand(monitorCmd)
}

func runMonitor(cmd *cobra.Command, args []string) error {
	cfg, connInfo, err := newClientConfig()
	if err != nil {
		return err
	}

	var tap *taplog.Writer
	if monitorLogFile != "" {
		tap, err = taplog.Create(monitorLogFile)
		if err != nil {
			return err
		}
		defer tap.Close()
	}

	cfg.OnWireEvent = func(outbound bool, line string) {
		if outbound {
			fmt.Printf("-> %s\n", line)
		} else if m, err := wmp.DecodeLine(line); err == nil {
			m.Timestamp = time.Now()
			fmt.Print(wmp.FormatMessage(m))
		} else {
			fmt.Printf("[UNRECOGNIZED] %q\n", line)
		}
		if tap != nil {
			dir := taplog.DirIn
			if outbound {
				dir = taplog.DirOut
			}
			tap.Record(dir, line)
		}
	}

	c := client.New(cfg)
	defer c.Stop()

	fmt.Printf("Wmpstat - Wire Monitor\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	if err := c.Connect(); err != nil {
		return err
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	<-interrupt

	c.Stop()
	c.WaitForDisconnect(5 * time.Second)
	return nil
}
