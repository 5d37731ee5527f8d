// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 the wmpstat authors

package cmd

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hvackit/wmpstat/pkg/wmp"
)

var (
	pingTimeout int
	pingCount   int
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Test gateway reachability by sending PING commands",
	Long: `Send PING commands to the gateway and wait for PONG replies.

This command tests bidirectional communication with the gateway without
touching device state. It is useful for verifying:
  - TCP or WebSocket connection is established
  - HTTP Basic authentication works (WebSocket mode)
  - The gateway is processing commands
  - Bidirectional line flow works

Exit codes:
  0 - All pings successful
  1 - One or more pings failed/timed out
  2 - Connection error`,
	RunE: runPing,
}

func init() {
	rootCmd.AddCommand(pingCmd)
	pingCmd.Flags().IntVar(&pingTimeout, "timeout", 5, "Timeout in seconds for each ping")
	pingCmd.Flags().IntVar(&pingCount, "count", 3, "Number of pings to send")
}

func runPing(cmd *cobra.Command, args []string) error {
	cfg, connInfo, err := newClientConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var conn net.Conn
	if cfg.Dial != nil {
		conn, err = cfg.Dial(ctx, "")
	} else {
		d := net.Dialer{Timeout: 10 * time.Second}
		conn, err = d.DialContext(ctx, "tcp", fmt.Sprintf("%s:%d", cfg.Host, cfg.Port))
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer conn.Close()

	fmt.Printf("Wmpstat - Gateway Ping Test\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Timeout: %d seconds per ping\n", pingTimeout)
	fmt.Printf("Count: %d pings\n\n", pingCount)

	reader := bufio.NewReader(conn)
	successCount := 0
	failCount := 0

	for i := 1; i <= pingCount; i++ {
		fmt.Printf("Ping %d/%d: ", i, pingCount)

		startTime := time.Now()
		if _, err := conn.Write(wmp.MustEncodeClient(wmp.NewPing())); err != nil {
			fmt.Printf("SEND FAILED: %v\n", err)
			failCount++
			continue
		}

		// Wait for PONG, skipping unsolicited change notifications
		conn.SetReadDeadline(time.Now().Add(time.Duration(pingTimeout) * time.Second))
		got := false
		for !got {
			line, err := reader.ReadString('\n')
			if err != nil {
				if ne, ok := err.(net.Error); ok && ne.Timeout() {
					fmt.Printf("TIMEOUT (no response in %ds)\n", pingTimeout)
				} else {
					fmt.Printf("READ FAILED: %v\n", err)
				}
				failCount++
				break
			}
			if strings.TrimRight(line, "\r\n") == wmp.VerbPong {
				rtt := time.Since(startTime)
				fmt.Printf("PONG from gateway, rtt=%v\n", rtt.Round(time.Millisecond))
				successCount++
				got = true
			}
		}

		// Small delay between pings
		if i < pingCount {
			time.Sleep(100 * time.Millisecond)
		}
	}

	// Summary
	fmt.Printf("\n--- Ping statistics ---\n")
	fmt.Printf("%d pings sent, %d responses received, %.0f%% packet loss\n",
		pingCount, successCount, float64(failCount)/float64(pingCount)*100)

	if failCount > 0 {
		os.Exit(1)
	}
	return nil
}
