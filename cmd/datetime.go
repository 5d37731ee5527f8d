// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 the wmpstat authors

package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hvackit/wmpstat/pkg/client"
	"github.com/hvackit/wmpstat/pkg/wmp"
)

var datetimeSet string

var datetimeCmd = &cobra.Command{
	Use:   "datetime",
	Short: "Query or set the gateway's internal clock",
	Long: `Query the gateway's internal clock, or set it with --set.

The wire format is DD/MM/YYYY HH:MM:SS; --set also accepts the word
"now" for the current local time.`,
	RunE: runDatetime,
}

func init() {
	datetimeCmd.Flags().StringVar(&datetimeSet, "set", "", `New clock value ("DD/MM/YYYY HH:MM:SS" or "now")`)
	rootCmd.AddCommand(datetimeCmd)
}

func runDatetime(cmd *cobra.Command, args []string) error {
	cfg, connInfo, err := newClientConfig()
	if err != nil {
		return err
	}
	cfg.DisableAutoReconnect = true

	c := client.New(cfg)
	defer c.Stop()

	fmt.Printf("Connection: %s\n", connInfo)
	if err := c.Connect(); err != nil {
		return err
	}

	if err := waitFor(10*time.Second, func() bool {
		return c.State() == client.Authenticated
	}); err != nil {
		return fmt.Errorf("device did not identify itself: %w", err)
	}

	if datetimeSet != "" {
		value := datetimeSet
		if value == "now" {
			value = time.Now().Format(wmp.DateTimeLayout)
		}
		t, err := time.ParseInLocation(wmp.DateTimeLayout, value, time.UTC)
		if err != nil {
			return fmt.Errorf("invalid datetime %q, expected DD/MM/YYYY HH:MM:SS", datetimeSet)
		}
		c.SetDateTime(t)
	}

	c.QueryDateTime()
	if err := waitFor(10*time.Second, func() bool {
		_, ok := c.DeviceTime()
		return ok
	}); err != nil {
		return fmt.Errorf("device did not report its clock: %w", err)
	}

	got, _ := c.DeviceTime()
	fmt.Printf("Gateway clock: %s\n", got.Format(wmp.DateTimeLayout))

	c.Stop()
	c.WaitForDisconnect(5 * time.Second)
	return nil
}
