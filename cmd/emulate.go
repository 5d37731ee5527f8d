// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 the wmpstat authors

package cmd

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/hvackit/wmpstat/pkg/emulator"
	"github.com/hvackit/wmpstat/pkg/taplog"
)

var (
	emulateHost     string
	emulatePort     int
	emulateVaneUD   string
	emulateVaneLR   string
	emulateFanSpeed string
	emulateDynamic  bool
	emulateSeed     int64
	emulateLogFile  string
)

var emulateCmd = &cobra.Command{
	Use:   "emulate",
	Short: "Run a WMP device emulator",
	Long: `Run a TCP server that emulates a WMP HVAC gateway for testing
clients without hardware.

The emulator reproduces real device behavior: immediate ACK with delayed
out-of-order change notifications, silence on LIMITS queries for disabled
features, and logging of protocol-compliance violations (rapid reconnect,
idle socket) without rejecting the offending client.

Capability flags use compact notation: optional leading A includes AUTO,
a digit 1-9 sets the number of numbered positions, optional trailing S
includes SWING (vanes only), and N disables the feature entirely.
Examples: --vud A7S, --fan A4, --vlr N.`,
	RunE: runEmulate,
}

func init() {
	emulateCmd.Flags().StringVar(&emulateHost, "listen-host", "0.0.0.0", "Listen address")
	emulateCmd.Flags().IntVar(&emulatePort, "listen-port", 3310, "Listen port")
	emulateCmd.Flags().StringVar(&emulateVaneUD, "vud", "A7S", "Vertical vane capability notation")
	emulateCmd.Flags().StringVar(&emulateVaneLR, "vlr", "A5S", "Horizontal vane capability notation")
	emulateCmd.Flags().StringVar(&emulateFanSpeed, "fan", "A4", "Fan speed capability notation")
	emulateCmd.Flags().BoolVar(&emulateDynamic, "dynamic-setptemp", false, "Mode-dependent setpoint limits")
	emulateCmd.Flags().Int64Var(&emulateSeed, "seed", 0, "Random seed for notification scheduling (0 = time-based)")
	emulateCmd.Flags().StringVar(&emulateLogFile, "log-file", "", "Write a CBOR session log to this file")
	rootCmd.AddCommand(emulateCmd)
}

func runEmulate(cmd *cobra.Command, args []string) error {
	cfg := emulator.Config{
		Host:            emulateHost,
		Port:            emulatePort,
		VaneUD:          emulateVaneUD,
		VaneLR:          emulateVaneLR,
		FanSpeed:        emulateFanSpeed,
		DynamicSetpoint: emulateDynamic,
		Seed:            emulateSeed,
	}

	if emulateLogFile != "" {
		tap, err := taplog.Create(emulateLogFile)
		if err != nil {
			return err
		}
		defer tap.Close()
		cfg.Tap = tap
	}

	srv, err := emulator.NewServer(cfg)
	if err != nil {
		return err
	}
	if err := srv.Start(); err != nil {
		return err
	}

	fmt.Printf("Press Ctrl+C to exit\n")

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	<-interrupt

	return srv.Close()
}
