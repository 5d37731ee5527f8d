// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 the wmpstat authors

package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hvackit/wmpstat/pkg/client"
)

var setCmd = &cobra.Command{
	Use:   "set",
	Short: "Send a one-shot control command to the gateway",
	Long: `Connect, issue a single control command, wait for the device to
confirm the change, and disconnect.

Mode changes while the unit is off follow the device's required
sequencing: the mode is confirmed before the unit is powered on.`,
}

var setTempCmd = &cobra.Command{
	Use:   "temp <degrees>",
	Short: "Set the target temperature in decimal degrees",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		degrees, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return fmt.Errorf("invalid temperature %q", args[0])
		}
		return runOneShot(func(c *client.Client) { c.SetTemperature(degrees) },
			func(c *client.Client) bool {
				v, ok := c.Setpoint()
				return ok && v == degrees
			})
	},
}

var setModeCmd = &cobra.Command{
	Use:   "mode <AUTO|HEAT|DRY|COOL|FAN>",
	Short: "Set the operation mode",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode := strings.ToUpper(args[0])
		return runOneShot(func(c *client.Client) { c.SetMode(mode) },
			func(c *client.Client) bool {
				v, ok := c.Mode()
				return ok && v == mode
			})
	},
}

var setFanCmd = &cobra.Command{
	Use:   "fan <speed>",
	Short: "Set the fan speed (AUTO or a numbered position)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		speed := strings.ToUpper(args[0])
		return runOneShot(func(c *client.Client) { c.SetFanSpeed(speed) },
			func(c *client.Client) bool {
				v, ok := c.FanSpeed()
				return ok && v == speed
			})
	},
}

var setVaneUDCmd = &cobra.Command{
	Use:   "vane-ud <position>",
	Short: "Set the vertical vane position (AUTO, SWING, or a number)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pos := strings.ToUpper(args[0])
		return runOneShot(func(c *client.Client) { c.SetVaneUpDown(pos) },
			func(c *client.Client) bool {
				v, ok := c.VaneUpDown()
				return ok && v == pos
			})
	},
}

var setVaneLRCmd = &cobra.Command{
	Use:   "vane-lr <position>",
	Short: "Set the horizontal vane position (AUTO, SWING, or a number)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pos := strings.ToUpper(args[0])
		return runOneShot(func(c *client.Client) { c.SetVaneLeftRight(pos) },
			func(c *client.Client) bool {
				v, ok := c.VaneLeftRight()
				return ok && v == pos
			})
	},
}

var setPowerCmd = &cobra.Command{
	Use:   "power <on|off>",
	Short: "Turn the unit on or off",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		want := strings.ToUpper(args[0])
		if want != "ON" && want != "OFF" {
			return fmt.Errorf("power takes on or off, got %q", args[0])
		}
		return runOneShot(func(c *client.Client) {
			if want == "ON" {
				c.PowerOn()
			} else {
				c.PowerOff()
			}
		}, func(c *client.Client) bool {
			v, ok := c.Power()
			return ok && v == want
		})
	},
}

func init() {
	setCmd.AddCommand(setTempCmd, setModeCmd, setFanCmd, setVaneUDCmd, setVaneLRCmd, setPowerCmd)
	rootCmd.AddCommand(setCmd)
}

// runOneShot connects, issues a command once Authenticated, and waits
// for the confirming change notification before disconnecting.
func runOneShot(issue func(*client.Client), confirmed func(*client.Client) bool) error {
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

	issue(c)

	// ONOFF confirmations can take several seconds on real hardware.
	if err := waitFor(30*time.Second, func() bool {
		return confirmed(c)
	}); err != nil {
		return fmt.Errorf("device did not confirm the change: %w", err)
	}

	fmt.Println("OK")
	c.Stop()
	c.WaitForDisconnect(5 * time.Second)
	return nil
}

// waitFor polls a condition until it holds or the timeout elapses.
func waitFor(timeout time.Duration, cond func() bool) error {
	deadline := time.Now().Add(timeout)
	for !cond() {
		if time.Now().After(deadline) {
			return fmt.Errorf("timed out after %s", timeout)
		}
		time.Sleep(50 * time.Millisecond)
	}
	return nil
}
