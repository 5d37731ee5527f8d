// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 the wmpstat authors
//
// Wmpstat - WMP HVAC gateway client and emulator
//
// A CLI tool for monitoring, controlling, and emulating HVAC gateway
// devices speaking the WMP line protocol.

package main

import (
	"os"

	"github.com/hvackit/wmpstat/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
