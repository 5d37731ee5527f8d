// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 the wmpstat authors

package emulator

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseCompactNotation expands the capability shorthand used on the
// command line into an advertised value list.
//
// Format: [A][1-9][S]
//   - leading A includes AUTO
//   - the digit is the number of numbered positions
//   - trailing S includes SWING (vanes only)
//   - N (or empty) disables the feature entirely: LIMITS queries for a
//     disabled feature get no reply at all
//
// Examples: "A7S" -> [AUTO 1 2 3 4 5 6 7 SWING], "3S" -> [1 2 3 SWING],
// "4" -> [1 2 3 4], "A3" -> [AUTO 1 2 3], "N" -> nil.
func ParseCompactNotation(notation string, allowSwing bool) ([]string, error) {
	notation = strings.ToUpper(strings.TrimSpace(notation))
	if notation == "" || notation == "N" {
		return nil, nil
	}

	var options []string

	if strings.HasPrefix(notation, "A") {
		options = append(options, "AUTO")
		notation = notation[1:]
	}

	hasSwing := false
	if strings.HasSuffix(notation, "S") {
		if !allowSwing {
			return nil, fmt.Errorf("emulator: SWING is not valid for this feature")
		}
		hasSwing = true
		notation = notation[:len(notation)-1]
	}

	if notation != "" {
		positions, err := strconv.Atoi(notation)
		if err != nil {
			return nil, fmt.Errorf("emulator: invalid notation %q, expected [A][1-9][S]", notation)
		}
		if positions < 1 || positions > 9 {
			return nil, fmt.Errorf("emulator: number of positions must be 1-9, got %d", positions)
		}
		for i := 1; i <= positions; i++ {
			options = append(options, strconv.Itoa(i))
		}
	}

	if hasSwing {
		options = append(options, "SWING")
	}

	if len(options) == 0 {
		return nil, nil
	}
	return options, nil
}
