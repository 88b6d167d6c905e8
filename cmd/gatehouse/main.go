// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

// Package main is the entry point for the gatehouse server.
package main

import (
	"fmt"
	"os"

	"github.com/samber/oops"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Exit statuses. Operator mistakes exit with exitUsage so scripts can tell
// them apart from runtime failures.
const (
	exitFailure = 1
	exitUsage   = 2
)

// usageCodes are error codes caused by how the command was invoked.
var usageCodes = map[string]bool{
	"CONFIG_INVALID":        true,
	"CONFIG_LOAD_FAILED":    true,
	"CONFIRMATION_REQUIRED": true,
}

func main() {
	cmd := NewRootCmd()
	cmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)

	if err := cmd.Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	if oopsErr, ok := oops.AsOops(err); ok {
		if code, _ := oopsErr.Code().(string); usageCodes[code] { //nolint:errcheck // type assertion, not an error
			return exitUsage
		}
	}
	return exitFailure
}
