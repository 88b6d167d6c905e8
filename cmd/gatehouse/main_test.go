// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package main

import (
	"errors"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, 0},
		{"plain error", errors.New("boom"), exitFailure},
		{"runtime code", oops.Code("AUTO_MIGRATION_FAILED").Errorf("dirty"), exitFailure},
		{"invalid config", oops.Code("CONFIG_INVALID").Errorf("session.keys is required"), exitUsage},
		{"wrapped load failure", oops.With("operation", "load").Wrap(oops.Code("CONFIG_LOAD_FAILED").Errorf("bad yaml")), exitUsage},
		{"unconfirmed down", oops.Code("CONFIRMATION_REQUIRED").Errorf("pass --yes"), exitUsage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}
