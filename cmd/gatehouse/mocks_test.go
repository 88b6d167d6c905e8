// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/gatehouse-auth/gatehouse/internal/observability"
)

type mockDatabase struct {
	mu      sync.Mutex
	pingErr error
	closed  bool
}

func (m *mockDatabase) Ping(context.Context) error { return m.pingErr }

func (m *mockDatabase) QueryRow(context.Context, string, ...any) pgx.Row { return nil }

func (m *mockDatabase) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
}

func (m *mockDatabase) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

type mockMigrator struct {
	upErr       error
	downErr     error
	version     uint
	dirty       bool
	pending     []uint
	upCalled    bool
	downCalled  bool
	closeCalled bool
}

func (m *mockMigrator) Up() error {
	m.upCalled = true
	return m.upErr
}

func (m *mockMigrator) Down() error {
	m.downCalled = true
	return m.downErr
}

func (m *mockMigrator) Version() (uint, bool, error) { return m.version, m.dirty, nil }

func (m *mockMigrator) PendingMigrations() ([]uint, error) { return m.pending, nil }

func (m *mockMigrator) Close() error {
	m.closeCalled = true
	return nil
}

type mockObservabilityServer struct {
	startErr    error
	errCh       chan error
	metrics     *observability.Metrics
	ready       observability.ReadinessChecker
	stopCalled  bool
	startCalled bool
}

func newMockObservabilityServer() *mockObservabilityServer {
	return &mockObservabilityServer{
		errCh:   make(chan error, 1),
		metrics: observability.NewMetrics(prometheus.NewRegistry()),
	}
}

func (m *mockObservabilityServer) Start() (<-chan error, error) {
	m.startCalled = true
	if m.startErr != nil {
		return nil, m.startErr
	}
	return m.errCh, nil
}

func (m *mockObservabilityServer) Stop(context.Context) error {
	m.stopCalled = true
	return nil
}

func (m *mockObservabilityServer) Addr() string { return "127.0.0.1:9100" }

func (m *mockObservabilityServer) Metrics() *observability.Metrics { return m.metrics }

// newMockCmd returns a command whose output goes to buffers.
func newMockCmd() (*cobra.Command, *bytes.Buffer) {
	out := &bytes.Buffer{}
	cmd := &cobra.Command{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	return cmd, out
}

// captureStdout runs fn with os.Stdout redirected to a pipe and returns what
// was written to it.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err)

	orig := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = orig }()

	done := make(chan string, 1)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		done <- buf.String()
	}()

	fn()
	require.NoError(t, w.Close())
	return <-done
}
