// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"github.com/gatehouse-auth/gatehouse/pkg/errutil"
)

func newTestLogger(t *testing.T, buf *bytes.Buffer, format string) *slog.Logger {
	t.Helper()
	logger, err := Setup(Options{Service: "gatehouse", Version: "1.0.0", Format: format, Level: "debug", Writer: buf})
	require.NoError(t, err)
	return logger
}

func lastEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), "Failed to parse JSON: %s", buf.String())
	return entry
}

func TestSetup_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	newTestLogger(t, &buf, "json").Info("test message")

	entry := lastEntry(t, &buf)
	assert.Equal(t, "test message", entry["msg"])
	assert.Equal(t, "gatehouse", entry["service"])
	assert.Equal(t, "1.0.0", entry["version"])
	assert.Contains(t, entry, "time")
	assert.Contains(t, entry, "level")
}

func TestSetup_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	newTestLogger(t, &buf, "text").Info("test message")

	assert.Contains(t, buf.String(), "test message")
	assert.Contains(t, buf.String(), "service=gatehouse")
}

func TestSetup_DefaultFormatIsJSON(t *testing.T) {
	var buf bytes.Buffer
	newTestLogger(t, &buf, "").Info("test message")
	lastEntry(t, &buf)
}

func TestSetup_RejectsUnknownFormat(t *testing.T) {
	_, err := Setup(Options{Format: "xml"})
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "LOG_FORMAT_INVALID")
}

func TestSetup_LevelFiltersRecords(t *testing.T) {
	var buf bytes.Buffer
	logger, err := Setup(Options{Level: "warn", Writer: &buf})
	require.NoError(t, err)

	logger.Info("dropped")
	assert.Empty(t, buf.String())

	logger.Warn("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"", slog.LevelInfo},
		{"DEBUG", slog.LevelDebug},
		{"warning", slog.LevelWarn},
		{" error ", slog.LevelError},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseLevel("verbose")
	errutil.AssertErrorCode(t, err, "LOG_LEVEL_INVALID")
}

func TestHandler_TraceContext(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(t, &buf, "json")

	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: traceID,
		SpanID:  spanID,
	}))

	logger.InfoContext(ctx, "traced message")

	entry := lastEntry(t, &buf)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", entry["trace_id"])
	assert.Equal(t, "00f067aa0ba902b7", entry["span_id"])
}

func TestHandler_RequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(t, &buf, "json")

	ctx := WithRequestID(context.Background(), "01J0000000000000000000000")
	logger.InfoContext(ctx, "handled")

	entry := lastEntry(t, &buf)
	assert.Equal(t, "01J0000000000000000000000", entry["request_id"])
	assert.NotContains(t, entry, "trace_id")
}

func TestHandler_WithAttrsKeepsDecoration(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(t, &buf, "json").With("component", "web").WithGroup("req")

	logger.Info("grouped", "path", "/")

	entry := lastEntry(t, &buf)
	assert.Equal(t, "web", entry["component"])
	assert.Contains(t, entry, "req")
}

func TestRequestID_Missing(t *testing.T) {
	assert.Empty(t, RequestID(context.Background()))
}

func TestSetDefault(t *testing.T) {
	original := slog.Default()
	defer slog.SetDefault(original)

	logger, err := SetDefault(Options{Service: "test-service", Version: "2.0.0"})
	require.NoError(t, err)
	assert.Same(t, logger, slog.Default())
}
