// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tickit Contributors

package errutil_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tickit/tickit/pkg/errutil"
)

func TestLogError_WithOopsError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	err := oops.Code("TODO_CREATE_FAILED").
		With("user_id", 7).
		Wrap(errors.New("connection reset"))

	errutil.LogError(context.Background(), logger, "create item failed", err)

	var logEntry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &logEntry))
	assert.Equal(t, "ERROR", logEntry["level"])
	assert.Equal(t, "create item failed", logEntry["msg"])
	assert.Equal(t, "TODO_CREATE_FAILED", logEntry["code"])
	assert.Equal(t, "internal", logEntry["kind"])
	assert.Contains(t, logEntry, "context")
}

func TestLogError_WithStandardError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	errutil.LogError(context.Background(), logger, "operation failed", errutil.ErrNotFound)

	var logEntry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &logEntry))
	assert.Equal(t, "ERROR", logEntry["level"])
	assert.Contains(t, logEntry["error"], "not found")
	assert.Equal(t, "not_found", logEntry["kind"])
	assert.NotContains(t, logEntry, "code")
}

func TestLogError_ExtraArgs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	errutil.LogError(context.Background(), logger, "request failed", errors.New("boom"), "request_id", "01HX", "status", 500)

	var logEntry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &logEntry))
	assert.Equal(t, "01HX", logEntry["request_id"])
	assert.InDelta(t, 500, logEntry["status"], 0)
}
