// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tickit Contributors

package errutil

import (
	"context"
	"log/slog"

	"github.com/samber/oops"
)

// LogError logs err at error level with its kind and, for oops errors, the
// code and structured context. Extra args are appended as slog key/value
// pairs. The context is passed through so trace ids reach the handler.
func LogError(ctx context.Context, logger *slog.Logger, msg string, err error, args ...any) {
	attrs := []any{
		"error", err.Error(),
		"kind", KindOf(err).String(),
	}
	if oopsErr, ok := oops.AsOops(err); ok {
		if code := oopsErr.Code(); code != nil && code != "" {
			attrs = append(attrs, "code", code)
		}
		if oc := oopsErr.Context(); len(oc) > 0 {
			attrs = append(attrs, "context", oc)
		}
	}
	attrs = append(attrs, args...)
	logger.ErrorContext(ctx, msg, attrs...)
}
