// Package instrument wraps named operations with structured call logging.
// The wrapper runs the operation unmodified and records metadata, duration
// and outcome; callers' logic never depends on it.
package instrument

import (
	"context"
	"log/slog"
	"time"
)

// Do runs op under the given name, logging the supplied metadata together
// with the call duration and outcome. The operation result and error are
// returned untouched.
func Do[T any](ctx context.Context, logger *slog.Logger, name string, metadata map[string]any, op func(context.Context) (T, error)) (T, error) {
	if logger == nil {
		logger = slog.Default()
	}

	attrs := make([]any, 0, len(metadata)+2)
	attrs = append(attrs, slog.String("op", name))
	for k, v := range metadata {
		attrs = append(attrs, slog.Any(k, v))
	}

	start := time.Now()
	result, err := op(ctx)
	attrs = append(attrs, slog.Duration("duration", time.Since(start)))

	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
		logger.Warn("operation failed", attrs...)
		return result, err
	}

	logger.Debug("operation completed", attrs...)
	return result, nil
}
