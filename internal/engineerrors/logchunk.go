package engineerrors

import (
	"context"
	"log/slog"
)

// maxLogMessageChars is the threshold past which a log message must be
// split into chunks before being handed to the logging sink.
const maxLogMessageChars = 31000

// LogChunked logs msg at the given slog level, splitting it into
// maxLogMessageChars-sized chunks when it exceeds that length. Every chunk,
// the first included, carries its number and the total so the original
// message can be reassembled from the sink's output.
func LogChunked(ctx context.Context, logger *slog.Logger, level slog.Level, msg string, args ...interface{}) {
	if len(msg) <= maxLogMessageChars {
		logger.Log(ctx, level, msg, args...)
		return
	}

	total := (len(msg) + maxLogMessageChars - 1) / maxLogMessageChars
	for i := 0; i < total; i++ {
		start := i * maxLogMessageChars
		end := start + maxLogMessageChars
		if end > len(msg) {
			end = len(msg)
		}
		chunkArgs := append([]interface{}{"chunk", i + 1, "of", total}, args...)
		logger.Log(ctx, level, msg[start:end], chunkArgs...)
	}
}

// InfoChunked is a convenience wrapper for LogChunked at slog.LevelInfo.
func InfoChunked(ctx context.Context, logger *slog.Logger, msg string, args ...interface{}) {
	LogChunked(ctx, logger, slog.LevelInfo, msg, args...)
}

// WarnChunked is a convenience wrapper for LogChunked at slog.LevelWarn.
func WarnChunked(ctx context.Context, logger *slog.Logger, msg string, args ...interface{}) {
	LogChunked(ctx, logger, slog.LevelWarn, msg, args...)
}

// ErrorChunked is a convenience wrapper for LogChunked at slog.LevelError.
func ErrorChunked(ctx context.Context, logger *slog.Logger, msg string, args ...interface{}) {
	LogChunked(ctx, logger, slog.LevelError, msg, args...)
}
