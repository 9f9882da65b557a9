// Package xlog provides a context-scoped structured logger, mirroring the
// call shape of the teacher framework's testing.ContextLog/ContextLogf but
// backed by zerolog, plus an in-memory capture of the debug stream for
// inclusion in the verbose-output archive.
package xlog

import (
	"bytes"
	"context"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

type ctxKey struct{}

// memoryWriter is a thread-safe, unbounded in-memory sink, the Go analogue
// of the original's io.StringIO-backed debug log handler.
type memoryWriter struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (w *memoryWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.Write(p)
}

// String returns the buffer's current contents, safe to call concurrently
// with Write.
func (w *memoryWriter) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.String()
}

var debugLog = &memoryWriter{}

// DebugLog returns the captured debug-level log stream, suitable for
// writing out as the verbose-output archive's gsrb.debug.log entry.
func DebugLog() string { return debugLog.String() }

// New builds the root logger, writing every event both to stdout in
// console form and to the in-memory debug capture; neither writer filters
// by level.
func New() zerolog.Logger {
	console := zerolog.ConsoleWriter{Out: os.Stdout}
	multi := zerolog.MultiLevelWriter(console, debugLog)
	return zerolog.New(multi).With().Timestamp().Logger()
}

// WithContext attaches logger to ctx, retrievable with From.
func WithContext(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// From returns the logger attached to ctx, or a disabled logger writing to
// io.Discard if none was attached.
func From(ctx context.Context) zerolog.Logger {
	if logger, ok := ctx.Value(ctxKey{}).(zerolog.Logger); ok {
		return logger
	}
	return zerolog.New(io.Discard)
}

// Info logs msg at info level through ctx's logger, the xlog analogue of
// testing.ContextLog.
func Info(ctx context.Context, msg string) {
	From(ctx).Info().Msg(msg)
}

// Debug logs msg at debug level through ctx's logger.
func Debug(ctx context.Context, msg string) {
	From(ctx).Debug().Msg(msg)
}

// Error logs msg at error level through ctx's logger, attaching err.
func Error(ctx context.Context, err error, msg string) {
	From(ctx).Error().Err(err).Msg(msg)
}
