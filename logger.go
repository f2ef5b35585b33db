// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compose

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// nopHandler is a slog.Handler that silently discards all log records.
// The Enabled method returns false so the caller skips message formatting
// entirely, making disabled logging effectively zero-cost.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// newNopLogger creates a logger that silently discards all output.
func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	l := newNopLogger()
	loggerPtr.Store(l)
}

// live holds the compositors created by New and not yet destroyed, so a
// logger set after construction still reaches their backend and pool.
var (
	liveMu sync.Mutex
	live   = make(map[*Compositor]struct{})
)

// SetLogger configures the logger for compose and all its sub-packages.
// By default, compose produces no log output. Call SetLogger to enable
// logging.
//
// SetLogger is safe for concurrent use: it stores the new logger atomically.
// Pass nil to disable logging (restore default silent behavior).
//
// Log levels used by compose:
//   - [slog.LevelDebug]: plan sizes, pool allocations, pass execution
//   - [slog.LevelInfo]: lifecycle events (compositor created, resized)
//   - [slog.LevelWarn]: configuration misuse (mixer as effect, double
//     recycle, unresolved matte, matte cycle, layer outside canvas)
//   - [slog.LevelError]: layers submitted without a source
//
// Example:
//
//	// Enable debug-level logging for full diagnostics:
//	compose.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)

	liveMu.Lock()
	defer liveMu.Unlock()
	for c := range live {
		c.propagateLogger(l)
	}
}

// Logger returns the current logger used by compose.
// Sub-packages (source/, scenefile/, present/) call this to share the same
// logger configuration.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// loggerSetter is implemented by backends and pools that accept a logger.
type loggerSetter interface {
	SetLogger(*slog.Logger)
}

// propagateLogger passes the logger to the backend and pool if they
// implement loggerSetter.
func (c *Compositor) propagateLogger(l *slog.Logger) {
	for _, v := range []any{c.backend, c.pool} {
		if ls, ok := v.(loggerSetter); ok {
			ls.SetLogger(l)
		}
	}
}

func register(c *Compositor) {
	liveMu.Lock()
	live[c] = struct{}{}
	liveMu.Unlock()
}

func unregister(c *Compositor) {
	liveMu.Lock()
	delete(live, c)
	liveMu.Unlock()
}
