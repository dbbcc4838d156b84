// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log

import (
	"context"
	"log/slog"

	ethlog "github.com/ethereum/go-ethereum/log"
)

// Levels, aliased from go-ethereum so that handlers and callers agree.
const (
	LevelTrace = ethlog.LevelTrace
	LevelDebug = ethlog.LevelDebug
	LevelInfo  = ethlog.LevelInfo
	LevelWarn  = ethlog.LevelWarn
	LevelError = ethlog.LevelError
	LevelCrit  = ethlog.LevelCrit
)

// Logger writes key/value pairs to a handler.
type Logger interface {
	// New returns a child logger with the given context appended.
	New(ctx ...any) Logger

	Trace(msg string, ctx ...any)
	Debug(msg string, ctx ...any)
	Info(msg string, ctx ...any)
	Warn(msg string, ctx ...any)
	Error(msg string, ctx ...any)
	Crit(msg string, ctx ...any)

	Enabled(level slog.Level) bool
}

type logger struct {
	inner ethlog.Logger
}

// NewLogger wraps a slog handler.
func NewLogger(h slog.Handler) Logger {
	return &logger{ethlog.NewLogger(h)}
}

func (l *logger) New(ctx ...any) Logger         { return &logger{l.inner.With(ctx...)} }
func (l *logger) Trace(msg string, ctx ...any)  { l.inner.Trace(msg, ctx...) }
func (l *logger) Debug(msg string, ctx ...any)  { l.inner.Debug(msg, ctx...) }
func (l *logger) Info(msg string, ctx ...any)   { l.inner.Info(msg, ctx...) }
func (l *logger) Warn(msg string, ctx ...any)   { l.inner.Warn(msg, ctx...) }
func (l *logger) Error(msg string, ctx ...any)  { l.inner.Error(msg, ctx...) }
func (l *logger) Crit(msg string, ctx ...any)   { l.inner.Crit(msg, ctx...) }
func (l *logger) Enabled(level slog.Level) bool { return l.inner.Enabled(context.Background(), level) }

// lazyLogger resolves the root logger on every call, so package level
// loggers declared at init time follow a later SetDefault.
type lazyLogger struct {
	ctx []any
}

// WithContext returns a logger bound to the root logger with ctx attached.
func WithContext(ctx ...any) Logger {
	return &lazyLogger{ctx}
}

func (l *lazyLogger) target() ethlog.Logger {
	return ethlog.Root().With(l.ctx...)
}

func (l *lazyLogger) New(ctx ...any) Logger {
	merged := make([]any, 0, len(l.ctx)+len(ctx))
	merged = append(append(merged, l.ctx...), ctx...)
	return &lazyLogger{merged}
}

func (l *lazyLogger) Trace(msg string, ctx ...any) { l.target().Trace(msg, ctx...) }
func (l *lazyLogger) Debug(msg string, ctx ...any) { l.target().Debug(msg, ctx...) }
func (l *lazyLogger) Info(msg string, ctx ...any)  { l.target().Info(msg, ctx...) }
func (l *lazyLogger) Warn(msg string, ctx ...any)  { l.target().Warn(msg, ctx...) }
func (l *lazyLogger) Error(msg string, ctx ...any) { l.target().Error(msg, ctx...) }
func (l *lazyLogger) Crit(msg string, ctx ...any)  { l.target().Crit(msg, ctx...) }

func (l *lazyLogger) Enabled(level slog.Level) bool {
	return ethlog.Root().Enabled(context.Background(), level)
}

// Root returns the root logger.
func Root() Logger {
	return &logger{ethlog.Root()}
}

// SetDefault replaces the root handler.
func SetDefault(h slog.Handler) {
	ethlog.SetDefault(ethlog.NewLogger(h))
}

func Trace(msg string, ctx ...any) { ethlog.Root().Trace(msg, ctx...) }
func Debug(msg string, ctx ...any) { ethlog.Root().Debug(msg, ctx...) }
func Info(msg string, ctx ...any)  { ethlog.Root().Info(msg, ctx...) }
func Warn(msg string, ctx ...any)  { ethlog.Root().Warn(msg, ctx...) }
func Error(msg string, ctx ...any) { ethlog.Root().Error(msg, ctx...) }
func Crit(msg string, ctx ...any)  { ethlog.Root().Crit(msg, ctx...) }
