package gpucolor

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler discards all records, Enabled returns false so messages are
// never formatted.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger sets the logger used by this package. By default nothing is
// logged. Pass nil to restore the default. Safe for concurrent use.
//
// Levels used:
//   - [slog.LevelDebug]: computed matrices and curves
//   - [slog.LevelInfo]: conversions applied and disabled
//   - [slog.LevelWarn]: configuration that cannot be applied
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
}

func Logger() *slog.Logger {
	return loggerPtr.Load()
}
