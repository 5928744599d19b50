// Package log provides the interpreter's structured logger: a thin,
// leveled wrapper around log/slog with a colorized terminal handler, built
// the same way go-ethereum's own internal log package is (slog core plus
// mattn/go-isatty for TTY detection and fatih/color / mattn/go-colorable
// for Windows-safe ANSI output). go-ethereum's log package lives inside its
// own module and isn't importable from outside it, so this is a from-scratch
// rebuild of the same design at the scope this module needs.
package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// Logger is the interface used throughout the interpreter for diagnostic
// output. It deliberately stays tiny: the EVM carries one in its Log field
// (set to Root() by NewEVM) but does not write to it; cmd/evmrun logs
// through the package-level functions.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
}

type logger struct {
	slog *slog.Logger
}

func (l *logger) Debug(msg string, args ...any) { l.slog.Debug(msg, args...) }
func (l *logger) Info(msg string, args ...any)  { l.slog.Info(msg, args...) }
func (l *logger) Warn(msg string, args ...any)  { l.slog.Warn(msg, args...) }
func (l *logger) Error(msg string, args ...any) { l.slog.Error(msg, args...) }
func (l *logger) With(args ...any) Logger       { return &logger{slog: l.slog.With(args...)} }

var root Logger = New(os.Stderr, slog.LevelInfo)

// Root returns the package-level default logger.
func Root() Logger { return root }

// SetRoot replaces the package-level default logger.
func SetRoot(l Logger) { root = l }

func Debug(msg string, args ...any) { root.Debug(msg, args...) }
func Info(msg string, args ...any)  { root.Info(msg, args...) }
func Warn(msg string, args ...any)  { root.Warn(msg, args...) }
func Error(msg string, args ...any) { root.Error(msg, args...) }

// New builds a Logger writing to w at the given minimum level. Output is
// colorized when w is a terminal (detected with mattn/go-isatty), otherwise
// plain key=value text, matching go-ethereum's "pretty when attached to a
// TTY, machine-readable otherwise" behavior.
func New(w io.Writer, level slog.Level) Logger {
	var handler slog.Handler
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		handler = &terminalHandler{out: colorable.NewColorable(f), level: level}
	} else {
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	}
	return &logger{slog: slog.New(handler)}
}

// terminalHandler renders records as "LVL[timestamp] msg key=value ..." with
// the level name colorized per severity.
type terminalHandler struct {
	out   io.Writer
	level slog.Level
	attrs []slog.Attr
}

func (h *terminalHandler) Enabled(_ context.Context, level slog.Level) bool { return level >= h.level }

func (h *terminalHandler) Handle(_ context.Context, r slog.Record) error {
	lvl := levelLabel(r.Level)
	line := fmt.Sprintf("%s[%s] %s", lvl, r.Time.Format(time.TimeOnly), r.Message)
	for _, a := range h.attrs {
		line += fmt.Sprintf(" %s=%v", a.Key, a.Value)
	}
	r.Attrs(func(a slog.Attr) bool {
		line += fmt.Sprintf(" %s=%v", a.Key, a.Value)
		return true
	})
	_, err := fmt.Fprintln(h.out, line)
	return err
}

func (h *terminalHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	n := &terminalHandler{out: h.out, level: h.level}
	n.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return n
}

func (h *terminalHandler) WithGroup(_ string) slog.Handler { return h }

func levelLabel(lvl slog.Level) string {
	switch {
	case lvl >= slog.LevelError:
		return color.New(color.FgRed, color.Bold).Sprint("ERROR ")
	case lvl >= slog.LevelWarn:
		return color.New(color.FgYellow).Sprint("WARN  ")
	case lvl >= slog.LevelInfo:
		return color.New(color.FgGreen).Sprint("INFO  ")
	default:
		return color.New(color.FgHiBlack).Sprint("DEBUG ")
	}
}
