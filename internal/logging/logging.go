// Package logging builds the process logger: a console handler plus an
// optional remote sink.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/blackwell-systems/readmegen/internal/config"
)

// Async buffer sizing for the remote sink.
const (
	remoteBuffer  = 256
	remoteWorkers = 1
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New creates the logger for a run. Console output goes to w as text when w
// is a terminal and JSON otherwise. When cfg enables remote logging, records
// are also shipped asynchronously to the remote sink. The returned Closer
// flushes pending remote records and must be called before exit.
func New(cfg *config.Config, w io.Writer) (*slog.Logger, io.Closer) {
	level := parseLevel(cfg.Logging.Level)
	opts := &slog.HandlerOptions{Level: level}

	var console slog.Handler
	if isTerminal(w) {
		console = slog.NewTextHandler(w, opts)
	} else {
		console = slog.NewJSONHandler(w, opts)
	}

	if !cfg.RemoteLogging() {
		return slog.New(console), nopCloser{}
	}

	remote := NewRemoteHandler(cfg.Logging.RemoteEndpoint, cfg.Logging.RemoteToken, level)
	async := NewAsyncHandler(remote, remoteBuffer, remoteWorkers)
	return slog.New(NewFanout(console, async)), async
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error", "critical":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
