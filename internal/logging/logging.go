package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/thoreinstein/rsnap/internal/errors"
)

// LevelTrace is below Debug and shows every external command and link
// reference.
const LevelTrace = slog.LevelDebug - 4

// LevelFromVerbosity maps the count of -v flags to a level. Runs log at
// Info by default so cron mail shows what was backed up.
func LevelFromVerbosity(v int) slog.Level {
	switch {
	case v < 0:
		return slog.LevelWarn
	case v == 0:
		return slog.LevelInfo
	case v == 1:
		return slog.LevelDebug
	default:
		return LevelTrace
	}
}

type ctxKey struct{}

// NewContext returns a copy of ctx carrying logger.
func NewContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext returns the logger stored by NewContext, or slog.Default.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && l != nil {
			return l
		}
	}
	return slog.Default()
}

// Format selects the record encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat accepts text and json. Empty means text.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case "":
		return FormatText, nil
	case FormatText, FormatJSON:
		return f, nil
	default:
		return "", errors.Newf("unknown log format %q", s)
	}
}

// Config describes one log sink.
type Config struct {
	Level  slog.Leveler
	Format Format

	// Color applies to FormatText only. Empty means ColorAuto.
	Color ColorMode

	// Output defaults to os.Stderr.
	Output io.Writer
}

// Handler builds the slog.Handler for cfg. Unknown formats fall back to
// text.
func (cfg Config) Handler() slog.Handler {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: cfg.Level}

	if cfg.Format == FormatJSON {
		return slog.NewJSONHandler(out, opts)
	}
	mode := cfg.Color
	if mode == "" {
		mode = ColorAuto
	}
	return NewColorHandler(out, opts, mode)
}

// New returns a logger writing to the sink described by cfg.
func New(cfg Config) *slog.Logger {
	return slog.New(cfg.Handler())
}

// Default logs at Info in text format to stderr.
func Default() *slog.Logger {
	return New(Config{Level: slog.LevelInfo})
}

// NewDiscard returns a logger that drops every record.
func NewDiscard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// testWriter sends each log line to t.Log.
type testWriter struct {
	t testing.TB
}

func (w *testWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(strings.TrimSuffix(string(p), "\n"))
	return len(p), nil
}

// ForTest returns a trace-level logger whose output shows up with the
// failing test, or always under go test -v.
func ForTest(t testing.TB) *slog.Logger {
	t.Helper()
	return New(Config{Level: LevelTrace, Color: ColorNever, Output: &testWriter{t: t}})
}
