package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"

	"github.com/thoreinstein/rsnap/internal/redact"
)

// PrefixKey is the attribute rendered as a "[value]" prefix instead of a
// key=value pair.
const PrefixKey = "uuid"

// Handler implements slog.Handler for TTY-optimized text output.
// It provides colorized output when the writer supports it.
type Handler struct {
	opts   slog.HandlerOptions
	out    io.Writer
	mu     *sync.Mutex
	attrs  []slog.Attr
	groups []string
	prefix string

	// Colors
	timeColor   *color.Color
	debugColor  *color.Color
	infoColor   *color.Color
	warnColor   *color.Color
	errorColor  *color.Color
	keyColor    *color.Color
	prefixColor *color.Color
}

// NewHandler creates a text handler that colors terminals only.
func NewHandler(out io.Writer, opts *slog.HandlerOptions) *Handler {
	return NewColorHandler(out, opts, ColorAuto)
}

// NewColorHandler creates a text handler whose coloring follows mode.
func NewColorHandler(out io.Writer, opts *slog.HandlerOptions, mode ColorMode) *Handler {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}

	h := &Handler{
		opts: *opts,
		out:  out,
		mu:   &sync.Mutex{},
	}

	if mode.Enabled(out) {
		h.timeColor = newColor(color.FgHiBlack)
		h.debugColor = newColor(color.FgMagenta)
		h.infoColor = newColor(color.FgGreen)
		h.warnColor = newColor(color.FgYellow)
		h.errorColor = newColor(color.FgRed, color.Bold)
		h.keyColor = newColor(color.FgCyan)
		h.prefixColor = newColor(color.FgBlue)
	}

	return h
}

// newColor ignores color.NoColor, which only reflects stdout.
func newColor(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	c.EnableColor()
	return c
}

// Enabled reports whether the handler handles records at the given level.
func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	minLevel := slog.LevelInfo
	if h.opts.Level != nil {
		minLevel = h.opts.Level.Level()
	}
	return level >= minLevel
}

// Handle handles the Record.
func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	// Record attrs may override the prefix set by WithAttrs.
	prefix := h.prefix
	var attrs []slog.Attr
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == PrefixKey && len(h.groups) == 0 {
			prefix = a.Value.String()
			return true
		}
		attrs = append(attrs, a)
		return true
	})

	var b strings.Builder

	// 1. Time
	if !r.Time.IsZero() {
		t := r.Time.Format(time.Kitchen)
		if h.timeColor != nil {
			t = h.timeColor.Sprint(t)
		}
		fmt.Fprintf(&b, "%s ", t)
	}

	// 2. Level
	levelStr := levelName(r.Level)
	if h.timeColor != nil { // use timeColor as proxy for "useColor"
		switch {
		case r.Level >= slog.LevelError:
			levelStr = h.errorColor.Sprint(levelStr)
		case r.Level >= slog.LevelWarn:
			levelStr = h.warnColor.Sprint(levelStr)
		case r.Level >= slog.LevelInfo:
			levelStr = h.infoColor.Sprint(levelStr)
		default:
			levelStr = h.debugColor.Sprint(levelStr)
		}
	}
	fmt.Fprintf(&b, "%-5s ", levelStr)

	// 3. Drive prefix
	if prefix != "" {
		p := "[" + prefix + "]"
		if h.prefixColor != nil {
			p = h.prefixColor.Sprint(p)
		}
		fmt.Fprintf(&b, "%s ", p)
	}

	// 4. Message
	b.WriteString(r.Message)

	// 5. Attributes (from WithAttrs, then from Record)
	for _, a := range h.attrs {
		h.appendAttr(&b, a)
	}
	for _, a := range attrs {
		a.Key = h.qualify(a.Key)
		h.appendAttr(&b, a)
	}

	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, b.String())
	return err
}

func levelName(l slog.Level) string {
	if l <= LevelTrace {
		return "TRACE"
	}
	return l.String()
}

func (h *Handler) appendAttr(b *strings.Builder, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}

	key := a.Key
	rawKey := key
	if h.keyColor != nil {
		key = h.keyColor.Sprint(key)
	}

	var value string
	switch a.Value.Kind() {
	case slog.KindDuration:
		value = a.Value.Duration().Round(time.Millisecond).String()
	default:
		value = fmt.Sprint(a.Value.Any())
	}
	value = redact.Value(rawKey, value)
	if strings.ContainsAny(value, " \t\n\"") {
		value = fmt.Sprintf("%q", value)
	}

	fmt.Fprintf(b, " %s=%s", key, value)
}

// qualify prefixes key with the open groups.
func (h *Handler) qualify(key string) string {
	if len(h.groups) == 0 {
		return key
	}
	return strings.Join(h.groups, ".") + "." + key
}

// WithAttrs returns a new Handler with the given attributes.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newH := *h
	newH.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	newH.attrs = append(newH.attrs, h.attrs...)
	for _, a := range attrs {
		if a.Key == PrefixKey && len(h.groups) == 0 {
			newH.prefix = a.Value.String()
			continue
		}
		a.Key = h.qualify(a.Key)
		newH.attrs = append(newH.attrs, a)
	}
	return &newH
}

// WithGroup returns a new Handler with the given group name.
// Groups are rendered by prefixing keys with "group.".
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	newH := *h
	newH.groups = make([]string, len(h.groups)+1)
	copy(newH.groups, h.groups)
	newH.groups[len(h.groups)] = name
	return &newH
}
