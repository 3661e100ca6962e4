package logging

import (
	"io"
	"os"

	"golang.org/x/term"

	"github.com/thoreinstein/rsnap/internal/errors"
)

// ColorMode selects when the text handler emits ANSI colors.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// ParseColorMode accepts auto, always and never. Empty means auto.
func ParseColorMode(s string) (ColorMode, error) {
	switch m := ColorMode(s); m {
	case "":
		return ColorAuto, nil
	case ColorAuto, ColorAlways, ColorNever:
		return m, nil
	default:
		return "", errors.Newf("unknown color mode %q", s)
	}
}

// Enabled reports whether output to w is colored under m.
// Auto colors terminals only, and honours NO_COLOR and TERM=dumb.
func (m ColorMode) Enabled(w io.Writer) bool {
	switch m {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	default:
		return autoColor(IsTTY(w))
	}
}

// IsTTY reports whether w is a terminal. Cron and systemd timers hand
// rsnap pipes or files, never a terminal.
func IsTTY(w io.Writer) bool {
	if f, ok := w.(interface{ Fd() uintptr }); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return false
}

// SupportsColor is ColorAuto.Enabled(w).
func SupportsColor(w io.Writer) bool {
	return ColorAuto.Enabled(w)
}

func autoColor(isTTY bool) bool {
	// https://no-color.org
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return isTTY
}
