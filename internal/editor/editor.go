// Package editor launches the user's text editor on a file.
package editor

import (
	"context"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/thoreinstein/rsnap/internal/errors"
)

// Streams connects the editor to a terminal.
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// Stdio returns the process's standard streams.
func Stdio() Streams {
	return Streams{In: os.Stdin, Out: os.Stdout, Err: os.Stderr}
}

// Open runs the preferred editor on path and waits for it to exit.
// $EDITOR and $VISUAL may carry arguments, e.g. "code --wait".
func Open(ctx context.Context, path string, s Streams) error {
	argv := append(Command(), path)

	c := exec.CommandContext(ctx, argv[0], argv[1:]...)
	c.Stdin = s.In
	c.Stdout = s.Out
	c.Stderr = s.Err

	if err := c.Run(); err != nil {
		return errors.Wrapf(err, "running %s", argv[0])
	}
	return nil
}

// Command returns the editor argv without the file argument.
// Fallback chain: $EDITOR, $VISUAL, nano, vi.
func Command() []string {
	for _, env := range []string{"EDITOR", "VISUAL"} {
		if f := strings.Fields(os.Getenv(env)); len(f) > 0 {
			return f
		}
	}
	if _, err := exec.LookPath("nano"); err == nil {
		return []string{"nano"}
	}
	return []string{"vi"}
}
