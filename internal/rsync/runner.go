// Package rsync drives the external rsync binary that copies source trees
// into snapshots.
package rsync

import (
	"context"
	"io"
	"os/exec"

	"github.com/thoreinstein/rsnap/internal/errors"
)

// Runner starts a process and waits for it. argv[0] is the program.
// Standard output and standard error are streamed to out as they are
// produced. A process that runs and exits non-zero returns its exit code
// with a nil error; err is reserved for failures to start or wait.
type Runner interface {
	Run(ctx context.Context, argv []string, dir string, out io.Writer) (exitCode int, err error)
}

// ExecRunner runs processes with os/exec.
type ExecRunner struct{}

var _ Runner = ExecRunner{}

// Run implements Runner.
func (ExecRunner) Run(ctx context.Context, argv []string, dir string, out io.Writer) (int, error) {
	if len(argv) == 0 {
		return -1, errors.New("empty command")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	if out == nil {
		out = io.Discard
	}
	cmd.Stdout = out
	cmd.Stderr = out

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && ctx.Err() == nil {
		return exitErr.ExitCode(), nil
	}
	if ctx.Err() != nil {
		return -1, errors.Wrapf(ctx.Err(), "running %s", argv[0])
	}
	return -1, errors.Wrapf(err, "running %s", argv[0])
}

// LookPath resolves the rsync binary the same way ExecRunner will.
func LookPath(bin string) (string, error) {
	p, err := exec.LookPath(bin)
	if err != nil {
		return "", errors.Wrapf(err, "locating %s", bin)
	}
	return p, nil
}
