package rsync

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/thoreinstein/rsnap/internal/errors"
	"github.com/thoreinstein/rsnap/internal/paths"
)

// DefaultFlags asks rsync for archive mode (recursive, permissions, times,
// links, owner, group, devices), partial transfers with progress,
// human-readable sizes and double verbosity.
const DefaultFlags = "-vvaPh"

// SyncError reports a non-zero rsync exit for one source path.
// It matches errors.ErrSyncFailure.
type SyncError struct {
	Source   string
	ExitCode int
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("rsync %s: exit status %d", e.Source, e.ExitCode)
}

// Is reports whether target is ErrSyncFailure.
func (e *SyncError) Is(target error) bool {
	return target == errors.ErrSyncFailure
}

// Syncer builds rsync command lines and runs them through a Runner.
type Syncer struct {
	runner    Runner
	bin       string
	extraArgs []string
	out       io.Writer
}

// Option configures a Syncer.
type Option func(*Syncer)

// WithBinary sets the rsync executable. Defaults to "rsync" on PATH.
func WithBinary(bin string) Option {
	return func(s *Syncer) {
		if bin != "" {
			s.bin = bin
		}
	}
}

// WithExtraArgs appends arguments after the default flags.
func WithExtraArgs(args ...string) Option {
	return func(s *Syncer) {
		s.extraArgs = append(s.extraArgs, args...)
	}
}

// WithOutput sets where rsync output is streamed.
func WithOutput(w io.Writer) Option {
	return func(s *Syncer) {
		s.out = w
	}
}

// NewSyncer creates a Syncer using runner.
func NewSyncer(runner Runner, opts ...Option) *Syncer {
	s := &Syncer{
		runner: runner,
		bin:    "rsync",
		out:    io.Discard,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Args returns the full argument vector for syncing source into
// destination. The trailing slash on source makes rsync copy the contents
// of the directory rather than the directory itself. excludeFile is
// omitted when empty.
func (s *Syncer) Args(source, destination, linkRef, excludeFile string) []string {
	argv := []string{s.bin, DefaultFlags}
	argv = append(argv, s.extraArgs...)
	argv = append(argv,
		strings.TrimRight(source, "/")+"/",
		destination,
		"--link-dest", linkRef,
	)
	if excludeFile != "" {
		argv = append(argv, "--exclude-from="+excludeFile)
	}
	return argv
}

// Sync copies source into destination, hard-linking files unchanged since
// the snapshot at linkRef. The parent of destination is created first.
// A non-zero exit is returned as *SyncError.
func (s *Syncer) Sync(ctx context.Context, source, destination, linkRef, excludeFile string) error {
	if err := paths.EnsureDir(filepath.Dir(destination), paths.DefaultDirPerm); err != nil {
		return errors.Wrapf(err, "creating parent of %s", destination)
	}

	argv := s.Args(source, destination, linkRef, excludeFile)
	code, err := s.runner.Run(ctx, argv, "", s.out)
	if err != nil {
		return errors.Wrapf(err, "syncing %s", source)
	}
	if code != 0 {
		return &SyncError{Source: source, ExitCode: code}
	}
	return nil
}
