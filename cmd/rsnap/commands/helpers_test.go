package commands

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/thoreinstein/rsnap/internal/rsync"
)

// resetFlags restores every flag of c and its subcommands to its default
// so tests do not leak state through the package-level command tree.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// execute runs the root command with args and returns captured stdout and
// stderr. The process is treated as root unless the test overrides geteuid.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	resetFlags(rootCmd)
	t.Cleanup(func() { resetFlags(rootCmd) })

	origEUID, origRunner := geteuid, newRunner
	t.Cleanup(func() { geteuid, newRunner = origEUID, origRunner })

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.ExecuteContext(t.Context())
	return stdout.String(), stderr.String(), err
}

// fakeRsync writes one marker file into each destination.
type fakeRsync struct {
	mu    sync.Mutex
	calls [][]string
	exit  int
}

func (f *fakeRsync) Run(_ context.Context, argv []string, _ string, out io.Writer) (int, error) {
	f.mu.Lock()
	f.calls = append(f.calls, argv)
	f.mu.Unlock()

	if len(argv) == 2 && argv[1] == "--version" {
		fmt.Fprintln(out, "rsync  version 3.2.7  protocol version 31")
		return 0, nil
	}

	dest := argv[3]
	fmt.Fprintf(out, "sending incremental file list\n%s\n", argv[2])
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return 0, err
	}
	if err := os.WriteFile(filepath.Join(dest, "marker"), []byte(argv[2]), 0o644); err != nil {
		return 0, err
	}
	return f.exit, nil
}

var _ rsync.Runner = (*fakeRsync)(nil)

// backupWorld is a temp dir holding a fake by-uuid directory, a mount
// table and one mounted drive.
type backupWorld struct {
	dir        string
	mountPoint string
	configFile string
}

const testDrive = "0a1b2c3d-1111-4000-8000-00000000000a"

func newBackupWorld(t *testing.T, extra string) *backupWorld {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))

	byUUID := filepath.Join(dir, "by-uuid")
	dev := filepath.Join(dir, "sdb1")
	mnt := filepath.Join(dir, "mnt", "backup")
	for _, d := range []string{byUUID, mnt} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(dev, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(dev, filepath.Join(byUUID, testDrive)); err != nil {
		t.Fatal(err)
	}
	mounts := filepath.Join(dir, "mounts")
	if err := os.WriteFile(mounts, []byte(fmt.Sprintf("%s %s ext4 rw 0 0\n", dev, mnt)), 0o644); err != nil {
		t.Fatal(err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "drives:\n  - %s\npaths:\n  - /etc\n", testDrive)
	fmt.Fprintf(&b, "mounts-file: %s\nby-uuid-dir: %s\n", mounts, byUUID)
	fmt.Fprintf(&b, "exclude-file: %s\n", filepath.Join(dir, "excludes"))
	b.WriteString(extra)

	cfgFile := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgFile, []byte(b.String()), 0o600); err != nil {
		t.Fatal(err)
	}
	return &backupWorld{dir: dir, mountPoint: mnt, configFile: cfgFile}
}
