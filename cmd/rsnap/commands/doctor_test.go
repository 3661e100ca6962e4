package commands

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/thoreinstein/rsnap/internal/doctor"
	"github.com/thoreinstein/rsnap/internal/errors"
	"github.com/thoreinstein/rsnap/internal/rsync"
)

// fakeBinary creates an executable so the rsync lookup succeeds.
func fakeBinary(t *testing.T) string {
	t.Helper()
	bin := filepath.Join(t.TempDir(), "rsync")
	require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\n"), 0o755))
	return bin
}

func TestDoctor_AllPassJSON(t *testing.T) {
	w := newBackupWorld(t, "rsync: "+fakeBinary(t)+"\n")
	geteuid = func() int { return 0 }
	newRunner = func() rsync.Runner { return &fakeRsync{} }

	stdout, _, err := execute(t, "--config", w.configFile, "doctor", "--json")
	require.NoError(t, err)

	var report doctor.Report
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))
	require.Len(t, report.Results, 4)
	require.Zero(t, report.Summary.Errors)
	require.Zero(t, report.Summary.Warnings)

	byName := map[string]*doctor.CheckResult{}
	for _, r := range report.Results {
		byName[r.Name] = r
	}
	require.Contains(t, byName["rsync"].Message, "3.2.7")
	require.Equal(t, doctor.SeverityPass, byName["drives"].Status)
}

func TestDoctor_NotRootIsError(t *testing.T) {
	w := newBackupWorld(t, "rsync: "+fakeBinary(t)+"\n")
	geteuid = func() int { return 1000 }
	newRunner = func() rsync.Runner { return &fakeRsync{} }

	stdout, _, err := execute(t, "--config", w.configFile, "doctor")
	require.Error(t, err)
	require.Equal(t, errors.ExitSystem, errors.ExitCode(err))
	require.Contains(t, stdout, "Summary:")
	require.Contains(t, stdout, "1 errors")
}

func TestDoctor_UnmountedDriveIsWarning(t *testing.T) {
	w := newBackupWorld(t, "rsync: "+fakeBinary(t)+"\n")
	require.NoError(t, os.WriteFile(filepath.Join(w.dir, "mounts"), nil, 0o644))
	geteuid = func() int { return 0 }
	newRunner = func() rsync.Runner { return &fakeRsync{} }

	stdout, _, err := execute(t, "--config", w.configFile, "doctor", "--all")
	require.Error(t, err)
	require.Equal(t, errors.ExitUser, errors.ExitCode(err))
	require.Contains(t, stdout, "drives")
	require.Contains(t, stdout, "1 warnings")
}
