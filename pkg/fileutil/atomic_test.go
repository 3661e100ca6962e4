package fileutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}
	return names
}

func TestAtomicWriteFile(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		perm os.FileMode
	}{
		{"exclude list", []byte("*.iso\n# local excludes\n/home/*/.cache\n"), 0o644},
		{"private", []byte("secret"), 0o600},
		{"empty", nil, 0o644},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "excludes")

			require.NoError(t, AtomicWriteFile(path, tt.data, tt.perm))

			got, err := os.ReadFile(path)
			require.NoError(t, err)
			require.Equal(t, string(tt.data), string(got))

			info, err := os.Stat(path)
			require.NoError(t, err)
			require.Equal(t, tt.perm, info.Mode().Perm())

			require.Equal(t, []string{"excludes"}, listDir(t, dir), "no temp file left behind")
		})
	}
}

func TestAtomicWriteFile_Replaces(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "excludes")
	require.NoError(t, os.WriteFile(path, []byte("old list, much longer than the new one\n"), 0o600))

	require.NoError(t, AtomicWriteFile(path, []byte("new\n"), 0o644))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "new\n", string(got))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o644), info.Mode().Perm(), "perm follows the new write")
}

func TestAtomicWriteFile_MissingDir(t *testing.T) {
	err := AtomicWriteFile(filepath.Join(t.TempDir(), "cache", "excludes"), []byte("x"), 0o644)
	require.Error(t, err)
}

func TestAtomicWriteFile_RenameFailureCleansUp(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "excludes")
	// A non-empty directory cannot be replaced by a file.
	require.NoError(t, os.MkdirAll(filepath.Join(target, "child"), 0o755))

	err := AtomicWriteFile(target, []byte("x"), 0o644)
	require.Error(t, err)
	require.Contains(t, err.Error(), "renaming into")
	require.Equal(t, []string{"excludes"}, listDir(t, dir))
}

func TestAtomicWriteYAML(t *testing.T) {
	type cfg struct {
		Drives []string `yaml:"drives"`
		Policy string   `yaml:"on-sync-failure"`
	}
	in := cfg{Drives: []string{"0a1b2c3d"}, Policy: "abort-volume"}
	path := filepath.Join(t.TempDir(), "config.yaml")

	require.NoError(t, AtomicWriteYAML(path, in))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(string(data), "\n"))
	require.Contains(t, string(data), "drives:\n  - 0a1b2c3d\n", "two-space indent")

	var out cfg
	require.NoError(t, yaml.Unmarshal(data, &out))
	require.Equal(t, in, out)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestAtomicWriteYAML_Unmarshalable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	err := AtomicWriteYAML(path, map[string]any{"fn": func() {}})
	require.Error(t, err)
	require.Contains(t, err.Error(), "marshaling YAML")

	_, statErr := os.Stat(path)
	require.True(t, os.IsNotExist(statErr))
}
