package paths

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

// DefaultDirPerm is the permission for snapshot roots, snapshot directories
// and the parents of per-source destinations.
const DefaultDirPerm = 0o755

// EnsureDir creates the directory and any necessary parents with specified permissions.
// If perm is 0, DefaultDirPerm (0755) is used.
// This function is idempotent; it returns nil if the directory already exists.
func EnsureDir(path string, perm os.FileMode) error {
	if perm == 0 {
		perm = DefaultDirPerm
	}
	return os.MkdirAll(path, perm)
}

// Exists reports whether path exists. Errors other than "not exist" are
// returned so callers never mistake an unreadable entry for a free name.
func Exists(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// ConfigHome returns the XDG config home directory.
// XDG_CONFIG_HOME is consulted at call time so it can be changed after
// process start; otherwise the value resolved by adrg/xdg is used.
func ConfigHome() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" && filepath.IsAbs(dir) {
		return dir
	}
	return xdg.ConfigHome
}

// SystemConfigDir returns /etc. rsnap runs as root from a scheduler, so it
// is searched after the user config home.
func SystemConfigDir() string {
	return "/etc"
}

// UserConfigFile returns the per-user config file path.
// Returns: <ConfigHome>/rsnap/config.yaml
func UserConfigFile() string {
	return filepath.Join(ConfigHome(), "rsnap", "config.yaml")
}
