// Package paths provides path resolution and directory helpers for rsnap.
//
// # XDG Base Directory Compliance
//
// The package wraps github.com/adrg/xdg for XDG Base Directory compliance.
// rsnap looks for its configuration under the user config home first and
// then under the system directory /etc:
//
//	paths.UserConfigFile()  // ~/.config/rsnap/config.yaml
//	paths.SystemConfigDir() // /etc
//
// # Directory Creation
//
// [EnsureDir] is the single place directories are created. It is
// idempotent and uses [DefaultDirPerm] (0755) when no mode is given.
package paths
