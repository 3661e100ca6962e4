// Package config provides configuration management for rsnap using Viper.
package config

import (
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/thoreinstein/rsnap/internal/errors"
	"github.com/thoreinstein/rsnap/internal/paths"
)

// AppName is the application name used for config file naming.
const AppName = "rsnap"

// Failure policies applied when rsync fails for one source path.
const (
	// PolicyAbortVolume stops the remaining sources of the volume and leaves
	// its last link untouched. Other volumes still run.
	PolicyAbortVolume = "abort-volume"

	// PolicyContinue syncs the remaining sources but still leaves the last
	// link untouched, since the snapshot is incomplete.
	PolicyContinue = "continue"

	// PolicyAbortRun stops the whole run after the failing volume.
	PolicyAbortRun = "abort-run"
)

// Defaults for optional keys.
const (
	DefaultBaseDir     = "snapshots"
	DefaultLastDir     = "last"
	DefaultExcludeFile = "/var/cache/rsnap/excludes"
	DefaultRsync       = "rsync"
	DefaultMountsFile  = "/proc/mounts"
	DefaultByUUIDDir   = "/dev/disk/by-uuid"
)

// Config represents the top-level configuration structure.
// It is loaded once per run and not modified afterwards.
type Config struct {
	Drives        []string `mapstructure:"drives" yaml:"drives" toml:"drives"`
	Paths         []string `mapstructure:"paths" yaml:"paths" toml:"paths"`
	Excludes      []string `mapstructure:"excludes" yaml:"excludes" toml:"excludes"`
	BaseDir       string   `mapstructure:"base-dir" yaml:"base-dir" toml:"base-dir"`
	LastDir       string   `mapstructure:"last-dir" yaml:"last-dir" toml:"last-dir"`
	ExcludeURL    string   `mapstructure:"exclude-url" yaml:"exclude-url" toml:"exclude-url"`
	ExcludeFile   string   `mapstructure:"exclude-file" yaml:"exclude-file" toml:"exclude-file"`
	Rsync         string   `mapstructure:"rsync" yaml:"rsync" toml:"rsync"`
	RsyncArgs     []string `mapstructure:"rsync-args" yaml:"rsync-args" toml:"rsync-args"`
	MountsFile    string   `mapstructure:"mounts-file" yaml:"mounts-file" toml:"mounts-file"`
	ByUUIDDir     string   `mapstructure:"by-uuid-dir" yaml:"by-uuid-dir" toml:"by-uuid-dir"`
	OnSyncFailure string   `mapstructure:"on-sync-failure" yaml:"on-sync-failure" toml:"on-sync-failure"`
}

// Default returns a configuration holding only default values.
// Drives and Paths are empty and must be supplied by the user.
func Default() *Config {
	return &Config{
		Drives:        []string{},
		Paths:         []string{},
		Excludes:      []string{},
		BaseDir:       DefaultBaseDir,
		LastDir:       DefaultLastDir,
		ExcludeFile:   DefaultExcludeFile,
		Rsync:         DefaultRsync,
		RsyncArgs:     []string{},
		MountsFile:    DefaultMountsFile,
		ByUUIDDir:     DefaultByUUIDDir,
		OnSyncFailure: PolicyAbortVolume,
	}
}

// ExcludesEnabled reports whether an exclude file is passed to rsync.
func (c *Config) ExcludesEnabled() bool {
	return c.ExcludeURL != "" || len(c.Excludes) > 0
}

// newViper builds a Viper instance with search paths, environment binding
// and defaults. A fresh instance per load keeps state out of the package.
func newViper() *viper.Viper {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// Search paths (in order of precedence)
	v.AddConfigPath(".")
	v.AddConfigPath(filepath.Join(paths.ConfigHome(), AppName))
	v.AddConfigPath(filepath.Join(paths.SystemConfigDir(), AppName))

	v.SetEnvPrefix("RSNAP")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	d := Default()
	v.SetDefault("drives", d.Drives)
	v.SetDefault("paths", d.Paths)
	v.SetDefault("excludes", d.Excludes)
	v.SetDefault("base-dir", d.BaseDir)
	v.SetDefault("last-dir", d.LastDir)
	v.SetDefault("exclude-url", d.ExcludeURL)
	v.SetDefault("exclude-file", d.ExcludeFile)
	v.SetDefault("rsync", d.Rsync)
	v.SetDefault("rsync-args", d.RsyncArgs)
	v.SetDefault("mounts-file", d.MountsFile)
	v.SetDefault("by-uuid-dir", d.ByUUIDDir)
	v.SetDefault("on-sync-failure", d.OnSyncFailure)

	return v
}

// Load reads and validates the configuration file.
// If path is provided, it reads from that specific file.
// If path is empty, it searches in the default locations; a missing file
// then yields defaults, which fail validation because drives and paths are
// required.
func Load(path string) (*Config, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "reading config file")
		}
		if path != "" {
			return nil, errors.Wrapf(err, "config file not found at %s", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshaling config")
	}
	normalize(&cfg)

	if errs := Validate(&cfg); len(errs) > 0 {
		return nil, newValidationError(errs)
	}

	return &cfg, nil
}

// Used returns the config file Load would read for path, or an empty
// string when no file is found.
func Used(path string) string {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
	}
	if err := v.ReadInConfig(); err != nil {
		return ""
	}
	return v.ConfigFileUsed()
}

// normalize cleans path-like values after unmarshaling.
func normalize(cfg *Config) {
	for i, p := range cfg.Paths {
		if p != "" {
			cfg.Paths[i] = filepath.Clean(p)
		}
	}
	for i, d := range cfg.Drives {
		cfg.Drives[i] = strings.TrimSpace(d)
	}
	cfg.OnSyncFailure = strings.ToLower(strings.TrimSpace(cfg.OnSyncFailure))
}
