// Package config provides configuration management for the rsnap CLI.
//
// # Configuration File
//
// The configuration file is searched in ./config.yaml,
// $XDG_CONFIG_HOME/rsnap/config.yaml and /etc/rsnap/config.yaml, in that
// order. An explicit path can be given with --config. The file uses YAML:
//
//	drives:
//	  - 0d2f7c1e-8b0a-4c5e-9d55-1f3a7b9c2e10
//	paths:
//	  - /etc
//	  - /home/alex
//	excludes:
//	  - "*.iso"
//	base-dir: snapshots
//	last-dir: last
//	exclude-url: https://example.org/rsync-excludes.txt
//	on-sync-failure: abort-volume
//
// Every key can be overridden from the environment with the RSNAP_ prefix,
// dashes replaced by underscores (RSNAP_BASE_DIR, RSNAP_ON_SYNC_FAILURE).
//
// # Loading Configuration
//
// [Load] returns a validated, immutable [Config]:
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    if errors.Is(err, errors.ErrInvalidConfig) {
//	        // one or more keys failed validation
//	    }
//	    return err
//	}
//
// # Validation
//
// [Validate] collects every problem instead of stopping at the first one,
// so a single run of rsnap doctor reports all of them.
package config
