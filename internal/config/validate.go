package config

import (
	"net/url"
	"path/filepath"
	"strings"

	"github.com/thoreinstein/rsnap/internal/errors"
)

// Validation errors for configuration fields.
var (
	// ErrNoDrives indicates no drive UUIDs are configured.
	ErrNoDrives = errors.New("at least one drive is required")

	// ErrNoPaths indicates no source paths are configured.
	ErrNoPaths = errors.New("at least one path is required")

	// ErrDuplicate indicates a value is listed more than once.
	ErrDuplicate = errors.New("duplicate entry")

	// ErrInvalidPath indicates a path value is malformed.
	ErrInvalidPath = errors.New("invalid path")

	// ErrInvalidName indicates a directory name is not a single path segment.
	ErrInvalidName = errors.New("invalid directory name")

	// ErrInvalidPolicy indicates an unknown on-sync-failure value.
	ErrInvalidPolicy = errors.New("invalid failure policy")

	// ErrInvalidURL indicates the exclude URL is not an http(s) URL.
	ErrInvalidURL = errors.New("invalid exclude url")
)

// Validate checks a Config for validity.
// Returns nil if valid, or a slice of validation errors.
func Validate(cfg *Config) []error {
	if cfg == nil {
		return []error{errors.New("config is nil")}
	}

	var errs []error

	if len(cfg.Drives) == 0 {
		errs = append(errs, ErrNoDrives)
	}
	seen := make(map[string]bool, len(cfg.Drives))
	for _, d := range cfg.Drives {
		if d == "" || strings.ContainsAny(d, "/\x00") {
			errs = append(errs, &FieldError{Field: "drives", Value: d, Err: ErrInvalidName})
			continue
		}
		if seen[d] {
			errs = append(errs, &FieldError{Field: "drives", Value: d, Err: ErrDuplicate})
		}
		seen[d] = true
	}

	if len(cfg.Paths) == 0 {
		errs = append(errs, ErrNoPaths)
	}
	seen = make(map[string]bool, len(cfg.Paths))
	for _, p := range cfg.Paths {
		if err := validateSource(p); err != nil {
			errs = append(errs, &FieldError{Field: "paths", Value: p, Err: err})
			continue
		}
		if seen[p] {
			errs = append(errs, &FieldError{Field: "paths", Value: p, Err: ErrDuplicate})
		}
		seen[p] = true
	}

	if err := validateName(cfg.BaseDir); err != nil {
		errs = append(errs, &FieldError{Field: "base-dir", Value: cfg.BaseDir, Err: err})
	}
	if err := validateName(cfg.LastDir); err != nil {
		errs = append(errs, &FieldError{Field: "last-dir", Value: cfg.LastDir, Err: err})
	}

	switch cfg.OnSyncFailure {
	case PolicyAbortVolume, PolicyContinue, PolicyAbortRun:
	default:
		errs = append(errs, &FieldError{Field: "on-sync-failure", Value: cfg.OnSyncFailure, Err: ErrInvalidPolicy})
	}

	if cfg.ExcludeURL != "" {
		u, err := url.Parse(cfg.ExcludeURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, &FieldError{Field: "exclude-url", Value: cfg.ExcludeURL, Err: ErrInvalidURL})
		}
	}

	if cfg.ExcludesEnabled() {
		if err := validatePath(cfg.ExcludeFile); err != nil || cfg.ExcludeFile == "" {
			errs = append(errs, &FieldError{Field: "exclude-file", Value: cfg.ExcludeFile, Err: ErrInvalidPath})
		}
	}

	if cfg.Rsync == "" {
		errs = append(errs, &FieldError{Field: "rsync", Value: cfg.Rsync, Err: ErrInvalidPath})
	}

	return errs
}

// validateSource requires an absolute path other than the root directory.
func validateSource(path string) error {
	if err := validatePath(path); err != nil {
		return err
	}
	if !filepath.IsAbs(path) || filepath.Clean(path) == "/" {
		return ErrInvalidPath
	}
	return nil
}

// validatePath checks if a path string is well-formed.
// It does not check if the path exists, only that it's syntactically valid.
func validatePath(path string) error {
	if path == "" {
		return ErrInvalidPath
	}

	// Null bytes are never valid in paths
	if strings.ContainsRune(path, '\x00') {
		return ErrInvalidPath
	}

	cleaned := filepath.Clean(path)
	if cleaned == "" || cleaned == "." {
		return ErrInvalidPath
	}

	return nil
}

// validateName requires a single, non-special path segment.
func validateName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, "/\x00") {
		return ErrInvalidName
	}
	return nil
}

// FieldError represents an error for a specific configuration key.
type FieldError struct {
	Field string
	Value string
	Err   error
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Err.Error() + ": " + e.Value
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// ValidationError aggregates every problem found by Validate.
// It matches ErrInvalidConfig with errors.Is.
type ValidationError struct {
	Errs []error
}

func newValidationError(errs []error) error {
	return &ValidationError{Errs: errs}
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Errs))
	for i, err := range e.Errs {
		msgs[i] = err.Error()
	}
	return "validating config: " + strings.Join(msgs, "; ")
}

// Is reports whether target is ErrInvalidConfig.
func (e *ValidationError) Is(target error) bool {
	return target == errors.ErrInvalidConfig
}

// Unwrap exposes the individual validation errors.
func (e *ValidationError) Unwrap() []error {
	return e.Errs
}
