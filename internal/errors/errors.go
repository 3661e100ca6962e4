package errors

import (
	"fmt"

	crdb "github.com/cockroachdb/errors"
)

// Process exit codes.
const (
	ExitSuccess = 0
	ExitUser    = 1
	ExitSystem  = 2
)

// Sentinel errors for common failure conditions.
var (
	// ErrNotRoot indicates the process is not running with root privileges.
	ErrNotRoot = crdb.New("must be run as root")

	// ErrInvalidConfig indicates configuration validation failed.
	ErrInvalidConfig = crdb.New("invalid configuration")

	// ErrExcludeFetch indicates the remote exclude list could not be downloaded.
	ErrExcludeFetch = crdb.New("exclude list fetch failed")

	// ErrSyncFailure indicates the external sync tool exited non-zero.
	ErrSyncFailure = crdb.New("sync failed")

	// ErrSymlinkRemoval indicates a stale last link could not be removed.
	ErrSymlinkRemoval = crdb.New("removing last link failed")
)

// Re-exported helpers from github.com/cockroachdb/errors so callers only
// need to import this package.
var (
	New    = crdb.New
	Newf   = crdb.Newf
	Wrap   = crdb.Wrap
	Wrapf  = crdb.Wrapf
	Is     = crdb.Is
	As     = crdb.As
	Unwrap = crdb.Unwrap
	Mark   = crdb.Mark
)

// ExitError carries the process exit status for err, plus an optional
// hint printed under the error message.
type ExitError struct {
	Err        error
	Code       int
	Suggestion string
}

// NewExitError attaches code to err.
func NewExitError(err error, code int) *ExitError {
	return &ExitError{Err: err, Code: code}
}

// NewUserError is for problems the operator fixes: usage, config, privileges.
func NewUserError(err error, suggestion string) *ExitError {
	return &ExitError{Err: err, Code: ExitUser, Suggestion: suggestion}
}

// NewSystemError is for failures of the environment: network, rsync, disks.
func NewSystemError(err error, suggestion string) *ExitError {
	return &ExitError{Err: err, Code: ExitSystem, Suggestion: suggestion}
}

// NewConfigError is a user error pointing at rsnap doctor.
func NewConfigError(err error) *ExitError {
	return NewUserError(err, "Run: rsnap doctor")
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit code %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExitCode returns the exit code carried by err. Errors without an
// ExitError in their chain map to ExitSystem; nil maps to ExitSuccess.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if crdb.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitSystem
}
