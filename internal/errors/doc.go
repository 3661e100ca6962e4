// Package errors provides error handling conventions for the rsnap CLI.
//
// It re-exports the wrapping helpers of github.com/cockroachdb/errors,
// defines sentinel errors for the failure classes of a backup run, and an
// ExitError type that carries the process exit code.
//
// # Sentinel Errors
//
// Sentinel errors allow callers to check for specific error conditions
// using [Is]:
//
//	if errors.Is(err, errors.ErrSyncFailure) {
//	    // rsync exited non-zero
//	}
//
// A volume that is not mounted is not an error; the mount resolver reports
// it as a normal result.
//
// # Exit Codes
//
//   - ExitSuccess (0): run completed
//   - ExitUser (1): configuration or privilege problem
//   - ExitSystem (2): network, I/O or rsync failure
package errors
