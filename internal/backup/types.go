package backup

import (
	"fmt"
	"time"

	"github.com/thoreinstein/rsnap/internal/errors"
)

// ErrIncomplete indicates at least one drive failed during a run.
var ErrIncomplete = errors.New("backup incomplete")

// Status is the outcome of one drive in a run.
type Status string

const (
	// StatusSkipped means the drive was not mounted.
	StatusSkipped Status = "skipped"
	// StatusOK means every source synced and the last link was moved.
	StatusOK Status = "ok"
	// StatusFailed means the snapshot is incomplete or could not be made.
	StatusFailed Status = "failed"
)

// VolumeResult records what happened to one drive.
type VolumeResult struct {
	UUID       string
	MountPoint string
	Snapshot   string
	Status     Status

	// Synced lists the sources copied successfully, in order.
	Synced []string
	// FailedSources lists the sources whose sync failed.
	FailedSources []string
	// Err is the first error encountered, nil unless Status is StatusFailed.
	Err error
}

// Report summarizes a run.
type Report struct {
	RunID    string
	Started  time.Time
	Finished time.Time
	// ExcludeFile is the exclude list passed to rsync, empty when none.
	ExcludeFile string
	Volumes     []VolumeResult
}

// Count returns the number of drives with status s.
func (r *Report) Count(s Status) int {
	n := 0
	for _, v := range r.Volumes {
		if v.Status == s {
			n++
		}
	}
	return n
}

// IncompleteError reports the drives that failed in a run.
// It matches ErrIncomplete and unwraps to the first drive error.
type IncompleteError struct {
	Failed int
	Total  int
	First  error
}

func (e *IncompleteError) Error() string {
	msg := fmt.Sprintf("%d of %d drives failed", e.Failed, e.Total)
	if e.First != nil {
		msg += ": " + e.First.Error()
	}
	return msg
}

// Is reports whether target is ErrIncomplete.
func (e *IncompleteError) Is(target error) bool {
	return target == ErrIncomplete
}

func (e *IncompleteError) Unwrap() error {
	return e.First
}

// Err returns nil when no drive failed, and an *IncompleteError otherwise.
func (r *Report) Err() error {
	e := &IncompleteError{Total: len(r.Volumes)}
	for _, v := range r.Volumes {
		if v.Status != StatusFailed {
			continue
		}
		e.Failed++
		if e.First == nil {
			e.First = v.Err
		}
	}
	if e.Failed == 0 {
		return nil
	}
	return e
}
