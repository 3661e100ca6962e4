package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/thoreinstein/rsnap/internal/errors"
	"github.com/thoreinstein/rsnap/internal/paths"
)

// DateLayout is the time layout of snapshot directory names.
const DateLayout = "2006-01-02"

// maxAllocateAttempts bounds retries when a planned name is taken between
// planning and creation.
const maxAllocateAttempts = 10

// maxSuffix bounds the collision search so a broken filesystem cannot spin
// forever.
const maxSuffix = 100000

// Name returns the snapshot directory name for day with the given
// collision suffix. Suffix 0 yields the bare date.
func Name(day time.Time, suffix int) string {
	date := day.Format(DateLayout)
	if suffix == 0 {
		return date
	}
	return fmt.Sprintf("%s_%d", date, suffix)
}

// NextPath returns the first unused snapshot path under root for day.
// It does not create anything, so two calls without creating the result
// return the same path.
func NextPath(root string, day time.Time) (string, error) {
	for suffix := 0; suffix < maxSuffix; suffix++ {
		candidate := filepath.Join(root, Name(day, suffix))
		exists, err := paths.Exists(candidate)
		if err != nil {
			return "", errors.Wrapf(err, "checking %s", candidate)
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", errors.Newf("no free snapshot name under %s for %s", root, day.Format(DateLayout))
}

// Root returns the snapshot root for a mount point.
func Root(mountPoint, baseDir string) string {
	return filepath.Join(mountPoint, baseDir)
}

// EnsureRoot creates the snapshot root if needed. It reports whether the
// directory was created by this call.
func EnsureRoot(root string) (bool, error) {
	exists, err := paths.Exists(root)
	if err != nil {
		return false, errors.Wrapf(err, "checking snapshot root %s", root)
	}
	if exists {
		return false, nil
	}
	if err := paths.EnsureDir(root, paths.DefaultDirPerm); err != nil {
		return false, errors.Wrapf(err, "creating snapshot root %s", root)
	}
	return true, nil
}

// Allocate plans and creates the next snapshot directory for day. The
// directory is created with a plain mkdir so an existing directory is never
// reused; if another process takes the planned name first, planning starts
// over.
func Allocate(root string, day time.Time) (string, error) {
	if err := paths.EnsureDir(root, paths.DefaultDirPerm); err != nil {
		return "", errors.Wrapf(err, "creating snapshot root %s", root)
	}
	for range maxAllocateAttempts {
		snapshotPath, err := NextPath(root, day)
		if err != nil {
			return "", err
		}
		err = os.Mkdir(snapshotPath, paths.DefaultDirPerm)
		if err == nil {
			return snapshotPath, nil
		}
		if !os.IsExist(err) {
			return "", errors.Wrapf(err, "creating snapshot %s", snapshotPath)
		}
	}
	return "", errors.Newf("snapshot names under %s kept changing while allocating", root)
}
