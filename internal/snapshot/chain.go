package snapshot

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/thoreinstein/rsnap/internal/errors"
)

// Segments returns the number of non-empty "/"-separated segments of a
// source path.
func Segments(source string) int {
	n := 0
	for _, part := range strings.Split(source, "/") {
		if part != "" {
			n++
		}
	}
	return n
}

// Destination returns where source is synced inside a snapshot: the
// source path with its leading slash stripped, joined to the snapshot.
func Destination(snapshotPath, source string) string {
	return filepath.Join(snapshotPath, strings.Trim(source, "/"))
}

// LinkReference returns the --link-dest value for source. rsync resolves it
// relative to the destination, which sits Segments(source) levels below the
// snapshot directory, which itself sits one level below the snapshot root
// holding lastDir.
func LinkReference(source, lastDir string) string {
	up := strings.Repeat("../", Segments(source)+1)
	return up + path.Join(lastDir, strings.Trim(source, "/"))
}

// RepublishLast points the last link at snapshotPath. Any existing entry
// at lastLinkPath is removed first; a missing entry is fine, every other
// removal failure is returned as ErrSymlinkRemoval. The link target is
// relative to the link's directory so the volume stays valid when mounted
// elsewhere.
func RepublishLast(snapshotPath, lastLinkPath string) error {
	target, err := filepath.Rel(filepath.Dir(lastLinkPath), snapshotPath)
	if err != nil {
		return errors.Wrapf(err, "computing last link target for %s", snapshotPath)
	}

	if err := os.Remove(lastLinkPath); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(errors.Mark(err, errors.ErrSymlinkRemoval),
			"removing %s", lastLinkPath)
	}

	if err := os.Symlink(target, lastLinkPath); err != nil {
		return errors.Wrapf(err, "linking %s to %s", lastLinkPath, target)
	}
	return nil
}

// LastTarget returns the snapshot the last link points to, resolved to an
// absolute path. ok is false when the link does not exist.
func LastTarget(lastLinkPath string) (target string, ok bool, err error) {
	dest, err := os.Readlink(lastLinkPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, errors.Wrapf(err, "reading %s", lastLinkPath)
	}
	if !filepath.IsAbs(dest) {
		dest = filepath.Join(filepath.Dir(lastLinkPath), dest)
	}
	return dest, true, nil
}

// Flush commits buffered filesystem writes to disk.
func Flush() {
	unix.Sync()
}
