package backup

import (
	"os"

	"github.com/thoreinstein/rsnap/internal/errors"
)

// EnsureRoot returns errors.ErrNotRoot unless geteuid reports uid 0.
// A nil geteuid uses os.Geteuid.
func EnsureRoot(geteuid func() int) error {
	if geteuid == nil {
		geteuid = os.Geteuid
	}
	if uid := geteuid(); uid != 0 {
		return errors.Wrapf(errors.ErrNotRoot, "effective uid is %d", uid)
	}
	return nil
}
