package fileutil

import (
	"io"

	"github.com/thoreinstein/rsnap/internal/errors"
)

// MaxDownloadSize is the largest body ReadAllWithLimit accepts by default
// (4MB). Exclude lists are a few kilobytes.
const MaxDownloadSize = 4 * 1024 * 1024

// ErrTooLarge indicates that input exceeded the read limit.
var ErrTooLarge = errors.New("input exceeds maximum size")

// ReadAllWithLimit reads r to EOF, failing with ErrTooLarge once more than
// limit bytes arrive. A limit <= 0 uses MaxDownloadSize.
func ReadAllWithLimit(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		limit = MaxDownloadSize
	}

	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, errors.Wrap(err, "reading")
	}

	if int64(len(data)) > limit {
		return nil, errors.Wrapf(ErrTooLarge, "limit %d bytes", limit)
	}

	return data, nil
}
