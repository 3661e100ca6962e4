// Package mount resolves filesystem UUIDs to live mount points.
//
// The mount table is the line-oriented format of /proc/mounts: device,
// mount point, type, options, dump and pass fields separated by
// whitespace, with space, tab, newline and backslash in paths written as
// octal escapes. A UUID is mapped to a device through the by-uuid symlink
// directory maintained by udev.
package mount

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/thoreinstein/rsnap/internal/errors"
)

// Volume is a storage device addressed by filesystem UUID.
// Device and MountPoint are empty when the volume is not mounted.
type Volume struct {
	UUID       string
	Device     string
	MountPoint string
}

// Mounted reports whether the volume has a live mount point.
func (v Volume) Mounted() bool {
	return v.MountPoint != ""
}

// Table maps device paths to mount points.
type Table map[string]string

// ParseTable reads a mount table. Only lines that start with "/" and
// contain at least two fields are kept, which drops pseudo filesystems
// such as proc, sysfs and tmpfs. The first mount point seen for a device
// wins.
func ParseTable(r io.Reader) (Table, error) {
	table := make(Table)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "/") || !strings.Contains(line, " ") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		device := Unescape(fields[0])
		if _, ok := table[device]; ok {
			continue
		}
		table[device] = Unescape(fields[1])
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading mount table")
	}
	return table, nil
}

// LoadTable parses the mount table at path, usually /proc/mounts.
func LoadTable(path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening mount table %s", path)
	}
	defer f.Close()

	return ParseTable(f)
}

// Unescape decodes the three-digit octal escapes the kernel writes for
// whitespace and backslashes in mount table fields. Sequences that are not
// a valid escape are kept verbatim.
func Unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+3 < len(s) && isOctal(s[i+1]) && isOctal(s[i+2]) && isOctal(s[i+3]) {
			v := (int(s[i+1]-'0') << 6) | (int(s[i+2]-'0') << 3) | int(s[i+3]-'0')
			if v <= 0xff {
				b.WriteByte(byte(v))
				i += 3
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func isOctal(c byte) bool {
	return c >= '0' && c <= '7'
}

// Resolver maps UUIDs to mount points using a snapshot of the mount table.
type Resolver struct {
	table     Table
	byUUIDDir string
}

// NewResolver creates a Resolver over table. byUUIDDir is the directory of
// UUID symlinks, normally /dev/disk/by-uuid.
func NewResolver(table Table, byUUIDDir string) *Resolver {
	return &Resolver{
		table:     table,
		byUUIDDir: byUUIDDir,
	}
}

// Resolve looks up the mount point of the volume with the given UUID.
// A UUID without a by-uuid entry, or whose device is not in the mount
// table, is reported as not mounted with a nil error. Only unexpected
// failures while following the symlink are returned as errors.
func (r *Resolver) Resolve(uuid string) (Volume, bool, error) {
	vol := Volume{UUID: uuid}

	device, err := filepath.EvalSymlinks(filepath.Join(r.byUUIDDir, uuid))
	if err != nil {
		if os.IsNotExist(err) {
			return vol, false, nil
		}
		return vol, false, errors.Wrapf(err, "resolving device for %s", uuid)
	}
	vol.Device = device

	mountPoint, ok := r.table[device]
	if !ok {
		mountPoint, ok = r.lookupCanonical(device)
	}
	if !ok {
		return vol, false, nil
	}
	vol.MountPoint = mountPoint
	return vol, true, nil
}

// lookupCanonical matches table entries that name the device through a
// symlink, such as /dev/mapper/* entries for device-mapper volumes.
func (r *Resolver) lookupCanonical(device string) (string, bool) {
	for dev, mountPoint := range r.table {
		resolved, err := filepath.EvalSymlinks(dev)
		if err != nil {
			continue
		}
		if resolved == device {
			return mountPoint, true
		}
	}
	return "", false
}
