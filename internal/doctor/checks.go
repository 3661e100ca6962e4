package doctor

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/thoreinstein/rsnap/internal/backup"
	"github.com/thoreinstein/rsnap/internal/config"
	"github.com/thoreinstein/rsnap/internal/errors"
	"github.com/thoreinstein/rsnap/internal/mount"
	"github.com/thoreinstein/rsnap/internal/paths"
	"github.com/thoreinstein/rsnap/internal/redact"
	"github.com/thoreinstein/rsnap/internal/rsync"
	"github.com/thoreinstein/rsnap/internal/snapshot"
)

// versionTimeout bounds "rsync --version".
const versionTimeout = 10 * time.Second

// PrivilegeCheck verifies the process runs as root.
type PrivilegeCheck struct {
	geteuid func() int
}

var _ Check = (*PrivilegeCheck)(nil)

// NewPrivilegeCheck creates a privilege check. A nil geteuid uses os.Geteuid.
func NewPrivilegeCheck(geteuid func() int) *PrivilegeCheck {
	if geteuid == nil {
		geteuid = os.Geteuid
	}
	return &PrivilegeCheck{geteuid: geteuid}
}

// Name returns the unique identifier for this check.
func (c *PrivilegeCheck) Name() string { return "privileges" }

// Category returns the grouping for this check.
func (c *PrivilegeCheck) Category() string { return "system" }

// Run executes the privilege check.
func (c *PrivilegeCheck) Run(context.Context) *CheckResult {
	if err := backup.EnsureRoot(c.geteuid); err != nil {
		return &CheckResult{
			Name:     c.Name(),
			Category: c.Category(),
			Status:   SeverityError,
			Message:  err.Error(),
			FixHint:  "run as root, e.g. sudo rsnap",
		}
	}
	return &CheckResult{
		Name:     c.Name(),
		Category: c.Category(),
		Status:   SeverityPass,
		Message:  "running as root",
	}
}

// RsyncCheck verifies the rsync binary can be found and executed.
type RsyncCheck struct {
	bin      string
	runner   rsync.Runner
	lookPath func(string) (string, error)
}

var _ Check = (*RsyncCheck)(nil)

// NewRsyncCheck creates a check for bin, executed through runner.
func NewRsyncCheck(bin string, runner rsync.Runner) *RsyncCheck {
	if bin == "" {
		bin = config.DefaultRsync
	}
	return &RsyncCheck{bin: bin, runner: runner, lookPath: rsync.LookPath}
}

// Name returns the unique identifier for this check.
func (c *RsyncCheck) Name() string { return "rsync" }

// Category returns the grouping for this check.
func (c *RsyncCheck) Category() string { return "system" }

// Run executes the rsync check.
func (c *RsyncCheck) Run(ctx context.Context) *CheckResult {
	path, err := c.lookPath(c.bin)
	if err != nil {
		return &CheckResult{
			Name:     c.Name(),
			Category: c.Category(),
			Status:   SeverityError,
			Message:  fmt.Sprintf("%s not found: %v", c.bin, err),
			FixHint:  "install rsync (e.g. apt install rsync) or set rsync in the config",
		}
	}

	ctx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()

	var out bytes.Buffer
	code, err := c.runner.Run(ctx, []string{path, "--version"}, "", &out)
	if err != nil || code != 0 {
		msg := fmt.Sprintf("%s --version exited %d", path, code)
		if err != nil {
			msg = fmt.Sprintf("%s --version: %v", path, err)
		}
		return &CheckResult{
			Name:     c.Name(),
			Category: c.Category(),
			Status:   SeverityError,
			Message:  msg,
			Details:  map[string]any{"path": path},
		}
	}

	version := firstLine(out.Bytes())
	return &CheckResult{
		Name:     c.Name(),
		Category: c.Category(),
		Status:   SeverityPass,
		Message:  fmt.Sprintf("%s (%s)", version, path),
		Details:  map[string]any{"path": path, "version": version},
	}
}

func firstLine(b []byte) string {
	sc := bufio.NewScanner(bytes.NewReader(b))
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			return line
		}
	}
	return "unknown version"
}

// ConfigCheck verifies the configuration loads and validates, and that the
// file is not exposed to other users.
type ConfigCheck struct {
	path string
}

var _ Check = (*ConfigCheck)(nil)

// NewConfigCheck creates a config check for the file at path, or the
// default search path when path is empty.
func NewConfigCheck(path string) *ConfigCheck {
	return &ConfigCheck{path: path}
}

// Name returns the unique identifier for this check.
func (c *ConfigCheck) Name() string { return "config" }

// Category returns the grouping for this check.
func (c *ConfigCheck) Category() string { return "config" }

// Run executes the config check.
func (c *ConfigCheck) Run(context.Context) *CheckResult {
	used := config.Used(c.path)
	where := used
	if where == "" {
		where = paths.UserConfigFile()
	}

	cfg, err := config.Load(c.path)
	if err != nil {
		res := &CheckResult{
			Name:     c.Name(),
			Category: c.Category(),
			Status:   SeverityError,
			Message:  err.Error(),
			FixHint:  fmt.Sprintf("edit %s or run: rsnap config init", where),
		}
		var verr *config.ValidationError
		if errors.As(err, &verr) {
			problems := make([]string, len(verr.Errs))
			for i, e := range verr.Errs {
				problems[i] = e.Error()
			}
			res.Message = fmt.Sprintf("%d configuration problems", len(problems))
			res.Details = map[string]any{"problems": problems, "file": used}
		}
		return res
	}

	details := map[string]any{
		"file":            used,
		"drives":          len(cfg.Drives),
		"paths":           len(cfg.Paths),
		"on-sync-failure": cfg.OnSyncFailure,
	}
	if cfg.ExcludeURL != "" {
		details["exclude-url"] = redact.MaskURL(cfg.ExcludeURL)
	}

	if used != "" {
		if res := c.checkPermissions(used, cfg, details); res != nil {
			return res
		}
	}

	msg := "configuration valid (defaults and environment only)"
	if used != "" {
		msg = "configuration valid: " + used
	}
	return &CheckResult{
		Name:     c.Name(),
		Category: c.Category(),
		Status:   SeverityPass,
		Message:  msg,
		Details:  details,
	}
}

// checkPermissions warns about world-writable config files and about
// credentials readable by other users. It returns nil when the file is fine.
func (c *ConfigCheck) checkPermissions(path string, cfg *config.Config, details map[string]any) *CheckResult {
	info, err := os.Stat(path)
	if err != nil {
		return nil
	}
	perm := info.Mode().Perm()
	details["mode"] = fmt.Sprintf("%04o", perm)

	switch {
	case perm&0o002 != 0:
		return &CheckResult{
			Name:     c.Name(),
			Category: c.Category(),
			Status:   SeverityWarning,
			Message:  "config file is world-writable; anyone could redirect backups",
			Details:  details,
			FixHint:  "chmod 600 " + path,
		}
	case perm&0o044 != 0 && redact.MaskURL(cfg.ExcludeURL) != cfg.ExcludeURL:
		return &CheckResult{
			Name:     c.Name(),
			Category: c.Category(),
			Status:   SeverityWarning,
			Message:  "exclude-url embeds a password and the config file is readable by others",
			Details:  details,
			FixHint:  "chmod 600 " + path,
		}
	}
	return nil
}

// DrivesCheck reports which configured drives are plugged in and mounted,
// and where their last link points.
type DrivesCheck struct {
	cfg      *config.Config
	resolver *mount.Resolver
}

var _ Check = (*DrivesCheck)(nil)

// NewDrivesCheck creates a drive check. A nil resolver loads the mount
// table named by cfg.
func NewDrivesCheck(cfg *config.Config, resolver *mount.Resolver) *DrivesCheck {
	return &DrivesCheck{cfg: cfg, resolver: resolver}
}

// Name returns the unique identifier for this check.
func (c *DrivesCheck) Name() string { return "drives" }

// Category returns the grouping for this check.
func (c *DrivesCheck) Category() string { return "drives" }

// Run executes the drive check.
func (c *DrivesCheck) Run(context.Context) *CheckResult {
	if c.cfg == nil {
		return &CheckResult{
			Name:     c.Name(),
			Category: c.Category(),
			Status:   SeverityInfo,
			Message:  "skipped: configuration did not load",
		}
	}

	resolver := c.resolver
	if resolver == nil {
		table, err := mount.LoadTable(c.cfg.MountsFile)
		if err != nil {
			return &CheckResult{
				Name:     c.Name(),
				Category: c.Category(),
				Status:   SeverityError,
				Message:  err.Error(),
			}
		}
		resolver = mount.NewResolver(table, c.cfg.ByUUIDDir)
	}

	details := make(map[string]any, len(c.cfg.Drives))
	var mounted, failed int
	for _, id := range c.cfg.Drives {
		vol, ok, err := resolver.Resolve(id)
		switch {
		case err != nil:
			failed++
			details[id] = map[string]any{"error": err.Error()}
		case !ok:
			details[id] = map[string]any{"mounted": false}
		default:
			mounted++
			details[id] = driveDetails(c.cfg, vol)
		}
	}

	res := &CheckResult{
		Name:     c.Name(),
		Category: c.Category(),
		Details:  details,
	}
	total := len(c.cfg.Drives)
	switch {
	case failed > 0:
		res.Status = SeverityError
		res.Message = fmt.Sprintf("%d of %d drives could not be resolved", failed, total)
	case mounted == 0:
		res.Status = SeverityWarning
		res.Message = fmt.Sprintf("none of %d drives mounted; a run would back up nothing", total)
		res.FixHint = "plug in a backup drive or compare drives with: ls " + c.cfg.ByUUIDDir
	case mounted < total:
		res.Status = SeverityInfo
		res.Message = fmt.Sprintf("%d of %d drives mounted", mounted, total)
	default:
		res.Status = SeverityPass
		res.Message = fmt.Sprintf("all %d drives mounted", total)
	}
	return res
}

func driveDetails(cfg *config.Config, vol mount.Volume) map[string]any {
	root := snapshot.Root(vol.MountPoint, cfg.BaseDir)
	d := map[string]any{
		"mounted": true,
		"device":  vol.Device,
		"mount":   vol.MountPoint,
		"last":    "none",
	}
	if target, ok, err := snapshot.LastTarget(filepath.Join(root, cfg.LastDir)); err == nil && ok {
		d["last"] = filepath.Base(target)
	}
	return d
}
