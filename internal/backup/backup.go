package backup

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/thoreinstein/rsnap/internal/config"
	"github.com/thoreinstein/rsnap/internal/errors"
	"github.com/thoreinstein/rsnap/internal/excludes"
	"github.com/thoreinstein/rsnap/internal/logging"
	"github.com/thoreinstein/rsnap/internal/mount"
	"github.com/thoreinstein/rsnap/internal/rsync"
	"github.com/thoreinstein/rsnap/internal/snapshot"
)

// Orchestrator runs backups for a loaded configuration.
type Orchestrator struct {
	cfg      *config.Config
	syncer   *rsync.Syncer
	fetcher  *excludes.Fetcher
	resolver *mount.Resolver
	clock    Clock
	logger   *slog.Logger
	runID    func() string
	flush    func()

	// excludeFile is set by Run after the exclude list is refreshed.
	excludeFile string
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithClock sets the clock used to name snapshots.
func WithClock(c Clock) Option {
	return func(o *Orchestrator) {
		o.clock = c
	}
}

// WithLogger sets the logger. Run adds the run ID and each drive adds its
// UUID as attributes.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithFetcher sets the exclude list fetcher.
func WithFetcher(f *excludes.Fetcher) Option {
	return func(o *Orchestrator) {
		o.fetcher = f
	}
}

// WithResolver sets the mount resolver. Without it Run loads the mount
// table from config.MountsFile.
func WithResolver(r *mount.Resolver) Option {
	return func(o *Orchestrator) {
		o.resolver = r
	}
}

// WithRunID sets the run ID generator.
func WithRunID(fn func() string) Option {
	return func(o *Orchestrator) {
		o.runID = fn
	}
}

// WithFlush replaces the filesystem flush performed after the last link moves.
func WithFlush(fn func()) Option {
	return func(o *Orchestrator) {
		o.flush = fn
	}
}

// New creates an Orchestrator for cfg that syncs through syncer.
func New(cfg *config.Config, syncer *rsync.Syncer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cfg:    cfg,
		syncer: syncer,
		clock:  RealClock{},
		logger: slog.Default(),
		runID:  NewRunID,
		flush:  snapshot.Flush,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.fetcher == nil {
		o.fetcher = excludes.NewFetcher(nil)
	}
	return o
}

// Run refreshes the exclude list, then backs up every configured drive in
// order. The returned report is never nil. The error is non-nil when the
// run could not start, was cancelled, or any drive failed.
func (o *Orchestrator) Run(ctx context.Context) (*Report, error) {
	report := &Report{
		RunID:   o.runID(),
		Started: o.clock.Now(),
	}
	logger := o.logger.With("run", report.RunID)
	logger.Info("backup started", "drives", len(o.cfg.Drives), "paths", len(o.cfg.Paths))

	finish := func(err error) (*Report, error) {
		report.Finished = o.clock.Now()
		if err == nil {
			err = report.Err()
		}
		return report, err
	}

	excludeFile, err := excludes.Refresh(ctx, o.fetcher, o.cfg, logger)
	if err != nil {
		logger.Error("refreshing excludes", "error", err)
		return finish(err)
	}
	o.excludeFile = excludeFile
	report.ExcludeFile = excludeFile

	if o.resolver == nil {
		table, err := mount.LoadTable(o.cfg.MountsFile)
		if err != nil {
			return finish(err)
		}
		o.resolver = mount.NewResolver(table, o.cfg.ByUUIDDir)
	}

	for _, id := range o.cfg.Drives {
		if err := ctx.Err(); err != nil {
			return finish(errors.Wrap(err, "backup interrupted"))
		}

		res := o.backupVolume(ctx, logger.With("uuid", id), id)
		report.Volumes = append(report.Volumes, res)

		if res.Status == StatusFailed && o.cfg.OnSyncFailure == config.PolicyAbortRun {
			logger.Error("aborting run after failed drive", "uuid", id)
			break
		}
	}

	report.Finished = o.clock.Now()
	logger.Info("backup finished",
		"ok", report.Count(StatusOK),
		"skipped", report.Count(StatusSkipped),
		"failed", report.Count(StatusFailed),
		"duration", report.Finished.Sub(report.Started),
	)
	return finish(ctx.Err())
}

// BackupVolume backs up all configured sources onto the drive with the
// given filesystem UUID. It uses the exclude file from the last Run, or
// none if Run has not been called.
func (o *Orchestrator) BackupVolume(ctx context.Context, id string) VolumeResult {
	logger := o.logger.With("uuid", id)
	if o.resolver == nil {
		table, err := mount.LoadTable(o.cfg.MountsFile)
		if err != nil {
			return VolumeResult{UUID: id, Status: StatusFailed, Err: err}
		}
		o.resolver = mount.NewResolver(table, o.cfg.ByUUIDDir)
	}
	return o.backupVolume(ctx, logger, id)
}

func (o *Orchestrator) backupVolume(ctx context.Context, logger *slog.Logger, id string) VolumeResult {
	res := VolumeResult{UUID: id}
	fail := func(err error) VolumeResult {
		res.Status = StatusFailed
		if res.Err == nil {
			res.Err = err
		}
		logger.Error("drive failed", "error", err)
		return res
	}

	vol, mounted, err := o.resolver.Resolve(id)
	if err != nil {
		return fail(err)
	}
	if !mounted {
		logger.Warn("drive not mounted, skipping")
		res.Status = StatusSkipped
		return res
	}
	res.MountPoint = vol.MountPoint
	logger.Debug("drive resolved", "device", vol.Device, "mount", vol.MountPoint)

	root := snapshot.Root(vol.MountPoint, o.cfg.BaseDir)
	created, err := snapshot.EnsureRoot(root)
	if err != nil {
		return fail(err)
	}
	if created {
		logger.Info("created snapshot root", "path", root)
	}

	snap, err := snapshot.Allocate(root, o.clock.Now())
	if err != nil {
		return fail(err)
	}
	res.Snapshot = snap
	logger.Info("snapshot allocated", "path", snap)

	for _, src := range o.cfg.Paths {
		dest := snapshot.Destination(snap, src)
		ref := snapshot.LinkReference(src, o.cfg.LastDir)
		logger.Info("syncing", "source", src, "destination", dest)
		logger.Log(ctx, logging.LevelTrace, "link reference", "link-dest", ref)

		if err := o.syncer.Sync(ctx, src, dest, ref, o.excludeFile); err != nil {
			res.FailedSources = append(res.FailedSources, src)
			if res.Err == nil {
				res.Err = err
			}
			logger.Error("sync failed", "source", src, "error", err)
			if ctx.Err() != nil || o.cfg.OnSyncFailure != config.PolicyContinue {
				break
			}
			continue
		}
		res.Synced = append(res.Synced, src)
	}

	if len(res.FailedSources) > 0 {
		logger.Warn("last link not moved, snapshot incomplete",
			"snapshot", snap, "failed", len(res.FailedSources))
		return fail(res.Err)
	}

	lastLink := filepath.Join(root, o.cfg.LastDir)
	if err := snapshot.RepublishLast(snap, lastLink); err != nil {
		return fail(err)
	}
	o.flush()

	logger.Info("snapshot complete", "snapshot", snap, "last", lastLink)
	res.Status = StatusOK
	return res
}
