// Package backup runs a snapshot backup across all configured drives.
//
// For every drive UUID the Orchestrator resolves the mount point, allocates
// a dated snapshot directory under the snapshot root, syncs each configured
// source path into it with rsync hard-linking against the previous
// snapshot, and finally moves the last link to the new snapshot. The last
// link only moves after every source synced successfully, so it always
// names a complete snapshot.
//
// # Failure policy
//
// What happens after a failed sync is controlled by config.OnSyncFailure:
//
//   - abort-volume: skip the remaining sources of the drive and continue
//     with the next drive.
//   - continue: sync the remaining sources of the drive, then continue.
//   - abort-run: stop after the failing drive.
//
// In all cases the last link of a drive with a failed sync is left alone.
// Drives that are not mounted are skipped with a warning.
package backup
