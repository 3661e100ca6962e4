// Package snapshot implements the on-disk layout of dated, hard-link
// deduplicated snapshots.
//
// # Layout
//
// Every mounted volume carries a snapshot root with one directory per run
// and a relative symlink to the latest complete snapshot:
//
//	<mount>/snapshots/
//	├── 2026-10-15/
//	│   ├── etc/...
//	│   └── home/alex/...
//	├── 2026-10-16/
//	├── 2026-10-16_1/
//	└── last -> 2026-10-16_1
//
// # Planning
//
// [NextPath] picks the first free name for a date, appending _1, _2, ...
// when earlier runs on the same day already used the plain date. It only
// inspects the filesystem; the caller creates the directory.
//
// # Link Chaining
//
// rsync resolves --link-dest relative to the destination directory, so
// [LinkReference] climbs out of the per-source destination and the
// snapshot directory before descending into the last link:
//
//	LinkReference("/home/alex", "last") // "../../../last/home/alex"
//
// [RepublishLast] moves the last link once every source of the run has
// been synced, then [Flush] commits buffered writes to disk.
package snapshot
