// Package excludes maintains the rsync exclude file.
//
// The file combines a remotely maintained pattern list, fetched over HTTP,
// with locally configured patterns:
//
//	<remote body>
//	# local excludes
//	<pattern>
//	...
//
// It is rewritten atomically before every run so rsync never reads a
// half-written list.
package excludes
