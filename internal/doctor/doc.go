// Package doctor provides diagnostic checks for an rsnap installation.
//
// Checks verify what a backup run needs before cron fires it: root
// privileges, a working rsync binary, a loadable configuration and the
// configured drives being plugged in and mounted. Each check returns a
// CheckResult; a Runner aggregates them into a Report.
package doctor
