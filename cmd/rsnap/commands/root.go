// Package commands implements the CLI commands for rsnap.
package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/thoreinstein/rsnap/cmd"
	"github.com/thoreinstein/rsnap/internal/backup"
	"github.com/thoreinstein/rsnap/internal/config"
	"github.com/thoreinstein/rsnap/internal/errors"
	"github.com/thoreinstein/rsnap/internal/logging"
	"github.com/thoreinstein/rsnap/internal/rsync"
)

// configPath holds the value of the --config flag.
var configPath string

// verbosity holds the count of -v flags.
var verbosity int

// quiet holds the value of the -q/--quiet flag.
var quiet bool

// logFormat holds the value of the --log-format flag.
var logFormat string

// logFile holds the path to the log file.
var logFile string

// colorFlag holds the value of the --color flag.
var colorFlag string

// Replaced in tests.
var (
	geteuid   = os.Geteuid
	newRunner = func() rsync.Runner { return rsync.ExecRunner{} }
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"config file (default: ./config.yaml, $XDG_CONFIG_HOME/rsnap, /etc/rsnap)")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v",
		"increase verbosity level (e.g., -v, -vv)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false,
		"only log errors and hide rsync output")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text",
		"log format: text, json")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "",
		"also write logs to file in JSON format")
	rootCmd.PersistentFlags().StringVar(&colorFlag, "color", "auto",
		"color text logs: auto, always, never")

	rootCmd.Version = cmd.Version
	rootCmd.SetVersionTemplate("rsnap version {{.Version}}\n")

	// Silence errors and usage so we can control error output
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return errors.NewUserError(err, "Run 'rsnap --help' for usage")
	})
}

var rootCmd = &cobra.Command{
	Use:   "rsnap",
	Short: "Hard-linked snapshot backups onto drives addressed by UUID",
	Long: `rsnap copies the configured source directories onto every configured
backup drive that is currently mounted. Drives are identified by filesystem
UUID, so it does not matter where or whether they are mounted.

Each run creates a dated snapshot directory (YYYY-MM-DD, then YYYY-MM-DD_1,
... for further runs on the same day) under the snapshot root of the drive.
Files unchanged since the previous snapshot are hard links into it, so every
snapshot is a full tree while only changed files take space. The "last" link
is moved to the new snapshot only after every source synced.

rsnap must run as root. Without a subcommand it runs a backup.

Exit codes:
  0 - success (drives that are not mounted are only warnings)
  1 - usage, configuration or privilege error
  2 - exclude list fetch failed or a drive failed`,
	Example: `  # Run a backup with the default config search path
  sudo rsnap

  # Run with an explicit config and debug output
  sudo rsnap --config /etc/rsnap/config.yaml -v

  # Nightly from cron, errors only, JSON log file
  0 3 * * * root rsnap -q --log-file /var/log/rsnap.json

  See Also: rsnap doctor, rsnap config`,
	Args:              cobra.NoArgs,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error { return setupLogging(cmd) },
	RunE:              runBackup,
}

func runBackup(cmd *cobra.Command, _ []string) error {
	if err := backup.EnsureRoot(geteuid); err != nil {
		return errors.NewUserError(err, "Run as root, e.g. sudo rsnap")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return errors.NewConfigError(err)
	}

	logger := logging.FromContext(cmd.Context())
	if used := config.Used(configPath); used != "" {
		logger.Debug("config loaded", "file", used)
	}

	var out io.Writer = cmd.OutOrStdout()
	if quiet {
		out = io.Discard
	}
	syncer := rsync.NewSyncer(newRunner(),
		rsync.WithBinary(cfg.Rsync),
		rsync.WithExtraArgs(cfg.RsyncArgs...),
		rsync.WithOutput(out),
	)

	_, err = backup.New(cfg, syncer, backup.WithLogger(logger)).Run(cmd.Context())
	switch {
	case err == nil:
		return nil
	case errors.Is(err, errors.ErrExcludeFetch):
		return errors.NewSystemError(err, "Check exclude-url and the network; no drive was touched")
	case errors.Is(err, context.Canceled):
		return errors.NewSystemError(err, "Interrupted; the last links still name the previous complete snapshots")
	case errors.Is(err, backup.ErrIncomplete):
		return errors.NewSystemError(err, "See the log above; last links on failed drives were not moved")
	default:
		return errors.NewSystemError(err, "")
	}
}

// setupLogging configures the default logger based on verbosity flags.
func setupLogging(cmd *cobra.Command) error {
	if quiet && verbosity > 0 {
		return errors.NewUserError(errors.New("conflicting flags"), "cannot use --quiet and --verbose together")
	}

	var level slog.Level
	if quiet {
		level = slog.LevelError
	} else {
		v := verbosity

		// CLI flags take precedence, but if not set, check env var
		if v == 0 {
			if val, ok := os.LookupEnv("RSNAP_DEBUG"); ok {
				switch val {
				case "1", "true":
					v = 1 // Debug
				case "2":
					v = 2 // Trace
				}
			}
		}
		level = logging.LevelFromVerbosity(v)
	}

	format, err := logging.ParseFormat(logFormat)
	if err != nil {
		return errors.NewUserError(err, "Use --log-format text or json")
	}
	mode, err := logging.ParseColorMode(colorFlag)
	if err != nil {
		return errors.NewUserError(err, "Use --color auto, always or never")
	}

	primaryHandler := logging.Config{
		Level:  level,
		Format: format,
		Color:  mode,
		Output: cmd.ErrOrStderr(),
	}.Handler()

	handlers := []slog.Handler{primaryHandler}

	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return errors.NewUserError(err, "failed to open log file")
		}
		handlers = append(handlers, logging.Config{Level: level, Format: logging.FormatJSON, Output: f}.Handler())
	}

	var handler slog.Handler
	if len(handlers) > 1 {
		handler = logging.NewMultiHandler(handlers...)
	} else {
		handler = handlers[0]
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(logging.NewContext(ctx, logger))

	return nil
}

// PrintError writes err and its suggestion, if any, to w.
func PrintError(w io.Writer, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(w, "%s %v\n", color.New(color.FgRed, color.Bold).Sprint("Error:"), err)

	var exitErr *errors.ExitError
	if errors.As(err, &exitErr) && exitErr.Suggestion != "" {
		fmt.Fprintf(w, "  %s\n", exitErr.Suggestion)
	}
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
