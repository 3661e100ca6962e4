package commands

import (
	"fmt"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/thoreinstein/rsnap/internal/config"
	"github.com/thoreinstein/rsnap/internal/editor"
	"github.com/thoreinstein/rsnap/internal/errors"
	"github.com/thoreinstein/rsnap/internal/paths"
	"github.com/thoreinstein/rsnap/internal/redact"
	"github.com/thoreinstein/rsnap/pkg/fileutil"
)

var (
	showFormat  string
	initForce   bool
	initDrives  []string
	initSources []string
)

func init() {
	configShowCmd.Flags().StringVar(&showFormat, "format", "yaml",
		"output format: yaml, toml")

	configInitCmd.Flags().BoolVar(&initForce, "force", false,
		"overwrite an existing config file")
	configInitCmd.Flags().StringSliceVar(&initDrives, "drive", nil,
		"filesystem UUID of a backup drive (repeatable)")
	configInitCmd.Flags().StringSliceVar(&initSources, "path", nil,
		"absolute source directory to back up (repeatable)")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configEditCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or create the rsnap configuration",
	Long: `Show or create the rsnap configuration.

The configuration is read from the first config.yaml found in the current
directory, $XDG_CONFIG_HOME/rsnap and /etc/rsnap, unless --config names a
file. Every key can be overridden by an RSNAP_ environment variable, with
dashes replaced by underscores (RSNAP_BASE_DIR, RSNAP_ON_SYNC_FAILURE).`,
	Example: `  # Print the effective configuration
  rsnap config show

  # Create /etc/rsnap/config.yaml
  sudo rsnap config init --drive 0a1b2c3d-... --path /etc --path /home

See Also: rsnap doctor`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long: `Print the effective configuration after defaults, the config file and
environment overrides are applied. Passwords in exclude-url are masked.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config file",
	Long: `Write a starter config file with all defaults filled in.

The file is written to --config when given, otherwise to
/etc/rsnap/config.yaml. An existing file is kept unless --force is set.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open the config file in $EDITOR",
	Long: `Open the config file in your default editor and validate it afterwards.

Uses $EDITOR, then $VISUAL, then nano or vi. If no config file exists,
run 'rsnap config init' first.`,
	Example: `  # Open config in default editor
  sudo rsnap config edit

  # Open with a specific editor
  sudo EDITOR="code --wait" rsnap config edit`,
	Args: cobra.NoArgs,
	RunE: runConfigEdit,
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return errors.NewConfigError(err)
	}

	shown := *cfg
	shown.ExcludeURL = redact.MaskURL(cfg.ExcludeURL)

	var data []byte
	switch showFormat {
	case "yaml", "":
		data, err = yaml.Marshal(&shown)
	case "toml":
		data, err = toml.Marshal(&shown)
	default:
		return errors.NewUserError(errors.Newf("unknown format %q", showFormat), "Use --format yaml or toml")
	}
	if err != nil {
		return errors.Wrap(err, "marshaling config")
	}

	out := cmd.OutOrStdout()
	if used := config.Used(configPath); used != "" {
		fmt.Fprintf(out, "# %s\n", used)
	}
	_, err = out.Write(data)
	return err
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	target := configPath
	if target == "" {
		target = filepath.Join(paths.SystemConfigDir(), config.AppName, "config.yaml")
	}

	exists, err := paths.Exists(target)
	if err != nil {
		return errors.Wrapf(err, "checking %s", target)
	}
	if exists && !initForce {
		return errors.NewUserError(errors.Newf("%s already exists", target), "Use --force to overwrite it")
	}

	cfg := config.Default()
	cfg.Drives = append(cfg.Drives, initDrives...)
	cfg.Paths = append(cfg.Paths, initSources...)

	if err := paths.EnsureDir(filepath.Dir(target), paths.DefaultDirPerm); err != nil {
		return errors.Wrapf(err, "creating %s", filepath.Dir(target))
	}
	if err := fileutil.AtomicWriteYAML(target, cfg); err != nil {
		return errors.Wrapf(err, "writing %s", target)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", target)
	if errs := config.Validate(cfg); len(errs) > 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Before the first run, fill in:")
		for _, e := range errs {
			fmt.Fprintf(cmd.OutOrStdout(), "  - %v\n", e)
		}
	}
	return nil
}

func runConfigEdit(cmd *cobra.Command, _ []string) error {
	target := config.Used(configPath)
	if target == "" {
		return errors.NewUserError(errors.New("no config file found"), "Run 'rsnap config init' to create one")
	}

	streams := editor.Streams{In: cmd.InOrStdin(), Out: cmd.OutOrStdout(), Err: cmd.ErrOrStderr()}
	if err := editor.Open(cmd.Context(), target, streams); err != nil {
		return errors.NewSystemError(err, "Set $EDITOR to an installed editor")
	}

	if _, err := config.Load(target); err != nil {
		return errors.NewConfigError(err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s is valid\n", target)
	return nil
}
