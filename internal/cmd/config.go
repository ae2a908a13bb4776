package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/capsela/capsela-util/internal/config"
	"github.com/capsela/capsela-util/internal/errors"
	"github.com/capsela/capsela-util/internal/ini"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the configuration of a mode",
	Long: `Show the configuration of a mode.

The config directory holds config.ini with one section per mode, and an
optional local_config.ini whose section for the same mode is merged on top.
Without a subcommand, shows the merged section.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the merged section for --mode",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print one value of the merged section",
	Long: `Print one value of the merged section.

Keys use dot notation, e.g.:
  capsela config get db.host
  capsela --mode production config get db

Values can be overridden with CAPSELA_ environment variables, dots replaced
by underscores (CAPSELA_DB_HOST for db.host).`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigGet,
}

var configWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print the merged section again whenever the config files change",
	Args:  cobra.NoArgs,
	RunE:  runConfigWatch,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the config file paths",
	Args:  cobra.NoArgs,
	RunE:  runConfigPath,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configWatchCmd)
	configCmd.AddCommand(configPathCmd)

	addFormatFlag(configCmd)
	addFormatFlag(configShowCmd)
	addFormatFlag(configGetCmd)
	addFormatFlag(configWatchCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	sec, err := app.loader.Load(app.cfg.ConfigDir, app.cfg.Mode)
	if err != nil {
		return err
	}
	return writeSection(cmd.OutOrStdout(), sec, format)
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	settings, err := app.loader.LoadSettings(app.cfg.ConfigDir, app.cfg.Mode)
	if err != nil {
		return err
	}
	key := args[0]
	if !settings.IsSet(key) {
		return errors.Wrapf(errors.NewNotFoundError("key", key), "mode %s", app.cfg.Mode)
	}
	return writeValue(cmd.OutOrStdout(), settings.Get(key), format)
}

func runConfigWatch(cmd *cobra.Command, _ []string) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	sec, err := app.loader.Load(app.cfg.ConfigDir, app.cfg.Mode)
	if err != nil {
		return err
	}
	if err := writeSection(out, sec, format); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, err := config.NewWatcher(app.loader, app.cfg.ConfigDir, app.cfg.Mode, func(sec ini.Section, err error) {
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "reload failed: %v\n", err)
			return
		}
		fmt.Fprintf(out, "; reloaded at %s\n", time.Now().Format(time.TimeOnly))
		if err := writeSection(out, sec, format); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "print failed: %v\n", err)
		}
	})
	if err != nil {
		return err
	}
	w.Start(ctx)
	app.logger.Info("watching config", "dir", app.cfg.ConfigDir, "mode", app.cfg.Mode)

	<-w.Done()
	return nil
}

func runConfigPath(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	for _, name := range []string{config.FileName, config.LocalFileName} {
		path := filepath.Join(app.cfg.ConfigDir, name)
		state := "present"
		if _, err := os.Stat(path); err != nil {
			state = "missing"
		}
		fmt.Fprintf(out, "%s (%s)\n", path, state)
	}
	return nil
}
