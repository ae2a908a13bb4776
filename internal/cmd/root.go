package cmd

import (
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/capsela/capsela-util/internal/config"
	"github.com/capsela/capsela-util/internal/errors"
	"github.com/capsela/capsela-util/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "capsela",
	Short: "Inspect capsela configuration, INI files and logs",
	Long: `capsela loads mode-based INI configuration the way capsela services do,
and offers small tools around it: INI parsing and checking, hashing and
comparing files, and writing or filtering syslog-style log files.`,
	SilenceUsage:       true,
	SilenceErrors:      true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

// app holds what setup prepares for the running command.
var app struct {
	cfg     *config.Config
	logger  *logging.Logger
	loader  *config.Loader
	logFile *logging.RotatingWriter
}

// Execute runs the root command, reports any error on stderr and returns
// the process exit status.
func Execute() int {
	err := rootCmd.Execute()
	code := ExitCode(err)
	if err != nil {
		if app.logger != nil {
			app.logger.Debug("command failed", "error", err, "severity", errors.GetSeverity(err), "exit_code", code)
		}
		reportError(rootCmd.ErrOrStderr(), err)
	}
	closeLogFile()
	return code
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.String("config-dir", "", "directory holding config.ini (default is $XDG_CONFIG_HOME/capsela)")
	flags.StringP("mode", "m", "", "config section to load (default \"development\")")
	flags.String("log-level", "", "least severe priority logged (default \"info\")")
	flags.String("log-file", "", "write logs to this file, rotating it by size")
}

func initConfig() {
	config.SetDefaults()

	_ = viper.BindPFlag("config_dir", rootCmd.PersistentFlags().Lookup("config-dir"))
	_ = viper.BindPFlag("mode", rootCmd.PersistentFlags().Lookup("mode"))
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log.file", rootCmd.PersistentFlags().Lookup("log-file"))

	viper.SetEnvPrefix(config.DefaultEnvPrefix)
	// CAPSELA_LOG_LEVEL for log.level
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Variables already set in the environment win over the .env file.
	envFile := filepath.Join(viper.GetString("config_dir"), ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("ignoring unreadable .env file", "path", envFile, "error", err)
	}
}

// setup reads the command configuration and routes the default logger to
// stderr or the rotating log file.
func setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Get()
	if err != nil {
		return errors.NewConfigError("invalid configuration", err)
	}

	level := logging.Info
	if cfg.Log.Level != "" {
		if level, err = logging.ParsePriority(cfg.Log.Level); err != nil {
			return err
		}
	}
	logger := logging.NewLogger("capsela", level)

	var w io.Writer = cmd.ErrOrStderr()
	if cfg.Log.File != "" {
		rw, err := logging.NewRotatingWriter(cfg.Log.File, cfg.Log.Rotation())
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		app.logFile = rw
		w = rw
	}
	logging.NewLog(logging.WithWriters(w, w)).Watch(logger)
	logging.SetDefault(logger)
	slog.SetDefault(logger.Slog())

	app.cfg = cfg
	app.logger = logger
	app.loader = config.NewLoader(config.WithLogger(logger))

	logger.Debug("configured", "command", cmd.CommandPath(), "mode", cfg.Mode, "config_dir", cfg.ConfigDir)
	return nil
}

func teardown(*cobra.Command, []string) error {
	closeLogFile()
	return nil
}

func closeLogFile() {
	if app.logFile == nil {
		return
	}
	if err := app.logFile.Close(); err != nil {
		slog.Debug("closing log file failed", "error", err)
	}
	app.logFile = nil
}
