// Package config loads mode-based INI configuration and holds the settings
// of the capsela command.
//
// A configuration directory holds config.ini, with one section per mode
// (development, testing, production, ...), and optionally local_config.ini,
// whose section for the same mode is merged on top. Load returns the merged
// section; Settings exposes it with environment overrides and typed getters;
// Watcher reloads it when either file changes.
package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/capsela/capsela-util/internal/logging"
)

// Config is the configuration of the capsela command, read by viper from
// flags, CAPSELA_* environment variables and the .env file of the config
// directory.
type Config struct {
	// ConfigDir is the directory holding config.ini and local_config.ini.
	ConfigDir string `mapstructure:"config_dir"`
	// Mode selects the section of config.ini to load.
	Mode   string       `mapstructure:"mode"`
	Log    LogConfig    `mapstructure:"log"`
	Output OutputConfig `mapstructure:"output"`
}

// LogConfig controls the command's own log output.
type LogConfig struct {
	// Level is the least severe priority written, by name or number.
	Level string `mapstructure:"level"`
	// File, when set, receives log lines instead of stdout and stderr.
	File string `mapstructure:"file"`
	// MaxSizeMB rotates File once it reaches this size (0 = never).
	MaxSizeMB int `mapstructure:"max_size_mb"`
	// MaxBackups is the number of rotated files kept.
	MaxBackups int `mapstructure:"max_backups"`
	// Compress gzips rotated files.
	Compress bool `mapstructure:"compress"`
}

// OutputConfig controls how documents are printed.
type OutputConfig struct {
	// Format is one of ValidOutputFormats. Empty picks ini on a terminal and
	// json otherwise.
	Format string `mapstructure:"format"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		ConfigDir: ConfigDir(),
		Mode:      "development",
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// Rotation returns the rotation settings for File.
func (c *LogConfig) Rotation() logging.RotationConfig {
	return logging.RotationConfig{
		MaxBytes:   int64(c.MaxSizeMB) << 20,
		MaxBackups: c.MaxBackups,
		Compress:   c.Compress,
	}
}

// SetDefaults registers default values with viper.
func SetDefaults() {
	defaults := Default()

	viper.SetDefault("config_dir", defaults.ConfigDir)
	viper.SetDefault("mode", defaults.Mode)

	viper.SetDefault("log.level", defaults.Log.Level)
	viper.SetDefault("log.file", defaults.Log.File)
	viper.SetDefault("log.max_size_mb", defaults.Log.MaxSizeMB)
	viper.SetDefault("log.max_backups", defaults.Log.MaxBackups)
	viper.SetDefault("log.compress", defaults.Log.Compress)

	viper.SetDefault("output.format", defaults.Output.Format)
}

// Get reads the command configuration from viper into a Config and
// validates it.
func Get() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}
	return &cfg, nil
}

// ConfigDir returns the default configuration directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "capsela")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".capsela"
	}
	return filepath.Join(home, ".config", "capsela")
}
