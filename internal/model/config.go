package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// ReminderConfig holds settings for the background reminder scanner.
type ReminderConfig struct {
	// WindowDays is how many days ahead a deadline may be before a
	// reminder is generated for it.
	WindowDays int `mapstructure:"window_days" yaml:"window_days"`

	// ScanIntervalSec is how often (in seconds) the scanner runs.
	ScanIntervalSec int `mapstructure:"scan_interval_sec" yaml:"scan_interval_sec"`
}

// BackupConfig holds settings for snapshot export/import.
type BackupConfig struct {
	// Dir is the directory snapshot archives are written to.
	Dir string `mapstructure:"dir" yaml:"dir"`

	// Encrypt controls whether snapshots are sealed with the archive
	// key from the system keyring.
	Encrypt bool `mapstructure:"encrypt" yaml:"encrypt"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme string `mapstructure:"theme" yaml:"theme"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	DatabasePath string         `mapstructure:"database_path" yaml:"database_path"`
	Reminder     ReminderConfig `mapstructure:"reminder" yaml:"reminder"`
	Backup       BackupConfig   `mapstructure:"backup" yaml:"backup"`
	Display      DisplayConfig  `mapstructure:"display" yaml:"display"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/deadline/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "deadline", "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	base := filepath.Join(home, ".config", "deadline")
	return &AppConfig{
		DatabasePath: filepath.Join(base, "deadline.db"),
		Reminder: ReminderConfig{
			WindowDays:      7,
			ScanIntervalSec: 300,
		},
		Backup: BackupConfig{
			Dir:     filepath.Join(base, "backups"),
			Encrypt: false,
		},
		Display: DisplayConfig{
			Theme: "default",
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	defaults := defaultAppConfig()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("database_path", defaults.DatabasePath)
	v.SetDefault("reminder.window_days", defaults.Reminder.WindowDays)
	v.SetDefault("reminder.scan_interval_sec", defaults.Reminder.ScanIntervalSec)
	v.SetDefault("backup.dir", defaults.Backup.Dir)
	v.SetDefault("backup.encrypt", defaults.Backup.Encrypt)
	v.SetDefault("display.theme", defaults.Display.Theme)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaults, nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaults, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Reminder.WindowDays <= 0 {
		cfg.Reminder.WindowDays = defaults.Reminder.WindowDays
	}
	if cfg.Reminder.ScanIntervalSec <= 0 {
		cfg.Reminder.ScanIntervalSec = defaults.Reminder.ScanIntervalSec
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("database_path", cfg.DatabasePath)
	v.Set("reminder", cfg.Reminder)
	v.Set("backup", cfg.Backup)
	v.Set("display", cfg.Display)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
