// Package config provides Viper-based configuration loading for the toolbox binaries.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// StorageConfig selects the document store backend.
type StorageConfig struct {
	// Driver is the store backend: "memory", "sqlite", or "postgres".
	Driver string `mapstructure:"driver"`
	// SQLitePath is the database file used when Driver is "sqlite".
	SQLitePath string `mapstructure:"sqlite_path"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
	// File, when non-empty, adds a size-rotated log file sink at this path.
	File string `mapstructure:"file"`
	// FileMaxSizeMB is the size at which the log file is rotated.
	FileMaxSizeMB int `mapstructure:"file_max_size_mb"`
	// FileMaxBackups is the number of rotated files kept.
	FileMaxBackups int `mapstructure:"file_max_backups"`
	// FileMaxAgeDays is the number of days rotated files are kept.
	FileMaxAgeDays int `mapstructure:"file_max_age_days"`
}

// ScalerConfig holds settings for the NPC level rescaler.
type ScalerConfig struct {
	// OutputFolder is the root folder that receives the "Level N" output folders.
	// Empty places them at the top level.
	OutputFolder string `mapstructure:"output_folder"`
	// TokenDefaults enables the final token display batch after a rescale.
	TokenDefaults bool `mapstructure:"token_defaults"`
}

// ContentConfig holds paths to optional content overrides.
type ContentConfig struct {
	// TablesPath overrides the embedded reference tables when non-empty.
	TablesPath string `mapstructure:"tables_path"`
	// ScriptsDir is the directory of Lua event hooks; empty disables scripting.
	ScriptsDir string `mapstructure:"scripts_dir"`
	// ScriptInstructionLimit bounds each Lua hook invocation.
	ScriptInstructionLimit int `mapstructure:"script_instruction_limit"`
}

// PartyConfig holds settings for party-wide distributions.
type PartyConfig struct {
	// MaxHeroPoints caps hero point distribution.
	MaxHeroPoints int `mapstructure:"max_hero_points"`
}

// Config is the top-level application configuration.
type Config struct {
	Storage  StorageConfig  `mapstructure:"storage"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Scaler   ScalerConfig   `mapstructure:"scaler"`
	Content  ContentConfig  `mapstructure:"content"`
	Party    PartyConfig    `mapstructure:"party"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateStorage(c.Storage); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Storage.Driver == "postgres" {
		if err := validateDatabase(c.Database); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateContent(c.Content); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Party.MaxHeroPoints < 0 {
		errs = append(errs, fmt.Sprintf("party.max_hero_points must be >= 0, got %d", c.Party.MaxHeroPoints))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateStorage(s StorageConfig) error {
	validDrivers := map[string]bool{"memory": true, "sqlite": true, "postgres": true}
	if !validDrivers[s.Driver] {
		return fmt.Errorf("storage.driver must be one of [memory, sqlite, postgres], got %q", s.Driver)
	}
	if s.Driver == "sqlite" && s.SQLitePath == "" {
		return errors.New("storage.sqlite_path must not be empty when storage.driver is sqlite")
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	if l.File != "" && l.FileMaxSizeMB < 1 {
		return fmt.Errorf("logging.file_max_size_mb must be >= 1 when logging.file is set, got %d", l.FileMaxSizeMB)
	}
	return nil
}

func validateContent(c ContentConfig) error {
	if c.ScriptsDir != "" && c.ScriptInstructionLimit < 0 {
		return fmt.Errorf("content.script_instruction_limit must be >= 0, got %d", c.ScriptInstructionLimit)
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result. An empty path loads defaults and environment only.
//
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()

	// Environment variable overrides with TOOLBOX_ prefix
	v.SetEnvPrefix("TOOLBOX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}

	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("storage.driver", "memory")
	v.SetDefault("storage.sqlite_path", "data/toolbox.db")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "toolbox")
	v.SetDefault("database.password", "toolbox")
	v.SetDefault("database.name", "toolbox")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.file_max_size_mb", 50)
	v.SetDefault("logging.file_max_backups", 3)
	v.SetDefault("logging.file_max_age_days", 28)

	v.SetDefault("scaler.output_folder", "Scaled NPCs")
	v.SetDefault("scaler.token_defaults", true)

	v.SetDefault("content.script_instruction_limit", 100000)

	v.SetDefault("party.max_hero_points", 3)
}
