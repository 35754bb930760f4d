// Package config loads teamboard settings from a YAML file and
// TEAMBOARD_* environment variables.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/tgienger/teamboard/internal/db"
)

// Environments understood by the logger setup.
const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

// Config is the full teamboard configuration.
type Config struct {
	Env      string         `yaml:"env" mapstructure:"env"`
	LogFile  string         `yaml:"log_file" mapstructure:"log_file"`
	User     string         `yaml:"user" mapstructure:"user"`
	Database DatabaseConfig `yaml:"database" mapstructure:"database"`
	HTTP     HTTPConfig     `yaml:"http" mapstructure:"http"`
	Policy   PolicyConfig   `yaml:"policy" mapstructure:"policy"`
}

// DatabaseConfig locates the sqlite file.
type DatabaseConfig struct {
	Path          string `yaml:"path" mapstructure:"path"`
	BusyTimeoutMS int    `yaml:"busy_timeout_ms" mapstructure:"busy_timeout_ms"`
}

// BusyTimeout returns the busy timeout as a duration.
func (d DatabaseConfig) BusyTimeout() time.Duration {
	return time.Duration(d.BusyTimeoutMS) * time.Millisecond
}

// HTTPConfig configures the REST server.
type HTTPConfig struct {
	Addr       string `yaml:"addr" mapstructure:"addr"`
	UserHeader string `yaml:"user_header" mapstructure:"user_header"`
}

// PolicyConfig holds behaviour switches.
type PolicyConfig struct {
	// LockBlockedTasks hides the details of blocked tasks behind a Blocked error.
	LockBlockedTasks bool `yaml:"lock_blocked_tasks" mapstructure:"lock_blocked_tasks"`
	// GateManualTime refuses manual time entries on blocked tasks.
	GateManualTime bool `yaml:"gate_manual_time" mapstructure:"gate_manual_time"`
}

// Default returns the built-in configuration.
func Default() *Config {
	dbPath, _ := db.DefaultPath()
	return &Config{
		Env:  EnvLocal,
		User: os.Getenv("USER"),
		Database: DatabaseConfig{
			Path:          dbPath,
			BusyTimeoutMS: 5000,
		},
		HTTP: HTTPConfig{
			Addr:       ":8080",
			UserHeader: "X-User-ID",
		},
		Policy: PolicyConfig{
			LockBlockedTasks: true,
		},
	}
}

// Load reads path, or the default location when path is empty. A missing
// default file is not an error; a missing explicit file is.
func Load(path string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	setDefaults(v, cfg)
	v.SetEnvPrefix("TEAMBOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit || !(errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)) {
			return nil, err
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	if cfg.Env == "" {
		cfg.Env = EnvLocal
	}
	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override keys that
// are absent from the file.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("env", cfg.Env)
	v.SetDefault("log_file", cfg.LogFile)
	v.SetDefault("user", cfg.User)
	v.SetDefault("database.path", cfg.Database.Path)
	v.SetDefault("database.busy_timeout_ms", cfg.Database.BusyTimeoutMS)
	v.SetDefault("http.addr", cfg.HTTP.Addr)
	v.SetDefault("http.user_header", cfg.HTTP.UserHeader)
	v.SetDefault("policy.lock_blocked_tasks", cfg.Policy.LockBlockedTasks)
	v.SetDefault("policy.gate_manual_time", cfg.Policy.GateManualTime)
}

// DefaultPath returns $XDG_CONFIG_HOME/teamboard/config.yaml.
func DefaultPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "teamboard", "config.yaml")
}
