package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/maximbilan/sensclip/internal/validation"
	"github.com/spf13/viper"
)

const (
	// ConfigDirPerm is the permission for the config directory (0700 = rwx------)
	// The directory also holds the daemon socket and pending job records
	ConfigDirPerm os.FileMode = 0700
	// ConfigFilePerm is the permission for the config file (0600 = rw-------)
	ConfigFilePerm os.FileMode = 0600

	// DirName is the per-user directory under $HOME
	DirName = ".sensclip"
)

type Config struct {
	DefaultDurationSeconds float64 `mapstructure:"default_duration_seconds"`
	Backend                string  `mapstructure:"backend"`
	SocketPath             string  `mapstructure:"socket_path"`
	PersistJobs            bool    `mapstructure:"persist_jobs"`
	JobDir                 string  `mapstructure:"job_dir"`
	LogLevel               string  `mapstructure:"log_level"`
	ShowTUI                bool    `mapstructure:"tui"`
	RateLimitEnabled       bool    `mapstructure:"rate_limit_enabled"`
	RateLimitRequests      int     `mapstructure:"rate_limit_requests"`
	RateLimitWindow        int     `mapstructure:"rate_limit_window_seconds"`
	RequestTimeoutSeconds  int     `mapstructure:"request_timeout_seconds"`
}

// Dir returns ~/.sensclip.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, DirName), nil
}

func setDefaults() {
	viper.SetDefault("default_duration_seconds", 60)
	viper.SetDefault("backend", "system")
	viper.SetDefault("socket_path", "")
	viper.SetDefault("persist_jobs", true)
	viper.SetDefault("job_dir", "")
	viper.SetDefault("log_level", "info")
	viper.SetDefault("tui", true)
	viper.SetDefault("rate_limit_enabled", true)
	viper.SetDefault("rate_limit_requests", 60)      // 60 requests
	viper.SetDefault("rate_limit_window_seconds", 60) // per minute
	viper.SetDefault("request_timeout_seconds", 5)
}

func Load() (*Config, error) {
	configPath, err := Dir()
	if err != nil {
		return nil, err
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configPath)
	viper.SetEnvPrefix("SENSCLIP")
	viper.AutomaticEnv()

	setDefaults()

	// Try to read config
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; create directory
			if err := os.MkdirAll(configPath, ConfigDirPerm); err != nil {
				return nil, fmt.Errorf("failed to create config directory: %w", err)
			}
			config := &Config{}
			if err := viper.Unmarshal(config); err != nil {
				return nil, fmt.Errorf("failed to unmarshal default config: %w", err)
			}
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func Save(cfg *Config) error {
	configPath, err := Dir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(configPath, ConfigDirPerm); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	viper.Set("default_duration_seconds", cfg.DefaultDurationSeconds)
	viper.Set("backend", cfg.Backend)
	viper.Set("socket_path", cfg.SocketPath)
	viper.Set("persist_jobs", cfg.PersistJobs)
	viper.Set("job_dir", cfg.JobDir)
	viper.Set("log_level", cfg.LogLevel)
	viper.Set("tui", cfg.ShowTUI)
	viper.Set("rate_limit_enabled", cfg.RateLimitEnabled)
	viper.Set("rate_limit_requests", cfg.RateLimitRequests)
	viper.Set("rate_limit_window_seconds", cfg.RateLimitWindow)
	viper.Set("request_timeout_seconds", cfg.RequestTimeoutSeconds)

	configFile := filepath.Join(configPath, "config.yaml")
	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	if err := os.Chmod(configFile, ConfigFilePerm); err != nil {
		return fmt.Errorf("failed to set config file permissions: %w", err)
	}

	return nil
}

func Set(key, value string) error {
	key = strings.TrimSpace(key)
	if err := validation.ValidateConfigKey(key); err != nil {
		return err
	}

	configPath, err := Dir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(configPath, ConfigDirPerm); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configPath)

	// Try to read existing config (ignore error if file doesn't exist)
	_ = viper.ReadInConfig()

	viper.Set(key, value)

	configFile := filepath.Join(configPath, "config.yaml")
	if err := viper.WriteConfigAs(configFile); err != nil {
		// If file doesn't exist, try SafeWriteConfigAs
		if err := viper.SafeWriteConfigAs(configFile); err != nil {
			return fmt.Errorf("failed to write config file: %w", err)
		}
	}

	if err := os.Chmod(configFile, ConfigFilePerm); err != nil {
		return fmt.Errorf("failed to set config file permissions: %w", err)
	}

	return nil
}

func Get(key string) interface{} {
	if key == "" {
		return nil
	}

	configPath, err := Dir()
	if err != nil {
		return nil
	}
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configPath)
	_ = viper.ReadInConfig() // Ignore error if config doesn't exist
	return viper.Get(key)
}
