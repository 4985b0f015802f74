package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration. The API credential is not
// part of it; it lives in the state store under storage.dir.
type Config struct {
	Storage StorageConfig `mapstructure:"storage"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	UI      UIConfig      `mapstructure:"ui"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// StorageConfig holds local state configuration
type StorageConfig struct {
	Dir string `mapstructure:"dir"` // Directory for state.db; "" keeps state in memory
}

// HTTPConfig holds remote request configuration
type HTTPConfig struct {
	Timeout time.Duration `mapstructure:"timeout"` // Bound on every request
}

// UIConfig holds UI configuration
type UIConfig struct {
	PageSize     int    `mapstructure:"page_size"`
	Images       bool   `mapstructure:"images"`        // Render thumbnails in the grid
	GlamourStyle string `mapstructure:"glamour_style"` // "dark", "light", "notty" or "auto"
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Dir: DefaultDataDir(),
		},
		HTTP: HTTPConfig{
			Timeout: 15 * time.Second,
		},
		UI: UIConfig{
			PageSize:     20,
			Images:       true,
			GlamourStyle: "dark",
		},
		Logging: LoggingConfig{
			File:  filepath.Join(DefaultDataDir(), "ladle.log"),
			Level: "INFO",
		},
	}
}

// DefaultDataDir returns the per-user data directory for the current OS
func DefaultDataDir() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "ladle")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "ladle")
	}
}

// DefaultConfigDir returns the config directory for the current OS
func DefaultConfigDir() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "ladle")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "ladle")
	}
}

// newViper returns an instance with defaults and LADLE_ env overrides
func newViper() *viper.Viper {
	v := viper.New()
	def := DefaultConfig()

	v.SetDefault("storage.dir", def.Storage.Dir)
	v.SetDefault("http.timeout", def.HTTP.Timeout)
	v.SetDefault("ui.page_size", def.UI.PageSize)
	v.SetDefault("ui.images", def.UI.Images)
	v.SetDefault("ui.glamour_style", def.UI.GlamourStyle)
	v.SetDefault("logging.file", def.Logging.File)
	v.SetDefault("logging.level", def.Logging.Level)

	// Environment variable overrides, e.g. LADLE_HTTP_TIMEOUT=30s
	v.SetEnvPrefix("LADLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// LoadConfig loads configuration from file and environment. An empty path
// searches the config directory and the working directory; a missing file
// there is not an error.
func LoadConfig(path string) (*Config, error) {
	v := newViper()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(DefaultConfigDir())
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	if cfg.UI.PageSize <= 0 {
		cfg.UI.PageSize = DefaultConfig().UI.PageSize
	}
	if cfg.HTTP.Timeout <= 0 {
		cfg.HTTP.Timeout = DefaultConfig().HTTP.Timeout
	}
	cfg.Storage.Dir = expandHome(cfg.Storage.Dir)
	return cfg, nil
}

// SaveConfig writes cfg to path, or to config.yaml in the config directory
// when path is empty
func SaveConfig(cfg *Config, path string) error {
	if path == "" {
		path = filepath.Join(DefaultConfigDir(), "config.yaml")
	}

	// Ensure config directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.Set("storage.dir", cfg.Storage.Dir)
	v.Set("http.timeout", cfg.HTTP.Timeout.String())
	v.Set("ui.page_size", cfg.UI.PageSize)
	v.Set("ui.images", cfg.UI.Images)
	v.Set("ui.glamour_style", cfg.UI.GlamourStyle)
	v.Set("logging.file", cfg.Logging.File)
	v.Set("logging.level", cfg.Logging.Level)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// expandHome replaces a leading ~ with the user's home directory
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
