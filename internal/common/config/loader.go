// internal/common/config/loader.go
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// SheetsPlaceholderURL is the value shipped in sample configs; it counts as unconfigured.
const SheetsPlaceholderURL = "YOUR_APPS_SCRIPT_URL_HERE"

func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// environment overlay is optional
	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig()

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func finish(v *viper.Viper) (*Config, error) {
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal {
				v.Set(key, expanded)
			}
		}
	}
}

// overrideEmptyConfig fills secrets and endpoints from well-known variables
// when the config file leaves them blank.
func overrideEmptyConfig(cfg *Config) {
	if cfg.Extraction.APIKey == "" {
		for _, name := range []string{"GEMINI_API_KEY", "API_KEY"} {
			if val := os.Getenv(name); val != "" {
				cfg.Extraction.APIKey = val
				break
			}
		}
	}

	if cfg.Sheets.WebAppURL == "" || cfg.Sheets.WebAppURL == SheetsPlaceholderURL {
		if val := os.Getenv("SHEETS_WEBAPP_URL"); val != "" {
			cfg.Sheets.WebAppURL = val
		}
	}

	if cfg.Storage.Redis.Address == "" {
		if val := os.Getenv("REDIS_ADDRESS"); val != "" {
			cfg.Storage.Redis.Address = val
		}
	}
	if cfg.Storage.Redis.Password == "" {
		if val := os.Getenv("REDIS_PASSWORD"); val != "" {
			cfg.Storage.Redis.Password = val
		}
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "form-digitizer"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}

	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Server.MaxUploadMB == 0 {
		cfg.Server.MaxUploadMB = 20
	}

	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "badger"
	}
	if cfg.Storage.Badger.Path == "" && !cfg.Storage.Badger.InMemory {
		cfg.Storage.Badger.Path = "./data/badger"
	}
	if cfg.Storage.Redis.KeyPrefix == "" {
		cfg.Storage.Redis.KeyPrefix = "digitizer:"
	}

	if cfg.Extraction.BaseURL == "" {
		cfg.Extraction.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if cfg.Extraction.Model == "" {
		cfg.Extraction.Model = "gemini-3-flash-preview"
	}
	if cfg.Extraction.MaxImageEdge == 0 {
		cfg.Extraction.MaxImageEdge = 2048
	}
	if cfg.Extraction.JPEGQuality == 0 {
		cfg.Extraction.JPEGQuality = 90
	}

	if cfg.Registration.TotalFee == 0 {
		cfg.Registration.TotalFee = 20000
	}

	if cfg.Access.FallbackUsername == "" {
		cfg.Access.FallbackUsername = "admin"
	}
	if cfg.Access.FallbackPassword == "" {
		cfg.Access.FallbackPassword = "admin"
	}
	if cfg.Access.SessionTTLMinutes == 0 {
		cfg.Access.SessionTTLMinutes = 12 * 60
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	switch cfg.Storage.Driver {
	case "badger":
		if cfg.Storage.Badger.Path == "" && !cfg.Storage.Badger.InMemory {
			return fmt.Errorf("storage.badger.path is required unless storage.badger.in_memory is set")
		}
	case "redis":
		if cfg.Storage.Redis.Address == "" {
			return fmt.Errorf("storage.redis.address is required for the redis driver")
		}
	default:
		return fmt.Errorf("storage.driver must be badger or redis, got %q", cfg.Storage.Driver)
	}

	if cfg.Registration.TotalFee < 0 {
		return fmt.Errorf("registration.total_fee must not be negative")
	}

	if u := cfg.Sheets.WebAppURL; u != "" && u != SheetsPlaceholderURL {
		parsed, err := url.Parse(u)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
			return fmt.Errorf("sheets.webapp_url must be an http(s) URL")
		}
	}

	if cfg.Extraction.Timeout < 0 || cfg.Sheets.Timeout < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}

	switch cfg.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console")
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// SessionTTL returns the access session lifetime.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.Access.SessionTTLMinutes) * time.Minute
}

// DashboardCacheTTL returns how long a remote pull is reused.
func (c *Config) DashboardCacheTTL() time.Duration {
	return time.Duration(c.Dashboard.CacheTTLSeconds) * time.Second
}

// SheetsConfigured reports whether a real web-hook URL is set.
func (c *Config) SheetsConfigured() bool {
	return c.Sheets.WebAppURL != "" && c.Sheets.WebAppURL != SheetsPlaceholderURL
}
