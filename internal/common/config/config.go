// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App          AppConfig          `mapstructure:"app"`
	Server       ServerConfig       `mapstructure:"server"`
	Storage      StorageConfig      `mapstructure:"storage"`
	Extraction   ExtractionConfig   `mapstructure:"extraction"`
	Sheets       SheetsConfig       `mapstructure:"sheets"`
	Registration RegistrationConfig `mapstructure:"registration"`
	Validation   ValidationConfig   `mapstructure:"validation"`
	Access       AccessConfig       `mapstructure:"access"`
	Dashboard    DashboardConfig    `mapstructure:"dashboard"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address            string   `mapstructure:"address"`
	CORSAllowedOrigins []string `mapstructure:"cors_allowed_origins"`
	MaxUploadMB        int      `mapstructure:"max_upload_mb"`
}

// StorageConfig selects the key-value store behind the record store,
// branding, the user list and sessions.
type StorageConfig struct {
	Driver string       `mapstructure:"driver"` // badger or redis
	Badger BadgerConfig `mapstructure:"badger"`
	Redis  RedisConfig  `mapstructure:"redis"`
}

type BadgerConfig struct {
	Path     string `mapstructure:"path"`
	InMemory bool   `mapstructure:"in_memory"`
}

type RedisConfig struct {
	Address   string `mapstructure:"address"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// Addr returns the host:port the client dials.
func (r RedisConfig) Addr() string {
	if r.Address == "" {
		return fmt.Sprintf("%s:%d", "localhost", 6379)
	}
	return r.Address
}

// --- External Services ---

// ExtractionConfig holds settings for the document-understanding API.
type ExtractionConfig struct {
	BaseURL      string `mapstructure:"base_url"`
	APIKey       string `mapstructure:"api_key"`
	Model        string `mapstructure:"model"`
	Timeout      int    `mapstructure:"timeout"` // milliseconds, 0 = none
	MaxImageEdge int    `mapstructure:"max_image_edge"`
	JPEGQuality  int    `mapstructure:"jpeg_quality"`
}

// SheetsConfig holds the spreadsheet web-hook endpoint.
type SheetsConfig struct {
	WebAppURL string `mapstructure:"webapp_url"`
	Timeout   int    `mapstructure:"timeout"` // milliseconds, 0 = none
}

// --- Domain Rules ---

type RegistrationConfig struct {
	TotalFee int64 `mapstructure:"total_fee"`
}

type ValidationConfig struct {
	// PhoneRegion enables contact number checks for the given region, e.g. "IN".
	PhoneRegion string `mapstructure:"phone_region"`
}

type AccessConfig struct {
	FallbackUsername  string `mapstructure:"fallback_username"`
	FallbackPassword  string `mapstructure:"fallback_password"`
	SessionTTLMinutes int    `mapstructure:"session_ttl_minutes"`
}

type DashboardConfig struct {
	CacheTTLSeconds int `mapstructure:"cache_ttl_seconds"` // 0 disables the remote cache
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
