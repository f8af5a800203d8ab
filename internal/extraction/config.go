package extraction

import (
	"time"

	"form-digitizer/internal/common/config"
)

type Config struct {
	BaseURL      string
	APIKey       string
	Model        string
	Timeout      time.Duration // 0 = none
	MaxImageEdge int
	JPEGQuality  int
}

func DefaultConfig() *Config {
	return &Config{
		BaseURL:      "https://generativelanguage.googleapis.com/v1beta",
		Model:        "gemini-3-flash-preview",
		MaxImageEdge: 2048,
		JPEGQuality:  90,
	}
}

// ConfigFrom maps the application config section onto the client config.
func ConfigFrom(cfg config.ExtractionConfig) *Config {
	c := DefaultConfig()
	if cfg.BaseURL != "" {
		c.BaseURL = cfg.BaseURL
	}
	if cfg.Model != "" {
		c.Model = cfg.Model
	}
	if cfg.MaxImageEdge > 0 {
		c.MaxImageEdge = cfg.MaxImageEdge
	}
	if cfg.JPEGQuality > 0 {
		c.JPEGQuality = cfg.JPEGQuality
	}
	c.APIKey = cfg.APIKey
	c.Timeout = config.GetDuration(cfg.Timeout)
	return c
}
