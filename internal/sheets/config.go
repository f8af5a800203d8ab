package sheets

import (
	"time"

	"form-digitizer/internal/common/config"
)

type Config struct {
	WebAppURL string
	Timeout   time.Duration // 0 = none
}

// Configured reports whether a real endpoint has been set.
func (c *Config) Configured() bool {
	return c != nil && c.WebAppURL != "" && c.WebAppURL != config.SheetsPlaceholderURL
}

func ConfigFrom(cfg config.SheetsConfig) *Config {
	return &Config{
		WebAppURL: cfg.WebAppURL,
		Timeout:   config.GetDuration(cfg.Timeout),
	}
}
