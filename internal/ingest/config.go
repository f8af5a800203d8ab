package ingest

import (
	"time"

	"form-digitizer/internal/common/config"
)

type Config struct {
	// TotalFee is the fixed course fee used to derive remaining_amount.
	TotalFee int64
	// PhoneRegion enables contact number checks on manual entries.
	PhoneRegion string
	Now         func() time.Time
}

func DefaultConfig() *Config {
	return &Config{
		TotalFee: 20000,
		Now:      time.Now,
	}
}

func ConfigFrom(cfg *config.Config) *Config {
	c := DefaultConfig()
	if cfg.Registration.TotalFee > 0 {
		c.TotalFee = cfg.Registration.TotalFee
	}
	c.PhoneRegion = cfg.Validation.PhoneRegion
	return c
}
