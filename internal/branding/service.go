// Package branding holds the portal's name, subtitle and logo.
package branding

import (
	"context"
	"errors"
	"strings"
	"sync"

	apperrors "form-digitizer/internal/common/errors"
	"form-digitizer/internal/common/logger"
	"form-digitizer/internal/common/storage"
	"form-digitizer/internal/models"
)

type Service struct {
	mu     sync.RWMutex
	kv     storage.KV
	logger logger.Logger
	cfg    models.AppConfig
}

func NewService(kv storage.KV, log logger.Logger) *Service {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Service{
		kv:     kv,
		logger: log.WithFields(map[string]interface{}{"component": "branding"}),
		cfg:    models.DefaultAppConfig(),
	}
}

// Load reads the saved branding once. Absent or unreadable values keep the defaults.
func (s *Service) Load(ctx context.Context) models.AppConfig {
	cfg := models.DefaultAppConfig()
	err := storage.GetJSON(ctx, s.kv, storage.KeyAppConfig, &cfg)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn("using default branding", map[string]interface{}{"error": err.Error()})
		}
		cfg = models.DefaultAppConfig()
	}

	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
	return cfg
}

func (s *Service) Get() models.AppConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Save replaces the branding wholesale.
func (s *Service) Save(ctx context.Context, cfg models.AppConfig) (models.AppConfig, error) {
	cfg.AppName = strings.TrimSpace(cfg.AppName)
	cfg.AppSubtitle = strings.TrimSpace(cfg.AppSubtitle)
	if cfg.AppName == "" {
		return models.AppConfig{}, apperrors.NewValidationError(map[string]string{"appName": "App name is required"})
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := storage.SetJSON(ctx, s.kv, storage.KeyAppConfig, cfg, 0); err != nil {
		return models.AppConfig{}, apperrors.NewStorageFailedError("branding.save", err)
	}
	s.cfg = cfg
	s.logger.Info("branding saved", map[string]interface{}{"appName": cfg.AppName})
	return cfg, nil
}
