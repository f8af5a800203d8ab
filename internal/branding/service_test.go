package branding

import (
	"context"
	"testing"

	"form-digitizer/internal/common/config"
	apperrors "form-digitizer/internal/common/errors"
	"form-digitizer/internal/common/logger"
	"form-digitizer/internal/common/storage"
	"form-digitizer/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupKV(t *testing.T) storage.KV {
	t.Helper()
	kv, err := storage.NewBadger(config.BadgerConfig{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })
	return kv
}

func TestLoad_Defaults(t *testing.T) {
	ctx := context.Background()

	t.Run("absent", func(t *testing.T) {
		s := NewService(setupKV(t), logger.NewTestLogger(t))
		assert.Equal(t, models.DefaultAppConfig(), s.Load(ctx))
	})

	t.Run("corrupt", func(t *testing.T) {
		kv := setupKV(t)
		require.NoError(t, kv.Set(ctx, storage.KeyAppConfig, []byte("nope"), 0))
		s := NewService(kv, logger.NewTestLogger(t))
		assert.Equal(t, models.DefaultAppConfig(), s.Load(ctx))
		assert.Equal(t, "EHA Summer Camp", s.Get().AppName)
	})
}

func TestSave_ReplacesAndPersists(t *testing.T) {
	ctx := context.Background()
	kv := setupKV(t)
	s := NewService(kv, logger.NewTestLogger(t))
	s.Load(ctx)

	saved, err := s.Save(ctx, models.AppConfig{AppName: " Winter Camp ", LogoURL: "https://example.com/logo.png"})
	require.NoError(t, err)
	assert.Equal(t, models.AppConfig{AppName: "Winter Camp", LogoURL: "https://example.com/logo.png"}, saved)
	assert.Equal(t, saved, s.Get())

	reloaded := NewService(kv, logger.NewTestLogger(t))
	assert.Equal(t, saved, reloaded.Load(ctx))
}

func TestSave_RequiresName(t *testing.T) {
	s := NewService(setupKV(t), logger.NewTestLogger(t))
	_, err := s.Save(context.Background(), models.AppConfig{AppName: "  "})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidationFailed))
	assert.Equal(t, models.DefaultAppConfig(), s.Get())
}
