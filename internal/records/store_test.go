package records

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"form-digitizer/internal/common/config"
	"form-digitizer/internal/common/logger"
	"form-digitizer/internal/common/storage"
	"form-digitizer/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func setupKV(t *testing.T) storage.KV {
	t.Helper()
	kv, err := storage.NewBadger(config.BadgerConfig{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })
	return kv
}

func newRecord(id string, status models.Status) models.ProcessingRecord {
	rec := models.ProcessingRecord{
		ID:         id,
		Timestamp:  time.Now().UnixMilli(),
		FileName:   id + ".jpg",
		Status:     status,
		Source:     models.SourceOCR,
		SyncStatus: models.SyncIdle,
	}
	if status == models.StatusCompleted {
		rec.Data = &models.RegistrationData{Name: "Student " + id}
	}
	return rec
}

func ids(recs []models.ProcessingRecord) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.ID
	}
	return out
}

// failingKV accepts reads and rejects writes.
type failingKV struct{ storage.KV }

func (f failingKV) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("disk full")
}

// ==========================
// Core Functionality Tests
// ==========================

func TestStore_AddInsertsAtHead(t *testing.T) {
	ctx := context.Background()
	s := NewStore(setupKV(t), logger.NewTestLogger(t))

	s.Add(ctx, newRecord("a", models.StatusPending))
	s.Add(ctx, newRecord("b", models.StatusPending))
	s.Add(ctx, newRecord("c", models.StatusPending))

	assert.Equal(t, []string{"c", "b", "a"}, ids(s.ListAll()))
	assert.Equal(t, 3, s.Len())
}

func TestStore_PersistsEveryMutation(t *testing.T) {
	ctx := context.Background()
	kv := setupKV(t)
	s := NewStore(kv, logger.NewTestLogger(t))

	s.Add(ctx, newRecord("a", models.StatusCompleted))
	s.Add(ctx, newRecord("b", models.StatusCompleted))
	_, err := s.UpdateByID(ctx, "a", func(r *models.ProcessingRecord) error {
		r.SyncStatus = models.SyncSynced
		return nil
	})
	require.NoError(t, err)

	reloaded := NewStore(kv, logger.NewTestLogger(t))
	reloaded.Load(ctx)

	got := reloaded.ListAll()
	require.Len(t, got, 2)
	assert.Equal(t, []string{"b", "a"}, ids(got))
	assert.Equal(t, models.SyncSynced, got[1].SyncStatus)
	assert.Equal(t, "Student a", got[1].Data.Name)
}

func TestStore_LoadFallsBackToEmpty(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		setup func(kv storage.KV)
	}{
		{"absent snapshot", func(storage.KV) {}},
		{"corrupt snapshot", func(kv storage.KV) {
			_ = kv.Set(ctx, storage.KeyRecords, []byte(`{not json`), 0)
		}},
		{"wrong shape", func(kv storage.KV) {
			_ = kv.Set(ctx, storage.KeyRecords, []byte(`{"id":"x"}`), 0)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv := setupKV(t)
			tt.setup(kv)

			s := NewStore(kv, logger.NewTestLogger(t))
			assert.NotPanics(t, func() { s.Load(ctx) })
			assert.Empty(t, s.ListAll())
		})
	}
}

func TestStore_LoadNormalizesLegacyAndInterruptedRecords(t *testing.T) {
	ctx := context.Background()
	kv := setupKV(t)
	raw := `[
		{"id":"legacy","timestamp":1,"fileName":"a.jpg","status":"completed","data":{"name":"Asha"}},
		{"id":"stuck","timestamp":2,"fileName":"b.jpg","status":"processing","source":"ocr","syncStatus":"idle"},
		{"id":"pushing","timestamp":3,"fileName":"c.jpg","status":"completed","source":"manual","syncStatus":"syncing","data":{"name":"Ravi"}}
	]`
	require.NoError(t, kv.Set(ctx, storage.KeyRecords, []byte(raw), 0))

	s := NewStore(kv, logger.NewTestLogger(t))
	s.Load(ctx)

	legacy, ok := s.Get("legacy")
	require.True(t, ok)
	assert.Equal(t, models.SyncIdle, legacy.SyncStatus)
	assert.Equal(t, models.SourceOCR, legacy.Source)
	assert.Equal(t, "Asha", legacy.Data.Name)
	assert.Empty(t, legacy.Data.Gender)

	stuck, _ := s.Get("stuck")
	assert.Equal(t, models.StatusError, stuck.Status)
	assert.Equal(t, InterruptedMessage, stuck.Error)

	pushing, _ := s.Get("pushing")
	assert.Equal(t, models.SyncFailed, pushing.SyncStatus)
	assert.Equal(t, models.SourceManual, pushing.Source)
}

func TestStore_UpdateByID(t *testing.T) {
	ctx := context.Background()
	s := NewStore(setupKV(t), logger.NewTestLogger(t))
	s.Add(ctx, newRecord("a", models.StatusPending))

	t.Run("missing id", func(t *testing.T) {
		_, err := s.UpdateByID(ctx, "nope", func(*models.ProcessingRecord) error { return nil })
		assert.ErrorIs(t, err, ErrRecordNotFound)
	})

	t.Run("patch error leaves record untouched", func(t *testing.T) {
		boom := errors.New("rejected")
		_, err := s.UpdateByID(ctx, "a", func(r *models.ProcessingRecord) error {
			r.Status = models.StatusError
			return boom
		})
		assert.ErrorIs(t, err, boom)

		got, _ := s.Get("a")
		assert.Equal(t, models.StatusPending, got.Status)
	})

	t.Run("id cannot be rewritten", func(t *testing.T) {
		updated, err := s.UpdateByID(ctx, "a", func(r *models.ProcessingRecord) error {
			r.ID = "b"
			r.Status = models.StatusProcessing
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, "a", updated.ID)
		assert.Equal(t, models.StatusProcessing, updated.Status)
	})
}

func TestStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewStore(setupKV(t), logger.NewTestLogger(t))
	s.Add(ctx, newRecord("a", models.StatusCompleted))

	listed := s.ListAll()
	listed[0].Data.Name = "changed"
	listed[0].Status = models.StatusError

	got, _ := s.Get("a")
	assert.Equal(t, "Student a", got.Data.Name)
	assert.Equal(t, models.StatusCompleted, got.Status)
}

func TestStore_RemoveByIDReleasesImage(t *testing.T) {
	ctx := context.Background()
	kv := setupKV(t)
	s := NewStore(kv, logger.NewTestLogger(t))

	for _, id := range []string{"a", "b", "c"} {
		s.Add(ctx, newRecord(id, models.StatusCompleted))
		require.NoError(t, s.SaveImage(ctx, id, "data:image/jpeg;base64,AAAA"))
	}

	assert.True(t, s.RemoveByID(ctx, "b"))
	assert.False(t, s.RemoveByID(ctx, "b"))
	assert.Equal(t, []string{"c", "a"}, ids(s.ListAll()))

	_, err := s.Image(ctx, "b")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	img, err := s.Image(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "data:image/jpeg;base64,AAAA", img)
}

func TestStore_Clear(t *testing.T) {
	ctx := context.Background()
	kv := setupKV(t)
	s := NewStore(kv, logger.NewTestLogger(t))
	s.Add(ctx, newRecord("a", models.StatusCompleted))
	s.Add(ctx, newRecord("b", models.StatusError))
	require.NoError(t, s.SaveImage(ctx, "a", "data:image/png;base64,AAAA"))

	assert.Equal(t, 2, s.Clear(ctx))
	assert.Empty(t, s.ListAll())

	_, err := s.Image(ctx, "a")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	reloaded := NewStore(kv, logger.NewTestLogger(t))
	reloaded.Load(ctx)
	assert.Empty(t, reloaded.ListAll())
}

// ==========================
// Error Handling Tests
// ==========================

func TestStore_PersistFailureKeepsMemoryState(t *testing.T) {
	ctx := context.Background()
	s := NewStore(failingKV{KV: setupKV(t)}, logger.NewTestLogger(t))

	s.Add(ctx, newRecord("a", models.StatusPending))
	_, err := s.UpdateByID(ctx, "a", func(r *models.ProcessingRecord) error {
		r.Status = models.StatusProcessing
		return nil
	})
	require.NoError(t, err)

	got, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, models.StatusProcessing, got.Status)
}

// ==========================
// Concurrency Tests
// ==========================

func TestStore_ConcurrentUpdatesByID(t *testing.T) {
	ctx := context.Background()
	s := NewStore(setupKV(t), logger.NewNoOpLogger())

	const n = 20
	for i := 0; i < n; i++ {
		s.Add(ctx, newRecord(fmt.Sprintf("r%d", i), models.StatusPending))
	}

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("r%d", i)
			_, err := s.UpdateByID(ctx, id, func(r *models.ProcessingRecord) error {
				r.Status = models.StatusCompleted
				r.Data = &models.RegistrationData{Name: id}
				return nil
			})
			assert.NoError(t, err)
			_ = s.ListAll()
		}(i)
	}
	wg.Wait()

	for _, r := range s.ListAll() {
		assert.Equal(t, models.StatusCompleted, r.Status)
		assert.Equal(t, r.ID, r.Data.Name)
	}
}
