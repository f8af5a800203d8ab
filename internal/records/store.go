// Package records keeps the local collection of processing records and
// mirrors every change into the key-value store.
package records

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"form-digitizer/internal/common/logger"
	"form-digitizer/internal/common/metrics"
	"form-digitizer/internal/common/storage"
	"form-digitizer/internal/models"
)

var ErrRecordNotFound = errors.New("record not found")

// InterruptedMessage is set on records found mid-extraction at startup.
const InterruptedMessage = "Processing was interrupted. Please upload the form again."

// Store holds records newest first. Readers always receive copies.
type Store struct {
	mu      sync.RWMutex
	records []models.ProcessingRecord
	kv      storage.KV
	logger  logger.Logger
}

func NewStore(kv storage.KV, log logger.Logger) *Store {
	return &Store{
		kv:     kv,
		logger: log.WithFields(map[string]interface{}{"component": "records"}),
	}
}

// Load replaces the in-memory collection with the persisted snapshot. A
// missing or unreadable snapshot yields an empty collection.
func (s *Store) Load(ctx context.Context) {
	var loaded []models.ProcessingRecord
	err := storage.GetJSON(ctx, s.kv, storage.KeyRecords, &loaded)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		loaded = nil
	case err != nil:
		s.logger.Warn("discarding unreadable record snapshot", map[string]interface{}{
			"error": err.Error(),
		})
		loaded = nil
	}

	interrupted := 0
	for i := range loaded {
		r := &loaded[i]
		if r.SyncStatus == "" {
			r.SyncStatus = models.SyncIdle
		}
		if r.Source == "" {
			r.Source = models.SourceOCR
		}
		// no goroutine survives a restart
		if !r.IsTerminal() {
			r.Status = models.StatusError
			r.Error = InterruptedMessage
			interrupted++
		}
		if r.SyncStatus == models.SyncSyncing {
			r.SyncStatus = models.SyncFailed
		}
	}

	s.mu.Lock()
	s.records = loaded
	s.mu.Unlock()

	s.logger.Info("record store loaded", map[string]interface{}{
		"count":       len(loaded),
		"interrupted": interrupted,
	})
}

// Add inserts rec at the head.
func (s *Store) Add(ctx context.Context, rec models.ProcessingRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]models.ProcessingRecord, 0, len(s.records)+1)
	next = append(next, rec.Clone())
	next = append(next, s.records...)
	s.records = next
	s.persistLocked(ctx)
}

// Get returns a copy of the record with id.
func (s *Store) Get(id string) (models.ProcessingRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexLocked(id); i >= 0 {
		return s.records[i].Clone(), true
	}
	return models.ProcessingRecord{}, false
}

// UpdateByID applies patch to a copy of the record and stores the result.
// A patch error leaves the record untouched and is returned as is.
func (s *Store) UpdateByID(ctx context.Context, id string, patch func(*models.ProcessingRecord) error) (models.ProcessingRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return models.ProcessingRecord{}, fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}

	updated := s.records[i].Clone()
	if err := patch(&updated); err != nil {
		return models.ProcessingRecord{}, err
	}
	updated.ID = id

	next := make([]models.ProcessingRecord, len(s.records))
	copy(next, s.records)
	next[i] = updated
	s.records = next
	s.persistLocked(ctx)

	return updated.Clone(), nil
}

// RemoveByID deletes the record and its image. It reports whether the record existed.
func (s *Store) RemoveByID(ctx context.Context, id string) bool {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	next := make([]models.ProcessingRecord, 0, len(s.records)-1)
	next = append(next, s.records[:i]...)
	next = append(next, s.records[i+1:]...)
	s.records = next
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.releaseImages(ctx, id)
	return true
}

// ListAll returns copies in head-first order.
func (s *Store) ListAll() []models.ProcessingRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.ProcessingRecord, len(s.records))
	for i, r := range s.records {
		out[i] = r.Clone()
	}
	return out
}

// Clear removes every record. It returns how many were dropped.
func (s *Store) Clear(ctx context.Context) int {
	s.mu.Lock()
	ids := make([]string, len(s.records))
	for i, r := range s.records {
		ids[i] = r.ID
	}
	s.records = nil
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.releaseImages(ctx, ids...)
	return len(ids)
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// SaveImage keeps the uploaded image under the record's blob key.
func (s *Store) SaveImage(ctx context.Context, id string, dataURI string) error {
	if err := s.kv.Set(ctx, storage.ImageKey(id), []byte(dataURI), 0); err != nil {
		return fmt.Errorf("save image %s: %w", id, err)
	}
	return nil
}

// Image returns the data URI stored for the record.
func (s *Store) Image(ctx context.Context, id string) (string, error) {
	raw, err := s.kv.Get(ctx, storage.ImageKey(id))
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func (s *Store) indexLocked(id string) int {
	for i := range s.records {
		if s.records[i].ID == id {
			return i
		}
	}
	return -1
}

// persistLocked writes the full snapshot. Failures are logged and counted;
// the in-memory collection stays authoritative.
func (s *Store) persistLocked(ctx context.Context) {
	raw, err := json.Marshal(s.records)
	if err == nil {
		err = s.kv.Set(context.WithoutCancel(ctx), storage.KeyRecords, raw, 0)
	}
	if err != nil {
		metrics.StorePersistFailures.Inc()
		s.logger.Error("failed to persist records", map[string]interface{}{
			"error": err.Error(),
			"count": len(s.records),
		})
	}
}

func (s *Store) releaseImages(ctx context.Context, ids ...string) {
	if len(ids) == 0 {
		return
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = storage.ImageKey(id)
	}
	start := time.Now()
	if err := s.kv.Delete(context.WithoutCancel(ctx), keys...); err != nil {
		s.logger.Warn("failed to release images", map[string]interface{}{
			"error": err.Error(),
			"count": len(keys),
		})
		return
	}
	s.logger.Debug("images released", map[string]interface{}{
		"count":    len(keys),
		"duration": time.Since(start).String(),
	})
}
