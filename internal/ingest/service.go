// Package ingest drives records through extraction, review and sync.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "form-digitizer/internal/common/errors"
	"form-digitizer/internal/common/logger"
	"form-digitizer/internal/common/metrics"
	"form-digitizer/internal/common/storage"
	"form-digitizer/internal/common/validation"
	"form-digitizer/internal/models"
	"form-digitizer/internal/records"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc"
)

var errStaleSync = errors.New("record changed while syncing")

type Dependencies struct {
	Store     *records.Store
	Extractor Extractor
	Pusher    Pusher
	Validator *validation.StructValidator
	Logger    logger.Logger
}

type Service struct {
	config    *Config
	store     *records.Store
	extractor Extractor
	pusher    Pusher
	validator *validation.StructValidator
	logger    logger.Logger
	wg        conc.WaitGroup
}

func NewService(deps Dependencies, cfg *Config) *Service {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	v := deps.Validator
	if v == nil {
		v = validation.NewStructValidator()
	}
	log := deps.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Service{
		config:    cfg,
		store:     deps.Store,
		extractor: deps.Extractor,
		pusher:    deps.Pusher,
		validator: v,
		logger:    log.WithFields(map[string]interface{}{"component": "ingest"}),
	}
}

// ==========================
// OCR Ingestion
// ==========================

// IngestFiles creates one pending record per upload and returns them at
// once. Extraction runs in the background, one goroutine per record.
func (s *Service) IngestFiles(ctx context.Context, uploads []Upload) []models.ProcessingRecord {
	bg := context.WithoutCancel(ctx)
	created := make([]models.ProcessingRecord, 0, len(uploads))

	for _, up := range uploads {
		id := uuid.NewString()
		rec := models.ProcessingRecord{
			ID:         id,
			Timestamp:  s.config.Now().UnixMilli(),
			FileName:   up.FileName,
			ImageURL:   storage.ImageKey(id),
			Status:     models.StatusPending,
			Source:     models.SourceOCR,
			SyncStatus: models.SyncIdle,
		}

		if err := s.store.SaveImage(bg, id, up.DataURI); err != nil {
			s.logger.Warn("image not kept", map[string]interface{}{
				"recordId": id,
				"error":    err.Error(),
			})
			rec.ImageURL = ""
		}
		s.store.Add(bg, rec)
		metrics.RecordsCreated.WithLabelValues(string(models.SourceOCR)).Inc()
		created = append(created, rec)

		image := up.DataURI
		s.wg.Go(func() {
			s.process(bg, id, image)
		})
	}

	s.logger.Info("files accepted for extraction", map[string]interface{}{
		"count": len(created),
	})
	return created
}

// Wait blocks until every background extraction has finished.
func (s *Service) Wait() {
	if r := s.wg.WaitAndRecover(); r != nil {
		s.logger.Error("extraction goroutine panicked", map[string]interface{}{
			"panic": r.String(),
		})
	}
}

func (s *Service) process(ctx context.Context, id, image string) {
	metrics.ExtractionsInFlight.Inc()
	defer metrics.ExtractionsInFlight.Dec()

	log := s.logger.WithFields(map[string]interface{}{"recordId": id})

	if _, err := s.transition(ctx, id, models.StatusProcessing, nil); err != nil {
		log.Info("extraction skipped", map[string]interface{}{"reason": err.Error()})
		return
	}

	start := time.Now()
	data, err := s.extractor.Extract(ctx, image)
	target := models.StatusCompleted
	if err != nil {
		target = models.StatusError
	}
	metrics.ExtractionDuration.WithLabelValues(string(target)).Observe(time.Since(start).Seconds())
	metrics.ExtractionsFinished.WithLabelValues(string(target)).Inc()

	_, uerr := s.transition(ctx, id, target, func(r *models.ProcessingRecord) {
		if err != nil {
			r.Data = nil
			r.Error = failureMessage(err)
			return
		}
		r.Data = data
		r.Error = ""
	})
	if errors.Is(uerr, records.ErrRecordNotFound) {
		log.Info("extraction result dropped, record was removed", nil)
		return
	}
	if uerr != nil {
		log.Warn("extraction result not applied", map[string]interface{}{"error": uerr.Error()})
		return
	}

	log.Info("extraction finished", map[string]interface{}{
		"status":   string(target),
		"duration": time.Since(start).String(),
	})
}

// transition moves the record's status when the lifecycle allows it.
func (s *Service) transition(ctx context.Context, id string, to models.Status, apply func(*models.ProcessingRecord)) (models.ProcessingRecord, error) {
	return s.store.UpdateByID(ctx, id, func(r *models.ProcessingRecord) error {
		if !models.CanTransition(r.Status, to) {
			return apperrors.NewInvalidTransitionError(id, string(r.Status), string(to))
		}
		r.Status = to
		if apply != nil {
			apply(r)
		}
		return nil
	})
}

func failureMessage(err error) string {
	if stdErr, ok := apperrors.AsStandard(err); ok {
		return stdErr.Message
	}
	return apperrors.ExtractionFailedMessage
}

// ==========================
// Record Operations
// ==========================

// Get returns one record.
func (s *Service) Get(id string) (models.ProcessingRecord, error) {
	rec, ok := s.store.Get(id)
	if !ok {
		return models.ProcessingRecord{}, apperrors.NewRecordNotFoundError(id)
	}
	return rec, nil
}

// List returns the records matching f, newest first.
func (s *Service) List(f records.Filter) []models.ProcessingRecord {
	return s.store.List(f)
}

// EditRecord replaces a completed record's data and makes it eligible for
// another push. Status never changes.
func (s *Service) EditRecord(ctx context.Context, id string, data models.RegistrationData) (models.ProcessingRecord, error) {
	rec, err := s.store.UpdateByID(ctx, id, func(r *models.ProcessingRecord) error {
		if r.Status != models.StatusCompleted {
			return apperrors.NewInvalidTransitionError(id, string(r.Status), "edited")
		}
		d := data
		r.Data = &d
		r.SyncStatus = models.SyncIdle
		r.SyncedAt = 0
		return nil
	})
	if err != nil {
		return models.ProcessingRecord{}, s.mapStoreError(id, err)
	}

	s.logger.Info("record edited", map[string]interface{}{
		"recordId":      id,
		"checkManually": rec.Data.CheckManuallyFields(),
	})
	return rec, nil
}

// RemoveRecord deletes a record in any state. A running extraction for it
// finishes and its result is dropped.
func (s *Service) RemoveRecord(ctx context.Context, id string) error {
	if !s.store.RemoveByID(ctx, id) {
		return apperrors.NewRecordNotFoundError(id)
	}
	s.logger.Info("record removed", map[string]interface{}{"recordId": id})
	return nil
}

// ClearAll deletes every record and returns how many were dropped.
func (s *Service) ClearAll(ctx context.Context) int {
	n := s.store.Clear(ctx)
	s.logger.Info("all records cleared", map[string]interface{}{"count": n})
	return n
}

// ==========================
// Sync
// ==========================

// SyncRecord pushes one completed record. It is allowed from idle or failed;
// a synced record must be edited first.
func (s *Service) SyncRecord(ctx context.Context, id string) (models.ProcessingRecord, error) {
	rec, _, err := s.syncRecord(ctx, id)
	return rec, err
}

// syncRecord reports applied=false when the push result was dropped because
// the record changed while the push was in flight.
func (s *Service) syncRecord(ctx context.Context, id string) (models.ProcessingRecord, bool, error) {
	rec, err := s.store.UpdateByID(ctx, id, func(r *models.ProcessingRecord) error {
		if !r.CanSync() {
			return apperrors.NewInvalidTransitionError(id, string(r.SyncStatus), string(models.SyncSyncing))
		}
		r.SyncStatus = models.SyncSyncing
		return nil
	})
	if err != nil {
		return models.ProcessingRecord{}, false, s.mapStoreError(id, err)
	}

	pushed := *rec.Data
	ok := s.pusher.Push(context.WithoutCancel(ctx), pushed)

	final, err := s.store.UpdateByID(ctx, id, func(r *models.ProcessingRecord) error {
		// an edit or removal during the push wins, including an edit followed
		// by a newer push that is still in flight
		if r.SyncStatus != models.SyncSyncing || r.Data == nil || *r.Data != pushed {
			return errStaleSync
		}
		if ok {
			r.SyncStatus = models.SyncSynced
			r.SyncedAt = s.config.Now().UnixMilli()
		} else {
			r.SyncStatus = models.SyncFailed
		}
		return nil
	})
	switch {
	case errors.Is(err, errStaleSync):
		current, _ := s.store.Get(id)
		s.logger.Info("sync result dropped, record changed meanwhile", map[string]interface{}{"recordId": id})
		return current, false, nil
	case err != nil:
		return models.ProcessingRecord{}, false, s.mapStoreError(id, err)
	}

	if !ok {
		s.logger.Warn("record sync failed", map[string]interface{}{"recordId": id})
		var stdErr *apperrors.StandardError
		if !s.pusher.Configured() {
			stdErr = apperrors.NewSyncNotConfiguredError(id)
		} else {
			stdErr = apperrors.NewSyncWriteFailedError(id)
		}
		stdErr.Metadata = map[string]interface{}{"record": final}
		return final, true, stdErr
	}

	s.logger.Info("record synced", map[string]interface{}{
		"recordId":    id,
		"admissionId": final.Data.AdmissionID,
	})
	return final, true, nil
}

// SyncAll pushes every record that can be synced, oldest first, one at a time.
func (s *Service) SyncAll(ctx context.Context) SyncSummary {
	all := s.store.ListAll()
	var summary SyncSummary

	for i := len(all) - 1; i >= 0; i-- {
		if !all[i].CanSync() {
			continue
		}
		summary.Attempted++
		rec, applied, err := s.syncRecord(ctx, all[i].ID)
		switch {
		case err == nil && !applied,
			apperrors.HasCode(err, apperrors.ErrCodeInvalidTransition),
			apperrors.HasCode(err, apperrors.ErrCodeRecordNotFound):
			// changed between listing and pushing
			summary.Attempted--
		case err == nil && rec.SyncStatus == models.SyncSynced:
			summary.Synced++
		default:
			summary.Failed++
			summary.FailedIDs = append(summary.FailedIDs, all[i].ID)
		}
	}

	s.logger.Info("bulk sync finished", map[string]interface{}{
		"attempted": summary.Attempted,
		"synced":    summary.Synced,
		"failed":    summary.Failed,
	})
	return summary
}

func (s *Service) mapStoreError(id string, err error) error {
	if errors.Is(err, records.ErrRecordNotFound) {
		return apperrors.NewRecordNotFoundError(id)
	}
	if _, ok := apperrors.AsStandard(err); ok {
		return err
	}
	return fmt.Errorf("update record %s: %w", id, err)
}
