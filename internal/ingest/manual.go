package ingest

import (
	"context"
	"strings"

	apperrors "form-digitizer/internal/common/errors"
	"form-digitizer/internal/common/metrics"
	"form-digitizer/internal/common/validation"
	"form-digitizer/internal/models"
	"form-digitizer/pkg/fields"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const dateLayout = "02/01/2006"

// SubmitManual validates a typed-in registration, derives the remaining
// balance and stores it as a completed record. Nothing is stored when
// validation fails.
func (s *Service) SubmitManual(ctx context.Context, data models.RegistrationData) (models.ProcessingRecord, error) {
	data = normalizeManual(data)

	if res := s.validateManual(data); !res.Valid {
		s.logger.Info("manual entry rejected", map[string]interface{}{
			"fields": res.FieldMessages(),
		})
		return models.ProcessingRecord{}, apperrors.NewValidationError(res.FieldMessages())
	}

	if data.Date == "" {
		data.Date = s.config.Now().Format(dateLayout)
	}
	data.RemainingAmount = RemainingAmount(s.config.TotalFee, data.InitialPayment, data.Discount)

	rec := models.ProcessingRecord{
		ID:         uuid.NewString(),
		Timestamp:  s.config.Now().UnixMilli(),
		FileName:   "Manual Entry",
		Data:       &data,
		Status:     models.StatusCompleted,
		Source:     models.SourceManual,
		SyncStatus: models.SyncIdle,
	}
	s.store.Add(ctx, rec)
	metrics.RecordsCreated.WithLabelValues(string(models.SourceManual)).Inc()

	s.logger.Info("manual entry created", map[string]interface{}{
		"recordId":    rec.ID,
		"admissionId": data.AdmissionID,
	})
	return rec.Clone(), nil
}

func normalizeManual(d models.RegistrationData) models.RegistrationData {
	for _, n := range fields.Names {
		d.Set(n, strings.TrimSpace(d.Get(n)))
	}
	return d
}

func (s *Service) validateManual(d models.RegistrationData) *validation.ValidationResult {
	res := s.validator.Validate(d)

	region := s.config.PhoneRegion
	if d.ContactNo != "" && !validation.ValidPhone(d.ContactNo, region) {
		res.Add(fields.ContactNo, "Contact number is not valid", "PHONE")
	}
	if d.WhatsappNo != "" && !validation.ValidPhone(d.WhatsappNo, region) {
		res.Add(fields.WhatsappNo, "WhatsApp number is not valid", "PHONE")
	}
	return res
}

// RemainingAmount is totalFee minus paid and discount, floored at zero.
func RemainingAmount(totalFee int64, paid, discount string) string {
	remaining := decimal.NewFromInt(totalFee).
		Sub(models.ParseAmount(paid)).
		Sub(models.ParseAmount(discount))
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	return remaining.String()
}
