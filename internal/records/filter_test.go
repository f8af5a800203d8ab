package records

import (
	"context"
	"testing"

	"form-digitizer/internal/common/logger"
	"form-digitizer/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestFilter_Match(t *testing.T) {
	rec := models.ProcessingRecord{
		ID:         "r1",
		FileName:   "scan_017.jpg",
		Status:     models.StatusCompleted,
		Source:     models.SourceOCR,
		SyncStatus: models.SyncFailed,
		Data: &models.RegistrationData{
			Name:        "Asha Verma",
			AdmissionID: "EHA-3HC-042",
			ContactNo:   "9876543210",
		},
	}

	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"empty filter", Filter{}, true},
		{"name case insensitive", Filter{Query: "asha"}, true},
		{"admission id", Filter{Query: "3hc-042"}, true},
		{"contact", Filter{Query: "98765"}, true},
		{"file name", Filter{Query: "SCAN_017"}, true},
		{"no match", Filter{Query: "ravi"}, false},
		{"status match", Filter{Status: models.StatusCompleted}, true},
		{"status mismatch", Filter{Status: models.StatusError}, false},
		{"sync status", Filter{SyncStatus: models.SyncFailed, Query: "asha"}, true},
		{"source mismatch", Filter{Source: models.SourceManual}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Match(rec))
		})
	}
}

func TestFilter_MatchesRecordsWithoutData(t *testing.T) {
	rec := models.ProcessingRecord{FileName: "pending.png", Status: models.StatusPending}
	assert.True(t, Filter{Query: "pending"}.Match(rec))
	assert.False(t, Filter{Query: "asha"}.Match(rec))
}

func TestStore_List(t *testing.T) {
	ctx := context.Background()
	s := NewStore(setupKV(t), logger.NewTestLogger(t))
	s.Add(ctx, newRecord("a", models.StatusCompleted))
	s.Add(ctx, newRecord("b", models.StatusError))
	s.Add(ctx, newRecord("c", models.StatusCompleted))

	assert.Equal(t, []string{"c", "a"}, ids(s.List(Filter{Status: models.StatusCompleted})))
	assert.Len(t, s.List(Filter{}), 3)
}
