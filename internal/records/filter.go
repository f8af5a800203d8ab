package records

import (
	"strings"

	"form-digitizer/internal/models"
)

// Filter narrows a listing. Zero fields match everything.
type Filter struct {
	Query      string
	Status     models.Status
	SyncStatus models.SyncStatus
	Source     models.Source
}

// Match reports whether r passes every set criterion. Query matches
// case-insensitively against name, admission id, contact number and file name.
func (f Filter) Match(r models.ProcessingRecord) bool {
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	if f.SyncStatus != "" && r.SyncStatus != f.SyncStatus {
		return false
	}
	if f.Source != "" && r.Source != f.Source {
		return false
	}

	q := strings.ToLower(strings.TrimSpace(f.Query))
	if q == "" {
		return true
	}
	haystack := []string{r.FileName}
	if r.Data != nil {
		haystack = append(haystack, r.Data.Name, r.Data.AdmissionID, r.Data.ContactNo)
	}
	for _, h := range haystack {
		if strings.Contains(strings.ToLower(h), q) {
			return true
		}
	}
	return false
}

// List returns copies of the records matching f, head first.
func (s *Store) List(f Filter) []models.ProcessingRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.ProcessingRecord, 0, len(s.records))
	for _, r := range s.records {
		if f.Match(r) {
			out = append(out, r.Clone())
		}
	}
	return out
}
