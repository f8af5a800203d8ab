package dashboard

import (
	"sort"
	"strings"
	"time"

	"form-digitizer/internal/models"
)

// Merge combines remote rows with locally synced records. Rows are keyed by
// trimmed admission id and the remote copy wins; rows without an id are all
// kept. The result is sorted newest date first.
func Merge(remote []models.RegistrationData, local []models.ProcessingRecord) []models.RegistrationData {
	out := make([]models.RegistrationData, 0, len(remote)+len(local))
	seen := make(map[string]bool, len(remote))

	add := func(d models.RegistrationData) {
		key := strings.TrimSpace(d.AdmissionID)
		if key != "" {
			if seen[key] {
				return
			}
			seen[key] = true
		}
		out = append(out, d)
	}

	for _, d := range remote {
		add(d)
	}
	for _, r := range local {
		if r.SyncStatus != models.SyncSynced || r.Data == nil {
			continue
		}
		add(*r.Data)
	}

	SortByDateDesc(out)
	return out
}

// SortByDateDesc orders rows by their DD/MM/YYYY date, newest first. Rows
// whose date does not parse go last; ties keep their order.
func SortByDateDesc(rows []models.RegistrationData) {
	keys := make([]int64, len(rows))
	for i, r := range rows {
		if t, ok := ParseDate(r.Date); ok {
			keys[i] = t.Unix()
		} else {
			keys[i] = minKey
		}
	}

	idx := make([]int, len(rows))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return keys[idx[a]] > keys[idx[b]]
	})

	sorted := make([]models.RegistrationData, len(rows))
	for i, j := range idx {
		sorted[i] = rows[j]
	}
	copy(rows, sorted)
}

const minKey = -1 << 62

var dateLayouts = []string{"2/1/2006", "2/1/06"}

// ParseDate reads day-first dates separated by "/", "-" or ".".
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	s = strings.NewReplacer("-", "/", ".", "/").Replace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
