// internal/models/record.go
package models

// Status is the extraction lifecycle of a record.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

// Source tells how a record entered the system. It never changes.
type Source string

const (
	SourceOCR    Source = "ocr"
	SourceManual Source = "manual"
)

// SyncStatus is the spreadsheet push lifecycle of a record.
type SyncStatus string

const (
	SyncIdle    SyncStatus = "idle"
	SyncSyncing SyncStatus = "syncing"
	SyncSynced  SyncStatus = "synced"
	SyncFailed  SyncStatus = "failed"
)

// ProcessingRecord is one unit of local work, owned by the record store.
type ProcessingRecord struct {
	ID         string            `json:"id"`
	Timestamp  int64             `json:"timestamp"`
	FileName   string            `json:"fileName"`
	ImageURL   string            `json:"imageUrl"`
	Data       *RegistrationData `json:"data"`
	Status     Status            `json:"status"`
	Source     Source            `json:"source"`
	SyncStatus SyncStatus        `json:"syncStatus"`
	Error      string            `json:"error,omitempty"`
	SyncedAt   int64             `json:"syncedAt,omitempty"`
}

// Clone returns a deep copy so callers never share Data with the store.
func (r ProcessingRecord) Clone() ProcessingRecord {
	if r.Data != nil {
		d := *r.Data
		r.Data = &d
	}
	return r
}

// IsTerminal reports whether extraction has settled.
func (r ProcessingRecord) IsTerminal() bool {
	return r.Status == StatusCompleted || r.Status == StatusError
}

// CanSync reports whether a push may start from the current state.
func (r ProcessingRecord) CanSync() bool {
	if r.Data == nil || r.Status != StatusCompleted {
		return false
	}
	return CanTransitionSync(r.SyncStatus, SyncSyncing)
}

var statusTransitions = map[Status][]Status{
	StatusPending:    {StatusProcessing},
	StatusProcessing: {StatusCompleted, StatusError},
}

// CanTransition reports whether status may move from -> to. Terminal states
// have no outgoing transitions.
func CanTransition(from, to Status) bool {
	for _, s := range statusTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

var syncTransitions = map[SyncStatus][]SyncStatus{
	SyncIdle:    {SyncSyncing},
	SyncSyncing: {SyncSynced, SyncFailed},
	SyncFailed:  {SyncSyncing},
}

// CanTransitionSync reports whether syncStatus may move from -> to. A synced
// record has to be edited (reset to idle) before it can be pushed again.
func CanTransitionSync(from, to SyncStatus) bool {
	for _, s := range syncTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
