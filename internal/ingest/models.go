package ingest

import (
	"context"

	"form-digitizer/internal/models"
)

// Extractor reads registration fields out of an image.
type Extractor interface {
	Extract(ctx context.Context, image string) (*models.RegistrationData, error)
}

// Pusher dispatches a confirmed registration to the spreadsheet.
type Pusher interface {
	Push(ctx context.Context, data models.RegistrationData) bool
	Configured() bool
}

// Upload is one file handed to IngestFiles.
type Upload struct {
	FileName string
	// DataURI is the image as "data:<mime>;base64,<payload>".
	DataURI string
}

// SyncSummary counts the outcome of SyncAll.
type SyncSummary struct {
	Attempted int      `json:"attempted"`
	Synced    int      `json:"synced"`
	Failed    int      `json:"failed"`
	FailedIDs []string `json:"failedIds,omitempty"`
}
