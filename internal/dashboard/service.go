package dashboard

import (
	"context"
	"errors"
	"time"

	"form-digitizer/internal/common/logger"
	"form-digitizer/internal/common/storage"
	"form-digitizer/internal/models"
)

// ReadFailedWarning is shown when the remote table could not be loaded.
const ReadFailedWarning = "Could not load spreadsheet data. Showing locally synced records only."

// Puller reads the remote table.
type Puller interface {
	PullAll(ctx context.Context) ([]map[string]interface{}, error)
}

// LocalRecords lists the local records.
type LocalRecords interface {
	ListAll() []models.ProcessingRecord
}

type Config struct {
	// CacheTTL reuses the last remote pull; 0 always pulls.
	CacheTTL time.Duration
}

type Dependencies struct {
	Local  LocalRecords
	Remote Puller
	KV     storage.KV
	Logger logger.Logger
}

// View is one refresh of the dashboard.
type View struct {
	Records     []models.RegistrationData `json:"records"`
	Stats       Stats                     `json:"stats"`
	RemoteRows  int                       `json:"remoteRows"`
	LocalSynced int                       `json:"localSynced"`
	Cached      bool                      `json:"cached"`
	Warning     string                    `json:"warning,omitempty"`
	RefreshedAt time.Time                 `json:"refreshedAt"`
}

type Service struct {
	config *Config
	local  LocalRecords
	remote Puller
	kv     storage.KV
	logger logger.Logger
}

func NewService(deps Dependencies, cfg *Config) *Service {
	if cfg == nil {
		cfg = &Config{}
	}
	log := deps.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Service{
		config: cfg,
		local:  deps.Local,
		remote: deps.Remote,
		kv:     deps.KV,
		logger: log.WithFields(map[string]interface{}{"component": "dashboard"}),
	}
}

// Refresh pulls the remote table, merges it with synced local records and
// computes statistics. A failed pull degrades to the local view with a
// warning instead of an error. force skips the remote cache.
func (s *Service) Refresh(ctx context.Context, force bool) View {
	local := s.local.ListAll()
	view := View{RefreshedAt: time.Now().UTC()}

	rows, cached, err := s.remoteRows(ctx, force)
	if err != nil {
		s.logger.Warn("dashboard using local data only", map[string]interface{}{"error": err.Error()})
		view.Warning = ReadFailedWarning
		rows = nil
	}
	view.Cached = cached
	view.RemoteRows = len(rows)

	for _, r := range local {
		if r.SyncStatus == models.SyncSynced && r.Data != nil {
			view.LocalSynced++
		}
	}

	view.Records = Merge(NormalizeRows(rows), local)
	view.Stats = ComputeStats(view.Records)
	return view
}

func (s *Service) remoteRows(ctx context.Context, force bool) ([]map[string]interface{}, bool, error) {
	useCache := s.kv != nil && s.config.CacheTTL > 0

	if useCache && !force {
		var rows []map[string]interface{}
		err := storage.GetJSON(ctx, s.kv, storage.KeyDashboardRemote, &rows)
		if err == nil {
			return rows, true, nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Debug("ignoring unreadable dashboard cache", map[string]interface{}{"error": err.Error()})
		}
	}

	rows, err := s.remote.PullAll(ctx)
	if err != nil {
		return nil, false, err
	}

	if useCache {
		if err := storage.SetJSON(ctx, s.kv, storage.KeyDashboardRemote, rows, s.config.CacheTTL); err != nil {
			s.logger.Warn("failed to cache remote table", map[string]interface{}{"error": err.Error()})
		}
	}
	return rows, false, nil
}
