// Package sheets talks to the spreadsheet web-hook that is the system of
// record for confirmed registrations.
package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	apperrors "form-digitizer/internal/common/errors"
	httpclient "form-digitizer/internal/common/http"
	"form-digitizer/internal/common/logger"
	"form-digitizer/internal/common/metrics"
	"form-digitizer/internal/common/observability"
	"form-digitizer/internal/models"
)

var ErrNotArray = errors.New("remote table is not a JSON array")

type Dependencies struct {
	Logger        logger.Logger
	HTTPClient    *httpclient.Client
	Observability *observability.Observability
}

type Client struct {
	config *Config
	http   *httpclient.Client
	logger logger.Logger
	obs    *observability.Observability
}

func NewClient(cfg *Config, deps Dependencies) *Client {
	if cfg == nil {
		cfg = &Config{}
	}
	hc := deps.HTTPClient
	if hc == nil {
		hc = httpclient.NewClient(cfg.Timeout)
	}
	log := deps.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Client{
		config: cfg,
		http:   hc,
		logger: log.WithFields(map[string]interface{}{"component": "sheets"}),
		obs:    deps.Observability,
	}
}

func (c *Client) Configured() bool {
	return c.config.Configured()
}

// Push dispatches one registration. It returns true once the request was
// sent: the web-hook's status and body are not inspected, so true means
// dispatched, not stored.
func (c *Client) Push(ctx context.Context, data models.RegistrationData) bool {
	if !c.Configured() {
		c.logger.Warn("sheet sync skipped: web-hook url not configured", nil)
		metrics.SyncPushes.WithLabelValues("unconfigured").Inc()
		return false
	}

	start := time.Now()
	resp, err := c.http.PostJSON(ctx, c.config.WebAppURL, data, nil)
	if err != nil {
		c.logger.Error("sheet sync dispatch failed", map[string]interface{}{
			"error":       err.Error(),
			"admissionId": data.AdmissionID,
		})
		metrics.SyncPushes.WithLabelValues("failed").Inc()
		c.obs.Record(ctx, observability.OpPush, "error", time.Since(start))
		return false
	}
	httpclient.DrainAndClose(resp)

	metrics.SyncPushes.WithLabelValues("dispatched").Inc()
	c.obs.Record(ctx, observability.OpPush, "success", time.Since(start))
	c.logger.Info("sheet sync dispatched", map[string]interface{}{
		"admissionId": data.AdmissionID,
		"duration":    time.Since(start).String(),
	})
	return true
}

// PullAll reads every row of the remote table. An unconfigured endpoint
// yields no rows and no error; any other failure is SYNC_READ_FAILED.
func (c *Client) PullAll(ctx context.Context) ([]map[string]interface{}, error) {
	if !c.Configured() {
		return []map[string]interface{}{}, nil
	}

	start := time.Now()
	rows, err := c.pull(ctx)
	if err != nil {
		c.logger.Warn("remote table pull failed", map[string]interface{}{"error": err.Error()})
		metrics.DashboardPulls.WithLabelValues("failed").Inc()
		c.obs.Record(ctx, observability.OpPull, "error", time.Since(start))
		return nil, apperrors.NewSyncReadFailedError(err)
	}

	metrics.DashboardPulls.WithLabelValues("ok").Inc()
	c.obs.Record(ctx, observability.OpPull, "success", time.Since(start))
	c.logger.Debug("remote table pulled", map[string]interface{}{
		"rows":     len(rows),
		"duration": time.Since(start).String(),
	})
	return rows, nil
}

func (c *Client) pull(ctx context.Context) ([]map[string]interface{}, error) {
	resp, err := c.http.Get(ctx, c.config.WebAppURL)
	if err != nil {
		return nil, fmt.Errorf("get remote table: %w", err)
	}
	defer httpclient.DrainAndClose(resp)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("remote table status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read remote table: %w", err)
	}

	var decoded interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("decode remote table: %w", err)
	}

	items, ok := decoded.([]interface{})
	if !ok {
		if obj, isObj := decoded.(map[string]interface{}); isObj {
			if msg, has := obj["error"]; has {
				return nil, fmt.Errorf("%w: %v", ErrNotArray, msg)
			}
		}
		return nil, ErrNotArray
	}

	rows := make([]map[string]interface{}, 0, len(items))
	for _, item := range items {
		if row, ok := item.(map[string]interface{}); ok {
			rows = append(rows, row)
		}
	}
	return rows, nil
}
