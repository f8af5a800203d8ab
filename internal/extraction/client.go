// Package extraction turns a photographed registration form into
// RegistrationData through the Gemini generateContent API.
package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	apperrors "form-digitizer/internal/common/errors"
	httpclient "form-digitizer/internal/common/http"
	"form-digitizer/internal/common/logger"
	"form-digitizer/internal/common/observability"
	"form-digitizer/internal/common/validation"
	"form-digitizer/internal/models"
)

var (
	ErrNotConfigured  = errors.New("extraction api key is not configured")
	ErrEmptyResponse  = errors.New("extraction returned no candidates")
	ErrInvalidPayload = errors.New("extraction returned an invalid document")
)

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
		cfg = DefaultConfig()
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
		logger: log.WithFields(map[string]interface{}{"component": "extraction", "model": cfg.Model}),
		obs:    deps.Observability,
	}
}

// Extract sends one image (data URI or bare base64) and returns the fields
// read from it. Every failure is an EXTRACTION_FAILED StandardError.
func (c *Client) Extract(ctx context.Context, image string) (*models.RegistrationData, error) {
	start := time.Now()
	data, err := c.extract(ctx, image)

	status := "success"
	if err != nil {
		status = "error"
		c.logger.Error("extraction failed", map[string]interface{}{
			"error":    err.Error(),
			"duration": time.Since(start).String(),
		})
		c.obs.Record(ctx, observability.OpExtract, status, time.Since(start))
		return nil, apperrors.NewExtractionFailedError(err.Error())
	}

	c.obs.Record(ctx, observability.OpExtract, status, time.Since(start))
	c.logger.Info("extraction completed", map[string]interface{}{
		"duration":      time.Since(start).String(),
		"checkManually": data.CheckManuallyFields(),
	})
	return data, nil
}

func (c *Client) extract(ctx context.Context, image string) (*models.RegistrationData, error) {
	if c.config.APIKey == "" {
		return nil, ErrNotConfigured
	}

	body := buildRequest(prepareImage(image, c.config.MaxImageEdge, c.config.JPEGQuality))
	url := fmt.Sprintf("%s/models/%s:generateContent", strings.TrimRight(c.config.BaseURL, "/"), c.config.Model)

	resp, err := c.http.PostJSON(ctx, url, body, map[string]string{"x-goog-api-key": c.config.APIKey})
	if err != nil {
		return nil, fmt.Errorf("call generateContent: %w", err)
	}
	defer httpclient.DrainAndClose(resp)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		var apiErr apiError
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error.Message != "" {
			return nil, fmt.Errorf("generateContent status %d: %s", resp.StatusCode, apiErr.Error.Message)
		}
		return nil, fmt.Errorf("generateContent status %d", resp.StatusCode)
	}

	var out generateResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	text := responseText(out)
	if text == "" {
		if out.PromptFeedback != nil && out.PromptFeedback.BlockReason != "" {
			return nil, fmt.Errorf("%w: blocked (%s)", ErrEmptyResponse, out.PromptFeedback.BlockReason)
		}
		return nil, ErrEmptyResponse
	}

	return parseDocument(text)
}

func responseText(out generateResponse) string {
	if len(out.Candidates) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, p := range out.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return strings.TrimSpace(sb.String())
}

// parseDocument validates the model's JSON text and decodes it.
func parseDocument(text string) (*models.RegistrationData, error) {
	text = stripCodeFence(text)

	res := validation.ValidateRegistrationJSON([]byte(text))
	if !res.Valid {
		msgs := make([]string, 0, len(res.Errors))
		for _, e := range res.Errors {
			msgs = append(msgs, e.Field+": "+e.Message)
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidPayload, strings.Join(msgs, "; "))
	}

	var data models.RegistrationData
	if err := json.Unmarshal([]byte(text), &data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return &data, nil
}

// stripCodeFence removes a ```json ... ``` wrapper some model versions add.
func stripCodeFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimPrefix(text, "json")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
