package extraction

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"form-digitizer/internal/common/config"
	apperrors "form-digitizer/internal/common/errors"
	"form-digitizer/internal/common/logger"
	"form-digitizer/pkg/fields"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig(baseURL string) *Config {
	cfg := DefaultConfig()
	cfg.BaseURL = baseURL
	cfg.APIKey = "test-key"
	cfg.Model = "test-model"
	return cfg
}

func fullDocument(overrides map[string]string) string {
	doc := make(map[string]string, len(fields.Names))
	for _, n := range fields.Names {
		doc[n] = ""
	}
	for k, v := range overrides {
		doc[k] = v
	}
	raw, _ := json.Marshal(doc)
	return string(raw)
}

func candidateResponse(text string) string {
	resp := map[string]interface{}{
		"candidates": []interface{}{
			map[string]interface{}{
				"content": map[string]interface{}{
					"role":  "model",
					"parts": []interface{}{map[string]interface{}{"text": text}},
				},
				"finishReason": "STOP",
			},
		},
	}
	raw, _ := json.Marshal(resp)
	return string(raw)
}

func pngDataURI(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func newTestClient(t *testing.T, server *httptest.Server) *Client {
	return NewClient(createTestConfig(server.URL), Dependencies{Logger: logger.NewTestLogger(t)})
}

// ==========================
// Core Functionality Tests
// ==========================

func TestExtract_Success(t *testing.T) {
	var captured generateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/models/test-model:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &captured))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(candidateResponse(fullDocument(map[string]string{
			fields.AdmissionID: "EHA-3HC-042",
			fields.Name:        "Asha",
			fields.UTR:         "CHECK_MANUALLY",
		}))))
	}))
	defer server.Close()

	data, err := newTestClient(t, server).Extract(context.Background(), pngDataURI(t, 40, 20))
	require.NoError(t, err)

	assert.Equal(t, "EHA-3HC-042", data.AdmissionID)
	assert.Equal(t, "Asha", data.Name)
	assert.Equal(t, "", data.Gender)
	assert.Equal(t, []string{fields.UTR}, data.CheckManuallyFields())

	require.Len(t, captured.Contents, 1)
	parts := captured.Contents[0].Parts
	require.Len(t, parts, 2)
	require.NotNil(t, parts[0].InlineData)
	assert.Equal(t, "image/jpeg", parts[0].InlineData.MimeType)
	assert.Equal(t, userInstruction, parts[1].Text)
	assert.Contains(t, captured.SystemInstruction.Parts[0].Text, "CHECK_MANUALLY")
	assert.Equal(t, "application/json", captured.GenerationConfig.ResponseMimeType)
	assert.Equal(t, fields.Names, captured.GenerationConfig.ResponseSchema.Required)
	assert.Len(t, captured.GenerationConfig.ResponseSchema.Properties, len(fields.Names))
}

func TestExtract_AcceptsFencedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(candidateResponse("```json\n" + fullDocument(map[string]string{fields.Name: "Ravi"}) + "\n```")))
	}))
	defer server.Close()

	data, err := newTestClient(t, server).Extract(context.Background(), "aGVsbG8=")
	require.NoError(t, err)
	assert.Equal(t, "Ravi", data.Name)
}

// ==========================
// Error Handling Tests
// ==========================

func TestExtract_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{
			name:    "server error",
			status:  http.StatusInternalServerError,
			body:    `{"error":{"code":500,"message":"backend unavailable","status":"INTERNAL"}}`,
			wantErr: "backend unavailable",
		},
		{
			name:    "rate limited without body",
			status:  http.StatusTooManyRequests,
			body:    ``,
			wantErr: "status 429",
		},
		{
			name:    "no candidates",
			status:  http.StatusOK,
			body:    `{"candidates":[]}`,
			wantErr: "no candidates",
		},
		{
			name:    "blocked prompt",
			status:  http.StatusOK,
			body:    `{"promptFeedback":{"blockReason":"SAFETY"}}`,
			wantErr: "SAFETY",
		},
		{
			name:    "candidate text is not json",
			status:  http.StatusOK,
			body:    candidateResponse("I could not read the form"),
			wantErr: "invalid document",
		},
		{
			name:    "candidate misses a field",
			status:  http.StatusOK,
			body:    candidateResponse(`{"name":"Asha"}`),
			wantErr: "invalid document",
		},
		{
			name:    "response is not json",
			status:  http.StatusOK,
			body:    `<html>`,
			wantErr: "decode response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			data, err := newTestClient(t, server).Extract(context.Background(), "aGVsbG8=")
			require.Error(t, err)
			assert.Nil(t, data)

			stdErr, ok := apperrors.AsStandard(err)
			require.True(t, ok)
			assert.Equal(t, apperrors.ErrCodeExtractionFailed, stdErr.Code)
			assert.Equal(t, apperrors.ExtractionFailedMessage, stdErr.Message)
			assert.False(t, stdErr.Retryable)
			assert.Contains(t, stdErr.Details, tt.wantErr)
		})
	}
}

func TestExtract_MissingAPIKey(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	cfg := createTestConfig(server.URL)
	cfg.APIKey = ""
	_, err := NewClient(cfg, Dependencies{Logger: logger.NewTestLogger(t)}).Extract(context.Background(), "aGVsbG8=")

	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeExtractionFailed))
	assert.False(t, called)
}

func TestExtract_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := NewClient(createTestConfig(url), Dependencies{Logger: logger.NewTestLogger(t)}).Extract(context.Background(), "aGVsbG8=")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeExtractionFailed))
}

// ==========================
// Image Preparation Tests
// ==========================

func TestPrepareImage_DownscalesAndReencodes(t *testing.T) {
	out := prepareImage(pngDataURI(t, 4000, 1000), 2048, 85)

	raw, err := base64.StdEncoding.DecodeString(out)
	require.NoError(t, err)
	img, format, err := image.Decode(bytes.NewReader(raw))
	require.NoError(t, err)

	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 2048, img.Bounds().Dx())
	assert.Equal(t, 512, img.Bounds().Dy())
}

func TestPrepareImage_KeepsSmallImageSize(t *testing.T) {
	out := prepareImage(pngDataURI(t, 300, 200), 2048, 85)

	raw, err := base64.StdEncoding.DecodeString(out)
	require.NoError(t, err)
	img, err := imaging.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, 300, img.Bounds().Dx())
}

func TestPrepareImage_PassesThroughUndecodable(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bare base64 of text", "aGVsbG8=", "aGVsbG8="},
		{"data uri of text", "data:image/jpeg;base64,aGVsbG8=", "aGVsbG8="},
		{"not base64", "data:image/jpeg;base64,%%%", "%%%"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, prepareImage(tt.input, 2048, 90))
		})
	}
}

func TestConfigFrom_KeepsDefaults(t *testing.T) {
	cfg := ConfigFrom(config.ExtractionConfig{})
	assert.Equal(t, "gemini-3-flash-preview", cfg.Model)
	assert.Equal(t, 2048, cfg.MaxImageEdge)
	assert.Zero(t, cfg.Timeout)
}
