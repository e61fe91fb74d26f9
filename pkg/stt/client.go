// Package stt transcribes recorded speech through an OpenAI-compatible
// transcription endpoint.
package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Defaults for the transcription service.
const (
	DefaultBaseURL  = "https://api.openai.com/v1"
	DefaultModel    = "whisper-1"
	DefaultLanguage = "ru"

	defaultTimeout = 60 * time.Second
)

// ErrUnavailable reports that transcription is disabled because no API key
// is configured. Callers treat this as "could not hear", not as a crash.
var ErrUnavailable = errors.New("transcription service unavailable: no API key configured")

// Config holds the transcription client settings.
type Config struct {
	// BaseURL is the endpoint root, e.g. "https://api.openai.com/v1"
	BaseURL string

	// APIKey authorizes requests. An empty key leaves the client
	// permanently unavailable.
	APIKey string

	// Model is the transcription model name.
	Model string

	// Language is the ISO 639-1 hint passed to the service.
	Language string

	// Timeout bounds a single transcription request.
	Timeout time.Duration
}

// Client calls the speech-to-text service. A Client built without an API
// key is still valid: every Transcribe call reports ErrUnavailable and the
// pipeline falls back to its could-not-hear response.
type Client struct {
	config     Config
	httpClient *http.Client
}

// NewClient creates a transcription client, filling unset config fields
// with the service defaults.
func NewClient(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.Model == "" {
		config.Model = DefaultModel
	}
	if config.Language == "" {
		config.Language = DefaultLanguage
	}
	if config.Timeout <= 0 {
		config.Timeout = defaultTimeout
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// Available reports whether the client has credentials to reach the service.
func (c *Client) Available() bool {
	return c.config.APIKey != ""
}

// transcriptionResponse is the JSON body returned by the service.
type transcriptionResponse struct {
	Text string `json:"text"`
}

// Transcribe uploads the audio file and returns the recognized text. The
// text may legitimately be empty when the service hears nothing usable.
func (c *Client) Transcribe(ctx context.Context, audioPath string) (string, error) {
	if !c.Available() {
		return "", ErrUnavailable
	}

	file, err := os.Open(audioPath)
	if err != nil {
		return "", fmt.Errorf("open audio file: %w", err)
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("read audio file: %w", err)
	}
	if err := writer.WriteField("model", c.config.Model); err != nil {
		return "", fmt.Errorf("write model field: %w", err)
	}
	if err := writer.WriteField("language", c.config.Language); err != nil {
		return "", fmt.Errorf("write language field: %w", err)
	}
	if err := writer.WriteField("response_format", "json"); err != nil {
		return "", fmt.Errorf("write response_format field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close multipart writer: %w", err)
	}

	url := c.config.BaseURL + "/audio/transcriptions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcription request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("transcription service returned %d: %s", resp.StatusCode, string(body))
	}

	var tr transcriptionResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("decode transcription response: %w", err)
	}

	return tr.Text, nil
}
