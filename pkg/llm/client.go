// Package llm provides the completion-service client and the wire
// representations of its chat API.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/govorun-ai/govorun/pkg/chat"
)

// Defaults for the completion service.
const (
	DefaultBaseURL   = "https://api.openai.com/v1"
	DefaultModel     = "gpt-4o-mini"
	DefaultMaxTokens = 200

	// Completions can be slow, give them room
	defaultTimeout = 2 * time.Minute
)

// SystemPrompt pins the assistant persona: brief answers, in Russian,
// sized for speech synthesis rather than reading.
const SystemPrompt = "Ты — голосовой помощник по имени Говорун. " +
	"Отвечай кратко, не больше пятидесяти слов, простыми фразами, " +
	"которые удобно произнести вслух. Отвечай только по-русски."

// Apology replaces the answer when the completion service fails. It flows
// through the rest of the pipeline exactly like a normal reply.
const Apology = "Извините, у меня сейчас не получается ответить. " +
	"Попробуйте, пожалуйста, ещё раз."

// Config holds the completion client settings.
type Config struct {
	// BaseURL is the endpoint root, e.g. "https://api.openai.com/v1"
	BaseURL string

	// APIKey authorizes requests.
	APIKey string

	// Model is the completion model name.
	Model string

	// MaxTokens bounds the generated reply.
	MaxTokens int

	// Timeout bounds a single completion request.
	Timeout time.Duration
}

// Client calls the completion service. From the caller's point of view
// Complete cannot fail: any transport or protocol error collapses into the
// fixed Apology text, so the voice pipeline always has something to say.
type Client struct {
	config     Config
	logger     *zap.Logger
	httpClient *http.Client
}

// NewClient creates a completion client, filling unset config fields with
// the service defaults.
func NewClient(config Config, logger *zap.Logger) *Client {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.Model == "" {
		config.Model = DefaultModel
	}
	if config.MaxTokens <= 0 {
		config.MaxTokens = DefaultMaxTokens
	}
	if config.Timeout <= 0 {
		config.Timeout = defaultTimeout
	}

	return &Client{
		config: config,
		logger: logger,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// Complete asks the model for the next reply given the conversation so
// far. The returned text is never empty.
func (c *Client) Complete(ctx context.Context, history []chat.Turn, userText string) string {
	messages := make([]chat.Turn, 0, len(history)+2)
	messages = append(messages, chat.Turn{Role: chat.RoleSystem, Content: SystemPrompt})
	messages = append(messages, history...)
	messages = append(messages, chat.Turn{Role: chat.RoleUser, Content: userText})

	req := ChatRequest{
		Model:     c.config.Model,
		Messages:  messages,
		MaxTokens: c.config.MaxTokens,
	}

	startTime := time.Now()
	resp, err := c.send(ctx, &req)
	if err != nil {
		c.logger.Warn("completion failed, answering with apology", zap.Error(err))
		return Apology
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		c.logger.Warn("completion returned empty content, answering with apology",
			zap.String("finish_reason", resp.Choices[0].FinishReason),
		)
		return Apology
	}

	c.logger.Debug("completion succeeded",
		zap.String("model", resp.Model),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.Duration("duration", time.Since(startTime)),
	)

	return text
}

// send performs one chat completion round trip.
func (c *Client) send(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := c.config.BaseURL + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		var apiErr errorResponse
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Message != "" {
			return nil, fmt.Errorf("completion service returned %d: %s", httpResp.StatusCode, apiErr.Error.Message)
		}
		return nil, fmt.Errorf("completion service returned %d: %s", httpResp.StatusCode, string(respBody))
	}

	var resp ChatResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("completion response has no choices")
	}

	return &resp, nil
}
