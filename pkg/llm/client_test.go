package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/govorun-ai/govorun/pkg/chat"
)

// completionStub answers every chat completion request with the given text.
func completionStub(t *testing.T, text string, captured *ChatRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)

		if captured != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(captured))
		}

		resp := ChatResponse{
			Model: "stub-model",
			Choices: []Choice{{
				Message:      chat.Turn{Role: chat.RoleAssistant, Content: text},
				FinishReason: "stop",
			}},
			Usage: Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func TestCompletePrependsSystemPromptAndHistory(t *testing.T) {
	var captured ChatRequest
	server := completionStub(t, "Отлично, спасибо!", &captured)
	defer server.Close()

	client := NewClient(Config{
		BaseURL:   server.URL,
		APIKey:    "test-key",
		Model:     "test-model",
		MaxTokens: 77,
	}, zap.NewNop())

	history := []chat.Turn{
		{Role: chat.RoleUser, Content: "Привет"},
		{Role: chat.RoleAssistant, Content: "Здравствуйте!"},
	}

	got := client.Complete(context.Background(), history, "Как дела?")
	assert.Equal(t, "Отлично, спасибо!", got)

	require.Len(t, captured.Messages, 4)
	assert.Equal(t, chat.RoleSystem, captured.Messages[0].Role)
	assert.Equal(t, SystemPrompt, captured.Messages[0].Content)
	assert.Equal(t, "Привет", captured.Messages[1].Content)
	assert.Equal(t, "Здравствуйте!", captured.Messages[2].Content)
	assert.Equal(t, chat.RoleUser, captured.Messages[3].Role)
	assert.Equal(t, "Как дела?", captured.Messages[3].Content)

	assert.Equal(t, "test-model", captured.Model)
	assert.Equal(t, 77, captured.MaxTokens)
}

func TestCompleteSendsBearerAuth(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		resp := ChatResponse{Choices: []Choice{{Message: chat.Turn{Role: chat.RoleAssistant, Content: "Да."}}}}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, APIKey: "secret-key"}, zap.NewNop())
	client.Complete(context.Background(), nil, "Вопрос")

	assert.Equal(t, "Bearer secret-key", gotAuth)
}

func TestCompleteApologyOnServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": {"message": "overloaded", "type": "server_error"}}`))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, APIKey: "k"}, zap.NewNop())
	got := client.Complete(context.Background(), nil, "Привет")

	assert.Equal(t, Apology, got)
}

func TestCompleteApologyOnTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewClient(Config{BaseURL: server.URL, APIKey: "k"}, zap.NewNop())
	got := client.Complete(context.Background(), nil, "Привет")

	assert.Equal(t, Apology, got)
}

func TestCompleteApologyOnMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("definitely not json"))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, APIKey: "k"}, zap.NewNop())
	got := client.Complete(context.Background(), nil, "Привет")

	assert.Equal(t, Apology, got)
}

func TestCompleteApologyOnNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"model": "m", "choices": []}`))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, APIKey: "k"}, zap.NewNop())
	got := client.Complete(context.Background(), nil, "Привет")

	assert.Equal(t, Apology, got)
}

func TestCompleteApologyOnEmptyContent(t *testing.T) {
	server := completionStub(t, "   \n", nil)
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, APIKey: "k"}, zap.NewNop())
	got := client.Complete(context.Background(), nil, "Привет")

	assert.Equal(t, Apology, got)
}

func TestCompleteTrimsWhitespace(t *testing.T) {
	server := completionStub(t, "\n  Сегодня солнечно.  ", nil)
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, APIKey: "k"}, zap.NewNop())
	got := client.Complete(context.Background(), nil, "Какая погода?")

	assert.Equal(t, "Сегодня солнечно.", got)
}

func TestNewClientDefaults(t *testing.T) {
	client := NewClient(Config{APIKey: "k"}, zap.NewNop())

	assert.Equal(t, DefaultBaseURL, client.config.BaseURL)
	assert.Equal(t, DefaultModel, client.config.Model)
	assert.Equal(t, DefaultMaxTokens, client.config.MaxTokens)
}
