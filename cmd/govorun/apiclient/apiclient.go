// Package apiclient is the small HTTP client the CLI commands share for
// talking to a running govorun server.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/govorun-ai/govorun/relay"
)

var httpClient = &http.Client{
	// Completion plus synthesis can take a while on a cold server
	Timeout: 2 * time.Minute,
}

// FetchReply sends a text question to the server and returns the MP3 reply.
func FetchReply(ctx context.Context, serverURL, text string) ([]byte, error) {
	serverURL = strings.TrimRight(serverURL, "/")

	body, err := json.Marshal(relay.TextRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("could not marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, serverURL+"/api/text", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(respBody))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("could not read reply: %w", err)
	}

	return audio, nil
}
