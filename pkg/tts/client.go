// Package tts renders assistant replies as MP3 audio through the Google
// Cloud Text-to-Speech service.
package tts

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"google.golang.org/api/option"
)

// Speech parameters shared by every request. The voice can change at
// runtime; the language and audio shape cannot.
const (
	DefaultVoice = "ru-RU-Wavenet-C"

	languageCode    = "ru-RU"
	sampleRateHertz = 24000

	defaultTimeout = 30 * time.Second
)

// Config holds the synthesis client settings.
type Config struct {
	// Voice is the Google voice name, e.g. "ru-RU-Wavenet-C".
	Voice string

	// CredentialsFile points at a service-account JSON file. Empty falls
	// back to Application Default Credentials.
	CredentialsFile string

	// Timeout bounds a single synthesis request.
	Timeout time.Duration
}

// Client wraps the Cloud Text-to-Speech API. Synthesis is the one adapter
// the pipeline cannot talk around: when it fails, the request fails.
type Client struct {
	speech  *texttospeech.Client
	timeout time.Duration

	mu    sync.RWMutex
	voice string
}

// NewClient dials the Text-to-Speech service.
func NewClient(ctx context.Context, config Config) (*Client, error) {
	var opts []option.ClientOption
	if config.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(config.CredentialsFile))
	}

	speech, err := texttospeech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create text-to-speech client: %w", err)
	}

	voice := config.Voice
	if voice == "" {
		voice = DefaultVoice
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		speech:  speech,
		timeout: timeout,
		voice:   voice,
	}, nil
}

// Voice returns the voice name currently used for synthesis.
func (c *Client) Voice() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.voice
}

// SetVoice switches the voice for subsequent requests. An empty name
// falls back to DefaultVoice. In-flight requests keep the voice they
// started with.
func (c *Client) SetVoice(voice string) {
	if voice == "" {
		voice = DefaultVoice
	}
	c.mu.Lock()
	c.voice = voice
	c.mu.Unlock()
}

// Synthesize renders the text as MP3 bytes.
func (c *Client) Synthesize(ctx context.Context, text string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.speech.SynthesizeSpeech(ctx, c.newSpeechRequest(text))
	if err != nil {
		return nil, fmt.Errorf("synthesize speech: %w", err)
	}
	if len(resp.AudioContent) == 0 {
		return nil, errors.New("synthesis returned no audio payload")
	}

	return resp.AudioContent, nil
}

// newSpeechRequest builds the wire request for one piece of text.
func (c *Client) newSpeechRequest(text string) *texttospeechpb.SynthesizeSpeechRequest {
	return &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: text},
		},
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: languageCode,
			Name:         c.Voice(),
		},
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding:   texttospeechpb.AudioEncoding_MP3,
			SampleRateHertz: sampleRateHertz,
		},
	}
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	return c.speech.Close()
}
