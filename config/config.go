// Package config loads the govorun configuration from a TOML file and the
// environment.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Environment variables recognized on top of the config file. Secrets and
// the voice belong to the environment; the file holds endpoints and shapes.
const (
	EnvLLMAPIKey      = "GOVORUN_LLM_API_KEY"
	EnvSTTAPIKey      = "GOVORUN_STT_API_KEY"
	EnvTTSVoice       = "GOVORUN_TTS_VOICE"
	EnvTTSCredentials = "GOOGLE_APPLICATION_CREDENTIALS"
)

// Config is the full govorun configuration. Zero values defer to the
// defaults each adapter carries for its own service.
type Config struct {
	// ListenAddr is the address the relay serves on (e.g. ":8080")
	ListenAddr string `toml:"listen_addr"`

	// UploadDir receives the per-request audio uploads. Empty means the
	// system temp directory.
	UploadDir string `toml:"upload_dir"`

	STT    STTConfig    `toml:"stt"`
	LLM    LLMConfig    `toml:"llm"`
	TTS    TTSConfig    `toml:"tts"`
	Memory MemoryConfig `toml:"memory"`
	Cache  CacheConfig  `toml:"cache"`
}

// STTConfig configures the transcription adapter. An empty api_key leaves
// transcription unavailable without stopping the server.
type STTConfig struct {
	BaseURL        string `toml:"base_url"`
	APIKey         string `toml:"api_key"`
	Model          string `toml:"model"`
	Language       string `toml:"language"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// LLMConfig configures the completion adapter.
type LLMConfig struct {
	BaseURL        string `toml:"base_url"`
	APIKey         string `toml:"api_key"`
	Model          string `toml:"model"`
	MaxTokens      int    `toml:"max_tokens"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// TTSConfig configures the synthesis adapter.
type TTSConfig struct {
	Voice           string `toml:"voice"`
	CredentialsFile string `toml:"credentials_file"`
	TimeoutSeconds  int    `toml:"timeout_seconds"`
}

// MemoryConfig bounds the shared conversation history.
type MemoryConfig struct {
	MaxPairs int `toml:"max_pairs"`
}

// CacheConfig controls the response cache.
type CacheConfig struct {
	TTLSeconds int `toml:"ttl_seconds"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		ListenAddr: ":8080",
		Memory:     MemoryConfig{MaxPairs: 10},
		Cache:      CacheConfig{TTLSeconds: 3600},
	}
}

// Load reads the TOML file at path (when non-empty) over the defaults,
// then applies the environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvSTTAPIKey); v != "" {
		cfg.STT.APIKey = v
	}
	if v := os.Getenv(EnvLLMAPIKey); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv(EnvTTSVoice); v != "" {
		cfg.TTS.Voice = v
	}
	if v := os.Getenv(EnvTTSCredentials); v != "" {
		cfg.TTS.CredentialsFile = v
	}
}

// Timeout returns the configured transcription timeout.
func (c STTConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Timeout returns the configured completion timeout.
func (c LLMConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Timeout returns the configured synthesis timeout.
func (c TTSConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// TTL returns the configured cache lifetime.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}
