// Package assistant orchestrates one voice-assistant exchange: recognize
// the query, answer it, and speak the answer.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/govorun-ai/govorun/pkg/cache"
	"github.com/govorun-ai/govorun/pkg/chat"
)

// CouldNotHear is spoken when transcription is unavailable or hears
// nothing usable. It bypasses completion entirely and is never cached or
// remembered.
const CouldNotHear = "Извините, я не смог вас услышать. Повторите, пожалуйста, ещё раз."

// Transcriber recognizes recorded speech. An error or empty transcript
// both mean the assistant could not hear the user.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// Completer produces the next reply for a conversation. Implementations
// must always return usable text, absorbing their failures internally.
type Completer interface {
	Complete(ctx context.Context, history []chat.Turn, userText string) string
}

// Synthesizer renders text as MP3 audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Assistant runs the transcription -> cache -> completion -> synthesis
// pipeline over the shared conversation state. Every inbound request gets
// its own invocation of Respond; memory and cache are the only state the
// invocations share.
type Assistant struct {
	transcriber Transcriber
	completer   Completer
	synthesizer Synthesizer
	memory      *chat.Memory
	responses   *cache.Cache
	logger      *zap.Logger
}

// New assembles the pipeline around the shared memory and response cache.
func New(transcriber Transcriber, completer Completer, synthesizer Synthesizer, memory *chat.Memory, responses *cache.Cache, logger *zap.Logger) *Assistant {
	return &Assistant{
		transcriber: transcriber,
		completer:   completer,
		synthesizer: synthesizer,
		memory:      memory,
		responses:   responses,
		logger:      logger,
	}
}

// Respond runs one query through the full pipeline and returns the spoken
// reply. An error means synthesis failed and there is nothing to play;
// every other failure turns into a spoken fallback instead.
func (a *Assistant) Respond(ctx context.Context, query Query) (*Reply, error) {
	startTime := time.Now()

	id := query.ID
	if id == "" {
		id = uuid.NewString()
	}
	log := a.logger.With(zap.String("request_id", id))

	prompt := strings.TrimSpace(query.Text)

	if query.AudioPath != "" {
		transcript, err := a.transcriber.Transcribe(ctx, query.AudioPath)
		if err != nil {
			log.Warn("transcription failed, using fallback", zap.Error(err))
			return a.speakFallback(ctx, log)
		}
		prompt = strings.TrimSpace(transcript)
		if prompt == "" {
			log.Warn("transcription heard nothing, using fallback")
			return a.speakFallback(ctx, log)
		}
		log.Debug("transcribed query", zap.String("text", truncate(prompt, 100)))
	}

	if prompt == "" {
		return nil, errors.New("empty query")
	}

	// The raw prompt is the cache key, no normalization
	if text, ok := a.responses.Lookup(prompt); ok {
		audio, err := a.speak(ctx, text)
		if err != nil {
			return nil, err
		}
		log.Info("answered from cache",
			zap.String("prompt", truncate(prompt, 50)),
			zap.Int("audio_bytes", len(audio)),
			zap.Duration("duration", time.Since(startTime)),
		)
		return &Reply{Text: text, Audio: audio, Cached: true, Heard: true}, nil
	}

	answer := a.completer.Complete(ctx, a.memory.Snapshot(), prompt)

	// Whatever came back is the answer, apologies included: cache it and
	// remember the exchange before speaking
	a.responses.Store(prompt, answer)
	a.memory.Append(
		chat.Turn{Role: chat.RoleUser, Content: prompt},
		chat.Turn{Role: chat.RoleAssistant, Content: answer},
	)

	audio, err := a.speak(ctx, answer)
	if err != nil {
		return nil, err
	}

	log.Info("query answered",
		zap.String("prompt", truncate(prompt, 50)),
		zap.String("answer", truncate(answer, 50)),
		zap.Int("audio_bytes", len(audio)),
		zap.Duration("duration", time.Since(startTime)),
	)

	return &Reply{Text: answer, Audio: audio, Heard: true}, nil
}

// History returns the shared conversation as it currently stands.
func (a *Assistant) History() []chat.Turn {
	return a.memory.Snapshot()
}

// CachedCount reports how many responses the cache holds.
func (a *Assistant) CachedCount() int {
	return a.responses.Len()
}

// Voice reports the synthesizer's current voice, when it has one.
func (a *Assistant) Voice() string {
	if v, ok := a.synthesizer.(interface{ Voice() string }); ok {
		return v.Voice()
	}
	return ""
}

// speakFallback speaks the could-not-hear answer. Nothing about the
// failed query reaches the completion service, the cache or the memory.
func (a *Assistant) speakFallback(ctx context.Context, log *zap.Logger) (*Reply, error) {
	audio, err := a.speak(ctx, CouldNotHear)
	if err != nil {
		return nil, err
	}
	log.Info("answered with could-not-hear fallback", zap.Int("audio_bytes", len(audio)))
	return &Reply{Text: CouldNotHear, Audio: audio}, nil
}

// speak renders reply text as audio. A synthesis error fails the whole
// request.
func (a *Assistant) speak(ctx context.Context, text string) ([]byte, error) {
	audio, err := a.synthesizer.Synthesize(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("synthesize reply: %w", err)
	}
	return audio, nil
}

// truncate shortens log previews without splitting a Cyrillic rune.
func truncate(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}

