// Package relay provides the HTTP server that accepts voice and text queries
// and answers with synthesized speech.
package relay

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/govorun-ai/govorun/assistant"
	"github.com/govorun-ai/govorun/pkg/chat"
)

const (
	// Uploads over this size are rejected before they reach the pipeline.
	maxUploadBytes = 32 << 20

	// Synthesized audio is streamed back in chunks of this size.
	streamChunkSize = 32 * 1024
)

// ErrorResponse is the JSON error body returned by the voice endpoint.
type ErrorResponse struct {
	Error string `json:"error"`
}

// TextRequest is the JSON body accepted by the text endpoint.
type TextRequest struct {
	Text string `json:"text"`
}

// HistoryResponse contains the current conversation memory.
type HistoryResponse struct {
	// Count is the number of turns currently held.
	Count int `json:"count"`
	// Turns in chronological order (oldest first).
	Turns []chat.Turn `json:"turns"`
}

// StatsResponse contains a snapshot of the relay's runtime state.
type StatsResponse struct {
	Uptime string `json:"uptime"`
	Turns  int    `json:"turns"`
	Cached int    `json:"cached"`
	Voice  string `json:"voice"`
}

// Server is the inbound HTTP surface of the relay. It owns request staging
// (upload files live only for the duration of one request) and response
// framing; everything between upload and audio bytes is the assistant's job.
type Server struct {
	config    Config
	assistant *assistant.Assistant
	logger    *zap.Logger
	server    *fiber.App
	started   time.Time
}

// New creates a new Server.
func New(config Config, asst *assistant.Assistant, logger *zap.Logger) (*Server, error) {
	if config.UploadDir == "" {
		config.UploadDir = os.TempDir()
	}
	if err := os.MkdirAll(config.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	app := fiber.New(fiber.Config{
		// Disable startup message for cleaner logs
		DisableStartupMessage: true,
		// Keep large recordings out of memory while they arrive
		StreamRequestBody: true,
		BodyLimit:         maxUploadBytes,
	})

	s := &Server{
		config:    config,
		assistant: asst,
		logger:    logger,
		server:    app,
		started:   time.Now(),
	}

	// Register routes
	app.Post("/api/voice", s.handleVoice)
	app.Post("/api/text", s.handleText)

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(map[string]string{"status": "ok"})
	})

	// Introspection endpoints
	app.Get("/api/history", s.handleHistory)
	app.Get("/api/stats", s.handleStats)

	return s, nil
}

// Run starts the relay server on the configured listening address.
func (s *Server) Run() error {
	s.logger.Info("starting relay server",
		zap.String("listen", s.config.ListenAddr),
		zap.String("upload_dir", s.config.UploadDir),
	)

	return s.server.Listen(s.config.ListenAddr)
}

// RunWithListener starts the relay server on an already bound listener.
func (s *Server) RunWithListener(ln net.Listener) error {
	s.logger.Info("starting relay server",
		zap.String("listen", ln.Addr().String()),
		zap.String("upload_dir", s.config.UploadDir),
	)

	return s.server.Listener(ln)
}

// Shutdown gracefully stops the server, letting in-flight requests finish.
func (s *Server) Shutdown() error {
	return s.server.Shutdown()
}

// handleVoice answers a recorded query with spoken audio. The upload is
// staged under a request-scoped name, handed to the assistant, and removed
// again on every exit path. The reply is fully synthesized before the first
// byte is written, so a failed request never produces partial audio.
func (s *Server) handleVoice(c *fiber.Ctx) error {
	startTime := time.Now()

	fileHeader, err := c.FormFile("audio_file")
	if err != nil {
		s.logger.Error("voice request without audio_file", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "audio_file field is required"})
	}

	requestID := uuid.NewString()
	uploadPath := filepath.Join(s.config.UploadDir, requestID+filepath.Ext(fileHeader.Filename))

	// The upload is transient, remove it however the request ends
	defer os.Remove(uploadPath)

	if err := c.SaveFile(fileHeader, uploadPath); err != nil {
		s.logger.Error("failed to stage upload",
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to store upload"})
	}

	s.logger.Debug("received voice request",
		zap.String("request_id", requestID),
		zap.String("filename", fileHeader.Filename),
		zap.Int64("size", fileHeader.Size),
	)

	reply, err := s.assistant.Respond(c.Context(), assistant.Query{
		ID:        requestID,
		AudioPath: uploadPath,
	})
	if err != nil {
		s.logger.Error("voice request failed",
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: err.Error()})
	}

	c.Set("Content-Type", "audio/mpeg")
	c.Set("Transfer-Encoding", "chunked")

	// Use Fiber's streaming response with proper bufio.Writer signature.
	// The audio is already complete in memory; chunking only paces the write.
	audio := reply.Audio
	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		for off := 0; off < len(audio); off += streamChunkSize {
			end := off + streamChunkSize
			if end > len(audio) {
				end = len(audio)
			}

			if _, err := w.Write(audio[off:end]); err != nil {
				s.logger.Warn("client dropped mid-stream",
					zap.String("request_id", requestID),
					zap.Error(err),
				)
				return
			}
			w.Flush()
		}

		s.logger.Debug("voice reply streamed",
			zap.String("request_id", requestID),
			zap.Int("audio_bytes", len(audio)),
			zap.Bool("cached", reply.Cached),
			zap.Duration("duration", time.Since(startTime)),
		)
	}))

	return nil
}

// handleText answers a typed query with spoken audio. Errors are reported as
// plain text here; only the voice endpoint wraps them in JSON.
func (s *Server) handleText(c *fiber.Ctx) error {
	startTime := time.Now()

	var req TextRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		s.logger.Error("failed to parse text request", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).SendString("invalid request body")
	}
	if strings.TrimSpace(req.Text) == "" {
		return c.Status(fiber.StatusBadRequest).SendString("text field is required")
	}

	requestID := uuid.NewString()
	s.logger.Debug("received text request",
		zap.String("request_id", requestID),
		zap.Int("text_len", len(req.Text)),
	)

	reply, err := s.assistant.Respond(c.Context(), assistant.Query{
		ID:   requestID,
		Text: req.Text,
	})
	if err != nil {
		s.logger.Error("text request failed",
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).SendString(err.Error())
	}

	s.logger.Debug("text reply ready",
		zap.String("request_id", requestID),
		zap.Int("audio_bytes", len(reply.Audio)),
		zap.Bool("cached", reply.Cached),
		zap.Duration("duration", time.Since(startTime)),
	)

	c.Set("Content-Type", "audio/mpeg")
	return c.Send(reply.Audio)
}

// handleHistory returns the current conversation memory, oldest turn first.
func (s *Server) handleHistory(c *fiber.Ctx) error {
	turns := s.assistant.History()
	return c.JSON(HistoryResponse{
		Count: len(turns),
		Turns: turns,
	})
}

// handleStats returns a snapshot of the relay's runtime state.
func (s *Server) handleStats(c *fiber.Ctx) error {
	return c.JSON(StatsResponse{
		Uptime: time.Since(s.started).Round(time.Second).String(),
		Turns:  len(s.assistant.History()),
		Cached: s.assistant.CachedCount(),
		Voice:  s.assistant.Voice(),
	})
}
