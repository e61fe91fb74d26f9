package servecmder

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/govorun-ai/govorun/assistant"
	"github.com/govorun-ai/govorun/config"
	"github.com/govorun-ai/govorun/pkg/cache"
	"github.com/govorun-ai/govorun/pkg/chat"
	"github.com/govorun-ai/govorun/pkg/llm"
	"github.com/govorun-ai/govorun/pkg/logger"
	"github.com/govorun-ai/govorun/pkg/stt"
	"github.com/govorun-ai/govorun/pkg/tts"
	"github.com/govorun-ai/govorun/relay"
)

const serveLongDesc string = `Run the voice assistant relay server.

Accepts voice queries on POST /api/voice and text queries on
POST /api/text, and answers both with synthesized speech.

When --config points at a TOML file, the file is also watched and
the synthesis voice is switched live on change.

Examples:
  govorun serve
  govorun serve --config /etc/govorun/govorun.toml --debug
  govorun serve --listen :9000`

const serveShortDesc string = "Run the voice assistant relay server"

type serveCommander struct {
	configPath string
	listenAddr string
	debug      bool
}

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&cmder.configPath, "config", "c", "", "Path to TOML config file")
	cmd.Flags().StringVarP(&cmder.listenAddr, "listen", "l", "", "Address to listen on (overrides config)")
	cmd.Flags().BoolVar(&cmder.debug, "debug", false, "Enable debug logging")

	return cmd
}

func (c *serveCommander) run(ctx context.Context) error {
	log := logger.New(c.debug)
	defer log.Sync()

	cfg, err := config.Load(c.configPath)
	if err != nil {
		return fmt.Errorf("could not load config: %w", err)
	}
	if c.listenAddr != "" {
		cfg.ListenAddr = c.listenAddr
	}

	log.Info("govorun relay starting",
		zap.String("listen", cfg.ListenAddr),
		zap.Bool("debug", c.debug),
	)

	sttClient := stt.NewClient(stt.Config{
		BaseURL:  cfg.STT.BaseURL,
		APIKey:   cfg.STT.APIKey,
		Model:    cfg.STT.Model,
		Language: cfg.STT.Language,
		Timeout:  cfg.STT.Timeout(),
	})
	if !sttClient.Available() {
		log.Warn("transcription key missing, voice queries will get the could-not-hear fallback")
	}

	llmClient := llm.NewClient(llm.Config{
		BaseURL:   cfg.LLM.BaseURL,
		APIKey:    cfg.LLM.APIKey,
		Model:     cfg.LLM.Model,
		MaxTokens: cfg.LLM.MaxTokens,
		Timeout:   cfg.LLM.Timeout(),
	}, log)

	ttsClient, err := tts.NewClient(ctx, tts.Config{
		Voice:           cfg.TTS.Voice,
		CredentialsFile: cfg.TTS.CredentialsFile,
		Timeout:         cfg.TTS.Timeout(),
	})
	if err != nil {
		return fmt.Errorf("could not create synthesis client: %w", err)
	}
	defer ttsClient.Close()

	asst := assistant.New(sttClient, llmClient, ttsClient,
		chat.NewMemory(cfg.Memory.MaxPairs), cache.New(cfg.Cache.TTL()), log)

	srv, err := relay.New(relay.Config{
		ListenAddr: cfg.ListenAddr,
		UploadDir:  cfg.UploadDir,
	}, asst, log)
	if err != nil {
		return fmt.Errorf("could not create server: %w", err)
	}

	// Watch the config file so the synthesis voice can be switched without
	// a restart. Reload problems keep the last good settings.
	if c.configPath != "" {
		closeWatch, err := config.Watch(c.configPath, log, func(next *config.Config) {
			ttsClient.SetVoice(next.TTS.Voice)
		})
		if err != nil {
			log.Warn("config watching unavailable", zap.Error(err))
		} else {
			defer closeWatch()
		}
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("shutdown signal received", zap.String("signal", sig.String()))
		return srv.Shutdown()
	case <-ctx.Done():
		log.Info("context cancelled, shutting down")
		return srv.Shutdown()
	case err := <-errCh:
		return err
	}
}
