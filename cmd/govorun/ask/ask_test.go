package askcmder

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/govorun-ai/govorun/assistant"
	"github.com/govorun-ai/govorun/pkg/cache"
	"github.com/govorun-ai/govorun/pkg/chat"
	"github.com/govorun-ai/govorun/relay"
)

type stubTranscriber struct{}

func (s *stubTranscriber) Transcribe(context.Context, string) (string, error) {
	return "", errors.New("not used here")
}

type stubCompleter struct {
	reply   string
	prompts []string
}

func (s *stubCompleter) Complete(_ context.Context, _ []chat.Turn, userText string) string {
	s.prompts = append(s.prompts, userText)
	return s.reply
}

type stubSynthesizer struct {
	err error
}

func (s *stubSynthesizer) Synthesize(_ context.Context, text string) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []byte("mp3:" + text), nil
}

var _ = Describe("Ask Command", func() {
	var (
		ctx    context.Context
		tmpDir string
	)

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		tmpDir, err = os.MkdirTemp("", "govorun-ask-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	startServer := func(synth *stubSynthesizer) (string, *stubCompleter, func()) {
		completer := &stubCompleter{reply: "Сегодня солнечно"}
		logger := zap.NewNop()

		asst := assistant.New(&stubTranscriber{}, completer, synth,
			chat.NewMemory(4), cache.New(time.Hour), logger)

		srv, err := relay.New(relay.Config{
			ListenAddr: ":0",
			UploadDir:  filepath.Join(tmpDir, "uploads"),
		}, asst, logger)
		Expect(err).NotTo(HaveOccurred())

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		Expect(err).NotTo(HaveOccurred())

		go func() {
			_ = srv.RunWithListener(listener)
		}()

		addr := "http://" + listener.Addr().String()
		cleanup := func() {
			srv.Shutdown()
		}
		return addr, completer, cleanup
	}

	It("asks the server and saves the spoken reply", func() {
		addr, completer, cleanup := startServer(&stubSynthesizer{})
		defer cleanup()

		outPath := filepath.Join(tmpDir, "reply.mp3")

		cmd := NewAskCmd()
		cmd.SetArgs([]string{"--server", addr, "--output", outPath, "Какая сегодня погода?"})
		err := cmd.ExecuteContext(ctx)
		Expect(err).NotTo(HaveOccurred())

		audio, err := os.ReadFile(outPath)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(audio)).To(Equal("mp3:Сегодня солнечно"))

		Expect(completer.prompts).To(Equal([]string{"Какая сегодня погода?"}))
	})

	It("joins multi-word questions into one prompt", func() {
		addr, completer, cleanup := startServer(&stubSynthesizer{})
		defer cleanup()

		outPath := filepath.Join(tmpDir, "reply.mp3")

		cmd := NewAskCmd()
		cmd.SetArgs([]string{"--server", addr, "--output", outPath, "Привет,", "как", "дела?"})
		err := cmd.ExecuteContext(ctx)
		Expect(err).NotTo(HaveOccurred())

		Expect(completer.prompts).To(Equal([]string{"Привет, как дела?"}))
	})

	It("reports a server-side failure instead of writing a file", func() {
		addr, _, cleanup := startServer(&stubSynthesizer{err: errors.New("no audio produced")})
		defer cleanup()

		outPath := filepath.Join(tmpDir, "reply.mp3")

		cmd := NewAskCmd()
		cmd.SetArgs([]string{"--server", addr, "--output", outPath, "Привет"})
		err := cmd.ExecuteContext(ctx)
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("500"))

		_, err = os.Stat(outPath)
		Expect(os.IsNotExist(err)).To(BeTrue())
	})
})
