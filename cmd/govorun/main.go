package main

import (
	"os"

	"github.com/spf13/cobra"

	askcmder "github.com/govorun-ai/govorun/cmd/govorun/ask"
	chatcmder "github.com/govorun-ai/govorun/cmd/govorun/chat"
	servecmder "github.com/govorun-ai/govorun/cmd/govorun/serve"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "govorun",
		Short: "Voice assistant relay",
		Long: `Govorun relays spoken and typed questions through transcription,
completion and speech synthesis, and answers with audio.

Run "govorun serve" to start the relay, then talk to it with
"govorun ask" or "govorun chat".`,
	}

	rootCmd.AddCommand(servecmder.NewServeCmd())
	rootCmd.AddCommand(askcmder.NewAskCmd())
	rootCmd.AddCommand(chatcmder.NewChatCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
