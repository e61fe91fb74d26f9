package askcmder

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/govorun-ai/govorun/cmd/govorun/apiclient"
)

const askLongDesc string = `Ask the assistant one question and save the spoken reply.

Sends the question to a running govorun server's /api/text endpoint
and writes the MP3 answer to a local file.

Examples:
  govorun ask Привет, как дела?
  govorun ask --server http://192.168.1.42:8080 --output answer.mp3 "Который час?"`

const askShortDesc string = "Ask the assistant and save the spoken reply"

var savedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))

type askCommander struct {
	serverURL string
	output    string
}

func NewAskCmd() *cobra.Command {
	cmder := &askCommander{}

	cmd := &cobra.Command{
		Use:   "ask <text...>",
		Short: askShortDesc,
		Long:  askLongDesc,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd, strings.Join(args, " "))
		},
	}

	cmd.Flags().StringVarP(&cmder.serverURL, "server", "s", "http://localhost:8080", "URL of the govorun server")
	cmd.Flags().StringVarP(&cmder.output, "output", "o", "reply.mp3", "File to write the spoken reply to")

	return cmd
}

func (c *askCommander) run(ctx context.Context, cmd *cobra.Command, text string) error {
	fmt.Fprintf(cmd.OutOrStdout(), "Asking %s\n", c.serverURL)

	audio, err := apiclient.FetchReply(ctx, c.serverURL, text)
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if err := os.WriteFile(c.output, audio, 0o644); err != nil {
		return fmt.Errorf("could not write %s: %w", c.output, err)
	}

	fmt.Fprintln(cmd.OutOrStdout(),
		savedStyle.Render(fmt.Sprintf("Saved spoken reply to %s (%d bytes)", c.output, len(audio))))

	return nil
}
