package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/knoxify/knoxify/internal/client"
	"github.com/knoxify/knoxify/tts"
)

var voicesCmd = &cobra.Command{
	Use:   "voices",
	Short: "List the voices the server offers",
	Args:  cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		cl, err := client.New(ttsConfig.Server, client.WithTimeout(ttsConfig.Timeout.Std()))
		if err != nil {
			return err //nolint:wrapcheck
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		voices, err := cl.Voices(ctx)
		if err != nil {
			return fmt.Errorf("unable to list voices: %w", err)
		}

		out, err := renderVoices(voices, ttsConfig.Voice, term.IsTerminal(int(os.Stdout.Fd())))
		if err != nil {
			return err
		}
		fmt.Print(out)
		return nil
	},
}

func voicesMarkdown(voices []string, current string) string {
	var b strings.Builder
	b.WriteString("| Voice | |\n|---|---|\n")
	for _, v := range voices {
		mark := ""
		if strings.EqualFold(v, current) {
			mark = "default"
		}
		fmt.Fprintf(&b, "| %s | %s |\n", v, mark)
	}
	if len(voices) == 0 {
		fmt.Fprintf(&b, "| %s | built-in default |\n", tts.DefaultVoice)
	}
	return b.String()
}

func renderVoices(voices []string, current string, isTerminal bool) (string, error) {
	return renderMarkdown(voicesMarkdown(voices, current), isTerminal)
}
