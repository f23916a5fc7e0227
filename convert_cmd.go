package main

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/knoxify/knoxify/internal/client"
	"github.com/knoxify/knoxify/tts"
	"github.com/knoxify/knoxify/ui"
)

var (
	convertOutput string
	convertPlay   bool

	convertCmd = &cobra.Command{
		Use:   "convert FILE",
		Short: "Convert a text file without the TUI",
		Long: paragraph(fmt.Sprintf("\n%s a .txt file and save the audio next to the configured output directory. Progress is logged to stderr.",
			keyword("Convert"))),
		Example: paragraph("knoxify convert notes.txt\nknoxify convert notes.txt --voice matt --output talk.mp3\nknoxify convert notes.txt --output - --play"),
		Args:    cobra.ExactArgs(1),
		ValidArgsFunction: func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
			return []string{"txt"}, cobra.ShellCompDirectiveFilterFileExt
		},
		RunE: func(_ *cobra.Command, args []string) error {
			return runHeadless(ui.HeadlessOptions{
				File:   args[0],
				Output: convertOutput,
				Play:   convertPlay,
			})
		},
	}
)

// resolveVoice matches the configured voice against the server's list,
// falling back to the built-in voices when the server can't be asked.
func resolveVoice(cfg tts.Config) (string, error) {
	voices := tts.DefaultVoices

	cl, err := client.New(cfg.Server, client.WithTimeout(cfg.Timeout.Std()))
	if err != nil {
		return "", err //nolint:wrapcheck
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if remote, err := cl.Voices(ctx); err != nil {
		log.Debug("unable to list voices, using built-in list", "error", err)
	} else if len(remote) > 0 {
		voices = remote
	}

	voice, err := tts.ResolveVoice(cfg.Voice, voices)
	if err != nil {
		return "", err //nolint:wrapcheck
	}
	return voice, nil
}

func init() {
	convertCmd.Flags().StringVarP(&convertOutput, "output", "o", "", `where to save the audio ("-" to skip saving)`)
	convertCmd.Flags().BoolVarP(&convertPlay, "play", "p", false, "play the audio once it's ready")
}
