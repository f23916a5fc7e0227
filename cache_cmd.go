package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/knoxify/knoxify/internal/cache"
	"github.com/knoxify/knoxify/ui"
)

var (
	clearCache bool

	cacheCmd = &cobra.Command{
		Use:   "cache",
		Short: "Show or clear the downloaded audio cache",
		Long: paragraph(fmt.Sprintf("\nConverting the same text with the same voice again is %s. List what is cached, or empty the cache with --clear.",
			keyword("served from the cache"))),
		Example: paragraph("knoxify cache\nknoxify cache --clear"),
		Args:    cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			dc, err := ui.OpenCache(ttsConfig)
			if err != nil {
				return err //nolint:wrapcheck
			}
			defer dc.Close() //nolint:errcheck

			if clearCache {
				n := dc.Stats().Entries
				if err := dc.Clear(); err != nil {
					return fmt.Errorf("unable to clear cache: %w", err)
				}
				fmt.Printf("Removed %d cached %s\n", n, plural(n, "file", "files"))
				return nil
			}

			out, err := renderMarkdown(cacheMarkdown(dc.Stats(), dc.Entries()), term.IsTerminal(int(os.Stdout.Fd())))
			if err != nil {
				return err
			}
			fmt.Print(out)
			return nil
		},
	}
)

func cacheMarkdown(st cache.Stats, entries []cache.Entry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d %s, %s of %s\n\n",
		st.Entries, plural(st.Entries, "file", "files"),
		humanize.Bytes(uint64(st.Size)), humanize.Bytes(uint64(st.Capacity))) //nolint:gosec
	if len(entries) == 0 {
		return b.String()
	}

	b.WriteString("| Key | Audio | On disk | Last used |\n|---|---|---|---|\n")
	for _, e := range entries {
		key := e.Key
		if len(key) > 12 {
			key = key[:12]
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
			key,
			humanize.Bytes(uint64(e.RawSize)), //nolint:gosec
			humanize.Bytes(uint64(e.Size)),    //nolint:gosec
			humanize.Time(e.LastAccess))
	}
	return b.String()
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func renderMarkdown(md string, isTerminal bool) (string, error) {
	style := styles.AutoStyle
	if !isTerminal {
		style = styles.NoTTYStyle
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithColorProfile(lipgloss.ColorProfile()),
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return "", fmt.Errorf("unable to create renderer: %w", err)
	}

	out, err := r.Render(md)
	if err != nil {
		return "", fmt.Errorf("unable to render: %w", err)
	}
	return out, nil
}

func init() {
	cacheCmd.Flags().BoolVar(&clearCache, "clear", false, "remove every cached file")
}
