package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	runewidth "github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/ansi"
	"github.com/muesli/reflow/truncate"

	"github.com/knoxify/knoxify/tts"
)

const ellipsis = "…"

var (
	fuchsia   = lipgloss.AdaptiveColor{Light: "#EE6FF8", Dark: "#EE6FF8"}
	mintGreen = lipgloss.AdaptiveColor{Light: "#1C8760", Dark: "#89F0CB"}
	red       = lipgloss.AdaptiveColor{Light: "#FF4672", Dark: "#ED567A"}
	yellow    = lipgloss.AdaptiveColor{Light: "#B38B00", Dark: "#ECFD65"}
	gray      = lipgloss.AdaptiveColor{Light: "#909090", Dark: "#626262"}
	midGray   = lipgloss.AdaptiveColor{Light: "#656565", Dark: "#979797"}
	cream     = lipgloss.AdaptiveColor{Light: "#FFFDF5", Dark: "#FFFDF5"}

	titleStyle = lipgloss.NewStyle().
			Foreground(cream).
			Background(fuchsia).
			Bold(true).
			Padding(0, 1)

	labelStyle    = lipgloss.NewStyle().Foreground(midGray).Width(7)
	valueStyle    = lipgloss.NewStyle().Bold(true)
	subtleStyle   = lipgloss.NewStyle().Foreground(gray)
	keywordStyle  = lipgloss.NewStyle().Foreground(fuchsia)
	noticeStyle   = lipgloss.NewStyle().Foreground(mintGreen)
	errorStyle    = lipgloss.NewStyle().Foreground(red).Bold(true)
	audioStyle    = lipgloss.NewStyle().Foreground(mintGreen).Underline(true)
	disabledStyle = lipgloss.NewStyle().Foreground(gray).Faint(true)

	statusStyles = map[tts.Phase]lipgloss.Style{
		tts.PhaseUploading:  lipgloss.NewStyle().Foreground(yellow),
		tts.PhaseProcessing: lipgloss.NewStyle().Foreground(yellow),
		tts.PhaseReady:      lipgloss.NewStyle().Foreground(mintGreen).Bold(true),
	}
)

func statusStyle(p tts.Phase) lipgloss.Style {
	if s, ok := statusStyles[p]; ok {
		return s
	}
	return subtleStyle
}

// fit truncates s to width cells, marking the cut with an ellipsis.
func fit(s string, width int) string {
	if width <= 0 {
		return s
	}
	return truncate.StringWithTail(s, uint(width), ellipsis) //nolint:gosec
}

// fill pads every line of s with spaces up to width.
func fill(s string, width int) string {
	if width <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if n := width - ansi.PrintableRuneWidth(l); n > 0 {
			lines[i] = l + strings.Repeat(" ", n)
		}
	}
	return strings.Join(lines, "\n")
}

// fitPath keeps the end of a path, which is the part that names the file.
func fitPath(p string, width int) string {
	if width <= 0 || runewidth.StringWidth(p) <= width {
		return p
	}
	r := []rune(p)
	w := runewidth.StringWidth(ellipsis)
	i := len(r)
	for i > 0 {
		rw := runewidth.RuneWidth(r[i-1])
		if w+rw > width {
			break
		}
		w += rw
		i--
	}
	return ellipsis + string(r[i:])
}

// Lightweight version of reflow's indent function.
func indent(s string, n int) string {
	if n <= 0 || s == "" {
		return s
	}
	l := strings.Split(s, "\n")
	b := strings.Builder{}
	i := strings.Repeat(" ", n)
	for _, v := range l {
		b.WriteString(i + v + "\n")
	}
	return b.String()
}
