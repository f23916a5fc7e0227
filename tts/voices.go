package tts

import (
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"
)

// DefaultVoice is the voice used when none is chosen.
const DefaultVoice = "Joanna"

// DefaultVoices is used when the server's voice list can't be fetched.
var DefaultVoices = []string{
	"Joanna",
	"Matthew",
	"Ivy",
	"Kendra",
	"Salli",
	"Joey",
	"Justin",
	"Kevin",
}

// ResolveVoice finds the voice in voices that best matches input. An exact
// match, ignoring case, wins; otherwise the best fuzzy match is used. An empty
// input resolves to DefaultVoice, or the first voice when that's not offered.
func ResolveVoice(input string, voices []string) (string, error) {
	if len(voices) == 0 {
		voices = DefaultVoices
	}

	input = strings.TrimSpace(input)
	if input == "" {
		for _, v := range voices {
			if v == DefaultVoice {
				return v, nil
			}
		}
		return voices[0], nil
	}

	for _, v := range voices {
		if strings.EqualFold(v, input) {
			return v, nil
		}
	}

	matches := fuzzy.Find(strings.ToLower(input), lower(voices))
	if len(matches) == 0 {
		return "", fmt.Errorf("unknown voice %q: must be one of %s", input, strings.Join(voices, ", "))
	}
	return voices[matches[0].Index], nil
}

// VoiceIndex returns the position of voice in voices, or 0.
func VoiceIndex(voice string, voices []string) int {
	for i, v := range voices {
		if v == voice {
			return i
		}
	}
	return 0
}

func lower(s []string) []string {
	out := make([]string, len(s))
	for i, v := range s {
		out[i] = strings.ToLower(v)
	}
	return out
}
