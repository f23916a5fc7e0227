// Package utils provides utility functions.
package utils

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/mitchellh/go-homedir"
)

// ExpandPath replaces the tilde with the full home directory path and expands
// environment variables.
func ExpandPath(path string) string {
	// Expand tilde
	if expanded, err := homedir.Expand(path); err == nil {
		path = expanded
	}

	// Expand environment variables
	return os.ExpandEnv(path)
}

// IsTextFile returns whether the filename carries the .txt suffix the server
// accepts. The check is case-sensitive.
func IsTextFile(filename string) bool {
	return strings.HasSuffix(filename, ".txt")
}

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// AudioFilename derives an .mp3 filename from the source text file, e.g.
// "notes/My Talk.txt" becomes "My_Talk.mp3".
func AudioFilename(source string) string {
	base := filepath.Base(source)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.Trim(unsafeNameChars.ReplaceAllString(base, "_"), "_")
	if base == "" {
		base = "audio"
	}
	return base + ".mp3"
}
