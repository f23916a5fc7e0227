// Package cache keeps downloaded audio on disk so a finished conversion can be
// played, saved and replayed without fetching it again. Entries are keyed by
// a fingerprint of the converted text and voice, and optionally compressed
// with zstd.
package cache
