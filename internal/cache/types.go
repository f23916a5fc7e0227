package cache

import (
	"errors"
	"time"
)

// Common errors for cache operations
var (
	// ErrTooLarge is returned when an entry exceeds the cache capacity.
	ErrTooLarge = errors.New("entry too large for cache")

	// ErrClosed is returned when the cache is used after Close.
	ErrClosed = errors.New("cache is closed")
)

// Stats holds cache usage counters.
type Stats struct {
	Capacity  int64 // Maximum size on disk in bytes
	Size      int64 // Current size on disk in bytes
	Entries   int
	Hits      int64
	Misses    int64
	Evictions int64
}

// HitRate returns hits / (hits + misses), or 0 before any lookup.
func (s Stats) HitRate() float64 {
	if s.Hits+s.Misses == 0 {
		return 0
	}
	return float64(s.Hits) / float64(s.Hits+s.Misses)
}

// Entry describes a cached download.
type Entry struct {
	Key        string
	File       string
	Size       int64 // Size on disk
	RawSize    int64 // Size of the audio itself
	Stored     time.Time
	LastAccess time.Time
	Compressed bool
}

// Options configures a disk cache.
type Options struct {
	Dir      string
	Capacity int64 // Bytes; zero means DefaultCapacity
	Compress bool
	Level    int // zstd level, 1-22
}

// DefaultCapacity is used when Options.Capacity is zero.
const DefaultCapacity = 100 << 20

// minCompressSize is the smallest entry worth compressing.
const minCompressSize = 1024
