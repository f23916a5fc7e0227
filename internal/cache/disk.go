package cache

import (
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
)

const indexFile = "cache.index"

// DiskCache stores audio files in a directory, evicting the least recently
// used entries once the capacity is reached. It is safe for concurrent use.
type DiskCache struct {
	dir      string
	capacity int64
	size     int64
	compress bool

	encoder *zstd.Encoder
	decoder *zstd.Decoder

	index map[string]*Entry
	stats Stats

	mu     sync.Mutex
	closed bool
}

// Open opens the cache in opts.Dir, creating the directory when needed and
// loading the index a previous run left behind.
func Open(opts Options) (*DiskCache, error) {
	if opts.Dir == "" {
		return nil, errors.New("cache directory not set")
	}
	if opts.Capacity <= 0 {
		opts.Capacity = DefaultCapacity
	}
	if opts.Level <= 0 {
		opts.Level = 3
	}

	if err := os.MkdirAll(opts.Dir, 0o755); err != nil { //nolint:gosec
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	dc := &DiskCache{
		dir:      opts.Dir,
		capacity: opts.Capacity,
		compress: opts.Compress,
		index:    make(map[string]*Entry),
	}

	var err error
	dc.encoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(opts.Level)))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	// The decoder is needed even with compression off to read entries an
	// earlier run compressed.
	dc.decoder, err = zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}

	if err := dc.loadIndex(); err != nil {
		dc.index = make(map[string]*Entry)
	}
	dc.prune()

	return dc, nil
}

// Get returns the audio cached for key.
func (dc *DiskCache) Get(key string) ([]byte, bool) {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	if dc.closed {
		return nil, false
	}

	entry, ok := dc.index[key]
	if !ok {
		dc.stats.Misses++
		return nil, false
	}

	data, err := os.ReadFile(entry.File)
	if err == nil && entry.Compressed {
		data, err = dc.decoder.DecodeAll(data, nil)
	}
	if err != nil {
		dc.remove(key)
		dc.stats.Misses++
		return nil, false
	}

	entry.LastAccess = time.Now()
	dc.stats.Hits++
	return data, true
}

// Put stores data for key, replacing any previous entry.
func (dc *DiskCache) Put(key string, data []byte) error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	if dc.closed {
		return ErrClosed
	}

	out, compressed := data, false
	if dc.compress && len(data) > minCompressSize {
		if enc := dc.encoder.EncodeAll(data, nil); len(enc) < len(data) {
			out, compressed = enc, true
		}
	}

	size := int64(len(out))
	if size > dc.capacity {
		return ErrTooLarge
	}

	dc.remove(key)
	for dc.size+size > dc.capacity && len(dc.index) > 0 {
		dc.evictOldest()
	}

	path := dc.path(key)
	if err := writeFile(path, out); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	now := time.Now()
	dc.index[key] = &Entry{
		Key:        key,
		File:       path,
		Size:       size,
		RawSize:    int64(len(data)),
		Stored:     now,
		LastAccess: now,
		Compressed: compressed,
	}
	dc.size += size

	return dc.saveIndex()
}

// Delete removes the entry for key.
func (dc *DiskCache) Delete(key string) error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	if dc.closed {
		return ErrClosed
	}
	if dc.remove(key) {
		return dc.saveIndex()
	}
	return nil
}

// Clear removes every entry.
func (dc *DiskCache) Clear() error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	if dc.closed {
		return ErrClosed
	}
	for key := range dc.index {
		dc.remove(key)
	}
	return dc.saveIndex()
}

// Contains reports whether key is cached without touching its access time.
func (dc *DiskCache) Contains(key string) bool {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	_, ok := dc.index[key]
	return ok
}

// Entries returns the cached entries, most recently used first.
func (dc *DiskCache) Entries() []Entry {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	out := make([]Entry, 0, len(dc.index))
	for _, e := range dc.index {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastAccess.After(out[j].LastAccess)
	})
	return out
}

// Stats returns cache statistics.
func (dc *DiskCache) Stats() Stats {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	s := dc.stats
	s.Capacity = dc.capacity
	s.Size = dc.size
	s.Entries = len(dc.index)
	return s
}

// Close saves the index and releases the encoder and decoder.
func (dc *DiskCache) Close() error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	if dc.closed {
		return nil
	}
	dc.closed = true

	err := dc.saveIndex()
	_ = dc.encoder.Close()
	dc.decoder.Close()
	return err
}

func (dc *DiskCache) path(key string) string {
	hash := sha256.Sum256([]byte(key))
	return filepath.Join(dc.dir, hex.EncodeToString(hash[:16])+".audio")
}

func (dc *DiskCache) remove(key string) bool {
	entry, ok := dc.index[key]
	if !ok {
		return false
	}
	_ = os.Remove(entry.File)
	dc.size -= entry.Size
	delete(dc.index, key)
	return true
}

func (dc *DiskCache) evictOldest() {
	var oldest *Entry
	for _, e := range dc.index {
		if oldest == nil || e.LastAccess.Before(oldest.LastAccess) {
			oldest = e
		}
	}
	if oldest != nil {
		dc.remove(oldest.Key)
		dc.stats.Evictions++
	}
}

// prune drops index entries whose file has gone missing, or that were written
// before entries carried their key, and recomputes the size.
func (dc *DiskCache) prune() {
	dc.size = 0
	for key, e := range dc.index {
		fi, err := os.Stat(e.File)
		if err != nil || e.Key != key {
			if err == nil {
				_ = os.Remove(e.File)
			}
			delete(dc.index, key)
			continue
		}
		e.Size = fi.Size()
		dc.size += e.Size
	}
	for dc.size > dc.capacity && len(dc.index) > 0 {
		dc.evictOldest()
	}
}

func (dc *DiskCache) loadIndex() error {
	f, err := os.Open(filepath.Join(dc.dir, indexFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err //nolint:wrapcheck
	}
	defer f.Close() //nolint:errcheck

	return gob.NewDecoder(f).Decode(&dc.index) //nolint:wrapcheck
}

func (dc *DiskCache) saveIndex() error {
	path := filepath.Join(dc.dir, indexFile)
	tmp := path + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to save cache index: %w", err)
	}
	err = gob.NewEncoder(f).Encode(dc.index)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to save cache index: %w", err)
	}
	return os.Rename(tmp, path) //nolint:wrapcheck
}

// writeFile writes to a temp file first, then renames it into place.
func writeFile(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		_ = os.Remove(tmp)
		return err //nolint:wrapcheck
	}
	return os.Rename(tmp, path) //nolint:wrapcheck
}
