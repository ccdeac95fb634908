package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/dshills/tally/internal/review"
)

const entryExt = ".mp"

type entry struct {
	Key       string              `msgpack:"key"`
	Result    review.ReviewResult `msgpack:"result"`
	CreatedAt time.Time           `msgpack:"createdAt"`
}

// Store persists results as one msgpack file per key.
type Store struct {
	mu  sync.RWMutex
	fs  afero.Fs
	dir string
}

// OpenStore opens (creating if needed) a store in dir on fs. If dir is
// empty the default cache directory is used.
func OpenStore(fs afero.Fs, dir string) (*Store, error) {
	if dir == "" {
		d, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	return &Store{fs: fs, dir: dir}, nil
}

// Get reads the result stored under key.
func (s *Store) Get(key string) (review.ReviewResult, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := afero.ReadFile(s.fs, s.entryPath(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return review.ReviewResult{}, false, nil
		}
		return review.ReviewResult{}, false, err
	}
	var e entry
	if err := msgpack.Unmarshal(data, &e); err != nil {
		return review.ReviewResult{}, false, fmt.Errorf("decoding cache entry: %w", err)
	}
	// Guard against hash collisions in the file name.
	if e.Key != key {
		return review.ReviewResult{}, false, nil
	}
	return e.Result, true, nil
}

// Put writes r under key, replacing any previous entry atomically.
func (s *Store) Put(key string, r review.ReviewResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := msgpack.Marshal(entry{Key: key, Result: r, CreatedAt: time.Now()})
	if err != nil {
		return fmt.Errorf("encoding cache entry: %w", err)
	}

	f, err := afero.TempFile(s.fs, s.dir, "tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()
		s.fs.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		s.fs.Remove(tmp)
		return err
	}
	if err := s.fs.Rename(tmp, s.entryPath(key)); err != nil {
		s.fs.Remove(tmp)
		return err
	}
	return nil
}

// Clear removes all cache entries.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading cache directory: %w", err)
	}
	for _, e := range entries {
		name := e.Name()
		if filepath.Ext(name) == entryExt || strings.HasPrefix(name, "tmp-") {
			if err := s.fs.Remove(filepath.Join(s.dir, name)); err != nil {
				return fmt.Errorf("removing %s: %w", name, err)
			}
		}
	}
	return nil
}

// Stats describes the store contents.
type Stats struct {
	Dir        string    `json:"dir"`
	Entries    int       `json:"entries"`
	TotalBytes int64     `json:"totalBytes"`
	Oldest     time.Time `json:"oldest,omitzero"`
}

// Stats returns information about the store.
func (s *Store) Stats() (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{Dir: s.dir}
	entries, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return stats, nil
		}
		return stats, fmt.Errorf("reading cache directory: %w", err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) != entryExt {
			continue
		}
		stats.Entries++
		stats.TotalBytes += e.Size()
		if stats.Oldest.IsZero() || e.ModTime().Before(stats.Oldest) {
			stats.Oldest = e.ModTime()
		}
	}
	return stats, nil
}

// Dir returns the store directory path.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) entryPath(key string) string {
	return filepath.Join(s.dir, HashKey(key)+entryExt)
}

// DefaultDir returns the OS-appropriate cache directory for tally.
func DefaultDir() (string, error) {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "tally"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Caches", "tally"), nil
	case "windows":
		if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
			return filepath.Join(localAppData, "tally", "cache"), nil
		}
		return filepath.Join(home, "AppData", "Local", "tally", "cache"), nil
	default:
		return filepath.Join(home, ".cache", "tally"), nil
	}
}
