package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"interbot/pkg/logger"
)

// FileStore keeps every key in memory and persists the whole map as one JSON
// document.
type FileStore struct {
	log  *logger.Logger
	path string

	mu    sync.RWMutex
	data  map[string]json.RawMessage
	dirty bool

	interval  time.Duration
	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// FileStoreConfig configures the file store.
type FileStoreConfig struct {
	FilePath string
	// AutoSave batches writes and flushes them every SaveInterval. Without it
	// every Set and Delete writes the file.
	AutoSave     bool
	SaveInterval time.Duration // default 5s
}

// NewFileStore opens the store at cfg.FilePath, loading it if present.
func NewFileStore(log *logger.Logger, cfg *FileStoreConfig) (*FileStore, error) {
	if strings.TrimSpace(cfg.FilePath) == "" {
		return nil, errors.New("state file path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}

	s := &FileStore{
		log:  log,
		path: cfg.FilePath,
		data: make(map[string]json.RawMessage),
		done: make(chan struct{}),
	}
	if err := s.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading state: %w", err)
	}

	if cfg.AutoSave {
		s.interval = cfg.SaveInterval
		if s.interval <= 0 {
			s.interval = 5 * time.Second
		}
		s.wg.Add(1)
		go s.flushLoop()
	}
	return s, nil
}

// Get decodes the value under key into v.
func (s *FileStore) Get(_ context.Context, key string, v any) (bool, error) {
	s.mu.RLock()
	raw, ok := s.data[key]
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return true, fmt.Errorf("decoding %q: %w", key, err)
	}
	return true, nil
}

// GetString retrieves a string value.
func (s *FileStore) GetString(ctx context.Context, key string) (string, bool, error) {
	var str string
	ok, err := s.Get(ctx, key, &str)
	if err != nil || !ok {
		return "", false, err
	}
	return str, true, nil
}

// Set stores a value.
func (s *FileStore) Set(_ context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshaling value: %w", err)
	}
	s.mu.Lock()
	s.data[key] = raw
	s.dirty = true
	s.mu.Unlock()
	return s.afterWrite()
}

// Delete removes a value.
func (s *FileStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	if _, ok := s.data[key]; ok {
		delete(s.data, key)
		s.dirty = true
	}
	s.mu.Unlock()
	return s.afterWrite()
}

func (s *FileStore) afterWrite() error {
	if s.interval > 0 {
		return nil
	}
	return s.Save()
}

// Keys returns the keys starting with prefix, sorted.
func (s *FileStore) Keys(_ context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Load replaces the in-memory map with the file contents.
func (s *FileStore) Load() error {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}
	data := make(map[string]json.RawMessage)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &data); err != nil {
			return fmt.Errorf("unmarshaling state: %w", err)
		}
	}

	s.mu.Lock()
	s.data = data
	s.dirty = false
	s.mu.Unlock()

	s.log.Info("Loaded state", zap.String("file", s.path), zap.Int("keys", len(data)))
	return nil
}

// Save writes the map if anything changed since the last save. The target
// file is replaced in one rename, so readers never see a partial document.
func (s *FileStore) Save() error {
	s.mu.RLock()
	if !s.dirty {
		s.mu.RUnlock()
		return nil
	}
	payload, err := json.MarshalIndent(s.data, "", "  ")
	keys := len(s.data)
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("marshaling state: %w", err)
	}

	if err := writeAtomic(s.path, payload, 0o644); err != nil {
		return err
	}

	s.mu.Lock()
	s.dirty = false
	s.mu.Unlock()

	s.log.Debug("Saved state", zap.String("file", s.path), zap.Int("keys", keys))
	return nil
}

func (s *FileStore) flushLoop() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.Save(); err != nil {
				s.log.Error("State flush failed", zap.Error(err))
			}
		case <-s.done:
			return
		}
	}
}

// Close stops the flush loop and performs a final save. Safe to call twice.
func (s *FileStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
	})
	s.wg.Wait()
	return s.Save()
}

// writeAtomic writes data to a unique temp file beside path, syncs it and
// renames it over path.
func writeAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("creating temp state file: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("writing temp state file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("syncing temp state file: %w", err)
	}
	if err := tmp.Chmod(perm); err != nil {
		return fmt.Errorf("setting state file mode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp state file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming temp state file: %w", err)
	}
	committed = true
	return nil
}
