// Package datastore is a small JSON-file key/value store: values live in memory
// as raw JSON, a background loop flushes changes to disk atomically and keeps a
// few rotated backups.
package datastore

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrClosed is returned by writes after Close.
var ErrClosed = errors.New("datastore is closed")

type Config struct {
	FilePath         string
	AutoSaveInterval time.Duration // 0 disables the background flush
	BackupCount      int           // rotated copies to keep, 0 disables backups
}

func DefaultConfig(filePath string) *Config {
	return &Config{
		FilePath:         filePath,
		AutoSaveInterval: 10 * time.Second,
		BackupCount:      3,
	}
}

type DataStore struct {
	mu           sync.RWMutex
	data         map[string]json.RawMessage
	config       *Config
	lastChecksum string
	closed       bool

	stop chan struct{}
	wg   sync.WaitGroup
}

// New opens (or creates) the store at filePath with the default config.
func New(filePath string) (*DataStore, error) {
	return NewWithConfig(DefaultConfig(filePath))
}

func NewWithConfig(config *Config) (*DataStore, error) {
	if config == nil {
		return nil, errors.New("config cannot be nil")
	}
	if config.FilePath == "" {
		return nil, errors.New("file path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(config.FilePath), 0o755); err != nil {
		return nil, fmt.Errorf("create directory: %w", err)
	}

	ds := &DataStore{
		data:   make(map[string]json.RawMessage),
		config: config,
		stop:   make(chan struct{}),
	}

	switch _, err := os.Stat(config.FilePath); {
	case errors.Is(err, os.ErrNotExist):
		if err := writeFileAtomic(config.FilePath, []byte("{}")); err != nil {
			return nil, fmt.Errorf("create empty store: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("stat store: %w", err)
	default:
		if err := ds.load(); err != nil {
			return nil, err
		}
	}

	if config.AutoSaveInterval > 0 {
		ds.wg.Add(1)
		go ds.autoSave()
	}
	return ds, nil
}

// Put stores v under key as JSON.
func (ds *DataStore) Put(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %q: %w", key, err)
	}

	ds.mu.Lock()
	defer ds.mu.Unlock()
	if ds.closed {
		return ErrClosed
	}
	ds.data[key] = raw
	return nil
}

// Get decodes the value under key into out. It reports false when key is absent.
func (ds *DataStore) Get(key string, out any) (bool, error) {
	ds.mu.RLock()
	raw, ok := ds.data[key]
	ds.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return true, fmt.Errorf("unmarshal %q: %w", key, err)
	}
	return true, nil
}

func (ds *DataStore) Delete(key string) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	delete(ds.data, key)
}

// Keys returns all keys sorted.
func (ds *DataStore) Keys() []string {
	ds.mu.RLock()
	keys := make([]string, 0, len(ds.data))
	for k := range ds.data {
		keys = append(keys, k)
	}
	ds.mu.RUnlock()
	sort.Strings(keys)
	return keys
}

// Save flushes to disk now. Unchanged data is not rewritten.
func (ds *DataStore) Save() error {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	return ds.saveLocked()
}

// Close stops the flush loop and writes a final snapshot.
func (ds *DataStore) Close() error {
	ds.mu.Lock()
	if ds.closed {
		ds.mu.Unlock()
		return nil
	}
	ds.closed = true
	ds.mu.Unlock()

	close(ds.stop)
	ds.wg.Wait()

	ds.mu.Lock()
	defer ds.mu.Unlock()
	return ds.saveLocked()
}

func (ds *DataStore) saveLocked() error {
	data, err := json.MarshalIndent(ds.data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal store: %w", err)
	}

	sum := checksum(data)
	if sum == ds.lastChecksum {
		return nil
	}

	if ds.config.BackupCount > 0 {
		if err := ds.backup(); err != nil {
			log.Warn().Err(err).Str("file", ds.config.FilePath).Msg("Failed to back up datastore")
		}
	}
	if err := writeFileAtomic(ds.config.FilePath, data); err != nil {
		return err
	}
	ds.lastChecksum = sum
	return nil
}

func (ds *DataStore) load() error {
	data, err := os.ReadFile(ds.config.FilePath)
	if err != nil {
		return fmt.Errorf("read store: %w", err)
	}

	loaded := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("invalid store file %s: %w", ds.config.FilePath, err)
	}

	ds.data = loaded
	ds.lastChecksum = checksum(data)
	return nil
}

func (ds *DataStore) autoSave() {
	defer ds.wg.Done()

	ticker := time.NewTicker(ds.config.AutoSaveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ds.stop:
			return
		case <-ticker.C:
			if err := ds.Save(); err != nil {
				log.Error().Err(err).Str("file", ds.config.FilePath).Msg("Datastore auto-save failed")
			}
		}
	}
}

// backup copies the current file to <file>.backup.<timestamp> and prunes old copies.
func (ds *DataStore) backup() error {
	current, err := os.ReadFile(ds.config.FilePath)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}

	name := fmt.Sprintf("%s.backup.%s", ds.config.FilePath, time.Now().Format("20060102_150405.000000000"))
	if err := os.WriteFile(name, current, 0o644); err != nil {
		return err
	}

	matches, err := filepath.Glob(ds.config.FilePath + ".backup.*")
	if err != nil || len(matches) <= ds.config.BackupCount {
		return err
	}
	// timestamp suffixes sort chronologically
	sort.Strings(matches)
	for _, old := range matches[:len(matches)-ds.config.BackupCount] {
		_ = os.Remove(old)
	}
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("open temp file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

func checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
