// Package storage keeps per-guild bot state on top of the JSON datastore.
package storage

import (
	"fmt"
	"sync"

	"github.com/keshon/pollbot/datastore"
)

const (
	commandHistoryLimit = 20
	pollHistoryLimit    = 50
)

type Storage struct {
	ds *datastore.DataStore
	mu sync.Mutex // serializes read-modify-write of guild records
}

// Record is everything stored for one guild.
type Record struct {
	CommandsHistoryList []CommandHistoryRecord `json:"cmd_history"`
	CommandsDisabled    []string               `json:"cmd_disabled"`
	Polls               []PollRecord           `json:"polls"`
}

func New(filePath string) (*Storage, error) {
	return NewWithConfig(datastore.DefaultConfig(filePath))
}

func NewWithConfig(cfg *datastore.Config) (*Storage, error) {
	ds, err := datastore.NewWithConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("open datastore: %w", err)
	}
	return &Storage{ds: ds}, nil
}

func (s *Storage) Close() error {
	return s.ds.Close()
}

// Save flushes pending changes to disk.
func (s *Storage) Save() error {
	return s.ds.Save()
}

// Guilds returns the IDs of all guilds with a stored record.
func (s *Storage) Guilds() []string {
	return s.ds.Keys()
}

func (s *Storage) guildRecord(guildID string) (*Record, error) {
	var record Record
	if _, err := s.ds.Get(guildID, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *Storage) updateGuildRecord(guildID string, fn func(*Record)) error {
	if guildID == "" {
		return fmt.Errorf("guild id is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.guildRecord(guildID)
	if err != nil {
		return err
	}
	fn(record)
	return s.ds.Put(guildID, record)
}
