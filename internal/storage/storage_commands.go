package storage

import (
	"slices"
	"time"
)

type CommandHistoryRecord struct {
	ChannelID string    `json:"channel_id"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Command   string    `json:"command"`
	Source    string    `json:"source"` // slash, message or ai
	Datetime  time.Time `json:"datetime"`
}

// AppendCommandToHistory records a command run, keeping the last commandHistoryLimit entries.
func (s *Storage) AppendCommandToHistory(guildID string, rec CommandHistoryRecord) error {
	if rec.Datetime.IsZero() {
		rec.Datetime = time.Now()
	}
	return s.updateGuildRecord(guildID, func(r *Record) {
		r.CommandsHistoryList = append(r.CommandsHistoryList, rec)
		if n := len(r.CommandsHistoryList); n > commandHistoryLimit {
			r.CommandsHistoryList = r.CommandsHistoryList[n-commandHistoryLimit:]
		}
	})
}

func (s *Storage) FetchCommandHistory(guildID string) ([]CommandHistoryRecord, error) {
	record, err := s.guildRecord(guildID)
	if err != nil {
		return nil, err
	}
	return record.CommandsHistoryList, nil
}

func (s *Storage) DisableGroup(guildID, group string) error {
	return s.updateGuildRecord(guildID, func(r *Record) {
		if !slices.Contains(r.CommandsDisabled, group) {
			r.CommandsDisabled = append(r.CommandsDisabled, group)
		}
	})
}

func (s *Storage) EnableGroup(guildID, group string) error {
	return s.updateGuildRecord(guildID, func(r *Record) {
		r.CommandsDisabled = slices.DeleteFunc(r.CommandsDisabled, func(g string) bool { return g == group })
	})
}

func (s *Storage) IsGroupDisabled(guildID, group string) (bool, error) {
	if guildID == "" {
		return false, nil
	}
	record, err := s.guildRecord(guildID)
	if err != nil {
		return false, err
	}
	return slices.Contains(record.CommandsDisabled, group), nil
}

func (s *Storage) GetDisabledGroups(guildID string) ([]string, error) {
	record, err := s.guildRecord(guildID)
	if err != nil {
		return nil, err
	}
	return record.CommandsDisabled, nil
}
