package storage

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// PollRecord is a poll the bot posted.
type PollRecord struct {
	ID               string    `json:"id"`
	ChannelID        string    `json:"channel_id"`
	MessageID        string    `json:"message_id"`
	RequestedBy      string    `json:"requested_by"`
	Question         string    `json:"question"`
	Answers          int       `json:"answers"`
	AllowMultiselect bool      `json:"allow_multiselect"`
	DurationHours    int       `json:"duration_hours"`
	CreatedAt        time.Time `json:"created_at"`
}

// EndsAt is when voting on the poll closes.
func (p PollRecord) EndsAt() time.Time {
	return p.CreatedAt.Add(time.Duration(p.DurationHours) * time.Hour)
}

// AppendPoll stores rec, assigning an ID and timestamp when missing.
func (s *Storage) AppendPoll(guildID string, rec PollRecord) (PollRecord, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	err := s.updateGuildRecord(guildID, func(r *Record) {
		r.Polls = append(r.Polls, rec)
		if n := len(r.Polls); n > pollHistoryLimit {
			r.Polls = r.Polls[n-pollHistoryLimit:]
		}
	})
	return rec, err
}

// FetchPolls returns the guild's polls, newest first.
func (s *Storage) FetchPolls(guildID string) ([]PollRecord, error) {
	record, err := s.guildRecord(guildID)
	if err != nil {
		return nil, err
	}
	polls := slices.Clone(record.Polls)
	slices.Reverse(polls)
	return polls, nil
}
