package storage

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// PrunePolls drops poll records whose voting window closed before cutoff.
// It returns how many records were removed across all guilds.
func (s *Storage) PrunePolls(cutoff time.Time) (int, error) {
	removed := 0
	for _, guildID := range s.Guilds() {
		err := s.updateGuildRecord(guildID, func(r *Record) {
			kept := r.Polls[:0]
			for _, p := range r.Polls {
				if p.EndsAt().Before(cutoff) {
					removed++
					continue
				}
				kept = append(kept, p)
			}
			r.Polls = kept
		})
		if err != nil {
			return removed, err
		}
	}
	return removed, nil
}

// RunPollPruner prunes polls that ended more than retention ago, every
// interval, until ctx is done.
func RunPollPruner(ctx context.Context, store *Storage, interval, retention time.Duration) {
	if interval <= 0 || retention <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := store.PrunePolls(now.Add(-retention))
			if err != nil {
				log.Error().Err(err).Msg("Failed to prune poll history")
				continue
			}
			if n > 0 {
				log.Debug().Int("removed", n).Msg("Pruned poll history")
			}
		}
	}
}
