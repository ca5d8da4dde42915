package main

import (
	"fmt"

	"github.com/keshon/pollbot/datastore"
	"github.com/keshon/pollbot/internal/config"
	"github.com/keshon/pollbot/internal/storage"

	"github.com/spf13/cobra"
)

func newHistoryCommand() *cobra.Command {
	var (
		path     string
		commands bool
		limit    int
	)
	c := &cobra.Command{
		Use:   "history <guild-id>",
		Short: "Print the polls (or commands) recorded for a guild",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			if path == "" {
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				path = cfg.StoragePath
			}

			// No autosave while inspecting.
			st, err := storage.NewWithConfig(&datastore.Config{FilePath: path})
			if err != nil {
				return err
			}
			defer st.Close()

			guildID := args[0]
			if commands {
				history, err := st.FetchCommandHistory(guildID)
				if err != nil {
					return err
				}
				return writeJSON(c.OutOrStdout(), tail(history, limit))
			}

			polls, err := st.FetchPolls(guildID)
			if err != nil {
				return err
			}
			if len(polls) == 0 {
				fmt.Fprintf(c.OutOrStdout(), "No polls recorded for guild %s\n", guildID)
				return nil
			}
			if limit > 0 && len(polls) > limit {
				polls = polls[:limit]
			}
			return writeJSON(c.OutOrStdout(), polls)
		},
	}
	c.Flags().StringVar(&path, "storage", "", "Datastore file (defaults to STORAGE_PATH)")
	c.Flags().BoolVar(&commands, "commands", false, "Show command history instead of polls")
	c.Flags().IntVar(&limit, "limit", 0, "Maximum entries to print (0 = all)")
	return c
}

// tail returns the last n items of s, or all of s when n <= 0.
func tail[T any](s []T, n int) []T {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
