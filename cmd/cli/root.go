package main

import (
	"encoding/json"
	"io"

	_ "github.com/keshon/pollbot/internal/command/core"
	_ "github.com/keshon/pollbot/internal/command/poll"

	"github.com/keshon/pollbot/internal/logging"
	"github.com/keshon/pollbot/internal/version"

	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var debug bool
	root := &cobra.Command{
		Use:     "pollbot",
		Short:   version.AppName + " maintenance CLI",
		Long:    "Inspect the AI tool schemas, dry-run poll arguments and read stored poll history without connecting to Discord.",
		Version: version.Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := "warn"
			if debug {
				level = "debug"
			}
			logging.Setup(level, "console", cmd.ErrOrStderr())
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	root.AddCommand(newSchemaCommand())
	root.AddCommand(newValidateCommand())
	root.AddCommand(newHistoryCommand())
	return root
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
