package main

import (
	"fmt"
	"io"
	"os"

	"github.com/keshon/pollbot/internal/ai"
	"github.com/keshon/pollbot/internal/command/poll"
	"github.com/keshon/pollbot/pkg/cmd"

	"github.com/spf13/cobra"
)

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file|->",
		Short: "Validate poll arguments and print the message that would be sent",
		Long:  "Reads poll tool arguments as JSON (from a file, or stdin with -), checks them against the poll schema and prints the outbound Discord message payload.",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			raw, err := readInput(c.InOrStdin(), args[0])
			if err != nil {
				return err
			}

			tools, err := ai.NewToolset(cmd.DefaultRegistry)
			if err != nil {
				return err
			}
			tool, ok := tools.Get("poll")
			if !ok {
				return fmt.Errorf("%w: poll", ai.ErrToolNotFound)
			}
			params, err := tool.Validate(string(raw))
			if err != nil {
				return fmt.Errorf("schema validation failed: %w", err)
			}
			req, err := poll.ParseRequest(params)
			if err != nil {
				return err
			}
			return writeJSON(c.OutOrStdout(), poll.BuildMessage(req))
		},
	}
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return b, nil
}
