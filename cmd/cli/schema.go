package main

import (
	"fmt"

	"github.com/keshon/pollbot/internal/ai"
	"github.com/keshon/pollbot/pkg/cmd"

	"github.com/spf13/cobra"
)

func newSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema [tool]",
		Short: "Print the JSON schemas of the tools offered to the AI",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			tools, err := ai.NewToolset(cmd.DefaultRegistry)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				t, ok := tools.Get(args[0])
				if !ok {
					return fmt.Errorf("%w: %q", ai.ErrToolNotFound, args[0])
				}
				return writeJSON(c.OutOrStdout(), t.Spec())
			}
			return writeJSON(c.OutOrStdout(), tools.Specs())
		},
	}
}
