package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (c *CLI) newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Maintenance of the persistent cache",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "compact",
		Short: "Drop expired and excess cache entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.app.CompactCache(cmd.Context()); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "cache compacted")
			return nil
		},
	})

	return cmd
}
