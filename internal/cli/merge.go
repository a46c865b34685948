package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newMergeCommand(s *session) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "merge <schema-file>...",
		Short: "Merges schema files into one.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, missing, err := s.app.Merge(args, output)

			out := writerOf(cmd)
			for _, m := range missing {
				fmt.Fprintf(out, "File not found: %s\n", m)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Merged schema saved to %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&output, "output", "", "merged filename (default merged_schema.json)")
	return cmd
}
