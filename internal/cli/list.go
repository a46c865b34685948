package cli

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newListCommand(s *session) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Lists saved schema files.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			infos, err := s.app.ListSchemas(dir)
			if err != nil {
				return err
			}

			out := writerOf(cmd)
			if len(infos) == 0 {
				fmt.Fprintln(out, "No schema files found")
				return nil
			}

			t := newTable(out)
			t.AppendHeader(table.Row{"File", "Course", "Questions", "Created", "Size"})
			for _, info := range infos {
				created := ""
				if !info.CreatedDate.IsZero() {
					created = info.CreatedDate.Format(time.DateTime)
				}
				t.AppendRow(table.Row{info.Filename, info.CourseName, info.QuestionCount, created, fmt.Sprintf("%d B", info.Size)})
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "schema-dir", "", "schema directory (default from config)")
	return cmd
}
