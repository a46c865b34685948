package cli

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newHistoryCommand(s *session) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Lists recent course scrapes.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			runs, err := s.app.History(cmd.Context(), limit)
			if err != nil {
				return err
			}

			out := writerOf(cmd)
			if len(runs) == 0 {
				fmt.Fprintln(out, "No scrapes recorded")
				return nil
			}

			t := newTable(out)
			t.AppendHeader(table.Row{"ID", "Course", "Listing", "Schema", "Questions", "Degraded", "Scraped"})
			for _, r := range runs {
				t.AppendRow(table.Row{r.ID, r.CourseName, r.ListingURL, r.SchemaFile, r.QuestionCount, r.DegradedAnswers, r.ScrapedAt.Format(time.DateTime)})
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "number of runs to show")
	return cmd
}
