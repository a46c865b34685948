package cli

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newLookupCommand(s *session) *cobra.Command {
	var examURL string

	cmd := &cobra.Command{
		Use:   "lookup <question>",
		Short: "Finds the saved answer for a question the way the extension does.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.Join(args, " ")

			m, ok, err := s.app.Lookup(question, examURL)
			if err != nil {
				return err
			}

			out := writerOf(cmd)
			if !ok {
				fmt.Fprintln(out, "No matching question found")
				return nil
			}

			t := newTable(out)
			t.AppendRows([]table.Row{
				{"Course", m.Course},
				{"Question", m.Question.Question},
				{"Answer", m.Question.Answer.String()},
				{"Match", m.MatchType},
				{"Similarity", fmt.Sprintf("%.3f", m.Similarity)},
			})
			t.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&examURL, "exam-url", "", "only search the schema registered for this exam URL")
	return cmd
}
