package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"QASchemaScraper/internal/usecase"
)

func newScrapeCommand(s *session) *cobra.Command {
	var req usecase.ScrapeRequest

	cmd := &cobra.Command{
		Use:   "scrape <url>",
		Short: "Scrapes one course listing page and saves its schema.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.ListingURL = args[0]

			result, err := s.app.Scrape(cmd.Context(), req)
			if err != nil {
				return err
			}

			out := writerOf(cmd)
			fmt.Fprintf(out, "Scraped %d questions from %s\n", len(result.Schema.Questions), result.Course.CourseName)
			if degraded := result.Course.DegradedCount(); degraded > 0 {
				fmt.Fprintf(out, "%d answers could not be extracted\n", degraded)
			}
			fmt.Fprintf(out, "Schema saved to %s\n", result.SchemaPath)
			if req.ExamURL != "" {
				if result.Registered {
					fmt.Fprintf(out, "Registered for exam %s\n", req.ExamURL)
				} else {
					fmt.Fprintln(out, "Schema was not registered; see the log for details")
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&req.CourseName, "name", "", "course name (default: listing host)")
	cmd.Flags().StringVar(&req.OutputDir, "output-dir", "", "schema directory (default from config)")
	cmd.Flags().StringVar(&req.Filename, "filename", "", "schema filename (default derived from the course name)")
	cmd.Flags().StringVar(&req.ExamURL, "exam-url", "", "exam URL to register the schema for in the extension")
	return cmd
}

func newScrapeBatchCommand(s *session) *cobra.Command {
	var opts usecase.BatchOptions

	cmd := &cobra.Command{
		Use:   "scrape-batch <url-file>",
		Short: "Scrapes every course URL listed in a file, one per line.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := s.app.ScrapeBatch(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}

			out := writerOf(cmd)
			fmt.Fprintf(out, "Successfully scraped %d/%d courses\n", report.Succeeded, report.Attempted)
			for _, f := range report.Failures {
				fmt.Fprintf(out, "  failed: %s (%s)\n", f.URL, f.Error)
			}
			if report.MergedPath != "" {
				fmt.Fprintf(out, "Merged schema saved to %s\n", report.MergedPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.OutputDir, "output-dir", "", "schema directory (default from config)")
	cmd.Flags().BoolVar(&opts.Merge, "merge", false, "merge the produced schemas into one file")
	cmd.Flags().IntVar(&opts.Concurrency, "concurrency", 0, "courses scraped at once (default from config)")
	return cmd
}
