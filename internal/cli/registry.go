package cli

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newRegistryCommand(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Works with the extension's exam to schema registry.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Lists registry entries.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entries, err := s.app.RegistryEntries()
			if err != nil {
				return err
			}

			out := writerOf(cmd)
			if len(entries) == 0 {
				fmt.Fprintln(out, "Registry is empty")
				return nil
			}

			t := newTable(out)
			t.AppendHeader(table.Row{"Name", "Exam ID", "Pattern", "Schema"})
			for _, e := range entries {
				t.AppendRow(table.Row{e.Name, e.ExamID, e.ExamURLPattern, e.SchemaFile})
			}
			t.Render()
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <exam-id>",
		Short: "Removes the registry entries of an exam.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			removed, err := s.app.RemoveRegistryEntry(args[0])
			if err != nil {
				return err
			}
			if !removed {
				return fmt.Errorf("no registry entry for exam id %s", args[0])
			}
			fmt.Fprintf(writerOf(cmd), "Removed registry entry for exam id %s\n", args[0])
			return nil
		},
	})

	return cmd
}
