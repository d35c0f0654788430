package cmd

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/riverstats/internal/models"
)

func newComprehensiveCommand() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "comprehensive",
		Short: "Merge patrol, evaluation, and activity counts per person",
		Long: `Fetches patrol posts, evaluation posts, and activity participation
from the given date onward, merges the three sources into per-person
counts, and exports the combined workbook. An unavailable activity source
is skipped with a warning.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp()
			if err != nil {
				return err
			}
			defer app.close()

			merged, err := app.analysis.RunComprehensiveAnalysis(cmd.Context(), date, consoleSink{})
			if err != nil {
				return explainRunError(err, date)
			}

			renderComprehensiveTable(merged)

			if noExport {
				return nil
			}
			path, err := app.export.ExportComprehensive(merged, date)
			if err != nil {
				return fmt.Errorf("export comprehensive stats: %w", err)
			}
			fmt.Printf("\nsaved %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", today(), "start date (yyyy-MM-dd)")
	return cmd
}

func renderComprehensiveTable(merged []models.ComprehensiveStat) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Name", "Patrol", "Evaluation", "Activity", "Total"})
	for _, s := range merged {
		t.AppendRow(table.Row{s.Name, s.PatrolCount, s.EvaluationCount, s.ActivityCount, s.TotalCount})
	}
	t.Render()
}
