package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/riverstats/internal/models"
	"github.com/jonesrussell/riverstats/internal/normalize"
)

func newActivityCommand() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Fetch activities and export participant statistics",
		Long: `Fetches community activities starting on or after the given date,
aggregates participants across them, and exports the activity and
participant workbooks.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp()
			if err != nil {
				return err
			}
			defer app.close()

			result, err := app.analysis.RunActivityAnalysis(cmd.Context(), date, consoleSink{})
			if err != nil {
				return explainRunError(err, date)
			}

			renderActivityTable(result.Activities)
			renderActivityStats(result.Stats)

			if noExport {
				return nil
			}
			activityPath, err := app.export.ExportActivities(result.Activities, date)
			if err != nil {
				return fmt.Errorf("export activities: %w", err)
			}
			participantPath, err := app.export.ExportParticipants(result.Participants, result.Stats, date)
			if err != nil {
				return fmt.Errorf("export participants: %w", err)
			}

			fmt.Printf("\nsaved %s\nsaved %s\n", activityPath, participantPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", today(), "start date (yyyy-MM-dd)")
	return cmd
}

func today() string {
	return time.Now().Format(normalize.DateLayout)
}

func renderActivityTable(activities []models.ActivityRecord) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Name", "Type", "Start", "Signed In", "Max"})
	for _, a := range activities {
		t.AppendRow(table.Row{a.ID, a.Name, string(a.Type), a.StartTime, a.SignedIn, a.MaxMembers})
	}
	t.Render()
}

func renderActivityStats(st models.ActivityStats) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Activities", "Patrol Walks", "Beach Cleans", "Participants", "Avg"})
	t.AppendRow(table.Row{st.TotalActivities, st.PatrolWalkCount, st.BeachCleanCount, st.TotalParticipants, st.AvgParticipants})
	t.Render()
}
