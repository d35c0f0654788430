package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/riverstats/internal/models"
)

func newPatrolCommand() *cobra.Command {
	var (
		kindName string
		date     string
	)

	cmd := &cobra.Command{
		Use:   "patrol",
		Short: "Fetch patrol or evaluation posts and export per-user statistics",
		Long: `Fetches user-submitted patrol or evaluation posts from the given
date onward, groups them by user, and exports the per-user post
statistics workbook.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKind(kindName)
			if err != nil {
				return err
			}

			app, err := buildApp()
			if err != nil {
				return err
			}
			defer app.close()

			users, err := app.analysis.RunPatrolAnalysis(cmd.Context(), date, kind, consoleSink{})
			if err != nil {
				return explainRunError(err, date)
			}

			renderUserStatsTable(users)

			if noExport {
				return nil
			}
			path, err := app.export.ExportPatrol(users, kind, date)
			if err != nil {
				return fmt.Errorf("export patrol stats: %w", err)
			}
			fmt.Printf("\nsaved %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&kindName, "kind", "patrol", "data source: patrol or evaluation")
	cmd.Flags().StringVar(&date, "date", today(), "start date (yyyy-MM-dd)")
	return cmd
}

func parseKind(name string) (models.Kind, error) {
	switch strings.ToLower(name) {
	case "patrol":
		return models.KindPatrol, nil
	case "evaluation":
		return models.KindEvaluation, nil
	default:
		return 0, fmt.Errorf("unknown kind %q: expected patrol or evaluation", name)
	}
}

func renderUserStatsTable(users []models.UserPostStats) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "User", "Phone", "Posts"})
	for i, u := range users {
		phone := u.Phone
		if phone == "" {
			phone = "-"
		}
		t.AppendRow(table.Row{i + 1, u.Nickname, phone, u.PostCount})
	}
	t.Render()
}
