package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/riverstats/internal/settings"
)

func newAuthCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the saved portal token and organization id",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set-token <token>",
		Short: "Save the bearer token used for authenticated portal calls",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := settings.NewStore()
			if err != nil {
				return err
			}
			if err := store.SetToken(args[0]); err != nil {
				return err
			}
			fmt.Println("token saved")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set-org <orgId>",
		Short: "Save the organization id used for list queries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := settings.NewStore()
			if err != nil {
				return err
			}
			if err := store.SetOrgID(args[0]); err != nil {
				return err
			}
			fmt.Printf("organization id set to %s\n", args[0])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the saved settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := settings.NewStore()
			if err != nil {
				return err
			}
			token, err := store.Token()
			if err != nil {
				return err
			}
			orgID, err := store.OrgID()
			if err != nil {
				return err
			}
			if token == "" {
				fmt.Println("token: (not set)")
			} else {
				fmt.Printf("token: %s\n", maskToken(token))
			}
			fmt.Printf("organization id: %s\n", orgID)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove all saved settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := settings.NewStore()
			if err != nil {
				return err
			}
			if err := store.Clear(); err != nil {
				return err
			}
			fmt.Println("settings cleared")
			return nil
		},
	})

	return cmd
}

// maskToken keeps just enough of the token to recognize it.
func maskToken(token string) string {
	if len(token) <= 8 {
		return "********"
	}
	return token[:4] + "..." + token[len(token)-4:]
}
