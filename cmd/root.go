// Package cmd implements the command-line interface for riverstats.
// It provides the root command and subcommands for fetching river patrol
// data and exporting statistics.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// cfgFile holds the path to the configuration file.
	cfgFile string

	// debug enables debug logging for all commands.
	debug bool

	// noExport skips workbook writing for all data commands.
	noExport bool

	rootCmd = &cobra.Command{
		Use:   "riverstats",
		Short: "River patrol statistics exporter",
		Long: `Fetches activity, patrol, and evaluation records from the river
protection portal and exports per-user statistics as spreadsheets.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
)

// Execute runs the root command.
func Execute() error {
	// Load .env early so environment variables are available to viper.
	_ = godotenv.Load()

	_ = rootCmd.ParseFlags(os.Args[1:])

	if err := initConfig(); err != nil {
		return fmt.Errorf("failed to initialize configuration: %w", err)
	}

	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"",
		"config file (default is ./riverstats.yaml or ./config/riverstats.yaml)",
	)
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&noExport, "no-export", false, "skip writing workbook files")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("riverstats version %s\n", "1.0.0")
		},
	})

	rootCmd.AddCommand(newActivityCommand())
	rootCmd.AddCommand(newPatrolCommand())
	rootCmd.AddCommand(newComprehensiveCommand())
	rootCmd.AddCommand(newAuthCommand())
}

// initConfig reads the config file and environment variables if set.
func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("riverstats")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
	}

	viper.SetEnvPrefix("RIVERSTATS")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Config file is optional; defaults and environment variables cover
	// everything it could set.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}

	if debug {
		viper.Set("debug", true)
	}
	return nil
}
